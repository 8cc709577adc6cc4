// Package pitch turns a stream of raw pitch estimates into debounced pitch
// events and estimates pitch of an input signal.
package pitch

import (
	"errors"
	"fmt"
	"math"
)

const (
	// SustainThreshold is the duration an event needs to stop being noisy.
	SustainThreshold = 5
	// TrailingBuffer is the padding applied to the tail by Finalize.
	TrailingBuffer = 2
	// PopThreshold is the duration after which a pitch counts as held.
	PopThreshold = 15
)

// ErrInvalidThresholds is returned when debouncer thresholds are out of
// range.
var ErrInvalidThresholds = errors.New("invalid pitch thresholds")

// Thresholds tune the debouncer. Durations are counted in samples, one per
// input buffer.
type Thresholds struct {
	Sustain  int
	Trailing int
	Pop      int
}

// DefaultThresholds returns the reference thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Sustain:  SustainThreshold,
		Trailing: TrailingBuffer,
		Pop:      PopThreshold,
	}
}

// WithPopRatio returns thresholds with pop threshold scaled by ratio. The
// result is never below the sustain threshold.
func (t Thresholds) WithPopRatio(ratio float64) Thresholds {
	pop := int(math.Round(float64(t.Pop) * ratio))
	if pop < t.Sustain {
		pop = t.Sustain
	}
	t.Pop = pop
	return t
}

// Validate returns error if thresholds can't be used.
func (t Thresholds) Validate() error {
	if t.Sustain < 1 || t.Trailing < 0 || t.Pop < 1 {
		return fmt.Errorf("%w: %+v", ErrInvalidThresholds, t)
	}
	return nil
}

// Event is a run of equal pitch values. Zero value is silence.
type Event struct {
	Value    int
	Duration int
}

// Log is a debounced sequence of pitch events. Only its tail is mutable:
// short events are provisional and get merged into their neighbours once
// the pitch settles.
//
// Log isn't safe for concurrent use, see Tracker.
type Log struct {
	thresholds Thresholds
	events     []Event
	samples    int64
}

// NewLog returns an empty log.
func NewLog(t Thresholds) *Log {
	return &Log{thresholds: t}
}

// Normalize rounds raw midi value and folds it into the octave starting at
// middle C. Zero stays zero.
func Normalize(raw float64) int {
	midi := int(math.RoundToEven(raw))
	if midi == 0 {
		return 0
	}
	class := midi % 12
	if class < 0 {
		class += 12
	}
	return 60 + class
}

// AddPitch appends raw pitch estimate to the log and returns its normalized
// value.
func (l *Log) AddPitch(raw float64) int {
	value := Normalize(raw)
	l.samples++
	if n := len(l.events); n > 0 {
		tail := &l.events[n-1]
		if tail.Value == value {
			tail.Duration++
			if !l.noisy(*tail) {
				l.merge()
			}
			return value
		}
		if l.noisy(*tail) {
			// a short blip is treated as silence
			tail.Value = 0
			l.merge()
		}
	}
	l.events = append(l.events, Event{Value: value, Duration: 1})
	return value
}

// Finalize settles the tail as if it lasted a little longer, so a note which
// is about to end doesn't count as held.
func (l *Log) Finalize() {
	n := len(l.events)
	if n == 0 {
		return
	}
	l.events[n-1].Duration += l.thresholds.Trailing
	if l.noisy(l.events[n-1]) {
		l.events[n-1].Value = 0
	}
	l.merge()
	l.events[len(l.events)-1].Duration -= l.thresholds.Trailing
}

// Midi returns the latest non-silent pitch or zero.
func (l *Log) Midi() int {
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Value != 0 {
			return l.events[i].Value
		}
	}
	return 0
}

// HeldMidi returns the latest pitch if the tail is long enough to count as
// held, zero otherwise.
func (l *Log) HeldMidi() int {
	tail, ok := l.Tail()
	if !ok || tail.Duration < l.thresholds.Pop {
		return 0
	}
	return l.Midi()
}

// Saturation returns confidence in [0, 1] that target pitch is being held.
func (l *Log) Saturation(target int) float64 {
	tail, ok := l.Tail()
	if !ok || l.Midi() != target {
		return 0
	}
	if tail.Duration >= l.thresholds.Pop {
		return 1
	}
	return 0.1 + 0.6*float64(tail.Duration)/float64(l.thresholds.Pop)
}

// Tail returns the last event.
func (l *Log) Tail() (Event, bool) {
	if len(l.events) == 0 {
		return Event{}, false
	}
	return l.events[len(l.events)-1], true
}

// Events returns a copy of events.
func (l *Log) Events() []Event {
	return append([]Event(nil), l.events...)
}

// Len returns number of events.
func (l *Log) Len() int {
	return len(l.events)
}

// Samples returns number of added pitch values.
func (l *Log) Samples() int64 {
	return l.samples
}

// Thresholds returns thresholds of the log.
func (l *Log) Thresholds() Thresholds {
	return l.thresholds
}

// Clone returns a deep copy of the log.
func (l *Log) Clone() *Log {
	return &Log{
		thresholds: l.thresholds,
		events:     l.Events(),
		samples:    l.samples,
	}
}

func (l *Log) noisy(e Event) bool {
	return e.Duration < l.thresholds.Sustain
}

// merge folds the tail into its predecessor while the predecessor is noisy
// or has the same value.
func (l *Log) merge() {
	for n := len(l.events); n >= 2; n = len(l.events) {
		prev, last := &l.events[n-2], l.events[n-1]
		if !l.noisy(*prev) && prev.Value != last.Value {
			return
		}
		prev.Duration += last.Duration
		prev.Value = last.Value
		l.events = l.events[:n-1]
	}
}
