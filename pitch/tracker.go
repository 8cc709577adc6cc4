package pitch

import (
	"sync/atomic"

	"github.com/dudk/dunjams/log"
	"github.com/dudk/dunjams/mutable"
)

// Tracker shares a Log between the input goroutine, which writes samples,
// and any number of readers. The input goroutine owns the log; readers see
// immutable snapshots published after every added sample. Neither side
// waits for the other.
type Tracker struct {
	log.Logger
	detector   *Detector
	thresholds Thresholds
	mutations  *mutable.Queue
	drained    atomic.Int64 // total samples at the last drain

	// owned by the input goroutine
	current *Log
	total   int64

	snapshot atomic.Pointer[published]
}

// published is a snapshot of the log with the total number of samples
// added to the tracker when it was taken.
type published struct {
	log   *Log
	total int64
}

// NewTracker returns a tracker with an empty log. Detector is optional, it's
// needed only to Write raw audio.
func NewTracker(t Thresholds, d *Detector) (*Tracker, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	tr := &Tracker{
		Logger:     log.GetLogger(),
		detector:   d,
		thresholds: t,
		mutations:  mutable.NewQueue(),
		current:    NewLog(t),
	}
	tr.snapshot.Store(&published{log: NewLog(t)})
	return tr, nil
}

// Write runs pitch detection over mono input samples and adds the estimate
// to the log. It must be called from the input goroutine.
func (t *Tracker) Write(samples []float32) int {
	if t.detector == nil {
		panic("pitch tracker without detector")
	}
	return t.AddPitch(t.detector.Write(samples))
}

// AddPitch adds raw midi estimate to the log and returns its normalized
// value. It must be called from the input goroutine.
func (t *Tracker) AddPitch(raw float64) int {
	// pending restarts are applied before the sample is added
	t.mutations.Apply()
	v := t.current.AddPitch(raw)
	t.total++
	t.snapshot.Store(&published{log: t.current.Clone(), total: t.total})
	return v
}

// Snapshot returns the latest published log. It must not be modified.
func (t *Tracker) Snapshot() *Log {
	return t.snapshot.Load().log
}

// Midi returns the latest non-silent pitch.
func (t *Tracker) Midi() int {
	return t.Snapshot().Midi()
}

// HeldMidi returns the held pitch.
func (t *Tracker) HeldMidi() int {
	return t.Snapshot().HeldMidi()
}

// Saturation returns the confidence that target pitch is held.
func (t *Tracker) Saturation(target int) float64 {
	return t.Snapshot().Saturation(target)
}

// Drain returns a copy of the latest snapshot and restarts the log. The
// restart is applied by the input goroutine before the next sample. Samples
// added after the snapshot was taken are kept in the new log as a single
// event. Draining again before any new sample returns an empty log.
func (t *Tracker) Drain() *Log {
	p := t.snapshot.Load()
	prev := t.drained.Load()
	if p.total <= prev || !t.drained.CompareAndSwap(prev, p.total) {
		return NewLog(t.thresholds)
	}
	t.mutations.Put(func() {
		t.restart(p.total)
	})
	return p.log.Clone()
}

// restart replaces the log with a new one which holds samples added after
// total.
func (t *Tracker) restart(total int64) {
	fresh := NewLog(t.thresholds)
	if extra := t.total - total; extra > 0 {
		tail, _ := t.current.Tail()
		fresh.events = append(fresh.events, Event{Value: tail.Value, Duration: int(extra)})
		fresh.samples = extra
	}
	t.current = fresh
	t.snapshot.Store(&published{log: fresh.Clone(), total: t.total})
	if log.Debugging() {
		t.Debug("pitch tracker: restarted with ", fresh.samples, " carried samples")
	}
}

// Total returns the number of samples added since the tracker was created.
func (t *Tracker) Total() int64 {
	return t.snapshot.Load().total
}
