// Package clock converts between wall-clock time and musical ticks and
// schedules cancellable commands against the audio sample clock.
package clock

import (
	"errors"
	"fmt"
	"math"
)

// TicksPerQuarter is the resolution of musical time.
const TicksPerQuarter = 480

// tickTolerance absorbs float rounding when seconds are converted back to
// ticks, so exact multiples never floor to the previous tick.
const tickTolerance = 1e-9

// Tick is a position in musical time. 480 ticks make a quarter note.
type Tick int64

var (
	// ErrInvalidTempo is returned when tempo is not a positive finite number.
	ErrInvalidTempo = errors.New("invalid tempo")
	// ErrInvalidResolution is returned when quantization grid is not positive.
	ErrInvalidResolution = errors.New("invalid resolution")
	// ErrInvalidSampleRate is returned when sample rate is not positive.
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)

// TempoMap converts between seconds and ticks for a constant tempo.
// It's immutable and safe for concurrent use.
type TempoMap struct {
	bpm            float64
	ticksPerSecond float64
}

// NewTempoMap returns a tempo map for bpm beats per minute.
func NewTempoMap(bpm float64) (*TempoMap, error) {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return nil, fmt.Errorf("%w: %v bpm", ErrInvalidTempo, bpm)
	}
	return &TempoMap{
		bpm:            bpm,
		ticksPerSecond: bpm * TicksPerQuarter / 60,
	}, nil
}

// BPM returns tempo in beats per minute.
func (m *TempoMap) BPM() float64 {
	return m.bpm
}

// TicksPerSecond returns number of ticks in one second.
func (m *TempoMap) TicksPerSecond() float64 {
	return m.ticksPerSecond
}

// TickToSeconds returns time of the tick.
func (m *TempoMap) TickToSeconds(t Tick) float64 {
	return float64(t) / m.ticksPerSecond
}

// SecondsToTick returns the tick at time s.
func (m *TempoMap) SecondsToTick(s float64) Tick {
	return Tick(math.Floor(s*m.ticksPerSecond + tickTolerance))
}

// FrameToTick returns the tick at the frame of sample clock.
func (m *TempoMap) FrameToTick(frame int64, sampleRate int) Tick {
	return m.SecondsToTick(float64(frame) / float64(sampleRate))
}

// TickToFrame returns the first frame of sample clock which is at or after
// the tick.
func (m *TempoMap) TickToFrame(t Tick, sampleRate int) int64 {
	return int64(math.Ceil(m.TickToSeconds(t)*float64(sampleRate) - tickTolerance))
}

// QuantizeTickUp returns the smallest multiple of resolution that is not
// less than t. Resolution must be positive.
func QuantizeTickUp(t, resolution Tick) Tick {
	if resolution <= 0 {
		panic(fmt.Sprintf("quantize with resolution %d", resolution))
	}
	if t > 0 {
		return (t + resolution - 1) / resolution * resolution
	}
	// integer division truncates towards zero, which is ceiling for negatives
	return t / resolution * resolution
}

// ValidResolution returns ErrInvalidResolution if r can't be used as
// quantization grid.
func ValidResolution(r Tick) error {
	if r <= 0 {
		return fmt.Errorf("%w: %d ticks", ErrInvalidResolution, r)
	}
	return nil
}
