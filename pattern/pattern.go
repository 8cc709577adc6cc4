// Package pattern contains recurring musical patterns driven by the
// scheduler: a metronome and an arpeggiator.
//
// Patterns play instruments from scheduler callbacks, so an instrument is
// only ever called from the audio goroutine.
package pattern

import (
	"errors"

	"github.com/dudk/dunjams/clock"
)

var (
	// ErrNoPitches is returned when arpeggio has no pitches.
	ErrNoPitches = errors.New("no pitches")
	// ErrInvalidArticulation is returned when articulation is not positive.
	ErrInvalidArticulation = errors.New("invalid articulation")
	// ErrInvalidDirection is returned for unknown arpeggio direction.
	ErrInvalidDirection = errors.New("invalid direction")
)

// Instrument plays notes.
type Instrument interface {
	NoteOn(pitch, velocity int)
	NoteOff(pitch int)
}

// Programmer is an instrument with selectable sounds.
type Programmer interface {
	Program(bank, preset int)
}

// program posts program change to the instrument if it supports it.
func program(s *clock.Scheduler, inst Instrument, bank, preset int) {
	p, ok := inst.(Programmer)
	if !ok {
		return
	}
	s.PostAtTick(s.Tick(), func(clock.Tick, interface{}) {
		p.Program(bank, preset)
	}, nil)
}

// noteOff returns a callback which releases the pitch passed as argument.
func noteOff(inst Instrument) clock.Callback {
	return func(_ clock.Tick, arg interface{}) {
		inst.NoteOff(arg.(int))
	}
}
