// Package mock provides mocks for generators and instruments and allows to
// execute integration tests without audio devices.
package mock

import (
	"sync"

	"github.com/dudk/dunjams"
)

// Generator mocks a dunjams.Generator interface. It fills buffers with Value
// and reports it's done after Limit frames. Zero Limit means it never ends.
type Generator struct {
	counter
	Value float64
	Limit int
	// Hook is called after every pull with its frames.
	Hook func(frames int)
}

// ValueParam returns a mutator which sets new signal value.
func (m *Generator) ValueParam(v float64) func() {
	return func() {
		m.Value = v
	}
}

// Generate implements dunjams.Generator.
func (m *Generator) Generate(out []float64, channels int) bool {
	frames := dunjams.Frames(out, channels)
	for i := range out {
		out[i] = m.Value
	}
	m.advance(frames)
	if m.Hook != nil {
		m.Hook(frames)
	}
	return m.Limit == 0 || m.frames < m.Limit
}

// Event is a message received by the instrument.
type Event struct {
	Kind     EventKind
	Pitch    int
	Velocity int
	Bank     int
	Preset   int
}

// EventKind is the kind of instrument message.
type EventKind int

// Instrument messages.
const (
	NoteOn EventKind = iota
	NoteOff
	Program
)

// Instrument records played notes. It's safe for concurrent use.
type Instrument struct {
	mu     sync.Mutex
	events []Event
	// Hook is called with every event.
	Hook func(Event)
}

// NoteOn records note-on event.
func (m *Instrument) NoteOn(pitch, velocity int) {
	m.record(Event{Kind: NoteOn, Pitch: pitch, Velocity: velocity})
}

// NoteOff records note-off event.
func (m *Instrument) NoteOff(pitch int) {
	m.record(Event{Kind: NoteOff, Pitch: pitch})
}

// Program records program change.
func (m *Instrument) Program(bank, preset int) {
	m.record(Event{Kind: Program, Bank: bank, Preset: preset})
}

func (m *Instrument) record(e Event) {
	m.mu.Lock()
	m.events = append(m.events, e)
	hook := m.Hook
	m.mu.Unlock()
	if hook != nil {
		hook(e)
	}
}

// Events returns a copy of recorded events.
func (m *Instrument) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Pitches returns pitches of recorded events of the kind.
func (m *Instrument) Pitches(kind EventKind) []int {
	var pitches []int
	for _, e := range m.Events() {
		if e.Kind == kind {
			pitches = append(pitches, e.Pitch)
		}
	}
	return pitches
}

// Sounding returns pitches which received note-on without note-off.
func (m *Instrument) Sounding() map[int]int {
	sounding := make(map[int]int)
	for _, e := range m.Events() {
		switch e.Kind {
		case NoteOn:
			sounding[e.Pitch]++
		case NoteOff:
			if sounding[e.Pitch]--; sounding[e.Pitch] <= 0 {
				delete(sounding, e.Pitch)
			}
		}
	}
	return sounding
}

// counter counts pulls and frames.
type counter struct {
	pulls  int
	frames int
}

// advance counter's metrics.
func (c *counter) advance(frames int) {
	c.pulls++
	c.frames += frames
}

// Count returns pulls and frames metrics.
func (c *counter) Count() (int, int) {
	return c.pulls, c.frames
}
