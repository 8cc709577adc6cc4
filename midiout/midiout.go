// Package midiout plays pattern notes on an external MIDI instrument.
package midiout

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/dudk/dunjams/log"
)

// controllers of bank select
const (
	bankMSB = 0
	bankLSB = 32
)

// ErrInvalidChannel is returned when channel is out of [0, 15] range.
var ErrInvalidChannel = errors.New("invalid midi channel")

// SendFunc delivers a message to the port.
type SendFunc func(msg gomidi.Message) error

// Instrument sends notes to a single channel of MIDI port. It tracks
// sounding notes, so they can be released at once. It's safe for concurrent
// use.
type Instrument struct {
	log.Logger
	send    SendFunc
	channel uint8

	mu       sync.Mutex
	sounding map[uint8]int
	failed   atomic.Int64
}

// New returns instrument which sends messages with send.
func New(send SendFunc, channel int) (*Instrument, error) {
	if channel < 0 || channel > 15 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return &Instrument{
		Logger:   log.GetLogger(),
		send:     send,
		channel:  uint8(channel),
		sounding: make(map[uint8]int),
	}, nil
}

// Open returns instrument of the named output port. Driver must be
// registered by the caller.
func Open(port string, channel int) (*Instrument, error) {
	out, err := gomidi.FindOutPort(port)
	if err != nil {
		return nil, fmt.Errorf("failed to find midi port %q: %w", port, err)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to open midi port %q: %w", port, err)
	}
	return New(send, channel)
}

// Ports returns names of available output ports.
func Ports() []string {
	var names []string
	for _, port := range gomidi.GetOutPorts() {
		names = append(names, port.String())
	}
	return names
}

// Close releases all notes and closes the driver.
func (i *Instrument) Close() {
	i.AllNotesOff()
	gomidi.CloseDriver()
}

// NoteOn starts the note. Zero velocity releases it.
func (i *Instrument) NoteOn(pitch, velocity int) {
	key := clamp(pitch)
	vel := clamp(velocity)
	if vel == 0 {
		i.NoteOff(pitch)
		return
	}
	i.mu.Lock()
	i.sounding[key]++
	i.mu.Unlock()
	i.write(gomidi.NoteOn(i.channel, key, vel))
}

// NoteOff releases the note.
func (i *Instrument) NoteOff(pitch int) {
	key := clamp(pitch)
	i.mu.Lock()
	if i.sounding[key]--; i.sounding[key] <= 0 {
		delete(i.sounding, key)
	}
	i.mu.Unlock()
	i.write(gomidi.NoteOff(i.channel, key))
}

// AllNotesOff releases every sounding note.
func (i *Instrument) AllNotesOff() {
	i.mu.Lock()
	sounding := i.sounding
	i.sounding = make(map[uint8]int)
	i.mu.Unlock()
	for key, n := range sounding {
		for ; n > 0; n-- {
			i.write(gomidi.NoteOff(i.channel, key))
		}
	}
}

// Program selects the bank and preset. Bank is sent as 14-bit bank select.
func (i *Instrument) Program(bank, preset int) {
	i.write(gomidi.ControlChange(i.channel, bankMSB, uint8(bank>>7)&0x7f))
	i.write(gomidi.ControlChange(i.channel, bankLSB, uint8(bank)&0x7f))
	i.write(gomidi.ProgramChange(i.channel, clamp(preset)))
}

// Sounding returns number of sounding notes.
func (i *Instrument) Sounding() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, c := range i.sounding {
		n += c
	}
	return n
}

// Failed returns number of messages which weren't delivered.
func (i *Instrument) Failed() int64 {
	return i.failed.Load()
}

func (i *Instrument) write(msg gomidi.Message) {
	if err := i.send(msg); err != nil {
		i.failed.Add(1)
		i.Warn("midi: failed to send ", msg.String(), ": ", err)
	}
}

func clamp(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 127:
		return 127
	}
	return uint8(v)
}
