package pattern

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/dudk/dunjams/clock"
	"github.com/dudk/dunjams/log"
)

// Arpeggiator defaults.
const (
	DefaultLength       = clock.TicksPerQuarter / 4
	DefaultArticulation = 0.75
	DefaultVelocity     = 100
	DefaultBank         = 0
	DefaultPreset       = 40
)

// DefaultPitches is a C major arpeggio.
var DefaultPitches = []int{60, 64, 67, 72}

// Direction is the order of arpeggio notes.
type Direction int

// Supported directions.
const (
	Up Direction = iota
	Down
	UpDown
)

var directionNames = [...]string{
	Up:     "up",
	Down:   "down",
	UpDown: "updown",
}

func (d Direction) String() string {
	if d < Up || d > UpDown {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection returns direction by its name.
func ParseDirection(name string) (Direction, error) {
	for i, n := range directionNames {
		if strings.EqualFold(n, name) {
			return Direction(i), nil
		}
	}
	return Up, fmt.Errorf("%w: %q", ErrInvalidDirection, name)
}

// arpeggio is an immutable set of arpeggiator parameters.
type arpeggio struct {
	pitches      []int
	length       clock.Tick
	articulation float64
	direction    Direction
}

// pendingOff is the note-off of the last played note.
type pendingOff struct {
	cmd   *clock.Command
	pitch int
}

// Arpeggiator plays pitches one after another on a grid of note length.
// Parameters can be changed from any goroutine, they apply to the next
// note.
type Arpeggiator struct {
	log.Logger
	sched    *clock.Scheduler
	inst     Instrument
	task     *clock.Task
	off      clock.Callback
	velocity int
	bank     int
	preset   int
	onNote   func(tick clock.Tick, pitch, velocity int, length clock.Tick)

	params  atomic.Pointer[arpeggio]
	pending atomic.Pointer[pendingOff]

	// owned by the audio goroutine
	index     int
	increment int
}

// ArpeggiatorOption configures the arpeggiator.
type ArpeggiatorOption func(*Arpeggiator)

// WithVelocity sets velocity of notes.
func WithVelocity(velocity int) ArpeggiatorOption {
	return func(a *Arpeggiator) {
		a.velocity = velocity
	}
}

// WithProgram sets the sound of notes.
func WithProgram(bank, preset int) ArpeggiatorOption {
	return func(a *Arpeggiator) {
		a.bank = bank
		a.preset = preset
	}
}

// OnNote sets a hook called on the audio goroutine for every played note.
func OnNote(fn func(tick clock.Tick, pitch, velocity int, length clock.Tick)) ArpeggiatorOption {
	return func(a *Arpeggiator) {
		a.onNote = fn
	}
}

// NewArpeggiator returns a stopped arpeggiator with default arpeggio.
func NewArpeggiator(s *clock.Scheduler, inst Instrument, options ...ArpeggiatorOption) *Arpeggiator {
	a := &Arpeggiator{
		Logger:    log.GetLogger(),
		sched:     s,
		inst:      inst,
		off:       noteOff(inst),
		velocity:  DefaultVelocity,
		bank:      DefaultBank,
		preset:    DefaultPreset,
		increment: 1,
	}
	a.params.Store(&arpeggio{
		pitches:      append([]int(nil), DefaultPitches...),
		length:       DefaultLength,
		articulation: DefaultArticulation,
		direction:    Up,
	})
	for _, option := range options {
		option(a)
	}
	a.task = clock.NewTask(s, a.note)
	return a
}

// update replaces parameters with a modified copy.
func (a *Arpeggiator) update(fn func(*arpeggio)) {
	for {
		old := a.params.Load()
		p := *old
		fn(&p)
		if a.params.CompareAndSwap(old, &p) {
			return
		}
	}
}

// SetPitches sets midi pitches of the arpeggio.
func (a *Arpeggiator) SetPitches(pitches []int) error {
	if len(pitches) == 0 {
		return ErrNoPitches
	}
	pitches = append([]int(nil), pitches...)
	a.update(func(p *arpeggio) {
		p.pitches = pitches
	})
	return nil
}

// SetRhythm sets note length and the part of it which sounds.
func (a *Arpeggiator) SetRhythm(length clock.Tick, articulation float64) error {
	if err := clock.ValidResolution(length); err != nil {
		return err
	}
	if !(articulation > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidArticulation, articulation)
	}
	a.update(func(p *arpeggio) {
		p.length = length
		p.articulation = articulation
	})
	return nil
}

// SetDirection sets the order of notes.
func (a *Arpeggiator) SetDirection(d Direction) error {
	if d < Up || d > UpDown {
		return fmt.Errorf("%w: %v", ErrInvalidDirection, d)
	}
	a.update(func(p *arpeggio) {
		p.direction = d
	})
	return nil
}

// Pitches returns pitches of the arpeggio.
func (a *Arpeggiator) Pitches() []int {
	return append([]int(nil), a.params.Load().pitches...)
}

// Start plays notes from the next grid position. It returns false if the
// arpeggiator is already playing.
func (a *Arpeggiator) Start() bool {
	if a.task.Running() {
		return false
	}
	program(a.sched, a.inst, a.bank, a.preset)
	return a.task.Start(clock.QuantizeTickUp(a.sched.Tick(), a.params.Load().length))
}

// Stop cancels upcoming notes. The sounding note is released right away.
func (a *Arpeggiator) Stop() bool {
	if !a.task.Stop() {
		return false
	}
	if off := a.pending.Swap(nil); off != nil && a.sched.Remove(off.cmd) {
		a.sched.PostAtTick(a.sched.Tick(), a.off, off.pitch)
	}
	return true
}

// Toggle starts stopped arpeggiator and stops playing one.
func (a *Arpeggiator) Toggle() {
	if !a.Stop() {
		a.Start()
	}
}

// Playing returns true if arpeggiator is started.
func (a *Arpeggiator) Playing() bool {
	return a.task.Running()
}

func (a *Arpeggiator) note(tick clock.Tick) (clock.Tick, bool) {
	p := a.params.Load()
	pitch := a.nextPitch(p)
	a.inst.NoteOn(pitch, a.velocity)

	length := clock.Tick(math.Round(p.articulation * float64(p.length)))
	cmd := a.sched.PostAtTick(tick+length, a.off, pitch)
	a.pending.Store(&pendingOff{cmd: cmd, pitch: pitch})
	if a.onNote != nil {
		a.onNote(tick, pitch, a.velocity, length)
	}
	// next position of the grid after this note
	return clock.QuantizeTickUp(tick+1, p.length), true
}

// nextPitch returns the pitch at current index and advances it.
func (a *Arpeggiator) nextPitch(p *arpeggio) int {
	n := len(p.pitches)
	if a.index >= n {
		a.index = n - 1
	}
	pitch := p.pitches[a.index]
	switch p.direction {
	case Up:
		a.increment = 1
	case Down:
		a.increment = -1
	case UpDown:
		if a.index == 0 {
			a.increment = 1
		} else if a.index == n-1 {
			a.increment = -1
		}
	}
	a.index = ((a.index+a.increment)%n + n) % n
	return pitch
}
