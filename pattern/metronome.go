package pattern

import (
	"math"

	"github.com/dudk/dunjams/clock"
	"github.com/dudk/dunjams/log"
)

// Metronome defaults.
const (
	DefaultClickPitch    = 60
	DefaultClickVelocity = 100
	DefaultHalfBeat      = clock.TicksPerQuarter / 2
	// DefaultClickBank is the percussion bank of general midi.
	DefaultClickBank = 128
)

// Metronome plays a click on every beat.
type Metronome struct {
	log.Logger
	sched    *clock.Scheduler
	inst     Instrument
	task     *clock.Task
	off      clock.Callback
	pitch    int
	velocity int
	halfBeat clock.Tick
	bank     int
	preset   int
	onBeat   func(tick clock.Tick, beat int64)
	before   float64
	after    float64
}

// MetronomeOption configures the metronome.
type MetronomeOption func(*Metronome)

// WithClick sets pitch and velocity of the click.
func WithClick(pitch, velocity int) MetronomeOption {
	return func(m *Metronome) {
		m.pitch = pitch
		m.velocity = velocity
	}
}

// WithHalfBeat sets the length of the click.
func WithHalfBeat(ticks clock.Tick) MetronomeOption {
	return func(m *Metronome) {
		if ticks > 0 {
			m.halfBeat = ticks
		}
	}
}

// WithClickProgram sets the sound of the click.
func WithClickProgram(bank, preset int) MetronomeOption {
	return func(m *Metronome) {
		m.bank = bank
		m.preset = preset
	}
}

// WithBeatWindow sets how early and how late in seconds an action still
// counts as being on the beat.
func WithBeatWindow(before, after float64) MetronomeOption {
	return func(m *Metronome) {
		m.before = before
		m.after = after
	}
}

// OnBeat sets a hook called at every beat on the audio goroutine, right
// after the click is played. It must not block.
func OnBeat(fn func(tick clock.Tick, beat int64)) MetronomeOption {
	return func(m *Metronome) {
		m.onBeat = fn
	}
}

// NewMetronome returns a stopped metronome.
func NewMetronome(s *clock.Scheduler, inst Instrument, options ...MetronomeOption) *Metronome {
	m := &Metronome{
		Logger:   log.GetLogger(),
		sched:    s,
		inst:     inst,
		off:      noteOff(inst),
		pitch:    DefaultClickPitch,
		velocity: DefaultClickVelocity,
		halfBeat: DefaultHalfBeat,
		bank:     DefaultClickBank,
	}
	for _, option := range options {
		option(m)
	}
	m.task = clock.NewTask(s, m.click)
	return m
}

// Start plays clicks from the next beat. It returns false if the metronome
// is already playing.
func (m *Metronome) Start() bool {
	if m.task.Running() {
		return false
	}
	program(m.sched, m.inst, m.bank, m.preset)
	return m.task.Start(clock.QuantizeTickUp(m.sched.Tick(), clock.TicksPerQuarter))
}

// Stop cancels upcoming clicks. A sounding click is still released.
func (m *Metronome) Stop() bool {
	return m.task.Stop()
}

// Toggle starts stopped metronome and stops playing one.
func (m *Metronome) Toggle() {
	if !m.Stop() {
		m.Start()
	}
}

// Playing returns true if metronome is started.
func (m *Metronome) Playing() bool {
	return m.task.Running()
}

// InWindow returns true if tick is close enough to the nearest beat.
func (m *Metronome) InWindow(tick clock.Tick) bool {
	beat := clock.Tick(math.Round(float64(tick)/clock.TicksPerQuarter)) * clock.TicksPerQuarter
	d := m.sched.TempoMap().TickToSeconds(tick - beat)
	return d >= -m.before && d <= m.after
}

func (m *Metronome) click(tick clock.Tick) (clock.Tick, bool) {
	m.inst.NoteOn(m.pitch, m.velocity)
	m.sched.PostAtTick(tick+m.halfBeat, m.off, m.pitch)
	if m.onBeat != nil {
		m.onBeat(tick, int64(tick/clock.TicksPerQuarter))
	}
	return tick + clock.TicksPerQuarter, true
}
