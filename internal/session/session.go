// Package session assembles the audio engine from config: scheduler, mixer,
// synths, patterns and pitch tracker.
package session

import (
	"fmt"
	"sync/atomic"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/clock"
	"github.com/dudk/dunjams/config"
	"github.com/dudk/dunjams/device"
	"github.com/dudk/dunjams/log"
	"github.com/dudk/dunjams/mixer"
	"github.com/dudk/dunjams/pattern"
	"github.com/dudk/dunjams/pitch"
	"github.com/dudk/dunjams/synth"
)

// beatsCapacity is the number of beats kept for a slow reader.
const beatsCapacity = 16

// click envelope in seconds
const (
	clickAttack = 0.002
	clickDecay  = 0.08
)

// Beat is reported on every metronome beat with the pitch log collected
// since the previous one.
type Beat struct {
	Tick   clock.Tick
	Number int64
	Pitch  *pitch.Log
}

// Session is a running engine. Its generator must be driven by exactly one
// device.
type Session struct {
	log.Logger
	uid         string
	Config      *config.Config
	Scheduler   *clock.Scheduler
	Mixer       *mixer.Mixer
	Tracker     *pitch.Tracker
	Metronome   *pattern.Metronome
	Arpeggiator *pattern.Arpeggiator

	click   pattern.Instrument
	notes   pattern.Instrument
	beats   chan Beat
	dropped atomic.Int64
}

// Option of a session.
type Option func(s *Session)

// WithInstrument plays arpeggio on inst instead of the built-in synth.
func WithInstrument(inst pattern.Instrument) Option {
	return func(s *Session) {
		s.notes = inst
	}
}

// WithClickInstrument plays metronome on inst instead of the built-in synth.
func WithClickInstrument(inst pattern.Instrument) Option {
	return func(s *Session) {
		s.click = inst
	}
}

// New creates a session of the config.
func New(cfg *config.Config, options ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tempo, err := cfg.TempoMap()
	if err != nil {
		return nil, err
	}
	sched, err := clock.NewScheduler(tempo, cfg.Audio.SampleRate)
	if err != nil {
		return nil, err
	}
	detector, err := cfg.Detector()
	if err != nil {
		return nil, err
	}
	tracker, err := pitch.NewTracker(cfg.Thresholds(), detector)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Logger:    log.GetLogger(),
		uid:       dunjams.NewUID(),
		Config:    cfg,
		Scheduler: sched,
		Mixer:     mixer.New(cfg.Audio.OutputChannels),
		Tracker:   tracker,
		beats:     make(chan Beat, beatsCapacity),
	}
	for _, option := range options {
		option(s)
	}

	waveform, err := synth.ParseWaveform(cfg.Synth.Waveform)
	if err != nil {
		return nil, err
	}
	if s.click == nil {
		if s.click, err = synth.New(s.Mixer, cfg.Audio.SampleRate,
			synth.WithGain(cfg.Synth.Gain),
			synth.WithEnvelope(clickAttack, 1, clickDecay, 1),
		); err != nil {
			return nil, fmt.Errorf("failed to create click synth: %w", err)
		}
	}
	arpProgram := pattern.DefaultPreset
	if s.notes == nil {
		if s.notes, err = synth.New(s.Mixer, cfg.Audio.SampleRate,
			synth.WithWaveform(waveform),
			synth.WithGain(cfg.Synth.Gain),
			synth.WithEnvelope(cfg.Synth.Attack, 1, cfg.Synth.Decay, 1),
		); err != nil {
			return nil, fmt.Errorf("failed to create synth: %w", err)
		}
		// synth selects waveform by preset
		arpProgram = int(waveform)
	}

	s.Metronome = pattern.NewMetronome(sched, s.click,
		pattern.WithHalfBeat(clock.Tick(cfg.Tempo.HalfBeatTicks)),
		pattern.WithBeatWindow(cfg.Beat.EpsilonBefore, cfg.Beat.EpsilonAfter),
		pattern.OnBeat(s.beat),
	)
	s.Arpeggiator = pattern.NewArpeggiator(sched, s.notes,
		pattern.WithProgram(pattern.DefaultBank, arpProgram),
	)
	sched.SetGenerator(s.Mixer)
	s.fields().Debug("session created")
	return s, nil
}

// fields returns a logger with the stream settings.
func (s *Session) fields() log.Logger {
	return log.WithFields(log.Fields{
		"session":    s.uid,
		"sampleRate": s.Config.Audio.SampleRate,
		"bufferSize": s.Config.Audio.BufferSize,
		"bpm":        s.Config.Tempo.BPM,
	})
}

// ID returns unique id of the session.
func (s *Session) ID() string {
	return s.uid
}

// Generator returns the root generator which must be pulled by the output
// device.
func (s *Session) Generator() dunjams.Generator {
	return s.Scheduler
}

// Input returns func which feeds captured samples to the pitch tracker.
func (s *Session) Input() device.InputFunc {
	return func(samples []float32) {
		s.Tracker.Write(samples)
	}
}

// Beats returns the channel of beats. Beats are dropped when the channel
// is full.
func (s *Session) Beats() <-chan Beat {
	return s.beats
}

// Dropped returns number of beats which weren't delivered.
func (s *Session) Dropped() int64 {
	return s.dropped.Load()
}

// OnBeat returns true if tick is within the beat window of the metronome.
func (s *Session) OnBeat(tick clock.Tick) bool {
	return s.Metronome.InWindow(tick)
}

// Stop stops patterns.
func (s *Session) Stop() {
	s.Metronome.Stop()
	s.Arpeggiator.Stop()
}

// beat is called by metronome on the audio goroutine. The pitch log of the
// beat is finalized, so a note cut short by the beat isn't reported as held.
func (s *Session) beat(tick clock.Tick, n int64) {
	l := s.Tracker.Drain()
	l.Finalize()
	select {
	case s.beats <- Beat{Tick: tick, Number: n, Pitch: l}:
	default:
		s.dropped.Add(1)
	}
}
