package synth

import (
	"fmt"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/log"
	"github.com/dudk/dunjams/mixer"
)

// maxVelocity is the velocity of a note played at full gain.
const maxVelocity = 127

// Synth is a polyphonic instrument. Every note-on adds a new Note to the
// mixer. Notes with an envelope are percussive and end on their own, gated
// notes sound until note-off.
//
// Synth isn't safe for concurrent use. It's meant to be played from
// scheduler callbacks.
type Synth struct {
	log.Logger
	mixer      *mixer.Mixer
	sampleRate int
	waveform   Waveform
	gain       float64
	envelope   *envelope
	gated      map[int][]*Note
}

type envelope struct {
	attack, n1, decay, n2 float64
}

// Option configures the synth.
type Option func(*Synth) error

// WithWaveform sets the waveform of notes.
func WithWaveform(w Waveform) Option {
	return func(s *Synth) error {
		if w < Sine || w > Triangle {
			return fmt.Errorf("%w: %v", ErrUnknownWaveform, w)
		}
		s.waveform = w
		return nil
	}
}

// WithGain sets the gain of notes played at maximal velocity.
func WithGain(gain float64) Option {
	return func(s *Synth) error {
		s.gain = gain
		return nil
	}
}

// WithEnvelope makes notes percussive. Attack and decay are in seconds.
func WithEnvelope(attack, n1, decay, n2 float64) Option {
	return func(s *Synth) error {
		// validate once, so note-on never fails
		if _, err := EnvelopeSeconds(s.sampleRate, dunjams.Silence, attack, n1, decay, n2); err != nil {
			return err
		}
		s.envelope = &envelope{attack: attack, n1: n1, decay: decay, n2: n2}
		return nil
	}
}

// New returns a synth which plays into the mixer.
func New(m *mixer.Mixer, sampleRate int, options ...Option) (*Synth, error) {
	s := &Synth{
		Logger:     log.GetLogger(),
		mixer:      m,
		sampleRate: sampleRate,
		waveform:   Sine,
		gain:       0.2,
		gated:      make(map[int][]*Note),
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NoteOn starts a note. Zero velocity is note-off.
func (s *Synth) NoteOn(pitch, velocity int) {
	if velocity <= 0 {
		s.NoteOff(pitch)
		return
	}
	if velocity > maxVelocity {
		velocity = maxVelocity
	}
	note := NewNote(s.sampleRate, float64(pitch), s.gain*float64(velocity)/maxVelocity, s.waveform)
	if e := s.envelope; e != nil {
		env, err := EnvelopeSeconds(s.sampleRate, note, e.attack, e.n1, e.decay, e.n2)
		if err == nil {
			s.mixer.Add(env)
			return
		}
		s.Warn("synth: envelope ignored: ", err)
	}
	s.gated[pitch] = append(s.gated[pitch], note)
	s.mixer.Add(note)
}

// NoteOff releases gated notes of the pitch.
func (s *Synth) NoteOff(pitch int) {
	for _, n := range s.gated[pitch] {
		n.NoteOff()
	}
	delete(s.gated, pitch)
}

// AllNotesOff releases all gated notes.
func (s *Synth) AllNotesOff() {
	for pitch := range s.gated {
		s.NoteOff(pitch)
	}
}

// Program selects the waveform by preset number. Bank is ignored.
func (s *Synth) Program(bank, preset int) {
	if preset < 0 {
		preset = -preset
	}
	s.waveform = Waveform(preset % len(harmonics))
}

// Waveform returns the current waveform.
func (s *Synth) Waveform() Waveform {
	return s.waveform
}
