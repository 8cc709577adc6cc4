package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/dudk/dunjams"
)

// ErrInvalidEnvelope is returned when envelope parameters are out of range.
var ErrInvalidEnvelope = errors.New("invalid envelope")

// Envelope shapes the amplitude of the wrapped generator with an attack and
// a decay segment. It ends when the wrapped generator ends or once a pull
// goes past both segments, whichever comes first.
type Envelope struct {
	generator dunjams.Generator
	attack    int64
	decay     int64
	n1, n2    float64
	frame     int64
}

// NewEnvelope wraps generator g. Attack and decay are measured in frames,
// n1 and n2 are shape exponents of the segments: 1 is linear, bigger values
// make the curve steeper at the start.
func NewEnvelope(g dunjams.Generator, attack int64, n1 float64, decay int64, n2 float64) (*Envelope, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: generator is not defined", ErrInvalidEnvelope)
	}
	if attack < 0 || decay < 0 {
		return nil, fmt.Errorf("%w: attack %d and decay %d frames", ErrInvalidEnvelope, attack, decay)
	}
	if !(n1 > 0) || !(n2 > 0) {
		return nil, fmt.Errorf("%w: exponents %v and %v", ErrInvalidEnvelope, n1, n2)
	}
	return &Envelope{
		generator: g,
		attack:    attack,
		decay:     decay,
		n1:        n1,
		n2:        n2,
	}, nil
}

// EnvelopeSeconds is NewEnvelope with attack and decay in seconds.
func EnvelopeSeconds(sampleRate int, g dunjams.Generator, attack, n1, decay, n2 float64) (*Envelope, error) {
	if math.IsNaN(attack) || math.IsNaN(decay) {
		return nil, fmt.Errorf("%w: attack %v and decay %v seconds", ErrInvalidEnvelope, attack, decay)
	}
	return NewEnvelope(g,
		int64(math.RoundToEven(attack*float64(sampleRate))), n1,
		int64(math.RoundToEven(decay*float64(sampleRate))), n2,
	)
}

// Frames returns total length of the envelope.
func (e *Envelope) Frames() int64 {
	return e.attack + e.decay
}

// Gain returns the envelope value at frame.
func (e *Envelope) Gain(frame int64) float64 {
	if frame < e.attack {
		return math.Pow(float64(frame)/float64(e.attack), 1/e.n1)
	}
	if e.decay == 0 {
		return 0
	}
	v := 1 - math.Pow(float64(frame-e.attack)/float64(e.decay), 1/e.n2)
	if v < 0 {
		return 0
	}
	return v
}

// Generate pulls the wrapped generator and applies the envelope to it.
func (e *Envelope) Generate(out []float64, channels int) bool {
	frames := dunjams.Frames(out, channels)
	ok := e.generator.Generate(out, channels)
	for i := 0; i < frames; i++ {
		gain := e.Gain(e.frame + int64(i))
		for c := 0; c < channels; c++ {
			out[i*channels+c] *= gain
		}
	}
	e.frame += int64(frames)
	return ok && e.frame <= e.attack+e.decay
}
