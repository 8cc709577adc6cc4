// Package synth contains generators which synthesize and shape sound:
// additive-harmonic notes, attack/decay envelopes and sample playback.
package synth

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/signal"
)

// ErrUnknownWaveform is returned when waveform name can't be parsed.
var ErrUnknownWaveform = errors.New("unknown waveform")

// Waveform defines the harmonic stack of a note.
type Waveform int

// Supported waveforms.
const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

var waveformNames = [...]string{
	Sine:     "sine",
	Square:   "square",
	Sawtooth: "sawtooth",
	Triangle: "triangle",
}

// harmonic weights, the first one is the fundamental
var harmonics = [...][]float64{
	Sine:     {1},
	Square:   {1, 0, 1. / 3, 0, 1. / 5, 0, 1. / 7, 0, 1. / 9},
	Sawtooth: {1, -1. / 2, 1. / 3, -1. / 4, 1. / 5, -1. / 6, 1. / 7, -1. / 8, 1. / 9},
	Triangle: {1, 0, 1. / 9, 0, 1. / 25, 0, 1. / 49},
}

func (w Waveform) String() string {
	if w < Sine || w > Triangle {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// ParseWaveform returns waveform by its name.
func ParseWaveform(name string) (Waveform, error) {
	for i, n := range waveformNames {
		if strings.EqualFold(n, name) {
			return Waveform(i), nil
		}
	}
	return Sine, fmt.Errorf("%w: %q", ErrUnknownWaveform, name)
}

// oscillator returns the function of the waveform harmonics. Triangle is
// built from cosines.
func (w Waveform) oscillator() func(float64) float64 {
	if w == Triangle {
		return math.Cos
	}
	return math.Sin
}

// MidiToFrequency converts midi pitch to frequency in Hz. A440 is pitch 69.
func MidiToFrequency(pitch float64) float64 {
	return 440 * math.Pow(2, (pitch-69)/12)
}

// Note synthesizes a waveform of constant pitch. It sounds until NoteOff is
// called, the pull after that is its last one.
type Note struct {
	frequency  float64
	gain       float64
	sampleRate int
	harmonics  []float64
	osc        func(float64) float64
	frame      int64
	released   atomic.Bool
}

// NewNote returns a note of midi pitch.
func NewNote(sampleRate int, pitch, gain float64, w Waveform) *Note {
	if w < Sine || w > Triangle {
		w = Sine
	}
	return &Note{
		frequency:  MidiToFrequency(pitch),
		gain:       gain,
		sampleRate: sampleRate,
		harmonics:  harmonics[w],
		osc:        w.oscillator(),
	}
}

// Frequency of the note in Hz.
func (n *Note) Frequency() float64 {
	return n.frequency
}

// Frame returns the number of frames generated so far.
func (n *Note) Frame() int64 {
	return n.frame
}

// NoteOff releases the note. It's safe to call from any goroutine.
func (n *Note) NoteOff() {
	n.released.Store(true)
}

// Generate synthesizes the next frames of the note.
func (n *Note) Generate(out []float64, channels int) bool {
	frames := dunjams.Frames(out, channels)
	// flag is loaded first, so a release during this pull makes the next
	// one the last
	playing := !n.released.Load()
	omega := 2 * math.Pi * n.frequency / float64(n.sampleRate)
	for i := 0; i < frames; i++ {
		phase := omega * float64(n.frame+int64(i))
		var v float64
		for h, w := range n.harmonics {
			if w != 0 {
				v += w * n.osc(phase*float64(h+1))
			}
		}
		out[i] = n.gain * v
	}
	n.frame += int64(frames)
	signal.Spread(out[:frames*channels], channels)
	return playing
}
