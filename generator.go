package dunjams

import (
	"fmt"

	"github.com/rs/xid"
)

const (
	// DefaultSampleRate is the reference sample rate of the audio core.
	DefaultSampleRate = 44100
	// DefaultBufferSize is the reference number of frames per buffer.
	DefaultBufferSize = 512
)

// Generator is a pull-based audio source.
//
// Generate fills out with interleaved samples. The number of frames is
// len(out)/channels and every sample of out must be written. The returned
// flag is false when the generator is exhausted: its owner keeps the samples
// of this pull and drops the generator before the next one.
type Generator interface {
	Generate(out []float64, channels int) bool
}

// GeneratorFunc allows to use an ordinary function as Generator.
type GeneratorFunc func(out []float64, channels int) bool

// Generate calls f(out, channels).
func (f GeneratorFunc) Generate(out []float64, channels int) bool {
	return f(out, channels)
}

// Silence is a generator that never ends and produces zeros.
var Silence = GeneratorFunc(func(out []float64, channels int) bool {
	Frames(out, channels)
	for i := range out {
		out[i] = 0
	}
	return true
})

// Frames returns the number of frames in out. A channel count other than
// mono or stereo, or a buffer which doesn't hold whole frames, means the graph
// was composed incorrectly and Frames panics.
func Frames(out []float64, channels int) int {
	if channels != 1 && channels != 2 {
		panic(fmt.Sprintf("unsupported number of channels: %d", channels))
	}
	if len(out)%channels != 0 {
		panic(fmt.Sprintf("buffer of %d samples doesn't fit %d channels", len(out), channels))
	}
	return len(out) / channels
}

// NewUID returns new unique id value.
func NewUID() string {
	return xid.New().String()
}
