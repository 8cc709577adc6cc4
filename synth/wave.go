package synth

import (
	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/wav"
)

// Wave plays back a sample. Mono samples are spread over output channels,
// stereo samples are mixed down for mono output. Sample rate is not
// converted.
type Wave struct {
	sample *wav.Sample
	gain   float64
	loop   bool
	pos    int
}

// NewWave returns a generator of the sample. Looped wave never ends.
func NewWave(s *wav.Sample, gain float64, loop bool) *Wave {
	return &Wave{
		sample: s,
		gain:   gain,
		loop:   loop,
	}
}

// Generate copies next frames of the sample into out. The rest of out is
// silent when the sample ends.
func (w *Wave) Generate(out []float64, channels int) bool {
	frames := dunjams.Frames(out, channels)
	total := w.sample.Frames()
	in := w.sample.Channels
	for i := 0; i < frames; i++ {
		if w.pos >= total {
			if !w.loop || total == 0 {
				for j := i * channels; j < len(out); j++ {
					out[j] = 0
				}
				return false
			}
			w.pos = 0
		}
		frame := w.sample.Data[w.pos*in : (w.pos+1)*in]
		switch {
		case in == channels:
			for c := 0; c < channels; c++ {
				out[i*channels+c] = w.gain * frame[c]
			}
		case in == 1:
			for c := 0; c < channels; c++ {
				out[i*channels+c] = w.gain * frame[0]
			}
		default:
			out[i] = w.gain * (frame[0] + frame[1]) / 2
		}
		w.pos++
	}
	return w.loop || w.pos < total
}
