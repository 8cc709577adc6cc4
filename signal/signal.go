// Package signal provides helpers for interleaved float64 buffers used across
// the synthesis graph. It allows to:
//   - convert float signal to int and back for a defined bit depth
//   - convert float64 buffers to float32 for audio devices
//   - spread mono signal over channels and mix channels down
package signal

import (
	"math"
	"time"
)

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// devider is used when int to float conversion is done.
func (bitDepth BitDepth) devider() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of frames for this sample rate.
func DurationOf(sampleRate int, frames int64) time.Duration {
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}

// FramesOf returns number of frames that fit into duration for this sample
// rate.
func FramesOf(sampleRate int, d time.Duration) int64 {
	return int64(math.Round(d.Seconds() * float64(sampleRate)))
}

// IntsAsFloats converts interleaved int samples to float64. Result is written
// into out when it has enough capacity.
func IntsAsFloats(ints []int, bitDepth BitDepth, out []float64) []float64 {
	if cap(out) < len(ints) {
		out = make([]float64, len(ints))
	}
	out = out[:len(ints)]
	devider := float64(bitDepth.devider())
	for i, v := range ints {
		out[i] = float64(v) / devider
	}
	return out
}

// FloatsAsInts converts interleaved float64 samples to ints. Values outside
// of [-1, 1] are clipped. Result is written into out when it has enough
// capacity.
func FloatsAsInts(floats []float64, bitDepth BitDepth, out []int) []int {
	if cap(out) < len(floats) {
		out = make([]int, len(floats))
	}
	out = out[:len(floats)]
	multiplier := float64(bitDepth.multiplier())
	for i, v := range floats {
		out[i] = int(Clip(v) * multiplier)
	}
	return out
}

// Float32 converts float64 samples into float32 buffer. Only min(len(in),
// len(out)) samples are converted.
func Float32(in []float64, out []float32) {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = float32(in[i])
	}
}

// Clip limits the value to [-1, 1] range.
func Clip(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

// Zero sets all samples to zero.
func Zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}

// Add sums src into dst sample-wise.
func Add(dst, src []float64) {
	for i := range src {
		dst[i] += src[i]
	}
}

// Scale multiplies all samples by gain.
func Scale(s []float64, gain float64) {
	if gain == 1 {
		return
	}
	for i := range s {
		s[i] *= gain
	}
}

// Spread replicates mono samples stored in the first frames of out over all
// channels. It's done in place, from the end, so the mono data stays intact
// until copied.
func Spread(out []float64, channels int) {
	if channels == 1 {
		return
	}
	frames := len(out) / channels
	for i := frames - 1; i >= 0; i-- {
		v := out[i]
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}
}

// Mono mixes interleaved channels down to mono by averaging. Result is
// written into out when it has enough capacity.
func Mono(in []float64, channels int, out []float64) []float64 {
	frames := len(in) / channels
	if cap(out) < frames {
		out = make([]float64, frames)
	}
	out = out[:frames]
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += in[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}
