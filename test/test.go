// Package test contains signal fixtures useful for testing dunjams packages.
package test

import "math"

// Sine returns frames of a mono sine wave.
func Sine(sampleRate int, frequency, amplitude float64, frames int) []float32 {
	s := make([]float32, frames)
	omega := 2 * math.Pi * frequency / float64(sampleRate)
	for i := range s {
		s[i] = float32(amplitude * math.Sin(omega*float64(i)))
	}
	return s
}

// Buffers splits samples into buffers of size. The last buffer can be
// shorter.
func Buffers(samples []float32, size int) [][]float32 {
	var buffers [][]float32
	for len(samples) > size {
		buffers = append(buffers, samples[:size])
		samples = samples[size:]
	}
	if len(samples) > 0 {
		buffers = append(buffers, samples)
	}
	return buffers
}
