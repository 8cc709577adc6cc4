package pitch

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultWindow is the number of new samples per analysis.
	DefaultWindow = 1024
	// DefaultTolerance is the YIN threshold of periodicity.
	DefaultTolerance = 0.5
	// DefaultSilence is the level in dB below which input is silent.
	DefaultSilence = -70

	// fifoWindows is the capacity of input buffer in windows.
	fifoWindows = 8
)

// ErrInvalidWindow is returned when detector window is too small.
var ErrInvalidWindow = errors.New("invalid pitch window")

// Detector estimates pitch of a mono signal with the YIN algorithm. Every
// window of new samples is analysed together with the previous one.
//
// Detector isn't safe for concurrent use.
type Detector struct {
	sampleRate int
	window     int
	tolerance  float64
	silence    float64

	input    *fifo
	hop      []float32
	analysis []float64 // last two windows
	yin      []float64

	midi       float64
	confidence float64
}

// NewDetector returns a detector which analyses windows of samples.
// Tolerance is the YIN threshold in (0, 1], silence is a level in dB.
func NewDetector(sampleRate, window int, tolerance, silence float64) (*Detector, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidWindow, sampleRate)
	}
	if window < 4 {
		return nil, fmt.Errorf("%w: %d samples", ErrInvalidWindow, window)
	}
	if !(tolerance > 0 && tolerance <= 1) {
		return nil, fmt.Errorf("%w: tolerance %v", ErrInvalidWindow, tolerance)
	}
	return &Detector{
		sampleRate: sampleRate,
		window:     window,
		tolerance:  tolerance,
		silence:    silence,
		input:      newFIFO(window * fifoWindows),
		hop:        make([]float32, window),
		analysis:   make([]float64, 2*window),
		yin:        make([]float64, window),
	}, nil
}

// Write adds samples to the detector and returns the latest estimate as
// floating point midi value. Zero means silence or no pitch.
func (d *Detector) Write(samples []float32) float64 {
	d.input.write(samples)
	for d.input.available() >= d.window {
		d.input.read(d.hop)
		copy(d.analysis, d.analysis[d.window:])
		for i, s := range d.hop {
			d.analysis[d.window+i] = float64(s)
		}
		d.midi, d.confidence = d.process()
	}
	return d.midi
}

// Midi returns the latest estimate.
func (d *Detector) Midi() float64 {
	return d.midi
}

// Confidence returns the confidence of the latest estimate.
func (d *Detector) Confidence() float64 {
	return d.confidence
}

// process estimates pitch of the analysis buffer.
func (d *Detector) process() (float64, float64) {
	if Level(d.analysis[d.window:]) < d.silence {
		return 0, 0
	}
	// difference function
	yin := d.yin
	yin[0] = 1
	for tau := 1; tau < len(yin); tau++ {
		var sum float64
		for j := 0; j < len(yin); j++ {
			delta := d.analysis[j] - d.analysis[j+tau]
			sum += delta * delta
		}
		yin[tau] = sum
	}
	// cumulative mean normalization
	var total float64
	for tau := 1; tau < len(yin); tau++ {
		total += yin[tau]
		if total == 0 {
			yin[tau] = 1
			continue
		}
		yin[tau] *= float64(tau) / total
	}
	// first dip below tolerance
	for tau := 2; tau < len(yin)-1; tau++ {
		if yin[tau] >= d.tolerance {
			continue
		}
		for tau+1 < len(yin)-1 && yin[tau+1] < yin[tau] {
			tau++
		}
		period := float64(tau) + parabolicShift(yin[tau-1], yin[tau], yin[tau+1])
		return FrequencyToMidi(float64(d.sampleRate) / period), 1 - yin[tau]
	}
	return 0, 0
}

// parabolicShift returns the offset of a parabola vertex fitted through
// three points.
func parabolicShift(a, b, c float64) float64 {
	den := a - 2*b + c
	if den == 0 {
		return 0
	}
	return 0.5 * (a - c) / den
}

// Level returns RMS level of samples in dB.
func Level(samples []float64) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	var energy float64
	for _, s := range samples {
		energy += s * s
	}
	return 20 * math.Log10(math.Sqrt(energy/float64(len(samples))))
}

// FrequencyToMidi converts frequency in Hz into floating point midi pitch.
// Non-positive frequency is zero.
func FrequencyToMidi(f float64) float64 {
	if f <= 0 {
		return 0
	}
	return 69 + 12*math.Log2(f/440)
}
