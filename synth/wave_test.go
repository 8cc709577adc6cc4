package synth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/dunjams/synth"
	"github.com/dudk/dunjams/wav"
)

func TestWave(t *testing.T) {
	mono := &wav.Sample{Data: []float64{0.1, 0.2, 0.3}, Channels: 1, SampleRate: sampleRate}
	stereo := &wav.Sample{Data: []float64{0.1, 0.3, 0.5, 0.7}, Channels: 2, SampleRate: sampleRate}
	tests := []struct {
		description string
		sample      *wav.Sample
		gain        float64
		loop        bool
		channels    int
		frames      int
		expected    [][]float64
		ok          []bool
	}{
		{
			description: "mono to stereo",
			sample:      mono,
			gain:        1,
			channels:    2,
			frames:      2,
			expected:    [][]float64{{0.1, 0.1, 0.2, 0.2}, {0.3, 0.3, 0, 0}},
			ok:          []bool{true, false},
		},
		{
			description: "exact end",
			sample:      mono,
			gain:        1,
			channels:    1,
			frames:      3,
			expected:    [][]float64{{0.1, 0.2, 0.3}},
			ok:          []bool{false},
		},
		{
			description: "loop",
			sample:      mono,
			gain:        2,
			loop:        true,
			channels:    1,
			frames:      2,
			expected:    [][]float64{{0.2, 0.4}, {0.6, 0.2}, {0.4, 0.6}},
			ok:          []bool{true, true, true},
		},
		{
			description: "stereo to mono",
			sample:      stereo,
			gain:        1,
			channels:    1,
			frames:      2,
			expected:    [][]float64{{0.2, 0.6}},
			ok:          []bool{false},
		},
		{
			description: "stereo",
			sample:      stereo,
			gain:        1,
			channels:    2,
			frames:      1,
			expected:    [][]float64{{0.1, 0.3}, {0.5, 0.7}},
			ok:          []bool{true, false},
		},
	}
	for _, test := range tests {
		w := synth.NewWave(test.sample, test.gain, test.loop)
		for i, expected := range test.expected {
			out := make([]float64, test.frames*test.channels)
			assert.Equal(t, test.ok[i], w.Generate(out, test.channels), test.description)
			assert.InDeltaSlice(t, expected, out, 1e-12, test.description)
		}
	}
}

func TestWaveEmpty(t *testing.T) {
	w := synth.NewWave(&wav.Sample{Channels: 1, SampleRate: sampleRate}, 1, true)
	out := []float64{1, 1}
	assert.False(t, w.Generate(out, 1))
	assert.Equal(t, []float64{0, 0}, out)
}
