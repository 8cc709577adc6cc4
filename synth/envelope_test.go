package synth_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/internal/mock"
	"github.com/dudk/dunjams/synth"
)

func TestEnvelopeGain(t *testing.T) {
	tests := []struct {
		attack, decay int64
		n1, n2        float64
		frame         int64
		expected      float64
	}{
		{attack: 100, n1: 1, decay: 100, n2: 1, frame: 0, expected: 0},
		{attack: 100, n1: 1, decay: 100, n2: 1, frame: 50, expected: 0.5},
		{attack: 100, n1: 1, decay: 100, n2: 1, frame: 100, expected: 1},
		{attack: 100, n1: 1, decay: 100, n2: 1, frame: 150, expected: 0.5},
		{attack: 100, n1: 1, decay: 100, n2: 1, frame: 200, expected: 0},
		{attack: 100, n1: 1, decay: 100, n2: 1, frame: 300, expected: 0},
		{attack: 100, n1: 2, decay: 100, n2: 2, frame: 25, expected: 0.5},
		{attack: 100, n1: 2, decay: 100, n2: 2, frame: 125, expected: 0.5},
		{attack: 0, n1: 1, decay: 10, n2: 1, frame: 0, expected: 1},
		{attack: 10, n1: 1, decay: 0, n2: 1, frame: 10, expected: 0},
	}
	for _, test := range tests {
		e, err := synth.NewEnvelope(dunjams.Silence, test.attack, test.n1, test.decay, test.n2)
		require.NoError(t, err)
		assert.InDelta(t, test.expected, e.Gain(test.frame), 1e-12)
	}
}

func TestEnvelopeLifetime(t *testing.T) {
	tests := []struct {
		bufferSize int
		expected   []bool
	}{
		{bufferSize: 64, expected: []bool{true, true, true, false}},
		{bufferSize: 100, expected: []bool{true, true, false}},
		{bufferSize: 199, expected: []bool{true, false}},
		{bufferSize: 200, expected: []bool{true, false}},
		{bufferSize: 512, expected: []bool{false}},
	}
	for _, test := range tests {
		g := &mock.Generator{Value: 1}
		e, err := synth.NewEnvelope(g, 100, 1, 100, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(200), e.Frames())
		out := make([]float64, test.bufferSize*2)
		var frame int64
		for _, expected := range test.expected {
			assert.Equal(t, expected, e.Generate(out, 2))
			for i := 0; i < test.bufferSize; i++ {
				gain := e.Gain(frame + int64(i))
				assert.InDelta(t, gain, out[2*i], 1e-12)
				assert.InDelta(t, gain, out[2*i+1], 1e-12)
			}
			frame += int64(test.bufferSize)
		}
	}
}

func TestEnvelopeWrappedDone(t *testing.T) {
	// the wrapped generator ends inside the attack
	g := &mock.Generator{Value: 1, Limit: 50}
	e, err := synth.NewEnvelope(g, 100, 1, 100, 1)
	require.NoError(t, err)
	out := make([]float64, 2*25)
	assert.True(t, e.Generate(out, 2))
	assert.False(t, e.Generate(out, 2))

	// released note ends the envelope on the next pull
	n := synth.NewNote(sampleRate, 69, 1, synth.Sine)
	e, err = synth.NewEnvelope(n, 1000, 1, 1000, 1)
	require.NoError(t, err)
	assert.True(t, e.Generate(out, 2))
	n.NoteOff()
	assert.False(t, e.Generate(out, 2))
}

func TestEnvelopeErrors(t *testing.T) {
	tests := []struct {
		g             dunjams.Generator
		attack, decay int64
		n1, n2        float64
	}{
		{g: nil, attack: 1, decay: 1, n1: 1, n2: 1},
		{g: dunjams.Silence, attack: -1, decay: 1, n1: 1, n2: 1},
		{g: dunjams.Silence, attack: 1, decay: -1, n1: 1, n2: 1},
		{g: dunjams.Silence, attack: 1, decay: 1, n1: 0, n2: 1},
		{g: dunjams.Silence, attack: 1, decay: 1, n1: 1, n2: -2},
	}
	for _, test := range tests {
		_, err := synth.NewEnvelope(test.g, test.attack, test.n1, test.decay, test.n2)
		assert.True(t, errors.Is(err, synth.ErrInvalidEnvelope))
	}
}

func TestEnvelopeSeconds(t *testing.T) {
	e, err := synth.EnvelopeSeconds(sampleRate, dunjams.Silence, 0.01, 1, 0.5, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(441+22050), e.Frames())
}
