package pitch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/dunjams/pitch"
)

func feed(l *pitch.Log, values ...float64) {
	for _, v := range values {
		l.AddPitch(v)
	}
}

func repeat(v float64, n int) []float64 {
	r := make([]float64, n)
	for i := range r {
		r[i] = v
	}
	return r
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw      float64
		expected int
	}{
		{raw: 0, expected: 0},
		{raw: 0.4, expected: 0},
		{raw: 60, expected: 60},
		{raw: 60.4, expected: 60},
		{raw: 60.5, expected: 60},
		{raw: 61.5, expected: 62},
		{raw: 72, expected: 60},
		{raw: 47, expected: 71},
		{raw: 83.2, expected: 71},
		{raw: -1, expected: 71},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, pitch.Normalize(test.raw), "raw %v", test.raw)
	}
}

func TestLogEmpty(t *testing.T) {
	l := pitch.NewLog(pitch.DefaultThresholds())
	assert.Equal(t, 0, l.Midi())
	assert.Equal(t, 0, l.HeldMidi())
	assert.Equal(t, 0.0, l.Saturation(60))
	assert.Equal(t, 0.0, l.Saturation(0))
	l.Finalize()
	assert.Equal(t, 0, l.Len())
	_, ok := l.Tail()
	assert.False(t, ok)
}

func TestLogSustain(t *testing.T) {
	l := pitch.NewLog(pitch.DefaultThresholds())
	feed(l, 0, 0, 0)
	assert.Equal(t, []pitch.Event{{Value: 0, Duration: 3}}, l.Events())

	for i := 1; i <= 3; i++ {
		assert.Equal(t, 60, l.AddPitch(60))
	}
	// after the 6th sample the tail is still noisy
	assert.Equal(t, []pitch.Event{{Value: 0, Duration: 3}, {Value: 60, Duration: 3}}, l.Events())
	assert.Equal(t, 60, l.Midi())
	assert.Equal(t, 0, l.HeldMidi())

	feed(l, 60, 60)
	// the tail isn't noisy anymore and absorbs the silence
	assert.Equal(t, []pitch.Event{{Value: 60, Duration: 8}}, l.Events())

	for d := 9; d < pitch.PopThreshold; d++ {
		l.AddPitch(60)
		s := l.Saturation(60)
		assert.True(t, s >= 0.1 && s < 0.7, "duration %d saturation %v", d, s)
		assert.InDelta(t, 0.1+0.6*float64(d)/pitch.PopThreshold, s, 1e-12)
		assert.Equal(t, 0, l.HeldMidi())
	}
	l.AddPitch(60)
	assert.Equal(t, 1.0, l.Saturation(60))
	assert.Equal(t, 60, l.HeldMidi())
	assert.Equal(t, 0.0, l.Saturation(64))
	assert.Equal(t, int64(pitch.PopThreshold), l.Samples())
}

func TestLogSaturationRamp(t *testing.T) {
	l := pitch.NewLog(pitch.DefaultThresholds())
	l.AddPitch(60)
	assert.InDelta(t, 0.1+0.6/pitch.PopThreshold, l.Saturation(60), 1e-12)
	assert.Equal(t, 0, l.HeldMidi())
}

func TestLogBlip(t *testing.T) {
	l := pitch.NewLog(pitch.DefaultThresholds())
	feed(l, repeat(60, 5)...)
	feed(l, 64)
	assert.Equal(t, 64, l.Midi())
	feed(l, repeat(60, 5)...)
	assert.Equal(t, []pitch.Event{{Value: 60, Duration: 11}}, l.Events())
}

func TestLogChange(t *testing.T) {
	l := pitch.NewLog(pitch.DefaultThresholds())
	feed(l, repeat(60, 6)...)
	feed(l, repeat(67, 6)...)
	assert.Equal(t, []pitch.Event{{Value: 60, Duration: 6}, {Value: 67, Duration: 6}}, l.Events())
	assert.Equal(t, 67, l.Midi())

	// silence after a note keeps the note as the latest pitch
	feed(l, repeat(0, 6)...)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 67, l.Midi())
}

func TestLogFinalize(t *testing.T) {
	tests := []struct {
		description string
		values      []float64
		expected    []pitch.Event
		midi        int
	}{
		{
			description: "noisy tail is settled",
			values:      append(repeat(60, 8), 64, 64, 64),
			expected:    []pitch.Event{{Value: 60, Duration: 8}, {Value: 64, Duration: 3}},
			midi:        64,
		},
		{
			description: "short tail is silenced",
			values:      append(repeat(60, 8), 64, 64),
			expected:    []pitch.Event{{Value: 60, Duration: 8}, {Value: 0, Duration: 2}},
			midi:        60,
		},
		{
			description: "single short event",
			values:      []float64{60, 60},
			expected:    []pitch.Event{{Value: 0, Duration: 2}},
			midi:        0,
		},
		{
			description: "silenced tail merges into noisy predecessor",
			values:      []float64{60, 60, 64},
			expected:    []pitch.Event{{Value: 0, Duration: 3}},
			midi:        0,
		},
	}
	for _, test := range tests {
		l := pitch.NewLog(pitch.DefaultThresholds())
		feed(l, test.values...)
		l.Finalize()
		assert.Equal(t, test.expected, l.Events(), test.description)
		assert.Equal(t, test.midi, l.Midi(), test.description)
	}
}

func TestLogClone(t *testing.T) {
	l := pitch.NewLog(pitch.DefaultThresholds())
	feed(l, repeat(60, 6)...)
	c := l.Clone()
	feed(l, repeat(64, 6)...)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(6), c.Samples())
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, l.Thresholds(), c.Thresholds())
}

func TestThresholds(t *testing.T) {
	th := pitch.DefaultThresholds()
	assert.NoError(t, th.Validate())
	assert.Equal(t, 9, th.WithPopRatio(0.6).Pop)
	assert.Equal(t, pitch.SustainThreshold, th.WithPopRatio(0.1).Pop)

	l := pitch.NewLog(th.WithPopRatio(0.6))
	feed(l, repeat(60, 9)...)
	assert.Equal(t, 60, l.HeldMidi())

	th.Sustain = 0
	assert.True(t, errors.Is(th.Validate(), pitch.ErrInvalidThresholds))
}
