package pitch_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/dunjams/pitch"
	"github.com/dudk/dunjams/synth"
	"github.com/dudk/dunjams/test"
)

func newTracker(t *testing.T, d *pitch.Detector) *pitch.Tracker {
	t.Helper()
	tr, err := pitch.NewTracker(pitch.DefaultThresholds(), d)
	require.NoError(t, err)
	return tr
}

func TestTrackerReads(t *testing.T) {
	tr := newTracker(t, nil)
	assert.Equal(t, 0, tr.Midi())
	assert.Equal(t, 0, tr.HeldMidi())
	assert.Equal(t, 0.0, tr.Saturation(60))

	for i := 0; i < pitch.PopThreshold; i++ {
		assert.Equal(t, 62, tr.AddPitch(74.2))
	}
	assert.Equal(t, 62, tr.Midi())
	assert.Equal(t, 62, tr.HeldMidi())
	assert.Equal(t, 1.0, tr.Saturation(62))
	assert.Equal(t, int64(pitch.PopThreshold), tr.Total())
}

func TestTrackerDrain(t *testing.T) {
	tr := newTracker(t, nil)
	for i := 0; i < 20; i++ {
		tr.AddPitch(60)
	}
	drained := tr.Drain()
	assert.Equal(t, []pitch.Event{{Value: 60, Duration: 20}}, drained.Events())
	// nothing new since the last drain
	assert.Equal(t, 0, tr.Drain().Len())

	// restart is applied with the next sample
	assert.Equal(t, 60, tr.Snapshot().Midi())
	tr.AddPitch(64)
	assert.Equal(t, []pitch.Event{{Value: 64, Duration: 1}}, tr.Snapshot().Events())

	// drained log is owned by the caller
	drained.Finalize()
	assert.Equal(t, 1, tr.Snapshot().Len())

	next := tr.Drain()
	assert.Equal(t, int64(1), next.Samples())
	assert.Equal(t, int64(21), tr.Total())
}

func TestTrackerWrite(t *testing.T) {
	d, err := pitch.NewDetector(sampleRate, pitch.DefaultWindow, pitch.DefaultTolerance, pitch.DefaultSilence)
	require.NoError(t, err)
	tr := newTracker(t, d)
	s := test.Sine(sampleRate, synth.MidiToFrequency(67), 0.5, 40*bufferSize)
	for _, b := range test.Buffers(s, bufferSize) {
		tr.Write(b)
	}
	assert.Equal(t, 67, tr.Midi())
	assert.Equal(t, 67, tr.HeldMidi())

	assert.Panics(t, func() { newTracker(t, nil).Write(s[:bufferSize]) })
}

func TestTrackerThresholds(t *testing.T) {
	th := pitch.DefaultThresholds()
	th.Pop = 0
	_, err := pitch.NewTracker(th, nil)
	assert.True(t, errors.Is(err, pitch.ErrInvalidThresholds))
}

func TestTrackerConcurrent(t *testing.T) {
	tr := newTracker(t, nil)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.AddPitch(float64(60 + i/50%12))
		}
	}()
	var drained int64
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			tr.Midi()
			tr.Saturation(60)
			drained += tr.Drain().Samples()
		}
	}()
	wg.Wait()
	drained += tr.Drain().Samples()
	assert.True(t, drained <= 1000)
	assert.Equal(t, int64(1000), tr.Total())
}
