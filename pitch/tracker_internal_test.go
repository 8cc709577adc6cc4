package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRestartCarry(t *testing.T) {
	tr, err := NewTracker(DefaultThresholds(), nil)
	assert.NoError(t, err)
	for i := 0; i < 10; i++ {
		tr.AddPitch(64)
	}
	// three samples were added after the drained snapshot
	tr.restart(7)
	assert.Equal(t, []Event{{Value: 64, Duration: 3}}, tr.Snapshot().Events())
	assert.Equal(t, int64(3), tr.Snapshot().Samples())
	assert.Equal(t, int64(10), tr.Total())

	tr.restart(10)
	assert.Equal(t, 0, tr.Snapshot().Len())
}

func TestFIFO(t *testing.T) {
	f := newFIFO(4)
	assert.Equal(t, 0, f.write([]float32{1, 2, 3}))
	out := make([]float32, 2)
	assert.True(t, f.read(out))
	assert.Equal(t, []float32{1, 2}, out)
	assert.Equal(t, 1, f.available())

	// wraps around and overwrites the oldest
	assert.Equal(t, 1, f.write([]float32{4, 5, 6, 7}))
	assert.Equal(t, 4, f.available())
	out = make([]float32, 4)
	assert.True(t, f.read(out))
	assert.Equal(t, []float32{4, 5, 6, 7}, out)
	assert.False(t, f.read(out[:1]))

	assert.Equal(t, 2, f.write([]float32{1, 2, 3, 4, 5, 6}))
	assert.True(t, f.read(out))
	assert.Equal(t, []float32{3, 4, 5, 6}, out)
}
