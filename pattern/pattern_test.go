package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dudk/dunjams/clock"
)

const (
	sampleRate = 44100
	bufferSize = 512
)

func newScheduler(t *testing.T) *clock.Scheduler {
	t.Helper()
	m, err := clock.NewTempoMap(120)
	require.NoError(t, err)
	s, err := clock.NewScheduler(m, sampleRate)
	require.NoError(t, err)
	return s
}

// pullUntil pulls the scheduler until it reaches tick.
func pullUntil(s *clock.Scheduler, tick clock.Tick) {
	out := make([]float64, bufferSize*2)
	for s.Tick() < tick {
		s.Generate(out, 2)
	}
}
