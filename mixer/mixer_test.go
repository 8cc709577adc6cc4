package mixer_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/mixer"
)

// constant produces value for a number of pulls, zero means forever.
type constant struct {
	value float64
	pulls int
	count int
}

func (c *constant) Generate(out []float64, channels int) bool {
	dunjams.Frames(out, channels)
	for i := range out {
		out[i] = c.value
	}
	c.count++
	return c.pulls == 0 || c.count < c.pulls
}

func TestMixer(t *testing.T) {
	tests := []struct {
		description string
		channels    int
		inputs      []*constant
		gain        float64
		expected    [][]float64 // per pull, first sample
		lens        []int       // per pull, after the pull
	}{
		{
			description: "empty",
			channels:    1,
			gain:        1,
			expected:    [][]float64{{0, 0}},
			lens:        []int{0},
		},
		{
			description: "linear sum",
			channels:    2,
			inputs:      []*constant{{value: 0.1}, {value: 0.2}, {value: 0.3}},
			gain:        1,
			expected:    [][]float64{{0.6, 0.6}, {0.6, 0.6}},
			lens:        []int{3, 3},
		},
		{
			description: "finished input",
			channels:    1,
			inputs:      []*constant{{value: 0.5}, {value: 0.25, pulls: 1}},
			gain:        1,
			expected:    [][]float64{{0.75, 0.75}, {0.5, 0.5}, {0.5, 0.5}},
			lens:        []int{1, 1, 1},
		},
		{
			description: "gain",
			channels:    2,
			inputs:      []*constant{{value: 0.5}, {value: 0.5}},
			gain:        0.5,
			expected:    [][]float64{{0.5, 0.5}},
			lens:        []int{2},
		},
	}

	for _, test := range tests {
		m := mixer.New(test.channels)
		m.SetGain(test.gain)
		for _, in := range test.inputs {
			m.Add(in)
		}
		assert.Equal(t, len(test.inputs), m.Len(), test.description)
		for i, expected := range test.expected {
			out := make([]float64, 4*test.channels)
			assert.True(t, m.Generate(out, test.channels))
			assert.InDelta(t, expected[0], out[0], 1e-12, test.description)
			assert.InDelta(t, expected[1], out[len(out)-1], 1e-12, test.description)
			assert.Equal(t, test.lens[i], m.Len(), test.description)
		}
	}
}

func TestMixerRemovedInput(t *testing.T) {
	m := mixer.New(1)
	done := &constant{value: 1, pulls: 2}
	m.Add(done)
	out := make([]float64, 8)
	m.Generate(out, 1)
	m.Generate(out, 1)
	assert.Equal(t, 1.0, out[0])
	m.Generate(out, 1)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 2, done.count)
	assert.Equal(t, 0, m.Len())
}

func TestMixerClear(t *testing.T) {
	m := mixer.New(2)
	m.Add(&constant{value: 1})
	m.Add(&constant{value: 1})
	m.Add(nil)
	out := make([]float64, 8)
	m.Generate(out, 2)
	assert.Equal(t, 2.0, out[0])

	m.Clear()
	m.Generate(out, 2)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 0, m.Len())
	assert.NotEmpty(t, m.ID())
}

func TestMixerChannels(t *testing.T) {
	assert.Panics(t, func() { mixer.New(3) })
	m := mixer.New(2)
	assert.Panics(t, func() { m.Generate(make([]float64, 4), 1) })
	assert.Panics(t, func() { m.Generate(make([]float64, 5), 2) })
}

func TestMixerConcurrentAdd(t *testing.T) {
	m := mixer.New(1)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				m.Add(&constant{value: 0.01})
			}
		}()
	}
	out := make([]float64, 16)
	stop := make(chan struct{})
	go func() {
		wg.Wait()
		close(stop)
	}()
	for {
		select {
		case <-stop:
			m.Generate(out, 1)
			assert.InDelta(t, 1.0, out[0], 1e-9)
			assert.Equal(t, 100, m.Len())
			return
		default:
			m.Generate(out, 1)
		}
	}
}

func TestMixerAddWithoutPull(t *testing.T) {
	m := mixer.New(1)
	const inputs = 2000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < inputs; i++ {
			m.Add(&constant{value: 0.001})
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("add is blocked with %d inputs", m.Len())
	}
	assert.Equal(t, inputs, m.Len())

	out := make([]float64, 16)
	m.Generate(out, 1)
	assert.InDelta(t, 2.0, out[0], 1e-9)
}

// spawner adds inputs to the mixer when it's pulled.
type spawner struct {
	m      *mixer.Mixer
	inputs int
}

func (s *spawner) Generate(out []float64, channels int) bool {
	for i := range out {
		out[i] = 0
	}
	for i := 0; i < s.inputs; i++ {
		s.m.Add(&constant{value: 0.001})
	}
	return false
}

func TestMixerAddInGenerate(t *testing.T) {
	m := mixer.New(1)
	m.Add(&spawner{m: m, inputs: 2000})
	out := make([]float64, 16)
	m.Generate(out, 1)
	assert.Equal(t, 2000, m.Len())

	// added inputs join on the next pull
	m.Generate(out, 1)
	assert.InDelta(t, 2.0, out[0], 1e-9)
}
