package device_test

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/dunjams/device"
	"github.com/dudk/dunjams/internal/mock"
)

func TestDuplexPlayback(t *testing.T) {
	g := &mock.Generator{Value: 0.5, Limit: 8}
	d, err := device.NewDuplex(g, 2, nil, 0)
	require.NoError(t, err)

	out := make([]float32, 8)
	d.Process(nil, out)
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, out)
	assert.False(t, d.Done())

	d.Process(nil, out)
	assert.True(t, d.Done())
	d.Process(nil, out)
	assert.Equal(t, make([]float32, 8), out)
	pulls, _ := g.Count()
	assert.Equal(t, 2, pulls)
}

func TestDuplexClip(t *testing.T) {
	d, err := device.NewDuplex(&mock.Generator{Value: -3}, 1, nil, 0)
	require.NoError(t, err)
	out := make([]float32, 4)
	d.Process(nil, out)
	assert.Equal(t, []float32{-1, -1, -1, -1}, out)
}

func TestDuplexInput(t *testing.T) {
	tests := []struct {
		channels int
		in       []float32
		expected []float32
	}{
		{channels: 1, in: []float32{0.1, 0.2, 0.3}, expected: []float32{0.1, 0.2, 0.3}},
		{channels: 2, in: []float32{0.5, 0.25, 1, 0}, expected: []float32{0.375, 0.5}},
	}
	for _, test := range tests {
		var captured []float32
		d, err := device.NewDuplex(nil, 0, func(s []float32) {
			captured = append(captured, s...)
		}, test.channels)
		require.NoError(t, err)

		out := make([]float32, 2)
		out[0] = 1
		d.Process(test.in, out)
		assert.Equal(t, test.expected, captured)
		assert.Equal(t, []float32{0, 0}, out)
	}
}

func TestDuplexErrors(t *testing.T) {
	_, err := device.NewDuplex(&mock.Generator{}, 3, nil, 0)
	assert.True(t, errors.Is(err, device.ErrInvalidChannels))
	_, err = device.NewDuplex(nil, 0, func([]float32) {}, 0)
	assert.True(t, errors.Is(err, device.ErrInvalidChannels))
}

func TestReader(t *testing.T) {
	d, err := device.NewDuplex(&mock.Generator{Value: 0.25, Limit: 6}, 2, nil, 0)
	require.NoError(t, err)
	r, err := device.NewReader(d)
	require.NoError(t, err)

	// partial frame is not read
	p := make([]byte, 4*8+3)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 4*8, n)
	for i := 0; i < n; i += 4 {
		assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(p[i:])))
	}

	n, err = r.Read(p)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 4*8, n)

	n, err = r.Read(p)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, r.Close())

	mono, err := device.NewDuplex(&mock.Generator{}, 1, nil, 0)
	require.NoError(t, err)
	_, err = device.NewReader(mono)
	assert.True(t, errors.Is(err, device.ErrInvalidChannels))
}
