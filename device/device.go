// Package device adapts the audio graph to device callbacks, which exchange
// interleaved float32 buffers.
package device

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/signal"
)

// ErrInvalidChannels is returned when device channels can't be served.
var ErrInvalidChannels = errors.New("invalid number of channels")

// InputFunc receives mono samples captured by the device. Slice is reused
// after the call returns.
type InputFunc func(samples []float32)

// Duplex serves a single device callback: captured samples are passed to
// the input func and playback buffer is filled from the generator.
//
// Process must be called from a single goroutine.
type Duplex struct {
	generator     dunjams.Generator
	channels      int
	inputChannels int
	input         InputFunc

	out  []float64
	mono []float32
	done atomic.Bool
}

// NewDuplex returns a callback which plays g on channels and captures
// inputChannels into input. Either side can be omitted with nil.
func NewDuplex(g dunjams.Generator, channels int, input InputFunc, inputChannels int) (*Duplex, error) {
	if g != nil && channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d output channels", ErrInvalidChannels, channels)
	}
	if input != nil && inputChannels < 1 {
		return nil, fmt.Errorf("%w: %d input channels", ErrInvalidChannels, inputChannels)
	}
	return &Duplex{
		generator:     g,
		channels:      channels,
		inputChannels: inputChannels,
		input:         input,
	}, nil
}

// Channels returns number of playback channels.
func (d *Duplex) Channels() int {
	return d.channels
}

// Done returns true once the generator is exhausted.
func (d *Duplex) Done() bool {
	return d.done.Load()
}

// Process handles one device buffer. Both buffers are interleaved.
// Playback samples are clipped to [-1, 1].
func (d *Duplex) Process(in, out []float32) {
	if d.input != nil && len(in) > 0 {
		d.input(d.downmix(in))
	}
	if len(out) == 0 {
		return
	}
	if d.generator == nil || d.done.Load() {
		for i := range out {
			out[i] = 0
		}
		return
	}
	if cap(d.out) < len(out) {
		d.out = make([]float64, len(out))
	}
	buf := d.out[:len(out)]
	if !d.generator.Generate(buf, d.channels) {
		d.done.Store(true)
	}
	for i, v := range buf {
		out[i] = float32(signal.Clip(v))
	}
}

// downmix averages captured channels.
func (d *Duplex) downmix(in []float32) []float32 {
	if d.inputChannels == 1 {
		return in
	}
	frames := len(in) / d.inputChannels
	if cap(d.mono) < frames {
		d.mono = make([]float32, frames)
	}
	mono := d.mono[:frames]
	for i := range mono {
		var sum float32
		for c := 0; c < d.inputChannels; c++ {
			sum += in[i*d.inputChannels+c]
		}
		mono[i] = sum / float32(d.inputChannels)
	}
	return mono
}

// Reader streams stereo playback of duplex as little endian float32
// samples. It returns io.EOF after the generator is exhausted.
type Reader struct {
	mu  sync.Mutex
	d   *Duplex
	buf []float32
}

// NewReader returns a reader of stereo duplex.
func NewReader(d *Duplex) (*Reader, error) {
	if d.channels != 2 {
		return nil, fmt.Errorf("%w: reader needs stereo, got %d", ErrInvalidChannels, d.channels)
	}
	return &Reader{d: d}, nil
}

// Read fills p with whole frames.
func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.d.Done() {
		return 0, io.EOF
	}
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.d.Process(nil, r.buf)
	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	n := frames * 8
	if r.d.Done() {
		return n, io.EOF
	}
	return n, nil
}

// Close does nothing. It allows to use reader as io.ReadCloser.
func (r *Reader) Close() error {
	return nil
}
