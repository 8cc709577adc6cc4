// Package headless drives the audio graph without audio devices. It's used
// to run the engine on machines without sound cards and in tests.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/device"
	"github.com/dudk/dunjams/log"
	"github.com/dudk/dunjams/signal"
	"github.com/dudk/dunjams/wav"
)

// Capture fills the buffer of captured mono samples.
type Capture func(in []float32)

// Option configures the driver.
type Option func(*Driver)

// Realtime paces buffers with the wall clock, so every buffer takes as much
// time as a device would need to play it.
func Realtime() Option {
	return func(d *Driver) {
		d.realtime = true
	}
}

// WithCapture feeds samples produced by c to input on every buffer.
func WithCapture(c Capture, input device.InputFunc) Option {
	return func(d *Driver) {
		d.capture = c
		d.input = input
	}
}

// WithLimit stops the driver after the number of frames.
func WithLimit(frames int64) Option {
	return func(d *Driver) {
		d.limit = frames
	}
}

// Driver pulls the generator buffer by buffer, the way a device callback
// would.
type Driver struct {
	log.Logger
	uid        string
	generator  dunjams.Generator
	sampleRate int
	bufferSize int
	channels   int
	realtime   bool
	limit      int64
	capture    Capture
	input      device.InputFunc
	frames     int64
}

// New returns a driver of stereo or mono generator.
func New(sampleRate, bufferSize, channels int, g dunjams.Generator, opts ...Option) (*Driver, error) {
	if sampleRate <= 0 || bufferSize <= 0 {
		return nil, fmt.Errorf("invalid stream: %d frames at %d Hz", bufferSize, sampleRate)
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d output channels", device.ErrInvalidChannels, channels)
	}
	d := &Driver{
		Logger:     log.GetLogger(),
		uid:        dunjams.NewUID(),
		generator:  g,
		sampleRate: sampleRate,
		bufferSize: bufferSize,
		channels:   channels,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ID returns unique id of the driver.
func (d *Driver) ID() string {
	return d.uid
}

// Frames returns number of processed frames. It must not be called while
// driver is running.
func (d *Driver) Frames() int64 {
	return d.frames
}

// Run processes buffers until the generator is exhausted, the frame limit
// is reached or the context is done. Context error is returned in the last
// case.
func (d *Driver) Run(ctx context.Context) error {
	duplex, err := device.NewDuplex(d.generator, d.channels, d.input, 1)
	if err != nil {
		return err
	}
	var in []float32
	if d.capture != nil {
		in = make([]float32, d.bufferSize)
	}
	out := make([]float32, d.bufferSize*d.channels)

	var tick <-chan time.Time
	if d.realtime {
		ticker := time.NewTicker(signal.DurationOf(d.sampleRate, int64(d.bufferSize)))
		defer ticker.Stop()
		tick = ticker.C
	}

	d.Debug("headless ", d.uid, ": started")
	defer d.Debug("headless ", d.uid, ": stopped after ", d.frames, " frames")
	for {
		if d.limit > 0 && d.frames >= d.limit {
			return nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if d.capture != nil {
			d.capture(in)
		}
		duplex.Process(in, out)
		d.frames += int64(d.bufferSize)
		if duplex.Done() {
			return nil
		}
	}
}

// SampleCapture returns capture which plays the sample once and then
// produces silence.
func SampleCapture(s *wav.Sample) Capture {
	mono := signal.Mono(s.Data, s.Channels, nil)
	pos := 0
	return func(in []float32) {
		n := 0
		if pos < len(mono) {
			n = len(in)
			if left := len(mono) - pos; left < n {
				n = left
			}
			signal.Float32(mono[pos:pos+n], in[:n])
			pos += n
		}
		for i := n; i < len(in); i++ {
			in[i] = 0
		}
	}
}
