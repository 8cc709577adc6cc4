// Package portaudio plays the audio graph and captures pitch input with a
// duplex portaudio stream.
package portaudio

import (
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/device"
	"github.com/dudk/dunjams/log"
)

// ErrDeviceNotFound is returned when there is no device with requested name.
var ErrDeviceNotFound = errors.New("device not found")

// Config defines the stream. Empty device names select default devices.
// Zero InputChannels opens an output-only stream.
type Config struct {
	SampleRate     int
	BufferSize     int
	OutputChannels int
	InputChannels  int
	OutputDevice   string
	InputDevice    string
}

// Device describes an audio device of the host.
type Device struct {
	Name       string
	HostAPI    string
	Inputs     int
	Outputs    int
	SampleRate float64
	Latency    time.Duration
}

// Stream drives a generator from the output device callback and passes
// captured samples to the input func on the same callback.
type Stream struct {
	log.Logger
	uid    string
	duplex *device.Duplex
	stream *portaudio.Stream
}

// Devices returns available devices.
func Devices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		d := Device{
			Name:       info.Name,
			Inputs:     info.MaxInputChannels,
			Outputs:    info.MaxOutputChannels,
			SampleRate: info.DefaultSampleRate,
			Latency:    info.DefaultLowOutputLatency,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Open initializes portaudio and opens a stream. Stream must be closed to
// release portaudio.
func Open(cfg Config, g dunjams.Generator, input device.InputFunc) (*Stream, error) {
	inputChannels := cfg.InputChannels
	if input == nil {
		inputChannels = 0
	}
	duplex, err := device.NewDuplex(g, cfg.OutputChannels, input, inputChannels)
	if err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &Stream{
		Logger: log.GetLogger(),
		uid:    dunjams.NewUID(),
		duplex: duplex,
	}
	if s.stream, err = openStream(cfg, inputChannels, duplex.Process); err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.Debug("portaudio ", s.uid, ": opened ", cfg.OutputChannels, " out ", inputChannels, " in at ", cfg.SampleRate)
	return s, nil
}

func openStream(cfg Config, inputChannels int, process func(in, out []float32)) (*portaudio.Stream, error) {
	out, err := lookup(cfg.OutputDevice, portaudio.DefaultOutputDevice)
	if err != nil {
		return nil, err
	}
	var in *portaudio.DeviceInfo
	if inputChannels > 0 {
		if in, err = lookup(cfg.InputDevice, portaudio.DefaultInputDevice); err != nil {
			return nil, err
		}
	}
	p := portaudio.LowLatencyParameters(in, out)
	p.Output.Channels = cfg.OutputChannels
	if in != nil {
		p.Input.Channels = inputChannels
	}
	p.SampleRate = float64(cfg.SampleRate)
	p.FramesPerBuffer = cfg.BufferSize
	return portaudio.OpenStream(p, process)
}

// lookup returns device by name or the default one if name is empty.
func lookup(name string, fallback func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return fallback()
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Name == name {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// ID returns unique id of the stream.
func (s *Stream) ID() string {
	return s.uid
}

// Start starts callbacks.
func (s *Stream) Start() error {
	return s.stream.Start()
}

// Done returns true once the generator is exhausted.
func (s *Stream) Done() bool {
	return s.duplex.Done()
}

// Close stops the stream and terminates portaudio.
func (s *Stream) Close() error {
	// stopping a stream that was never started is not an error worth reporting
	_ = s.stream.Stop()
	if err := s.stream.Close(); err != nil {
		portaudio.Terminate()
		return err
	}
	s.Debug("portaudio ", s.uid, ": closed")
	return portaudio.Terminate()
}
