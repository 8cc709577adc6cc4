// Package wav renders generators to wav files and loads wav samples for
// playback.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/signal"
)

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")
	// ErrUnsupportedChannels is returned when file is neither mono nor
	// stereo.
	ErrUnsupportedChannels = errors.New("only mono and stereo is supported")
	// ErrInvalidFile is returned when file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
)

// pcmFormat is the wav audio format of integer PCM.
const pcmFormat = 1

// Sample is a decoded wav file kept in memory.
type Sample struct {
	Data       []float64 // interleaved samples
	Channels   int
	SampleRate int
}

// Frames returns the length of sample in frames.
func (s *Sample) Frames() int {
	if s.Channels == 0 {
		return 0
	}
	return len(s.Data) / s.Channels
}

// Duration returns the length of sample.
func (s *Sample) Duration() time.Duration {
	return signal.DurationOf(s.SampleRate, int64(s.Frames()))
}

func supported(bitDepth signal.BitDepth) bool {
	switch bitDepth {
	case signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		return true
	}
	return false
}

// Load reads the whole wav file into memory.
func Load(path string) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads the whole wav stream into memory.
func Decode(r io.ReadSeeker) (*Sample, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidFile
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !supported(bitDepth) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	numChannels := int(decoder.NumChans)
	if numChannels != 1 && numChannels != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedChannels, numChannels)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: pcm data not found", ErrInvalidFile)
	}
	return &Sample{
		Data:       signal.IntsAsFloats(buf.Data, bitDepth, nil),
		Channels:   numChannels,
		SampleRate: int(decoder.SampleRate),
	}, nil
}

// Render pulls frames from generator and encodes them into w. Rendering ends
// after frames are written or when generator is exhausted. The number of
// written frames is returned.
func Render(w io.WriteSeeker, g dunjams.Generator, sampleRate, numChannels, bufferSize int, frames int64, bitDepth signal.BitDepth) (int64, error) {
	if !supported(bitDepth) {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	if numChannels != 1 && numChannels != 2 {
		return 0, fmt.Errorf("%w: %d channels", ErrUnsupportedChannels, numChannels)
	}
	if bufferSize <= 0 {
		bufferSize = dunjams.DefaultBufferSize
	}
	e := wav.NewEncoder(w, sampleRate, int(bitDepth), numChannels, pcmFormat)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: int(bitDepth),
	}
	buf := make([]float64, bufferSize*numChannels)
	var written int64
	for written < frames {
		n := int64(bufferSize)
		if left := frames - written; left < n {
			n = left
		}
		out := buf[:int(n)*numChannels]
		ok := g.Generate(out, numChannels)
		ib.Data = signal.FloatsAsInts(out, bitDepth, ib.Data)
		if err := e.Write(ib); err != nil {
			return written, fmt.Errorf("failed to encode wav: %w", err)
		}
		written += n
		if !ok {
			break
		}
	}
	if err := e.Close(); err != nil {
		return written, fmt.Errorf("failed to close wav encoder: %w", err)
	}
	return written, nil
}

// RenderFile renders generator into a new wav file at path.
func RenderFile(path string, g dunjams.Generator, sampleRate, numChannels, bufferSize int, frames int64, bitDepth signal.BitDepth) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := Render(f, g, sampleRate, numChannels, bufferSize, frames, bitDepth)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
