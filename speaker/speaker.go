// Package speaker plays the audio graph through the ebiten audio context.
// It's an output-only alternative to portaudio which needs no native
// library on most platforms.
package speaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/device"
	"github.com/dudk/dunjams/log"
)

var (
	contextOnce sync.Once
	context     *audio.Context
	contextRate int
)

// sharedContext returns the process-wide audio context. Ebiten allows only
// one context, so all players must use the same sample rate.
func sharedContext(sampleRate int) (*audio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = audio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio context already runs at %d Hz, requested %d Hz", contextRate, sampleRate)
	}
	return context, nil
}

// Player plays a stereo generator.
type Player struct {
	log.Logger
	uid    string
	duplex *device.Duplex
	reader *device.Reader
	player *audio.Player
}

// New returns a paused player of g. Buffer size defines the latency of the
// player.
func New(sampleRate, bufferSize int, g dunjams.Generator) (*Player, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	d, err := device.NewDuplex(g, 2, nil, 0)
	if err != nil {
		return nil, err
	}
	r, err := device.NewReader(d)
	if err != nil {
		return nil, err
	}
	p, err := ctx.NewPlayerF32(r)
	if err != nil {
		return nil, err
	}
	if bufferSize > 0 {
		p.SetBufferSize(time.Duration(bufferSize) * time.Second / time.Duration(sampleRate))
	}
	return &Player{
		Logger: log.GetLogger(),
		uid:    dunjams.NewUID(),
		duplex: d,
		reader: r,
		player: p,
	}, nil
}

// ID returns unique id of the player.
func (p *Player) ID() string {
	return p.uid
}

// Play starts or resumes playback.
func (p *Player) Play() {
	p.Debug("speaker ", p.uid, ": play")
	p.player.Play()
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.player.Pause()
}

// Playing returns true if player is playing.
func (p *Player) Playing() bool {
	return p.player.IsPlaying()
}

// Done returns true once the generator is exhausted.
func (p *Player) Done() bool {
	return p.duplex.Done()
}

// Position returns the playback position heard by the listener.
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
