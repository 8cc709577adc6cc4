// Package example shows how the engine is assembled without devices.
package example

import (
	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/clock"
	"github.com/dudk/dunjams/mixer"
	"github.com/dudk/dunjams/pattern"
	"github.com/dudk/dunjams/signal"
	"github.com/dudk/dunjams/synth"
	"github.com/dudk/dunjams/wav"
)

// Example 1:
//
//	Play metronome through a percussive synth
//	Render four beats into a wav file
func one(path string) (int64, error) {
	tempo, err := clock.NewTempoMap(120)
	if err != nil {
		return 0, err
	}
	sched, err := clock.NewScheduler(tempo, dunjams.DefaultSampleRate)
	if err != nil {
		return 0, err
	}
	mix := mixer.New(2)
	sched.SetGenerator(mix)
	click, err := synth.New(mix, dunjams.DefaultSampleRate, synth.WithEnvelope(0.002, 1, 0.08, 1))
	if err != nil {
		return 0, err
	}
	pattern.NewMetronome(sched, click).Start()

	frames := tempo.TickToFrame(4*clock.TicksPerQuarter, dunjams.DefaultSampleRate)
	return wav.RenderFile(path, sched, dunjams.DefaultSampleRate, 2, dunjams.DefaultBufferSize, frames, signal.BitDepth16)
}

// Example 2:
//
//	Schedule notes at exact ticks
//	Cancel one of them before it's played
func two() ([]clock.Tick, error) {
	tempo, err := clock.NewTempoMap(90)
	if err != nil {
		return nil, err
	}
	sched, err := clock.NewScheduler(tempo, dunjams.DefaultSampleRate)
	if err != nil {
		return nil, err
	}
	var played []clock.Tick
	record := func(tick clock.Tick, _ interface{}) {
		played = append(played, tick)
	}
	sched.PostAtTick(0, record, nil)
	cancelled := sched.PostAtTick(240, record, nil)
	sched.PostAtTick(480, record, nil)
	sched.Remove(cancelled)

	buf := make([]float64, 2*dunjams.DefaultBufferSize)
	for sched.Tick() <= clock.TicksPerQuarter {
		sched.Generate(buf, 2)
	}
	return played, nil
}

// Example 3:
//
//	Loop a rendered sample as a generator
func three(path string) (int64, error) {
	s, err := wav.Load(path)
	if err != nil {
		return 0, err
	}
	loop := synth.NewWave(s, 0.5, true)
	return wav.RenderFile(path+".loop.wav", loop, s.SampleRate, s.Channels, dunjams.DefaultBufferSize, 3*int64(s.Frames()), signal.BitDepth16)
}
