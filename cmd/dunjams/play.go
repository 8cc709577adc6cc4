package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/dudk/dunjams/device"
	"github.com/dudk/dunjams/headless"
	"github.com/dudk/dunjams/internal/session"
	"github.com/dudk/dunjams/log"
	"github.com/dudk/dunjams/midiout"
	"github.com/dudk/dunjams/portaudio"
	"github.com/dudk/dunjams/speaker"
	"github.com/dudk/dunjams/tui"
)

// outputs
const (
	outputPortaudio = "portaudio"
	outputSpeaker   = "speaker"
	outputHeadless  = "headless"
)

type playCommand struct {
	sessionFlags
	output      string
	mic         bool
	midiOut     string
	midiChannel int
	monitor     bool
	duration    time.Duration
}

func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play metronome and arpeggio, track pitch of microphone"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	cmd.sessionFlags.register(fs)
	fs.StringVar(&cmd.output, "output", outputPortaudio, "audio output: portaudio, speaker or headless")
	fs.BoolVar(&cmd.mic, "mic", false, "track pitch of the input device (portaudio only)")
	fs.StringVar(&cmd.midiOut, "midi-out", "", "play arpeggio on the midi output port")
	fs.IntVar(&cmd.midiChannel, "midi-channel", 0, "midi channel of arpeggio")
	fs.BoolVar(&cmd.monitor, "tui", true, "show terminal monitor")
	fs.DurationVar(&cmd.duration, "duration", 0, "stop after duration, zero plays until interrupted")
}

func (cmd *playCommand) Run() error {
	cfg, err := cmd.load()
	if err != nil {
		return err
	}
	logger := log.WithFields(log.Fields{
		"env":        cfg.Environment,
		"sampleRate": cfg.Audio.SampleRate,
		"bufferSize": cfg.Audio.BufferSize,
		"output":     cmd.output,
	})

	var options []session.Option
	if cmd.midiOut != "" {
		inst, err := midiout.Open(cmd.midiOut, cmd.midiChannel)
		if err != nil {
			return err
		}
		defer inst.Close()
		options = append(options, session.WithInstrument(inst))
	}
	s, err := session.New(cfg, options...)
	if err != nil {
		return err
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if cmd.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, cmd.duration)
		defer cancel()
	}
	g, ctx := errgroup.WithContext(ctx)

	if err := cmd.startOutput(ctx, g, s); err != nil {
		return err
	}
	if err := cmd.start(s); err != nil {
		return err
	}
	logger.Info("playing")

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case b := <-s.Beats():
				logger.WithFields(log.Fields{
					"beat": b.Number,
					"held": b.Pitch.HeldMidi(),
					"midi": b.Pitch.Midi(),
				}).Debug("beat")
			}
		}
	})
	if cmd.monitor {
		g.Go(func() error {
			p := tea.NewProgram(tui.New(s.Scheduler, s.Tracker, s.Metronome, s.Arpeggiator), tea.WithContext(ctx))
			_, err := p.Run()
			// quitting the monitor stops playback
			cancel()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}

	err = g.Wait()
	s.Stop()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	logger.WithField("dropped", s.Dropped()).Info("stopped")
	return err
}

// startOutput starts the output and adds a goroutine which closes it when
// context is done.
func (cmd *playCommand) startOutput(ctx context.Context, g *errgroup.Group, s *session.Session) error {
	cfg := s.Config
	switch cmd.output {
	case outputPortaudio:
		var input device.InputFunc
		if cmd.mic {
			input = s.Input()
		}
		stream, err := portaudio.Open(portaudio.Config{
			SampleRate:     cfg.Audio.SampleRate,
			BufferSize:     cfg.Audio.BufferSize,
			OutputChannels: cfg.Audio.OutputChannels,
			InputChannels:  cfg.Audio.InputChannels,
			OutputDevice:   cfg.Audio.OutputDevice,
			InputDevice:    cfg.Audio.InputDevice,
		}, s.Generator(), input)
		if err != nil {
			return err
		}
		if err := stream.Start(); err != nil {
			stream.Close()
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			return stream.Close()
		})
	case outputSpeaker:
		p, err := speaker.New(cfg.Audio.SampleRate, cfg.Audio.BufferSize, s.Generator())
		if err != nil {
			return err
		}
		p.Play()
		g.Go(func() error {
			<-ctx.Done()
			return p.Close()
		})
	case outputHeadless:
		d, err := headless.New(cfg.Audio.SampleRate, cfg.Audio.BufferSize, cfg.Audio.OutputChannels, s.Generator(), headless.Realtime())
		if err != nil {
			return err
		}
		g.Go(func() error {
			return d.Run(ctx)
		})
	default:
		return fmt.Errorf("unknown output %q", cmd.output)
	}
	return nil
}
