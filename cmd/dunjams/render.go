package main

import (
	"errors"
	"flag"
	"time"

	"github.com/dudk/dunjams/internal/session"
	"github.com/dudk/dunjams/log"
	"github.com/dudk/dunjams/signal"
	"github.com/dudk/dunjams/wav"
)

type renderCommand struct {
	sessionFlags
	out      string
	duration time.Duration
	bitDepth int
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render metronome and arpeggio into wav file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	cmd.sessionFlags.register(fs)
	fs.StringVar(&cmd.out, "out", "", "output wav file (required)")
	fs.DurationVar(&cmd.duration, "duration", 8*time.Second, "length of rendered audio")
	fs.IntVar(&cmd.bitDepth, "bits", 16, "bit depth: 16, 24 or 32")
}

func (cmd *renderCommand) Run() error {
	if cmd.out == "" {
		return errors.New("missing -out required flag")
	}
	cfg, err := cmd.load()
	if err != nil {
		return err
	}
	s, err := session.New(cfg)
	if err != nil {
		return err
	}
	if err := cmd.start(s); err != nil {
		return err
	}
	frames := signal.FramesOf(cfg.Audio.SampleRate, cmd.duration)
	n, err := wav.RenderFile(cmd.out, s.Generator(), cfg.Audio.SampleRate, cfg.Audio.OutputChannels, cfg.Audio.BufferSize, frames, signal.BitDepth(cmd.bitDepth))
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"file":     cmd.out,
		"frames":   n,
		"duration": signal.DurationOf(cfg.Audio.SampleRate, n),
	}).Info("rendered")
	return nil
}
