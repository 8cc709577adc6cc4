package main

import (
	"flag"
	"fmt"

	"github.com/dudk/dunjams/config"
	"github.com/dudk/dunjams/internal/session"
	"github.com/dudk/dunjams/pattern"
)

// sessionFlags are flags shared by commands which run a session.
type sessionFlags struct {
	config    string
	env       string
	bpm       float64
	waveform  string
	metronome bool
	arpeggio  bool
	pitches   intList
	direction string
}

func (f *sessionFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "path to config file (default ~/.config/dunjams/config.json)")
	fs.StringVar(&f.env, "env", "", "environment preset, overrides config file")
	fs.Float64Var(&f.bpm, "bpm", 0, "tempo in beats per minute, overrides config")
	fs.StringVar(&f.waveform, "waveform", "", "synth waveform: sine, square, sawtooth or triangle")
	fs.BoolVar(&f.metronome, "metronome", true, "play metronome")
	fs.BoolVar(&f.arpeggio, "arp", false, "play arpeggio")
	fs.Var(&f.pitches, "pitches", "comma separated midi pitches of arpeggio")
	fs.StringVar(&f.direction, "direction", "up", "arpeggio direction: up, down or updown")
}

// load returns config with overrides applied.
func (f *sessionFlags) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case f.env != "":
		cfg, err = config.Preset(f.env)
	case f.config != "":
		cfg, err = config.Load(f.config)
	default:
		var path string
		if path, err = config.Path(); err != nil {
			return nil, err
		}
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, err
	}
	if f.bpm != 0 {
		cfg.Tempo.BPM = f.bpm
	}
	if f.waveform != "" {
		cfg.Synth.Waveform = f.waveform
	}
	return cfg, cfg.Validate()
}

// start configures and starts patterns of the session.
func (f *sessionFlags) start(s *session.Session) error {
	if len(f.pitches) > 0 {
		if err := s.Arpeggiator.SetPitches(f.pitches); err != nil {
			return fmt.Errorf("invalid pitches: %w", err)
		}
	}
	d, err := pattern.ParseDirection(f.direction)
	if err != nil {
		return err
	}
	if err := s.Arpeggiator.SetDirection(d); err != nil {
		return err
	}
	if f.metronome {
		s.Metronome.Start()
	}
	if f.arpeggio {
		s.Arpeggiator.Start()
	}
	return nil
}
