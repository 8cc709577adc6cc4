// Package config holds settings of the audio engine and the calibrated
// presets of known environments.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/clock"
	"github.com/dudk/dunjams/pitch"
)

// EnvironmentVariable selects the preset used by FromEnv.
const EnvironmentVariable = "DUNJAMS_ENV"

// DefaultPreset is the name of the preset used when none is selected.
const DefaultPreset = "default"

var (
	// ErrUnknownPreset is returned when there is no preset with such name.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrInvalidConfig is returned when config values are out of range.
	ErrInvalidConfig = errors.New("invalid config")
)

// AudioConfig defines device streams.
type AudioConfig struct {
	SampleRate     int    `json:"sampleRate"`
	BufferSize     int    `json:"bufferSize"`
	OutputChannels int    `json:"outputChannels"`
	InputChannels  int    `json:"inputChannels"`
	OutputDevice   string `json:"outputDevice,omitempty"`
	InputDevice    string `json:"inputDevice,omitempty"`
}

// TempoConfig defines musical time.
type TempoConfig struct {
	BPM           float64 `json:"bpm"`
	HalfBeatTicks int     `json:"halfBeatTicks"`
}

// PitchConfig tunes pitch detection and debouncing.
type PitchConfig struct {
	Window            int     `json:"window"`
	Tolerance         float64 `json:"tolerance"`
	SilenceThreshold  float64 `json:"silenceThreshold"`
	PopThresholdRatio float64 `json:"popThresholdRatio"`
}

// BeatConfig defines how early and how late in seconds an action still
// counts as being on the beat.
type BeatConfig struct {
	EpsilonBefore float64 `json:"epsilonBefore"`
	EpsilonAfter  float64 `json:"epsilonAfter"`
}

// SynthConfig defines the sound of the built-in synth.
type SynthConfig struct {
	Waveform string  `json:"waveform"`
	Gain     float64 `json:"gain"`
	Attack   float64 `json:"attack"`
	Decay    float64 `json:"decay"`
}

// MIDIConfig defines MIDI output.
type MIDIConfig struct {
	OutPort string `json:"outPort,omitempty"`
	Channel int    `json:"channel"`
}

// Config is the main configuration structure.
type Config struct {
	Environment string      `json:"environment,omitempty"`
	Audio       AudioConfig `json:"audio"`
	Tempo       TempoConfig `json:"tempo"`
	Pitch       PitchConfig `json:"pitch"`
	Beat        BeatConfig  `json:"beat"`
	Synth       SynthConfig `json:"synth"`
	MIDI        MIDIConfig  `json:"midi"`
}

// DefaultConfig returns a config with reference values.
func DefaultConfig() *Config {
	return &Config{
		Environment: DefaultPreset,
		Audio: AudioConfig{
			SampleRate:     dunjams.DefaultSampleRate,
			BufferSize:     dunjams.DefaultBufferSize,
			OutputChannels: 2,
			InputChannels:  1,
		},
		Tempo: TempoConfig{
			BPM:           120,
			HalfBeatTicks: clock.TicksPerQuarter / 2,
		},
		Pitch: PitchConfig{
			Window:            pitch.DefaultWindow,
			Tolerance:         pitch.DefaultTolerance,
			SilenceThreshold:  pitch.DefaultSilence,
			PopThresholdRatio: 1,
		},
		Beat: BeatConfig{
			EpsilonBefore: 40. / 960,
			EpsilonAfter:  160. / 960,
		},
		Synth: SynthConfig{
			Waveform: "sine",
			Gain:     0.2,
			Attack:   0.01,
			Decay:    0.25,
		},
	}
}

// presets are calibrated per environment on top of defaults.
var presets = map[string]func(*Config){
	DefaultPreset: func(*Config) {},
	"mac": func(c *Config) {
		c.Beat.EpsilonAfter = 140. / 960
		c.Pitch.SilenceThreshold = -50
	},
	"4-270": func(c *Config) {
		c.Beat.EpsilonAfter = 180. / 960
		c.Pitch.SilenceThreshold = -20
		c.Pitch.PopThresholdRatio = .6
	},
	"windows": func(c *Config) {
		c.Pitch.SilenceThreshold = -50
		c.Tempo.HalfBeatTicks = 300
	},
	"elinas-windows": func(c *Config) {
		c.Tempo.HalfBeatTicks = 300
	},
}

// Presets returns names of known presets.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns the config of the named environment.
func Preset(name string) (*Config, error) {
	apply, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	c := DefaultConfig()
	c.Environment = name
	apply(c)
	return c, nil
}

// FromEnv returns the preset selected by DUNJAMS_ENV.
func FromEnv() (*Config, error) {
	name := os.Getenv(EnvironmentVariable)
	if name == "" {
		name = DefaultPreset
	}
	return Preset(name)
}

// Dir returns the config directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dunjams"), nil
}

// Path returns the full path to config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from path, or returns the DUNJAMS_ENV preset if
// the file doesn't exist. Values missing in the file are taken from the
// preset of the environment named in the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FromEnv()
		}
		return nil, err
	}

	var env struct {
		Environment string `json:"environment"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if env.Environment == "" {
		env.Environment = DefaultPreset
	}
	c, err := Preset(env.Environment)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return c, c.Validate()
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate returns ErrInvalidConfig if values can't be used.
func (c *Config) Validate() error {
	switch {
	case c.Audio.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.Audio.SampleRate)
	case c.Audio.BufferSize <= 0:
		return fmt.Errorf("%w: buffer size %d", ErrInvalidConfig, c.Audio.BufferSize)
	case c.Audio.OutputChannels != 1 && c.Audio.OutputChannels != 2:
		return fmt.Errorf("%w: %d output channels", ErrInvalidConfig, c.Audio.OutputChannels)
	case c.Audio.InputChannels < 0:
		return fmt.Errorf("%w: %d input channels", ErrInvalidConfig, c.Audio.InputChannels)
	case !(c.Tempo.BPM > 0):
		return fmt.Errorf("%w: tempo %v bpm", ErrInvalidConfig, c.Tempo.BPM)
	case c.Tempo.HalfBeatTicks <= 0:
		return fmt.Errorf("%w: half beat %d ticks", ErrInvalidConfig, c.Tempo.HalfBeatTicks)
	case c.Pitch.Window < 4:
		return fmt.Errorf("%w: pitch window %d", ErrInvalidConfig, c.Pitch.Window)
	case !(c.Pitch.Tolerance > 0 && c.Pitch.Tolerance <= 1):
		return fmt.Errorf("%w: pitch tolerance %v", ErrInvalidConfig, c.Pitch.Tolerance)
	case !(c.Pitch.PopThresholdRatio > 0):
		return fmt.Errorf("%w: pop threshold ratio %v", ErrInvalidConfig, c.Pitch.PopThresholdRatio)
	case c.Beat.EpsilonBefore < 0 || c.Beat.EpsilonAfter < 0:
		return fmt.Errorf("%w: beat window %v %v", ErrInvalidConfig, c.Beat.EpsilonBefore, c.Beat.EpsilonAfter)
	case c.MIDI.Channel < 0 || c.MIDI.Channel > 15:
		return fmt.Errorf("%w: midi channel %d", ErrInvalidConfig, c.MIDI.Channel)
	}
	return nil
}

// Thresholds returns pitch debouncer thresholds.
func (c *Config) Thresholds() pitch.Thresholds {
	return pitch.DefaultThresholds().WithPopRatio(c.Pitch.PopThresholdRatio)
}

// TempoMap returns tempo map of configured tempo.
func (c *Config) TempoMap() (*clock.TempoMap, error) {
	return clock.NewTempoMap(c.Tempo.BPM)
}

// Detector returns pitch detector of the input stream.
func (c *Config) Detector() (*pitch.Detector, error) {
	return pitch.NewDetector(c.Audio.SampleRate, c.Pitch.Window, c.Pitch.Tolerance, c.Pitch.SilenceThreshold)
}
