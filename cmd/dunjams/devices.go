package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dudk/dunjams/config"
	"github.com/dudk/dunjams/midiout"
	"github.com/dudk/dunjams/portaudio"
)

type devicesCommand struct {
	midi bool
}

func (cmd *devicesCommand) Name() string {
	return "devices"
}

func (cmd *devicesCommand) Help() string {
	return "Show available audio and midi devices"
}

func (cmd *devicesCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.midi, "midi", true, "list midi output ports")
}

func (cmd *devicesCommand) Run() error {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("failed to list audio devices: %w", err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AUDIO DEVICE\tHOST\tIN\tOUT\tRATE\tLATENCY")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.0f\t%v\n", d.Name, d.HostAPI, d.Inputs, d.Outputs, d.SampleRate, d.Latency)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if !cmd.midi {
		return nil
	}
	fmt.Println()
	fmt.Println("MIDI OUTPUT")
	for _, port := range midiout.Ports() {
		fmt.Println(port)
	}
	return nil
}

type presetsCommand struct{}

func (cmd *presetsCommand) Name() string {
	return "presets"
}

func (cmd *presetsCommand) Help() string {
	return "Show calibrated environment presets"
}

func (cmd *presetsCommand) Register(*flag.FlagSet) {}

func (cmd *presetsCommand) Run() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tBEFORE\tAFTER\tSILENCE\tHALF BEAT\tPOP RATIO")
	for _, name := range config.Presets() {
		c, err := config.Preset(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.3fs\t%.3fs\t%.0fdB\t%d\t%.1f\n", name,
			c.Beat.EpsilonBefore, c.Beat.EpsilonAfter, c.Pitch.SilenceThreshold,
			c.Tempo.HalfBeatTicks, c.Pitch.PopThresholdRatio)
	}
	return w.Flush()
}
