package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cannam/piano-precision-aligner/templates"
)

var templatesFlags struct {
	presetPath string
	sampleRate int
	lowMIDI    int
	highMIDI   int
	full       bool
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Synthesise note templates and print them",
	RunE:  runTemplates,
}

func init() {
	f := templatesCmd.Flags()
	f.StringVar(&templatesFlags.presetPath, "preset", "", "Preset JSON file (optional)")
	f.IntVar(&templatesFlags.sampleRate, "sample-rate", 48000, "Sample rate in Hz")
	f.IntVar(&templatesFlags.lowMIDI, "low", 21, "Lowest MIDI note")
	f.IntVar(&templatesFlags.highMIDI, "high", 108, "Highest MIDI note")
	f.BoolVar(&templatesFlags.full, "full", false, "Dump full bin vectors as JSON instead of a summary")
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(templatesFlags.presetPath)
	if err != nil {
		return err
	}
	cfg := settings.Template
	cfg.SampleRate = templatesFlags.sampleRate
	cfg.BlockSize = settings.Feature.FFTSize
	cfg.LowMIDI = templatesFlags.lowMIDI
	cfg.HighMIDI = templatesFlags.highMIDI

	notes, err := templates.Generate(cfg)
	if err != nil {
		return err
	}
	if templatesFlags.full {
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(notes)
	}
	binHz := float64(cfg.SampleRate) / float64(cfg.BlockSize)
	for midi := cfg.LowMIDI; midi <= cfg.HighMIDI; midi++ {
		t := notes[midi]
		peak, peakVal := 0, 0.0
		for b, v := range t {
			if v > peakVal {
				peak, peakVal = b, v
			}
		}
		fmt.Printf("midi %3d  peak bin %4d (%7.1f Hz)  mass %.4f\n", midi, peak, float64(peak)*binHz, peakVal)
	}
	return nil
}
