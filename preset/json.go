package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cannam/piano-precision-aligner/align"
	"github.com/cannam/piano-precision-aligner/feature"
	"github.com/cannam/piano-precision-aligner/templates"
)

// Settings bundles the configurable parts of an alignment run.
type Settings struct {
	Align    align.Config
	Template templates.Config
	Feature  feature.Config
}

// DefaultSettings returns the defaults of every component.
func DefaultSettings() Settings {
	return Settings{
		Align:    align.DefaultConfig(),
		Template: templates.DefaultConfig(),
		Feature:  feature.DefaultConfig(),
	}
}

// File is the JSON schema for aligner presets.
type File struct {
	BeamWidth     *int     `json:"beam_width"`
	WindowSize    *int     `json:"window_size"`
	SelfLoopStart *float64 `json:"self_loop_start"`

	Template *TemplateSetting `json:"template"`
	Feature  *FeatureSetting  `json:"feature"`
}

// TemplateSetting is a partial override of the template synthesis config.
type TemplateSetting struct {
	Harmonics *int     `json:"harmonics"`
	Rolloff   *float64 `json:"rolloff"`
	Spread    *int     `json:"spread"`
	Floor     *float64 `json:"floor"`
}

// FeatureSetting is a partial override of the feature extraction config.
type FeatureSetting struct {
	FFTSize   *int     `json:"fft_size"`
	HopSize   *int     `json:"hop_size"`
	DCBlockHz *float64 `json:"dc_block_hz"`
}

// LoadJSON loads a preset JSON file and applies it on top of the defaults.
func LoadJSON(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	s := DefaultSettings()
	if err := ApplyFile(&s, &f); err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyFile applies a parsed preset file onto existing settings.
func ApplyFile(dst *Settings, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination settings")
	}
	if f == nil {
		return nil
	}

	if f.BeamWidth != nil {
		if *f.BeamWidth < 1 {
			return fmt.Errorf("beam_width must be >= 1")
		}
		dst.Align.BeamWidth = *f.BeamWidth
	}
	if f.WindowSize != nil {
		if *f.WindowSize < 1 || *f.WindowSize%2 == 0 {
			return fmt.Errorf("window_size must be a positive odd number")
		}
		dst.Align.WindowSize = *f.WindowSize
	}
	if f.SelfLoopStart != nil {
		if *f.SelfLoopStart <= 0 || *f.SelfLoopStart >= 1 {
			return fmt.Errorf("self_loop_start must be in (0,1)")
		}
		dst.Align.SelfLoopStart = *f.SelfLoopStart
	}

	if f.Template != nil {
		if f.Template.Harmonics != nil {
			if *f.Template.Harmonics < 1 {
				return fmt.Errorf("template.harmonics must be >= 1")
			}
			dst.Template.Harmonics = *f.Template.Harmonics
		}
		if f.Template.Rolloff != nil {
			if *f.Template.Rolloff <= 0 || *f.Template.Rolloff > 1 {
				return fmt.Errorf("template.rolloff must be in (0,1]")
			}
			dst.Template.Rolloff = *f.Template.Rolloff
		}
		if f.Template.Spread != nil {
			if *f.Template.Spread < 0 {
				return fmt.Errorf("template.spread must be >= 0")
			}
			dst.Template.Spread = *f.Template.Spread
		}
		if f.Template.Floor != nil {
			if *f.Template.Floor <= 0 {
				return fmt.Errorf("template.floor must be > 0")
			}
			dst.Template.Floor = *f.Template.Floor
		}
	}

	if f.Feature != nil {
		if f.Feature.FFTSize != nil {
			if *f.Feature.FFTSize < 2 || *f.Feature.FFTSize&(*f.Feature.FFTSize-1) != 0 {
				return fmt.Errorf("feature.fft_size must be a power of two >= 2")
			}
			dst.Feature.FFTSize = *f.Feature.FFTSize
		}
		if f.Feature.HopSize != nil {
			if *f.Feature.HopSize < 1 {
				return fmt.Errorf("feature.hop_size must be >= 1")
			}
			dst.Feature.HopSize = *f.Feature.HopSize
		}
		if f.Feature.DCBlockHz != nil {
			if *f.Feature.DCBlockHz < 0 {
				return fmt.Errorf("feature.dc_block_hz must be >= 0")
			}
			dst.Feature.DCBlockHz = *f.Feature.DCBlockHz
		}
	}
	return nil
}
