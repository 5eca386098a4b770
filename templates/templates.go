package templates

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-approx"
)

// Template is a spectral template: one non-negative value per frequency
// bin, normalised to sum 1 so it can serve as a bin probability
// distribution. Every bin is strictly positive (the synthesis floor
// guarantees it).
type Template []float64

// NoteTemplates maps a MIDI note number to that note's template.
type NoteTemplates map[int]Template

// Config controls note template synthesis.
type Config struct {
	SampleRate int
	BlockSize  int

	// LowMIDI..HighMIDI is the pitch range to synthesise, inclusive.
	// Defaults cover the 88-key piano.
	LowMIDI  int
	HighMIDI int

	// Harmonics is the number of partials placed per note.
	Harmonics int
	// Rolloff is the amplitude ratio between successive partials, in (0, 1].
	Rolloff float64
	// Spread is how many bins on each side of a partial receive mass.
	Spread int
	// Floor is the per-bin level added everywhere before normalisation,
	// keeping every bin strictly positive.
	Floor float64
}

// DefaultConfig returns template synthesis defaults for a 48 kHz stream.
func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		BlockSize:  2048,
		LowMIDI:    21,
		HighMIDI:   108,
		Harmonics:  16,
		Rolloff:    0.8,
		Spread:     2,
		Floor:      1e-5,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.BlockSize < 2 {
		return fmt.Errorf("block size must be >= 2")
	}
	if c.LowMIDI < 0 || c.HighMIDI > 127 || c.LowMIDI > c.HighMIDI {
		return fmt.Errorf("invalid MIDI range %d..%d", c.LowMIDI, c.HighMIDI)
	}
	if c.Harmonics < 1 {
		return fmt.Errorf("harmonics must be >= 1")
	}
	if c.Rolloff <= 0 || c.Rolloff > 1 {
		return fmt.Errorf("rolloff must be in (0, 1]")
	}
	if c.Spread < 0 {
		return fmt.Errorf("spread must be >= 0")
	}
	if c.Floor <= 0 {
		return fmt.Errorf("floor must be > 0")
	}
	return nil
}

// Generate synthesises one template per note in the configured range: a
// harmonic comb with geometric partial rolloff, each partial spread
// triangularly over neighbouring bins, floored and normalised. The returned
// table is a plain value owned by the caller; there is no process-wide
// template cache.
func Generate(cfg Config) (NoteTemplates, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bins := cfg.BlockSize/2 + 1
	binHz := float64(cfg.SampleRate) / float64(cfg.BlockSize)
	nyquist := float64(cfg.SampleRate) / 2

	notes := make(NoteTemplates, cfg.HighMIDI-cfg.LowMIDI+1)
	for midi := cfg.LowMIDI; midi <= cfg.HighMIDI; midi++ {
		t := make(Template, bins)
		for b := range t {
			t[b] = cfg.Floor
		}
		f0 := float64(midiNoteToFreq(midi))
		amp := 1.0
		for h := 1; h <= cfg.Harmonics; h++ {
			freq := f0 * float64(h)
			if freq >= nyquist {
				break
			}
			addPartial(t, freq/binHz, amp, cfg.Spread)
			amp *= cfg.Rolloff
		}
		normalize(t)
		notes[midi] = t
	}
	return notes, nil
}

// addPartial distributes amp around the (fractional) bin position with a
// triangular weight vanishing at spread+1 bins from the centre.
func addPartial(t Template, bin float64, amp float64, spread int) {
	center := int(math.Round(bin))
	width := float64(spread + 1)
	for d := -spread; d <= spread; d++ {
		idx := center + d
		if idx < 0 || idx >= len(t) {
			continue
		}
		w := 1 - math.Abs(bin-float64(idx))/width
		if w > 0 {
			t[idx] += amp * w
		}
	}
}

func normalize(t Template) {
	sum := 0.0
	for _, v := range t {
		sum += v
	}
	for b := range t {
		t[b] /= sum
	}
}

// Flat returns the uniform template used for rests.
func Flat(bins int) Template {
	t := make(Template, bins)
	for b := range t {
		t[b] = 1 / float64(bins)
	}
	return t
}

// midiNoteToFreq converts MIDI note number to frequency in Hz.
func midiNoteToFreq(note int) float32 {
	const a4Freq = 440.0
	const a4Note = 69
	exponent := float32(note-a4Note) / 12.0
	return a4Freq * pow2Approx(exponent)
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}
