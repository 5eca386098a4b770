package templates

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BlockSize = 512
	return cfg
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"SampleRate", func(c *Config) { c.SampleRate = 4000 }},
		{"BlockSize", func(c *Config) { c.BlockSize = 1 }},
		{"MIDIRange", func(c *Config) { c.LowMIDI = 60; c.HighMIDI = 21 }},
		{"MIDIBounds", func(c *Config) { c.HighMIDI = 128 }},
		{"Harmonics", func(c *Config) { c.Harmonics = 0 }},
		{"Rolloff", func(c *Config) { c.Rolloff = 1.5 }},
		{"Spread", func(c *Config) { c.Spread = -1 }},
		{"Floor", func(c *Config) { c.Floor = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := Generate(cfg)
			assert.Error(t, err)
		})
	}
	cfg := testConfig()
	assert.NoError(t, cfg.Validate())
}

func TestGenerateCoversRangeAndNormalises(t *testing.T) {
	cfg := testConfig()
	notes, err := Generate(cfg)
	require.NoError(t, err)
	require.Len(t, notes, cfg.HighMIDI-cfg.LowMIDI+1)

	bins := cfg.BlockSize/2 + 1
	for midi := cfg.LowMIDI; midi <= cfg.HighMIDI; midi++ {
		tmpl, ok := notes[midi]
		require.True(t, ok, "midi %d", midi)
		require.Len(t, tmpl, bins)
		sum := 0.0
		for _, v := range tmpl {
			require.Greater(t, v, 0.0, "midi %d", midi)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "midi %d", midi)
	}
}

func TestGeneratePlacesFundamental(t *testing.T) {
	cfg := testConfig()
	notes, err := Generate(cfg)
	require.NoError(t, err)

	// A4's fundamental at 440 Hz: with 512-point blocks at 48 kHz the bin
	// width is 93.75 Hz, so the peak belongs at bin 5.
	a4 := notes[69]
	peak, peakVal := 0, 0.0
	for b, v := range a4 {
		if v > peakVal {
			peak, peakVal = b, v
		}
	}
	assert.Equal(t, 5, peak)
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := testConfig()
	first, err := Generate(cfg)
	require.NoError(t, err)
	second, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMIDINoteToFreq(t *testing.T) {
	assert.InDelta(t, 440.0, float64(midiNoteToFreq(69)), 2)
	assert.InDelta(t, 261.63, float64(midiNoteToFreq(60)), 2)
	// An octave doubles the frequency.
	assert.InDelta(t, 2.0, float64(midiNoteToFreq(81))/float64(midiNoteToFreq(69)), 0.02)
}

func TestFlat(t *testing.T) {
	f := Flat(16)
	require.Len(t, f, 16)
	sum := 0.0
	for _, v := range f {
		assert.Equal(t, 1.0/16, v)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestAddPartialStaysInBounds(t *testing.T) {
	tmpl := make(Template, 8)
	addPartial(tmpl, 0.2, 1, 2) // centre near the low edge
	addPartial(tmpl, 7.4, 1, 2) // centre near the high edge
	for _, v := range tmpl {
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
	}
}
