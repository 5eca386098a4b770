package feature

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cannam/piano-precision-aligner/dsp"
)

// Config controls STFT feature extraction.
type Config struct {
	// FFTSize is the analysis window length in samples; must be a power of
	// two. The resulting frames carry FFTSize/2+1 magnitude bins.
	FFTSize int
	// HopSize is the frame advance in samples.
	HopSize int
	// DCBlockHz, when > 0, applies a highpass at that cutoff before
	// analysis to remove DC and rumble.
	DCBlockHz float64
	// NormalizeFrames scales each frame to sum 1, so frames act as bin
	// distributions in the observation model. All-zero frames stay zero.
	NormalizeFrames bool
}

// DefaultConfig returns the extraction defaults matched to the aligner's
// 48 kHz / 768-sample-hop operating point.
func DefaultConfig() Config {
	return Config{
		FFTSize:         2048,
		HopSize:         768,
		DCBlockHz:       20,
		NormalizeFrames: true,
	}
}

func (c *Config) Validate() error {
	if c.FFTSize < 2 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft size must be a power of two >= 2, got %d", c.FFTSize)
	}
	if c.HopSize < 1 {
		return fmt.Errorf("hop size must be >= 1, got %d", c.HopSize)
	}
	if c.DCBlockHz < 0 {
		return fmt.Errorf("dc block cutoff must be >= 0, got %g", c.DCBlockHz)
	}
	return nil
}

// Extract computes Hann-windowed STFT magnitude frames from a mono signal.
// Frames are returned in time order, each FFTSize/2+1 bins long.
func Extract(samples []float64, sampleRate int, cfg Config) ([][]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0, got %d", sampleRate)
	}
	if len(samples) < cfg.FFTSize {
		return nil, fmt.Errorf("need at least %d samples for one frame, got %d", cfg.FFTSize, len(samples))
	}

	if cfg.DCBlockHz > 0 {
		samples = dcBlock(samples, sampleRate, cfg.DCBlockHz)
	}

	plan, err := algofft.NewPlanReal64(cfg.FFTSize)
	if err != nil {
		return nil, err
	}

	hann := make([]float64, cfg.FFTSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(cfg.FFTSize-1))
	}

	nBins := cfg.FFTSize/2 + 1
	buf := make([]float64, cfg.FFTSize)
	spec := make([]complex128, nBins)

	var frames [][]float64
	for pos := 0; pos+cfg.FFTSize <= len(samples); pos += cfg.HopSize {
		for i := 0; i < cfg.FFTSize; i++ {
			buf[i] = samples[pos+i] * hann[i]
		}
		plan.Forward(spec, buf)
		mag := make([]float64, nBins)
		for k := range spec {
			mag[k] = cmplx.Abs(spec[k])
		}
		if cfg.NormalizeFrames {
			normalizeFrame(mag)
		}
		frames = append(frames, mag)
	}
	return frames, nil
}

func dcBlock(samples []float64, sampleRate int, cutoff float64) []float64 {
	hp := dsp.NewHighpass(float32(cutoff), float32(sampleRate), 0.707)
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = float64(hp.Process(float32(v)))
	}
	return out
}

func normalizeFrame(mag []float64) {
	sum := 0.0
	for _, v := range mag {
		sum += v
	}
	if sum == 0 {
		return
	}
	for k := range mag {
		mag[k] /= sum
	}
}
