package align

import "fmt"

// Config controls the inference engine.
type Config struct {
	// BeamWidth is the maximum number of surviving hypotheses per frame in
	// each of the forward and backward passes.
	BeamWidth int
	// WindowSize is the width of the posterior averaging window used to pick
	// event onsets. Must be odd.
	WindowSize int
	// SelfLoopStart is the self-loop probability of the pre-score sentinel
	// state, in (0, 1).
	SelfLoopStart float64
}

// DefaultConfig returns the standard aligner configuration.
func DefaultConfig() Config {
	return Config{
		BeamWidth:     200,
		WindowSize:    3,
		SelfLoopStart: 0.975,
	}
}

func (c Config) Validate() error {
	if c.BeamWidth < 1 {
		return fmt.Errorf("beam width must be >= 1, got %d", c.BeamWidth)
	}
	if c.WindowSize < 1 || c.WindowSize%2 == 0 {
		return fmt.Errorf("window size must be a positive odd number, got %d", c.WindowSize)
	}
	if c.SelfLoopStart <= 0 || c.SelfLoopStart >= 1 {
		return fmt.Errorf("start self-loop must be in (0, 1), got %g", c.SelfLoopStart)
	}
	return nil
}
