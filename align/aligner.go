package align

import (
	"fmt"
	"math"

	"github.com/cannam/piano-precision-aligner/score"
)

// Aligner computes an offline audio-to-score alignment: given the spectral
// feature frames of a solo piano recording and a score whose events carry
// spectral templates, Align returns the frame index at which each score
// event begins.
//
// Feature frames are supplied one at a time before Align is called. The
// aligner is single-threaded; a given instance must not be shared across
// goroutines.
type Aligner struct {
	sampleRate float64
	hopSize    int
	score      *score.Score
	cfg        Config

	features [][]float64

	// Dense F x E likelihood cache, lazily allocated at first lookup.
	// Cells are write-once; the cache is dropped if further frames arrive
	// after a lookup.
	likelihood  []float64
	computed    []bool
	numEvents   int
	cacheFrames int
}

// NewAligner creates an aligner for the given score. The score must already
// carry event templates. Sample rate is in Hz, hop size in samples; both are
// constant for a run.
func NewAligner(sc *score.Score, sampleRate float64, hopSize int, cfg Config) (*Aligner, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0, got %g", sampleRate)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Aligner{
		sampleRate: sampleRate,
		hopSize:    hopSize,
		score:      sc,
		cfg:        cfg,
	}, nil
}

// SupplyFeature appends one spectral frame to the feature sequence. The
// frame is copied; all frames of a run must have the same length.
func (a *Aligner) SupplyFeature(frame []float64) {
	f := make([]float64, len(frame))
	copy(f, frame)
	a.features = append(a.features, f)
}

// FrameCount reports how many feature frames have been supplied.
func (a *Aligner) FrameCount() int {
	return len(a.features)
}

// Likelihood returns the observation likelihood of the given frame under the
// given event's template,
//
//	L = exp( sum_b x[b] * ln tau[b] )
//
// treating the frame as bin-wise count weights under a multinomial-style
// model. Sentinel events (negative indices) observe nothing and always
// return 1. Results are cached per (frame, event).
func (a *Aligner) Likelihood(frame, event int) (float64, error) {
	if event < 0 {
		return 1, nil
	}
	if len(a.features) == 0 {
		return 0, ErrFeaturesUnavailable
	}
	if a.likelihood == nil || a.cacheFrames != len(a.features) {
		a.numEvents = len(a.score.MusicalEvents())
		a.cacheFrames = len(a.features)
		a.likelihood = make([]float64, a.cacheFrames*a.numEvents)
		a.computed = make([]bool, a.cacheFrames*a.numEvents)
	}
	cell := frame*a.numEvents + event
	if !a.computed[cell] {
		l, err := a.computeLikelihood(frame, event)
		if err != nil {
			return 0, err
		}
		a.likelihood[cell] = l
		a.computed[cell] = true
	}
	return a.likelihood[cell], nil
}

func (a *Aligner) computeLikelihood(frame, event int) (float64, error) {
	x := a.features[frame]
	tmpl := a.score.MusicalEvents()[event].EventTemplate
	if len(tmpl) != len(x) {
		return 0, fmt.Errorf("%w: template has %d bins, frame has %d",
			ErrTemplateLengthMismatch, len(tmpl), len(x))
	}
	sum := 0.0
	for bin, v := range x {
		if v == 0 {
			continue // 0 * ln 0 is taken as 0
		}
		sum += v * math.Log(tmpl[bin])
	}
	return math.Exp(sum), nil // exp(-Inf) = 0, never NaN
}

// Align runs the full inference and returns one onset frame index per score
// event, in score order. The result is weakly non-decreasing and complete:
// on any error no partial result is returned.
func (a *Aligner) Align() ([]int, error) {
	if len(a.features) == 0 {
		return nil, ErrFeaturesUnavailable
	}
	chain, err := newStateChain(a.score.MusicalEvents(), a.sampleRate, a.hopSize, a.cfg.SelfLoopStart)
	if err != nil {
		return nil, err
	}
	forward, err := a.forwardPass(chain)
	if err != nil {
		return nil, err
	}
	backward, err := a.backwardPass(chain)
	if err != nil {
		return nil, err
	}
	post := posterior(forward, backward, len(chain.states))
	return a.vote(post, chain), nil
}
