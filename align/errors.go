package align

import "errors"

var (
	// ErrFeaturesUnavailable indicates a likelihood or alignment was requested
	// before any feature frame was supplied.
	ErrFeaturesUnavailable = errors.New("align: features unavailable")
	// ErrInvalidHopSize indicates the hop size is zero or negative.
	ErrInvalidHopSize = errors.New("align: invalid hop size")
	// ErrInvalidTempo indicates a score event carries a non-positive tempo.
	ErrInvalidTempo = errors.New("align: invalid tempo")
	// ErrInferenceDegenerate indicates a forward or backward frame lost all
	// probability mass, so the run cannot continue.
	ErrInferenceDegenerate = errors.New("align: inference degenerate")
	// ErrTemplateLengthMismatch indicates an event template's bin count
	// differs from the feature bin count.
	ErrTemplateLengthMismatch = errors.New("align: template length mismatch")
)
