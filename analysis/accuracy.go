package analysis

import (
	"math"
)

// Metrics contains accuracy measurements of an estimated alignment against
// reference onset frames.
type Metrics struct {
	SampleRate int `json:"sample_rate"`
	HopSize    int `json:"hop_size"`

	ReferenceEvents int `json:"reference_events"`
	EstimatedEvents int `json:"estimated_events"`
	ComparedEvents  int `json:"compared_events"`

	MeanAbsErrorFrames float64 `json:"mean_abs_error_frames"`
	MaxAbsErrorFrames  int     `json:"max_abs_error_frames"`
	MeanAbsErrorMs     float64 `json:"mean_abs_error_ms"`
	Within50Ms         float64 `json:"within_50ms"`

	Score float64 `json:"score"`
}

// Compare returns objective onset accuracy metrics and a combined score in
// [0,1]. When the two sequences differ in length only the common prefix is
// compared.
func Compare(reference []int, estimated []int, sampleRate int, hopSize int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		HopSize:         hopSize,
		ReferenceEvents: len(reference),
		EstimatedEvents: len(estimated),
	}
	n := len(reference)
	if len(estimated) < n {
		n = len(estimated)
	}
	m.ComparedEvents = n
	if n == 0 || sampleRate <= 0 || hopSize <= 0 {
		return m
	}

	msPerFrame := 1000 * float64(hopSize) / float64(sampleRate)
	sumAbs := 0.0
	within := 0
	for i := 0; i < n; i++ {
		diff := estimated[i] - reference[i]
		if diff < 0 {
			diff = -diff
		}
		sumAbs += float64(diff)
		if diff > m.MaxAbsErrorFrames {
			m.MaxAbsErrorFrames = diff
		}
		if float64(diff)*msPerFrame <= 50 {
			within++
		}
	}
	m.MeanAbsErrorFrames = sumAbs / float64(n)
	m.MeanAbsErrorMs = m.MeanAbsErrorFrames * msPerFrame
	m.Within50Ms = float64(within) / float64(n)

	// Decays from 1 toward 0 as the mean onset error grows past ~50 ms.
	m.Score = math.Exp(-m.MeanAbsErrorMs / 50)
	return m
}
