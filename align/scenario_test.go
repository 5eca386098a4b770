package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannam/piano-precision-aligner/score"
)

func checkWellFormed(t *testing.T, result []int, numEvents, numFrames int) {
	t.Helper()
	require.Len(t, result, numEvents)
	for i, frame := range result {
		assert.GreaterOrEqual(t, frame, 0)
		assert.Less(t, frame, numFrames)
		if i > 0 {
			assert.GreaterOrEqual(t, frame, result[i-1], "result must be weakly non-decreasing")
		}
	}
}

// A single event observed from frame zero on: the onset lands at the very
// start of the recording.
func TestAlignSingleEvent(t *testing.T) {
	tmpl := fourBin(0)
	a := newTestAligner(t, []score.MusicalEvent{testEvent(0.5, 120, tmpl)}, DefaultConfig())
	supplyConstant(a, tmpl, 50)

	result, err := a.Align()
	require.NoError(t, err)
	checkWellFormed(t, result, 1, 50)
	assert.GreaterOrEqual(t, result[0], 1)
	assert.LessOrEqual(t, result[0], 10)
}

// Two equal events whose features switch at frame 20: the second onset must
// land within a window-half of the true boundary.
func TestAlignTwoEventBoundary(t *testing.T) {
	events := []score.MusicalEvent{
		testEvent(0.16, 120, fourBin(0)), // 20 frames at 48kHz/768
		testEvent(0.16, 120, fourBin(1)),
	}
	a := newTestAligner(t, events, DefaultConfig())
	supplyConstant(a, fourBin(0), 20)
	supplyConstant(a, fourBin(1), 20)

	result, err := a.Align()
	require.NoError(t, err)
	checkWellFormed(t, result, 2, 40)
	assert.LessOrEqual(t, result[0], 3)
	assert.GreaterOrEqual(t, result[1], 18)
	assert.LessOrEqual(t, result[1], 22)
}

// Silent input: every likelihood is exp(0) = 1 and the passes stay
// well-defined; the vote settles on the earliest frames the chain dynamics
// allow.
func TestAlignSilentInput(t *testing.T) {
	events := []score.MusicalEvent{
		testEvent(0.016, 120, fourBin(0)), // two frames long, forced advance
		testEvent(0.016, 120, fourBin(1)),
	}
	a := newTestAligner(t, events, DefaultConfig())
	supplyConstant(a, []float64{0, 0, 0, 0}, 30)

	result, err := a.Align()
	require.NoError(t, err)
	checkWellFormed(t, result, 2, 30)
	assert.GreaterOrEqual(t, result[0], 1)
	assert.LessOrEqual(t, result[0], 4)
	assert.LessOrEqual(t, result[1], 8)
}

// Extreme pruning: a beam of one still yields a full-length monotone result
// without raising.
func TestAlignBeamOfOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BeamWidth = 1
	events := []score.MusicalEvent{
		testEvent(0.5, 120, fourBin(0)),
		testEvent(0.5, 120, fourBin(1)),
		testEvent(0.5, 120, fourBin(2)),
	}
	a := newTestAligner(t, events, cfg)
	supplyConstant(a, fourBin(0), 200)

	result, err := a.Align()
	require.NoError(t, err)
	checkWellFormed(t, result, 3, 200)
}

func TestAlignInvalidTempo(t *testing.T) {
	events := []score.MusicalEvent{
		testEvent(0.5, 120, fourBin(0)),
		testEvent(0.5, 0, fourBin(1)),
	}
	a := newTestAligner(t, events, DefaultConfig())
	supplyConstant(a, fourBin(0), 10)

	_, err := a.Align()
	assert.ErrorIs(t, err, ErrInvalidTempo)
}

func TestAlignWithoutFeatures(t *testing.T) {
	a := newTestAligner(t, []score.MusicalEvent{testEvent(0.5, 120, fourBin(0))}, DefaultConfig())
	_, err := a.Align()
	assert.ErrorIs(t, err, ErrFeaturesUnavailable)
}
