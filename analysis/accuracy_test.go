package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareExact(t *testing.T) {
	m := Compare([]int{10, 20, 30}, []int{10, 20, 30}, 48000, 768)
	assert.Equal(t, 3, m.ComparedEvents)
	assert.Equal(t, 0.0, m.MeanAbsErrorFrames)
	assert.Equal(t, 0, m.MaxAbsErrorFrames)
	assert.Equal(t, 1.0, m.Within50Ms)
	assert.Equal(t, 1.0, m.Score)
}

func TestCompareErrors(t *testing.T) {
	// 768 samples at 48 kHz is 16 ms per frame.
	m := Compare([]int{10, 20, 30, 40}, []int{11, 20, 26, 40}, 48000, 768)
	assert.Equal(t, 4, m.ComparedEvents)
	assert.InDelta(t, 1.25, m.MeanAbsErrorFrames, 1e-12)
	assert.Equal(t, 4, m.MaxAbsErrorFrames)
	assert.InDelta(t, 20.0, m.MeanAbsErrorMs, 1e-9)
	// The 4-frame miss is 64 ms, beyond the 50 ms tolerance.
	assert.InDelta(t, 0.75, m.Within50Ms, 1e-12)
	assert.Greater(t, m.Score, 0.0)
	assert.Less(t, m.Score, 1.0)
}

func TestCompareLengthMismatch(t *testing.T) {
	m := Compare([]int{10, 20, 30}, []int{10}, 48000, 768)
	assert.Equal(t, 3, m.ReferenceEvents)
	assert.Equal(t, 1, m.EstimatedEvents)
	assert.Equal(t, 1, m.ComparedEvents)
}

func TestCompareEmpty(t *testing.T) {
	m := Compare(nil, nil, 48000, 768)
	assert.Equal(t, 0, m.ComparedEvents)
	assert.Equal(t, 0.0, m.Score)
}
