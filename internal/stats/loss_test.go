package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeLoss(t *testing.T) {
	s := SummarizeLoss([]float64{4, 3, 2, 3})
	assert.Equal(t, 4, s.Windows)
	assert.Equal(t, 4.0, s.First)
	assert.Equal(t, 3.0, s.Last)
	assert.Equal(t, 2.0, s.Min)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.InDelta(t, 0.816496580927726, s.StdDev, 1e-9)
	assert.Equal(t, 1.0, s.Improvement)
}

func TestSummarizeLossEdgeCases(t *testing.T) {
	assert.Equal(t, LossSummary{}, SummarizeLoss(nil))
	s := SummarizeLoss([]float64{2.5})
	assert.Equal(t, 0.0, s.StdDev)
	assert.Equal(t, 2.5, s.Mean)
}
