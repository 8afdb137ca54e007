package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeIndicators_Rising(t *testing.T) {
	recs := linearSeries(60, 100, 1)
	ind, err := ComputeIndicators(recs)
	require.NoError(t, err)

	assert.Equal(t, recs[59].Date, ind.Date)
	assert.Equal(t, 157.0, ind.MA5)
	assert.Equal(t, 129.5, ind.MA60)
	assert.Equal(t, 100.0, ind.RSI)
	assert.Greater(t, ind.MACD, 0.0)
	assert.Equal(t, 149.5, ind.BollMiddle)
	assert.InDelta(t, 149.5+2*5.766, ind.BollUpper, 0.01)

	types := make([]string, len(ind.Signals))
	for i, s := range ind.Signals {
		types[i] = s.Type
	}
	assert.Contains(t, types, "overbought")
	assert.NotContains(t, types, "breakout_up")
}

func TestComputeIndicators_ShortSeries(t *testing.T) {
	ind, err := ComputeIndicators(linearSeries(10, 100, 0))
	require.NoError(t, err)
	assert.Equal(t, 50.0, ind.RSI)
	assert.Zero(t, ind.MACD)
	assert.Zero(t, ind.MA20)
	assert.Zero(t, ind.BollUpper)
	assert.Empty(t, ind.Signals)
}

func TestComputeIndicators_Empty(t *testing.T) {
	_, err := ComputeIndicators(nil)
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestCalculateEMA(t *testing.T) {
	assert.Nil(t, calculateEMA([]float64{1, 2}, 3))
	ema := calculateEMA([]float64{2, 4, 6, 8}, 3)
	assert.Equal(t, 4.0, ema[2])
	assert.Equal(t, 6.0, ema[3])
}
