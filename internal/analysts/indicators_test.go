package analysts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/investiq/internal/contracts"
)

func TestSMA(t *testing.T) {
	v, ok := SMA([]float64{1, 2, 3, 4, 5}, 2)
	require.True(t, ok)
	assert.InDelta(t, 4.5, v, 1e-12)

	_, ok = SMA([]float64{1, 2}, 3)
	assert.False(t, ok)
}

func TestEMA(t *testing.T) {
	// span 3 → α = 0.5
	got := EMA([]float64{1, 2, 3}, 3)
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, got[0], 1e-12)
	assert.InDelta(t, 1.5, got[1], 1e-12)
	assert.InDelta(t, 2.25, got[2], 1e-12)

	assert.Nil(t, EMA(nil, 3))
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"only gains", []float64{1, 2, 3, 4}, 100},
		{"flat", []float64{5, 5, 5, 5}, 50},
		{"only losses", []float64{4, 3, 2, 1}, 0},
		{"equal gains and losses", []float64{10, 11, 10, 11, 10}, 50},
		{"2:1 gains", []float64{10, 12, 11, 13}, 80}, // gains 4, losses 1 → rs 4
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RSI(tt.closes, len(tt.closes)-1)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, ok := RSI([]float64{1, 2}, 14)
	assert.False(t, ok)
}

func TestComputeMACD(t *testing.T) {
	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 100
	}
	m, ok := ComputeMACD(flat, 12, 26, 9)
	require.True(t, ok)
	assert.InDelta(t, 0, m.Line, 1e-12)
	assert.InDelta(t, 0, m.Histogram, 1e-12)

	m, ok = ComputeMACD(closesOf(linearPrices(60, 100, 1)), 12, 26, 9)
	require.True(t, ok)
	assert.Positive(t, m.Line, "fast EMA above slow EMA in an uptrend")
	assert.InDelta(t, m.Line-m.Signal, m.Histogram, 1e-12)

	_, ok = ComputeMACD(flat[:10], 12, 26, 9)
	assert.False(t, ok)
}

func TestSupportResistance(t *testing.T) {
	prices := linearPrices(30, 100, 1)

	l, ok := SupportResistance(prices, 20)
	require.True(t, ok)
	assert.Equal(t, 109.0, l.Support)    // close 110 - 1
	assert.Equal(t, 130.0, l.Resistance) // close 129 + 1
	assert.Equal(t, 129.0, l.Price)
	assert.InDelta(t, 20.0/21.0, l.Position(), 1e-12)
	assert.InDelta(t, (129.0-109.0)/109.0*100, l.DistanceToSupport, 1e-9)

	_, ok = SupportResistance(prices[:5], 20)
	assert.False(t, ok)
}

func TestLevels_PositionFlatRange(t *testing.T) {
	l := Levels{Support: 100, Resistance: 100, Price: 100}
	assert.Equal(t, 0.5, l.Position())
}

func TestClosesOf(t *testing.T) {
	got := closesOf([]contracts.Price{{Close: 1}, {Close: 2}})
	assert.Equal(t, []float64{1, 2}, got)
}
