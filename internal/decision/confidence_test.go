package decision

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/investiq/internal/contracts"
)

func TestConfidenceEstimator_Estimate(t *testing.T) {
	p := DefaultPolicy()
	estimator := NewConfidenceEstimator(p.Confidence)
	resolver, err := NewResolver(p.RuleOrder, p.ScoreThresholds)
	assert.NoError(t, err)

	tests := []struct {
		name       string
		reports    contracts.Reports
		combined   float64
		want       float64
		wantDriver string
	}{
		{
			name:       "full consensus with tight dispersion",
			reports:    reports(80, 0.6, 75, contracts.RiskVeryLow),
			combined:   80.5,
			want:       85,
			wantDriver: "boosted by 4-agent bullish agreement",
		},
		{
			name:       "risk override penalty",
			reports:    reports(80, 0.6, 75, contracts.RiskHigh),
			combined:   68.5,
			want:       65,
			wantDriver: "reduced due to risk override",
		},
		{
			name:       "mixed signals with wide dispersion",
			reports:    reports(80, -0.6, 25, contracts.RiskLow),
			combined:   49.5,
			want:       35,
			wantDriver: "reduced due to mixed signals",
		},
		{
			name:       "no adjustments",
			reports:    reports(50, 0.4, 30, contracts.RiskMedium),
			combined:   48,
			want:       50,
			wantDriver: "base confidence, no adjustments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := signalsOf(t, tt.reports)
			res := resolver.Resolve(signals, tt.combined)

			got := estimator.Estimate(signals, res)
			assert.InDelta(t, tt.want, got.Value, 1e-9)
			assert.Equal(t, tt.wantDriver, got.Driver)
		})
	}
}

func TestConfidenceEstimator_Clamp(t *testing.T) {
	cp := DefaultPolicy().Confidence
	cp.Base = 90
	estimator := NewConfidenceEstimator(cp)

	signals := signalsOf(t, reports(80, 0.6, 75, contracts.RiskVeryLow))
	got := estimator.Estimate(signals, Resolution{Rule: contracts.RuleStrongConsensus, Tally: NewTally(signals)})

	assert.Equal(t, 95.0, got.Value)
	assert.Contains(t, got.Driver, "clamped from 125 to 95")
}

func TestDispersion(t *testing.T) {
	signals := signalsOf(t, reports(80, 0.6, 75, contracts.RiskHigh))
	assert.InDelta(t, 50, Dispersion(signals), 1e-9)
}

// Confidence stays inside [floor, ceiling] for any valid inputs
func TestConfidence_Bounds(t *testing.T) {
	engine := newTestEngine(t)
	rng := rand.New(rand.NewPCG(20241018, 42))

	for i := 0; i < 2000; i++ {
		r := reports(
			rng.Float64()*100,
			rng.Float64()*2-1,
			rng.Float64()*100,
			contracts.AllRiskLevels[rng.IntN(len(contracts.AllRiskLevels))],
		)

		v, err := engine.Decide("PROP", r)
		if !assert.NoError(t, err) {
			return
		}
		assert.GreaterOrEqual(t, v.Confidence, 30.0)
		assert.LessOrEqual(t, v.Confidence, 95.0)
		assert.GreaterOrEqual(t, v.CombinedScore, 0.0)
		assert.LessOrEqual(t, v.CombinedScore, 100.0)
	}
}
