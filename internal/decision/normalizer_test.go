package decision

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/investiq/internal/contracts"
)

func TestNormalizer_Normalize(t *testing.T) {
	p := DefaultPolicy()
	n := NewNormalizer(p.BiasBands, p.RiskScores)

	tests := []struct {
		name      string
		report    *contracts.AnalystReport
		wantScore float64
		wantBias  contracts.Bias
	}{
		{"fundamental passthrough", &contracts.AnalystReport{Agent: contracts.AgentFundamental, Score: 80}, 80, contracts.BiasBullish},
		{"technical clamp high", &contracts.AnalystReport{Agent: contracts.AgentTechnical, Score: 130}, 100, contracts.BiasBullish},
		{"technical clamp low", &contracts.AnalystReport{Agent: contracts.AgentTechnical, Score: -5}, 0, contracts.BiasBearish},
		{"sentiment positive", &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: 0.6}, 80, contracts.BiasBullish},
		{"sentiment zero", &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: 0}, 50, contracts.BiasNeutral},
		{"sentiment floor", &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: -1}, 0, contracts.BiasBearish},
		{"sentiment ceiling", &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: 1}, 100, contracts.BiasBullish},
		{"risk very low", &contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: contracts.RiskVeryLow}, 90, contracts.BiasBullish},
		{"risk low", &contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: contracts.RiskLow}, 70, contracts.BiasBullish},
		{"risk medium", &contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: contracts.RiskMedium}, 50, contracts.BiasNeutral},
		{"risk high", &contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: contracts.RiskHigh}, 30, contracts.BiasSlightlyBearish},
		{"risk very high", &contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: contracts.RiskVeryHigh}, 10, contracts.BiasBearish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := n.Normalize(tt.report)
			require.NoError(t, err)

			assert.Equal(t, tt.report.Agent, s.Agent)
			assert.InDelta(t, tt.wantScore, s.NormalizedScore, 1e-9)
			assert.Equal(t, tt.wantBias, s.Bias)
			assert.GreaterOrEqual(t, s.NormalizedScore, 0.0)
			assert.LessOrEqual(t, s.NormalizedScore, 100.0)
		})
	}
}

func TestNormalizer_RiskKeepsLevel(t *testing.T) {
	p := DefaultPolicy()
	n := NewNormalizer(p.BiasBands, p.RiskScores)

	s, err := n.Normalize(&contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: contracts.RiskHigh, Score: 72, Bias: "High"})
	require.NoError(t, err)

	assert.Equal(t, contracts.RiskHigh, s.RiskLevel)
	assert.Zero(t, s.RawScore)
	assert.Equal(t, "High", s.ReportedBias)
}

func TestNormalizer_Errors(t *testing.T) {
	p := DefaultPolicy()
	n := NewNormalizer(p.BiasBands, p.RiskScores)

	tests := []struct {
		name    string
		report  *contracts.AnalystReport
		wantErr error
	}{
		{"nil report", nil, contracts.ErrMissingSignal},
		{"sentiment above range", &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: 1.2}, contracts.ErrInvalidSignal},
		{"sentiment below range", &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: -1.01}, contracts.ErrInvalidSignal},
		{"sentiment NaN", &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: math.NaN()}, contracts.ErrInvalidSignal},
		{"fundamental NaN", &contracts.AnalystReport{Agent: contracts.AgentFundamental, Score: math.NaN()}, contracts.ErrInvalidSignal},
		{"technical Inf", &contracts.AnalystReport{Agent: contracts.AgentTechnical, Score: math.Inf(1)}, contracts.ErrInvalidSignal},
		{"unknown risk level", &contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: "Extreme"}, contracts.ErrInvalidSignal},
		{"empty risk level", &contracts.AnalystReport{Agent: contracts.AgentRisk}, contracts.ErrInvalidSignal},
		{"unknown agent", &contracts.AnalystReport{Agent: "Macro", Score: 50}, contracts.ErrInvalidSignal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.report)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}
