package decision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonny/investiq/internal/contracts"
)

// reports builds the four analyst reports from native inputs
func reports(fundamental, sentiment, technical float64, risk contracts.RiskLevel) contracts.Reports {
	return contracts.Reports{
		Fundamental: &contracts.AnalystReport{Agent: contracts.AgentFundamental, Score: fundamental},
		Sentiment:   &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: sentiment},
		Technical:   &contracts.AnalystReport{Agent: contracts.AgentTechnical, Score: technical},
		Risk:        &contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: risk},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultPolicy(), nil)
	require.NoError(t, err)
	return engine
}

// signalsOf normalizes reports with the default policy
func signalsOf(t *testing.T, r contracts.Reports) [4]contracts.AgentSignal {
	t.Helper()
	p := DefaultPolicy()
	n := NewNormalizer(p.BiasBands, p.RiskScores)

	var out [4]contracts.AgentSignal
	for i, report := range r.Slots() {
		s, err := n.Normalize(report)
		require.NoError(t, err)
		out[i] = s
	}
	return out
}
