package contracts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentName_Index(t *testing.T) {
	tests := []struct {
		agent AgentName
		want  int
	}{
		{AgentFundamental, 0},
		{AgentSentiment, 1},
		{AgentTechnical, 2},
		{AgentRisk, 3},
		{"Macro", -1},
		{"", -1},
	}

	for _, tt := range tests {
		t.Run(string(tt.agent), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.agent.Index())
			assert.Equal(t, tt.want >= 0, tt.agent.Valid())
		})
	}
}

func TestBias_Direction(t *testing.T) {
	tests := []struct {
		bias    Bias
		want    int
		bullish bool
		bearish bool
	}{
		{BiasBullish, 1, true, false},
		{BiasSlightlyBullish, 1, true, false},
		{BiasNeutral, 0, false, false},
		{BiasSlightlyBearish, -1, false, true},
		{BiasBearish, -1, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.bias), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bias.Direction())
			assert.Equal(t, tt.bullish, tt.bias.IsBullish())
			assert.Equal(t, tt.bearish, tt.bias.IsBearish())
		})
	}
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    RiskLevel
		wantErr bool
	}{
		{"Very Low", RiskVeryLow, false},
		{"very_low", RiskVeryLow, false},
		{"VeryLow", RiskVeryLow, false},
		{"low", RiskLow, false},
		{"Medium", RiskMedium, false},
		{"Moderate", RiskMedium, false},
		{" HIGH ", RiskHigh, false},
		{"very-high", RiskVeryHigh, false},
		{"Extreme", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRiskLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidSignal))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAgentSignal_RawLabel(t *testing.T) {
	assert.Equal(t, "Very Low", AgentSignal{Agent: AgentRisk, RiskLevel: RiskVeryLow}.RawLabel())
	assert.Equal(t, "+0.60", AgentSignal{Agent: AgentSentiment, RawScore: 0.6}.RawLabel())
	assert.Equal(t, "-0.25", AgentSignal{Agent: AgentSentiment, RawScore: -0.25}.RawLabel())
	assert.Equal(t, "80.00", AgentSignal{Agent: AgentFundamental, RawScore: 80}.RawLabel())
}

func TestSignalError(t *testing.T) {
	err := &SignalError{
		Kind:   ErrMissingSignal,
		Agents: []AgentName{AgentSentiment, AgentRisk},
		Detail: "all 4 agent signals are required",
	}

	assert.Equal(t, "missing signal [Sentiment, Risk]: all 4 agent signals are required", err.Error())
	assert.True(t, errors.Is(err, ErrMissingSignal))
	assert.False(t, errors.Is(err, ErrInvalidSignal))

	var se *SignalError
	require.True(t, errors.As(error(err), &se))
	assert.Len(t, se.Agents, 2)

	assert.Equal(t, "weight configuration error: sum is 1.1", NewSignalError(ErrWeightConfiguration, "", "sum is 1.1").Error())
}

func TestReports_Missing(t *testing.T) {
	full := Reports{
		Fundamental: &AnalystReport{Agent: AgentFundamental},
		Sentiment:   &AnalystReport{Agent: AgentSentiment},
		Technical:   &AnalystReport{Agent: AgentTechnical},
		Risk:        &AnalystReport{Agent: AgentRisk},
	}
	assert.Empty(t, full.Missing())

	partial := full
	partial.Sentiment = nil
	partial.Risk = nil
	assert.Equal(t, []AgentName{AgentSentiment, AgentRisk}, partial.Missing())

	slots := full.Slots()
	for i, r := range slots {
		assert.Equal(t, AllAgents[i], r.Agent)
	}
}

func TestCombinedVerdict_Signal(t *testing.T) {
	v := &CombinedVerdict{}
	for i, a := range AllAgents {
		v.Signals[i] = AgentSignal{Agent: a, NormalizedScore: float64(i * 10)}
	}

	s, err := v.Signal(AgentTechnical)
	require.NoError(t, err)
	assert.Equal(t, 20.0, s.NormalizedScore)

	_, err = v.Signal("Macro")
	assert.Error(t, err)
}
