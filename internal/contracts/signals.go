package contracts

import (
	"fmt"
	"strings"
)

// AgentName identifies one of the four analysts feeding the decision engine
// ⭐ SSOT: 에이전트 식별자는 여기서만 정의
type AgentName string

const (
	AgentFundamental AgentName = "Fundamental"
	AgentSentiment   AgentName = "Sentiment"
	AgentTechnical   AgentName = "Technical"
	AgentRisk        AgentName = "Risk"
)

// AllAgents is the canonical agent order used for reasoning, reports and weights
var AllAgents = [4]AgentName{AgentFundamental, AgentSentiment, AgentTechnical, AgentRisk}

// Index returns the canonical position of the agent, or -1 if unknown
func (a AgentName) Index() int {
	for i, name := range AllAgents {
		if name == a {
			return i
		}
	}
	return -1
}

// Valid reports whether the agent is one of the four known analysts
func (a AgentName) Valid() bool {
	return a.Index() >= 0
}

// Bias is the qualitative directional label derived from a normalized score
type Bias string

const (
	BiasBullish         Bias = "Bullish"
	BiasSlightlyBullish Bias = "Slightly Bullish"
	BiasNeutral         Bias = "Neutral"
	BiasSlightlyBearish Bias = "Slightly Bearish"
	BiasBearish         Bias = "Bearish"
)

// Direction returns +1 for the bullish group, -1 for the bearish group and 0 for Neutral
func (b Bias) Direction() int {
	switch b {
	case BiasBullish, BiasSlightlyBullish:
		return 1
	case BiasBearish, BiasSlightlyBearish:
		return -1
	default:
		return 0
	}
}

// IsBullish reports whether the bias belongs to the bullish group
func (b Bias) IsBullish() bool { return b.Direction() > 0 }

// IsBearish reports whether the bias belongs to the bearish group
func (b Bias) IsBearish() bool { return b.Direction() < 0 }

// RiskLevel is the ordinal output of the risk analyst
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "Very Low"
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskVeryHigh RiskLevel = "Very High"
)

// AllRiskLevels lists risk levels from lowest to highest
var AllRiskLevels = [5]RiskLevel{RiskVeryLow, RiskLow, RiskMedium, RiskHigh, RiskVeryHigh}

// ParseRiskLevel accepts the usual spellings ("Very Low", "very_low", "VeryLow", "Moderate")
func ParseRiskLevel(label string) (RiskLevel, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)

	switch key {
	case "verylow":
		return RiskVeryLow, nil
	case "low":
		return RiskLow, nil
	case "medium", "moderate":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	case "veryhigh":
		return RiskVeryHigh, nil
	}

	return "", NewSignalError(ErrInvalidSignal, AgentRisk, fmt.Sprintf("unknown risk level %q", label))
}

// AnalystReport is the output contract of one external analyst
// Score is in the analyst's native range (0~100, sentiment -1~+1); RiskLevel is set by the risk analyst only.
type AnalystReport struct {
	Agent     AgentName          `json:"agent"`
	Score     float64            `json:"score"`
	RiskLevel RiskLevel          `json:"risk_level,omitempty"`
	Bias      string             `json:"bias,omitempty"` // analyst's own label, informational
	Insights  []string           `json:"insights,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// AgentSignal is a report mapped onto the common 0~100 bullishness scale
// Never mutated after normalization.
type AgentSignal struct {
	Agent           AgentName `json:"agent"`
	RawScore        float64   `json:"raw_score"`
	RiskLevel       RiskLevel `json:"risk_level,omitempty"`
	NormalizedScore float64   `json:"normalized_score"`
	Bias            Bias      `json:"bias"`
	ReportedBias    string    `json:"reported_bias,omitempty"`
}

// RawLabel renders the native input of the signal for humans
func (s AgentSignal) RawLabel() string {
	switch s.Agent {
	case AgentRisk:
		return string(s.RiskLevel)
	case AgentSentiment:
		return fmt.Sprintf("%+.2f", s.RawScore)
	default:
		return fmt.Sprintf("%.2f", s.RawScore)
	}
}
