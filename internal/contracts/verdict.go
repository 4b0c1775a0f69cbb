package contracts

import "fmt"

// Recommendation is the final verdict of the decision engine
type Recommendation string

const (
	RecommendationBuy  Recommendation = "Buy"
	RecommendationHold Recommendation = "Hold"
	RecommendationSell Recommendation = "Sell"
)

// ConflictRule names the rule of the conflict resolver that decided a verdict
type ConflictRule string

const (
	RuleRiskOverride    ConflictRule = "risk_override"
	RuleStrongConsensus ConflictRule = "strong_consensus"
	RuleMixedSignals    ConflictRule = "mixed_signals"
	RuleScoreThreshold  ConflictRule = "score_threshold"
)

// Reports holds exactly one report per analyst
// ⭐ SSOT: 엔진 입력은 4개 고정 슬롯 (누락 시 MissingSignal)
type Reports struct {
	Fundamental *AnalystReport `json:"fundamental"`
	Sentiment   *AnalystReport `json:"sentiment"`
	Technical   *AnalystReport `json:"technical"`
	Risk        *AnalystReport `json:"risk"`
}

// Slots returns the reports in canonical agent order
func (r Reports) Slots() [4]*AnalystReport {
	return [4]*AnalystReport{r.Fundamental, r.Sentiment, r.Technical, r.Risk}
}

// Missing returns the agents whose slot is empty
func (r Reports) Missing() []AgentName {
	var missing []AgentName
	for i, report := range r.Slots() {
		if report == nil {
			missing = append(missing, AllAgents[i])
		}
	}
	return missing
}

// WeightedComponent is one term of the combined score
type WeightedComponent struct {
	Agent           AgentName `json:"agent"`
	Weight          float64   `json:"weight"`
	NormalizedScore float64   `json:"normalized_score"`
	Contribution    float64   `json:"contribution"`
}

// CombinedVerdict is the immutable output of the decision engine
type CombinedVerdict struct {
	Symbol           string               `json:"symbol"`
	CombinedScore    float64              `json:"combined_score"`
	Breakdown        [4]WeightedComponent `json:"breakdown"`
	Recommendation   Recommendation       `json:"recommendation"`
	Rule             ConflictRule         `json:"rule"`
	Mixed            bool                 `json:"mixed"`
	Confidence       float64              `json:"confidence"`
	ConfidenceDriver string               `json:"confidence_driver"`
	Reasoning        []string             `json:"reasoning"`
	Signals          [4]AgentSignal       `json:"signals"`
	PolicyHash       string               `json:"policy_hash,omitempty"`
}

// Signal returns the signal of the given agent
func (v *CombinedVerdict) Signal(agent AgentName) (AgentSignal, error) {
	idx := agent.Index()
	if idx < 0 {
		return AgentSignal{}, fmt.Errorf("unknown agent %q", agent)
	}
	return v.Signals[idx], nil
}

// Analysis is a verdict plus the raw analyst reports behind it
type Analysis struct {
	Symbol  string           `json:"symbol"`
	Verdict *CombinedVerdict `json:"verdict"`
	Reports Reports          `json:"detailed_analysis"`
}
