package decision

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/wonny/investiq/internal/contracts"
)

// ErrInvalidPolicy is returned for policy problems other than the weight sum
var ErrInvalidPolicy = errors.New("invalid decision policy")

// weightSumTolerance bounds |Σw - 1|
const weightSumTolerance = 1e-9

// Weights are the fixed per-agent weights of the combined score (sum = 1.0)
type Weights struct {
	Fundamental float64 `json:"fundamental"`
	Sentiment   float64 `json:"sentiment"`
	Technical   float64 `json:"technical"`
	Risk        float64 `json:"risk"`
}

// Of returns the weight of an agent
func (w Weights) Of(agent contracts.AgentName) float64 {
	switch agent {
	case contracts.AgentFundamental:
		return w.Fundamental
	case contracts.AgentSentiment:
		return w.Sentiment
	case contracts.AgentTechnical:
		return w.Technical
	case contracts.AgentRisk:
		return w.Risk
	}
	return 0
}

// Sum returns the sum of all weights
func (w Weights) Sum() float64 {
	return w.Fundamental + w.Sentiment + w.Technical + w.Risk
}

// BiasBands holds the inclusive lower edge of each bias band (Bearish is everything below SlightlyBearish)
type BiasBands struct {
	Bullish         float64 `json:"bullish"`
	SlightlyBullish float64 `json:"slightly_bullish"`
	Neutral         float64 `json:"neutral"`
	SlightlyBearish float64 `json:"slightly_bearish"`
}

// Classify maps a normalized score onto exactly one bias
func (b BiasBands) Classify(score float64) contracts.Bias {
	switch {
	case score >= b.Bullish:
		return contracts.BiasBullish
	case score >= b.SlightlyBullish:
		return contracts.BiasSlightlyBullish
	case score >= b.Neutral:
		return contracts.BiasNeutral
	case score >= b.SlightlyBearish:
		return contracts.BiasSlightlyBearish
	default:
		return contracts.BiasBearish
	}
}

// ScoreThresholds are the combined-score cut-offs of the default rule
type ScoreThresholds struct {
	Buy  float64 `json:"buy"`  // score >= Buy → Buy
	Hold float64 `json:"hold"` // Hold <= score < Buy → Hold, below → Sell
}

// Classify applies the thresholds to a combined score
func (t ScoreThresholds) Classify(score float64) contracts.Recommendation {
	switch {
	case score >= t.Buy:
		return contracts.RecommendationBuy
	case score >= t.Hold:
		return contracts.RecommendationHold
	default:
		return contracts.RecommendationSell
	}
}

// RiskScores maps each risk level to a bullishness score (lower risk = higher score)
type RiskScores struct {
	VeryLow  float64 `json:"very_low"`
	Low      float64 `json:"low"`
	Medium   float64 `json:"medium"`
	High     float64 `json:"high"`
	VeryHigh float64 `json:"very_high"`
}

// Of returns the normalized score of a risk level
func (r RiskScores) Of(level contracts.RiskLevel) (float64, bool) {
	switch level {
	case contracts.RiskVeryLow:
		return r.VeryLow, true
	case contracts.RiskLow:
		return r.Low, true
	case contracts.RiskMedium:
		return r.Medium, true
	case contracts.RiskHigh:
		return r.High, true
	case contracts.RiskVeryHigh:
		return r.VeryHigh, true
	}
	return 0, false
}

// ConfidencePolicy holds the additive confidence adjustments
type ConfidencePolicy struct {
	Base                  float64 `json:"base"`
	PerAgreeingAgent      float64 `json:"per_agreeing_agent"`
	MaxAgreementBonus     float64 `json:"max_agreement_bonus"`
	RiskOverridePenalty   float64 `json:"risk_override_penalty"`
	MixedSignalsPenalty   float64 `json:"mixed_signals_penalty"`
	TightDispersion       float64 `json:"tight_dispersion"` // max-min below this → bonus
	TightDispersionBonus  float64 `json:"tight_dispersion_bonus"`
	WideDispersion        float64 `json:"wide_dispersion"` // max-min above this → penalty
	WideDispersionPenalty float64 `json:"wide_dispersion_penalty"`
	Floor                 float64 `json:"floor"`
	Ceiling               float64 `json:"ceiling"`
}

// Policy is the immutable configuration of the decision engine
// ⭐ SSOT: 가중치/임계값/규칙 우선순위는 여기서만 (전역 mutable 상태 없음)
type Policy struct {
	ID              string                   `json:"id"`
	Weights         Weights                  `json:"weights"`
	BiasBands       BiasBands                `json:"bias_bands"`
	ScoreThresholds ScoreThresholds          `json:"score_thresholds"`
	RiskScores      RiskScores               `json:"risk_scores"`
	Confidence      ConfidencePolicy         `json:"confidence"`
	RuleOrder       []contracts.ConflictRule `json:"rule_order"` // precedence of the special rules; score_threshold is always last
}

// DefaultRuleOrder is the built-in precedence of the special conflict rules
var DefaultRuleOrder = []contracts.ConflictRule{
	contracts.RuleRiskOverride,
	contracts.RuleStrongConsensus,
	contracts.RuleMixedSignals,
}

// DefaultPolicy returns the built-in decision policy
func DefaultPolicy() Policy {
	return Policy{
		ID: "investiq_default_v1",
		Weights: Weights{
			Fundamental: 0.30,
			Sentiment:   0.20,
			Technical:   0.30,
			Risk:        0.20,
		},
		BiasBands: BiasBands{
			Bullish:         70,
			SlightlyBullish: 55,
			Neutral:         45,
			SlightlyBearish: 30,
		},
		ScoreThresholds: ScoreThresholds{
			Buy:  70,
			Hold: 45,
		},
		RiskScores: RiskScores{
			VeryLow:  90,
			Low:      70,
			Medium:   50,
			High:     30,
			VeryHigh: 10,
		},
		Confidence: ConfidencePolicy{
			Base:                  50,
			PerAgreeingAgent:      10,
			MaxAgreementBonus:     30,
			RiskOverridePenalty:   15,
			MixedSignalsPenalty:   10,
			TightDispersion:       20,
			TightDispersionBonus:  5,
			WideDispersion:        50,
			WideDispersionPenalty: 5,
			Floor:                 30,
			Ceiling:               95,
		},
		RuleOrder: append([]contracts.ConflictRule(nil), DefaultRuleOrder...),
	}
}

// Validate checks the policy; weight problems fail with ErrWeightConfiguration
func (p Policy) Validate() error {
	// === Weights ===
	for _, agent := range contracts.AllAgents {
		w := p.Weights.Of(agent)
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return contracts.NewSignalError(contracts.ErrWeightConfiguration, agent,
				fmt.Sprintf("weight must be a finite non-negative number, got %v", w))
		}
	}
	if sum := p.Weights.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return contracts.NewSignalError(contracts.ErrWeightConfiguration, "",
			fmt.Sprintf("weights must sum to 1.0, got %.10f", sum))
	}

	// === Bias bands: strictly descending inside [0,100] ===
	b := p.BiasBands
	if !(100 >= b.Bullish && b.Bullish > b.SlightlyBullish && b.SlightlyBullish > b.Neutral &&
		b.Neutral > b.SlightlyBearish && b.SlightlyBearish > 0) {
		return fmt.Errorf("%w: bias_bands must satisfy 100 >= bullish > slightly_bullish > neutral > slightly_bearish > 0", ErrInvalidPolicy)
	}

	// === Score thresholds ===
	t := p.ScoreThresholds
	if !(100 >= t.Buy && t.Buy > t.Hold && t.Hold > 0) {
		return fmt.Errorf("%w: score_thresholds must satisfy 100 >= buy > hold > 0", ErrInvalidPolicy)
	}

	// === Risk scores ===
	r := p.RiskScores
	for _, level := range contracts.AllRiskLevels {
		if v, _ := r.Of(level); v < 0 || v > 100 {
			return fmt.Errorf("%w: risk_scores.%s must be in [0,100], got %v", ErrInvalidPolicy, level, v)
		}
	}
	if !(r.VeryLow >= r.Low && r.Low >= r.Medium && r.Medium >= r.High && r.High >= r.VeryHigh) {
		return fmt.Errorf("%w: risk_scores must not increase with risk", ErrInvalidPolicy)
	}

	// === Confidence ===
	c := p.Confidence
	// 페널티/보너스는 크기만 지정 (부호는 추정기가 적용)
	for _, term := range []struct {
		name  string
		value float64
	}{
		{"per_agreeing_agent", c.PerAgreeingAgent},
		{"max_agreement_bonus", c.MaxAgreementBonus},
		{"risk_override_penalty", c.RiskOverridePenalty},
		{"mixed_signals_penalty", c.MixedSignalsPenalty},
		{"tight_dispersion", c.TightDispersion},
		{"tight_dispersion_bonus", c.TightDispersionBonus},
		{"wide_dispersion", c.WideDispersion},
		{"wide_dispersion_penalty", c.WideDispersionPenalty},
	} {
		if term.value < 0 || math.IsNaN(term.value) || math.IsInf(term.value, 0) {
			return fmt.Errorf("%w: confidence.%s must be a finite non-negative number, got %v", ErrInvalidPolicy, term.name, term.value)
		}
	}
	if math.IsNaN(c.Base) || math.IsInf(c.Base, 0) {
		return fmt.Errorf("%w: confidence.base must be finite, got %v", ErrInvalidPolicy, c.Base)
	}
	if !(0 <= c.Floor && c.Floor < c.Ceiling && c.Ceiling <= 100) {
		return fmt.Errorf("%w: confidence must satisfy 0 <= floor < ceiling <= 100", ErrInvalidPolicy)
	}
	if c.TightDispersion > c.WideDispersion {
		return fmt.Errorf("%w: confidence.tight_dispersion must not exceed wide_dispersion", ErrInvalidPolicy)
	}

	return validateRuleOrder(p.RuleOrder)
}

// validateRuleOrder requires a permutation of the three special rules
func validateRuleOrder(order []contracts.ConflictRule) error {
	if len(order) != len(DefaultRuleOrder) {
		return fmt.Errorf("%w: rule_order must list %d rules, got %d", ErrInvalidPolicy, len(DefaultRuleOrder), len(order))
	}

	seen := make(map[contracts.ConflictRule]bool, len(order))
	for _, rule := range order {
		switch rule {
		case contracts.RuleRiskOverride, contracts.RuleStrongConsensus, contracts.RuleMixedSignals:
		default:
			return fmt.Errorf("%w: unknown rule %q in rule_order", ErrInvalidPolicy, rule)
		}
		if seen[rule] {
			return fmt.Errorf("%w: duplicate rule %q in rule_order", ErrInvalidPolicy, rule)
		}
		seen[rule] = true
	}
	return nil
}

// Hash returns the SHA256 of the canonical JSON of the policy
// struct 기반 JSON이므로 필드 순서가 고정되어 해시가 재현됨
func (p Policy) Hash() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// clone returns a deep copy so the engine never shares the caller's slice
func (p Policy) clone() Policy {
	p.RuleOrder = append([]contracts.ConflictRule(nil), p.RuleOrder...)
	return p
}
