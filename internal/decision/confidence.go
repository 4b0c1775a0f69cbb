package decision

import (
	"fmt"
	"math"

	"github.com/wonny/investiq/internal/contracts"
)

// Adjustment is one additive term of the confidence value
type Adjustment struct {
	Source string  `json:"source"` // agreement | rule | dispersion
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

const (
	sourceAgreement  = "agreement"
	sourceRule       = "rule"
	sourceDispersion = "dispersion"
)

// ConfidenceResult is the clamped confidence plus how it was reached
type ConfidenceResult struct {
	Value       float64      `json:"value"`
	Driver      string       `json:"driver"`
	Adjustments []Adjustment `json:"adjustments"`
	Dispersion  float64      `json:"dispersion"`
}

// ConfidenceEstimator derives confidence from agreement and score dispersion
type ConfidenceEstimator struct {
	policy ConfidencePolicy
}

// NewConfidenceEstimator creates an estimator from the policy
func NewConfidenceEstimator(policy ConfidencePolicy) ConfidenceEstimator {
	return ConfidenceEstimator{policy: policy}
}

// Estimate applies the additive adjustments in fixed order and clamps to [Floor, Ceiling]
func (e ConfidenceEstimator) Estimate(signals [4]contracts.AgentSignal, res Resolution) ConfidenceResult {
	p := e.policy
	var adjustments []Adjustment

	// 1. 다수 방향 동의 (+10/agent, 상한 +30)
	if direction, count := res.Tally.Majority(); count > 0 {
		bonus := math.Min(float64(count)*p.PerAgreeingAgent, p.MaxAgreementBonus)
		if bonus != 0 {
			adjustments = append(adjustments, Adjustment{
				Source: sourceAgreement,
				Delta:  bonus,
				Reason: fmt.Sprintf("boosted by %d-agent %s agreement", count, directionLabel(direction)),
			})
		}
	}

	// 2. 규칙 페널티
	switch res.Rule {
	case contracts.RuleRiskOverride:
		adjustments = append(adjustments, Adjustment{Source: sourceRule, Delta: -p.RiskOverridePenalty, Reason: "reduced due to risk override"})
	case contracts.RuleMixedSignals:
		adjustments = append(adjustments, Adjustment{Source: sourceRule, Delta: -p.MixedSignalsPenalty, Reason: "reduced due to mixed signals"})
	}

	// 3. 점수 분산
	dispersion := Dispersion(signals)
	switch {
	case dispersion < p.TightDispersion:
		adjustments = append(adjustments, Adjustment{
			Source: sourceDispersion,
			Delta:  p.TightDispersionBonus,
			Reason: fmt.Sprintf("boosted by tight score dispersion (%.2f)", dispersion),
		})
	case dispersion > p.WideDispersion:
		adjustments = append(adjustments, Adjustment{
			Source: sourceDispersion,
			Delta:  -p.WideDispersionPenalty,
			Reason: fmt.Sprintf("reduced due to wide score dispersion (%.2f)", dispersion),
		})
	}

	raw := p.Base
	for _, a := range adjustments {
		raw += a.Delta
	}
	value := clamp(raw, p.Floor, p.Ceiling)

	return ConfidenceResult{
		Value:       value,
		Driver:      principalDriver(adjustments, raw, value),
		Adjustments: adjustments,
		Dispersion:  dispersion,
	}
}

// Dispersion returns max - min of the normalized scores
func Dispersion(signals [4]contracts.AgentSignal) float64 {
	lo, hi := signals[0].NormalizedScore, signals[0].NormalizedScore
	for _, s := range signals[1:] {
		lo = math.Min(lo, s.NormalizedScore)
		hi = math.Max(hi, s.NormalizedScore)
	}
	return hi - lo
}

// principalDriver names a fired rule penalty first, otherwise the largest-magnitude adjustment.
// Earlier adjustments win ties.
func principalDriver(adjustments []Adjustment, raw, value float64) string {
	driver := "base confidence, no adjustments"
	best := 0.0
	for _, a := range adjustments {
		if a.Source == sourceRule {
			driver = a.Reason
			break
		}
		if math.Abs(a.Delta) > best {
			best = math.Abs(a.Delta)
			driver = a.Reason
		}
	}

	if value != raw {
		driver = fmt.Sprintf("%s (clamped from %.0f to %.0f)", driver, raw, value)
	}
	return driver
}
