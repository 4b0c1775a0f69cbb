package policy

import (
	"errors"
	"fmt"
	"math"

	"github.com/wonny/investiq/internal/contracts"
)

// weightSumEpsilon is the tolerance of |Σweights - 1|
const weightSumEpsilon = 1e-9

// ValidationError 검증 실패 (프로그램 중단)
// Err carries the engine error kind (e.g. contracts.ErrWeightConfiguration) when one applies.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.PolicyID == "" {
		return ValidationError{Field: "meta.policy_id", Message: "required"}
	}

	// === Weights ===
	for _, w := range namedWeights(cfg.Weights) {
		if w.value < 0 || math.IsNaN(w.value) || math.IsInf(w.value, 0) {
			return ValidationError{Field: "weights." + w.name, Message: "must be a finite number >= 0", Err: contracts.ErrWeightConfiguration}
		}
	}
	sum := cfg.Weights.Fundamental + cfg.Weights.Sentiment + cfg.Weights.Technical + cfg.Weights.Risk
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return ValidationError{
			Field:   "weights",
			Message: fmt.Sprintf("must sum to 1.0, got %.10f", sum),
			Err:     contracts.ErrWeightConfiguration,
		}
	}

	// === Rule order ===
	for i, r := range cfg.RuleOrder {
		switch contracts.ConflictRule(r) {
		case contracts.RuleRiskOverride, contracts.RuleStrongConsensus, contracts.RuleMixedSignals:
		case contracts.RuleScoreThreshold:
			return ValidationError{Field: fmt.Sprintf("rule_order[%d]", i), Message: "score_threshold is implicit and always last"}
		default:
			return ValidationError{Field: fmt.Sprintf("rule_order[%d]", i), Message: fmt.Sprintf("unknown rule %q", r)}
		}
	}

	// === 나머지 (bands, thresholds, risk, confidence) ===
	if err := ToPolicy(cfg).Validate(); err != nil {
		var se *contracts.SignalError
		if errors.As(err, &se) {
			return ValidationError{Field: "weights", Message: err.Error(), Err: se.Kind}
		}
		return ValidationError{Field: "policy", Message: err.Error(), Err: err}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 단일 에이전트 가중치 과다
	for _, w := range namedWeights(cfg.Weights) {
		if w.value > 0.5 {
			warnings = append(warnings, Warning{
				Code:    "CONCENTRATED_WEIGHT",
				Message: fmt.Sprintf("%s weight %.2f > 0.50: one agent dominates the combined score", w.name, w.value),
			})
		}
	}

	if cfg.Weights.Risk == 0 {
		warnings = append(warnings, Warning{
			Code:    "RISK_IGNORED",
			Message: "risk weight is 0: risk only acts through the override rule",
		})
	}

	// Hold 구간이 좁으면 판단이 흔들림
	if cfg.ScoreThresholds.Buy-cfg.ScoreThresholds.Hold < 10 {
		warnings = append(warnings, Warning{
			Code:    "NARROW_HOLD_BAND",
			Message: "buy - hold < 10: verdicts flip on small score changes",
		})
	}

	if len(cfg.RuleOrder) > 0 && cfg.RuleOrder[0] != string(contracts.RuleRiskOverride) {
		warnings = append(warnings, Warning{
			Code:    "RISK_OVERRIDE_NOT_FIRST",
			Message: "risk_override is not evaluated first: elevated risk may not force Hold",
		})
	}

	return warnings
}

// === Helper Functions ===

type namedWeight struct {
	name  string
	value float64
}

func namedWeights(w Weights) []namedWeight {
	return []namedWeight{
		{"fundamental", w.Fundamental},
		{"sentiment", w.Sentiment},
		{"technical", w.Technical},
		{"risk", w.Risk},
	}
}
