package decision

import (
	"fmt"

	"github.com/wonny/investiq/internal/contracts"
)

// Tally counts signals per directional group; Neutral counts toward neither group
type Tally struct {
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
	Neutral int `json:"neutral"`
}

// NewTally counts the directional groups of the signals
func NewTally(signals [4]contracts.AgentSignal) Tally {
	var t Tally
	for _, s := range signals {
		switch s.Bias.Direction() {
		case 1:
			t.Bullish++
		case -1:
			t.Bearish++
		default:
			t.Neutral++
		}
	}
	return t
}

// Majority returns the majority direction (+1/-1) and its size; a tie has no majority
func (t Tally) Majority() (direction int, count int) {
	switch {
	case t.Bullish > t.Bearish:
		return 1, t.Bullish
	case t.Bearish > t.Bullish:
		return -1, t.Bearish
	default:
		return 0, 0
	}
}

// Resolution is the outcome of the conflict resolver
type Resolution struct {
	Rule           contracts.ConflictRule   `json:"rule"`
	Recommendation contracts.Recommendation `json:"recommendation"`
	Mixed          bool                     `json:"mixed"`
	Clause         string                   `json:"clause"`
	Tally          Tally                    `json:"tally"`
}

// ruleInput is what every rule predicate sees
type ruleInput struct {
	signals  [4]contracts.AgentSignal
	combined float64
	tally    Tally
}

// rule is one (predicate, outcome, reasoning clause) entry of the chain
type rule struct {
	id      contracts.ConflictRule
	applies func(in ruleInput) bool
	resolve func(in ruleInput) Resolution
}

// Resolver evaluates the conflict rules in fixed precedence; first match wins
// ⭐ SSOT: if/elif 대신 순서가 고정된 규칙 체인
type Resolver struct {
	rules      []rule
	thresholds ScoreThresholds
}

// NewResolver builds the rule chain from the policy precedence; the score threshold rule is always last
func NewResolver(order []contracts.ConflictRule, thresholds ScoreThresholds) (*Resolver, error) {
	if err := validateRuleOrder(order); err != nil {
		return nil, err
	}

	r := &Resolver{thresholds: thresholds}
	catalog := map[contracts.ConflictRule]rule{
		contracts.RuleRiskOverride:    r.riskOverride(),
		contracts.RuleStrongConsensus: r.strongConsensus(),
		contracts.RuleMixedSignals:    r.mixedSignals(),
	}
	for _, id := range order {
		r.rules = append(r.rules, catalog[id])
	}
	r.rules = append(r.rules, r.scoreThreshold())

	return r, nil
}

// Resolve returns the recommendation for the ordered signals and combined score
func (r *Resolver) Resolve(signals [4]contracts.AgentSignal, combined float64) Resolution {
	in := ruleInput{signals: signals, combined: combined, tally: NewTally(signals)}

	for _, rl := range r.rules {
		if rl.applies(in) {
			res := rl.resolve(in)
			res.Rule = rl.id
			res.Tally = in.tally
			return res
		}
	}

	// unreachable: the score threshold rule always applies
	return Resolution{Rule: contracts.RuleScoreThreshold, Recommendation: r.thresholds.Classify(combined), Tally: in.tally}
}

// Rules returns the evaluation order, including the trailing default rule
func (r *Resolver) Rules() []contracts.ConflictRule {
	ids := make([]contracts.ConflictRule, len(r.rules))
	for i, rl := range r.rules {
		ids[i] = rl.id
	}
	return ids
}

// riskOverride: elevated risk + any bullish non-risk agent → Hold
func (r *Resolver) riskOverride() rule {
	return rule{
		id: contracts.RuleRiskOverride,
		applies: func(in ruleInput) bool {
			if !in.signals[contracts.AgentRisk.Index()].Bias.IsBearish() {
				return false
			}
			return len(bullishNonRisk(in.signals)) > 0
		},
		resolve: func(in ruleInput) Resolution {
			risk := in.signals[contracts.AgentRisk.Index()]
			clause := fmt.Sprintf("Risk override: elevated risk (%s, %s) outweighs bullish %s signals -> Hold regardless of combined score %.2f",
				risk.RiskLevel, risk.Bias, joinAgents(bullishNonRisk(in.signals)), in.combined)
			return Resolution{Recommendation: contracts.RecommendationHold, Clause: clause}
		},
	}
}

// strongConsensus: 3+ of 4 agents in one directional group → thresholds, tagged non-mixed
func (r *Resolver) strongConsensus() rule {
	return rule{
		id: contracts.RuleStrongConsensus,
		applies: func(in ruleInput) bool {
			return in.tally.Bullish >= 3 || in.tally.Bearish >= 3
		},
		resolve: func(in ruleInput) Resolution {
			direction, count := in.tally.Majority()
			rec := r.thresholds.Classify(in.combined)
			clause := fmt.Sprintf("Strong consensus: %d of %d agents %s; combined score %.2f %s -> %s",
				count, len(in.signals), directionLabel(direction), in.combined, r.thresholdLabel(in.combined), rec)
			return Resolution{Recommendation: rec, Clause: clause}
		},
	}
}

// mixedSignals: non-neutral signals split 2-2 → Hold
func (r *Resolver) mixedSignals() rule {
	return rule{
		id: contracts.RuleMixedSignals,
		applies: func(in ruleInput) bool {
			return in.tally.Bullish >= 2 && in.tally.Bullish == in.tally.Bearish
		},
		resolve: func(in ruleInput) Resolution {
			clause := fmt.Sprintf("Mixed signals across agents: %d bullish vs %d bearish -> Hold (combined score %.2f not used)",
				in.tally.Bullish, in.tally.Bearish, in.combined)
			return Resolution{Recommendation: contracts.RecommendationHold, Mixed: true, Clause: clause}
		},
	}
}

// scoreThreshold: default rule, always applies
func (r *Resolver) scoreThreshold() rule {
	return rule{
		id:      contracts.RuleScoreThreshold,
		applies: func(ruleInput) bool { return true },
		resolve: func(in ruleInput) Resolution {
			rec := r.thresholds.Classify(in.combined)
			clause := fmt.Sprintf("Score threshold: no dominant pattern (%d bullish, %d bearish, %d neutral); combined score %.2f %s -> %s",
				in.tally.Bullish, in.tally.Bearish, in.tally.Neutral, in.combined, r.thresholdLabel(in.combined), rec)
			return Resolution{Recommendation: rec, Clause: clause}
		},
	}
}

func (r *Resolver) thresholdLabel(score float64) string {
	switch {
	case score >= r.thresholds.Buy:
		return fmt.Sprintf(">= %.2f", r.thresholds.Buy)
	case score >= r.thresholds.Hold:
		return fmt.Sprintf("in [%.2f, %.2f)", r.thresholds.Hold, r.thresholds.Buy)
	default:
		return fmt.Sprintf("< %.2f", r.thresholds.Hold)
	}
}

func bullishNonRisk(signals [4]contracts.AgentSignal) []contracts.AgentName {
	var agents []contracts.AgentName
	for _, s := range signals {
		if s.Agent != contracts.AgentRisk && s.Bias.IsBullish() {
			agents = append(agents, s.Agent)
		}
	}
	return agents
}

func joinAgents(agents []contracts.AgentName) string {
	out := ""
	for i, a := range agents {
		if i > 0 {
			out += "/"
		}
		out += string(a)
	}
	return out
}

func directionLabel(direction int) string {
	switch direction {
	case 1:
		return "bullish"
	case -1:
		return "bearish"
	default:
		return "neutral"
	}
}
