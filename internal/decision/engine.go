package decision

import (
	"fmt"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/pkg/logger"
)

// Engine combines the four analyst reports into one verdict
// ⭐ SSOT: Normalize → Aggregate → Resolve → Confidence → Reasoning 순서는 여기서만
// The engine holds no mutable state; Decide is safe for concurrent use.
type Engine struct {
	policy     Policy
	hash       string
	normalizer Normalizer
	aggregator Aggregator
	resolver   *Resolver
	confidence ConfidenceEstimator
	formatter  Formatter
	logger     *logger.Logger
}

// NewEngine validates the policy and builds the pipeline stages
func NewEngine(policy Policy, log *logger.Logger) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	policy = policy.clone()

	hash, err := policy.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash policy: %w", err)
	}

	resolver, err := NewResolver(policy.RuleOrder, policy.ScoreThresholds)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNop()
	}

	return &Engine{
		policy:     policy,
		hash:       hash,
		normalizer: NewNormalizer(policy.BiasBands, policy.RiskScores),
		aggregator: NewAggregator(policy.Weights),
		resolver:   resolver,
		confidence: NewConfidenceEstimator(policy.Confidence),
		logger:     log.WithComponent("decision"),
	}, nil
}

// Policy returns a copy of the engine policy
func (e *Engine) Policy() Policy {
	return e.policy.clone()
}

// PolicyHash returns the SHA256 of the engine policy
func (e *Engine) PolicyHash() string {
	return e.hash
}

// Rules returns the conflict rule evaluation order
func (e *Engine) Rules() []contracts.ConflictRule {
	return e.resolver.Rules()
}

// Decide returns a fresh verdict for the reports; identical inputs give identical verdicts
func (e *Engine) Decide(symbol string, reports contracts.Reports) (*contracts.CombinedVerdict, error) {
	if missing := reports.Missing(); len(missing) > 0 {
		return nil, &contracts.SignalError{
			Kind:   contracts.ErrMissingSignal,
			Agents: missing,
			Detail: fmt.Sprintf("all %d agent signals are required", len(contracts.AllAgents)),
		}
	}

	// 1. 정규화
	signals := make([]contracts.AgentSignal, 0, len(contracts.AllAgents))
	for i, report := range reports.Slots() {
		expected := contracts.AllAgents[i]
		if report.Agent != expected {
			return nil, contracts.NewSignalError(contracts.ErrInvalidSignal, expected,
				fmt.Sprintf("slot holds a report from %q", report.Agent))
		}

		signal, err := e.normalizer.Normalize(report)
		if err != nil {
			return nil, err
		}
		signals = append(signals, signal)
	}

	// 2. 가중 합산
	combined, breakdown, err := e.aggregator.Aggregate(signals)
	if err != nil {
		return nil, err
	}
	ordered := [4]contracts.AgentSignal(signals)

	// 3. 충돌 해소
	res := e.resolver.Resolve(ordered, combined)

	// 4. 신뢰도
	conf := e.confidence.Estimate(ordered, res)

	verdict := &contracts.CombinedVerdict{
		Symbol:           symbol,
		CombinedScore:    combined,
		Breakdown:        breakdown,
		Recommendation:   res.Recommendation,
		Rule:             res.Rule,
		Mixed:            res.Mixed,
		Confidence:       conf.Value,
		ConfidenceDriver: conf.Driver,
		Reasoning:        e.formatter.Reasoning(ordered, combined, breakdown, res, conf),
		Signals:          ordered,
		PolicyHash:       e.hash,
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":         symbol,
		"combined_score": combined,
		"recommendation": verdict.Recommendation,
		"rule":           verdict.Rule,
		"confidence":     verdict.Confidence,
	}).Debug("Decision made")

	return verdict, nil
}

// Report renders the verdict as a text report
func (e *Engine) Report(v *contracts.CombinedVerdict) string {
	return e.formatter.Report(v)
}
