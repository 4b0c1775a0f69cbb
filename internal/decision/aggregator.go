package decision

import (
	"fmt"
	"math"

	"github.com/wonny/investiq/internal/contracts"
)

// scoreGrid snaps the weighted sum to 1e-9 so band edges (70, 45) are hit exactly
const scoreGrid = 1e9

// Aggregator computes the fixed-weight combined score
type Aggregator struct {
	weights Weights
}

// NewAggregator creates an aggregator with the given weights
func NewAggregator(weights Weights) Aggregator {
	return Aggregator{weights: weights}
}

// Aggregate returns Σ weight[agent] × normalizedScore[agent] plus the per-agent breakdown.
// All four agents are mandatory; weights are never re-normalized over a partial set.
func (a Aggregator) Aggregate(signals []contracts.AgentSignal) (float64, [4]contracts.WeightedComponent, error) {
	var breakdown [4]contracts.WeightedComponent

	ordered, err := orderSignals(signals)
	if err != nil {
		return 0, breakdown, err
	}

	var sum float64
	for i, s := range ordered {
		w := a.weights.Of(s.Agent)
		contribution := w * s.NormalizedScore
		breakdown[i] = contracts.WeightedComponent{
			Agent:           s.Agent,
			Weight:          w,
			NormalizedScore: s.NormalizedScore,
			Contribution:    contribution,
		}
		sum += contribution
	}

	return snap(clamp(sum, 0, 100)), breakdown, nil
}

// orderSignals places each signal in its canonical slot, rejecting duplicates and gaps
func orderSignals(signals []contracts.AgentSignal) ([4]contracts.AgentSignal, error) {
	var ordered [4]contracts.AgentSignal
	var present [4]bool

	for _, s := range signals {
		idx := s.Agent.Index()
		if idx < 0 {
			return ordered, contracts.NewSignalError(contracts.ErrInvalidSignal, s.Agent, "unknown agent")
		}
		if present[idx] {
			return ordered, contracts.NewSignalError(contracts.ErrInvalidSignal, s.Agent, "duplicate signal")
		}
		ordered[idx] = s
		present[idx] = true
	}

	var missing []contracts.AgentName
	for i, ok := range present {
		if !ok {
			missing = append(missing, contracts.AllAgents[i])
		}
	}
	if len(missing) > 0 {
		return ordered, &contracts.SignalError{
			Kind:   contracts.ErrMissingSignal,
			Agents: missing,
			Detail: fmt.Sprintf("all %d agent signals are required", len(contracts.AllAgents)),
		}
	}

	return ordered, nil
}

func snap(v float64) float64 {
	return math.Round(v*scoreGrid) / scoreGrid
}
