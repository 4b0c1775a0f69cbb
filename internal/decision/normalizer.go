package decision

import (
	"fmt"
	"math"

	"github.com/wonny/investiq/internal/contracts"
)

// Normalizer maps each analyst's native range onto the 0~100 bullishness scale
type Normalizer struct {
	bands BiasBands
	risk  RiskScores
}

// NewNormalizer creates a normalizer from the policy tables
func NewNormalizer(bands BiasBands, risk RiskScores) Normalizer {
	return Normalizer{bands: bands, risk: risk}
}

// Normalize converts a report into an AgentSignal with a canonical bias
func (n Normalizer) Normalize(report *contracts.AnalystReport) (contracts.AgentSignal, error) {
	if report == nil {
		return contracts.AgentSignal{}, contracts.NewSignalError(contracts.ErrMissingSignal, "", "nil report")
	}

	signal := contracts.AgentSignal{
		Agent:        report.Agent,
		RawScore:     report.Score,
		ReportedBias: report.Bias,
	}

	var err error
	signal.NormalizedScore, err = n.score(report)
	if err != nil {
		return contracts.AgentSignal{}, err
	}
	if report.Agent == contracts.AgentRisk {
		signal.RiskLevel = report.RiskLevel
		signal.RawScore = 0
	}

	signal.Bias = n.bands.Classify(signal.NormalizedScore)
	return signal, nil
}

func (n Normalizer) score(report *contracts.AnalystReport) (float64, error) {
	switch report.Agent {
	case contracts.AgentFundamental, contracts.AgentTechnical:
		if !isFinite(report.Score) {
			return 0, contracts.NewSignalError(contracts.ErrInvalidSignal, report.Agent,
				fmt.Sprintf("score must be finite, got %v", report.Score))
		}
		return clamp(report.Score, 0, 100), nil

	case contracts.AgentSentiment:
		if !isFinite(report.Score) || report.Score < -1 || report.Score > 1 {
			return 0, contracts.NewSignalError(contracts.ErrInvalidSignal, report.Agent,
				fmt.Sprintf("sentiment score must be in [-1, 1], got %v", report.Score))
		}
		return (report.Score + 1) * 50, nil

	case contracts.AgentRisk:
		score, ok := n.risk.Of(report.RiskLevel)
		if !ok {
			return 0, contracts.NewSignalError(contracts.ErrInvalidSignal, report.Agent,
				fmt.Sprintf("unknown risk level %q", report.RiskLevel))
		}
		return score, nil
	}

	return 0, contracts.NewSignalError(contracts.ErrInvalidSignal, report.Agent, "unknown agent")
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
