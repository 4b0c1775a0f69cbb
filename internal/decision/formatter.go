package decision

import (
	"fmt"
	"strings"

	"github.com/wonny/investiq/internal/contracts"
)

const (
	doubleRule = "═══════════════════════════════════════════════════════════"
	singleRule = "───────────────────────────────────────────────────────────"
)

// Formatter assembles the reasoning trail and the text report
// Output depends only on its inputs (no randomness, no wall clock).
type Formatter struct{}

// Reasoning returns the ordered clauses: agent lines, score breakdown, rule clause, confidence
func (Formatter) Reasoning(signals [4]contracts.AgentSignal, combined float64, breakdown [4]contracts.WeightedComponent, res Resolution, conf ConfidenceResult) []string {
	reasoning := make([]string, 0, len(signals)+3)

	// 1. 에이전트별 요약
	for _, s := range signals {
		reasoning = append(reasoning, agentLine(s))
	}

	// 2. 가중 합산 내역
	terms := make([]string, len(breakdown))
	for i, c := range breakdown {
		terms[i] = fmt.Sprintf("%s %.2f*%.2f", c.Agent, c.Weight, c.NormalizedScore)
	}
	reasoning = append(reasoning, fmt.Sprintf("Combined score %.2f/100 = %s", combined, strings.Join(terms, " + ")))

	// 3. 결정 규칙
	reasoning = append(reasoning, res.Clause)

	// 4. 신뢰도
	reasoning = append(reasoning, fmt.Sprintf("Confidence %.0f%% (%s)", conf.Value, conf.Driver))

	return reasoning
}

func agentLine(s contracts.AgentSignal) string {
	switch s.Agent {
	case contracts.AgentRisk:
		return fmt.Sprintf("%s: risk level %s -> %.2f/100 (%s)", s.Agent, s.RiskLevel, s.NormalizedScore, s.Bias)
	case contracts.AgentSentiment:
		return fmt.Sprintf("%s: polarity %s -> %.2f/100 (%s)", s.Agent, s.RawLabel(), s.NormalizedScore, s.Bias)
	default:
		return fmt.Sprintf("%s: score %.2f/100 (%s)", s.Agent, s.NormalizedScore, s.Bias)
	}
}

// Report renders the verdict as text: agent lines, combined score, recommendation, confidence, reasoning
func (Formatter) Report(v *contracts.CombinedVerdict) string {
	var b strings.Builder

	b.WriteString(doubleRule + "\n")
	fmt.Fprintf(&b, "  FINAL DECISION: %s\n", v.Symbol)
	b.WriteString(singleRule + "\n")

	for _, s := range v.Signals {
		fmt.Fprintf(&b, "  %-12s: %6.2f/100 (%s)\n", s.Agent, s.NormalizedScore, s.Bias)
	}

	b.WriteString(singleRule + "\n")
	fmt.Fprintf(&b, "  Combined Score : %.2f/100\n", v.CombinedScore)
	fmt.Fprintf(&b, "  Recommendation : %s\n", v.Recommendation)
	fmt.Fprintf(&b, "  Confidence     : %.0f%%\n", v.Confidence)
	b.WriteString(singleRule + "\n")

	b.WriteString("  Reasoning:\n")
	for i, line := range v.Reasoning {
		fmt.Fprintf(&b, "   %d. %s\n", i+1, line)
	}
	b.WriteString(doubleRule + "\n")

	return b.String()
}
