package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/decision"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// PrintBanner prints the analysis header for one symbol
func PrintBanner(w io.Writer, title, symbol, timestamp string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "  Symbol    : %s\n", symbol)
	fmt.Fprintf(w, "  Timestamp : %s\n", timestamp)
	fmt.Fprintln(w, doubleLine)
}

// PrintAnalystViews prints each analyst's native score, label, insights and key metrics
func PrintAnalystViews(w io.Writer, reports contracts.Reports) {
	for _, r := range reports.Slots() {
		if r == nil {
			continue
		}

		fmt.Fprintln(w)
		switch r.Agent {
		case contracts.AgentRisk:
			fmt.Fprintf(w, "[%s] risk level %s (%s)\n", r.Agent, r.RiskLevel, r.Bias)
		case contracts.AgentSentiment:
			fmt.Fprintf(w, "[%s] polarity %+.2f (%s)\n", r.Agent, r.Score, r.Bias)
		default:
			fmt.Fprintf(w, "[%s] score %.2f/100 (%s)\n", r.Agent, r.Score, r.Bias)
		}

		PrintList(w, r.Insights)
		if len(r.Metrics) > 0 {
			fmt.Fprintf(w, "   %s\n", formatMetrics(r.Metrics))
		}
	}
	fmt.Fprintln(w)
}

// formatMetrics renders metrics as sorted key=value pairs
func formatMetrics(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%.4g", k, m[k])
	}
	return strings.Join(pairs, " ")
}

// PrintJSON prints v as indented JSON
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, singleLine)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "❌ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// printVerdict prints the final decision report
func printVerdict(w io.Writer, v *contracts.CombinedVerdict) {
	fmt.Fprint(w, decision.Formatter{}.Report(v))
}
