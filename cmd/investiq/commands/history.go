package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/investiq/internal/advisor"
	"github.com/wonny/investiq/internal/audit"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history SYMBOL",
	Short: "기록된 판단 조회",
	Long: `audit.decisions 에 기록된 종목의 최근 판단을 조회합니다.
postgres 데이터 소스로 실행된 analyze / watch / api 결과만 기록됩니다.

Example:
  go run ./cmd/investiq history AAPL --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var (
	historyLimit int
	historyJSON  bool
)

func init() {
	rootCmd.AddCommand(historyCmd)

	// Flags
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "조회할 최대 건수")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "JSON 출력")
}

func runHistory(cmd *cobra.Command, args []string) error {
	symbol, err := advisor.NormalizeSymbol(args[0])
	if err != nil {
		return err
	}
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", historyLimit)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := audit.NewJournal(db.Pool).Recent(ctx, symbol, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		return PrintJSON(out, entries)
	}

	if len(entries) == 0 {
		PrintWarning(out, fmt.Sprintf("No decisions recorded for %s", symbol))
		return nil
	}

	fmt.Fprintf(out, "\n=== %s: last %d decisions ===\n", symbol, len(entries))
	for _, e := range entries {
		fmt.Fprintf(out, "  %s  %-4s  score %6.2f  conf %3.0f%%  %-16s  %s\n",
			e.DecidedAt.Local().Format("2006-01-02 15:04:05"),
			e.Recommendation, e.CombinedScore, e.Confidence, e.Rule, e.PolicyHash[:min(12, len(e.PolicyHash))])
	}
	fmt.Fprintln(out)
	return nil
}
