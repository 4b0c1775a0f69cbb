package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/investiq/internal/advisor"
	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/scheduler"
	"github.com/wonny/investiq/internal/scheduler/jobs"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "관심 종목 주기 분석",
	Long: `관심 종목을 cron 스케줄에 따라 반복 분석합니다.

매 실행은 종목별 독립 1회 분석이며, 이전 결과를 참조하지 않습니다.
데이터 없음/잘못된 종목 같은 영구 오류는 재시도하지 않습니다.

Schedule 예시:
  "@hourly"           매시간
  "0 9-16 * * 1-5"    평일 9~16시 정각
  "*/30 * * * * *"    30초마다 (초 단위 필드)

Example:
  go run ./cmd/investiq watch --symbols AAPL,MSFT --schedule "@hourly"
  go run ./cmd/investiq watch --symbols NVDA --once`,
	RunE: runWatch,
}

var (
	watchSymbols  string
	watchSchedule string
	watchOnce     bool
	watchRetries  int
)

func init() {
	rootCmd.AddCommand(watchCmd)

	// Flags
	watchCmd.Flags().StringVar(&watchSymbols, "symbols", strings.Join([]string{"AAPL", "MSFT"}, ","), "관심 종목 (쉼표 구분)")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "@hourly", "cron 스케줄")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "모든 종목을 1회 분석하고 종료")
	watchCmd.Flags().IntVar(&watchRetries, "retries", 2, "일시적 오류 재시도 횟수")
}

// parseSymbols splits, normalizes and de-duplicates the watchlist
func parseSymbols(list string) ([]string, error) {
	seen := make(map[string]bool)
	var symbols []string
	for _, raw := range strings.Split(list, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		symbol, err := advisor.NormalizeSymbol(raw)
		if err != nil {
			return nil, err
		}
		if !seen[symbol] {
			seen[symbol] = true
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols to watch")
	}
	return symbols, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	symbols, err := parseSymbols(watchSymbols)
	if err != nil {
		return err
	}
	if err := scheduler.ValidateSchedule(watchSchedule); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newAnalysisApp(ctx, symbols...)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	onResult := func(analysis *contracts.Analysis) {
		v := analysis.Verdict
		fmt.Fprintf(out, "[%s] %-6s %-4s score %6.2f  confidence %3.0f%%  (%s)\n",
			time.Now().Format("2006-01-02 15:04:05"), v.Symbol, v.Recommendation, v.CombinedScore, v.Confidence, v.Rule)
	}

	// 전체 분석 시간 상한: 분석가 타임아웃 + 여유
	jobTimeout := a.cfg.Analysis.AnalystTimeout + 10*time.Second

	sched := scheduler.New(a.log, scheduler.WithRetry(watchRetries, 30*time.Second))
	for _, job := range jobs.NewWatchlist(symbols, watchSchedule, jobTimeout, a.advisor, onResult, a.log) {
		if err := sched.AddJob(job); err != nil {
			return err
		}
	}

	if watchOnce {
		var failed int
		for _, name := range sched.GetAllJobs() {
			result, err := sched.Trigger(ctx, name)
			if err != nil {
				return err
			}
			if !result.Success {
				failed++
				PrintError(out, fmt.Sprintf("%s: %s", result.JobName, result.Error))
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d analyses failed", failed, len(symbols))
		}
		return nil
	}

	sched.Start()

	fmt.Fprintf(out, "\n✅ Watching %s (%s)\n", strings.Join(symbols, ", "), watchSchedule)
	for _, name := range sched.GetAllJobs() {
		if next, err := sched.NextRun(name); err == nil {
			PrintKeyValue(out, name, "next run "+next.Format(time.RFC3339), 14)
		}
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Fprintln(out, "\nShutting down watcher...")
	sched.Stop()

	PrintSeparator(out)
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		st := stats[name]
		line := fmt.Sprintf("%d runs, %.0f%% success", st.TotalRuns, st.SuccessRate*100)
		if st.ConsecutiveFailures > 0 {
			line += fmt.Sprintf(", failing %d in a row", st.ConsecutiveFailures)
		}
		PrintKeyValue(out, name, line, 14)
	}
	return nil
}
