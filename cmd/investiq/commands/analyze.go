package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/investiq/internal/apiclient"
	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/pkg/httputil"
	"github.com/wonny/investiq/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze SYMBOL [SYMBOL...]",
	Short: "종목 분석 (4개 분석가 + 최종 판단)",
	Long: `종목별로 4개 분석가를 병렬 실행하고 최종 판단을 출력합니다.

각 종목은 독립적인 1회 분석입니다 (종목 간 상태 공유 없음).

출력:
- 배너 (종목, 시각)
- 분석가별 점수, 인사이트, 주요 지표
- 최종 판단 (가중 점수, 추천, 신뢰도, 근거)

Example:
  go run ./cmd/investiq analyze AAPL
  go run ./cmd/investiq analyze AAPL MSFT --json
  go run ./cmd/investiq analyze NVDA --server http://localhost:8080`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeJSON   bool
	analyzeServer string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 출력")
	analyzeCmd.Flags().StringVar(&analyzeServer, "server", "", "실행 중인 API 서버에서 분석 (예: http://localhost:8080)")
}

// analyzeFunc runs one analysis; local advisor or remote API
type analyzeFunc func(ctx context.Context, symbol string) (*contracts.Analysis, error)

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var analyze analyzeFunc
	if analyzeServer != "" {
		log := logger.NewNop()
		if verbose {
			log = logger.NewWithWriter(os.Stderr, "debug")
		}
		client := apiclient.New(analyzeServer, httputil.New(log))
		analyze = client.Analyze
	} else {
		a, err := newAnalysisApp(ctx, args...)
		if err != nil {
			return err
		}
		defer a.Close()
		analyze = a.advisor.Analyze
	}

	out := cmd.OutOrStdout()
	var failed int
	for _, symbol := range args {
		analysis, err := analyze(ctx, symbol)
		if err != nil {
			failed++
			PrintError(out, fmt.Sprintf("%s: %v", symbol, err))
			if errors.Is(err, context.Canceled) {
				break
			}
			continue
		}

		if err := printAnalysis(out, analysis); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(args))
	}
	return nil
}

func printAnalysis(w io.Writer, analysis *contracts.Analysis) error {
	if analyzeJSON {
		return PrintJSON(w, analysis)
	}

	PrintBanner(w, "INVESTIQ ANALYSIS", analysis.Symbol, time.Now().UTC().Format(time.RFC3339))
	PrintAnalystViews(w, analysis.Reports)
	printVerdict(w, analysis.Verdict)
	return nil
}
