package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/investiq/internal/api/handlers"
	"github.com/wonny/investiq/internal/apiclient"
	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/pkg/httputil"
	"github.com/wonny/investiq/pkg/logger"
)

// decideCmd represents the decide command
var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "분석가 출력으로 최종 판단 (오프라인)",
	Long: `시장 데이터 없이, 주어진 4개 분석가 출력만으로 판단 엔진을 실행합니다.

입력 범위:
  --fundamental  0~100
  --sentiment    -1~+1
  --technical    0~100
  --risk         Very Low | Low | Medium | High | Very High

4개 입력 모두 필수입니다 (누락 시 missing signal 에러).

Example:
  go run ./cmd/investiq decide --fundamental 80 --sentiment 0.6 --technical 75 --risk Low
  go run ./cmd/investiq decide --fundamental 80 --sentiment 0.6 --technical 75 --risk "Very High" --json`,
	Args: cobra.NoArgs,
	RunE: runDecide,
}

var (
	decideSymbol      string
	decideFundamental float64
	decideSentiment   float64
	decideTechnical   float64
	decideRisk        string
	decideJSON        bool
	decideServer      string
)

func init() {
	rootCmd.AddCommand(decideCmd)

	// Flags
	decideCmd.Flags().StringVar(&decideSymbol, "symbol", "MANUAL", "보고서에 표시할 종목")
	decideCmd.Flags().Float64Var(&decideFundamental, "fundamental", 0, "Fundamental 점수 (0~100)")
	decideCmd.Flags().Float64Var(&decideSentiment, "sentiment", 0, "Sentiment 극성 (-1~+1)")
	decideCmd.Flags().Float64Var(&decideTechnical, "technical", 0, "Technical 점수 (0~100)")
	decideCmd.Flags().StringVar(&decideRisk, "risk", "", "Risk 레벨")
	decideCmd.Flags().BoolVar(&decideJSON, "json", false, "JSON 출력")
	decideCmd.Flags().StringVar(&decideServer, "server", "", "실행 중인 API 서버에서 판단 (예: http://localhost:8080)")
}

// decideRequest collects only the flags the user actually set
func decideRequest(cmd *cobra.Command) handlers.DecideRequest {
	req := handlers.DecideRequest{Symbol: decideSymbol, RiskLevel: decideRisk}

	if cmd.Flags().Changed("fundamental") {
		req.Fundamental = &decideFundamental
	}
	if cmd.Flags().Changed("sentiment") {
		req.Sentiment = &decideSentiment
	}
	if cmd.Flags().Changed("technical") {
		req.Technical = &decideTechnical
	}
	return req
}

func runDecide(cmd *cobra.Command, args []string) error {
	req := decideRequest(cmd)

	var (
		verdict *contracts.CombinedVerdict
		err     error
	)
	if decideServer != "" {
		client := apiclient.New(decideServer, httputil.New(logger.NewNop()))
		verdict, err = client.Decide(context.Background(), req)
	} else {
		a, aerr := newEngineApp(true)
		if aerr != nil {
			return aerr
		}
		defer a.Close()
		verdict, err = a.engine.Decide(req.Symbol, req.Reports())
	}
	if err != nil {
		return fmt.Errorf("decide: %w", err)
	}

	out := cmd.OutOrStdout()
	if decideJSON {
		return PrintJSON(out, verdict)
	}

	printVerdict(out, verdict)
	return nil
}
