package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "investiq",
	Short: "InvestIQ - 멀티 에이전트 투자 판단 엔진",
	Long: `InvestIQ Decision Engine CLI

Fundamental / Sentiment / Technical / Risk 4개 분석가의 결과를
고정 가중치 정책으로 결합해 Buy / Hold / Sell 판단과 신뢰도를 산출합니다.

Usage:
  go run ./cmd/investiq [command]

Examples:
  go run ./cmd/investiq analyze AAPL
  go run ./cmd/investiq decide --fundamental 80 --sentiment 0.6 --technical 75 --risk Low
  go run ./cmd/investiq api
  go run ./cmd/investiq watch --symbols AAPL,MSFT --schedule "@hourly"
  go run ./cmd/investiq policy show`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
