package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/investiq/internal/api"
	"github.com/wonny/investiq/internal/api/handlers"
	"github.com/wonny/investiq/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health               - Health check
  POST /api/analyze          - 종목 분석 {"symbol":"AAPL"}
  POST /api/analyze/{symbol} - 종목 분석
  POST /api/decide           - 분석가 출력으로 판단
  GET  /api/policy           - 활성 정책 조회
  GET  /metrics              - Prometheus 메트릭

Example:
  go run ./cmd/investiq api
  go run ./cmd/investiq api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), "=== InvestIQ API Server ===")

	ctx := context.Background()

	// 1. Wire config, logger, policy, engine, data source and advisor
	a, err := newAnalysisApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":        a.cfg.Port,
		"env":         a.cfg.Env,
		"data_source": a.cfg.Analysis.DataSource,
		"policy_hash": a.snapshot.PolicyHash,
	}).Info("Initializing API server")

	// 2. Create handlers
	h := api.Handlers{
		Analysis: handlers.NewAnalysisHandler(a.advisor, a.engine, nil, a.log),
		Policy:   handlers.NewPolicyHandler(a.policy, a.snapshot, a.engine.Rules()),
	}

	// 3. Create router (rate limiter: Redis when enabled, in-process otherwise)
	limiter := api.NewLimiter(redis.NewRateLimiter(a.redis, "investiq:api"), a.cfg.Analysis.RateLimitPerMin)
	router := api.NewRouter(h, limiter, a.recorder, a.log)

	// 4. Create server
	server := api.New(a.cfg, a.log, router)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Fprintln(out, "\nAvailable endpoints:")
	PrintList(out, []string{
		"GET  /health",
		"POST /api/analyze",
		"POST /api/analyze/{symbol}",
		"POST /api/decide",
		"GET  /api/policy",
	})
	if a.recorder != nil {
		PrintList(out, []string{"GET  /metrics"})
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// 5. Serve until interrupted (graceful shutdown inside Run)
	return server.Run(ctx)
}
