package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wonny/investiq/internal/advisor"
	"github.com/wonny/investiq/internal/analysts"
	"github.com/wonny/investiq/internal/audit"
	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/decision"
	"github.com/wonny/investiq/internal/marketdata"
	"github.com/wonny/investiq/internal/metrics"
	"github.com/wonny/investiq/internal/policy"
	"github.com/wonny/investiq/pkg/config"
	"github.com/wonny/investiq/pkg/database"
	"github.com/wonny/investiq/pkg/logger"
	"github.com/wonny/investiq/pkg/redis"
)

// app holds the wired dependencies shared by the commands
// ⭐ SSOT: 의존성 조립은 여기서만 (config → logger → policy → engine → data → analysts → advisor)
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	policy   *policy.Config
	snapshot *policy.Snapshot
	engine   *decision.Engine
	recorder *metrics.Recorder
	redis    *redis.Client
	db       *database.DB
	repo     contracts.MarketDataRepository
	advisor  *advisor.Advisor
}

// loadConfig applies the global flags on top of the environment.
// offline commands never open a data source, so they run on the static one.
func loadConfig(offline bool) (*config.Config, error) {
	if offline {
		os.Setenv("DATA_SOURCE", "static")
	}

	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newEngineApp wires config, logger, policy and the decision engine
func newEngineApp(offline bool) (*app, error) {
	cfg, err := loadConfig(offline)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	policyCfg, snapshot, err := policy.Resolve(cfg.Analysis.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	for _, w := range policy.Warn(policyCfg) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	engine, err := decision.NewEngine(policy.ToPolicy(policyCfg), log)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"policy_id":   snapshot.PolicyID,
		"policy_hash": snapshot.PolicyHash,
		"source":      snapshot.Source,
	}).Debug("Decision policy loaded")

	return &app{
		cfg:      cfg,
		log:      log,
		policy:   policyCfg,
		snapshot: snapshot,
		engine:   engine,
	}, nil
}

// newAnalysisApp additionally wires the market data source, the analysts and the advisor.
// symbols are added to the static sample data so any requested ticker can be analyzed offline.
func newAnalysisApp(ctx context.Context, symbols ...string) (*app, error) {
	a, err := newEngineApp(false)
	if err != nil {
		return nil, err
	}

	if err := a.openMarketData(ctx, symbols); err != nil {
		a.Close()
		return nil, err
	}

	if a.cfg.MetricsEnabled {
		a.recorder = metrics.New()
	}

	opts := []advisor.Option{
		advisor.WithTimeout(a.cfg.Analysis.AnalystTimeout),
		advisor.WithMetrics(a.recorder),
		advisor.WithLogger(a.log),
	}
	// postgres 모드에서만 판단 기록
	if a.db != nil {
		opts = append(opts, advisor.WithJournal(audit.NewJournal(a.db.Pool)))
	}

	a.advisor, err = advisor.New(
		analysts.NewAll(a.repo, analysts.OptionsFromConfig(a.cfg.Analysis), a.log),
		a.engine,
		opts...,
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create advisor: %w", err)
	}

	return a, nil
}

func (a *app) openMarketData(ctx context.Context, symbols []string) error {
	// Redis는 선택 사항: 연결 실패 시 캐시 없이 진행
	rc, err := redis.New(ctx, a.cfg)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rc = redis.Disabled()
	}
	a.redis = rc

	var source contracts.MarketDataRepository
	switch a.cfg.Analysis.DataSource {
	case "static":
		source = marketdata.NewSampleRepository(time.Now(), append(append([]string{}, marketdata.SampleSymbols...), symbols...)...)
	default:
		db, err := database.New(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		source = marketdata.NewPostgresRepository(db.Pool)
	}

	a.repo = marketdata.NewCachedRepository(source, redis.NewCache(rc, "investiq"), a.cfg.Analysis.CacheTTL, a.log)

	a.log.WithFields(map[string]interface{}{
		"data_source": a.cfg.Analysis.DataSource,
		"cache":       rc.Enabled(),
	}).Debug("Market data source ready")
	return nil
}

// Close releases the database and Redis connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
