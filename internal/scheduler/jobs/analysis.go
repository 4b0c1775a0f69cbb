package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/scheduler"
	"github.com/wonny/investiq/pkg/logger"
)

// Analyzer runs one full analysis of a symbol
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (*contracts.Analysis, error)
}

// ResultFunc receives every successful analysis
type ResultFunc func(*contracts.Analysis)

// AnalysisJob analyzes one watchlist symbol per tick
// 매 실행은 독립적인 1회 분석 (이전 결과를 참조하지 않음)
type AnalysisJob struct {
	symbol   string
	schedule string
	timeout  time.Duration
	analyzer Analyzer
	onResult ResultFunc
	logger   *logger.Logger
}

// NewAnalysisJob creates an analysis job; onResult may be nil
func NewAnalysisJob(symbol, schedule string, timeout time.Duration, analyzer Analyzer, onResult ResultFunc, log *logger.Logger) *AnalysisJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &AnalysisJob{
		symbol:   symbol,
		schedule: schedule,
		timeout:  timeout,
		analyzer: analyzer,
		onResult: onResult,
		logger:   log,
	}
}

// NewWatchlist creates one job per symbol, all on the same schedule
func NewWatchlist(symbols []string, schedule string, timeout time.Duration, analyzer Analyzer, onResult ResultFunc, log *logger.Logger) []*AnalysisJob {
	jobs := make([]*AnalysisJob, 0, len(symbols))
	for _, symbol := range symbols {
		jobs = append(jobs, NewAnalysisJob(symbol, schedule, timeout, analyzer, onResult, log))
	}
	return jobs
}

// Name returns the job name
func (j *AnalysisJob) Name() string {
	return "analyze_" + j.symbol
}

// Schedule returns the cron schedule
func (j *AnalysisJob) Schedule() string {
	return j.schedule
}

// Run executes one analysis of the symbol
func (j *AnalysisJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	analysis, err := j.analyzer.Analyze(ctx, j.symbol)
	if err != nil {
		err = fmt.Errorf("analyze %s: %w", j.symbol, err)
		if retryable(err) {
			return err
		}
		return scheduler.Permanent(err)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbol":         analysis.Symbol,
		"recommendation": analysis.Verdict.Recommendation,
		"confidence":     analysis.Verdict.Confidence,
		"rule":           analysis.Verdict.Rule,
	}).Info("Watchlist analysis completed")

	if j.onResult != nil {
		j.onResult(analysis)
	}
	return nil
}

// retryable: 입력/데이터 문제는 재시도해도 결과가 같음
func retryable(err error) bool {
	switch {
	case errors.Is(err, contracts.ErrInvalidSymbol),
		errors.Is(err, contracts.ErrNoData),
		errors.Is(err, contracts.ErrMissingSignal),
		errors.Is(err, contracts.ErrInvalidSignal),
		errors.Is(err, contracts.ErrWeightConfiguration):
		return false
	default:
		return true
	}
}
