package advisor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/decision"
	"github.com/wonny/investiq/internal/metrics"
	"github.com/wonny/investiq/pkg/logger"
)

// DefaultAnalystTimeout bounds one analyst inside one analysis
const DefaultAnalystTimeout = 20 * time.Second

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,14}$`)

// Advisor runs the four analysts in parallel and hands their reports to the engine
// ⭐ SSOT: 분석 1회 = fan-out → barrier → Decide (부분 결과로 판정하지 않음)
type Advisor struct {
	analysts [4]contracts.Analyst
	engine   *decision.Engine
	timeout  time.Duration
	metrics  *metrics.Recorder
	journal  Journal
	logger   *logger.Logger
}

// Journal records completed analyses; it is never read back into a decision
type Journal interface {
	Record(ctx context.Context, analysis *contracts.Analysis) error
}

// Option configures an Advisor
type Option func(*Advisor)

// WithTimeout sets the per-analyst deadline
func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMetrics attaches a metrics recorder
func WithMetrics(r *metrics.Recorder) Option {
	return func(a *Advisor) { a.metrics = r }
}

// WithJournal records every completed analysis
func WithJournal(j Journal) Option {
	return func(a *Advisor) { a.journal = j }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(a *Advisor) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an advisor; analysts must be given in canonical agent order
func New(analysts [4]contracts.Analyst, engine *decision.Engine, opts ...Option) (*Advisor, error) {
	if engine == nil {
		return nil, fmt.Errorf("advisor: nil decision engine")
	}
	for i, a := range analysts {
		if a == nil {
			return nil, fmt.Errorf("advisor: no %s analyst", contracts.AllAgents[i])
		}
		if a.Agent() != contracts.AllAgents[i] {
			return nil, fmt.Errorf("advisor: slot %d expects %s analyst, got %s", i, contracts.AllAgents[i], a.Agent())
		}
	}

	adv := &Advisor{
		analysts: analysts,
		engine:   engine,
		timeout:  DefaultAnalystTimeout,
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(adv)
	}
	adv.logger = adv.logger.WithComponent("advisor")

	return adv, nil
}

// Engine returns the decision engine
func (a *Advisor) Engine() *decision.Engine {
	return a.engine
}

// NormalizeSymbol upper-cases and validates a ticker symbol
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", contracts.ErrInvalidSymbol, symbol)
	}
	return s, nil
}

// Analyze runs one independent analysis of the symbol.
// Any analyst failure aborts the analysis; no partial verdict is produced.
func (a *Advisor) Analyze(ctx context.Context, symbol string) (*contracts.Analysis, error) {
	start := time.Now()

	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		a.metrics.RecordError(metrics.ErrorKind(err))
		return nil, err
	}

	log := a.logger.WithSymbol(symbol)
	log.Info("Starting analysis")

	// 1. 분석가 병렬 실행
	reports, err := a.gather(ctx, symbol)
	if err != nil {
		a.metrics.RecordError(metrics.ErrorKind(err))
		log.WithError(err).Warn("Analysis aborted")
		return nil, err
	}

	// 2. 판정
	verdict, err := a.engine.Decide(symbol, reports)
	if err != nil {
		a.metrics.RecordError(metrics.ErrorKind(err))
		log.WithError(err).Warn("Decision failed")
		return nil, fmt.Errorf("decide %s: %w", symbol, err)
	}

	elapsed := time.Since(start)
	a.metrics.RecordVerdict(verdict)
	a.metrics.RecordLatency("analysis", elapsed)

	log.WithFields(map[string]interface{}{
		"recommendation": verdict.Recommendation,
		"combined_score": verdict.CombinedScore,
		"confidence":     verdict.Confidence,
		"rule":           verdict.Rule,
		"duration_ms":    elapsed.Milliseconds(),
	}).Info("Analysis completed")

	analysis := &contracts.Analysis{
		Symbol:  symbol,
		Verdict: verdict,
		Reports: reports,
	}

	// 기록 실패는 분석 결과에 영향 없음
	if a.journal != nil {
		if err := a.journal.Record(ctx, analysis); err != nil {
			log.WithError(err).Warn("Failed to journal decision")
		}
	}

	return analysis, nil
}

// gather fans the analysts out and waits for all of them (barrier)
func (a *Advisor) gather(ctx context.Context, symbol string) (contracts.Reports, error) {
	var slots [4]*contracts.AnalystReport

	g, gctx := errgroup.WithContext(ctx)
	for i, analyst := range a.analysts {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(gctx, a.timeout)
			defer cancel()

			started := time.Now()
			report, err := analyst.Analyze(actx, symbol)
			if err != nil {
				return fmt.Errorf("%s analyst: %w", analyst.Agent(), err)
			}
			if report == nil {
				return contracts.NewSignalError(contracts.ErrMissingSignal, analyst.Agent(), "analyst returned no report")
			}

			a.metrics.RecordLatency("analyst_"+strings.ToLower(string(analyst.Agent())), time.Since(started))
			slots[i] = report // 슬롯별 단일 writer
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return contracts.Reports{}, err
	}

	return contracts.Reports{
		Fundamental: slots[0],
		Sentiment:   slots[1],
		Technical:   slots[2],
		Risk:        slots[3],
	}, nil
}
