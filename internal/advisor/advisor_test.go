package advisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/decision"
	"github.com/wonny/investiq/internal/metrics"
)

// fakeAnalyst returns a fixed report, an error, or blocks until its context ends
type fakeAnalyst struct {
	agent  contracts.AgentName
	report *contracts.AnalystReport
	err    error
	block  bool
	before func()
	calls  atomic.Int32
}

func (f *fakeAnalyst) Agent() contracts.AgentName { return f.agent }

func (f *fakeAnalyst) Analyze(ctx context.Context, symbol string) (*contracts.AnalystReport, error) {
	f.calls.Add(1)
	if f.before != nil {
		f.before()
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.report, f.err
}

func bullishAnalysts() [4]*fakeAnalyst {
	return [4]*fakeAnalyst{
		{agent: contracts.AgentFundamental, report: &contracts.AnalystReport{Agent: contracts.AgentFundamental, Score: 85}},
		{agent: contracts.AgentSentiment, report: &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: 0.6}},
		{agent: contracts.AgentTechnical, report: &contracts.AnalystReport{Agent: contracts.AgentTechnical, Score: 80}},
		{agent: contracts.AgentRisk, report: &contracts.AnalystReport{Agent: contracts.AgentRisk, RiskLevel: contracts.RiskLow}},
	}
}

func asAnalysts(fakes [4]*fakeAnalyst) [4]contracts.Analyst {
	var out [4]contracts.Analyst
	for i, f := range fakes {
		out[i] = f
	}
	return out
}

func newTestAdvisor(t *testing.T, fakes [4]*fakeAnalyst, opts ...Option) *Advisor {
	t.Helper()
	engine, err := decision.NewEngine(decision.DefaultPolicy(), nil)
	require.NoError(t, err)

	adv, err := New(asAnalysts(fakes), engine, opts...)
	require.NoError(t, err)
	return adv
}

func TestNew_Validation(t *testing.T) {
	engine, err := decision.NewEngine(decision.DefaultPolicy(), nil)
	require.NoError(t, err)

	_, err = New(asAnalysts(bullishAnalysts()), nil)
	assert.Error(t, err)

	swapped := bullishAnalysts()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	_, err = New(asAnalysts(swapped), engine)
	assert.ErrorContains(t, err, "expects Fundamental analyst")

	var missing [4]contracts.Analyst
	_, err = New(missing, engine)
	assert.ErrorContains(t, err, "no Fundamental analyst")
}

func TestAnalyze_Success(t *testing.T) {
	rec := metrics.New()
	fakes := bullishAnalysts()
	adv := newTestAdvisor(t, fakes, WithMetrics(rec))

	analysis, err := adv.Analyze(context.Background(), " aapl ")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", analysis.Symbol)
	assert.Equal(t, contracts.RecommendationBuy, analysis.Verdict.Recommendation)
	assert.Equal(t, contracts.RuleStrongConsensus, analysis.Verdict.Rule)
	assert.Same(t, fakes[3].report, analysis.Reports.Risk)
	assert.Empty(t, analysis.Reports.Missing())

	for _, f := range fakes {
		assert.EqualValues(t, 1, f.calls.Load())
	}
}

func TestAnalyze_RunsAnalystsInParallel(t *testing.T) {
	// 4개가 모두 시작해야 통과하는 barrier
	var started sync.WaitGroup
	started.Add(4)
	release := make(chan struct{})
	go func() {
		started.Wait()
		close(release)
	}()

	fakes := bullishAnalysts()
	for _, f := range fakes {
		f.before = func() {
			started.Done()
			select {
			case <-release:
			case <-time.After(2 * time.Second):
			}
		}
	}

	adv := newTestAdvisor(t, fakes)

	begin := time.Now()
	_, err := adv.Analyze(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Less(t, time.Since(begin), 2*time.Second, "analysts must not run sequentially")
}

func TestAnalyze_AnalystFailureAborts(t *testing.T) {
	fakes := bullishAnalysts()
	fakes[2].err = fmt.Errorf("prices for AAPL: %w", contracts.ErrNoData)
	fakes[2].report = nil

	adv := newTestAdvisor(t, fakes)

	analysis, err := adv.Analyze(context.Background(), "AAPL")
	assert.Nil(t, analysis, "no partial verdict")
	assert.ErrorIs(t, err, contracts.ErrNoData)
	assert.ErrorContains(t, err, "Technical analyst")
}

func TestAnalyze_NilReportIsMissingSignal(t *testing.T) {
	fakes := bullishAnalysts()
	fakes[1].report = nil

	_, err := newTestAdvisor(t, fakes).Analyze(context.Background(), "AAPL")

	var se *contracts.SignalError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, contracts.ErrMissingSignal)
	assert.Equal(t, []contracts.AgentName{contracts.AgentSentiment}, se.Agents)
}

func TestAnalyze_Timeout(t *testing.T) {
	fakes := bullishAnalysts()
	fakes[0].block = true

	adv := newTestAdvisor(t, fakes, WithTimeout(50*time.Millisecond))

	_, err := adv.Analyze(context.Background(), "AAPL")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalyze_InvalidReport(t *testing.T) {
	fakes := bullishAnalysts()
	fakes[1].report = &contracts.AnalystReport{Agent: contracts.AgentSentiment, Score: 3}

	_, err := newTestAdvisor(t, fakes).Analyze(context.Background(), "AAPL")
	assert.ErrorIs(t, err, contracts.ErrInvalidSignal)
}

func TestAnalyze_InvalidSymbol(t *testing.T) {
	fakes := bullishAnalysts()
	adv := newTestAdvisor(t, fakes)

	for _, symbol := range []string{"", "   ", "AA PL", "$$$", "VERYLONGSYMBOLNAME"} {
		_, err := adv.Analyze(context.Background(), symbol)
		assert.ErrorIs(t, err, contracts.ErrInvalidSymbol, symbol)
	}
	assert.EqualValues(t, 0, fakes[0].calls.Load())
}

func TestAnalyze_IndependentRuns(t *testing.T) {
	fakes := bullishAnalysts()
	adv := newTestAdvisor(t, fakes)

	first, err := adv.Analyze(context.Background(), "AAPL")
	require.NoError(t, err)

	fakes[0].err = errors.New("upstream down")
	_, err = adv.Analyze(context.Background(), "AAPL")
	require.Error(t, err)

	fakes[0].err = nil
	third, err := adv.Analyze(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, first.Verdict, third.Verdict, "no state carried between analyses")
}

func TestNormalizeSymbol(t *testing.T) {
	got, err := NormalizeSymbol("brk.b")
	require.NoError(t, err)
	assert.Equal(t, "BRK.B", got)

	got, err = NormalizeSymbol("005930")
	require.NoError(t, err)
	assert.Equal(t, "005930", got)
}

type fakeJournal struct {
	mu       sync.Mutex
	err      error
	recorded []*contracts.Analysis
}

func (j *fakeJournal) Record(_ context.Context, a *contracts.Analysis) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recorded = append(j.recorded, a)
	return j.err
}

func TestAnalyze_Journal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "recorded", err: nil},
		{name: "journal failure does not fail analysis", err: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &fakeJournal{err: tt.err}
			adv := newTestAdvisor(t, bullishAnalysts(), WithJournal(j))

			analysis, err := adv.Analyze(context.Background(), "AAPL")
			require.NoError(t, err)
			require.Len(t, j.recorded, 1)
			assert.Same(t, analysis, j.recorded[0])
		})
	}
}

func TestAnalyze_JournalSkippedOnFailure(t *testing.T) {
	fakes := bullishAnalysts()
	fakes[1].err = errors.New("news feed down")
	j := &fakeJournal{}
	adv := newTestAdvisor(t, fakes, WithJournal(j))

	_, err := adv.Analyze(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Empty(t, j.recorded)
}
