package analysts

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/pkg/logger"
)

const (
	polarityThreshold = 0.1 // ±0.1 초과 → positive/negative
	spikeThreshold    = 0.3 // 최근 평균 vs 이전 평균 변화폭
	spikeWindow       = 5
	spikeRecent       = 3
)

// SentimentAnalyst averages the polarity of recent headlines
type SentimentAnalyst struct {
	repo   contracts.MarketDataRepository
	opts   Options
	logger *logger.Logger
}

// NewSentimentAnalyst creates a new sentiment analyst
func NewSentimentAnalyst(repo contracts.MarketDataRepository, opts Options, log *logger.Logger) *SentimentAnalyst {
	return &SentimentAnalyst{
		repo:   repo,
		opts:   opts,
		logger: log.WithField("agent", contracts.AgentSentiment),
	}
}

// Agent implements contracts.Analyst
func (a *SentimentAnalyst) Agent() contracts.AgentName { return contracts.AgentSentiment }

// Analyze implements contracts.Analyst; no recent news is a neutral report, not an error
func (a *SentimentAnalyst) Analyze(ctx context.Context, symbol string) (*contracts.AnalystReport, error) {
	since := a.opts.now().Add(-a.opts.NewsLookback)

	items, err := a.repo.GetNews(ctx, symbol, since, a.opts.NewsLimit)
	if err != nil {
		return nil, fmt.Errorf("sentiment analysis of %s: %w", symbol, err)
	}

	report, err := SentimentReport(items)
	if err != nil {
		return nil, fmt.Errorf("sentiment analysis of %s: %w", symbol, err)
	}

	a.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"articles": len(items),
		"polarity": report.Score,
	}).Debug("Sentiment analysis done")

	return report, nil
}

// SentimentMetrics summarises the polarity of a set of headlines
type SentimentMetrics struct {
	Average            float64
	Positive           int
	Negative           int
	Neutral            int
	PositivePercentage float64
}

// ComputeSentimentMetrics counts positive/negative/neutral headlines and averages polarity
func ComputeSentimentMetrics(items []contracts.NewsItem) SentimentMetrics {
	var m SentimentMetrics
	if len(items) == 0 {
		return m
	}

	var sum float64
	for _, n := range items {
		sum += n.Polarity
		switch {
		case n.Polarity > polarityThreshold:
			m.Positive++
		case n.Polarity < -polarityThreshold:
			m.Negative++
		default:
			m.Neutral++
		}
	}

	m.Average = sum / float64(len(items))
	m.PositivePercentage = round2(float64(m.Positive) / float64(len(items)) * 100)
	return m
}

// Spike is a sudden shift of headline polarity
type Spike struct {
	Direction string  // positive | negative
	Magnitude float64 // 평균 극성 변화량
	Title     string  // 가장 최근 헤드라인
}

// DetectSpike compares the mean of the 3 latest headlines with the earlier ones among the last 5
func DetectSpike(items []contracts.NewsItem) (Spike, bool) {
	if len(items) < 2 {
		return Spike{}, false
	}

	sorted := append([]contracts.NewsItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PublishedAt.Before(sorted[j].PublishedAt) })

	window := sorted
	if len(window) > spikeWindow {
		window = window[len(window)-spikeWindow:]
	}

	recentStart := max(0, len(window)-spikeRecent)
	recent := meanPolarity(window[recentStart:])

	previous := window[0].Polarity
	if len(window) > spikeRecent {
		previous = meanPolarity(window[:recentStart])
	}

	change := recent - previous
	if math.Abs(change) <= spikeThreshold {
		return Spike{}, false
	}

	direction := "positive"
	if change < 0 {
		direction = "negative"
	}
	return Spike{
		Direction: direction,
		Magnitude: math.Abs(change),
		Title:     sorted[len(sorted)-1].Title,
	}, true
}

func meanPolarity(items []contracts.NewsItem) float64 {
	var sum float64
	for _, n := range items {
		sum += n.Polarity
	}
	return sum / float64(len(items))
}

// SentimentReport builds the report; Score is the average polarity in [-1, 1]
func SentimentReport(items []contracts.NewsItem) (*contracts.AnalystReport, error) {
	if len(items) == 0 {
		return &contracts.AnalystReport{
			Agent:    contracts.AgentSentiment,
			Score:    0,
			Bias:     string(contracts.BiasNeutral),
			Insights: []string{"No recent news available"},
			Metrics:  map[string]float64{"articles": 0},
		}, nil
	}

	for _, n := range items {
		if math.IsNaN(n.Polarity) || n.Polarity < -1 || n.Polarity > 1 {
			return nil, contracts.NewSignalError(contracts.ErrInvalidSignal, contracts.AgentSentiment,
				fmt.Sprintf("headline polarity %v outside [-1, 1]", n.Polarity))
		}
	}

	m := ComputeSentimentMetrics(items)

	insights := []string{fmt.Sprintf("%g%% positive mentions", m.PositivePercentage)}
	metrics := map[string]float64{
		"articles":            float64(len(items)),
		"positive_count":      float64(m.Positive),
		"negative_count":      float64(m.Negative),
		"neutral_count":       float64(m.Neutral),
		"positive_percentage": m.PositivePercentage,
	}

	if spike, ok := DetectSpike(items); ok {
		insights = append(insights, fmt.Sprintf("Sudden %s spike after: %s", spike.Direction, spike.Title))
		metrics["spike_magnitude"] = spike.Magnitude
	}

	return &contracts.AnalystReport{
		Agent:    contracts.AgentSentiment,
		Score:    m.Average,
		Bias:     SentimentBias(m.Average),
		Insights: insights,
		Metrics:  metrics,
	}, nil
}

// SentimentBias maps the average polarity onto the analyst's own label
func SentimentBias(polarity float64) string {
	switch {
	case polarity > 0.3:
		return string(contracts.BiasBullish)
	case polarity > 0.1:
		return string(contracts.BiasSlightlyBullish)
	case polarity > -0.1:
		return string(contracts.BiasNeutral)
	case polarity > -0.3:
		return string(contracts.BiasSlightlyBearish)
	default:
		return string(contracts.BiasBearish)
	}
}
