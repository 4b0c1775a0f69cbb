package analysts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/marketdata"
	"github.com/wonny/investiq/pkg/logger"
)

// headlines returns one item per polarity, one hour apart, oldest first
func headlines(polarities ...float64) []contracts.NewsItem {
	items := make([]contracts.NewsItem, len(polarities))
	start := testNow.Add(-time.Duration(len(polarities)) * time.Hour)
	for i, p := range polarities {
		items[i] = contracts.NewsItem{
			Symbol:      "TEST",
			Title:       "headline " + string(rune('A'+i)),
			PublishedAt: start.Add(time.Duration(i) * time.Hour),
			Polarity:    p,
		}
	}
	return items
}

func TestComputeSentimentMetrics(t *testing.T) {
	m := ComputeSentimentMetrics(headlines(0.5, -0.5, 0.0, 0.2))

	assert.Equal(t, 2, m.Positive)
	assert.Equal(t, 1, m.Negative)
	assert.Equal(t, 1, m.Neutral)
	assert.InDelta(t, 0.05, m.Average, 1e-12)
	assert.Equal(t, 50.0, m.PositivePercentage)

	// ±0.1 경계는 neutral
	m = ComputeSentimentMetrics(headlines(0.1, -0.1))
	assert.Equal(t, 2, m.Neutral)
}

func TestDetectSpike(t *testing.T) {
	tests := []struct {
		name      string
		items     []contracts.NewsItem
		spike     bool
		direction string
	}{
		{"single headline", headlines(0.9), false, ""},
		{"two items small move", headlines(0, 0.5), false, ""},
		{"two items large move", headlines(0, 0.8), true, "positive"},
		{"steady", headlines(0.2, 0.2, 0.2, 0.2, 0.2), false, ""},
		{"positive turn", headlines(-0.2, -0.2, 0.4, 0.5, 0.6), true, "positive"},
		{"negative turn", headlines(0.6, 0.5, 0.5, -0.1, -0.2, -0.3), true, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spike, ok := DetectSpike(tt.items)
			require.Equal(t, tt.spike, ok)
			if ok {
				assert.Equal(t, tt.direction, spike.Direction)
				assert.Equal(t, tt.items[len(tt.items)-1].Title, spike.Title)
				assert.Greater(t, spike.Magnitude, 0.3)
			}
		})
	}
}

func TestDetectSpike_UnsortedInput(t *testing.T) {
	items := headlines(-0.2, -0.2, 0.4, 0.5, 0.6)
	reversed := make([]contracts.NewsItem, len(items))
	for i, it := range items {
		reversed[len(items)-1-i] = it
	}

	spike, ok := DetectSpike(reversed)
	require.True(t, ok)
	assert.Equal(t, "headline E", spike.Title)
	assert.InDelta(t, 0.7, spike.Magnitude, 1e-9)
}

func TestSentimentReport(t *testing.T) {
	r, err := SentimentReport(headlines(-0.2, -0.2, 0.4, 0.5, 0.6))
	require.NoError(t, err)

	assert.Equal(t, contracts.AgentSentiment, r.Agent)
	assert.InDelta(t, 0.22, r.Score, 1e-9)
	assert.Equal(t, "Slightly Bullish", r.Bias)
	assert.Equal(t, []string{
		"60% positive mentions",
		"Sudden positive spike after: headline E",
	}, r.Insights)
	assert.Equal(t, 5.0, r.Metrics["articles"])
}

func TestSentimentReport_NoNews(t *testing.T) {
	r, err := SentimentReport(nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.Score)
	assert.Equal(t, "Neutral", r.Bias)
	assert.Equal(t, []string{"No recent news available"}, r.Insights)
}

func TestSentimentReport_InvalidPolarity(t *testing.T) {
	_, err := SentimentReport(headlines(0.2, 1.5))
	assert.ErrorIs(t, err, contracts.ErrInvalidSignal)
}

func TestSentimentBias(t *testing.T) {
	assert.Equal(t, "Bullish", SentimentBias(0.31))
	assert.Equal(t, "Slightly Bullish", SentimentBias(0.3))
	assert.Equal(t, "Neutral", SentimentBias(0.1))
	assert.Equal(t, "Slightly Bearish", SentimentBias(-0.1))
	assert.Equal(t, "Bearish", SentimentBias(-0.3))
}

func TestSentimentAnalyst_Analyze(t *testing.T) {
	repo := marketdata.NewStaticRepository()
	items := headlines(0.5, 0.5, 0.5)
	items = append(items, contracts.NewsItem{
		Symbol:      "TEST",
		Title:       "stale",
		PublishedAt: testNow.AddDate(0, 0, -30),
		Polarity:    -1,
	})
	repo.PutNews("TEST", items)

	a := NewSentimentAnalyst(repo, testOptions(), logger.NewNop())
	assert.Equal(t, contracts.AgentSentiment, a.Agent())

	r, err := a.Analyze(context.Background(), "TEST")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r.Score, 1e-12, "headlines older than the lookback are ignored")

	r, err = a.Analyze(context.Background(), "NONE")
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Score)
}
