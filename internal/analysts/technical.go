package analysts

import (
	"context"
	"fmt"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/pkg/logger"
)

const (
	maShort       = 20
	maLong        = 50
	rsiPeriod     = 14
	macdFast      = 12
	macdSlow      = 26
	macdSignal    = 9
	rangeWindow   = 20
	breakoutBand  = 0.02 // 지지/저항 2% 이내
	minTechnicals = maLong
)

// Trend is the moving-average trend classification
type Trend string

const (
	TrendStrongUp   Trend = "Strong Uptrend"
	TrendWeakUp     Trend = "Weak Uptrend"
	TrendStrongDown Trend = "Strong Downtrend"
	TrendWeakDown   Trend = "Weak Downtrend"
	TrendSideways   Trend = "Sideways"
)

// Breakout is the kind of range break near the 20-day levels
type Breakout string

const (
	BreakoutNone       Breakout = ""
	BreakoutResistance Breakout = "resistance_breakout"
	BreakoutSupport    Breakout = "support_breakdown"
)

// TechnicalIndicators is the indicator set at the last bar
type TechnicalIndicators struct {
	Price    float64
	MA20     float64
	MA50     float64
	RSI      float64
	MACD     MACD
	Levels   Levels
	Trend    Trend
	Breakout Breakout
}

// TechnicalAnalyst interprets price trend and momentum indicators
type TechnicalAnalyst struct {
	repo   contracts.MarketDataRepository
	opts   Options
	logger *logger.Logger
}

// NewTechnicalAnalyst creates a new technical analyst
func NewTechnicalAnalyst(repo contracts.MarketDataRepository, opts Options, log *logger.Logger) *TechnicalAnalyst {
	return &TechnicalAnalyst{
		repo:   repo,
		opts:   opts,
		logger: log.WithField("agent", contracts.AgentTechnical),
	}
}

// Agent implements contracts.Analyst
func (a *TechnicalAnalyst) Agent() contracts.AgentName { return contracts.AgentTechnical }

// Analyze implements contracts.Analyst
func (a *TechnicalAnalyst) Analyze(ctx context.Context, symbol string) (*contracts.AnalystReport, error) {
	from, to := a.opts.priceWindow()

	prices, err := a.repo.GetPrices(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("technical analysis of %s: %w", symbol, err)
	}

	ind, err := ComputeIndicators(prices)
	if err != nil {
		return nil, fmt.Errorf("technical analysis of %s: %w", symbol, err)
	}

	report := TechnicalReport(ind)

	a.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(prices),
		"rsi":    ind.RSI,
		"trend":  ind.Trend,
		"score":  report.Score,
	}).Debug("Technical analysis done")

	return report, nil
}

// ComputeIndicators needs at least 50 bars (MA50), oldest first
func ComputeIndicators(prices []contracts.Price) (TechnicalIndicators, error) {
	if len(prices) < minTechnicals {
		return TechnicalIndicators{}, fmt.Errorf("need %d bars, got %d: %w", minTechnicals, len(prices), contracts.ErrNoData)
	}

	closes := closesOf(prices)
	ind := TechnicalIndicators{Price: closes[len(closes)-1]}

	ind.MA20, _ = SMA(closes, maShort)
	ind.MA50, _ = SMA(closes, maLong)
	ind.RSI, _ = RSI(closes, rsiPeriod)
	ind.MACD, _ = ComputeMACD(closes, macdFast, macdSlow, macdSignal)
	ind.Levels, _ = SupportResistance(prices, rangeWindow)
	ind.Trend = ClassifyTrend(ind.Price, ind.MA20, ind.MA50)
	ind.Breakout = DetectBreakout(ind.Levels)

	return ind, nil
}

// ClassifyTrend compares price with MA20 and MA50
func ClassifyTrend(price, ma20, ma50 float64) Trend {
	switch {
	case price > ma20 && ma20 > ma50:
		return TrendStrongUp
	case price > ma20 && ma20 < ma50:
		return TrendWeakUp
	case price < ma20 && ma20 < ma50:
		return TrendStrongDown
	case price < ma20 && ma20 > ma50:
		return TrendWeakDown
	default:
		return TrendSideways
	}
}

// DetectBreakout flags a price within 2% of resistance (checked first) or support
func DetectBreakout(l Levels) Breakout {
	switch {
	case l.Price >= l.Resistance*(1-breakoutBand):
		return BreakoutResistance
	case l.Price <= l.Support*(1+breakoutBand):
		return BreakoutSupport
	default:
		return BreakoutNone
	}
}

// TechnicalScore starts at 50 and adds RSI, trend, MACD and range-position contributions, clamped to 0~100
func TechnicalScore(ind TechnicalIndicators) float64 {
	score := 50.0

	// RSI: 과매수/과매도 구간은 감점/가점
	switch {
	case ind.RSI >= 30 && ind.RSI <= 70:
		score += (ind.RSI - 50) * 0.3
	case ind.RSI > 70:
		score -= (ind.RSI - 70) * 0.5
	default:
		score += (30 - ind.RSI) * 0.5
	}

	switch ind.Trend {
	case TrendStrongUp:
		score += 20
	case TrendWeakUp:
		score += 10
	case TrendStrongDown:
		score -= 20
	case TrendWeakDown:
		score -= 10
	}

	// MACD 히스토그램 ±10 상한
	score += clamp(ind.MACD.Histogram*100, -10, 10)

	score += (ind.Levels.Position() - 0.5) * 20

	return clamp(round2(score), 0, 100)
}

// TechnicalBias maps the score onto the analyst's own label
func TechnicalBias(score, rsi float64) string {
	switch {
	case score >= 70:
		return string(contracts.BiasBullish)
	case score >= 55:
		if rsi > 65 {
			return "Bullish but cautious"
		}
		return string(contracts.BiasSlightlyBullish)
	case score >= 45:
		return string(contracts.BiasNeutral)
	case score >= 30:
		return string(contracts.BiasSlightlyBearish)
	default:
		return string(contracts.BiasBearish)
	}
}

// RSIZone labels the RSI as Overbought (>70), Oversold (<30) or Neutral
func RSIZone(rsi float64) string {
	switch {
	case rsi > 70:
		return "Overbought"
	case rsi < 30:
		return "Oversold"
	default:
		return "Neutral"
	}
}

// TechnicalReport builds the report from the indicator set
func TechnicalReport(ind TechnicalIndicators) *contracts.AnalystReport {
	score := TechnicalScore(ind)

	var insights []string
	if ind.Price > ind.MA50 {
		insights = append(insights, "Price above 50-day MA")
	} else {
		insights = append(insights, "Price below 50-day MA")
	}
	insights = append(insights, fmt.Sprintf("RSI = %.1f (%s)", ind.RSI, RSIZone(ind.RSI)))
	insights = append(insights, fmt.Sprintf("Trend: %s", ind.Trend))
	if ind.Breakout != BreakoutNone {
		insights = append(insights, fmt.Sprintf("Potential %s detected", ind.Breakout))
	}

	return &contracts.AnalystReport{
		Agent:    contracts.AgentTechnical,
		Score:    score,
		Bias:     TechnicalBias(score, ind.RSI),
		Insights: insights,
		Metrics: map[string]float64{
			"price":          ind.Price,
			"ma20":           ind.MA20,
			"ma50":           ind.MA50,
			"rsi":            ind.RSI,
			"macd":           ind.MACD.Line,
			"macd_signal":    ind.MACD.Signal,
			"macd_histogram": ind.MACD.Histogram,
			"support":        ind.Levels.Support,
			"resistance":     ind.Levels.Resistance,
			"range_position": ind.Levels.Position(),
		},
	}
}
