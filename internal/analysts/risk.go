package analysts

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/internal/risk"
	"github.com/wonny/investiq/pkg/logger"
)

const (
	minRiskBars        = 20
	recentVolWindow    = 30
	accountSize        = 10000.0
	riskPerTrade       = 0.02
	maxPositionShare   = 0.25
	stopLossPercentage = 5.0
)

// RiskAnalyst assesses downside and exposure from the price history
type RiskAnalyst struct {
	repo   contracts.MarketDataRepository
	opts   Options
	logger *logger.Logger
}

// NewRiskAnalyst creates a new risk analyst
func NewRiskAnalyst(repo contracts.MarketDataRepository, opts Options, log *logger.Logger) *RiskAnalyst {
	return &RiskAnalyst{
		repo:   repo,
		opts:   opts,
		logger: log.WithField("agent", contracts.AgentRisk),
	}
}

// Agent implements contracts.Analyst
func (a *RiskAnalyst) Agent() contracts.AgentName { return contracts.AgentRisk }

// Analyze implements contracts.Analyst
func (a *RiskAnalyst) Analyze(ctx context.Context, symbol string) (*contracts.AnalystReport, error) {
	from, to := a.opts.priceWindow()

	prices, err := a.repo.GetPrices(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("risk analysis of %s: %w", symbol, err)
	}
	if len(prices) < minRiskBars {
		return nil, fmt.Errorf("risk analysis of %s: need %d bars, got %d: %w", symbol, minRiskBars, len(prices), contracts.ErrNoData)
	}

	closes := closesOf(prices)
	m := risk.Calculate(closes, a.opts.RiskFreeRate, recentVolWindow)
	report := RiskReport(m, closes[len(closes)-1])

	a.logger.WithFields(map[string]interface{}{
		"symbol":       symbol,
		"volatility":   m.Volatility.Annual,
		"max_drawdown": m.Drawdown.Max,
		"sharpe":       m.Sharpe,
		"risk_level":   report.RiskLevel,
	}).Debug("Risk analysis done")

	return report, nil
}

// RiskPoints adds volatility (10~40), drawdown (10~40) and Sharpe (5~20) points
// volatility, drawdown: 퍼센트
func RiskPoints(volatility, drawdown, sharpe float64) int {
	points := 0

	switch {
	case volatility > 40:
		points += 40
	case volatility > 30:
		points += 30
	case volatility > 20:
		points += 20
	default:
		points += 10
	}

	dd := math.Abs(drawdown)
	switch {
	case dd > 30:
		points += 40
	case dd > 20:
		points += 30
	case dd > 10:
		points += 20
	default:
		points += 10
	}

	switch {
	case sharpe < 0:
		points += 20
	case sharpe < 0.5:
		points += 15
	case sharpe < 1:
		points += 10
	default:
		points += 5
	}

	return points
}

// RiskLevelFor classifies risk points (>=70 Very High, >=55 High, >=40 Medium, >=25 Low)
func RiskLevelFor(points int) contracts.RiskLevel {
	switch {
	case points >= 70:
		return contracts.RiskVeryHigh
	case points >= 55:
		return contracts.RiskHigh
	case points >= 40:
		return contracts.RiskMedium
	case points >= 25:
		return contracts.RiskLow
	default:
		return contracts.RiskVeryLow
	}
}

// RiskRecommendations returns the exposure advice for a risk profile
func RiskRecommendations(level contracts.RiskLevel, volatility, drawdown float64) []string {
	var recs []string

	if level == contracts.RiskHigh || level == contracts.RiskVeryHigh {
		recs = append(recs, "Reduce exposure", "Consider tighter stop-loss", "Monitor closely for exit signals")
	}
	if volatility > 30 {
		recs = append(recs, "High volatility detected - consider smaller position size")
	}
	if math.Abs(drawdown) > 20 {
		recs = append(recs, "Significant drawdown - review position")
	}
	if len(recs) == 0 {
		recs = append(recs, "Risk levels acceptable")
	}
	return recs
}

// PositionSize risks 2% of a 10,000 account against a stop of volatility/2 percent, capped at 25%
func PositionSize(volatility float64) float64 {
	stopPct := volatility / 2
	if stopPct <= 0 {
		return 0
	}
	size := accountSize * riskPerTrade / (stopPct / 100)
	return math.Min(size, accountSize*maxPositionShare)
}

// StopLoss is 5% below the last close
func StopLoss(lastClose float64) float64 {
	return lastClose * (1 - stopLossPercentage/100)
}

// RiskReport builds the report; Score carries the risk points
func RiskReport(m risk.Metrics, lastClose float64) *contracts.AnalystReport {
	points := RiskPoints(m.Volatility.Annual, m.Drawdown.Max, m.Sharpe)
	level := RiskLevelFor(points)

	insights := []string{
		fmt.Sprintf("Volatility: %.2f%%", m.Volatility.Annual),
		fmt.Sprintf("Max drawdown: %.2f%%", m.Drawdown.Max),
	}
	insights = append(insights, RiskRecommendations(level, m.Volatility.Annual, m.Drawdown.Max)...)

	metrics := map[string]float64{
		"volatility":        m.Volatility.Annual,
		"recent_volatility": m.Volatility.Recent,
		"max_drawdown":      m.Drawdown.Max,
		"current_drawdown":  m.Drawdown.Current,
		"var_95":            m.VaR.VaR,
		"cvar_95":           m.VaR.CVaR,
		"sharpe_ratio":      m.Sharpe,
		"risk_points":       float64(points),
		"position_size":     round2(PositionSize(m.Volatility.Annual)),
		"stop_loss":         round2(StopLoss(lastClose)),
	}
	// 손실일이 없으면 risk/reward 무한대 → JSON에 싣지 않음
	if m.NoLosses {
		insights = append(insights, "No losing days in the window")
	} else {
		metrics["risk_reward"] = m.RiskReward
	}

	return &contracts.AnalystReport{
		Agent:     contracts.AgentRisk,
		Score:     float64(points),
		RiskLevel: level,
		Insights:  insights,
		Metrics:   metrics,
	}
}
