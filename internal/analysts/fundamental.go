package analysts

import (
	"context"
	"fmt"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/pkg/logger"
)

// Fundamental metric weights (합계 1.0)
const (
	weightRevenueGrowth = 0.25
	weightProfitMargin  = 0.25
	weightPERatio       = 0.20
	weightDebtToEquity  = 0.15
	weightROE           = 0.15
)

// FundamentalAnalyst scores the financial health of a company
type FundamentalAnalyst struct {
	repo   contracts.MarketDataRepository
	logger *logger.Logger
}

// NewFundamentalAnalyst creates a new fundamental analyst
func NewFundamentalAnalyst(repo contracts.MarketDataRepository, log *logger.Logger) *FundamentalAnalyst {
	return &FundamentalAnalyst{
		repo:   repo,
		logger: log.WithField("agent", contracts.AgentFundamental),
	}
}

// Agent implements contracts.Analyst
func (a *FundamentalAnalyst) Agent() contracts.AgentName { return contracts.AgentFundamental }

// Analyze implements contracts.Analyst
func (a *FundamentalAnalyst) Analyze(ctx context.Context, symbol string) (*contracts.AnalystReport, error) {
	f, err := a.repo.GetFundamentals(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fundamental analysis of %s: %w", symbol, err)
	}

	report := FundamentalReport(f)

	a.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"score":  report.Score,
		"bias":   report.Bias,
	}).Debug("Fundamental analysis done")

	return report, nil
}

// FundamentalReport scores a fundamentals snapshot
func FundamentalReport(f *contracts.Fundamentals) *contracts.AnalystReport {
	components := map[string]float64{
		"revenue_growth_score": RevenueGrowthScore(f.RevenueGrowth),
		"profit_margin_score":  ProfitMarginScore(f.ProfitMargin),
		"pe_ratio_score":       PERatioScore(f.PERatio),
		"debt_to_equity_score": DebtToEquityScore(f.DebtToEquity),
		"roe_score":            ROEScore(f.ROE),
	}

	score := round2(components["revenue_growth_score"]*weightRevenueGrowth +
		components["profit_margin_score"]*weightProfitMargin +
		components["pe_ratio_score"]*weightPERatio +
		components["debt_to_equity_score"]*weightDebtToEquity +
		components["roe_score"]*weightROE)

	metrics := map[string]float64{
		"revenue_growth": f.RevenueGrowth,
		"profit_margin":  f.ProfitMargin,
		"pe_ratio":       f.PERatio,
		"debt_to_equity": f.DebtToEquity,
		"roe":            f.ROE,
	}
	for k, v := range components {
		metrics[k] = v
	}

	return &contracts.AnalystReport{
		Agent:    contracts.AgentFundamental,
		Score:    score,
		Bias:     FundamentalBias(score),
		Insights: fundamentalInsights(f),
		Metrics:  metrics,
	}
}

// === Metric scores (0~100) ===

// RevenueGrowthScore: >20% 만점, 10~20% 70+, 0% 기준 50
func RevenueGrowthScore(v float64) float64 {
	switch {
	case v > 20:
		return 100
	case v > 10:
		return 70 + (v-10)*3
	case v > 0:
		return 50 + v*2
	default:
		return max(0, 50+v*2)
	}
}

// ProfitMarginScore: >20% 만점, 5% 이하는 v*10
func ProfitMarginScore(v float64) float64 {
	switch {
	case v > 20:
		return 100
	case v > 10:
		return 70 + (v-10)*3
	case v > 5:
		return 50 + (v-5)*4
	default:
		return max(0, v*10)
	}
}

// PERatioScore peaks in the 15~25 band and falls off on both sides
func PERatioScore(v float64) float64 {
	switch {
	case v >= 15 && v <= 25:
		return 100
	case (v >= 10 && v < 15) || (v > 25 && v <= 30):
		return 80
	case (v >= 5 && v < 10) || (v > 30 && v <= 40):
		return 60
	case v < 5 || (v > 40 && v <= 60):
		return 40
	default:
		return 20
	}
}

// DebtToEquityScore: lower is better
func DebtToEquityScore(v float64) float64 {
	switch {
	case v < 0.3:
		return 100
	case v < 0.5:
		return 85
	case v < 1.0:
		return 70
	case v < 2.0:
		return 50
	default:
		return max(0, 100-v*20)
	}
}

// ROEScore: >20% 만점, 10% 이하는 v*6
func ROEScore(v float64) float64 {
	switch {
	case v > 20:
		return 100
	case v > 15:
		return 80 + (v-15)*4
	case v > 10:
		return 60 + (v-10)*4
	default:
		return max(0, v*6)
	}
}

// FundamentalBias maps the score onto the analyst's own label
func FundamentalBias(score float64) string {
	switch {
	case score >= 75:
		return string(contracts.BiasBullish)
	case score >= 60:
		return string(contracts.BiasSlightlyBullish)
	case score >= 45:
		return string(contracts.BiasNeutral)
	case score >= 30:
		return string(contracts.BiasSlightlyBearish)
	default:
		return string(contracts.BiasBearish)
	}
}

func fundamentalInsights(f *contracts.Fundamentals) []string {
	var insights []string

	switch {
	case f.RevenueGrowth > 15:
		insights = append(insights, "Strong revenue growth")
	case f.RevenueGrowth > 5:
		insights = append(insights, "Moderate revenue growth")
	case f.RevenueGrowth < 0:
		insights = append(insights, "Declining revenue")
	}

	switch {
	case f.DebtToEquity < 0.5:
		insights = append(insights, "Low debt")
	case f.DebtToEquity < 1.0:
		insights = append(insights, "Moderate debt")
	default:
		insights = append(insights, "High debt")
	}

	switch {
	case f.PERatio > 30:
		insights = append(insights, "Overvalued P/E")
	case f.PERatio < 15:
		insights = append(insights, "Undervalued P/E")
	default:
		insights = append(insights, "Fair P/E valuation")
	}

	return insights
}
