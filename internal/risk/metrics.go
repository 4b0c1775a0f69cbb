package risk

import "math"

// Returns 일별 단순 수익률 (closes는 과거→최근 순)
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// AnnualizedVolatility 연율화 변동성 (퍼센트)
// recentWindow: 최근 변동성 계산 구간 (일)
func AnnualizedVolatility(returns []float64, recentWindow int) Volatility {
	scale := math.Sqrt(TradingDaysPerYear) * 100

	annual := StdDev(returns) * scale

	recent := returns
	if recentWindow > 0 && len(returns) > recentWindow {
		recent = returns[len(returns)-recentWindow:]
	}
	recentVol := StdDev(recent) * scale

	return Volatility{
		Annual:     annual,
		Recent:     recentVol,
		Increasing: recentVol > annual,
	}
}

// MaxDrawdown 최대 낙폭 (퍼센트, 고점 대비)
func MaxDrawdown(closes []float64) Drawdown {
	var dd Drawdown
	if len(closes) == 0 {
		return dd
	}

	peak, peakIdx := closes[0], 0
	for i, c := range closes {
		if c > peak {
			peak, peakIdx = c, i
		}
		if peak <= 0 {
			continue
		}
		cur := (c/peak - 1) * 100
		if cur < dd.Max {
			dd.Max = cur
			dd.PeakIdx = peakIdx
			dd.TroughIdx = i
		}
		dd.Current = cur
	}
	return dd
}

// SharpeRatio 연율화 샤프 비율 (riskFree: 연 무위험 수익률, 예 0.02)
func SharpeRatio(returns []float64, riskFree float64) float64 {
	sd := StdDev(returns)
	if sd == 0 {
		return 0
	}
	excess := Mean(returns) - riskFree/TradingDaysPerYear
	return math.Sqrt(TradingDaysPerYear) * excess / sd
}

// RiskReward 평균 이익 / 평균 손실; 손실일이 없으면 (0, false)
func RiskReward(returns []float64) (float64, bool) {
	var gainSum, lossSum float64
	var gains, losses int
	for _, r := range returns {
		switch {
		case r > 0:
			gainSum += r
			gains++
		case r < 0:
			lossSum += -r
			losses++
		}
	}
	if losses == 0 || lossSum == 0 {
		return 0, false
	}

	avgGain := 0.0
	if gains > 0 {
		avgGain = gainSum / float64(gains)
	}
	return avgGain / (lossSum / float64(losses)), true
}

// Calculate 가격 시계열의 전체 리스크 지표
func Calculate(closes []float64, riskFree float64, recentWindow int) Metrics {
	returns := Returns(closes)
	rr, ok := RiskReward(returns)

	return Metrics{
		Volatility: AnnualizedVolatility(returns, recentWindow),
		Drawdown:   MaxDrawdown(closes),
		VaR:        CalculateVaR(returns, 0.95),
		Sharpe:     SharpeRatio(returns, riskFree),
		RiskReward: rr,
		NoLosses:   !ok,
	}
}
