package risk

import (
	"math"
	"sort"
)

// =============================================================================
// VaR (Value at Risk) Calculation
// =============================================================================

// CalculateVaR 과거 수익률 기반 VaR 계산 (Historical Simulation)
// returns: 일별 수익률 (0.01 = 1%)
// confidence: 신뢰수준 (예: 0.95)
// 반환값은 퍼센트, 손실을 양수로 표현 (예: 3.2 = 3.2% 손실 가능)
func CalculateVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	// 수익률 정렬 (오름차순: 손실이 앞에)
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	// 95% VaR = 하위 5% 백분위수 (선형 보간)
	cutoff := Percentile(sorted, (1-confidence)*100)

	// CVaR (Expected Shortfall): cutoff 이하 수익률의 평균
	var sum float64
	var n int
	for _, r := range sorted {
		if r > cutoff {
			break
		}
		sum += r
		n++
	}
	tail := cutoff
	if n > 0 {
		tail = sum / float64(n)
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        lossPct(cutoff),
		CVaR:       lossPct(tail),
	}
}

// lossPct 손실을 양수 퍼센트로 (이익이면 0)
func lossPct(r float64) float64 {
	if r >= 0 {
		return 0
	}
	return -r * 100
}

// =============================================================================
// 통계 유틸리티
// =============================================================================

// Mean 평균 계산
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev 표본 표준편차 계산 (n-1)
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// Percentile 백분위수 계산 (sorted 오름차순, p는 0~100)
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
