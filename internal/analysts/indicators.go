package analysts

import (
	"math"

	"github.com/wonny/investiq/internal/contracts"
)

// === Moving averages ===

// SMA returns the simple mean of the last window values; false when the series is too short
func SMA(values []float64, window int) (float64, bool) {
	if window <= 0 || len(values) < window {
		return 0, false
	}
	var sum float64
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window), true
}

// EMA returns the exponential moving average series, seeded with the first value
// α = 2/(span+1), 재귀식 (adjust 없음)
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 || span <= 0 {
		return nil
	}
	alpha := 2 / (float64(span) + 1)

	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// === Oscillators ===

// RSI returns the relative strength index of the last period changes using simple means
// 변화 없음 → 50, 손실 없음 → 100
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	switch {
	case gains == 0 && losses == 0:
		return 50, true
	case losses == 0:
		return 100, true
	}

	rs := gains / losses
	return 100 - 100/(1+rs), true
}

// MACD is the latest value of the MACD line, its signal line and the histogram
type MACD struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// ComputeMACD returns MACD(fast, slow, signal) at the last bar
func ComputeMACD(closes []float64, fast, slow, signal int) (MACD, bool) {
	if len(closes) < slow {
		return MACD{}, false
	}

	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := EMA(line, signal)

	last := len(closes) - 1
	return MACD{
		Line:      line[last],
		Signal:    signalLine[last],
		Histogram: line[last] - signalLine[last],
	}, true
}

// === Support / resistance ===

// Levels is the trading range of the last window bars
type Levels struct {
	Support              float64 `json:"support"`
	Resistance           float64 `json:"resistance"`
	Price                float64 `json:"price"`
	DistanceToSupport    float64 `json:"distance_to_support"`    // %
	DistanceToResistance float64 `json:"distance_to_resistance"` // %
}

// Position returns where the price sits in the range (0 = support, 1 = resistance); a flat range is 0.5
func (l Levels) Position() float64 {
	width := l.Resistance - l.Support
	if width <= 0 {
		return 0.5
	}
	return (l.Price - l.Support) / width
}

// SupportResistance returns the lowest low and highest high of the last window bars
func SupportResistance(prices []contracts.Price, window int) (Levels, bool) {
	if window <= 0 || len(prices) < window {
		return Levels{}, false
	}

	recent := prices[len(prices)-window:]
	support, resistance := math.Inf(1), math.Inf(-1)
	for _, p := range recent {
		support = math.Min(support, p.Low)
		resistance = math.Max(resistance, p.High)
	}

	l := Levels{
		Support:    support,
		Resistance: resistance,
		Price:      prices[len(prices)-1].Close,
	}
	if support > 0 {
		l.DistanceToSupport = (l.Price - support) / support * 100
	}
	if l.Price > 0 {
		l.DistanceToResistance = (resistance - l.Price) / l.Price * 100
	}
	return l, true
}

func closesOf(prices []contracts.Price) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Close
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
