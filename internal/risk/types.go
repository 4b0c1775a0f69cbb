package risk

// TradingDaysPerYear annualises daily statistics
const TradingDaysPerYear = 252

// VaRResult VaR 계산 결과 (퍼센트, 손실 양수)
// ⭐ SSOT: Loss를 양수로 표현 (VaR=5.0 → 5% 손실 가능)
type VaRResult struct {
	Confidence float64 `json:"confidence"` // 신뢰수준 (예: 0.95)
	VaR        float64 `json:"var"`        // Value at Risk (손실, 양수)
	CVaR       float64 `json:"cvar"`       // Conditional VaR (Expected Shortfall, 양수)
}

// Volatility 변동성 (연율화, 퍼센트)
type Volatility struct {
	Annual     float64 `json:"annual"`
	Recent     float64 `json:"recent"`
	Increasing bool    `json:"increasing"` // recent > annual
}

// Drawdown 낙폭 (퍼센트, 음수 또는 0)
type Drawdown struct {
	Max       float64 `json:"max"`
	Current   float64 `json:"current"`
	PeakIdx   int     `json:"peak_idx"`
	TroughIdx int     `json:"trough_idx"`
}

// Metrics 가격 시계열 하나의 리스크 지표 묶음
type Metrics struct {
	Volatility Volatility `json:"volatility"`
	Drawdown   Drawdown   `json:"drawdown"`
	VaR        VaRResult  `json:"var"`
	Sharpe     float64    `json:"sharpe"`
	RiskReward float64    `json:"risk_reward"`
	NoLosses   bool       `json:"no_losses"` // 손실일 없음 → RiskReward 무한대 (0으로 표기)
}
