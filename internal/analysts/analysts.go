package analysts

import (
	"time"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/pkg/config"
	"github.com/wonny/investiq/pkg/logger"
)

// Options tunes the data windows shared by the analysts
type Options struct {
	PriceLookback time.Duration
	NewsLookback  time.Duration
	NewsLimit     int
	RiskFreeRate  float64 // 연 무위험 수익률 (0.02 = 2%)
	Now           func() time.Time
}

// DefaultOptions returns one year of prices, one week of news (max 20) and a 2% risk-free rate
func DefaultOptions() Options {
	return Options{
		PriceLookback: 365 * 24 * time.Hour,
		NewsLookback:  7 * 24 * time.Hour,
		NewsLimit:     20,
		RiskFreeRate:  0.02,
		Now:           time.Now,
	}
}

// OptionsFromConfig maps the analysis config onto analyst options
func OptionsFromConfig(cfg config.AnalysisConfig) Options {
	opts := DefaultOptions()
	if cfg.PriceLookback > 0 {
		opts.PriceLookback = cfg.PriceLookback
	}
	if cfg.NewsLookback > 0 {
		opts.NewsLookback = cfg.NewsLookback
	}
	if cfg.NewsLimit > 0 {
		opts.NewsLimit = cfg.NewsLimit
	}
	return opts
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// priceWindow returns [now-lookback, now]
func (o Options) priceWindow() (time.Time, time.Time) {
	to := o.now()
	return to.Add(-o.PriceLookback), to
}

// NewAll creates the four analysts in canonical agent order
// ⭐ SSOT: 분석가 구성은 여기서만
func NewAll(repo contracts.MarketDataRepository, opts Options, log *logger.Logger) [4]contracts.Analyst {
	if log == nil {
		log = logger.NewNop()
	}
	return [4]contracts.Analyst{
		NewFundamentalAnalyst(repo, log),
		NewSentimentAnalyst(repo, opts, log),
		NewTechnicalAnalyst(repo, opts, log),
		NewRiskAnalyst(repo, opts, log),
	}
}
