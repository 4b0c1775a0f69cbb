package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// MarketDataRepository provides the raw inputs of the analysts
type MarketDataRepository interface {
	GetPrices(ctx context.Context, symbol string, from, to time.Time) ([]Price, error)
	GetFundamentals(ctx context.Context, symbol string) (*Fundamentals, error)
	GetNews(ctx context.Context, symbol string, since time.Time, limit int) ([]NewsItem, error)
}

// Price represents one daily bar, oldest first when returned as a series
type Price struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Fundamentals represents the latest financial metrics of a company
type Fundamentals struct {
	Symbol        string    `json:"symbol"`
	RevenueGrowth float64   `json:"revenue_growth"` // %
	ProfitMargin  float64   `json:"profit_margin"`  // %
	PERatio       float64   `json:"pe_ratio"`
	DebtToEquity  float64   `json:"debt_to_equity"`
	ROE           float64   `json:"roe"` // %
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewsItem is one headline with its polarity scored upstream (-1 ~ +1)
type NewsItem struct {
	Symbol      string    `json:"symbol"`
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	PublishedAt time.Time `json:"published_at"`
	Polarity    float64   `json:"polarity"`
}
