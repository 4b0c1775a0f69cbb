package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wonny/investiq/internal/contracts"
)

// StaticRepository is an in-memory MarketDataRepository
// 테스트 및 DATA_SOURCE=static 용
type StaticRepository struct {
	mu           sync.RWMutex
	prices       map[string][]contracts.Price
	fundamentals map[string]contracts.Fundamentals
	news         map[string][]contracts.NewsItem
}

// NewStaticRepository creates an empty static repository
func NewStaticRepository() *StaticRepository {
	return &StaticRepository{
		prices:       make(map[string][]contracts.Price),
		fundamentals: make(map[string]contracts.Fundamentals),
		news:         make(map[string][]contracts.NewsItem),
	}
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// PutPrices replaces the price series of a symbol
func (r *StaticRepository) PutPrices(symbol string, prices []contracts.Price) {
	series := append([]contracts.Price(nil), prices...)
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices[normalize(symbol)] = series
}

// PutFundamentals sets the fundamentals of a symbol
func (r *StaticRepository) PutFundamentals(f contracts.Fundamentals) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fundamentals[normalize(f.Symbol)] = f
}

// PutNews replaces the headlines of a symbol
func (r *StaticRepository) PutNews(symbol string, items []contracts.NewsItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.news[normalize(symbol)] = append([]contracts.NewsItem(nil), items...)
}

// Symbols returns the symbols with a price series, sorted
func (r *StaticRepository) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.prices))
	for s := range r.prices {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// GetPrices returns bars within [from, to], oldest first
func (r *StaticRepository) GetPrices(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Price, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []contracts.Price
	for _, p := range r.prices[normalize(symbol)] {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("prices for %s: %w", symbol, contracts.ErrNoData)
	}
	return out, nil
}

// GetFundamentals returns the fundamentals of a symbol
func (r *StaticRepository) GetFundamentals(ctx context.Context, symbol string) (*contracts.Fundamentals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.fundamentals[normalize(symbol)]
	if !ok {
		return nil, fmt.Errorf("fundamentals for %s: %w", symbol, contracts.ErrNoData)
	}
	return &f, nil
}

// GetNews returns headlines published since the given time, newest first
func (r *StaticRepository) GetNews(ctx context.Context, symbol string, since time.Time, limit int) ([]contracts.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []contracts.NewsItem
	for _, n := range r.news[normalize(symbol)] {
		if !n.PublishedAt.Before(since) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
