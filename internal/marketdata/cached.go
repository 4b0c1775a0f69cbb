package marketdata

import (
	"context"
	"time"

	"github.com/wonny/investiq/internal/contracts"
	"github.com/wonny/investiq/pkg/logger"
	"github.com/wonny/investiq/pkg/redis"
)

const dateKeyLayout = "2006-01-02"

// CachedRepository wraps a repository with a Redis read-through cache
// Redis가 비활성이면 그대로 통과 (pass-through)
type CachedRepository struct {
	next   contracts.MarketDataRepository
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedRepository creates a cached repository
func NewCachedRepository(next contracts.MarketDataRepository, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithComponent("marketdata_cache"),
	}
}

// GetPrices reads daily bars through the cache (keyed by calendar day)
func (r *CachedRepository) GetPrices(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Price, error) {
	key := redis.PricesKey(symbol, from.Format(dateKeyLayout), to.Format(dateKeyLayout))

	var prices []contracts.Price
	if r.lookup(ctx, key, &prices) {
		return prices, nil
	}

	prices, err := r.next.GetPrices(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, prices, r.ttl)
	return prices, nil
}

// GetFundamentals reads the latest fundamentals through the cache
func (r *CachedRepository) GetFundamentals(ctx context.Context, symbol string) (*contracts.Fundamentals, error) {
	key := redis.FundamentalsKey(symbol)

	var f contracts.Fundamentals
	if r.lookup(ctx, key, &f) {
		return &f, nil
	}

	got, err := r.next.GetFundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, got, r.ttl)
	return got, nil
}

// GetNews reads headlines through the cache; since is truncated to the hour so the key is stable
func (r *CachedRepository) GetNews(ctx context.Context, symbol string, since time.Time, limit int) ([]contracts.NewsItem, error) {
	since = since.Truncate(time.Hour)
	key := redis.NewsKey(symbol, since.UTC().Format(time.RFC3339), limit)

	var items []contracts.NewsItem
	if r.lookup(ctx, key, &items) {
		return items, nil
	}

	items, err := r.next.GetNews(ctx, symbol, since, limit)
	if err != nil {
		return nil, err
	}
	// 뉴스는 짧게 캐시
	r.store(ctx, key, items, min(r.ttl, redis.TTLShort))
	return items, nil
}

// lookup returns true on a cache hit; cache errors degrade to a miss
func (r *CachedRepository) lookup(ctx context.Context, key string, dest interface{}) bool {
	found, err := r.cache.Get(ctx, key, dest)
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		return false
	}
	return found
}

func (r *CachedRepository) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := r.cache.Set(ctx, key, value, ttl); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}
