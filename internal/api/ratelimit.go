package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/investiq/pkg/logger"
	"github.com/wonny/investiq/pkg/redis"
)

// Limiter decides whether a client may make one more request
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a sliding-window limiter shared by all API instances
type RedisLimiter struct {
	limiter   *redis.RateLimiter
	perMinute int
}

// NewRedisLimiter creates a Redis-backed per-client limiter
func NewRedisLimiter(limiter *redis.RateLimiter, perMinute int) *RedisLimiter {
	return &RedisLimiter{limiter: limiter, perMinute: perMinute}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, redis.PerMinute(key, l.perMinute))
	return allowed, err
}

// localIdleTTL drops client buckets unused this long; a bucket idle for a full minute is already refilled
const localIdleTTL = 10 * time.Minute

// LocalLimiter is an in-process token bucket per client.
// Buckets idle longer than localIdleTTL are swept on Allow, so the map is bounded by
// the number of distinct clients seen within that window.
type LocalLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	clients   map[string]*localClient
	lastSweep time.Time
	now       func() time.Time
}

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter allows perMinute requests per client with a burst of perMinute
func NewLocalLimiter(perMinute int) *LocalLimiter {
	return &LocalLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		clients: make(map[string]*localClient),
		now:     time.Now,
	}
}

// Allow implements Limiter
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= localIdleTTL {
		l.sweep(now)
	}

	c, ok := l.clients[key]
	if !ok {
		c = &localClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1), nil
}

// sweep removes idle buckets (호출자가 mu 보유)
func (l *LocalLimiter) sweep(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= localIdleTTL {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// size returns the number of tracked clients
func (l *LocalLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// NewLimiter picks the Redis limiter when Redis is enabled, the local one otherwise.
// perMinute <= 0 disables rate limiting.
func NewLimiter(rl *redis.RateLimiter, perMinute int) Limiter {
	switch {
	case perMinute <= 0:
		return nil
	case rl != nil && rl.Enabled():
		return NewRedisLimiter(rl, perMinute)
	default:
		return NewLocalLimiter(perMinute)
	}
}

// clientKey identifies the caller by remote IP
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimitMiddleware rejects callers over their budget with 429; limiter errors fail open
func rateLimitMiddleware(limiter Limiter, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientKey(r))
			if err != nil {
				log.WithError(err).Warn("Rate limiter unavailable")
				allowed = true
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(60))
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"success":false,"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
