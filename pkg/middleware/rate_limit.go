package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/coc-proxy-go/pkg/cache"
	"github.com/mo-amir99/coc-proxy-go/pkg/metrics"
)

// LimitStore decides whether another request for key fits in the window.
type LimitStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimiter implements a per client IP fixed window limiter.
type RateLimiter struct {
	store    LimitStore
	rate     int
	duration time.Duration
	logger   *slog.Logger
}

// NewRateLimiter creates a limiter allowing rate requests per duration.
// The caller owns store and closes it if it needs closing.
func NewRateLimiter(store LimitStore, rate int, duration time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		store:    store,
		rate:     rate,
		duration: duration,
		logger:   logger,
	}
}

// Middleware returns a Gin middleware that enforces rate limiting.
// A rate of zero or a nil store disables the limiter.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 || rl.store == nil {
			c.Next()
			return
		}

		allowed, err := rl.store.Allow(c.Request.Context(), c.ClientIP(), rl.rate, rl.duration)
		if err != nil {
			// Fail open: a store outage must not take the proxy down.
			if rl.logger != nil {
				rl.logger.Warn("rate limit store unavailable", slog.String("error", err.Error()))
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.rate))

		if !allowed {
			metrics.RecordRateLimited()
			c.Header("Retry-After", strconv.Itoa(int(rl.duration.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}

		c.Next()
	}
}

// MemoryLimitStore keeps one bucket per key in process.
type MemoryLimitStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	count     int
	lastReset time.Time
}

// NewMemoryLimitStore starts a store that prunes idle buckets hourly.
func NewMemoryLimitStore() *MemoryLimitStore {
	s := &MemoryLimitStore{
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go s.cleanup(time.Hour)
	return s
}

// Allow implements LimitStore.
func (s *MemoryLimitStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	b, exists := s.buckets[key]
	if !exists || now.Sub(b.lastReset) >= window {
		b = &bucket{lastReset: now}
		s.buckets[key] = b
	}

	if b.count >= limit {
		return false, nil
	}
	b.count++
	return true, nil
}

// Close stops the cleanup goroutine.
func (s *MemoryLimitStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryLimitStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			for key, b := range s.buckets {
				if time.Since(b.lastReset) > 24*time.Hour {
					delete(s.buckets, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// CacheLimitStore shares counters through a cache.Client such as Redis, so
// several proxy instances enforce one limit.
type CacheLimitStore struct {
	client cache.Client
	prefix string
}

// NewCacheLimitStore wraps client; keys are namespaced with prefix.
func NewCacheLimitStore(client cache.Client, prefix string) *CacheLimitStore {
	return &CacheLimitStore{client: client, prefix: prefix}
}

// Allow implements LimitStore with INCR plus EXPIRE on the first hit.
func (s *CacheLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	windowStart := time.Now().Truncate(window).Unix()
	counterKey := fmt.Sprintf("%s:%s:%d", s.prefix, key, windowStart)

	count, err := s.client.Increment(ctx, counterKey)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, counterKey, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}
