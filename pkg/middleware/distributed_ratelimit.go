package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/docflow/pkg/observability"
)

// DistributedRateLimiter shares one rate limit across processes through
// Redis: a fixed window counter per key with the window's TTL.
type DistributedRateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string
}

// NewDistributedRateLimiter builds a Redis-backed limiter.
func NewDistributedRateLimiter(client *redis.Client, config *RateLimitConfig, prefix string) *DistributedRateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "docflow:ratelimit"
	}
	return &DistributedRateLimiter{redis: client, config: config, prefix: prefix}
}

// Allow counts the request against the window. Redis errors fail open: a
// degraded cache must not take the API down with it.
func (rl *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit backend error: %w", err)
	}
	return incr.Val() <= int64(rl.config.RequestsPerWindow), nil
}

// TTL returns the time until the window for key resets.
func (rl *DistributedRateLimiter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rl.redis.TTL(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Result()
}

// Reset clears the counter for a key.
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}

// DistributedRateLimitMiddleware is the multi-process variant of
// RateLimitMiddleware.
type DistributedRateLimitMiddleware struct {
	identified *DistributedRateLimiter
	anonymous  *DistributedRateLimiter
	log        *observability.Logger
}

// NewDistributedRateLimitMiddleware builds the Redis-backed middleware.
func NewDistributedRateLimitMiddleware(client *redis.Client, log *observability.Logger) *DistributedRateLimitMiddleware {
	if log == nil {
		log = observability.NopLogger()
	}
	return &DistributedRateLimitMiddleware{
		identified: NewDistributedRateLimiter(client, IdentifiedRateLimitConfig(), "docflow:ratelimit:caller"),
		anonymous:  NewDistributedRateLimiter(client, DefaultRateLimitConfig(), "docflow:ratelimit:anon"),
		log:        log,
	}
}

// Handler wraps next with distributed rate limiting.
func (m *DistributedRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key, limiter := m.pick(r)

		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			m.log.WithError(err).Warn("rate limit check degraded, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			rateLimitExceeded(w, limiter.config)
			return
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.config.RequestsPerWindow))
		next.ServeHTTP(w, r)
	})
}

func (m *DistributedRateLimitMiddleware) pick(r *http.Request) (string, *DistributedRateLimiter) {
	if email := r.Header.Get("X-User-Email"); email != "" {
		return email, m.identified
	}
	return clientIP(r), m.anonymous
}

// HealthCheck verifies Redis connectivity.
func (m *DistributedRateLimitMiddleware) HealthCheck(ctx context.Context) error {
	return m.identified.redis.Ping(ctx).Err()
}
