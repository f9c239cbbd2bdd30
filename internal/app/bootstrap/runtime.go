package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/chowjack2099/China-side-Execution/internal/config"
	httpmiddleware "github.com/chowjack2099/China-side-Execution/internal/http/middleware"
	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildLimiter picks the intake rate limiter: shared fixed windows when Redis
// is available, an in-process token bucket otherwise. A non-positive
// RATE_LIMIT_PER_MINUTE disables limiting and returns a nil Limiter.
func BuildLimiter(cfg *appconfig.Config, client redis.Cmdable, logger *logging.Logger) (httpmiddleware.Limiter, func()) {
	noop := func() {}
	if cfg == nil || cfg.RateLimitPerMinute <= 0 {
		return nil, noop
	}
	if logger == nil {
		logger = logging.Default()
	}
	if client != nil {
		logger.Info("rate limiting via redis", "per_minute", cfg.RateLimitPerMinute)
		return httpmiddleware.NewRedisLimiter(client, cfg.RateLimitPerMinute, time.Minute), noop
	}
	logger.Info("rate limiting in memory", "per_minute", cfg.RateLimitPerMinute, "burst", cfg.RateLimitBurst)
	limiter := httpmiddleware.NewRateLimiter(float64(cfg.RateLimitPerMinute)/60, cfg.RateLimitBurst)
	return limiter, limiter.Close
}
