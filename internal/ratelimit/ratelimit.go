// Package ratelimit throttles unauthenticated endpoints.
package ratelimit

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/frontdesk/pkg/util/errorutil"
)

const storePrefix = "frontdesk:ratelimit"

// NewStore returns a Redis backed store, falling back to memory when Redis is
// unavailable.
func NewStore(client *goredis.Client, logger *zap.Logger) limiter.Store {
	if client != nil {
		store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix:   storePrefix,
			MaxRetry: 3,
		})
		if err == nil {
			return store
		}
		logger.Warn("redis rate limit store unavailable, using memory", zap.Error(err))
	}
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          storePrefix,
		CleanUpInterval: time.Minute,
	})
}

// Limiter applies a per-client request budget.
type Limiter struct {
	limiter *limiter.Limiter
	logger  *zap.Logger
}

// New builds a limiter allowing perMinute requests per client IP and key.
func New(store limiter.Store, perMinute int, logger *zap.Logger) *Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	rate := limiter.Rate{Period: time.Minute, Limit: int64(perMinute)}
	return &Limiter{limiter: limiter.New(store, rate), logger: logger}
}

// Allow consumes one request from the bucket identified by key.
func (l *Limiter) Allow(c *fiber.Ctx, key string) (limiter.Context, error) {
	return l.limiter.Get(c.UserContext(), key+":"+c.IP())
}

// Middleware rejects requests over budget with TOO_MANY_REQUESTS. Store
// failures let the request through.
func (l *Limiter) Middleware(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil {
			return c.Next()
		}
		ctx, err := l.Allow(c, key)
		if err != nil {
			l.logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
			return c.Next()
		}
		c.Set("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))
		if ctx.Reached {
			return apperrors.NewTooManyRequests("too many requests, slow down")
		}
		return c.Next()
	}
}
