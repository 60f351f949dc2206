package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fixed-window counter: first increment in a window sets the expiry
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Limiter is a fixed-window rate limiter backed by Redis, shared across
// service instances. It fails open: when Redis is unreachable the send
// proceeds and a warning is logged, since dropping publications is worse
// than briefly exceeding a subscriber's rate.
type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger *zap.Logger
}

func NewLimiter(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: "thirdparty:rate",
		logger: logger,
	}
}

// Allow reports whether another outbound distribution to the keyed
// destination may proceed within the current window.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	key = l.prefix + ":" + strings.TrimSpace(key)

	result, err := fixedWindowScript.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Int64()
	if err != nil {
		l.logger.Warn("Rate limiter unavailable, allowing request",
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}

	if result > int64(l.limit) {
		l.logger.Warn("Destination rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", result),
			zap.Int("limit", l.limit),
		)
		return false
	}
	return true
}
