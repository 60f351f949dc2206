package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestAllowFailsOpenWhenRedisUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	limiter := NewLimiter(rdb, 10, time.Minute, zap.NewNop())

	if !limiter.Allow(context.Background(), "sub.example.com") {
		t.Error("expected the limiter to fail open when Redis is unreachable")
	}
}

func TestNewLimiterAppliesDefaults(t *testing.T) {
	limiter := NewLimiter(nil, 0, 0, zap.NewNop())
	if limiter.limit != 60 {
		t.Errorf("expected default limit 60, got %d", limiter.limit)
	}
	if limiter.window != time.Minute {
		t.Errorf("expected default window of one minute, got %v", limiter.window)
	}
}
