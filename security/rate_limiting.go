package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

const DefaultRequestsPerMinute = 60

// RateLimiter is a fixed-window per-client counter kept in redis. When redis
// is unreachable requests are let through.
type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	return &RateLimiter{redis: redisClient, limit: int64(perMinute), window: time.Minute}
}

// Allow counts one request for key and reports whether it is within budget.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := r.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, redisKey, r.window).Err(); err != nil {
			return true, err
		}
	}
	return count <= r.limit, nil
}

// Middleware rejects suspicious clients and those over budget.
func (r *RateLimiter) Middleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return e.JSON(http.StatusForbidden, map[string]any{"ok": false, "reason": "access_denied"})
		}

		ip := clientIP(e)
		allowed, err := r.Allow(e.Request.Context(), ip)
		if err != nil {
			slog.Warn("Rate limiter unavailable", "ip", ip, "error", err)
		}
		if !allowed {
			return e.JSON(http.StatusTooManyRequests, map[string]any{"ok": false, "reason": "rate_limited"})
		}
		return e.Next()
	}
}

// clientIP honours proxy headers only when the app's trusted proxy settings
// name them. Without an app the connection address is used.
func clientIP(e *core.RequestEvent) string {
	if e.App != nil {
		return e.RealIP()
	}
	return e.RemoteIP()
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
