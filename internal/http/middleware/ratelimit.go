package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter is a fixed-window per-IP counter in redis. When redis is
// unreachable requests are let through.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	log    *zap.Logger
	now    func() time.Time
}

func NewRateLimiter(rdb *redis.Client, perMinute int, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{
		rdb:    rdb,
		limit:  perMinute,
		window: time.Minute,
		prefix: "arena:ratelimit:",
		log:    log,
		now:    time.Now,
	}
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.rdb == nil || l.limit <= 0 {
			c.Next()
			return
		}

		now := l.now()
		slot := now.Unix() / int64(l.window.Seconds())
		key := fmt.Sprintf("%s%s:%d", l.prefix, c.ClientIP(), slot)

		var incr *redis.IntCmd
		_, err := l.rdb.TxPipelined(c.Request.Context(), func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(c.Request.Context(), key)
			pipe.Expire(c.Request.Context(), key, l.window)
			return nil
		})
		if err != nil {
			l.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		count := incr.Val()
		remaining := int64(l.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(l.limit) {
			reset := time.Unix((slot+1)*int64(l.window.Seconds()), 0)
			c.Header("Retry-After", strconv.Itoa(int(reset.Sub(now).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
