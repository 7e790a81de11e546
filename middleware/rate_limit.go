package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimitConfig bounds how many requests one client may make per window
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	// Name separates counters for limiters sharing a Redis instance
	Name string
}

// fixedWindowScript counts a request in the current window, starting a new
// window on first use. Returns {allowed, remaining}; rejected requests are not counted.
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local expiry = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])

local current = redis.call('GET', key)
if current == false then
	redis.call('SET', key, 1, 'EX', expiry)
	return {1, limit - 1}
end

local count = tonumber(current)
if count >= limit then
	return {0, 0}
end

local new_count = redis.call('INCR', key)
return {1, limit - new_count}
`)

// RateLimiter limits requests per client IP using a fixed window kept in Redis.
// A nil client or a zero limit disables limiting; Redis errors let requests through.
func RateLimiter(rdb *redis.Client, cfg RateLimitConfig) gin.HandlerFunc {
	if rdb == nil || cfg.MaxRequests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Name == "" {
		cfg.Name = "api"
	}
	windowSeconds := int(cfg.Window.Seconds())
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("rate:fw:%s:ip:%s", cfg.Name, c.ClientIP())

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		result, err := fixedWindowScript.Run(ctx, rdb, []string{key}, windowSeconds, cfg.MaxRequests).Int64Slice()
		if err != nil || len(result) != 2 {
			log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		allowed, remaining := result[0] == 1, result[1]
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			retryAfter := cfg.Window
			if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				retryAfter = ttl
			}
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			log.Warn().Str("client_ip", c.ClientIP()).Str("limiter", cfg.Name).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": fmt.Sprintf("Too many requests, please try again in %v", retryAfter.Round(time.Second)),
				},
			})
			return
		}

		c.Next()
	}
}
