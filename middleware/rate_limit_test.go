package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func serveLimited(handler gin.HandlerFunc, requests int) []*httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/limited", handler, func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	var responses []*httptest.ResponseRecorder
	for i := 0; i < requests; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		responses = append(responses, w)
	}
	return responses
}

func TestRateLimiter_DisabledWithoutRedis(t *testing.T) {
	for _, w := range serveLimited(RateLimiter(nil, RateLimitConfig{MaxRequests: 1, Window: time.Minute}), 5) {
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_DisabledWithZeroLimit(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	for _, w := range serveLimited(RateLimiter(rdb, RateLimitConfig{MaxRequests: 0, Window: time.Minute}), 3) {
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_FailsOpenWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	for _, w := range serveLimited(RateLimiter(rdb, RateLimitConfig{MaxRequests: 1, Window: time.Minute, Name: "test"}), 3) {
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	}
}
