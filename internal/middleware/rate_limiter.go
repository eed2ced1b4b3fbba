package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig configures per-client rate limiting for the status API.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type limiterMap struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	config   RateLimiterConfig
}

func (m *limiterMap) get(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	// The status API sees a handful of clients; reset wholesale if the
	// map somehow accumulates.
	if len(m.limiters) > 1000 {
		m.limiters = make(map[string]*rate.Limiter)
	}

	limiter, ok := m.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(m.config.RequestsPerSecond), m.config.Burst)
		m.limiters[ip] = limiter
	}
	return limiter
}

// RateLimiter returns a gin middleware limiting requests per client IP.
func RateLimiter(config RateLimiterConfig) gin.HandlerFunc {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 10
	}
	if config.Burst <= 0 {
		config.Burst = 20
	}
	limiters := &limiterMap{
		limiters: make(map[string]*rate.Limiter),
		config:   config,
	}

	return func(c *gin.Context) {
		limiter := limiters.get(c.ClientIP())
		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := reservation.DelayFrom(time.Now()).Seconds()
			reservation.Cancel()

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
