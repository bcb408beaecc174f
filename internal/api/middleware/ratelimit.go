package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/denisAlshanov/mediaresolver/internal/config"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter hands every client its own token bucket refilled at
// limit/window, with a burst of limit.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	every   rate.Limit
	burst   int
	idle    time.Duration
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{
		clients: make(map[string]*clientLimiter),
		every:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		idle:    window,
	}
}

func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.evictIdle(now)

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

// evictIdle drops clients whose bucket has had a full window to refill.
func (rl *rateLimiter) evictIdle(now time.Time) {
	for key, client := range rl.clients {
		if now.Sub(client.lastSeen) > rl.idle {
			delete(rl.clients, key)
		}
	}
}

// RateLimitMiddleware limits requests per client IP. A non-positive request
// count disables it.
func RateLimitMiddleware(cfg *config.APIConfig) gin.HandlerFunc {
	if cfg.RateLimitRequests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", "1")
			c.JSON(429, gin.H{
				"error":      utils.NewRateLimitError(),
				"request_id": c.GetString("request_id"),
				"timestamp":  time.Now().Format(time.RFC3339),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
