package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/utils"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	interval time.Duration
	ips      map[string]*visitor
	mu       sync.Mutex
	swept    time.Time
}

// NewRateLimiter allows requests per interval for each IP.
func NewRateLimiter(requests int, interval time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &RateLimiter{
		limit:    rate.Every(interval / time.Duration(requests)),
		burst:    requests,
		interval: interval,
		ips:      make(map[string]*visitor),
		swept:    time.Now(),
	}
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// idle visitors are dropped at most once per interval
	if now.Sub(rl.swept) > rl.interval {
		for key, v := range rl.ips {
			if now.Sub(v.lastSeen) > rl.interval {
				delete(rl.ips, key)
			}
		}
		rl.swept = now
	}

	v, exists := rl.ips[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.ips[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			utils.RespondFailure(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please wait before trying again", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// NewStrictRateLimiter guards the login endpoint: 5 attempts per minute per IP.
func NewStrictRateLimiter() gin.HandlerFunc {
	return NewRateLimiter(5, time.Minute).RateLimit()
}

