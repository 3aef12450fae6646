package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiterConfig struct {
	RequestsPerSecond int
	Burst             int
	CleanupInterval   time.Duration
	TTL               time.Duration
}

// visitors is per middleware instance so separate route groups get separate
// budgets. Idle entries are swept on access, no goroutine outlives the engine.
type visitors struct {
	mu          sync.Mutex
	m           map[string]*visitor
	rps         int
	burst       int
	ttl         time.Duration
	interval    time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

func (v *visitors) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if now.Sub(v.lastCleanup) >= v.interval {
		v.sweep(now)
	}

	vis, exists := v.m[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(v.rps), v.burst)
		v.m[ip] = &visitor{limiter, now}
		return limiter
	}

	vis.lastSeen = now
	return vis.limiter
}

// sweep must be called with mu held
func (v *visitors) sweep(now time.Time) {
	for ip, vis := range v.m {
		if now.Sub(vis.lastSeen) > v.ttl {
			delete(v.m, ip)
		}
	}

	v.lastCleanup = now
}

func newVisitors(config RateLimiterConfig) *visitors {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}
	if config.Burst < 1 {
		config.Burst = 1
	}

	return &visitors{
		m:           make(map[string]*visitor),
		rps:         config.RequestsPerSecond,
		burst:       config.Burst,
		ttl:         config.TTL,
		interval:    config.CleanupInterval,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	v := newVisitors(config)

	return func(c *gin.Context) {
		if !v.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":   false,
				"message":   "Too many requests",
				"requestID": RequestID(c),
			})
			return
		}

		c.Next()
	}
}
