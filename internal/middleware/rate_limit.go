package middleware

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/dgtt-autoecole/api-backend/internal/metrics"
)

// SessionRateLimiter hands out one token bucket per session
type SessionRateLimiter struct {
	mu       sync.Mutex
	limiters *gocache.Cache
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

// NewSessionRateLimiter allows perSecond events per session with a burst of twice that.
// Idle limiters are dropped after ttl.
func NewSessionRateLimiter(perSecond float64, ttl time.Duration) *SessionRateLimiter {
	burst := int(math.Ceil(perSecond * 2))
	if burst < 1 {
		burst = 1
	}
	return &SessionRateLimiter{
		limiters: gocache.New(ttl, ttl),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		ttl:      ttl,
	}
}

func (l *SessionRateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, found := l.limiters.Get(key); found {
		limiter := v.(*rate.Limiter)
		l.limiters.Set(key, limiter, l.ttl)
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Set(key, limiter, l.ttl)
	return limiter
}

// Allow reports whether one more event is allowed for key
func (l *SessionRateLimiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

// RateLimit rejects requests over the per-session budget with 429.
// Must run after SessionMiddleware.
func RateLimit(limiter *SessionRateLimiter, reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		// A request that just started a session is charged to the client IP,
		// so dropping the cookie does not reset the budget.
		key := "ip:" + c.ClientIP()
		if session, ok := GetSession(c); ok && !SessionCreated(c) {
			key = "session:" + session.ID
		}

		if !limiter.Allow(key) {
			reg.RateLimitedTotal.Inc()
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, "Too many requests", "Counter rate limit exceeded, slow down")
			return
		}

		c.Next()
	}
}
