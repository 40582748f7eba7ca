package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// TenantRateLimiter keeps one token bucket per tenant
type TenantRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewTenantRateLimiter creates a limiter allowing perSecond requests with the given burst per tenant
func NewTenantRateLimiter(perSecond float64, burst int) *TenantRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &TenantRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *TenantRateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Allow reports whether a request for key may proceed now
func (l *TenantRateLimiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

// RateLimit rejects requests over the tenant's allowance with 429.
// Falls back to the client IP when no tenant is set.
func RateLimit(l *TenantRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetTenantID(c)
		if key == "" {
			key = c.ClientIP()
		}

		if !l.Allow(key) {
			if l.limit > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(1/float64(l.limit)))))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "Too many requests, please try again later",
				},
			})
			return
		}

		c.Next()
	}
}
