package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rentables/lease-notification-service/internal/metrics"
	"golang.org/x/time/rate"
)

// CompanyHeader carries the caller's company scope on every request.
const CompanyHeader = "X-Company-ID"

// CompanyID returns the request's company scope.
func CompanyID(c *gin.Context) string {
	return c.GetHeader(CompanyHeader)
}

// RequireCompany rejects requests without a company scope.
func RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CompanyID(c) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "missing " + CompanyHeader + " header",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CompanyRateLimiter manages one token bucket per company.
type CompanyRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// NewCompanyRateLimiter creates a per-company rate limiter.
func NewCompanyRateLimiter(rps float64, burst int) *CompanyRateLimiter {
	return &CompanyRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// GetLimiter returns the limiter for one company, creating it on first
// use.
func (rl *CompanyRateLimiter) GetLimiter(companyID string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[companyID]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		limiter, exists = rl.limiters[companyID]
		if !exists {
			limiter = rate.NewLimiter(rl.rate, rl.burst)
			rl.limiters[companyID] = limiter
		}
		rl.mu.Unlock()
	}
	return limiter
}

// RateLimitMiddleware throttles requests per company.
func RateLimitMiddleware(rl *CompanyRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := CompanyID(c)
		if companyID == "" {
			c.Next()
			return
		}

		if !rl.GetLimiter(companyID).Allow() {
			metrics.RateLimitExceeded.WithLabelValues(companyID).Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, try again later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
