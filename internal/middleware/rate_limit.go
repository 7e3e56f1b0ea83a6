// internal/middleware/rate_limit.go
package middleware

import (
	"context"
	"sync"
	"time"

	xerrors "showroom-service/internal/pkg/errors"
	"showroom-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// APIRateLimiter is implemented by session.RateLimiter.
type APIRateLimiter interface {
	CheckAPIRateLimit(ctx context.Context, caller, endpoint string, maxRequests int64, window time.Duration) (bool, error)
}

// LeadRateLimiter caps storefront lead submissions per client IP. Counters
// live in Redis; while Redis is unreachable an in-process token bucket per
// IP takes over.
type LeadRateLimiter struct {
	shared   APIRateLimiter
	perMin   int64
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	logger   *zap.Logger
}

func NewLeadRateLimiter(shared APIRateLimiter, perMinute int64, logger *zap.Logger) *LeadRateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &LeadRateLimiter{
		shared:   shared,
		perMin:   perMinute,
		limiters: make(map[string]*rate.Limiter),
		logger:   logger,
	}
}

func (l *LeadRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.allow(c.Request.Context(), ip, c.FullPath()) {
			l.logger.Warn("lead rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			response.FromError(c, "too many requests, slow down", xerrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}

func (l *LeadRateLimiter) allow(ctx context.Context, ip, endpoint string) bool {
	if l.shared != nil {
		allowed, err := l.shared.CheckAPIRateLimit(ctx, ip, endpoint, l.perMin, time.Minute)
		if err == nil {
			return allowed
		}
		l.logger.Warn("shared rate limiter unavailable, using local limiter", zap.Error(err))
	}
	return l.local(ip).Allow()
}

func (l *LeadRateLimiter) local(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[ip]
	if !ok {
		// Reset rather than grow without bound.
		if len(l.limiters) > 10000 {
			l.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rate.Limit(float64(l.perMin)/60), int(l.perMin))
		l.limiters[ip] = limiter
	}
	return limiter
}
