package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"profile-hub/internal/infrastructure/cache"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL    = 5 * time.Minute
	limiterSweep      = 3 * time.Minute
	maxTrackedClients = 50000
)

// RateLimiter provides IP-based rate limiting. Per-client limiters are kept
// in a sliding-expiry cache so idle clients are forgotten after five minutes.
type RateLimiter struct {
	limiters *cache.Expiring[*rate.Limiter]
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new per-IP rate limiter. Call Close to stop its
// background sweep.
func NewRateLimiter(r rate.Limit, burst int) (*RateLimiter, error) {
	limiters, err := cache.NewExpiring[*rate.Limiter]("rate_limit", maxTrackedClients, cache.WithSweepInterval(limiterSweep))
	if err != nil {
		return nil, err
	}
	return &RateLimiter{limiters: limiters, rate: r, burst: burst}, nil
}

// Close stops the background sweep.
func (rl *RateLimiter) Close() {
	rl.limiters.Close()
}

// limiter returns the rate limiter for ip, creating one if needed.
func (rl *RateLimiter) limiter(ctx context.Context, ip string) *rate.Limiter {
	l, _ := rl.limiters.GetOrCreate(ctx, ip, limiterIdleTTL, func(context.Context) (*rate.Limiter, error) {
		return rate.NewLimiter(rl.rate, rl.burst), nil
	})
	return l
}

// Middleware returns an Echo middleware that enforces the rate limit.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.limiter(c.Request().Context(), c.RealIP()).Allow() {
				retryAfter := max(int(1.0/float64(rl.rate)), 1)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
