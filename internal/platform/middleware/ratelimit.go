package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// ExpiresIn forgets a caller that has been quiet this long, so the
	// per-caller state stays bounded on a public route.
	ExpiresIn time.Duration
}

// AuthRateLimitConfig throttles login and registration attempts per caller:
// a burst of 10, then one attempt every 6 seconds.
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 1.0 / 6,
		BurstSize:         10,
		ExpiresIn:         10 * time.Minute,
	}
}

func (c RateLimitConfig) expiresIn() time.Duration {
	if c.ExpiresIn <= 0 {
		return echomw.DefaultRateLimiterMemoryStoreConfig.ExpiresIn
	}
	return c.ExpiresIn
}

// retryAfter is how many seconds a refused caller waits for the next
// attempt. Without refill that is when the caller is forgotten.
func (c RateLimitConfig) retryAfter() int {
	if c.RequestsPerSecond <= 0 {
		return int(math.Ceil(c.expiresIn().Seconds()))
	}
	return int(math.Ceil(1 / c.RequestsPerSecond))
}

// RateLimit limits requests per client IP. It guards the login and
// registration routes against password guessing. Refused attempts get a 429
// with Retry-After.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RequestsPerSecond),
		Burst:     cfg.BurstSize,
		ExpiresIn: cfg.expiresIn(),
	})
	retryAfter := strconv.Itoa(cfg.retryAfter())

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			c.Response().Header().Set(echo.HeaderRetryAfter, retryAfter)
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts, please wait and try again.")
		},
	})
}
