package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// hstsMaxAge is one year, in seconds.
const hstsMaxAge = 31536000

// SecurityHeaders sets the response headers every gateway reply carries.
// The gateway only serves JSON and the live stream, so nothing may be framed,
// rendered or cached: request details carry patient names and locations.
// HSTS is sent on TLS requests (directly or behind a proxy that sets
// X-Forwarded-Proto) when hsts is true, which it is outside development.
func SecurityHeaders(hsts bool) echo.MiddlewareFunc {
	cfg := echomw.SecureConfig{
		XSSProtection:         "0",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	}
	if hsts {
		cfg.HSTSMaxAge = hstsMaxAge
	}
	secure := echomw.SecureWithConfig(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return secure(func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
			return next(c)
		})
	}
}
