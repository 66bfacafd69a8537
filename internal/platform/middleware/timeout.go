package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestTimeout puts a deadline on each request's context. Backend calls
// made on the request's behalf inherit it, so a slow backend surfaces as a
// deadline error from the handler, which becomes a 504. Live streams under
// /ws/ outlive any request deadline and are skipped.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Timeout: timeout,
		Skipper: isLiveStream,
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, context.DeadlineExceeded) {
				return reject(c, http.StatusGatewayTimeout, "The request took too long, please try again.")
			}
			return err
		},
	})
}

func isLiveStream(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/ws/")
}
