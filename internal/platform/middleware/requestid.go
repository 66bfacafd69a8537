package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/relief/relief/internal/platform/apiclient"
)

// RequestIDHeader is read from the browser, echoed back and forwarded to the
// backend.
const RequestIDHeader = apiclient.RequestIDHeader

// RequestID assigns every request an id. An id sent by the caller is kept.
// The id is stored under "request_id" and on the request context, where the
// backend client picks it up.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(RequestIDHeader)
			if rid == "" || len(rid) > 128 {
				rid = uuid.New().String()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			c.SetRequest(req.WithContext(apiclient.WithRequestID(req.Context(), rid)))
			return next(c)
		}
	}
}
