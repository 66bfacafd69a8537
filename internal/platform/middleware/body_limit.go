package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
)

// DefaultBodyLimit applies when a configured limit is empty or unparsable.
const DefaultBodyLimit = "1M"

// BodyLimit caps request bodies at defaultLimit. Photo uploads
// (POST /api/requests/:id/photo) carry a multipart image and get uploadLimit
// instead. Limits use echo's size syntax ("1M", "512K", "6MB"). Over-limit
// requests get a 413 naming the limit that applied.
func BodyLimit(defaultLimit, uploadLimit string) echo.MiddlewareFunc {
	general, generalBytes := bodySize(defaultLimit)
	upload, uploadBytes := bodySize(uploadLimit)

	limitGeneral := echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Skipper: isPhotoUpload,
		Limit:   general,
	})
	limitUpload := echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Skipper: func(c echo.Context) bool { return !isPhotoUpload(c) },
		Limit:   upload,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := limitGeneral(limitUpload(next))
		return func(c echo.Context) error {
			err := h(c)
			if !errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
				return err
			}
			limit := generalBytes
			if isPhotoUpload(c) {
				limit = uploadBytes
			}
			return reject(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body is larger than the %s limit", bytes.Format(limit)))
		}
	}
}

func isPhotoUpload(c echo.Context) bool {
	req := c.Request()
	return req.Method == http.MethodPost &&
		strings.HasPrefix(req.URL.Path, "/api/requests/") &&
		strings.HasSuffix(req.URL.Path, "/photo")
}

// bodySize validates a limit, falling back to DefaultBodyLimit, and returns
// it with its size in bytes.
func bodySize(s string) (string, int64) {
	s = strings.TrimSpace(s)
	if n, err := bytes.Parse(s); err == nil && n > 0 {
		return s, n
	}
	n, _ := bytes.Parse(DefaultBodyLimit)
	return DefaultBodyLimit, n
}
