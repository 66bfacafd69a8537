package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relief/relief/internal/platform/apiclient"
)

// BackendCookies relays the browser's backend session cookies. Cookies on
// the incoming request (except the gateway's own, named in skip) are put in
// a CookieBag on the request context; whatever the backend sets or clears
// during the request is written back to the browser.
func BackendCookies(skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		skipped[name] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			var in []*http.Cookie
			for _, ck := range req.Cookies() {
				if _, ok := skipped[ck.Name]; !ok {
					in = append(in, ck)
				}
			}
			bag := apiclient.NewCookieBag(in)
			c.SetRequest(req.WithContext(apiclient.WithCookieBag(req.Context(), bag)))

			c.Response().Before(func() {
				for _, ck := range bag.Received() {
					relay := &http.Cookie{
						Name:     ck.Name,
						Value:    ck.Value,
						Path:     "/",
						MaxAge:   ck.MaxAge,
						Expires:  ck.Expires,
						Secure:   ck.Secure,
						HttpOnly: true,
						SameSite: http.SameSiteLaxMode,
					}
					c.SetCookie(relay)
				}
			})
			return next(c)
		}
	}
}
