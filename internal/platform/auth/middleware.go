package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// GateResponse is the JSON body sent when the gate turns a request away.
type GateResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

// Gate enforces req on a route group. The decision is made before the
// handler runs, so nothing of a protected view is produced for a
// logged-out caller.
func Gate(store Store, req Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if req == Public {
			return next
		}
		return func(c echo.Context) error {
			loggedIn := store.IsAuthenticated(c.Request().Context())
			decision := Decide(req, loggedIn)
			if decision == Allow {
				return next(c)
			}

			if wantsHTML(c.Request()) {
				return c.Redirect(http.StatusSeeOther, decision.Target())
			}
			if decision == RedirectToLogin {
				return c.JSON(http.StatusUnauthorized, GateResponse{
					Message:  "login required",
					Redirect: decision.Target(),
				})
			}
			return c.JSON(http.StatusConflict, GateResponse{
				Message:  "already logged in",
				Redirect: decision.Target(),
			})
		}
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
