package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/apiclient"
	"github.com/relief/relief/internal/platform/auth"
	"github.com/relief/relief/internal/platform/validation"
)

const (
	loggedOutMessage = "You were logged out, please login again."
	genericMessage   = "Something went wrong"
)

// retryPrompter is implemented by errors the user can fix by trying again,
// such as a failed location fix.
type retryPrompter interface {
	RetryPrompt() string
}

// HTTPErrorHandler maps errors to the gateway's JSON error responses. A 401
// from the backend also clears the login marker through store.
func HTTPErrorHandler(store auth.Store, logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err)
		if status == http.StatusUnauthorized && apiclient.IsUnauthorized(err) && store != nil {
			if lerr := store.Logout(c.Request().Context()); lerr != nil {
				logger.Warn().Err(lerr).Msg("failed to clear login marker")
			}
		}
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Int("status", status).Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

func classify(err error) (int, ErrorResponse) {
	if ve, ok := validation.As(err); ok {
		return http.StatusUnprocessableEntity, ErrorResponse{Message: ve.Message, Field: ve.Field}
	}

	var rp retryPrompter
	if errors.As(err, &rp) {
		return http.StatusUnprocessableEntity, ErrorResponse{Message: err.Error(), Retry: rp.RetryPrompt()}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		body := ErrorResponse{Message: msg}
		if he.Code == http.StatusUnauthorized {
			body.Redirect = auth.LoginRoute
		}
		return he.Code, body
	}

	if errors.Is(err, auth.ErrNotLoggedIn) {
		return http.StatusUnauthorized, ErrorResponse{Message: "login required", Redirect: auth.LoginRoute}
	}

	switch {
	case apiclient.IsUnauthorized(err):
		return http.StatusUnauthorized, ErrorResponse{Message: loggedOutMessage, Redirect: auth.LoginRoute}
	case apiclient.IsForbidden(err):
		return http.StatusForbidden, ErrorResponse{Message: "You are not allowed to do that."}
	case apiclient.IsServerError(err), apiclient.IsTransport(err):
		return http.StatusBadGateway, ErrorResponse{Message: genericMessage}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Message: "The request took too long, please try again."}
	}

	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		return apiErr.Status, ErrorResponse{Message: msg}
	}

	return http.StatusInternalServerError, ErrorResponse{Message: genericMessage}
}
