package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON body of every error the gateway returns.
type ErrorResponse struct {
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	Retry    string `json:"retry,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func reject(c echo.Context, status int, message string) error {
	if c.Response().Committed {
		return nil
	}
	return c.JSON(status, ErrorResponse{Message: message})
}

func badRequest(c echo.Context, message string) error {
	return reject(c, http.StatusBadRequest, message)
}
