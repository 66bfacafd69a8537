package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relief/relief/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the account endpoints. authOnly guards the screens a
// logged-in patient must not see; protected guards the rest.
func (h *Handler) RegisterRoutes(api *echo.Group, authOnly, protected echo.MiddlewareFunc) {
	api.POST("/auth/login", h.Login, authOnly)
	api.POST("/auth/register", h.Register, authOnly)
	api.POST("/auth/logout", h.Logout, protected)
	api.GET("/me", h.Me, protected)
}

func (h *Handler) Login(c echo.Context) error {
	var in LoginInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Logout(c echo.Context) error {
	res, err := h.svc.Logout(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Me(c echo.Context) error {
	id, err := h.svc.Me(c.Request().Context())
	if errors.Is(err, auth.ErrNotLoggedIn) {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, id)
}
