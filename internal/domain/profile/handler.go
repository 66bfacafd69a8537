package profile

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relief/relief/internal/platform/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/profile", h.GetProfile)
	api.PUT("/profile", h.UpdatePersonal)
	api.POST("/profile/contacts", h.AddContact)
	api.PUT("/profile/contacts/:id", h.UpdateContact)
	api.DELETE("/profile/contacts/:id", h.DeleteContact)
	api.POST("/profile/history/:kind", h.SaveHistory)
	api.DELETE("/profile/history/:kind/:id", h.DeleteHistory)
}

func (h *Handler) GetProfile(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePersonal(c echo.Context) error {
	var in PersonalUpdate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.UpdatePersonal(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) AddContact(c echo.Context) error {
	var in Contact
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.AddContact(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) UpdateContact(c echo.Context) error {
	var in Contact
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.UpdateContact(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) DeleteContact(c echo.Context) error {
	out, err := h.svc.DeleteContact(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) SaveHistory(c echo.Context) error {
	item, err := NewHistoryItem(Kind(c.Param("kind")))
	if err != nil {
		return validation.New("kind", err.Error())
	}
	if err := c.Bind(item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.SaveHistory(c.Request().Context(), item)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) DeleteHistory(c echo.Context) error {
	out, err := h.svc.DeleteHistory(c.Request().Context(), Kind(c.Param("kind")), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
