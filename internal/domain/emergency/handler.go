package emergency

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relief/relief/internal/platform/notification"
	"github.com/relief/relief/internal/platform/upload"
	"github.com/relief/relief/internal/platform/validation"
)

// Broadcaster relays action outcomes to anyone watching a request live.
type Broadcaster interface {
	Notify(requestID string, n notification.Notice)
	Refresh(requestID string)
}

type Handler struct {
	svc  *Service
	live Broadcaster
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SetBroadcaster attaches the live tracking stream.
func (h *Handler) SetBroadcaster(b Broadcaster) {
	h.live = b
}

// RegisterRoutes mounts the request endpoints. photoMW wraps the upload
// route only, so it can carry a larger body limit.
func (h *Handler) RegisterRoutes(api *echo.Group, photoMW ...echo.MiddlewareFunc) {
	api.GET("/requests", h.ListRequests)
	api.POST("/requests", h.CreateRequest)
	api.GET("/requests/:id", h.GetRequest)
	api.POST("/requests/:id/finalize", h.FinalizeRequest)
	api.POST("/requests/:id/cancel", h.CancelRequest)
	api.POST("/requests/:id/photo", h.UploadPhoto, photoMW...)
}

type actionResponse struct {
	Detail   *Detail             `json:"detail,omitempty"`
	Notice   notification.Notice `json:"notice"`
	Redirect string              `json:"redirect,omitempty"`
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListRequests(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = string(StatusPending)
	}
	items, err := h.svc.List(c.Request().Context(), status)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": status,
		"data":   items,
		"total":  len(items),
	})
}

func (h *Handler) GetRequest(c echo.Context) error {
	req, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, NewDetail(req))
}

func (h *Handler) FinalizeRequest(c echo.Context) error {
	var body struct {
		HospitalID string `json:"hospitalId"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id := c.Param("id")
	res, err := h.svc.Finalize(c.Request().Context(), id, body.HospitalID)
	if err != nil {
		return domainError(err)
	}
	return h.respond(c, id, res)
}

func (h *Handler) CancelRequest(c echo.Context) error {
	id := c.Param("id")
	res, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return h.respond(c, id, res)
}

func (h *Handler) UploadPhoto(c echo.Context) error {
	id := c.Param("id")
	if err := validation.ObjectID("id", id); err != nil {
		return err
	}
	file, err := c.FormFile("file")
	if err != nil {
		return validation.New("file", "Please select a valid image file")
	}
	photo, err := upload.FromFormFile(file, h.svc.MaxPhotoBytes())
	if err != nil {
		return photoError(err, h.svc.MaxPhotoBytes())
	}
	res, err := h.svc.UploadPhoto(c.Request().Context(), id, photo)
	if err != nil {
		return domainError(err)
	}
	return h.respond(c, id, res)
}

func (h *Handler) respond(c echo.Context, id string, res *ActionResult) error {
	if h.live != nil {
		h.live.Notify(id, res.Notice)
		h.live.Refresh(id)
	}
	out := actionResponse{Notice: res.Notice, Redirect: res.Redirect}
	if res.Request != nil {
		out.Detail = NewDetail(res.Request)
	}
	return c.JSON(http.StatusOK, out)
}

func photoError(err error, limit int64) error {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge):
		return validation.New("file", upload.TooLargeMessage(limit))
	case errors.Is(err, upload.ErrInvalidContentType),
		errors.Is(err, upload.ErrEmptyFile),
		errors.Is(err, upload.ErrMissingFileName):
		return validation.New("file", "Please select a valid image file")
	default:
		return err
	}
}

// domainError maps the package's sentinels to HTTP errors. Everything else
// (validation, location, backend) is left to the central error handler.
func domainError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrHospitalNotAccepted),
		errors.Is(err, ErrPhotoAlreadyAttached),
		errors.Is(err, ErrActionNotAllowed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return err
	}
}
