package emergency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/auth"
	"github.com/relief/relief/internal/platform/notification"
	"github.com/relief/relief/internal/platform/upload"
	"github.com/relief/relief/internal/platform/validation"
	"github.com/relief/relief/pkg/geo"
)

// DefaultRedirectDelay leaves the success notice on screen before moving to
// the new request.
const DefaultRedirectDelay = 2 * time.Second

// IdentitySource supplies the cached copy of the logged-in user.
type IdentitySource interface {
	Identity(ctx context.Context) (auth.Identity, error)
}

type Service struct {
	repo          RequestRepository
	identity      IdentitySource
	locator       geo.Locator
	maxPhotoBytes int64
	redirectDelay time.Duration
	logger        zerolog.Logger
}

func NewService(repo RequestRepository, identity IdentitySource, locator geo.Locator, logger zerolog.Logger) *Service {
	if locator == nil {
		locator = geo.Static(nil)
	}
	return &Service{
		repo:          repo,
		identity:      identity,
		locator:       locator,
		maxPhotoBytes: upload.DefaultMaxBytes,
		redirectDelay: DefaultRedirectDelay,
		logger:        logger.With().Str("component", "emergency").Logger(),
	}
}

// SetMaxPhotoBytes overrides the photo size limit.
func (s *Service) SetMaxPhotoBytes(n int64) {
	if n > 0 {
		s.maxPhotoBytes = n
	}
}

// MaxPhotoBytes returns the photo size limit.
func (s *Service) MaxPhotoBytes() int64 { return s.maxPhotoBytes }

// SetRedirectDelay overrides the pause before moving to a new request.
func (s *Service) SetRedirectDelay(d time.Duration) {
	if d >= 0 {
		s.redirectDelay = d
	}
}

// Created describes a newly raised request and where to go next.
type Created struct {
	ID              string              `json:"id"`
	Redirect        string              `json:"redirect"`
	RedirectAfter   time.Duration       `json:"-"`
	RedirectAfterMs int64               `json:"redirectAfterMs"`
	Notice          notification.Notice `json:"notice"`
}

// ActionResult is the outcome of a mutation: the re-fetched snapshot and the
// notice to show.
type ActionResult struct {
	Request  *Request            `json:"request,omitempty"`
	Notice   notification.Notice `json:"notice"`
	Redirect string              `json:"redirect,omitempty"`
}

// -- Create --

// Create raises a new request. Validation and location acquisition happen
// before anything is sent; a missing location never reaches the backend.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Created, error) {
	name, phone := validation.Clean(in.PatientName), in.PatientPhoneNumber
	if in.ForSelf && s.identity != nil && (name == "" || phone == "") {
		if id, err := s.identity.Identity(ctx); err == nil {
			if name == "" {
				name = id.Name
			}
			if phone == "" {
				phone = id.PhoneNumber
			}
		}
	}
	if err := validation.Required("patientName", name); err != nil {
		return nil, err
	}
	if err := validation.Phone("patientPhoneNumber", phone); err != nil {
		return nil, err
	}

	point, err := s.locate(ctx, in.Location)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, CreateBody{
		ForSelf:            in.ForSelf,
		PatientName:        name,
		PatientPhoneNumber: phone,
		Location:           point,
	})
	if err != nil {
		return nil, fmt.Errorf("create emergency request: %w", err)
	}

	s.logger.Info().Str("request_id", id).Bool("for_self", in.ForSelf).Msg("emergency request created")
	return &Created{
		ID:              id,
		Redirect:        "/requests/" + id,
		RedirectAfter:   s.redirectDelay,
		RedirectAfterMs: s.redirectDelay.Milliseconds(),
		Notice:          notification.Success("Emergency Alert Sent!", "Your emergency has been reported. Help is on the way."),
	}, nil
}

func (s *Service) locate(ctx context.Context, supplied *geo.Point) (geo.Point, error) {
	if supplied != nil && !supplied.IsZero() {
		return geo.NewPoint(supplied.Lat(), supplied.Lng()), nil
	}
	p, err := s.locator.Locate(ctx)
	if err != nil {
		return geo.Point{}, &LocationError{Cause: err}
	}
	if p.IsZero() {
		return geo.Point{}, &LocationError{Cause: geo.ErrUnavailable}
	}
	return p, nil
}

// -- Read --

func (s *Service) Get(ctx context.Context, id string) (*Request, error) {
	if err := validation.ObjectID("id", id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, status string) ([]Summary, error) {
	st, ok := ParseStatus(status)
	if !ok {
		return nil, validation.OneOf("status", status, statusNames())
	}
	return s.repo.ListByStatus(ctx, st)
}

// -- Actions --

// Finalize picks hospitalID for the request. The hospital must be one of
// those that accepted it.
func (s *Service) Finalize(ctx context.Context, id, hospitalID string) (*ActionResult, error) {
	if err := validation.ObjectID("hospitalId", hospitalID); err != nil {
		return nil, err
	}
	snap, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	hospital, ok := snap.AcceptedHospital(hospitalID)
	if !ok {
		return nil, ErrHospitalNotAccepted
	}
	if !ActionsFor(snap).Has(ActionFinalize) {
		return nil, fmt.Errorf("finalize %s request: %w", snap.Status, ErrActionNotAllowed)
	}

	if err := s.repo.Finalize(ctx, id, hospitalID); err != nil {
		return nil, fmt.Errorf("finalize emergency request: %w", err)
	}
	s.logger.Info().Str("request_id", id).Str("hospital_id", hospitalID).Msg("hospital finalized")

	return &ActionResult{
		Request: s.refetch(ctx, id, snap),
		Notice:  notification.Success("Hospital finalized", hospital.Name+" has been finalized for this emergency request."),
	}, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (*ActionResult, error) {
	snap, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ActionsFor(snap).Has(ActionCancel) {
		return nil, fmt.Errorf("cancel %s request: %w", snap.Status, ErrActionNotAllowed)
	}

	if err := s.repo.Cancel(ctx, id); err != nil {
		return nil, fmt.Errorf("cancel emergency request: %w", err)
	}
	s.logger.Info().Str("request_id", id).Msg("emergency request cancelled")

	return &ActionResult{
		Request:  s.refetch(ctx, id, snap),
		Notice:   notification.Success("Request cancelled", "The emergency request has been cancelled successfully."),
		Redirect: "/requests",
	}, nil
}

// UploadPhoto attaches photo to a request that has none yet.
func (s *Service) UploadPhoto(ctx context.Context, id string, photo *upload.Photo) (*ActionResult, error) {
	if photo == nil {
		return nil, validation.New("file", "Please select a valid image file")
	}
	if photo.Size > s.maxPhotoBytes {
		return nil, validation.New("file", "Image size should be less than 5MB")
	}
	snap, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.HasPhoto() {
		return nil, ErrPhotoAlreadyAttached
	}

	if err := s.repo.UploadPhoto(ctx, id, photo); err != nil {
		return nil, fmt.Errorf("upload emergency photo: %w", err)
	}
	s.logger.Info().
		Str("request_id", id).
		Int64("size", photo.Size).
		Str("content_type", photo.ContentType).
		Msg("emergency photo uploaded")

	return &ActionResult{
		Request: s.refetch(ctx, id, snap),
		Notice:  notification.Success("Photo uploaded", "Emergency image uploaded successfully"),
	}, nil
}

// refetch loads the authoritative snapshot after a mutation. If that fails
// the mutation still succeeded, so the pre-mutation snapshot is returned and
// the next poll catches up.
func (s *Service) refetch(ctx context.Context, id string, before *Request) *Request {
	fresh, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("request_id", id).Msg("refetch after mutation failed")
		return before
	}
	return fresh
}

// FailureNotice is the message shown when action fails.
func FailureNotice(action Action, err error) notification.Notice {
	var locErr *LocationError
	if errors.As(err, &locErr) {
		return locErr.Notice()
	}
	if ve, ok := validation.As(err); ok {
		return notification.Error("Invalid input", ve.Message)
	}
	switch {
	case errors.Is(err, ErrPhotoAlreadyAttached),
		errors.Is(err, ErrHospitalNotAccepted),
		errors.Is(err, ErrActionNotAllowed):
		return notification.Error("Action unavailable", err.Error())
	}

	switch action {
	case ActionFinalize:
		return notification.Error("Finalize failed", "Failed to finalize hospital. Please try again.")
	case ActionCancel:
		return notification.Error("Cancel failed", "Failed to cancel request. Please try again.")
	case ActionUploadPhoto:
		return notification.Error("Upload failed", "Failed to upload image. Please try again.")
	default:
		return notification.Error("Something went wrong", "Please try again.")
	}
}
