package emergency

import (
	"errors"

	"github.com/relief/relief/internal/platform/notification"
)

var (
	// ErrLocationUnavailable means coordinates could not be acquired. It is
	// raised before any network call.
	ErrLocationUnavailable  = errors.New("location unavailable")
	ErrPhotoAlreadyAttached = errors.New("a photo is already attached to this request")
	ErrHospitalNotAccepted  = errors.New("hospital has not accepted this request")
	ErrActionNotAllowed     = errors.New("action not allowed in the current status")
	ErrNoCoordinates        = errors.New("hospital coordinates not available")
	ErrNotFound             = errors.New("emergency request not found")
)

// LocationRetryPrompt is shown when coordinates are unavailable.
const LocationRetryPrompt = "Unable to get your location. Please allow location access and try again."

// LocationError wraps the locator's failure. It matches
// ErrLocationUnavailable with errors.Is.
type LocationError struct {
	Cause error
}

func (e *LocationError) Error() string {
	if e.Cause == nil {
		return ErrLocationUnavailable.Error()
	}
	return ErrLocationUnavailable.Error() + ": " + e.Cause.Error()
}

func (e *LocationError) Is(target error) bool { return target == ErrLocationUnavailable }

func (e *LocationError) Unwrap() error { return e.Cause }

// RetryPrompt is the user-facing instruction to try again.
func (e *LocationError) RetryPrompt() string { return LocationRetryPrompt }

// Notice is the transient message for the user.
func (e *LocationError) Notice() notification.Notice {
	return notification.Error("Location Error", LocationRetryPrompt)
}
