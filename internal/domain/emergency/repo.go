package emergency

import (
	"context"

	"github.com/relief/relief/internal/platform/upload"
)

// RequestRepository is the backend surface for emergency requests.
type RequestRepository interface {
	Create(ctx context.Context, body CreateBody) (string, error)
	Get(ctx context.Context, id string) (*Request, error)
	ListByStatus(ctx context.Context, status Status) ([]Summary, error)
	Finalize(ctx context.Context, id, hospitalID string) error
	Cancel(ctx context.Context, id string) error
	UploadPhoto(ctx context.Context, id string, photo *upload.Photo) error
}
