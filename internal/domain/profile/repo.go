package profile

import "context"

// Repository is the backend's patient profile API.
type Repository interface {
	Get(ctx context.Context) (*Profile, error)
	UpdatePersonal(ctx context.Context, body PersonalBody) error

	AddContact(ctx context.Context, c Contact) error
	UpdateContact(ctx context.Context, id string, c Contact) error
	DeleteContact(ctx context.Context, id string) error

	SaveHistory(ctx context.Context, item HistoryItem) error
	DeleteHistory(ctx context.Context, kind Kind, id string) error
}
