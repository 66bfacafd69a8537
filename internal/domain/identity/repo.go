package identity

import "context"

// Repository talks to the backend's account endpoints. Session cookies are
// handled by the HTTP client underneath; a nil *User means the backend
// answered without a user document.
type Repository interface {
	Login(ctx context.Context, body LoginBody) (*User, error)
	Register(ctx context.Context, body RegisterBody) (*User, error)
}
