package auth

import (
	"context"
	"errors"
)

// ErrNotLoggedIn is returned when no valid login marker is present.
var ErrNotLoggedIn = errors.New("not logged in")

// Store is the only way the rest of the module reads or writes the login
// marker.
type Store interface {
	IsAuthenticated(ctx context.Context) bool
	Identity(ctx context.Context) (Identity, error)
	Login(ctx context.Context, id Identity) error
	Logout(ctx context.Context) error
}
