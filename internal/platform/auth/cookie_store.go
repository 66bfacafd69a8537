package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

type contextKey string

const scopeKey contextKey = "auth_scope"

// Scope is the per-request view of the browser's login marker. Writes are
// queued and flushed as Set-Cookie headers when the response is committed.
type Scope struct {
	mu      sync.Mutex
	marker  string
	cleared bool
	pending []*http.Cookie
}

// NewScope starts a scope holding the marker the browser presented.
func NewScope(marker string) *Scope {
	return &Scope{marker: marker}
}

// Pending returns the cookies queued by Login and Logout.
func (s *Scope) Pending() []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Cookie(nil), s.pending...)
}

func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey).(*Scope)
	return s
}

// CookieStore keeps the login marker in a browser cookie for the gateway.
// It reads and writes through the Scope on the request context.
type CookieStore struct {
	codec  *MarkerCodec
	name   string
	secure bool
}

func NewCookieStore(codec *MarkerCodec, name string, secure bool) *CookieStore {
	return &CookieStore{codec: codec, name: name, secure: secure}
}

// CookieName returns the marker cookie name.
func (s *CookieStore) CookieName() string { return s.name }

func (s *CookieStore) IsAuthenticated(ctx context.Context) bool {
	_, err := s.Identity(ctx)
	return err == nil
}

func (s *CookieStore) Identity(ctx context.Context) (Identity, error) {
	scope := ScopeFrom(ctx)
	if scope == nil {
		return Identity{}, ErrNotLoggedIn
	}
	scope.mu.Lock()
	marker := scope.marker
	scope.mu.Unlock()
	return s.codec.Decode(marker)
}

func (s *CookieStore) Login(ctx context.Context, id Identity) error {
	scope := ScopeFrom(ctx)
	if scope == nil {
		return ErrNotLoggedIn
	}
	token, exp, err := s.codec.Encode(id)
	if err != nil {
		return err
	}

	scope.mu.Lock()
	defer scope.mu.Unlock()
	scope.marker = token
	scope.cleared = false
	scope.pending = append(scope.pending, &http.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(s.codec.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout clears the marker. Repeated calls in one request queue a single
// clearing cookie.
func (s *CookieStore) Logout(ctx context.Context) error {
	scope := ScopeFrom(ctx)
	if scope == nil {
		return nil
	}

	scope.mu.Lock()
	defer scope.mu.Unlock()
	if scope.cleared {
		return nil
	}
	scope.cleared = true
	scope.marker = ""
	scope.pending = append(scope.pending, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Middleware opens a Scope for every request and writes queued marker
// cookies just before the response is committed.
func (s *CookieStore) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			marker := ""
			if ck, err := c.Cookie(s.name); err == nil {
				marker = ck.Value
			}
			scope := NewScope(marker)
			c.SetRequest(c.Request().WithContext(WithScope(c.Request().Context(), scope)))

			c.Response().Before(func() {
				for _, ck := range scope.Pending() {
					c.SetCookie(ck)
				}
			})
			return next(c)
		}
	}
}
