package apiclient

import (
	"context"
	"net/http"
	"sync"
)

type contextKey string

const (
	cookieBagKey contextKey = "cookie_bag"
	requestIDKey contextKey = "request_id"
)

// CookieBag carries one caller's backend cookies through a request scope.
// The gateway builds one per inbound request from the browser's cookies and
// relays Received() back to the browser; it never shares a jar between callers.
type CookieBag struct {
	mu       sync.Mutex
	current  map[string]*http.Cookie
	order    []string
	received []*http.Cookie
}

// NewCookieBag seeds a bag with the cookies the caller presented.
func NewCookieBag(in []*http.Cookie) *CookieBag {
	b := &CookieBag{current: make(map[string]*http.Cookie)}
	for _, ck := range in {
		b.set(ck)
	}
	return b
}

func (b *CookieBag) set(ck *http.Cookie) {
	if _, ok := b.current[ck.Name]; !ok {
		b.order = append(b.order, ck.Name)
	}
	b.current[ck.Name] = &http.Cookie{Name: ck.Name, Value: ck.Value}
}

// Outgoing returns the cookies to send on the next backend call.
func (b *CookieBag) Outgoing() []*http.Cookie {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*http.Cookie, 0, len(b.current))
	for _, name := range b.order {
		if ck, ok := b.current[name]; ok {
			out = append(out, ck)
		}
	}
	return out
}

// Receive records Set-Cookie values from a backend response. Later calls in
// the same scope send the updated values; expired cookies stop being sent.
func (b *CookieBag) Receive(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ck := range cookies {
		b.received = append(b.received, ck)
		if ck.MaxAge < 0 {
			delete(b.current, ck.Name)
			continue
		}
		b.set(ck)
	}
}

// Received returns every Set-Cookie seen in this scope, in arrival order.
func (b *CookieBag) Received() []*http.Cookie {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*http.Cookie(nil), b.received...)
}

// WithCookieBag attaches b to ctx. Calls made with the returned context send
// and update b instead of the client's jar.
func WithCookieBag(ctx context.Context, b *CookieBag) context.Context {
	return context.WithValue(ctx, cookieBagKey, b)
}

// CookieBagFrom returns the bag attached to ctx, if any.
func CookieBagFrom(ctx context.Context) *CookieBag {
	b, _ := ctx.Value(cookieBagKey).(*CookieBag)
	return b
}

// WithRequestID propagates an inbound request id to backend calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request id attached to ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
