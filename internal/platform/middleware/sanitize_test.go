package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newSanitizeEcho(logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.Use(Sanitize(logger))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/*", ok)
	e.POST("/*", ok)
	return e
}

func TestSanitize_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header [2]string
		reason string
	}{
		{"dot dot", "/api/requests/../profile", [2]string{}, "Path traversal detected"},
		{"encoded dot dot", "/api/requests/%2e%2e/profile", [2]string{}, "Path traversal detected"},
		{"double encoded", "/api/requests/%252e%252e/profile", [2]string{}, "Path traversal detected"},
		{"null byte in path", "/api/requests/%00", [2]string{}, "Null byte injection detected"},
		{"null byte in query", "/api/requests?status=%00", [2]string{}, "Null byte injection detected in query parameter"},
		{"script in query", "/api/requests?status=%3Cscript%3Ealert(1)%3C/script%3E", [2]string{}, "Script injection detected in query parameter"},
		{"handler attribute in query", "/api/requests?status=x%20onload%3Dalert(1)", [2]string{}, "Script injection detected in query parameter"},
		{"oversized header", "/api/me", [2]string{"X-Big", strings.Repeat("a", maxHeaderValueSize+1)}, "Header value exceeds maximum size: X-Big"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newSanitizeEcho(zerolog.Nop())
			// url.Parse keeps dot segments; resolving against a base would
			// clean them before the middleware runs.
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			u, err := url.Parse(tt.target)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.target, err)
			}
			req.URL = u
			req.RequestURI = tt.target
			if tt.header[0] != "" {
				req.Header.Set(tt.header[0], tt.header[1])
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("expected JSON body: %v", err)
			}
			if body.Message != tt.reason {
				t.Errorf("expected %q, got %q", tt.reason, body.Message)
			}
		})
	}
}

func TestSanitize_HeaderInjection(t *testing.T) {
	e := newSanitizeEcho(zerolog.Nop())
	for _, v := range []string{"a\r\nSet-Cookie: x=1", "a\rb", "a\nb"} {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header["X-Custom"] = []string{v}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%q: expected 400, got %d", v, rec.Code)
		}
	}
}

func TestSanitize_NormalRequestsPassThrough(t *testing.T) {
	e := newSanitizeEcho(zerolog.Nop())
	for _, target := range []string{
		"/api/requests?status=pending",
		"/api/requests/6844aea7660042c582c83f04",
		"/api/profile/history/disease/6844aea7660042c582c83f05",
		"/ws/requests/6844aea7660042c582c83f04",
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", target, rec.Code)
		}
	}
}

func TestSanitize_LogsRejections(t *testing.T) {
	var buf bytes.Buffer
	e := newSanitizeEcho(zerolog.New(&buf))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/requests?status=%00", nil))

	if !strings.Contains(buf.String(), `"reason":"Null byte injection detected in query parameter"`) {
		t.Errorf("expected a warn line with the reason, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("expected warn level, got %s", buf.String())
	}
}
