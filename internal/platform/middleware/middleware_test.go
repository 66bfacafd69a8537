package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/apiclient"
)

// -- RequestID --

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	var seen, fromCtx string
	h := RequestID()(func(c echo.Context) error {
		seen, _ = c.Get("request_id").(string)
		fromCtx = apiclient.RequestIDFrom(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seen == "" {
		t.Fatal("expected request_id to be generated")
	}
	if fromCtx != seen {
		t.Errorf("expected context id %q, got %q", seen, fromCtx)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("expected response header %q, got %q", seen, rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequestID()(func(c echo.Context) error {
		if rid := apiclient.RequestIDFrom(c.Request().Context()); rid != "my-custom-id" {
			t.Errorf("expected my-custom-id, got %s", rid)
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected echoed header, got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_ReplacesOversizedID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	long := strings.Repeat("x", 129)
	req.Header.Set(RequestIDHeader, long)
	c := e.NewContext(req, httptest.NewRecorder())

	h := RequestID()(func(c echo.Context) error {
		if rid := c.Get("request_id").(string); rid == long || rid == "" {
			t.Errorf("expected a fresh id, got %q", rid)
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// -- Logger --

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/requests", nil), httptest.NewRecorder())
	c.Set("request_id", "req-123")

	h := Logger(zerolog.New(&buf))(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"level":"info"`, `"request_id":"req-123"`, `"path":"/api/requests"`, `"status":200`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestLogger_WritesErrorResponse(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/requests/x", nil), rec)

	h := Logger(zerolog.New(&buf))(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "emergency request not found")
	})
	if err := h(c); err != nil {
		t.Fatalf("expected the logger to hand the error to the error handler, got %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 written, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), `"status":404`) {
		t.Errorf("expected a warn line with status 404, got %s", buf.String())
	}
}

// -- Recovery --

func TestRecovery_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/panic", nil), httptest.NewRecorder())

	h := Recovery(zerolog.New(&buf))(func(c echo.Context) error {
		panic("test panic")
	})
	err := h(c)

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError || httpErr.Message != "Something went wrong" {
		t.Errorf("unexpected error %v", httpErr)
	}
	if !strings.Contains(buf.String(), `"panic":"test panic"`) {
		t.Errorf("expected the panic to be logged, got %s", buf.String())
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/ok", nil), httptest.NewRecorder())

	h := Recovery(zerolog.Nop())(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// -- BackendCookies --

func TestBackendCookies_RelaysBothWays(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: "relief_session", Value: "marker"})
	req.AddCookie(&http.Cookie{Name: "token", Value: "backend-token"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := BackendCookies("relief_session")(func(c echo.Context) error {
		bag := apiclient.CookieBagFrom(c.Request().Context())
		if bag == nil {
			t.Fatal("expected a cookie bag on the context")
		}
		out := bag.Outgoing()
		if len(out) != 1 || out[0].Name != "token" || out[0].Value != "backend-token" {
			t.Errorf("expected only the backend cookie to be forwarded, got %+v", out)
		}
		bag.Receive([]*http.Cookie{{Name: "token", Value: "rotated", Path: "/users"}})
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one relayed cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != "token" || ck.Value != "rotated" || ck.Path != "/" || !ck.HttpOnly {
		t.Errorf("unexpected relayed cookie %+v", ck)
	}
}
