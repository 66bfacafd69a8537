// Package apiclient is the single HTTP client every backend call goes
// through. It prefixes the API base URL, sends credentials, and applies the
// global error policy: a 401 from any endpoint invokes the registered
// UnauthorizedHandler before the error is handed back to the caller.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader is forwarded on every backend call.
const RequestIDHeader = "X-Request-ID"

// UnauthorizedHandler reacts to a 401 from the backend, typically by clearing
// the login marker and sending the user to the login route.
type UnauthorizedHandler interface {
	OnUnauthorized(ctx context.Context)
}

// UnauthorizedFunc adapts a function to UnauthorizedHandler.
type UnauthorizedFunc func(ctx context.Context)

func (f UnauthorizedFunc) OnUnauthorized(ctx context.Context) { f(ctx) }

// Config controls the underlying transport.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Jar holds backend cookies across calls for a single-user process such
	// as the CLI. Leave nil for multi-user processes and scope cookies per
	// call with WithCookieBag instead.
	Jar http.CookieJar
}

// Option customises a Client.
type Option func(*Client)

// WithUnauthorizedHandler registers the global 401 handler.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

// WithTransport swaps the HTTP transport, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.rc.SetTransport(rt) }
}

// Client wraps resty with the backend's conventions.
type Client struct {
	rc             *resty.Client
	logger         zerolog.Logger
	onUnauthorized UnauthorizedHandler
}

// New builds a client for cfg.BaseURL.
func New(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetRetryCount(0).
		SetLogger(restyLogger{logger: logger}).
		SetCookieJar(cfg.Jar)
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}

	c := &Client{
		rc:     rc,
		logger: logger.With().Str("component", "apiclient").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Multipart describes a multipart/form-data upload.
type Multipart struct {
	Fields    map[string]string
	FileField string
	FileName  string
	File      io.Reader
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, jsonBody(nil), out)
}

// Post issues a POST with a JSON body. A nil body sends no payload.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, jsonBody(body), out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, jsonBody(body), out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, jsonBody(body), out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, jsonBody(nil), out)
}

// PostMultipart uploads form fields and one file. The transport sets the
// multipart boundary; no JSON content type is sent.
func (c *Client) PostMultipart(ctx context.Context, path string, form Multipart, out any) error {
	return c.do(ctx, http.MethodPost, path, func(r *resty.Request) {
		if len(form.Fields) > 0 {
			r.SetFormData(form.Fields)
		}
		if form.File != nil {
			r.SetFileReader(form.FileField, form.FileName, form.File)
		}
	}, out)
}

func jsonBody(body any) func(*resty.Request) {
	return func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json")
		if body != nil {
			r.SetBody(body)
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, prepare func(*resty.Request), out any) error {
	reqID := RequestIDFrom(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}

	req := c.rc.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, reqID).
		SetHeader("Accept", "application/json")

	bag := CookieBagFrom(ctx)
	if bag != nil {
		req.SetCookies(bag.Outgoing())
	}
	prepare(req)

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("path", path).
			Str("request_id", reqID).
			Msg("backend request failed")
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}

	if bag != nil {
		bag.Receive(resp.Cookies())
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("latency", time.Since(start)).
		Str("request_id", reqID).
		Msg("backend request")

	if resp.IsError() {
		return c.handleError(ctx, method, path, reqID, resp)
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) handleError(ctx context.Context, method, path, reqID string, resp *resty.Response) error {
	apiErr := &Error{
		Method:  method,
		Path:    path,
		Status:  resp.StatusCode(),
		Message: messageOf(resp.Body()),
		Body:    resp.Body(),
	}

	switch {
	case apiErr.Status == http.StatusUnauthorized:
		c.logger.Warn().
			Str("path", path).
			Str("request_id", reqID).
			Msg("authentication failed or session expired")
		if c.onUnauthorized != nil {
			c.onUnauthorized.OnUnauthorized(ctx)
		}
	case apiErr.Status == http.StatusForbidden:
		c.logger.Warn().
			Str("path", path).
			Str("request_id", reqID).
			Msg("access forbidden")
	case apiErr.Status >= http.StatusInternalServerError:
		c.logger.Error().
			Str("path", path).
			Int("status", apiErr.Status).
			Str("request_id", reqID).
			Bytes("body", apiErr.Body).
			Msg("backend server error")
	}

	return apiErr
}

// restyLogger routes resty's internal warnings through zerolog.
type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.logger.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.logger.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.logger.Debug().Msgf(format, v...) }
