package emergency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/apiclient"
	"github.com/relief/relief/internal/platform/notification"
)

// DefaultPollInterval is the refresh period of a tracker.
const DefaultPollInterval = 15 * time.Second

// State is the tracker's view state.
type State int

const (
	StateLoading State = iota
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "loading"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// View is what a tracker publishes after every change. Detail holds the last
// good snapshot and survives failed fetches.
type View struct {
	State     State     `json:"state"`
	Detail    *Detail   `json:"detail,omitempty"`
	Error     string    `json:"error,omitempty"`
	Stopped   bool      `json:"stopped"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`

	err error
}

// Err returns the last fetch error, if the view is in StateError.
func (v View) Err() error { return v.err }

// Ticker delivers poll ticks. It is satisfied by a wrapped time.Ticker in
// production and by a manual ticker in tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Fetcher loads the current snapshot of a request.
type Fetcher interface {
	Get(ctx context.Context, id string) (*Request, error)
}

type TrackerConfig struct {
	Interval       time.Duration
	StopOnTerminal bool
	NewTicker      func(time.Duration) Ticker
}

// ErrSessionExpired ends tracking when the backend rejects the session.
var ErrSessionExpired = errors.New("session expired")

type fetchResult struct {
	req *Request
	err error
}

// Tracker polls one request for as long as its Run context lives. At most
// one fetch is in flight at a time; ticks that arrive meanwhile are dropped
// and refreshes are coalesced into one follow-up fetch.
type Tracker struct {
	id       string
	fetcher  Fetcher
	cfg      TrackerConfig
	notifier notification.Notifier
	logger   zerolog.Logger

	updates chan View
	refresh chan struct{}

	mu   sync.Mutex
	view View
}

func NewTracker(id string, fetcher Fetcher, cfg TrackerConfig, notifier notification.Notifier, logger zerolog.Logger) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTimeTicker
	}
	if notifier == nil {
		notifier = notification.Discard
	}
	return &Tracker{
		id:       id,
		fetcher:  fetcher,
		cfg:      cfg,
		notifier: notifier,
		logger:   logger.With().Str("component", "tracker").Str("request_id", id).Logger(),
		updates:  make(chan View, 8),
		refresh:  make(chan struct{}, 1),
	}
}

// ID returns the tracked request id.
func (t *Tracker) ID() string { return t.id }

// Updates delivers every published view. It is closed when Run returns.
func (t *Tracker) Updates() <-chan View { return t.updates }

// View returns the latest published view.
func (t *Tracker) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view
}

// Refresh asks for an immediate fetch. It never blocks. A refresh that lands
// while a fetch is in flight is held and issued as soon as that fetch
// returns, since the in-flight result may predate the change being refreshed.
func (t *Tracker) Refresh() {
	select {
	case t.refresh <- struct{}{}:
	default:
	}
}

// Run fetches immediately, then once per tick, until ctx is cancelled or a
// terminal status is seen. It returns nil on a terminal stop, ctx.Err() on
// teardown and ErrSessionExpired when the backend answers 401. No fetch is
// started after Run returns, and any fetch in flight is cancelled first.
func (t *Tracker) Run(ctx context.Context) error {
	defer close(t.updates)

	fetchCtx, cancelFetch := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancelFetch()

	ticker := t.cfg.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	results := make(chan fetchResult, 1)
	inFlight, refreshPending := false, false
	start := func(reason string) {
		if inFlight {
			if reason == "refresh" {
				refreshPending = true
				t.logger.Debug().Msg("fetch in flight, refresh queued")
				return
			}
			t.logger.Debug().Str("trigger", reason).Msg("fetch in flight, skipping")
			return
		}
		inFlight = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := t.fetcher.Get(fetchCtx, t.id)
			results <- fetchResult{req: req, err: err}
		}()
	}

	t.publish(ctx, View{State: StateLoading})
	start("mount")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			start("tick")
		case <-t.refresh:
			start("refresh")
		case res := <-results:
			inFlight = false
			if ctx.Err() != nil {
				return ctx.Err()
			}
			stop, err := t.apply(ctx, res)
			if stop {
				return err
			}
			if refreshPending {
				refreshPending = false
				start("refresh")
			}
		}
	}
}

// apply folds a fetch result into the view and reports whether tracking
// should end.
func (t *Tracker) apply(ctx context.Context, res fetchResult) (bool, error) {
	prev := t.View()

	if res.err != nil {
		next := prev
		next.State = StateError
		next.Error = res.err.Error()
		next.err = res.err

		t.logger.Warn().Err(res.err).Msg("fetch failed")
		t.notifier.Notify(ctx, notification.Error("Failed to fetch request details", userMessage(res.err)))

		if apiclient.IsUnauthorized(res.err) {
			next.Stopped = true
			t.publish(ctx, next)
			return true, fmt.Errorf("track %s: %w", t.id, ErrSessionExpired)
		}
		t.publish(ctx, next)
		return false, nil
	}

	if prev.Detail != nil && !prev.Detail.Request.Status.CanTransition(res.req.Status) {
		t.logger.Warn().
			Str("from", string(prev.Detail.Request.Status)).
			Str("to", string(res.req.Status)).
			Msg("unexpected status transition")
	}

	next := View{
		State:     StateLoaded,
		Detail:    NewDetail(res.req),
		FetchedAt: time.Now().UTC(),
	}
	if t.cfg.StopOnTerminal && res.req.Status.IsTerminal() {
		next.Stopped = true
		t.publish(ctx, next)
		t.logger.Info().Str("status", string(res.req.Status)).Msg("terminal status, tracking stopped")
		return true, nil
	}
	t.publish(ctx, next)
	return false, nil
}

func (t *Tracker) publish(ctx context.Context, v View) {
	t.mu.Lock()
	t.view = v
	t.mu.Unlock()

	select {
	case t.updates <- v:
	case <-ctx.Done():
	}
}

func userMessage(err error) string {
	switch {
	case apiclient.IsUnauthorized(err):
		return "You were logged out, please login again."
	case apiclient.IsServerError(err), apiclient.IsTransport(err):
		return "Something went wrong. Showing the last known status."
	case errors.Is(err, ErrNotFound):
		return "This request could not be found."
	default:
		return err.Error()
	}
}
