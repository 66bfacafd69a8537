package emergency

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/auth"
	"github.com/relief/relief/internal/platform/notification"
	"github.com/relief/relief/internal/platform/validation"
	"github.com/relief/relief/internal/platform/websocket"
)

// LiveStream feeds a WebSocket connection from a tracker. Each call to Stream
// is one mounted detail screen.
type LiveStream struct {
	fetcher Fetcher
	cfg     TrackerConfig
	logger  zerolog.Logger
}

func NewLiveStream(fetcher Fetcher, cfg TrackerConfig, logger zerolog.Logger) *LiveStream {
	return &LiveStream{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Stream tracks the request named by topic until ctx ends or tracking stops.
// Views go out as snapshot or error events, tracker notices as toasts. A
// terminal stop ends with a stopped event and a rejected session with a
// logout event.
func (s *LiveStream) Stream(ctx context.Context, topic string, refresh <-chan struct{}, emit func(websocket.Event)) error {
	send := func(typ string, data any) {
		ev, err := websocket.NewEvent(typ, topic, data)
		if err != nil {
			s.logger.Error().Err(err).Str("type", typ).Msg("failed to encode event")
			return
		}
		if typ == websocket.EventLogout {
			ev.Redirect = auth.LoginRoute
		}
		emit(ev)
	}

	if err := validation.ObjectID("id", topic); err != nil {
		send(websocket.EventError, View{State: StateError, Error: err.Error(), Stopped: true})
		return err
	}

	toasts := notification.NotifierFunc(func(_ context.Context, n notification.Notice) {
		send(websocket.EventToast, n)
	})
	tr := NewTracker(topic, s.fetcher, s.cfg, toasts, s.logger)

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	var last View
	for {
		select {
		case <-refresh:
			tr.Refresh()
		case v, ok := <-tr.Updates():
			if !ok {
				err := <-done
				switch {
				case errors.Is(err, ErrSessionExpired):
					send(websocket.EventLogout, last)
				case err == nil && last.Stopped:
					send(websocket.EventStopped, last)
				}
				return err
			}
			last = v
			if v.State == StateError {
				send(websocket.EventError, v)
			} else {
				send(websocket.EventSnapshot, v)
			}
		}
	}
}
