// Package websocket streams live request status to browsers. Every
// connection is bound to one topic (a request id) and owns one event source
// for as long as the socket stays open.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/relief/relief/internal/platform/notification"
)

// Event types sent to clients.
const (
	EventSnapshot = "snapshot"
	EventError    = "error"
	EventStopped  = "stopped"
	EventToast    = "toast"
	EventLogout   = "logout"
)

// Event is one message sent to a WebSocket client.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Redirect  string          `json:"redirect,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an event, encoding data as its payload.
func NewEvent(typ, topic string, data any) (Event, error) {
	ev := Event{Type: typ, Topic: topic, Timestamp: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		ev.Data = raw
	}
	return ev, nil
}

// ClientMessage is an inbound message from a WebSocket client. The only
// action understood is "refresh".
type ClientMessage struct {
	Action string `json:"action"`
}

// Client is a single WebSocket connection.
type Client struct {
	ID      string
	Topic   string
	Send    chan []byte
	refresh chan struct{}
}

func newClient(topic string) *Client {
	return &Client{
		ID:      uuid.New().String(),
		Topic:   topic,
		Send:    make(chan []byte, 256),
		refresh: make(chan struct{}, 1),
	}
}

func (c *Client) nudge() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// Hub tracks connected clients by topic. All operations are safe for
// concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> set of clients
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger.With().Str("component", "ws-hub").Logger(),
	}
}

// Register adds a client under its topic.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Topic] == nil {
		h.clients[client.Topic] = make(map[*Client]struct{})
	}
	h.clients[client.Topic][client] = struct{}{}
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := subscribers[client]; !ok {
		return
	}
	delete(subscribers, client)
	if len(subscribers) == 0 {
		delete(h.clients, client.Topic)
	}
	close(client.Send)
}

// Broadcast sends an event to every client on topic. Clients whose buffer is
// full miss the event.
func (h *Hub) Broadcast(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn().Str("client_id", client.ID).Msg("client buffer full, event dropped")
		}
	}
}

// Notify sends a toast to everyone watching topic.
func (h *Hub) Notify(topic string, n notification.Notice) {
	ev, err := NewEvent(EventToast, topic, n)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode notice")
		return
	}
	h.Broadcast(topic, ev)
}

// Refresh asks every source on topic to fetch again now.
func (h *Hub) Refresh(topic string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		client.nudge()
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, subscribers := range h.clients {
		n += len(subscribers)
	}
	return n
}

// TopicCount returns the number of clients watching topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// ---------------------------------------------------------------------------
// Source: what feeds a connection
// ---------------------------------------------------------------------------

// Source produces the events of one connection. Stream runs until ctx is
// cancelled (the socket closed) or the source has nothing more to say.
// refresh delivers nudges from the hub and the client.
type Source interface {
	Stream(ctx context.Context, topic string, refresh <-chan struct{}, emit func(Event)) error
}

type SourceFunc func(ctx context.Context, topic string, refresh <-chan struct{}, emit func(Event)) error

func (f SourceFunc) Stream(ctx context.Context, topic string, refresh <-chan struct{}, emit func(Event)) error {
	return f(ctx, topic, refresh, emit)
}

// ---------------------------------------------------------------------------
// Handler: Echo endpoint for WebSocket connections
// ---------------------------------------------------------------------------

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type Handler struct {
	hub      *Hub
	source   Source
	logger   zerolog.Logger
	upgrader gorillawebsocket.Upgrader
}

// NewHandler binds a hub to the source that feeds each connection. When
// origins is empty any origin may connect. Requests without an Origin header
// come from non-browser clients and are always accepted.
func NewHandler(hub *Hub, source Source, logger zerolog.Logger, origins ...string) *Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return &Handler{
		hub:    hub,
		source: source,
		logger: logger.With().Str("component", "ws").Logger(),
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowed) == 0 || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// RegisterRoutes mounts GET /ws/requests/:id. mw runs before the upgrade.
func (h *Handler) RegisterRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.GET("/ws/requests/:id", h.HandleConnect, mw...)
}

// HandleConnect upgrades the connection, registers the client and starts the
// pumps and the source. The source keeps the request's context values but
// not its cancellation; it lives until the socket closes.
func (h *Handler) HandleConnect(c echo.Context) error {
	topic := c.Param("id")
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(topic)
	h.hub.Register(client)
	logger := h.logger.With().Str("client_id", client.ID).Str("topic", topic).Logger()
	logger.Info().Msg("stream opened")

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))

	go h.writePump(client, ws)
	go h.readPump(client, ws, cancel)
	go func() {
		defer h.hub.Unregister(client)
		defer cancel()

		emit := func(ev Event) {
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Error().Err(err).Msg("failed to marshal event")
				return
			}
			select {
			case client.Send <- data:
			case <-ctx.Done():
			}
		}
		if err := h.source.Stream(ctx, topic, client.refresh, emit); err != nil && ctx.Err() == nil {
			logger.Info().Err(err).Msg("stream ended")
		}
	}()

	return nil
}

// readPump consumes client messages until the connection fails, then
// cancels the source.
func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	ws.SetReadLimit(512)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Action == "refresh" {
			client.nudge()
		}
	}
}

// writePump writes queued events until Send is closed, then closes the
// socket.
func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(gorillawebsocket.CloseMessage,
					gorillawebsocket.FormatCloseMessage(gorillawebsocket.CloseNormalClosure, ""))
				return
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
