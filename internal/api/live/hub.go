// Package live streams dashboard snapshots to websocket clients.
package live

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/api/handler"
	"github.com/its-hmtu/vote-dashboard/internal/api/metrics"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
	// DefaultMaxClients bounds concurrent dashboards.
	DefaultMaxClients = 64
)

// ErrTooManyClients is returned when the hub is full.
var ErrTooManyClients = errors.New("live: too many clients")

const msgSnapshot = "snapshot"

type message struct {
	Type    string                       `json:"type"`
	Payload handler.LiveSnapshotResponse `json:"payload"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Hub fans LiveSnapshots out to connected dashboards. The most recent
// snapshot is replayed to every new client.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	latest     []byte
	maxClients int
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

var _ ports.LivePublisher = (*Hub)(nil)

// NewHub creates a Hub. allowedOrigins empty accepts any origin.
func NewHub(maxClients int, allowedOrigins []string, log zerolog.Logger) *Hub {
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	h := &Hub{
		clients:    make(map[*client]struct{}),
		maxClients: maxClients,
		log:        log,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// Publish implements ports.LivePublisher.
func (h *Hub) Publish(s ports.LiveSnapshot) {
	data, err := json.Marshal(message{Type: msgSnapshot, Payload: handler.ToLiveResponse(s)})
	if err != nil {
		h.log.Error().Err(err).Msg("live snapshot marshal failed")
		return
	}

	h.mu.Lock()
	h.latest = data
	h.mu.Unlock()

	// Sends are non-blocking; holding the read lock keeps remove from
	// closing a channel mid-send.
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn().Msg("live client too slow, disconnecting")
		h.remove(c)
	}
}

// ServeWS handles GET /v1/live.
//
// @Summary      Live tally stream
// @Description  Websocket. Every message is {"type":"snapshot","payload":LiveSnapshotResponse}.
// @Tags         sessions
// @Security     BearerAuth
// @Param        access_token  query  string  false  "Bearer token for browsers"
// @Success      101
// @Failure      503  {object}  map[string]string
// @Router       /v1/live [get]
func (h *Hub) ServeWS(c echo.Context) error {
	if h.ClientCount() >= h.maxClients {
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrTooManyClients.Error())
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Debug().Err(err).Msg("live upgrade failed")
		return nil
	}

	cl, err := h.add(conn)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeTimeout))
		_ = conn.Close()
		return nil
	}
	h.log.Debug().Str("remote", c.RealIP()).Msg("live client connected")

	// Clients never send; reading detects the close.
	go func() {
		defer h.remove(cl)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

func (h *Hub) add(conn *websocket.Conn) (*client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= h.maxClients {
		return nil, ErrTooManyClients
	}

	c := newClient(conn)
	h.clients[c] = struct{}{}
	metrics.LiveClients.Set(float64(len(h.clients)))
	if h.latest != nil {
		c.send <- h.latest
	}
	return c, nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		metrics.LiveClients.Set(float64(len(h.clients)))
	}
}

// ClientCount returns the number of connected dashboards.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.LiveClients.Set(0)
}
