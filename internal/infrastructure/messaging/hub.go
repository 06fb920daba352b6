// Package messaging delivers notifications to connected members over
// websockets.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/timory/timory-hub/internal/domain/notification"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// EventNotification is the event name of a pushed notification.
const EventNotification = "notification"

var (
	ErrHubClosed  = errors.New("hub is closed")
	ErrSlowClient = errors.New("client send buffer is full")
)

// Envelope is the frame written to clients.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type client struct {
	memberID string
	conn     *websocket.Conn
	send     chan []byte
}

// Hub keeps the live connections of each member.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	closed   bool
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws_hub").Logger(),
	}
}

var _ notification.Pusher = (*Hub)(nil)

// Serve upgrades the request and registers the connection under memberID.
// It blocks until the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, memberID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{memberID: memberID, conn: conn, send: make(chan []byte, sendBuffer)}
	if err := h.register(c); err != nil {
		_ = conn.Close()
		return err
	}

	go h.writePump(c)
	h.readPump(c)
	return nil
}

// Push sends n to every connection of the receiver. An offline receiver is
// not an error.
func (h *Hub) Push(ctx context.Context, n *notification.Notification) error {
	payload, err := json.Marshal(Envelope{Event: EventNotification, Data: n})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}

	var pushErr error
	for c := range h.clients[n.ReceiverID] {
		select {
		case c.send <- payload:
		default:
			pushErr = ErrSlowClient
		}
	}
	return pushErr
}

// Online returns how many connections memberID holds.
func (h *Hub) Online(memberID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[memberID])
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.clients {
		for c := range set {
			close(c.send)
		}
	}
	h.clients = make(map[string]map[*client]struct{})
}

func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	set, ok := h.clients[c.memberID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.memberID] = set
	}
	set[c] = struct{}{}
	h.log.Debug().Str("member_id", c.memberID).Int("connections", len(set)).Msg("client connected")
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.memberID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.memberID)
	}
	h.log.Debug().Str("member_id", c.memberID).Msg("client disconnected")
}

// readPump only handles control frames; clients do not send messages.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Str("member_id", c.memberID).Msg("websocket read failed")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
