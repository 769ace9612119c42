package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/yubimoji/internal/detector"
	"github.com/ayusman/yubimoji/internal/event"
)

const (
	maxMessageBytes = 64 << 10
	sendBufferSize  = 32
	writeTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// sameOrigin admits browser pages served by this server and clients that
// send no Origin header. Other sites must not open sessions against the
// user's classifier quota.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Message types sent over WebSocket connections.
const (
	MessageSign      = "sign"
	MessageWord      = "word"
	MessageLandmarks = "landmarks"
	MessageState     = "state"
	MessageError     = "error"
)

// Message is the envelope for every WebSocket message.
type Message struct {
	Type      string                   `json:"type"`
	Sign      *event.SignUpdate        `json:"sign,omitempty"`
	Word      *event.WordEvent         `json:"word,omitempty"`
	SessionID string                   `json:"session_id,omitempty"`
	Hands     []detector.HandLandmarks `json:"hands,omitempty"`
	State     any                      `json:"state,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Timestamp int64                    `json:"timestamp"`
}

func newMessage(kind string) Message {
	return Message{Type: kind, Timestamp: time.Now().UnixMilli()}
}

// client owns one connection. Only its write pump writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	conn.SetReadLimit(maxMessageBytes)
	return &client{conn: conn, send: make(chan []byte, sendBufferSize)}
}

// enqueue queues data without blocking and reports whether it fit.
func (c *client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) writePump() {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.conn.Close()
}

// Hub broadcasts the local session's updates and landmarks to every
// connected /api/events client. Slow clients miss messages rather than
// stalling recognition.
type Hub struct {
	logger  *slog.Logger
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

var (
	_ event.Observer         = (*Hub)(nil)
	_ event.LandmarkObserver = (*Hub)(nil)
)

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", "error", err)
		return
	}

	c := newClient(conn)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	go c.writePump()

	// Incoming messages are ignored; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to encode websocket message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.enqueue(data) {
			h.logger.Debug("websocket client too slow, dropping message", "type", msg.Type)
		}
	}
}

// SignUpdated implements event.Observer.
func (h *Hub) SignUpdated(u event.SignUpdate) {
	msg := newMessage(MessageSign)
	msg.Sign = &u
	h.broadcast(msg)
}

// WordResolved implements event.Observer.
func (h *Hub) WordResolved(w event.WordEvent) {
	msg := newMessage(MessageWord)
	msg.Word = &w
	h.broadcast(msg)
}

// LandmarksDetected implements event.LandmarkObserver.
func (h *Hub) LandmarksDetected(sessionID string, hands []detector.HandLandmarks) {
	if h.Clients() == 0 {
		return
	}
	msg := newMessage(MessageLandmarks)
	msg.SessionID = sessionID
	msg.Hands = hands
	h.broadcast(msg)
}
