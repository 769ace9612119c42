package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/yubimoji/internal/app"
	"github.com/ayusman/yubimoji/internal/detector"
	"github.com/ayusman/yubimoji/internal/event"
)

// Inbound message types on /api/session.
const (
	inboundLandmarks = "landmarks"
	inboundReset     = "reset"
	inboundState     = "state"
)

// inboundMessage carries landmarks computed by a browser-side detector.
// Each hand is a list of 21 points.
type inboundMessage struct {
	Type  string               `json:"type"`
	Hands [][]detector.Point3D `json:"hands"`
}

// SessionHandler gives every WebSocket connection its own recognition
// session. Clients stream landmarks in and receive sign and word updates.
type SessionHandler struct {
	app    *app.App
	logger *slog.Logger
}

// NewSessionHandler creates a SessionHandler backed by a.
func NewSessionHandler(a *app.App, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{app: a, logger: logger}
}

// sessionPeer forwards one session's events to its client and stops
// accepting them once the connection is gone.
type sessionPeer struct {
	client *client
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

func (p *sessionPeer) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Warn("failed to encode websocket message", "type", msg.Type, "error", err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if !p.client.enqueue(data) {
		p.logger.Debug("websocket client too slow, dropping message", "type", msg.Type)
	}
}

func (p *sessionPeer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.client.send)
	}
}

func (p *sessionPeer) SignUpdated(u event.SignUpdate) {
	msg := newMessage(MessageSign)
	msg.Sign = &u
	p.send(msg)
}

func (p *sessionPeer) WordResolved(w event.WordEvent) {
	msg := newMessage(MessageWord)
	msg.Word = &w
	p.send(msg)
}

func (p *sessionPeer) sendError(format string, args ...any) {
	msg := newMessage(MessageError)
	msg.Error = fmt.Sprintf(format, args...)
	p.send(msg)
}

func (p *sessionPeer) sendState(state app.State) {
	msg := newMessage(MessageState)
	msg.SessionID = state.SessionID
	msg.State = state
	p.send(msg)
}

// ServeHTTP upgrades the request and runs the session until the client disconnects.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", "error", err)
		return
	}

	session, err := h.app.NewSession(uuid.New().String())
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		conn.Close()
		return
	}
	logger := h.logger.With("session_id", session.ID())

	c := newClient(conn)
	peer := &sessionPeer{client: c, logger: logger}
	session.AddObserver(peer)
	go c.writePump()

	logger.Info("session connected", "remote", r.RemoteAddr)
	peer.sendState(session.State())

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		if err := session.Close(); err != nil {
			logger.Debug("session close", "error", err)
		}
		peer.close()
		logger.Info("session disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", "error", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			peer.sendError("invalid message: %v", err)
			continue
		}

		switch msg.Type {
		case inboundLandmarks:
			hands, err := toHands(msg.Hands)
			if err != nil {
				peer.sendError("%v", err)
				continue
			}
			session.HandleDetection(ctx, hands, time.Now())
		case inboundReset:
			session.Reset()
			peer.sendState(session.State())
		case inboundState:
			peer.sendState(session.State())
		default:
			peer.sendError("unknown message type %q", msg.Type)
		}
	}
}

func toHands(raw [][]detector.Point3D) ([]detector.HandLandmarks, error) {
	hands := make([]detector.HandLandmarks, 0, len(raw))
	for i, points := range raw {
		if len(points) != detector.NumLandmarks {
			return nil, fmt.Errorf("hand %d: expected %d landmarks, got %d", i, detector.NumLandmarks, len(points))
		}
		var hand detector.HandLandmarks
		copy(hand.Points[:], points)
		hands = append(hands, hand)
	}
	return hands, nil
}
