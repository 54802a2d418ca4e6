package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// Close codes sent when a handshake is rejected. They sit in the 4000-4999
// range reserved for application use so clients can distinguish an auth
// rejection from a transport failure.
const (
	// CloseMissingSession is sent when the handshake carries no session id,
	// or one that is not a UUID.
	CloseMissingSession = 4001

	// CloseInvalidSession is sent when the session id does not resolve to a
	// live session with an attached principal.
	CloseInvalidSession = 4003
)

// sessionQueryParam and sessionHeader are where the handshake looks for the
// session identifier, in that order.
const (
	sessionQueryParam = "session_id"
	sessionHeader     = "X-Session-ID"
)

// Handler upgrades HTTP requests to WebSocket connections, authenticates
// them against the session store, and registers them for event delivery.
type Handler struct {
	sessions store.SessionStore
	registry *Registry
	cfg      config.RealtimeConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a WebSocket Handler using the given session store and
// registry.
func NewHandler(sessions store.SessionStore, registry *Registry, cfg config.RealtimeConfig, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		registry: registry,
		cfg:      cfg,
		logger:   logger.With("component", "ws_handler"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers enforce same-origin policies upstream; the session
			// check is the actual authentication gate here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler. The whole handshake (upgrade, session
// resolution, registration, connection-confirmed event) must finish within
// the configured auth timeout or the connection is closed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionRaw := r.URL.Query().Get(sessionQueryParam)
	if sessionRaw == "" {
		sessionRaw = r.Header.Get(sessionHeader)
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	authDeadline := time.Now().Add(h.cfg.AuthTimeout)
	_ = ws.SetReadDeadline(authDeadline)
	_ = ws.SetWriteDeadline(authDeadline)

	sessionID, err := uuid.Parse(sessionRaw)
	if sessionRaw == "" || err != nil {
		h.reject(ws, CloseMissingSession, "missing or malformed session id")
		return
	}

	// A slow store must not hold an unauthenticated socket past the auth
	// window.
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.AuthTimeout)
	defer cancel()

	session, err := h.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if !store.IsNotFoundError(err) {
			h.logger.Error("session lookup failed", "error", err)
		}
		h.reject(ws, CloseInvalidSession, "session not found")
		return
	}
	if session.UserID == uuid.Nil {
		h.reject(ws, CloseInvalidSession, "session has no principal")
		return
	}

	conn := newWSConn(ws, h.cfg.WriteTimeout)
	h.registry.Add(session.UserID, conn)

	if err := conn.SendEvent(NewEvent(EventConnected, map[string]interface{}{
		"user_id": session.UserID,
	})); err != nil {
		h.logger.Warn("failed to send connection-confirmed event", "error", err)
		h.registry.Remove(conn)
		_ = conn.Close()
		return
	}

	h.logger.Info("connection registered",
		"user_id", session.UserID,
		"connections", h.registry.Len())

	go h.readPump(session.UserID, conn)
}

// reject closes the socket with the given application close code. Auth
// failures never surface as errors to surrounding handling; the close code
// is the whole signal.
func (h *Handler) reject(ws *websocket.Conn, code int, reason string) {
	h.logger.Debug("rejecting connection", "code", code, "reason", reason)

	deadline := time.Now().Add(h.cfg.WriteTimeout)
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	_ = ws.Close()
}

// readPump consumes frames from the peer for the lifetime of the
// connection. Pongs extend the read deadline; inbound application frames
// are not part of the protocol and get an in-band error frame. Any read
// error means the peer is gone: remove from the registry, unconditionally.
func (h *Handler) readPump(userID uuid.UUID, conn *wsConn) {
	defer func() {
		h.registry.Remove(conn)
		_ = conn.Close()
		h.logger.Debug("connection removed", "user_id", userID)
	}()

	// Allow two missed heartbeats before declaring the peer dead.
	readWait := 2*h.cfg.HeartbeatInterval + h.cfg.WriteTimeout
	_ = conn.ws.SetReadDeadline(time.Now().Add(readWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		if _, _, err := conn.ws.ReadMessage(); err != nil {
			return
		}
		// Mutations arrive over the REST boundary; the socket is
		// push-only.
		_ = conn.SendEvent(NewEvent(EventError, map[string]interface{}{
			"message": "this endpoint does not accept messages",
		}))
	}
}

// wsConn adapts a gorilla websocket connection to the Conn interface.
// gorilla permits one concurrent writer, so all writes serialize through
// the mutex.
type wsConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func newWSConn(ws *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{ws: ws, writeTimeout: writeTimeout}
}

// SendEvent implements Conn.SendEvent.
func (c *wsConn) SendEvent(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteJSON(event)
}

// Ping implements Conn.Ping using a control frame.
func (c *wsConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// Close implements Conn.Close.
func (c *wsConn) Close() error {
	return c.ws.Close()
}
