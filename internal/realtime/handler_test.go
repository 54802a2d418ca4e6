package realtime_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/mocks"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/realtime"
)

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		AuthTimeout:       2 * time.Second,
		HeartbeatInterval: time.Second,
		WriteTimeout:      time.Second,
	}
}

func newHandshakeServer(t *testing.T, sessions *mocks.MockSessionStore) (*httptest.Server, *realtime.Registry) {
	t.Helper()

	log, _ := logger.GetTestLogger(t)
	registry := realtime.NewRegistry()
	handler := realtime.NewHandler(sessions, registry, testRealtimeConfig(), log)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, registry
}

func wsURL(server *httptest.Server, query string) string {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	if query != "" {
		url += "?" + query
	}
	return url
}

func readClose(t *testing.T, ws *websocket.Conn) int {
	t.Helper()

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)

	closeErr, ok := err.(*websocket.CloseError)
	require.True(t, ok, "expected a close frame, got %v", err)
	return closeErr.Code
}

func TestHandler_ValidSessionRegistersAndConfirms(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	sessions := &mocks.MockSessionStore{
		Sessions: map[uuid.UUID]*domain.Session{
			sessionID: {
				ID:        sessionID,
				UserID:    userID,
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
	}
	server, registry := newHandshakeServer(t, sessions)

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(server, "session_id="+sessionID.String()), nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	var event realtime.Event
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, ws.ReadJSON(&event))
	assert.Equal(t, realtime.EventConnected, event.Type)

	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, userID.String(), data["user_id"])

	assert.True(t, registry.Contains(userID))
}

func TestHandler_MissingSessionIDCloses4001(t *testing.T) {
	server, registry := newHandshakeServer(t, &mocks.MockSessionStore{})

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(server, ""), nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	assert.Equal(t, realtime.CloseMissingSession, readClose(t, ws))
	assert.Equal(t, 0, registry.Len())
}

func TestHandler_MalformedSessionIDCloses4001(t *testing.T) {
	server, registry := newHandshakeServer(t, &mocks.MockSessionStore{})

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(server, "session_id=not-a-uuid"), nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	assert.Equal(t, realtime.CloseMissingSession, readClose(t, ws))
	assert.Equal(t, 0, registry.Len())
}

func TestHandler_UnknownSessionCloses4003(t *testing.T) {
	server, registry := newHandshakeServer(t, &mocks.MockSessionStore{})

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(server, "session_id="+uuid.NewString()), nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	assert.Equal(t, realtime.CloseInvalidSession, readClose(t, ws))
	assert.Equal(t, 0, registry.Len())
}

func TestHandler_SessionIDFromHeader(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	sessions := &mocks.MockSessionStore{
		Sessions: map[uuid.UUID]*domain.Session{
			sessionID: {
				ID:        sessionID,
				UserID:    userID,
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
	}
	server, registry := newHandshakeServer(t, sessions)

	header := http.Header{"X-Session-Id": []string{sessionID.String()}}
	ws, _, err := websocket.DefaultDialer.Dial(wsURL(server, ""), header)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	var event realtime.Event
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, ws.ReadJSON(&event))
	assert.Equal(t, realtime.EventConnected, event.Type)
	assert.True(t, registry.Contains(userID))
}

func TestHandler_PeerCloseRemovesRegistration(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	sessions := &mocks.MockSessionStore{
		Sessions: map[uuid.UUID]*domain.Session{
			sessionID: {
				ID:        sessionID,
				UserID:    userID,
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
	}
	server, registry := newHandshakeServer(t, sessions)

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(server, "session_id="+sessionID.String()), nil)
	require.NoError(t, err)

	var event realtime.Event
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, ws.ReadJSON(&event))
	require.NoError(t, ws.Close())

	// The read pump notices the close asynchronously.
	assert.Eventually(t, func() bool {
		return registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
