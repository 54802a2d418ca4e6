package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/mocks"
)

func sessionFixture(userID uuid.UUID, ttl time.Duration) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func runSessionMiddleware(t *testing.T, sessions *mocks.MockSessionStore, header string) (*httptest.ResponseRecorder, uuid.UUID, bool) {
	t.Helper()

	var gotUserID uuid.UUID
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotUserID, _ = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	if header != "" {
		req.Header.Set(SessionHeader, header)
	}
	rec := httptest.NewRecorder()

	NewSessionMiddleware(sessions).Authenticate(next).ServeHTTP(rec, req)
	return rec, gotUserID, called
}

func TestSessionMiddleware_ValidSession(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	session := sessionFixture(userID, time.Hour)
	sessions := &mocks.MockSessionStore{
		Sessions: map[uuid.UUID]*domain.Session{session.ID: session},
	}

	rec, gotUserID, called := runSessionMiddleware(t, sessions, session.ID.String())

	require.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUserID)
}

func TestSessionMiddleware_MissingHeader(t *testing.T) {
	t.Parallel()

	rec, _, called := runSessionMiddleware(t, &mocks.MockSessionStore{}, "")

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionMiddleware_MalformedSessionID(t *testing.T) {
	t.Parallel()

	rec, _, called := runSessionMiddleware(t, &mocks.MockSessionStore{}, "definitely-not-a-uuid")

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionMiddleware_UnknownSession(t *testing.T) {
	t.Parallel()

	rec, _, called := runSessionMiddleware(t, &mocks.MockSessionStore{}, uuid.NewString())

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionMiddleware_ExpiredSession(t *testing.T) {
	t.Parallel()

	session := sessionFixture(uuid.New(), -time.Minute)
	sessions := &mocks.MockSessionStore{
		Sessions: map[uuid.UUID]*domain.Session{session.ID: session},
	}

	rec, _, called := runSessionMiddleware(t, sessions, session.ID.String())

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
