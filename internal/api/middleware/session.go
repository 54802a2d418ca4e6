package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// SessionHeader carries the session id on authenticated REST requests.
const SessionHeader = "X-Session-ID"

// SessionMiddleware authenticates requests against persisted sessions.
// Sessions are written at login with the user id always populated, so a
// successfully resolved session always yields a principal.
type SessionMiddleware struct {
	sessions store.SessionStore
}

// NewSessionMiddleware creates a new SessionMiddleware with the given dependencies.
func NewSessionMiddleware(sessions store.SessionStore) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
	}
}

// Authenticate resolves the X-Session-ID header to a user and adds the
// user ID to the request context for authorized requests.
func (m *SessionMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(SessionHeader)
		if raw == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Session ID required")
			return
		}

		sessionID, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid session ID")
			return
		}

		session, err := m.sessions.GetByID(r.Context(), sessionID)
		if err != nil {
			// Missing and expired sessions look the same to the client.
			if errors.Is(err, store.ErrSessionNotFound) {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Session not found or expired")
				return
			}
			slog.Error("failed to resolve session", "error", redact.Error(err))
			shared.RespondWithError(
				w,
				r,
				http.StatusInternalServerError,
				"Authentication error",
			)
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, session.UserID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the user ID from the request context.
// Returns the user ID and a boolean indicating if it was found.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok
}
