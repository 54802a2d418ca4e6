package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
)

// SessionStore resolves session ids to authenticated principals. Session
// rows are written at login time by the authentication collaborator with
// the user id always populated; this contract means readers never probe
// alternative payload shapes.
type SessionStore interface {
	// Create persists a new session row.
	Create(ctx context.Context, session *domain.Session) error

	// GetByID retrieves the session with the given id.
	// Returns ErrSessionNotFound if the row is missing or expired.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// Delete removes a session row (logout). Open connections already
	// authenticated against the session are not force-closed.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes sessions whose expiry is at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserStore provides the user lookups this system needs: contact addresses
// for notification fanout and names for sender enrichment.
type UserStore interface {
	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByIDs retrieves the users whose ids are in the given set. Missing
	// ids are simply absent from the result, not an error.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)
}
