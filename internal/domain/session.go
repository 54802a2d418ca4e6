package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the persisted authentication session. The principal contract
// is fixed at write time: UserID is always set for a valid session row, so
// readers never probe alternative payload shapes.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// User holds the account fields this system reads: identity for sender
// enrichment and the contact address used by notification fanout.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
