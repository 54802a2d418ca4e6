package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
)

// ChannelStore defines the interface for channel, membership and message
// persistence.
type ChannelStore interface {
	// Create saves a new channel.
	Create(ctx context.Context, channel *domain.Channel) error

	// GetByID retrieves a channel by its unique ID.
	// Returns ErrChannelNotFound if the channel does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error)

	// GetMembership retrieves the explicit membership row for the user.
	// Returns ErrMembershipNotFound if no row exists; callers deciding
	// effective membership must also consider the channel's IsPrivate flag.
	GetMembership(ctx context.Context, channelID, userID uuid.UUID) (*domain.ChannelMembership, error)

	// AddMembership inserts a membership row.
	// Returns ErrAlreadyMember if the row already exists.
	AddMembership(ctx context.Context, m *domain.ChannelMembership) error

	// RemoveMembership deletes the membership row.
	// Returns ErrMembershipNotFound if no row exists.
	RemoveMembership(ctx context.Context, channelID, userID uuid.UUID) error

	// ListMemberIDs returns the user ids with an explicit membership row.
	ListMemberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error)

	// CreateMessage persists a chat message.
	CreateMessage(ctx context.Context, msg *domain.Message) error

	// WithTx returns a new ChannelStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ChannelStore
}
