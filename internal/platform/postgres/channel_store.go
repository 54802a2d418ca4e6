package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// PostgresChannelStore implements store.ChannelStore using PostgreSQL.
type PostgresChannelStore struct {
	db store.DBTX
}

// NewPostgresChannelStore creates a new PostgresChannelStore.
func NewPostgresChannelStore(db store.DBTX) *PostgresChannelStore {
	return &PostgresChannelStore{db: db}
}

var _ store.ChannelStore = (*PostgresChannelStore)(nil)

// WithTx returns a ChannelStore bound to the given transaction.
func (s *PostgresChannelStore) WithTx(tx *sql.Tx) store.ChannelStore {
	return NewPostgresChannelStore(tx)
}

// Create implements store.ChannelStore.Create
func (s *PostgresChannelStore) Create(ctx context.Context, channel *domain.Channel) error {
	if err := channel.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO channels (id, name, is_private, creator_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		channel.ID,
		channel.Name,
		channel.IsPrivate,
		channel.CreatorID,
		channel.CreatedAt,
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// GetByID implements store.ChannelStore.GetByID
func (s *PostgresChannelStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	query := `
		SELECT id, name, is_private, creator_id, created_at
		FROM channels
		WHERE id = $1
	`

	var ch domain.Channel
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&ch.ID,
		&ch.Name,
		&ch.IsPrivate,
		&ch.CreatorID,
		&ch.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrChannelNotFound
		}
		return nil, MapError(err)
	}

	return &ch, nil
}

// GetMembership implements store.ChannelStore.GetMembership
func (s *PostgresChannelStore) GetMembership(ctx context.Context, channelID, userID uuid.UUID) (*domain.ChannelMembership, error) {
	query := `
		SELECT channel_id, user_id, is_admin, created_at
		FROM channel_members
		WHERE channel_id = $1 AND user_id = $2
	`

	var m domain.ChannelMembership
	err := s.db.QueryRowContext(ctx, query, channelID, userID).Scan(
		&m.ChannelID,
		&m.UserID,
		&m.IsAdmin,
		&m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrMembershipNotFound
		}
		return nil, MapError(err)
	}

	return &m, nil
}

// AddMembership implements store.ChannelStore.AddMembership
func (s *PostgresChannelStore) AddMembership(ctx context.Context, m *domain.ChannelMembership) error {
	query := `
		INSERT INTO channel_members (channel_id, user_id, is_admin, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.ExecContext(ctx, query, m.ChannelID, m.UserID, m.IsAdmin, m.CreatedAt)
	if err != nil {
		return MapUniqueViolation(err, "channel membership", "", store.ErrAlreadyMember)
	}

	return nil
}

// RemoveMembership implements store.ChannelStore.RemoveMembership
func (s *PostgresChannelStore) RemoveMembership(ctx context.Context, channelID, userID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM channel_members WHERE channel_id = $1 AND user_id = $2`, channelID, userID)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "channel membership"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrMembershipNotFound
		}
		return err
	}

	return nil
}

// ListMemberIDs implements store.ChannelStore.ListMemberIDs
func (s *PostgresChannelStore) ListMemberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM channel_members WHERE channel_id = $1 ORDER BY user_id`, channelID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return ids, nil
}

// CreateMessage implements store.ChannelStore.CreateMessage
func (s *PostgresChannelStore) CreateMessage(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, channel_id, sender_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query, msg.ID, msg.ChannelID, msg.SenderID, msg.Body, msg.CreatedAt)
	if err != nil {
		return MapError(err)
	}

	return nil
}
