package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// PostgresNotificationStore implements store.NotificationStore using
// PostgreSQL. Only the status column is ever updated after insert.
type PostgresNotificationStore struct {
	db store.DBTX
}

// NewPostgresNotificationStore creates a new PostgresNotificationStore.
func NewPostgresNotificationStore(db store.DBTX) *PostgresNotificationStore {
	return &PostgresNotificationStore{db: db}
}

var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// WithTx returns a NotificationStore bound to the given transaction.
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return NewPostgresNotificationStore(tx)
}

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO notifications (id, recipient_id, task_id, type, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.TaskID,
		n.Type,
		n.Message,
		n.Status,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// GetByID implements store.NotificationStore.GetByID
func (s *PostgresNotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	query := `
		SELECT id, recipient_id, task_id, type, message, status, created_at, updated_at
		FROM notifications
		WHERE id = $1
	`

	var n domain.Notification
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID,
		&n.RecipientID,
		&n.TaskID,
		&n.Type,
		&n.Message,
		&n.Status,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotificationNotFound
		}
		return nil, MapError(err)
	}

	return &n, nil
}

// ListByRecipient implements store.NotificationStore.ListByRecipient
func (s *PostgresNotificationStore) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]domain.Notification, error) {
	query := `
		SELECT id, recipient_id, task_id, type, message, status, created_at, updated_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.TaskID, &n.Type, &n.Message, &n.Status, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return notifications, nil
}

// UpdateStatus implements store.NotificationStore.UpdateStatus
func (s *PostgresNotificationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "notification"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrNotificationNotFound
		}
		return err
	}

	return nil
}
