package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
)

// NotificationStore defines the interface for notification record
// persistence. Records are immutable except for status transitions.
type NotificationStore interface {
	// Create saves a new pending notification record.
	Create(ctx context.Context, n *domain.Notification) error

	// GetByID retrieves a notification by its unique ID.
	// Returns ErrNotificationNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)

	// ListByRecipient returns the recipient's notifications, newest first.
	ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]domain.Notification, error)

	// UpdateStatus moves a notification to the given status.
	// Returns ErrNotificationNotFound if it does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error

	// WithTx returns a new NotificationStore bound to the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
