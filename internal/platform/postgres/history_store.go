package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// PostgresHistoryStore implements store.HistoryStore using PostgreSQL.
// History rows are append-only; there is no update path by design.
type PostgresHistoryStore struct {
	db store.DBTX
}

// NewPostgresHistoryStore creates a new PostgresHistoryStore.
func NewPostgresHistoryStore(db store.DBTX) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: db}
}

var _ store.HistoryStore = (*PostgresHistoryStore)(nil)

// WithTx returns a HistoryStore bound to the given transaction.
func (s *PostgresHistoryStore) WithTx(tx *sql.Tx) store.HistoryStore {
	return NewPostgresHistoryStore(tx)
}

// Append implements store.HistoryStore.Append
func (s *PostgresHistoryStore) Append(ctx context.Context, entry *domain.TaskHistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO task_history (id, task_id, user_id, action, old_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.TaskID,
		entry.UserID,
		entry.Action,
		entry.OldValue,
		entry.NewValue,
		entry.CreatedAt,
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// ListByTask implements store.HistoryStore.ListByTask
func (s *PostgresHistoryStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.TaskHistoryEntry, error) {
	query := `
		SELECT id, task_id, user_id, action, old_value, new_value, created_at
		FROM task_history
		WHERE task_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.TaskHistoryEntry
	for rows.Next() {
		var e domain.TaskHistoryEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.UserID, &e.Action, &e.OldValue, &e.NewValue, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return entries, nil
}
