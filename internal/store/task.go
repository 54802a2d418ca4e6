package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update persists the task's current scalar fields (title, status,
	// responsible, stage, due date). Returns ErrTaskNotFound if the task
	// does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the task row itself. Child rows are NOT cascaded here;
	// the service layer removes them in dependency order within the same
	// transaction before calling Delete.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// GetParticipants returns the user ids attached to the task.
	GetParticipants(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)

	// ListSubtasks returns the task's subtasks.
	ListSubtasks(ctx context.Context, taskID uuid.UUID) ([]domain.Subtask, error)

	// ListSteps returns the task's steps ordered by position.
	ListSteps(ctx context.Context, taskID uuid.UUID) ([]domain.TaskStep, error)

	// AddParticipant inserts a single participant row.
	// Returns ErrDuplicate if the row already exists.
	AddParticipant(ctx context.Context, taskID, userID uuid.UUID) error

	// ReplaceParticipants deletes all participant rows for the task and
	// inserts the given set.
	// IMPORTANT: must run within a transaction; use WithTx.
	ReplaceParticipants(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error

	// ReplaceSubtasks deletes all subtask rows for the task and inserts the
	// given collection.
	// IMPORTANT: must run within a transaction; use WithTx.
	ReplaceSubtasks(ctx context.Context, taskID uuid.UUID, subtasks []domain.Subtask) error

	// ReplaceSteps deletes all step rows for the task and inserts the given
	// collection.
	// IMPORTANT: must run within a transaction; use WithTx.
	ReplaceSteps(ctx context.Context, taskID uuid.UUID, steps []domain.TaskStep) error

	// DeleteChildren removes every row referencing the task in dependency
	// order: comment attachments, comments, steps, subtasks, participants,
	// notifications, calendar entries, then history. The task row itself is
	// left in place for Delete.
	// IMPORTANT: must run within a transaction; use WithTx.
	DeleteChildren(ctx context.Context, taskID uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction should be created and managed by the
	// caller (typically a service running under RunInTransaction).
	WithTx(tx *sql.Tx) TaskStore
}

// HistoryStore defines the interface for append-only task history rows.
// Entries are never updated or deleted individually; they fall away only
// when their task is deleted.
type HistoryStore interface {
	// Append inserts a new history entry.
	Append(ctx context.Context, entry *domain.TaskHistoryEntry) error

	// ListByTask returns all history entries for the task, oldest first.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.TaskHistoryEntry, error)

	// WithTx returns a new HistoryStore bound to the provided transaction.
	WithTx(tx *sql.Tx) HistoryStore
}
