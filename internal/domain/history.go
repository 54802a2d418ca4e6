package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// History entry actions recorded by the task lifecycle.
const (
	HistoryActionCreated       = "created"
	HistoryActionUpdated       = "updated"
	HistoryActionStatusChanged = "status_changed"
)

// Common validation errors for TaskHistoryEntry
var (
	ErrEmptyHistoryTaskID = errors.New("history entry task ID cannot be empty")
	ErrEmptyHistoryUserID = errors.New("history entry user ID cannot be empty")
	ErrEmptyHistoryAction = errors.New("history entry action cannot be empty")
)

// TaskHistoryEntry is an append-only audit record of an observable task
// change. Entries are immutable once written; OldValue/NewValue hold the
// changed value for single-field changes or a rendered diff for patches.
type TaskHistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	Action    string    `json:"action"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskHistoryEntry creates a validated history entry for the given task,
// acting user and action.
func NewTaskHistoryEntry(taskID, userID uuid.UUID, action, oldValue, newValue string) (*TaskHistoryEntry, error) {
	entry := &TaskHistoryEntry{
		ID:        uuid.New(),
		TaskID:    taskID,
		UserID:    userID,
		Action:    action,
		OldValue:  oldValue,
		NewValue:  newValue,
		CreatedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the TaskHistoryEntry has valid data.
func (e *TaskHistoryEntry) Validate() error {
	if e.TaskID == uuid.Nil {
		return ErrEmptyHistoryTaskID
	}

	if e.UserID == uuid.Nil {
		return ErrEmptyHistoryUserID
	}

	if e.Action == "" {
		return ErrEmptyHistoryAction
	}

	return nil
}
