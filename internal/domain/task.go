package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultTaskStatus is assigned to tasks created without an explicit status.
// Statuses are free-form strings; there is no enforced transition table.
const DefaultTaskStatus = "todo"

// Common validation errors for Task
var (
	ErrEmptyTaskID      = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle   = errors.New("task title cannot be empty")
	ErrEmptyTaskCreator = errors.New("task creator ID cannot be empty")
)

// Task represents a unit of work tracked by the platform. Status is a
// free-form string so teams can define their own workflows; the stage
// reference and due date are optional.
type Task struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	CreatorID     uuid.UUID  `json:"creator_id"`
	ResponsibleID uuid.UUID  `json:"responsible_id"`
	StageID       *uuid.UUID `json:"stage_id,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewTask creates a new Task owned by creatorID. When status is empty the
// default status is assigned. Returns an error if validation fails.
func NewTask(title, status string, creatorID, responsibleID uuid.UUID) (*Task, error) {
	if status == "" {
		status = DefaultTaskStatus
	}

	now := time.Now().UTC()
	task := &Task{
		ID:            uuid.New(),
		Title:         title,
		Status:        status,
		CreatorID:     creatorID,
		ResponsibleID: responsibleID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if t.CreatorID == uuid.Nil {
		return ErrEmptyTaskCreator
	}

	return nil
}

// Subtask is a child item of a Task. Subtasks are replaced wholesale when a
// task update provides a new collection.
type Subtask struct {
	ID     uuid.UUID `json:"id"`
	TaskID uuid.UUID `json:"task_id"`
	Title  string    `json:"title"`
	Done   bool      `json:"done"`
}

// TaskStep is an ordered checklist entry within a Task.
type TaskStep struct {
	ID       uuid.UUID `json:"id"`
	TaskID   uuid.UUID `json:"task_id"`
	Title    string    `json:"title"`
	Position int       `json:"position"`
	Done     bool      `json:"done"`
}
