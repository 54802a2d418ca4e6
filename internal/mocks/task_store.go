package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing.
type MockTaskStore struct {
	CreateFn              func(ctx context.Context, task *domain.Task) error
	GetByIDFn             func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateFn              func(ctx context.Context, task *domain.Task) error
	DeleteFn              func(ctx context.Context, id uuid.UUID) error
	GetParticipantsFn     func(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)
	ListSubtasksFn        func(ctx context.Context, taskID uuid.UUID) ([]domain.Subtask, error)
	ListStepsFn           func(ctx context.Context, taskID uuid.UUID) ([]domain.TaskStep, error)
	AddParticipantFn      func(ctx context.Context, taskID, userID uuid.UUID) error
	ReplaceParticipantsFn func(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
	ReplaceSubtasksFn     func(ctx context.Context, taskID uuid.UUID, subtasks []domain.Subtask) error
	ReplaceStepsFn        func(ctx context.Context, taskID uuid.UUID, steps []domain.TaskStep) error
	DeleteChildrenFn      func(ctx context.Context, taskID uuid.UUID) error
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Create implements store.TaskStore.Create
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, store.ErrTaskNotFound
}

// Update implements store.TaskStore.Update
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	return nil
}

// Delete implements store.TaskStore.Delete
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// GetParticipants implements store.TaskStore.GetParticipants
func (m *MockTaskStore) GetParticipants(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	if m.GetParticipantsFn != nil {
		return m.GetParticipantsFn(ctx, taskID)
	}
	return nil, nil
}

// ListSubtasks implements store.TaskStore.ListSubtasks
func (m *MockTaskStore) ListSubtasks(ctx context.Context, taskID uuid.UUID) ([]domain.Subtask, error) {
	if m.ListSubtasksFn != nil {
		return m.ListSubtasksFn(ctx, taskID)
	}
	return nil, nil
}

// ListSteps implements store.TaskStore.ListSteps
func (m *MockTaskStore) ListSteps(ctx context.Context, taskID uuid.UUID) ([]domain.TaskStep, error) {
	if m.ListStepsFn != nil {
		return m.ListStepsFn(ctx, taskID)
	}
	return nil, nil
}

// AddParticipant implements store.TaskStore.AddParticipant
func (m *MockTaskStore) AddParticipant(ctx context.Context, taskID, userID uuid.UUID) error {
	if m.AddParticipantFn != nil {
		return m.AddParticipantFn(ctx, taskID, userID)
	}
	return nil
}

// ReplaceParticipants implements store.TaskStore.ReplaceParticipants
func (m *MockTaskStore) ReplaceParticipants(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	if m.ReplaceParticipantsFn != nil {
		return m.ReplaceParticipantsFn(ctx, taskID, userIDs)
	}
	return nil
}

// ReplaceSubtasks implements store.TaskStore.ReplaceSubtasks
func (m *MockTaskStore) ReplaceSubtasks(ctx context.Context, taskID uuid.UUID, subtasks []domain.Subtask) error {
	if m.ReplaceSubtasksFn != nil {
		return m.ReplaceSubtasksFn(ctx, taskID, subtasks)
	}
	return nil
}

// ReplaceSteps implements store.TaskStore.ReplaceSteps
func (m *MockTaskStore) ReplaceSteps(ctx context.Context, taskID uuid.UUID, steps []domain.TaskStep) error {
	if m.ReplaceStepsFn != nil {
		return m.ReplaceStepsFn(ctx, taskID, steps)
	}
	return nil
}

// DeleteChildren implements store.TaskStore.DeleteChildren
func (m *MockTaskStore) DeleteChildren(ctx context.Context, taskID uuid.UUID) error {
	if m.DeleteChildrenFn != nil {
		return m.DeleteChildrenFn(ctx, taskID)
	}
	return nil
}

// WithTx implements store.TaskStore.WithTx; mocks are transaction-agnostic.
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

// MockHistoryStore implements store.HistoryStore for testing. Appended
// entries are recorded so tests can assert on exactly what was written.
type MockHistoryStore struct {
	AppendFn     func(ctx context.Context, entry *domain.TaskHistoryEntry) error
	ListByTaskFn func(ctx context.Context, taskID uuid.UUID) ([]domain.TaskHistoryEntry, error)

	Appended []domain.TaskHistoryEntry
}

var _ store.HistoryStore = (*MockHistoryStore)(nil)

// Append implements store.HistoryStore.Append
func (m *MockHistoryStore) Append(ctx context.Context, entry *domain.TaskHistoryEntry) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, entry)
	}
	m.Appended = append(m.Appended, *entry)
	return nil
}

// ListByTask implements store.HistoryStore.ListByTask
func (m *MockHistoryStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.TaskHistoryEntry, error) {
	if m.ListByTaskFn != nil {
		return m.ListByTaskFn(ctx, taskID)
	}
	return m.Appended, nil
}

// WithTx implements store.HistoryStore.WithTx
func (m *MockHistoryStore) WithTx(tx *sql.Tx) store.HistoryStore {
	return m
}
