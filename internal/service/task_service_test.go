package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/mocks"
	"github.com/phrazzld/taskhub-api/internal/realtime"
	"github.com/phrazzld/taskhub-api/internal/store"
)

func newTaskService(
	t *testing.T,
	tasks *mocks.MockTaskStore,
	history *mocks.MockHistoryStore,
	notifier Notifier,
) (TaskService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc, err := NewTaskService(db, testExecutor(), tasks, history, notifier, nil)
	require.NoError(t, err)

	return svc, mock
}

func TestTaskService_Create_RecordsCreatedHistory(t *testing.T) {
	t.Parallel()

	tasks := &mocks.MockTaskStore{}
	history := &mocks.MockHistoryStore{}
	notifier := &fakeNotifier{}
	svc, mock := newTaskService(t, tasks, history, notifier)

	mock.ExpectBegin()
	mock.ExpectCommit()

	creatorID := uuid.New()
	result, err := svc.Create(context.Background(), CreateTaskInput{
		Title:         "write onboarding doc",
		ResponsibleID: creatorID,
	}, creatorID)

	require.NoError(t, err)
	require.NotNil(t, result.Task)
	assert.Equal(t, domain.DefaultTaskStatus, result.Task.Status)
	assert.Empty(t, result.SideEffects)

	require.Len(t, history.Appended, 1)
	assert.Equal(t, domain.HistoryActionCreated, history.Appended[0].Action)
	assert.Equal(t, result.Task.ID, history.Appended[0].TaskID)
	assert.Equal(t, creatorID, history.Appended[0].UserID)

	require.Len(t, notifier.taskEvents, 1)
	assert.Equal(t, realtime.EventTaskCreated, notifier.taskEvents[0].eventType)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_Create_ParticipantFailureIsSideEffect(t *testing.T) {
	t.Parallel()

	goodID := uuid.New()
	badID := uuid.New()

	tasks := &mocks.MockTaskStore{
		AddParticipantFn: func(_ context.Context, _ uuid.UUID, userID uuid.UUID) error {
			if userID == badID {
				return errors.New("user does not exist")
			}
			return nil
		},
	}
	history := &mocks.MockHistoryStore{}
	notifier := &fakeNotifier{}
	svc, mock := newTaskService(t, tasks, history, notifier)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.Create(context.Background(), CreateTaskInput{
		Title:          "plan offsite",
		ParticipantIDs: []uuid.UUID{goodID, badID},
	}, uuid.New())

	// The task itself is created even though one participant failed.
	require.NoError(t, err)
	require.NotNil(t, result.Task)
	require.Len(t, result.SideEffects, 1)
	assert.Equal(t, "add_participant", result.SideEffects[0].Op)
	assert.Equal(t, badID.String(), result.SideEffects[0].Subject)

	// Only the successfully attached participant reaches the fanout.
	require.Len(t, notifier.taskEvents, 1)
	assert.Equal(t, []uuid.UUID{goodID}, notifier.taskEvents[0].participants)
}

func TestTaskService_Create_InvalidInput(t *testing.T) {
	t.Parallel()

	svc, _ := newTaskService(t, &mocks.MockTaskStore{}, &mocks.MockHistoryStore{}, &fakeNotifier{})

	_, err := svc.Create(context.Background(), CreateTaskInput{Title: ""}, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskService_UpdateStatus_RecordsTransition(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	actorID := uuid.New()
	tasks := &mocks.MockTaskStore{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Task, error) {
			return &domain.Task{
				ID: id, Title: "ship release", Status: "todo",
				CreatorID: uuid.New(), ResponsibleID: uuid.New(),
			}, nil
		},
	}
	history := &mocks.MockHistoryStore{}
	notifier := &fakeNotifier{}
	svc, mock := newTaskService(t, tasks, history, notifier)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.UpdateStatus(context.Background(), taskID, "in-progress", actorID)

	require.NoError(t, err)
	assert.Equal(t, "in-progress", result.Task.Status)

	require.Len(t, history.Appended, 1)
	assert.Equal(t, domain.HistoryActionStatusChanged, history.Appended[0].Action)
	assert.Equal(t, "todo", history.Appended[0].OldValue)
	assert.Equal(t, "in-progress", history.Appended[0].NewValue)

	require.Len(t, notifier.taskEvents, 1)
	assert.Equal(t, realtime.EventTaskStatusChanged, notifier.taskEvents[0].eventType)
}

func TestTaskService_UpdateStatus_SameStatusIsNoOp(t *testing.T) {
	t.Parallel()

	tasks := &mocks.MockTaskStore{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Task, error) {
			return &domain.Task{
				ID: id, Title: "ship release", Status: "todo",
				CreatorID: uuid.New(), ResponsibleID: uuid.New(),
			}, nil
		},
		UpdateFn: func(_ context.Context, _ *domain.Task) error {
			t.Fatal("update should not run for an unchanged status")
			return nil
		},
	}
	history := &mocks.MockHistoryStore{}
	notifier := &fakeNotifier{}
	svc, mock := newTaskService(t, tasks, history, notifier)

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.UpdateStatus(context.Background(), uuid.New(), "todo", uuid.New())

	require.NoError(t, err)
	assert.Equal(t, "todo", result.Task.Status)
	assert.Empty(t, history.Appended)
	assert.Empty(t, notifier.taskEvents)
}

func TestTaskService_UpdateStatus_TaskNotFound(t *testing.T) {
	t.Parallel()

	svc, mock := newTaskService(t, &mocks.MockTaskStore{}, &mocks.MockHistoryStore{}, &fakeNotifier{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), "done", uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_Update_DiffAndChildReplacement(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	var replaced []domain.Subtask
	tasks := &mocks.MockTaskStore{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Task, error) {
			return &domain.Task{
				ID: id, Title: "old title", Status: "todo",
				CreatorID: uuid.New(), ResponsibleID: uuid.New(),
			}, nil
		},
		ReplaceSubtasksFn: func(_ context.Context, _ uuid.UUID, subtasks []domain.Subtask) error {
			replaced = subtasks
			return nil
		},
	}
	history := &mocks.MockHistoryStore{}
	notifier := &fakeNotifier{}
	svc, mock := newTaskService(t, tasks, history, notifier)

	mock.ExpectBegin()
	mock.ExpectCommit()

	newTitle := "new title"
	subtasks := []domain.Subtask{{Title: "first"}, {Title: "second"}}
	result, err := svc.Update(context.Background(), taskID, UpdateTaskInput{
		Title:    &newTitle,
		Subtasks: &subtasks,
	}, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, "new title", result.Task.Title)
	assert.Len(t, replaced, 2)

	require.Len(t, history.Appended, 1)
	assert.Equal(t, domain.HistoryActionUpdated, history.Appended[0].Action)
	assert.Contains(t, history.Appended[0].NewValue, "title: old title -> new title")
	assert.Contains(t, history.Appended[0].NewValue, "subtasks: replaced (2)")

	require.Len(t, notifier.taskEvents, 1)
	assert.Equal(t, realtime.EventTaskUpdated, notifier.taskEvents[0].eventType)
}

func TestTaskService_Update_NoChangesNoHistory(t *testing.T) {
	t.Parallel()

	tasks := &mocks.MockTaskStore{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Task, error) {
			return &domain.Task{
				ID: id, Title: "same", Status: "todo",
				CreatorID: uuid.New(), ResponsibleID: uuid.New(),
			}, nil
		},
	}
	history := &mocks.MockHistoryStore{}
	notifier := &fakeNotifier{}
	svc, mock := newTaskService(t, tasks, history, notifier)

	mock.ExpectBegin()
	mock.ExpectCommit()

	sameTitle := "same"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateTaskInput{Title: &sameTitle}, uuid.New())

	require.NoError(t, err)
	assert.Empty(t, history.Appended)
	assert.Empty(t, notifier.taskEvents)
}

func TestTaskService_Update_DueDateOnlyGetsDedicatedEvent(t *testing.T) {
	t.Parallel()

	tasks := &mocks.MockTaskStore{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Task, error) {
			return &domain.Task{
				ID: id, Title: "same", Status: "todo",
				CreatorID: uuid.New(), ResponsibleID: uuid.New(),
			}, nil
		},
	}
	notifier := &fakeNotifier{}
	svc, mock := newTaskService(t, tasks, &mocks.MockHistoryStore{}, notifier)

	mock.ExpectBegin()
	mock.ExpectCommit()

	due := time.Now().UTC().Add(48 * time.Hour)
	_, err := svc.Update(context.Background(), uuid.New(), UpdateTaskInput{DueDate: &due}, uuid.New())

	require.NoError(t, err)
	require.Len(t, notifier.taskEvents, 1)
	assert.Equal(t, realtime.EventTaskDueDateUpdated, notifier.taskEvents[0].eventType)
}

func TestTaskService_Delete_ChildrenBeforeTask(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	var calls []string
	tasks := &mocks.MockTaskStore{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Task, error) {
			return &domain.Task{
				ID: id, Title: "doomed", Status: "todo",
				CreatorID: uuid.New(), ResponsibleID: uuid.New(),
			}, nil
		},
		DeleteChildrenFn: func(_ context.Context, _ uuid.UUID) error {
			calls = append(calls, "children")
			return nil
		},
		DeleteFn: func(_ context.Context, _ uuid.UUID) error {
			calls = append(calls, "task")
			return nil
		},
	}
	notifier := &fakeNotifier{}
	svc, mock := newTaskService(t, tasks, &mocks.MockHistoryStore{}, notifier)

	mock.ExpectBegin()
	mock.ExpectCommit()

	effects, err := svc.Delete(context.Background(), taskID, uuid.New())

	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Equal(t, []string{"children", "task"}, calls)

	require.Len(t, notifier.taskEvents, 1)
	assert.Equal(t, realtime.EventTaskDeleted, notifier.taskEvents[0].eventType)
}

func TestTaskService_Delete_FailureRollsBack(t *testing.T) {
	t.Parallel()

	tasks := &mocks.MockTaskStore{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Task, error) {
			return &domain.Task{
				ID: id, Title: "survivor", Status: "todo",
				CreatorID: uuid.New(), ResponsibleID: uuid.New(),
			}, nil
		},
		DeleteChildrenFn: func(_ context.Context, _ uuid.UUID) error {
			return errors.New("constraint violation")
		},
	}
	notifier := &fakeNotifier{}
	svc, mock := newTaskService(t, tasks, &mocks.MockHistoryStore{}, notifier)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Delete(context.Background(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.Empty(t, notifier.taskEvents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_Get_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTaskService(t, &mocks.MockTaskStore{}, &mocks.MockHistoryStore{}, &fakeNotifier{})

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_History_ReturnsEntries(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	tasks := &mocks.MockTaskStore{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Task, error) {
			return &domain.Task{
				ID: id, Title: "audited", Status: "todo",
				CreatorID: uuid.New(), ResponsibleID: uuid.New(),
			}, nil
		},
	}
	history := &mocks.MockHistoryStore{
		ListByTaskFn: func(_ context.Context, id uuid.UUID) ([]domain.TaskHistoryEntry, error) {
			return []domain.TaskHistoryEntry{
				{TaskID: id, Action: domain.HistoryActionCreated},
				{TaskID: id, Action: domain.HistoryActionStatusChanged},
			}, nil
		},
	}
	svc, _ := newTaskService(t, tasks, history, &fakeNotifier{})

	entries, err := svc.History(context.Background(), taskID)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.HistoryActionCreated, entries[0].Action)
}

func TestTaskService_Create_NonTransientFailureNotRetried(t *testing.T) {
	t.Parallel()

	attempts := 0
	tasks := &mocks.MockTaskStore{
		CreateFn: func(_ context.Context, _ *domain.Task) error {
			attempts++
			if attempts == 1 {
				return sql.ErrConnDone
			}
			return nil
		},
	}
	// sql.ErrConnDone is not transient, so this surfaces immediately.
	svc, mock := newTaskService(t, tasks, &mocks.MockHistoryStore{}, &fakeNotifier{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), CreateTaskInput{Title: "x"}, uuid.New())

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.False(t, store.IsTransient(err))
}
