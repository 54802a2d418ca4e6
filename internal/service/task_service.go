package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/realtime"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// CreateTaskInput carries the fields accepted when creating a task.
type CreateTaskInput struct {
	Title          string
	Status         string
	ResponsibleID  uuid.UUID
	StageID        *uuid.UUID
	DueDate        *time.Time
	ParticipantIDs []uuid.UUID
	Subtasks       []domain.Subtask
	Steps          []domain.TaskStep
}

// UpdateTaskInput is a partial update. Nil pointer fields are left
// untouched; a non-nil collection pointer replaces that collection
// wholesale, empty slice included.
type UpdateTaskInput struct {
	Title         *string
	Status        *string
	ResponsibleID *uuid.UUID
	StageID       *uuid.UUID
	DueDate       *time.Time
	Participants  *[]uuid.UUID
	Subtasks      *[]domain.Subtask
	Steps         *[]domain.TaskStep
}

// TaskResult is the outcome of a task mutation: the task as committed plus
// any side-effect failures that accompanied it.
type TaskResult struct {
	Task        *domain.Task
	SideEffects SideEffects
}

// TaskDetail is the full read model for a single task.
type TaskDetail struct {
	Task         *domain.Task      `json:"task"`
	Participants []uuid.UUID       `json:"participants"`
	Subtasks     []domain.Subtask  `json:"subtasks"`
	Steps        []domain.TaskStep `json:"steps"`
}

// TaskService provides the task lifecycle operations.
type TaskService interface {
	// Create creates a task owned by creatorID, with best-effort
	// participant attachment and a "created" history entry.
	Create(ctx context.Context, input CreateTaskInput, creatorID uuid.UUID) (*TaskResult, error)

	// Get returns the task with its participants and child collections.
	Get(ctx context.Context, id uuid.UUID) (*TaskDetail, error)

	// Update applies a partial update, replaces any provided child
	// collections wholesale, and records a diff history entry when
	// something actually changed.
	Update(ctx context.Context, id uuid.UUID, input UpdateTaskInput, actorID uuid.UUID) (*TaskResult, error)

	// UpdateStatus moves the task to status. When the status is already
	// the requested one the call is a no-op: no history, no event.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, actorID uuid.UUID) (*TaskResult, error)

	// Delete removes the task and every row referencing it in one
	// transaction.
	Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (SideEffects, error)

	// History returns the task's audit trail, oldest first.
	History(ctx context.Context, id uuid.UUID) ([]domain.TaskHistoryEntry, error)
}

// taskServiceImpl implements TaskService.
type taskServiceImpl struct {
	db       *sql.DB
	executor *store.RetryExecutor
	tasks    store.TaskStore
	history  store.HistoryStore
	notifier Notifier
	logger   *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	db *sql.DB,
	executor *store.RetryExecutor,
	tasks store.TaskStore,
	history store.HistoryStore,
	notifier Notifier,
	logger *slog.Logger,
) (TaskService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if executor == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "executor cannot be nil"}
	}
	if tasks == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "tasks store cannot be nil"}
	}
	if history == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "history store cannot be nil"}
	}
	if notifier == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "notifier cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:       db,
		executor: executor,
		tasks:    tasks,
		history:  history,
		notifier: notifier,
		logger:   logger.With("component", "task_service"),
	}, nil
}

// Create implements TaskService.Create. The task row, its child
// collections and the "created" history entry commit in one retried
// transaction. Participant rows are attached afterwards one by one:
// a failing participant is recorded as a side effect and never undoes
// the task itself.
func (s *taskServiceImpl) Create(
	ctx context.Context,
	input CreateTaskInput,
	creatorID uuid.UUID,
) (*TaskResult, error) {
	task, err := domain.NewTask(input.Title, input.Status, creatorID, input.ResponsibleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	task.StageID = input.StageID
	task.DueDate = input.DueDate

	entry, err := domain.NewTaskHistoryEntry(
		task.ID, creatorID, domain.HistoryActionCreated, "", task.Title)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	err = s.executor.ExecuteTx(ctx, "create_task", s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		if err := txTasks.Create(ctx, task); err != nil {
			return err
		}
		if len(input.Subtasks) > 0 {
			if err := txTasks.ReplaceSubtasks(ctx, task.ID, input.Subtasks); err != nil {
				return err
			}
		}
		if len(input.Steps) > 0 {
			if err := txTasks.ReplaceSteps(ctx, task.ID, input.Steps); err != nil {
				return err
			}
		}
		return s.history.WithTx(tx).Append(ctx, entry)
	})
	if err != nil {
		return nil, wrapStoreError("create_task", "failed to create task", err)
	}

	var effects SideEffects
	var attached []uuid.UUID
	for _, userID := range input.ParticipantIDs {
		if userID == uuid.Nil {
			continue
		}
		if err := s.tasks.AddParticipant(ctx, task.ID, userID); err != nil {
			if store.IsDuplicateError(err) {
				attached = append(attached, userID)
				continue
			}
			s.logger.Warn("failed to attach participant",
				"task_id", task.ID,
				"user_id", userID,
				"error", err)
			effects = effects.Append("add_participant", userID.String(), err)
			continue
		}
		attached = append(attached, userID)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"creator_id", creatorID,
		"participants", len(attached),
		"side_effects", len(effects))

	effects = effects.Merge(
		s.notifier.NotifyTaskEvent(ctx, realtime.EventTaskCreated, task, attached, creatorID))

	return &TaskResult{Task: task, SideEffects: effects}, nil
}

// Get implements TaskService.Get.
func (s *taskServiceImpl) Get(ctx context.Context, id uuid.UUID) (*TaskDetail, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError("get_task", "failed to load task", err)
	}

	participants, err := s.tasks.GetParticipants(ctx, id)
	if err != nil {
		return nil, wrapStoreError("get_task", "failed to load participants", err)
	}
	subtasks, err := s.tasks.ListSubtasks(ctx, id)
	if err != nil {
		return nil, wrapStoreError("get_task", "failed to load subtasks", err)
	}
	steps, err := s.tasks.ListSteps(ctx, id)
	if err != nil {
		return nil, wrapStoreError("get_task", "failed to load steps", err)
	}

	return &TaskDetail{
		Task:         task,
		Participants: participants,
		Subtasks:     subtasks,
		Steps:        steps,
	}, nil
}

// Update implements TaskService.Update.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	id uuid.UUID,
	input UpdateTaskInput,
	actorID uuid.UUID,
) (*TaskResult, error) {
	var task *domain.Task
	var changes []string
	dueDateChanged := false

	err := s.executor.ExecuteTx(ctx, "update_task", s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		// State is re-read on every retry attempt.
		task = nil
		changes = nil
		dueDateChanged = false

		current, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if input.Title != nil && *input.Title != current.Title {
			changes = append(changes, renderChange("title", current.Title, *input.Title))
			current.Title = *input.Title
		}
		if input.Status != nil && *input.Status != current.Status {
			changes = append(changes, renderChange("status", current.Status, *input.Status))
			current.Status = *input.Status
		}
		if input.ResponsibleID != nil && *input.ResponsibleID != current.ResponsibleID {
			changes = append(changes,
				renderChange("responsible", current.ResponsibleID.String(), input.ResponsibleID.String()))
			current.ResponsibleID = *input.ResponsibleID
		}
		if input.StageID != nil && !uuidPtrEqual(input.StageID, current.StageID) {
			changes = append(changes,
				renderChange("stage", uuidPtrString(current.StageID), input.StageID.String()))
			current.StageID = input.StageID
		}
		if input.DueDate != nil && !timePtrEqual(input.DueDate, current.DueDate) {
			changes = append(changes,
				renderChange("due_date", timePtrString(current.DueDate), timePtrString(input.DueDate)))
			current.DueDate = input.DueDate
			dueDateChanged = true
		}

		if len(changes) > 0 {
			current.UpdatedAt = time.Now().UTC()
			if err := current.Validate(); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrValidation, err)
			}
			if err := txTasks.Update(ctx, current); err != nil {
				return err
			}
		}

		if input.Participants != nil {
			if err := txTasks.ReplaceParticipants(ctx, id, dedupe(*input.Participants)); err != nil {
				return err
			}
			changes = append(changes, fmt.Sprintf("participants: replaced (%d)", len(*input.Participants)))
		}
		if input.Subtasks != nil {
			if err := txTasks.ReplaceSubtasks(ctx, id, *input.Subtasks); err != nil {
				return err
			}
			changes = append(changes, fmt.Sprintf("subtasks: replaced (%d)", len(*input.Subtasks)))
		}
		if input.Steps != nil {
			if err := txTasks.ReplaceSteps(ctx, id, *input.Steps); err != nil {
				return err
			}
			changes = append(changes, fmt.Sprintf("steps: replaced (%d)", len(*input.Steps)))
		}

		if len(changes) > 0 {
			entry, err := domain.NewTaskHistoryEntry(
				id, actorID, domain.HistoryActionUpdated, "", strings.Join(changes, "; "))
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrValidation, err)
			}
			if err := s.history.WithTx(tx).Append(ctx, entry); err != nil {
				return err
			}
		}

		task = current
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("update_task", "failed to update task", err)
	}

	if len(changes) == 0 {
		return &TaskResult{Task: task}, nil
	}

	participants, err := s.tasks.GetParticipants(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load participants for fanout",
			"task_id", id,
			"error", err)
	}

	// A due-date-only change gets its dedicated event type so calendar
	// views can react without re-diffing the whole task.
	eventType := realtime.EventTaskUpdated
	if dueDateChanged && len(changes) == 1 {
		eventType = realtime.EventTaskDueDateUpdated
	}

	effects := s.notifier.NotifyTaskEvent(ctx, eventType, task, participants, actorID)

	return &TaskResult{Task: task, SideEffects: effects}, nil
}

// UpdateStatus implements TaskService.UpdateStatus.
func (s *taskServiceImpl) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status string,
	actorID uuid.UUID,
) (*TaskResult, error) {
	if status == "" {
		return nil, fmt.Errorf("%w: status cannot be empty", domain.ErrValidation)
	}

	var task *domain.Task
	changed := false

	err := s.executor.ExecuteTx(ctx, "update_task_status", s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		task = nil
		changed = false

		current, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if current.Status == status {
			task = current
			return nil
		}

		oldStatus := current.Status
		current.Status = status
		current.UpdatedAt = time.Now().UTC()

		if err := txTasks.Update(ctx, current); err != nil {
			return err
		}

		entry, err := domain.NewTaskHistoryEntry(
			id, actorID, domain.HistoryActionStatusChanged, oldStatus, status)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if err := s.history.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		task = current
		changed = true
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("update_task_status", "failed to update task status", err)
	}

	if !changed {
		return &TaskResult{Task: task}, nil
	}

	participants, err := s.tasks.GetParticipants(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load participants for fanout",
			"task_id", id,
			"error", err)
	}

	effects := s.notifier.NotifyTaskEvent(ctx, realtime.EventTaskStatusChanged, task, participants, actorID)

	return &TaskResult{Task: task, SideEffects: effects}, nil
}

// Delete implements TaskService.Delete. Child rows and the task itself go
// in one transaction, so a failure partway leaves the task intact.
func (s *taskServiceImpl) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (SideEffects, error) {
	var task *domain.Task
	var participants []uuid.UUID

	err := s.executor.ExecuteTx(ctx, "delete_task", s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		current, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		ids, err := txTasks.GetParticipants(ctx, id)
		if err != nil {
			return err
		}

		if err := txTasks.DeleteChildren(ctx, id); err != nil {
			return err
		}
		if err := txTasks.Delete(ctx, id); err != nil {
			return err
		}

		task = current
		participants = ids
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("delete_task", "failed to delete task", err)
	}

	s.logger.Info("task deleted",
		"task_id", id,
		"actor_id", actorID)

	effects := s.notifier.NotifyTaskEvent(ctx, realtime.EventTaskDeleted, task, participants, actorID)

	return effects, nil
}

// History implements TaskService.History.
func (s *taskServiceImpl) History(ctx context.Context, id uuid.UUID) ([]domain.TaskHistoryEntry, error) {
	if _, err := s.tasks.GetByID(ctx, id); err != nil {
		return nil, wrapStoreError("task_history", "failed to load task", err)
	}

	entries, err := s.history.ListByTask(ctx, id)
	if err != nil {
		return nil, wrapStoreError("task_history", "failed to list history", err)
	}
	return entries, nil
}

func renderChange(field, oldValue, newValue string) string {
	return fmt.Sprintf("%s: %s -> %s", field, oldValue, newValue)
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func uuidPtrString(p *uuid.UUID) string {
	if p == nil {
		return "none"
	}
	return p.String()
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func timePtrString(p *time.Time) string {
	if p == nil {
		return "none"
	}
	return p.UTC().Format(time.RFC3339)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
