package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgresTaskStore. It accepts either a
// *sql.DB or a *sql.Tx via the DBTX interface.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

// Ensure PostgresTaskStore implements store.TaskStore
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx returns a TaskStore bound to the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return NewPostgresTaskStore(tx)
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, title, status, creator_id, responsible_id, stage_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Status,
		task.CreatorID,
		task.ResponsibleID,
		task.StageID,
		task.DueDate,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to insert task",
			"task_id", task.ID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, title, status, creator_id, responsible_id, stage_id, due_date, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	var task domain.Task
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.Title,
		&task.Status,
		&task.CreatorID,
		&task.ResponsibleID,
		&task.StageID,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}

	return &task, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET title = $1, status = $2, responsible_id = $3, stage_id = $4, due_date = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Status,
		task.ResponsibleID,
		task.StageID,
		task.DueDate,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrTaskNotFound
		}
		return err
	}

	return nil
}

// Delete implements store.TaskStore.Delete. Only the task row is removed;
// callers run DeleteChildren first, inside the same transaction.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrTaskNotFound
		}
		return err
	}

	return nil
}

// GetParticipants implements store.TaskStore.GetParticipants
func (s *PostgresTaskStore) GetParticipants(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM task_participants WHERE task_id = $1 ORDER BY user_id`, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return ids, nil
}

// ListSubtasks implements store.TaskStore.ListSubtasks
func (s *PostgresTaskStore) ListSubtasks(ctx context.Context, taskID uuid.UUID) ([]domain.Subtask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, title, done FROM subtasks WHERE task_id = $1 ORDER BY id`, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var subtasks []domain.Subtask
	for rows.Next() {
		var st domain.Subtask
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &st.Done); err != nil {
			return nil, fmt.Errorf("failed to scan subtask row: %w", err)
		}
		subtasks = append(subtasks, st)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return subtasks, nil
}

// ListSteps implements store.TaskStore.ListSteps
func (s *PostgresTaskStore) ListSteps(ctx context.Context, taskID uuid.UUID) ([]domain.TaskStep, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, title, position, done FROM task_steps WHERE task_id = $1 ORDER BY position`, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var steps []domain.TaskStep
	for rows.Next() {
		var step domain.TaskStep
		if err := rows.Scan(&step.ID, &step.TaskID, &step.Title, &step.Position, &step.Done); err != nil {
			return nil, fmt.Errorf("failed to scan step row: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return steps, nil
}

// AddParticipant implements store.TaskStore.AddParticipant
func (s *PostgresTaskStore) AddParticipant(ctx context.Context, taskID, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_participants (task_id, user_id) VALUES ($1, $2)`, taskID, userID)
	if err != nil {
		return MapError(err)
	}
	return nil
}

// ReplaceParticipants implements store.TaskStore.ReplaceParticipants
func (s *PostgresTaskStore) ReplaceParticipants(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM task_participants WHERE task_id = $1`, taskID); err != nil {
		return MapError(err)
	}

	for _, userID := range userIDs {
		if err := s.AddParticipant(ctx, taskID, userID); err != nil {
			return err
		}
	}

	return nil
}

// ReplaceSubtasks implements store.TaskStore.ReplaceSubtasks
func (s *PostgresTaskStore) ReplaceSubtasks(ctx context.Context, taskID uuid.UUID, subtasks []domain.Subtask) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM subtasks WHERE task_id = $1`, taskID); err != nil {
		return MapError(err)
	}

	for _, st := range subtasks {
		id := st.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO subtasks (id, task_id, title, done) VALUES ($1, $2, $3, $4)`,
			id, taskID, st.Title, st.Done); err != nil {
			return MapError(err)
		}
	}

	return nil
}

// ReplaceSteps implements store.TaskStore.ReplaceSteps
func (s *PostgresTaskStore) ReplaceSteps(ctx context.Context, taskID uuid.UUID, steps []domain.TaskStep) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM task_steps WHERE task_id = $1`, taskID); err != nil {
		return MapError(err)
	}

	for i, step := range steps {
		id := step.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		position := step.Position
		if position == 0 {
			position = i + 1
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO task_steps (id, task_id, title, position, done) VALUES ($1, $2, $3, $4, $5)`,
			id, taskID, step.Title, position, step.Done); err != nil {
			return MapError(err)
		}
	}

	return nil
}

// childCleanupStatements removes everything referencing a task, ordered so
// that no statement runs before the rows depending on its targets are gone.
var childCleanupStatements = []string{
	`DELETE FROM comment_attachments WHERE comment_id IN (SELECT id FROM comments WHERE task_id = $1)`,
	`DELETE FROM comments WHERE task_id = $1`,
	`DELETE FROM task_steps WHERE task_id = $1`,
	`DELETE FROM subtasks WHERE task_id = $1`,
	`DELETE FROM task_participants WHERE task_id = $1`,
	`DELETE FROM notifications WHERE task_id = $1`,
	`DELETE FROM calendar_entries WHERE task_id = $1`,
	`DELETE FROM task_history WHERE task_id = $1`,
}

// DeleteChildren implements store.TaskStore.DeleteChildren
func (s *PostgresTaskStore) DeleteChildren(ctx context.Context, taskID uuid.UUID) error {
	for _, stmt := range childCleanupStatements {
		if _, err := s.db.ExecContext(ctx, stmt, taskID); err != nil {
			logger.FromContext(ctx).Error("failed to delete task children",
				"task_id", taskID,
				"error", err)
			return MapError(err)
		}
	}
	return nil
}
