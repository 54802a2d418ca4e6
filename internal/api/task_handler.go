package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks requests
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	// The creator is the default responsible user.
	responsibleID := userID
	if req.ResponsibleID != nil && *req.ResponsibleID != uuid.Nil {
		responsibleID = *req.ResponsibleID
	}

	result, err := h.taskService.Create(r.Context(), service.CreateTaskInput{
		Title:          req.Title,
		Status:         req.Status,
		ResponsibleID:  responsibleID,
		StageID:        req.StageID,
		DueDate:        req.DueDate,
		ParticipantIDs: req.ParticipantIDs,
		Subtasks:       toSubtasks(req.Subtasks),
		Steps:          toSteps(req.Steps),
	}, userID)
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	if result.SideEffects.Failed() {
		log.Warn("task created with side-effect failures",
			slog.String("task_id", result.Task.ID.String()),
			slog.Int("failed", len(result.SideEffects)))
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, TaskResponse{
		Task:        result.Task,
		SideEffects: toSideEffectResponses(result.SideEffects),
	})
}

// GetTask handles GET /tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAuth(w, r); !ok {
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	detail, err := h.taskService.Get(r.Context(), taskID)
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, detail)
}

// UpdateTask handles PATCH /tasks/{id} requests
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	input := service.UpdateTaskInput{
		Title:         req.Title,
		Status:        req.Status,
		ResponsibleID: req.ResponsibleID,
		StageID:       req.StageID,
		DueDate:       req.DueDate,
		Participants:  req.ParticipantIDs,
	}
	if req.Subtasks != nil {
		subtasks := toSubtasks(*req.Subtasks)
		if subtasks == nil {
			subtasks = []domain.Subtask{}
		}
		input.Subtasks = &subtasks
	}
	if req.Steps != nil {
		steps := toSteps(*req.Steps)
		if steps == nil {
			steps = []domain.TaskStep{}
		}
		input.Steps = &steps
	}

	result, err := h.taskService.Update(r.Context(), taskID, input, userID)
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{
		Task:        result.Task,
		SideEffects: toSideEffectResponses(result.SideEffects),
	})
}

// UpdateTaskStatus handles PUT /tasks/{id}/status requests
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	var req UpdateTaskStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	result, err := h.taskService.UpdateStatus(r.Context(), taskID, req.Status, userID)
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{
		Task:        result.Task,
		SideEffects: toSideEffectResponses(result.SideEffects),
	})
}

// DeleteTask handles DELETE /tasks/{id} requests
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(w, r)
	if !ok {
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	if _, err := h.taskService.Delete(r.Context(), taskID, userID); err != nil {
		RespondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTaskHistory handles GET /tasks/{id}/history requests
func (h *TaskHandler) GetTaskHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAuth(w, r); !ok {
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	entries, err := h.taskService.History(r.Context(), taskID)
	if err != nil {
		RespondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"history": entries,
	})
}
