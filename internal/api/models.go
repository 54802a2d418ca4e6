package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/service"
)

// Common request/response structures

// SubtaskPayload is a subtask in a create or update request.
type SubtaskPayload struct {
	Title string `json:"title" validate:"required"`
	Done  bool   `json:"done"`
}

// StepPayload is a checklist step in a create or update request.
type StepPayload struct {
	Title    string `json:"title" validate:"required"`
	Position int    `json:"position"`
	Done     bool   `json:"done"`
}

// CreateTaskRequest defines the payload for the task creation endpoint.
type CreateTaskRequest struct {
	Title          string           `json:"title"           validate:"required,max=500"`
	Status         string           `json:"status"          validate:"max=100"`
	ResponsibleID  *uuid.UUID       `json:"responsible_id"`
	StageID        *uuid.UUID       `json:"stage_id"`
	DueDate        *time.Time       `json:"due_date"`
	ParticipantIDs []uuid.UUID      `json:"participant_ids"`
	Subtasks       []SubtaskPayload `json:"subtasks"`
	Steps          []StepPayload    `json:"steps"`
}

// UpdateTaskRequest defines the payload for the task patch endpoint.
// Absent fields are left untouched; a present collection replaces that
// collection wholesale.
type UpdateTaskRequest struct {
	Title          *string           `json:"title"`
	Status         *string           `json:"status"`
	ResponsibleID  *uuid.UUID        `json:"responsible_id"`
	StageID        *uuid.UUID        `json:"stage_id"`
	DueDate        *time.Time        `json:"due_date"`
	ParticipantIDs *[]uuid.UUID      `json:"participant_ids"`
	Subtasks       *[]SubtaskPayload `json:"subtasks"`
	Steps          *[]StepPayload    `json:"steps"`
}

// UpdateTaskStatusRequest defines the payload for the status endpoint.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,max=100"`
}

// CreateChannelRequest defines the payload for creating a channel.
type CreateChannelRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	IsPrivate bool   `json:"is_private"`
}

// PostMessageRequest defines the payload for posting a channel message.
type PostMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// AddMemberRequest defines the payload for adding a channel member.
type AddMemberRequest struct {
	UserID  uuid.UUID `json:"user_id" validate:"required"`
	IsAdmin bool      `json:"is_admin"`
}

// SideEffectResponse reports a non-fatal failure alongside a success.
type SideEffectResponse struct {
	Op      string `json:"op"`
	Subject string `json:"subject"`
}

// TaskResponse wraps a committed task mutation for the client, with any
// partial-success detail attached.
type TaskResponse struct {
	Task        *domain.Task         `json:"task"`
	SideEffects []SideEffectResponse `json:"side_effects,omitempty"`
}

// MessageResponse wraps a posted message.
type MessageResponse struct {
	Message     *domain.Message      `json:"message"`
	Joined      bool                 `json:"joined,omitempty"`
	SideEffects []SideEffectResponse `json:"side_effects,omitempty"`
}

func toSideEffectResponses(effects service.SideEffects) []SideEffectResponse {
	if len(effects) == 0 {
		return nil
	}
	out := make([]SideEffectResponse, 0, len(effects))
	for _, e := range effects {
		out = append(out, SideEffectResponse{Op: e.Op, Subject: e.Subject})
	}
	return out
}

func toSubtasks(payload []SubtaskPayload) []domain.Subtask {
	if payload == nil {
		return nil
	}
	out := make([]domain.Subtask, 0, len(payload))
	for _, p := range payload {
		out = append(out, domain.Subtask{Title: p.Title, Done: p.Done})
	}
	return out
}

func toSteps(payload []StepPayload) []domain.TaskStep {
	if payload == nil {
		return nil
	}
	out := make([]domain.TaskStep, 0, len(payload))
	for _, p := range payload {
		out = append(out, domain.TaskStep{Title: p.Title, Position: p.Position, Done: p.Done})
	}
	return out
}
