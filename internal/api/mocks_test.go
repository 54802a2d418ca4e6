package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/realtime"
	"github.com/phrazzld/taskhub-api/internal/service"
)

// mockTaskService implements service.TaskService with function fields.
type mockTaskService struct {
	CreateFn       func(ctx context.Context, input service.CreateTaskInput, creatorID uuid.UUID) (*service.TaskResult, error)
	GetFn          func(ctx context.Context, id uuid.UUID) (*service.TaskDetail, error)
	UpdateFn       func(ctx context.Context, id uuid.UUID, input service.UpdateTaskInput, actorID uuid.UUID) (*service.TaskResult, error)
	UpdateStatusFn func(ctx context.Context, id uuid.UUID, status string, actorID uuid.UUID) (*service.TaskResult, error)
	DeleteFn       func(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (service.SideEffects, error)
	HistoryFn      func(ctx context.Context, id uuid.UUID) ([]domain.TaskHistoryEntry, error)
}

var _ service.TaskService = (*mockTaskService)(nil)

func (m *mockTaskService) Create(ctx context.Context, input service.CreateTaskInput, creatorID uuid.UUID) (*service.TaskResult, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, input, creatorID)
	}
	return nil, service.ErrTaskNotFound
}

func (m *mockTaskService) Get(ctx context.Context, id uuid.UUID) (*service.TaskDetail, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return nil, service.ErrTaskNotFound
}

func (m *mockTaskService) Update(ctx context.Context, id uuid.UUID, input service.UpdateTaskInput, actorID uuid.UUID) (*service.TaskResult, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, input, actorID)
	}
	return nil, service.ErrTaskNotFound
}

func (m *mockTaskService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actorID uuid.UUID) (*service.TaskResult, error) {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status, actorID)
	}
	return nil, service.ErrTaskNotFound
}

func (m *mockTaskService) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (service.SideEffects, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id, actorID)
	}
	return nil, service.ErrTaskNotFound
}

func (m *mockTaskService) History(ctx context.Context, id uuid.UUID) ([]domain.TaskHistoryEntry, error) {
	if m.HistoryFn != nil {
		return m.HistoryFn(ctx, id)
	}
	return nil, service.ErrTaskNotFound
}

// mockChannelService implements service.ChannelService with function fields.
type mockChannelService struct {
	CreateFn       func(ctx context.Context, name string, isPrivate bool, creatorID uuid.UUID) (*domain.Channel, error)
	IsMemberFn     func(ctx context.Context, channelID, userID uuid.UUID) (bool, error)
	PostMessageFn  func(ctx context.Context, channelID, senderID uuid.UUID, body string) (*service.MessageResult, error)
	AddMemberFn    func(ctx context.Context, channelID, actorID, userID uuid.UUID, isAdmin bool) (service.SideEffects, error)
	RemoveMemberFn func(ctx context.Context, channelID, actorID, userID uuid.UUID) (service.SideEffects, error)
}

var _ service.ChannelService = (*mockChannelService)(nil)

func (m *mockChannelService) Create(ctx context.Context, name string, isPrivate bool, creatorID uuid.UUID) (*domain.Channel, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, name, isPrivate, creatorID)
	}
	return nil, service.ErrChannelNotFound
}

func (m *mockChannelService) IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error) {
	if m.IsMemberFn != nil {
		return m.IsMemberFn(ctx, channelID, userID)
	}
	return false, service.ErrChannelNotFound
}

func (m *mockChannelService) PostMessage(ctx context.Context, channelID, senderID uuid.UUID, body string) (*service.MessageResult, error) {
	if m.PostMessageFn != nil {
		return m.PostMessageFn(ctx, channelID, senderID, body)
	}
	return nil, service.ErrChannelNotFound
}

func (m *mockChannelService) AddMember(ctx context.Context, channelID, actorID, userID uuid.UUID, isAdmin bool) (service.SideEffects, error) {
	if m.AddMemberFn != nil {
		return m.AddMemberFn(ctx, channelID, actorID, userID, isAdmin)
	}
	return nil, service.ErrChannelNotFound
}

func (m *mockChannelService) RemoveMember(ctx context.Context, channelID, actorID, userID uuid.UUID) (service.SideEffects, error) {
	if m.RemoveMemberFn != nil {
		return m.RemoveMemberFn(ctx, channelID, actorID, userID)
	}
	return nil, service.ErrChannelNotFound
}

// mockNotificationService implements service.NotificationService with
// function fields for the read side; the fanout methods are no-ops here
// since handlers never call them directly.
type mockNotificationService struct {
	ListFn     func(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	MarkReadFn func(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error)
}

var _ service.NotificationService = (*mockNotificationService)(nil)

func (m *mockNotificationService) NotifyTaskEvent(
	_ context.Context,
	_ realtime.EventType,
	_ *domain.Task,
	_ []uuid.UUID,
	_ uuid.UUID,
) service.SideEffects {
	return nil
}

func (m *mockNotificationService) NotifyChat(
	_ context.Context,
	_ realtime.EventType,
	_ uuid.UUID,
	_ []uuid.UUID,
	_ map[string]interface{},
) service.SideEffects {
	return nil
}

func (m *mockNotificationService) List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockNotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, id, userID)
	}
	return nil, service.ErrNotificationNotFound
}
