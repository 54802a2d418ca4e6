package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/realtime"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// Broadcaster pushes events to connected clients. Implemented by
// realtime.Dispatcher; delivery is best-effort and never returns an error.
type Broadcaster interface {
	// Broadcast sends the event to every registered connection.
	Broadcast(ctx context.Context, event realtime.Event)

	// SendToUsers sends the event to every connection bound to one of the
	// given user ids.
	SendToUsers(ctx context.Context, event realtime.Event, userIDs []uuid.UUID)
}

// Presence reports whether a user currently has a live connection.
// Implemented by realtime.Registry.
type Presence interface {
	Contains(userID uuid.UUID) bool
}

// Notifier is the fanout seam the lifecycle services invoke after a
// mutation commits. Failures inside the notifier never surface as errors;
// they come back as recorded side effects.
type Notifier interface {
	// NotifyTaskEvent persists notification records for the task's
	// audience and pushes the event to their connections.
	NotifyTaskEvent(
		ctx context.Context,
		eventType realtime.EventType,
		task *domain.Task,
		participants []uuid.UUID,
		actorID uuid.UUID,
	) SideEffects

	// NotifyChat persists notification records for the recipients and
	// pushes the sender-enriched payload to every listed member.
	NotifyChat(
		ctx context.Context,
		eventType realtime.EventType,
		senderID uuid.UUID,
		memberIDs []uuid.UUID,
		payload map[string]interface{},
	) SideEffects
}

// NotificationService provides notification fanout and the read-side
// operations on persisted notification records.
type NotificationService interface {
	Notifier

	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)

	// MarkRead transitions the notification to read. Only the recipient
	// may do this; anyone else gets domain.ErrUnauthorized.
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error)
}

// Audience computes the recipient set for a task event: participants,
// the responsible user and the creator, deduplicated, minus the acting
// user. The actor never receives a notification about their own change.
func Audience(task *domain.Task, participants []uuid.UUID, actorID uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(participants)+2)
	var audience []uuid.UUID

	add := func(id uuid.UUID) {
		if id == uuid.Nil || id == actorID {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		audience = append(audience, id)
	}

	for _, id := range participants {
		add(id)
	}
	add(task.ResponsibleID)
	add(task.CreatorID)

	return audience
}

// notificationServiceImpl implements NotificationService.
type notificationServiceImpl struct {
	notifications store.NotificationStore
	users         store.UserStore
	broadcaster   Broadcaster
	presence      Presence
	executor      *store.RetryExecutor
	logger        *slog.Logger
}

// NewNotificationService creates a NotificationService.
// It returns an error if any of the required dependencies are nil.
func NewNotificationService(
	notifications store.NotificationStore,
	users store.UserStore,
	broadcaster Broadcaster,
	presence Presence,
	executor *store.RetryExecutor,
	logger *slog.Logger,
) (NotificationService, error) {
	if notifications == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "notifications store cannot be nil"}
	}
	if users == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "users store cannot be nil"}
	}
	if broadcaster == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "broadcaster cannot be nil"}
	}
	if presence == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "presence cannot be nil"}
	}
	if executor == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "executor cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &notificationServiceImpl{
		notifications: notifications,
		users:         users,
		broadcaster:   broadcaster,
		presence:      presence,
		executor:      executor,
		logger:        logger.With("component", "notification_service"),
	}, nil
}

// NotifyTaskEvent implements Notifier.NotifyTaskEvent.
func (s *notificationServiceImpl) NotifyTaskEvent(
	ctx context.Context,
	eventType realtime.EventType,
	task *domain.Task,
	participants []uuid.UUID,
	actorID uuid.UUID,
) SideEffects {
	audience := Audience(task, participants, actorID)
	if len(audience) == 0 {
		return nil
	}

	// Records of a deleted task cannot reference the task row; the child
	// cleanup already removed the old ones.
	var taskRef *uuid.UUID
	if eventType != realtime.EventTaskDeleted {
		taskRef = &task.ID
	}

	message := taskEventMessage(eventType, task)
	effects := s.persistAndDeliver(ctx, eventType, taskRef, audience, message)

	event := realtime.NewEvent(eventType, map[string]interface{}{
		"task":     task,
		"actor_id": actorID,
	})
	s.broadcaster.SendToUsers(ctx, event, audience)

	return effects
}

// NotifyChat implements Notifier.NotifyChat. Recipients of the persisted
// records are the members minus the sender; the socket push goes to every
// member, sender included, so all open channel views update.
func (s *notificationServiceImpl) NotifyChat(
	ctx context.Context,
	eventType realtime.EventType,
	senderID uuid.UUID,
	memberIDs []uuid.UUID,
	payload map[string]interface{},
) SideEffects {
	var effects SideEffects

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		s.logger.Warn("failed to resolve message sender",
			"sender_id", senderID,
			"error", err)
		effects = effects.Append("resolve_sender", senderID.String(), err)
	} else {
		payload["sender_name"] = sender.Name
	}

	message, _ := payload["body"].(string)
	var recipients []uuid.UUID
	for _, id := range memberIDs {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}
	effects = effects.Merge(s.persistAndDeliver(ctx, eventType, nil, recipients, message))

	s.broadcaster.SendToUsers(ctx, realtime.NewEvent(eventType, payload), memberIDs)

	return effects
}

// persistAndDeliver writes one pending record per recipient and marks the
// record sent when the recipient has a live connection. Recipients without
// a known contact address are skipped; each failure is swallowed into the
// outcome so one bad recipient never blocks the rest.
func (s *notificationServiceImpl) persistAndDeliver(
	ctx context.Context,
	eventType realtime.EventType,
	taskRef *uuid.UUID,
	recipients []uuid.UUID,
	message string,
) SideEffects {
	var effects SideEffects

	contacts, err := s.users.GetByIDs(ctx, recipients)
	if err != nil {
		s.logger.Warn("failed to resolve notification recipients",
			"event_type", eventType,
			"error", err)
		return effects.Append("resolve_recipients", fmt.Sprintf("%d users", len(recipients)), err)
	}

	byID := make(map[uuid.UUID]domain.User, len(contacts))
	for _, u := range contacts {
		byID[u.ID] = u
	}

	for _, recipientID := range recipients {
		user, ok := byID[recipientID]
		if !ok || user.Email == "" {
			s.logger.Debug("skipping recipient without contact address",
				"recipient_id", recipientID,
				"event_type", eventType)
			continue
		}

		n, err := domain.NewNotification(recipientID, taskRef, string(eventType), message)
		if err != nil {
			effects = effects.Append("build_notification", recipientID.String(), err)
			continue
		}

		err = s.executor.Execute(ctx, "create_notification", func(ctx context.Context) error {
			return s.notifications.Create(ctx, n)
		})
		if err != nil {
			s.logger.Warn("failed to persist notification",
				"recipient_id", recipientID,
				"event_type", eventType,
				"error", err)
			effects = effects.Append("create_notification", recipientID.String(), err)
			continue
		}

		if s.presence.Contains(recipientID) {
			if err := s.markSent(ctx, n); err != nil {
				effects = effects.Append("mark_sent", n.ID.String(), err)
			}
		}
	}

	return effects
}

// markSent transitions a freshly created record to sent once we know the
// recipient has a connection to deliver on.
func (s *notificationServiceImpl) markSent(ctx context.Context, n *domain.Notification) error {
	if err := n.Transition(domain.NotificationStatusSent); err != nil {
		return err
	}
	return s.notifications.UpdateStatus(ctx, n.ID, domain.NotificationStatusSent)
}

// List implements NotificationService.List.
func (s *notificationServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	out, err := s.notifications.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, wrapStoreError("list_notifications", "failed to list notifications", err)
	}
	return out, nil
}

// MarkRead implements NotificationService.MarkRead.
func (s *notificationServiceImpl) MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStoreError("mark_read", "failed to load notification", err)
	}

	if n.RecipientID != userID {
		return nil, fmt.Errorf("%w: notification belongs to another user", domain.ErrUnauthorized)
	}

	if err := n.Transition(domain.NotificationStatusRead); err != nil {
		// Re-reading an already-read notification is a no-op, not an error.
		if errors.Is(err, domain.ErrInvalidStatusTransition) &&
			n.Status == domain.NotificationStatusRead {
			return n, nil
		}
		return nil, err
	}

	if err := s.notifications.UpdateStatus(ctx, n.ID, domain.NotificationStatusRead); err != nil {
		return nil, wrapStoreError("mark_read", "failed to update notification status", err)
	}

	return n, nil
}

// taskEventMessage renders the human-readable line stored on notification
// records for a task event.
func taskEventMessage(eventType realtime.EventType, task *domain.Task) string {
	switch eventType {
	case realtime.EventTaskCreated:
		return fmt.Sprintf("task %q was created", task.Title)
	case realtime.EventTaskStatusChanged:
		return fmt.Sprintf("task %q moved to %s", task.Title, task.Status)
	case realtime.EventTaskDueDateUpdated:
		if task.DueDate != nil {
			return fmt.Sprintf("task %q is now due %s", task.Title, task.DueDate.Format("2006-01-02"))
		}
		return fmt.Sprintf("task %q no longer has a due date", task.Title)
	case realtime.EventTaskDeleted:
		return fmt.Sprintf("task %q was deleted", task.Title)
	default:
		return fmt.Sprintf("task %q was updated", task.Title)
	}
}
