package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/realtime"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// fakeNotifier records fanout invocations so lifecycle tests can assert on
// what was emitted without pulling in the real notification machinery.
type fakeNotifier struct {
	taskEvents []taskEventCall
	chatEvents []chatEventCall
	effects    SideEffects
}

type taskEventCall struct {
	eventType    realtime.EventType
	task         *domain.Task
	participants []uuid.UUID
	actorID      uuid.UUID
}

type chatEventCall struct {
	eventType realtime.EventType
	senderID  uuid.UUID
	memberIDs []uuid.UUID
	payload   map[string]interface{}
}

var _ Notifier = (*fakeNotifier)(nil)

func (f *fakeNotifier) NotifyTaskEvent(
	_ context.Context,
	eventType realtime.EventType,
	task *domain.Task,
	participants []uuid.UUID,
	actorID uuid.UUID,
) SideEffects {
	f.taskEvents = append(f.taskEvents, taskEventCall{
		eventType:    eventType,
		task:         task,
		participants: participants,
		actorID:      actorID,
	})
	return f.effects
}

func (f *fakeNotifier) NotifyChat(
	_ context.Context,
	eventType realtime.EventType,
	senderID uuid.UUID,
	memberIDs []uuid.UUID,
	payload map[string]interface{},
) SideEffects {
	f.chatEvents = append(f.chatEvents, chatEventCall{
		eventType: eventType,
		senderID:  senderID,
		memberIDs: memberIDs,
		payload:   payload,
	})
	return f.effects
}

// fakeBroadcaster records pushed events.
type fakeBroadcaster struct {
	broadcasts []realtime.Event
	sends      []sendCall
}

type sendCall struct {
	event   realtime.Event
	userIDs []uuid.UUID
}

var _ Broadcaster = (*fakeBroadcaster)(nil)

func (f *fakeBroadcaster) Broadcast(_ context.Context, event realtime.Event) {
	f.broadcasts = append(f.broadcasts, event)
}

func (f *fakeBroadcaster) SendToUsers(_ context.Context, event realtime.Event, userIDs []uuid.UUID) {
	f.sends = append(f.sends, sendCall{event: event, userIDs: userIDs})
}

// fakePresence reports the listed users as connected.
type fakePresence struct {
	online map[uuid.UUID]bool
}

var _ Presence = (*fakePresence)(nil)

func (f *fakePresence) Contains(userID uuid.UUID) bool {
	return f.online[userID]
}

// testExecutor returns a RetryExecutor with a negligible backoff so tests
// stay fast even when a path retries.
func testExecutor() *store.RetryExecutor {
	return store.NewRetryExecutor(3, time.Millisecond)
}
