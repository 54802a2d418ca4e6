package realtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/taskhub-api/internal/platform/logger"
)

func TestDispatcher_BroadcastReachesEveryConnection(t *testing.T) {
	r := NewRegistry()
	log, _ := logger.GetTestLogger(t)
	d := NewDispatcher(r, log)

	conns := []*fakeConn{{}, {}, {}}
	for _, conn := range conns {
		r.Add(uuid.New(), conn)
	}

	d.Broadcast(context.Background(), NewEvent(EventTaskCreated, map[string]string{"id": "t1"}))

	for _, conn := range conns {
		assert.Equal(t, []EventType{EventTaskCreated}, conn.eventTypes())
	}
}

func TestDispatcher_SendToUsersTargetsOnlySet(t *testing.T) {
	r := NewRegistry()
	log, _ := logger.GetTestLogger(t)
	d := NewDispatcher(r, log)

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	aliceConn, bobConn, carolConn := &fakeConn{}, &fakeConn{}, &fakeConn{}
	r.Add(alice, aliceConn)
	r.Add(bob, bobConn)
	r.Add(carol, carolConn)

	d.SendToUsers(context.Background(), NewEvent(EventNotification, nil), []uuid.UUID{alice, bob})

	assert.Len(t, aliceConn.eventTypes(), 1)
	assert.Len(t, bobConn.eventTypes(), 1)
	assert.Empty(t, carolConn.eventTypes())
}

func TestDispatcher_UserWithTwoConnectionsGetsOnePerConnection(t *testing.T) {
	r := NewRegistry()
	log, _ := logger.GetTestLogger(t)
	d := NewDispatcher(r, log)

	userID := uuid.New()
	first, second := &fakeConn{}, &fakeConn{}
	r.Add(userID, first)
	r.Add(userID, second)

	d.SendToUsers(context.Background(), NewEvent(EventPrivateMessage, nil), []uuid.UUID{userID})

	assert.Len(t, first.eventTypes(), 1)
	assert.Len(t, second.eventTypes(), 1)
}

func TestDispatcher_SendFailureDoesNotAffectOthers(t *testing.T) {
	r := NewRegistry()
	log, logBuf := logger.GetTestLogger(t)
	d := NewDispatcher(r, log)

	broken := &fakeConn{sendErr: errConnGone}
	healthy := &fakeConn{}
	r.Add(uuid.New(), broken)
	r.Add(uuid.New(), healthy)

	d.Broadcast(context.Background(), NewEvent(EventTaskDeleted, nil))

	assert.Len(t, healthy.eventTypes(), 1)
	assert.True(t, broken.closed)
	assert.Equal(t, 1, r.Len())
	logger.AssertLogContains(t, logBuf, "failed to send event")
}
