package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/mocks"
	"github.com/phrazzld/taskhub-api/internal/realtime"
	"github.com/phrazzld/taskhub-api/internal/store"
)

func newChannelService(
	t *testing.T,
	channels *mocks.MockChannelStore,
	notifier *fakeNotifier,
	broadcaster *fakeBroadcaster,
) (ChannelService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc, err := NewChannelService(db, testExecutor(), channels, notifier, broadcaster, nil)
	require.NoError(t, err)

	return svc, mock
}

func channelFixture(isPrivate bool) *domain.Channel {
	return &domain.Channel{
		ID:        uuid.New(),
		Name:      "general",
		IsPrivate: isPrivate,
		CreatorID: uuid.New(),
	}
}

func membershipLookup(adminID uuid.UUID, memberIDs ...uuid.UUID) func(ctx context.Context, channelID, userID uuid.UUID) (*domain.ChannelMembership, error) {
	return func(_ context.Context, channelID, userID uuid.UUID) (*domain.ChannelMembership, error) {
		if userID == adminID {
			return &domain.ChannelMembership{ChannelID: channelID, UserID: userID, IsAdmin: true}, nil
		}
		for _, id := range memberIDs {
			if id == userID {
				return &domain.ChannelMembership{ChannelID: channelID, UserID: userID}, nil
			}
		}
		return nil, store.ErrMembershipNotFound
	}
}

func TestChannelService_Create_CreatorBecomesAdmin(t *testing.T) {
	t.Parallel()

	channels := &mocks.MockChannelStore{}
	svc, mock := newChannelService(t, channels, &fakeNotifier{}, &fakeBroadcaster{})

	mock.ExpectBegin()
	mock.ExpectCommit()

	creatorID := uuid.New()
	channel, err := svc.Create(context.Background(), "general", false, creatorID)

	require.NoError(t, err)
	require.NotNil(t, channel)

	require.Len(t, channels.AddedMemberships, 1)
	assert.Equal(t, creatorID, channels.AddedMemberships[0].UserID)
	assert.True(t, channels.AddedMemberships[0].IsAdmin)
}

func TestChannelService_IsMember(t *testing.T) {
	t.Parallel()

	memberID := uuid.New()
	strangerID := uuid.New()

	tests := []struct {
		name      string
		isPrivate bool
		userID    uuid.UUID
		want      bool
	}{
		{"explicit member of private channel", true, memberID, true},
		{"stranger in private channel", true, strangerID, false},
		{"explicit member of public channel", false, memberID, true},
		{"stranger in public channel is implicit member", false, strangerID, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			channel := channelFixture(tc.isPrivate)
			channels := &mocks.MockChannelStore{
				GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
					return channel, nil
				},
				GetMembershipFn: membershipLookup(uuid.Nil, memberID),
			}
			svc, _ := newChannelService(t, channels, &fakeNotifier{}, &fakeBroadcaster{})

			got, err := svc.IsMember(context.Background(), channel.ID, tc.userID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestChannelService_PostMessage_ImplicitPublicJoin(t *testing.T) {
	t.Parallel()

	channel := channelFixture(false)
	senderID := uuid.New()
	existingID := uuid.New()

	channels := &mocks.MockChannelStore{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
			return channel, nil
		},
		GetMembershipFn: membershipLookup(uuid.Nil, existingID),
		ListMemberIDsFn: func(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
			return []uuid.UUID{existingID, senderID}, nil
		},
	}
	notifier := &fakeNotifier{}
	svc, mock := newChannelService(t, channels, notifier, &fakeBroadcaster{})

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.PostMessage(context.Background(), channel.ID, senderID, "first!")

	require.NoError(t, err)
	assert.True(t, result.Joined)
	assert.Equal(t, "first!", result.Message.Body)

	// The sender got a non-admin membership row in the same transaction.
	require.Len(t, channels.AddedMemberships, 1)
	assert.Equal(t, senderID, channels.AddedMemberships[0].UserID)
	assert.False(t, channels.AddedMemberships[0].IsAdmin)

	require.Len(t, channels.CreatedMessages, 1)

	// Fanout reaches all members, the new one included.
	require.Len(t, notifier.chatEvents, 1)
	assert.Equal(t, realtime.EventNewGroupMessage, notifier.chatEvents[0].eventType)
	assert.ElementsMatch(t, []uuid.UUID{existingID, senderID}, notifier.chatEvents[0].memberIDs)
}

func TestChannelService_PostMessage_ExistingMemberNoJoin(t *testing.T) {
	t.Parallel()

	channel := channelFixture(true)
	memberID := uuid.New()

	channels := &mocks.MockChannelStore{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
			return channel, nil
		},
		GetMembershipFn: membershipLookup(uuid.Nil, memberID),
		ListMemberIDsFn: func(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
			return []uuid.UUID{memberID}, nil
		},
	}
	svc, mock := newChannelService(t, channels, &fakeNotifier{}, &fakeBroadcaster{})

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.PostMessage(context.Background(), channel.ID, memberID, "hello")

	require.NoError(t, err)
	assert.False(t, result.Joined)
	assert.Empty(t, channels.AddedMemberships)
}

func TestChannelService_PostMessage_PrivateNonMemberRejected(t *testing.T) {
	t.Parallel()

	channel := channelFixture(true)
	channels := &mocks.MockChannelStore{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
			return channel, nil
		},
	}
	svc, _ := newChannelService(t, channels, &fakeNotifier{}, &fakeBroadcaster{})

	_, err := svc.PostMessage(context.Background(), channel.ID, uuid.New(), "let me in")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, channels.CreatedMessages)
}

func TestChannelService_PostMessage_ChannelNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newChannelService(t, &mocks.MockChannelStore{}, &fakeNotifier{}, &fakeBroadcaster{})

	_, err := svc.PostMessage(context.Background(), uuid.New(), uuid.New(), "anyone?")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestChannelService_PostMessage_EmptyBody(t *testing.T) {
	t.Parallel()

	channel := channelFixture(false)
	memberID := uuid.New()
	channels := &mocks.MockChannelStore{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
			return channel, nil
		},
		GetMembershipFn: membershipLookup(uuid.Nil, memberID),
	}
	svc, _ := newChannelService(t, channels, &fakeNotifier{}, &fakeBroadcaster{})

	_, err := svc.PostMessage(context.Background(), channel.ID, memberID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestChannelService_AddMember_RequiresAdmin(t *testing.T) {
	t.Parallel()

	channel := channelFixture(true)
	adminID := uuid.New()
	plainID := uuid.New()

	channels := &mocks.MockChannelStore{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
			return channel, nil
		},
		GetMembershipFn: membershipLookup(adminID, plainID),
	}
	broadcaster := &fakeBroadcaster{}
	svc, _ := newChannelService(t, channels, &fakeNotifier{}, broadcaster)

	newUserID := uuid.New()

	// A plain member cannot add anyone.
	_, err := svc.AddMember(context.Background(), channel.ID, plainID, newUserID, false)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, channels.AddedMemberships)

	// Someone with no membership at all cannot either, even though the
	// channel is visible to them.
	_, err = svc.AddMember(context.Background(), channel.ID, uuid.New(), newUserID, false)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// The admin can.
	effects, err := svc.AddMember(context.Background(), channel.ID, adminID, newUserID, false)
	require.NoError(t, err)
	assert.Empty(t, effects)
	require.Len(t, channels.AddedMemberships, 1)
	assert.Equal(t, newUserID, channels.AddedMemberships[0].UserID)

	require.Len(t, broadcaster.sends, 1)
	assert.Equal(t, realtime.EventChannelMemberAdded, broadcaster.sends[0].event.Type)
}

func TestChannelService_AddMember_Duplicate(t *testing.T) {
	t.Parallel()

	channel := channelFixture(true)
	adminID := uuid.New()
	memberID := uuid.New()

	channels := &mocks.MockChannelStore{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
			return channel, nil
		},
		GetMembershipFn: membershipLookup(adminID, memberID),
		AddMembershipFn: func(_ context.Context, _ *domain.ChannelMembership) error {
			return store.ErrAlreadyMember
		},
	}
	svc, _ := newChannelService(t, channels, &fakeNotifier{}, &fakeBroadcaster{})

	_, err := svc.AddMember(context.Background(), channel.ID, adminID, memberID, false)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestChannelService_RemoveMember_SelfRemovalIsIdempotent(t *testing.T) {
	t.Parallel()

	channel := channelFixture(false)
	userID := uuid.New()

	channels := &mocks.MockChannelStore{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
			return channel, nil
		},
		RemoveMembershipFn: func(_ context.Context, _, _ uuid.UUID) error {
			return store.ErrMembershipNotFound
		},
	}
	broadcaster := &fakeBroadcaster{}
	svc, _ := newChannelService(t, channels, &fakeNotifier{}, broadcaster)

	// Leaving a channel you never joined succeeds quietly.
	effects, err := svc.RemoveMember(context.Background(), channel.ID, userID, userID)
	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Empty(t, broadcaster.sends)
}

func TestChannelService_RemoveMember_AdminRemovingNonMember(t *testing.T) {
	t.Parallel()

	channel := channelFixture(true)
	adminID := uuid.New()

	channels := &mocks.MockChannelStore{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
			return channel, nil
		},
		GetMembershipFn: membershipLookup(adminID),
		RemoveMembershipFn: func(_ context.Context, _, _ uuid.UUID) error {
			return store.ErrMembershipNotFound
		},
	}
	svc, _ := newChannelService(t, channels, &fakeNotifier{}, &fakeBroadcaster{})

	// Unlike self-removal, an admin removing a non-member is an error.
	_, err := svc.RemoveMember(context.Background(), channel.ID, adminID, uuid.New())
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestChannelService_RemoveMember_AdminRemovesMember(t *testing.T) {
	t.Parallel()

	channel := channelFixture(true)
	adminID := uuid.New()
	memberID := uuid.New()
	var removed uuid.UUID

	channels := &mocks.MockChannelStore{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
			return channel, nil
		},
		GetMembershipFn: membershipLookup(adminID, memberID),
		RemoveMembershipFn: func(_ context.Context, _, userID uuid.UUID) error {
			removed = userID
			return nil
		},
		ListMemberIDsFn: func(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
			return []uuid.UUID{adminID}, nil
		},
	}
	broadcaster := &fakeBroadcaster{}
	svc, _ := newChannelService(t, channels, &fakeNotifier{}, broadcaster)

	_, err := svc.RemoveMember(context.Background(), channel.ID, adminID, memberID)

	require.NoError(t, err)
	assert.Equal(t, memberID, removed)

	// The removed user is told about it along with the remaining members.
	require.Len(t, broadcaster.sends, 1)
	assert.Equal(t, realtime.EventChannelMemberRemoved, broadcaster.sends[0].event.Type)
	assert.ElementsMatch(t, []uuid.UUID{adminID, memberID}, broadcaster.sends[0].userIDs)
}

func TestChannelService_RemoveMember_NonAdminRemovingOther(t *testing.T) {
	t.Parallel()

	channel := channelFixture(false)
	plainID := uuid.New()
	otherID := uuid.New()

	channels := &mocks.MockChannelStore{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Channel, error) {
			return channel, nil
		},
		GetMembershipFn: membershipLookup(uuid.Nil, plainID, otherID),
	}
	svc, _ := newChannelService(t, channels, &fakeNotifier{}, &fakeBroadcaster{})

	_, err := svc.RemoveMember(context.Background(), channel.ID, plainID, otherID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
