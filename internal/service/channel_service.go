package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/realtime"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// MessageResult is the outcome of posting a message: the message as
// committed, whether the sender was implicitly joined to the channel, and
// any side-effect failures from the fanout.
type MessageResult struct {
	Message     *domain.Message
	Joined      bool
	SideEffects SideEffects
}

// ChannelService provides channel, membership and messaging operations.
type ChannelService interface {
	// Create creates a channel with the creator as its first admin member.
	Create(ctx context.Context, name string, isPrivate bool, creatorID uuid.UUID) (*domain.Channel, error)

	// IsMember reports the user's effective membership: an explicit row,
	// or any authenticated user for a public channel.
	IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error)

	// PostMessage posts to the channel. Posting to a public channel the
	// sender has not joined joins them first, in the same transaction as
	// the message. Posting to a private channel without a membership row
	// returns domain.ErrUnauthorized.
	PostMessage(ctx context.Context, channelID, senderID uuid.UUID, body string) (*MessageResult, error)

	// AddMember adds userID to the channel. Only channel admins may do
	// this; duplicates return ErrAlreadyMember.
	AddMember(ctx context.Context, channelID, actorID, userID uuid.UUID, isAdmin bool) (SideEffects, error)

	// RemoveMember removes userID from the channel. Users may remove
	// themselves at any time, idempotently; removing someone else
	// requires admin and returns ErrMemberNotFound when no row exists.
	RemoveMember(ctx context.Context, channelID, actorID, userID uuid.UUID) (SideEffects, error)
}

// channelServiceImpl implements ChannelService.
type channelServiceImpl struct {
	db          *sql.DB
	executor    *store.RetryExecutor
	channels    store.ChannelStore
	notifier    Notifier
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewChannelService creates a ChannelService.
// It returns an error if any of the required dependencies are nil.
func NewChannelService(
	db *sql.DB,
	executor *store.RetryExecutor,
	channels store.ChannelStore,
	notifier Notifier,
	broadcaster Broadcaster,
	logger *slog.Logger,
) (ChannelService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if executor == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "executor cannot be nil"}
	}
	if channels == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "channels store cannot be nil"}
	}
	if notifier == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "notifier cannot be nil"}
	}
	if broadcaster == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "broadcaster cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &channelServiceImpl{
		db:          db,
		executor:    executor,
		channels:    channels,
		notifier:    notifier,
		broadcaster: broadcaster,
		logger:      logger.With("component", "channel_service"),
	}, nil
}

// Create implements ChannelService.Create.
func (s *channelServiceImpl) Create(
	ctx context.Context,
	name string,
	isPrivate bool,
	creatorID uuid.UUID,
) (*domain.Channel, error) {
	channel, err := domain.NewChannel(name, isPrivate, creatorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	err = s.executor.ExecuteTx(ctx, "create_channel", s.db, func(ctx context.Context, tx *sql.Tx) error {
		txChannels := s.channels.WithTx(tx)

		if err := txChannels.Create(ctx, channel); err != nil {
			return err
		}
		return txChannels.AddMembership(ctx, &domain.ChannelMembership{
			ChannelID: channel.ID,
			UserID:    creatorID,
			IsAdmin:   true,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, wrapStoreError("create_channel", "failed to create channel", err)
	}

	s.logger.Info("channel created",
		"channel_id", channel.ID,
		"creator_id", creatorID,
		"is_private", isPrivate)

	return channel, nil
}

// IsMember implements ChannelService.IsMember.
func (s *channelServiceImpl) IsMember(ctx context.Context, channelID, userID uuid.UUID) (bool, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return false, wrapStoreError("channel_membership", "failed to load channel", err)
	}

	_, err = s.channels.GetMembership(ctx, channelID, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrMembershipNotFound) {
		// Public channels grant effective membership to everyone.
		return !channel.IsPrivate, nil
	}
	return false, wrapStoreError("channel_membership", "failed to load membership", err)
}

// PostMessage implements ChannelService.PostMessage.
func (s *channelServiceImpl) PostMessage(
	ctx context.Context,
	channelID, senderID uuid.UUID,
	body string,
) (*MessageResult, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, wrapStoreError("post_message", "failed to load channel", err)
	}

	join := false
	_, err = s.channels.GetMembership(ctx, channelID, senderID)
	if err != nil {
		if !errors.Is(err, store.ErrMembershipNotFound) {
			return nil, wrapStoreError("post_message", "failed to load membership", err)
		}
		if channel.IsPrivate {
			return nil, fmt.Errorf("%w: not a member of private channel", domain.ErrUnauthorized)
		}
		join = true
	}

	msg, err := domain.NewMessage(channelID, senderID, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	err = s.executor.ExecuteTx(ctx, "post_message", s.db, func(ctx context.Context, tx *sql.Tx) error {
		txChannels := s.channels.WithTx(tx)

		if join {
			err := txChannels.AddMembership(ctx, &domain.ChannelMembership{
				ChannelID: channelID,
				UserID:    senderID,
				CreatedAt: time.Now().UTC(),
			})
			// A concurrent first post may have joined the sender already.
			if err != nil && !errors.Is(err, store.ErrAlreadyMember) {
				return err
			}
		}
		return txChannels.CreateMessage(ctx, msg)
	})
	if err != nil {
		return nil, wrapStoreError("post_message", "failed to post message", err)
	}

	if join {
		s.logger.Info("sender joined public channel on first post",
			"channel_id", channelID,
			"user_id", senderID)
	}

	members, err := s.channels.ListMemberIDs(ctx, channelID)
	var effects SideEffects
	if err != nil {
		s.logger.Warn("failed to list members for fanout",
			"channel_id", channelID,
			"error", err)
		effects = effects.Append("list_members", channelID.String(), err)
	} else {
		effects = effects.Merge(s.notifier.NotifyChat(ctx, realtime.EventNewGroupMessage, senderID, members,
			map[string]interface{}{
				"message_id":   msg.ID,
				"channel_id":   channelID,
				"channel_name": channel.Name,
				"sender_id":    senderID,
				"body":         msg.Body,
				"created_at":   msg.CreatedAt,
			}))
	}

	return &MessageResult{Message: msg, Joined: join, SideEffects: effects}, nil
}

// AddMember implements ChannelService.AddMember.
func (s *channelServiceImpl) AddMember(
	ctx context.Context,
	channelID, actorID, userID uuid.UUID,
	isAdmin bool,
) (SideEffects, error) {
	if _, err := s.channels.GetByID(ctx, channelID); err != nil {
		return nil, wrapStoreError("add_member", "failed to load channel", err)
	}

	if err := s.requireAdmin(ctx, channelID, actorID); err != nil {
		return nil, err
	}

	err := s.channels.AddMembership(ctx, &domain.ChannelMembership{
		ChannelID: channelID,
		UserID:    userID,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, wrapStoreError("add_member", "failed to add membership", err)
	}

	s.logger.Info("channel member added",
		"channel_id", channelID,
		"user_id", userID,
		"actor_id", actorID)

	return s.notifyMembership(ctx, realtime.EventChannelMemberAdded, channelID, actorID, userID), nil
}

// RemoveMember implements ChannelService.RemoveMember.
func (s *channelServiceImpl) RemoveMember(
	ctx context.Context,
	channelID, actorID, userID uuid.UUID,
) (SideEffects, error) {
	if _, err := s.channels.GetByID(ctx, channelID); err != nil {
		return nil, wrapStoreError("remove_member", "failed to load channel", err)
	}

	self := actorID == userID
	if !self {
		if err := s.requireAdmin(ctx, channelID, actorID); err != nil {
			return nil, err
		}
	}

	if err := s.channels.RemoveMembership(ctx, channelID, userID); err != nil {
		// Leaving a channel you are not in is a no-op, not an error.
		if self && errors.Is(err, store.ErrMembershipNotFound) {
			return nil, nil
		}
		return nil, wrapStoreError("remove_member", "failed to remove membership", err)
	}

	s.logger.Info("channel member removed",
		"channel_id", channelID,
		"user_id", userID,
		"actor_id", actorID,
		"self", self)

	return s.notifyMembership(ctx, realtime.EventChannelMemberRemoved, channelID, actorID, userID), nil
}

// requireAdmin returns domain.ErrUnauthorized unless the actor has an
// admin membership row. Implicit public-channel membership never grants
// admin.
func (s *channelServiceImpl) requireAdmin(ctx context.Context, channelID, actorID uuid.UUID) error {
	m, err := s.channels.GetMembership(ctx, channelID, actorID)
	if err != nil {
		if errors.Is(err, store.ErrMembershipNotFound) {
			return fmt.Errorf("%w: channel admin required", domain.ErrUnauthorized)
		}
		return wrapStoreError("channel_membership", "failed to load membership", err)
	}
	if !m.IsAdmin {
		return fmt.Errorf("%w: channel admin required", domain.ErrUnauthorized)
	}
	return nil
}

// notifyMembership pushes a membership-change event to the channel's
// remaining members plus the affected user.
func (s *channelServiceImpl) notifyMembership(
	ctx context.Context,
	eventType realtime.EventType,
	channelID, actorID, userID uuid.UUID,
) SideEffects {
	var effects SideEffects

	members, err := s.channels.ListMemberIDs(ctx, channelID)
	if err != nil {
		s.logger.Warn("failed to list members for fanout",
			"channel_id", channelID,
			"error", err)
		return effects.Append("list_members", channelID.String(), err)
	}

	targets := members
	found := false
	for _, id := range members {
		if id == userID {
			found = true
			break
		}
	}
	if !found {
		targets = append(append([]uuid.UUID{}, members...), userID)
	}

	s.broadcaster.SendToUsers(ctx, realtime.NewEvent(eventType, map[string]interface{}{
		"channel_id": channelID,
		"user_id":    userID,
		"actor_id":   actorID,
	}), targets)

	return effects
}
