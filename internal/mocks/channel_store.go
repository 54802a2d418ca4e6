package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// MockChannelStore implements store.ChannelStore for testing.
type MockChannelStore struct {
	CreateFn           func(ctx context.Context, channel *domain.Channel) error
	GetByIDFn          func(ctx context.Context, id uuid.UUID) (*domain.Channel, error)
	GetMembershipFn    func(ctx context.Context, channelID, userID uuid.UUID) (*domain.ChannelMembership, error)
	AddMembershipFn    func(ctx context.Context, m *domain.ChannelMembership) error
	RemoveMembershipFn func(ctx context.Context, channelID, userID uuid.UUID) error
	ListMemberIDsFn    func(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error)
	CreateMessageFn    func(ctx context.Context, msg *domain.Message) error

	// AddedMemberships and CreatedMessages record default-path writes.
	AddedMemberships []domain.ChannelMembership
	CreatedMessages  []domain.Message
}

var _ store.ChannelStore = (*MockChannelStore)(nil)

// Create implements store.ChannelStore.Create
func (m *MockChannelStore) Create(ctx context.Context, channel *domain.Channel) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, channel)
	}
	return nil
}

// GetByID implements store.ChannelStore.GetByID
func (m *MockChannelStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, store.ErrChannelNotFound
}

// GetMembership implements store.ChannelStore.GetMembership
func (m *MockChannelStore) GetMembership(ctx context.Context, channelID, userID uuid.UUID) (*domain.ChannelMembership, error) {
	if m.GetMembershipFn != nil {
		return m.GetMembershipFn(ctx, channelID, userID)
	}
	return nil, store.ErrMembershipNotFound
}

// AddMembership implements store.ChannelStore.AddMembership
func (m *MockChannelStore) AddMembership(ctx context.Context, membership *domain.ChannelMembership) error {
	if m.AddMembershipFn != nil {
		return m.AddMembershipFn(ctx, membership)
	}
	m.AddedMemberships = append(m.AddedMemberships, *membership)
	return nil
}

// RemoveMembership implements store.ChannelStore.RemoveMembership
func (m *MockChannelStore) RemoveMembership(ctx context.Context, channelID, userID uuid.UUID) error {
	if m.RemoveMembershipFn != nil {
		return m.RemoveMembershipFn(ctx, channelID, userID)
	}
	return nil
}

// ListMemberIDs implements store.ChannelStore.ListMemberIDs
func (m *MockChannelStore) ListMemberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	if m.ListMemberIDsFn != nil {
		return m.ListMemberIDsFn(ctx, channelID)
	}
	return nil, nil
}

// CreateMessage implements store.ChannelStore.CreateMessage
func (m *MockChannelStore) CreateMessage(ctx context.Context, msg *domain.Message) error {
	if m.CreateMessageFn != nil {
		return m.CreateMessageFn(ctx, msg)
	}
	m.CreatedMessages = append(m.CreatedMessages, *msg)
	return nil
}

// WithTx implements store.ChannelStore.WithTx; mocks are transaction-agnostic.
func (m *MockChannelStore) WithTx(tx *sql.Tx) store.ChannelStore {
	return m
}
