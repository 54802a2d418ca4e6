package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// MockNotificationStore implements store.NotificationStore for testing.
type MockNotificationStore struct {
	CreateFn          func(ctx context.Context, n *domain.Notification) error
	GetByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	ListByRecipientFn func(ctx context.Context, recipientID uuid.UUID) ([]domain.Notification, error)
	UpdateStatusFn    func(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error

	Created []domain.Notification
}

var _ store.NotificationStore = (*MockNotificationStore)(nil)

// Create implements store.NotificationStore.Create
func (m *MockNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	m.Created = append(m.Created, *n)
	return nil
}

// GetByID implements store.NotificationStore.GetByID
func (m *MockNotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	for i := range m.Created {
		if m.Created[i].ID == id {
			return &m.Created[i], nil
		}
	}
	return nil, store.ErrNotificationNotFound
}

// ListByRecipient implements store.NotificationStore.ListByRecipient
func (m *MockNotificationStore) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]domain.Notification, error) {
	if m.ListByRecipientFn != nil {
		return m.ListByRecipientFn(ctx, recipientID)
	}
	var out []domain.Notification
	for _, n := range m.Created {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

// UpdateStatus implements store.NotificationStore.UpdateStatus
func (m *MockNotificationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	for i := range m.Created {
		if m.Created[i].ID == id {
			m.Created[i].Status = status
			return nil
		}
	}
	return store.ErrNotificationNotFound
}

// WithTx implements store.NotificationStore.WithTx
func (m *MockNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return m
}

// MockSessionStore implements store.SessionStore for testing. Sessions
// added to the map resolve; everything else is not found.
type MockSessionStore struct {
	CreateFn  func(ctx context.Context, session *domain.Session) error
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	DeleteFn  func(ctx context.Context, id uuid.UUID) error

	Sessions map[uuid.UUID]*domain.Session
}

var _ store.SessionStore = (*MockSessionStore)(nil)

// Create implements store.SessionStore.Create
func (m *MockSessionStore) Create(ctx context.Context, session *domain.Session) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, session)
	}
	if m.Sessions == nil {
		m.Sessions = make(map[uuid.UUID]*domain.Session)
	}
	m.Sessions[session.ID] = session
	return nil
}

// GetByID implements store.SessionStore.GetByID
func (m *MockSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if session, ok := m.Sessions[id]; ok {
		if session.Expired(time.Now().UTC()) {
			return nil, store.ErrSessionNotFound
		}
		return session, nil
	}
	return nil, store.ErrSessionNotFound
}

// Delete implements store.SessionStore.Delete
func (m *MockSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if _, ok := m.Sessions[id]; !ok {
		return store.ErrSessionNotFound
	}
	delete(m.Sessions, id)
	return nil
}

// DeleteExpired implements store.SessionStore.DeleteExpired
func (m *MockSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	for id, session := range m.Sessions {
		if session.Expired(now) {
			delete(m.Sessions, id)
			removed++
		}
	}
	return removed, nil
}

// MockUserStore implements store.UserStore for testing.
type MockUserStore struct {
	GetByIDFn  func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByIDsFn func(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)

	Users map[uuid.UUID]*domain.User
}

var _ store.UserStore = (*MockUserStore)(nil)

// GetByID implements store.UserStore.GetByID
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, store.ErrUserNotFound
}

// GetByIDs implements store.UserStore.GetByIDs
func (m *MockUserStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	if m.GetByIDsFn != nil {
		return m.GetByIDsFn(ctx, ids)
	}
	var users []domain.User
	for _, id := range ids {
		if user, ok := m.Users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}
