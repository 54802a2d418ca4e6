package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationStatus represents the delivery state of a notification.
type NotificationStatus string

// Possible notification status values. A record starts pending and only
// moves forward: pending -> sent -> read.
const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusRead    NotificationStatus = "read"
)

// Common validation errors for Notification
var (
	ErrEmptyNotificationRecipient = errors.New("notification recipient ID cannot be empty")
	ErrEmptyNotificationType      = errors.New("notification type cannot be empty")
	ErrInvalidNotificationStatus  = errors.New("invalid notification status")
	ErrInvalidStatusTransition    = errors.New("invalid notification status transition")
)

// Notification is a persisted record of a pending or delivered
// notification. Apart from its status it is immutable once created.
type Notification struct {
	ID          uuid.UUID          `json:"id"`
	RecipientID uuid.UUID          `json:"recipient_id"`
	TaskID      *uuid.UUID         `json:"task_id,omitempty"`
	Type        string             `json:"type"`
	Message     string             `json:"message"`
	Status      NotificationStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewNotification creates a pending Notification for the given recipient.
func NewNotification(recipientID uuid.UUID, taskID *uuid.UUID, notifType, message string) (*Notification, error) {
	now := time.Now().UTC()
	n := &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		TaskID:      taskID,
		Type:        notifType,
		Message:     message,
		Status:      NotificationStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.RecipientID == uuid.Nil {
		return ErrEmptyNotificationRecipient
	}

	if n.Type == "" {
		return ErrEmptyNotificationType
	}

	if !isValidNotificationStatus(n.Status) {
		return ErrInvalidNotificationStatus
	}

	return nil
}

// Transition moves the notification to the given status, enforcing the
// forward-only pending -> sent -> read order.
func (n *Notification) Transition(status NotificationStatus) error {
	if !isValidNotificationStatus(status) {
		return ErrInvalidNotificationStatus
	}

	if statusRank(status) <= statusRank(n.Status) {
		return ErrInvalidStatusTransition
	}

	n.Status = status
	n.UpdatedAt = time.Now().UTC()
	return nil
}

func isValidNotificationStatus(status NotificationStatus) bool {
	switch status {
	case NotificationStatusPending, NotificationStatusSent, NotificationStatusRead:
		return true
	default:
		return false
	}
}

func statusRank(status NotificationStatus) int {
	switch status {
	case NotificationStatusPending:
		return 0
	case NotificationStatusSent:
		return 1
	case NotificationStatusRead:
		return 2
	default:
		return -1
	}
}
