package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Channel and Message
var (
	ErrEmptyChannelID      = errors.New("channel ID cannot be empty")
	ErrEmptyChannelName    = errors.New("channel name cannot be empty")
	ErrEmptyChannelCreator = errors.New("channel creator ID cannot be empty")
	ErrEmptyMessageBody    = errors.New("message body cannot be empty")
)

// Channel is a group conversation. Public channels (IsPrivate=false) grant
// effective membership to any authenticated user; private channels require
// an explicit membership row.
type Channel struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsPrivate bool      `json:"is_private"`
	CreatorID uuid.UUID `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChannel creates a validated Channel. The creator is expected to be
// inserted as the first admin member by the service layer.
func NewChannel(name string, isPrivate bool, creatorID uuid.UUID) (*Channel, error) {
	ch := &Channel{
		ID:        uuid.New(),
		Name:      name,
		IsPrivate: isPrivate,
		CreatorID: creatorID,
		CreatedAt: time.Now().UTC(),
	}

	if err := ch.Validate(); err != nil {
		return nil, err
	}

	return ch, nil
}

// Validate checks if the Channel has valid data.
func (c *Channel) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyChannelID
	}

	if c.Name == "" {
		return ErrEmptyChannelName
	}

	if c.CreatorID == uuid.Nil {
		return ErrEmptyChannelCreator
	}

	return nil
}

// ChannelMembership binds a user to a channel. IsAdmin gates member
// management operations.
type ChannelMembership struct {
	ChannelID uuid.UUID `json:"channel_id"`
	UserID    uuid.UUID `json:"user_id"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a chat message posted to a channel.
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChannelID uuid.UUID `json:"channel_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a validated Message for the given channel and sender.
func NewMessage(channelID, senderID uuid.UUID, body string) (*Message, error) {
	if body == "" {
		return nil, ErrEmptyMessageBody
	}

	return &Message{
		ID:        uuid.New(),
		ChannelID: channelID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}, nil
}
