package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Participant roles inside a single conversation. The initiator is the party
// who made first contact ("visitor" in the UI); the recipient is the
// tradesperson being contacted. The pair itself is unordered for uniqueness:
// two users can never hold more than one conversation between them.
const (
	RoleInitiator = "initiator"
	RoleRecipient = "recipient"
)

// Conversation is a persistent channel between exactly two users. The primary
// key is a random UUID so conversation URLs cannot be enumerated.
type Conversation struct {
	ID          uuid.UUID `json:"id"`
	InitiatorID int64     `json:"initiator_id"`
	RecipientID int64     `json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`

	// LastMessageAt advances on every append and drives inbox ordering.
	LastMessageAt time.Time `json:"last_message_at"`

	// Per-direction email throttle marks. Null until the first notification.
	InitiatorLastNotifiedAt sql.NullTime `json:"-"`
	RecipientLastNotifiedAt sql.NullTime `json:"-"`
}

// RoleOf reports which side of the conversation userID is on, or "" when the
// user is not a participant.
func (c *Conversation) RoleOf(userID int64) string {
	switch userID {
	case c.InitiatorID:
		return RoleInitiator
	case c.RecipientID:
		return RoleRecipient
	}
	return ""
}

// OtherParty returns the participant opposite userID. Callers must have
// checked participation first.
func (c *Conversation) OtherParty(userID int64) int64 {
	if userID == c.InitiatorID {
		return c.RecipientID
	}
	return c.InitiatorID
}

// LastNotifiedAt returns the throttle mark for the given participant.
func (c *Conversation) LastNotifiedAt(userID int64) sql.NullTime {
	if userID == c.InitiatorID {
		return c.InitiatorLastNotifiedAt
	}
	return c.RecipientLastNotifiedAt
}

// Message is one entry in a conversation's append-only ledger. The id comes
// from a global BIGSERIAL, so within a conversation ids are strictly
// increasing and agree with insertion order. Only IsRead ever changes after
// creation, and only false -> true.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`

	// Attachment is nil for text-only messages.
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Attachment is the optional image bound to exactly one message. Only a
// storage locator is kept here; the bytes live in blob storage.
type Attachment struct {
	MessageID  int64     `json:"-"`
	StorageKey string    `json:"-"`
	URL        string    `json:"url"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// InboxItem is one row of a user's aggregated inbox: the conversation, its
// most recent message and a fresh unread count. Nothing here is cached.
type InboxItem struct {
	Conversation Conversation `json:"conversation"`
	LastMessage  *Message     `json:"last_message,omitempty"`
	OtherPartyID int64        `json:"other_party_id"`
	UnreadCount  int          `json:"unread_count"`
}
