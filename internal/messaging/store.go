package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// Store is the persistence boundary of the messaging core. internal/db
// implements it on Postgres; tests use an in-memory fake.
//
// Missing rows are reported as sql.ErrNoRows, matching database/sql; the
// service maps them to ErrNotFound before they reach a caller.
type Store interface {
	// GetOrCreateConversation returns the conversation between the two
	// users in either orientation, creating it on first contact with
	// initiatorID recorded as the initiator. The bool reports creation.
	// Concurrent first contacts must converge on a single row.
	GetOrCreateConversation(initiatorID, recipientID int64, now time.Time) (models.Conversation, bool, error)

	GetConversation(id uuid.UUID) (models.Conversation, error)

	// AppendMessage atomically inserts the message, binds the optional
	// attachment and advances the conversation's last_message_at. The
	// returned message carries its assigned sequence id, strictly greater
	// than every earlier id in the conversation.
	AppendMessage(convID uuid.UUID, senderID int64, content string, att *models.Attachment, now time.Time) (models.Message, error)

	// MarkMessagesRead transitions is_read false -> true on every message
	// in the conversation not sent by readerID. Never the reverse.
	MarkMessagesRead(convID uuid.UUID, readerID int64) (int64, error)

	// ListMessages returns messages with id > sinceID ascending, capped at
	// limit.
	ListMessages(convID uuid.UUID, sinceID int64, limit int) ([]models.Message, error)

	// ListInbox returns the user's conversations ordered by
	// last_message_at descending with fresh unread counts.
	ListInbox(userID int64) ([]models.InboxItem, error)

	// SetLastNotified stamps the notification throttle mark for one role.
	SetLastNotified(convID uuid.UUID, role string, at time.Time) error

	GetUser(id int64) (models.User, error)
	GetUserProfile(id int64) (models.UserProfile, error)
}

// BlobStore persists attachment bytes outside the database and serves them
// back by key.
type BlobStore interface {
	// Save stores data under the conversation's namespace and returns the
	// storage key.
	Save(conversationID uuid.UUID, name string, data []byte) (string, error)

	// URL returns the address the stored object is served from.
	URL(key string) string
}

// Mailer delivers notification emails. Implementations are best-effort: the
// messaging core never fails a send over a mailer error.
type Mailer interface {
	Send(to, subject, body string) error
}
