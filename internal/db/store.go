package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// Store adapts the package-level query functions to the messaging.Store
// interface. It carries no state; everything runs on the shared pool.
type Store struct{}

func (Store) GetOrCreateConversation(initiatorID, recipientID int64, now time.Time) (models.Conversation, bool, error) {
	return GetOrCreateConversation(initiatorID, recipientID, now)
}

func (Store) GetConversation(id uuid.UUID) (models.Conversation, error) {
	return GetConversationByID(id)
}

func (Store) AppendMessage(convID uuid.UUID, senderID int64, content string, att *models.Attachment, now time.Time) (models.Message, error) {
	return AppendMessage(convID, senderID, content, att, now)
}

func (Store) MarkMessagesRead(convID uuid.UUID, readerID int64) (int64, error) {
	return MarkMessagesRead(convID, readerID)
}

func (Store) ListMessages(convID uuid.UUID, sinceID int64, limit int) ([]models.Message, error) {
	return ListMessages(convID, sinceID, limit)
}

func (Store) ListInbox(userID int64) ([]models.InboxItem, error) {
	return ListInbox(userID)
}

func (Store) SetLastNotified(convID uuid.UUID, role string, at time.Time) error {
	return SetLastNotified(convID, role, at)
}

func (Store) GetUser(id int64) (models.User, error) {
	return GetUserByID(id)
}

func (Store) GetUserProfile(id int64) (models.UserProfile, error) {
	return GetUserProfile(id)
}
