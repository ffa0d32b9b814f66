package messaging

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/constants"
	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// ImageUpload carries a raw attachment candidate from the request boundary.
type ImageUpload struct {
	Filename     string
	DeclaredMIME string
	Data         []byte
}

// Append writes one message to the conversation's ledger on behalf of
// senderID. The message row, its optional attachment and the conversation's
// recency bump commit as a single transaction; the assigned sequence id is
// strictly greater than every earlier id in the conversation.
//
// After the commit the notification throttle runs for the recipient. Its
// outcome never affects the returned message.
func (s *Service) Append(convID uuid.UUID, senderID int64, content string, upload *ImageUpload) (models.Message, error) {
	conv, _, err := s.ResolveParticipant(convID, senderID)
	if err != nil {
		return models.Message{}, err
	}

	content = strings.TrimSpace(content)
	if content == "" && upload == nil {
		return models.Message{}, ErrEmptyMessage
	}

	now := s.now()

	var att *models.Attachment
	if upload != nil {
		mimeType, errValidate := ValidateImage(upload)
		if errValidate != nil {
			return models.Message{}, errValidate
		}

		// Blob first, rows second: a failed transaction can orphan a blob
		// but never yields a message that silently lost its image.
		name := uuid.New().String() + "_" + sanitizeFilename(upload.Filename)
		key, errSave := s.blobs.Save(conv.ID, name, upload.Data)
		if errSave != nil {
			return models.Message{}, fmt.Errorf("failed to store attachment: %w", errSave)
		}
		att = &models.Attachment{
			StorageKey: key,
			MimeType:   mimeType,
			SizeBytes:  int64(len(upload.Data)),
		}
	}

	msg, err := s.store.AppendMessage(conv.ID, senderID, content, att, now)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to append message: %w", err)
	}
	s.fillAttachmentURL(&msg)

	decision := s.MaybeNotify(conv, senderID, now)
	log.WithFields(log.Fields{
		"conversation_id": conv.ID,
		"message_id":      msg.ID,
		"notified":        decision.Notify,
	}).Debug("Message appended.")

	return msg, nil
}

// MarkReadUpTo flips every unread message from the other party to read. It
// runs when a participant opens the conversation view, not on polls.
func (s *Service) MarkReadUpTo(convID uuid.UUID, readerID int64) error {
	conv, _, err := s.ResolveParticipant(convID, readerID)
	if err != nil {
		return err
	}
	if _, err := s.store.MarkMessagesRead(conv.ID, readerID); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// List returns the conversation's messages with id > sinceID in ascending
// sequence order. sinceID 0 loads from the beginning, capped at the initial
// history limit; repeated calls with the highest id seen so far make a
// cursor-style poll. The poll contract is strictly read-only.
func (s *Service) List(convID uuid.UUID, readerID int64, sinceID int64) ([]models.Message, error) {
	conv, _, err := s.ResolveParticipant(convID, readerID)
	if err != nil {
		return nil, err
	}

	limit := constants.POLL_LIMIT
	if sinceID == 0 {
		limit = constants.INITIAL_HISTORY_LIMIT
	}

	messages, err := s.store.ListMessages(conv.ID, sinceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	for i := range messages {
		s.fillAttachmentURL(&messages[i])
	}
	return messages, nil
}

// sanitizeFilename strips path components and characters that have no
// business in a storage key.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "image"
	}
	return name
}
