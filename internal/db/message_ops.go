package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// AppendMessage inserts a message, binds its optional attachment and bumps
// the conversation's last_message_at in one transaction, so a failure partway
// leaves no visible message. The returned message carries the
// sequence id assigned by the messages BIGSERIAL.
func AppendMessage(convID uuid.UUID, senderID int64, content string, att *models.Attachment, now time.Time) (models.Message, error) {
	var msg models.Message

	tx, err := DB.Begin()
	if err != nil {
		return msg, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
        INSERT INTO messages (conversation_id, sender_id, content, is_read, created_at)
        VALUES ($1, $2, $3, FALSE, $4)
        RETURNING id, conversation_id, sender_id, content, is_read, created_at`,
		convID, senderID, content, now).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.IsRead, &msg.CreatedAt)
	if err != nil {
		log.WithError(err).WithField("conversation_id", convID).Error("AppendMessage: message insert failed")
		return msg, err
	}

	if att != nil {
		err = tx.QueryRow(`
            INSERT INTO attachments (message_id, storage_key, mime_type, size_bytes, created_at)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING created_at`,
			msg.ID, att.StorageKey, att.MimeType, att.SizeBytes, now).Scan(&att.CreatedAt)
		if err != nil {
			log.WithError(err).WithField("message_id", msg.ID).Error("AppendMessage: attachment insert failed")
			return models.Message{}, err
		}
		att.MessageID = msg.ID
		msg.Attachment = att
	}

	_, err = tx.Exec(`UPDATE conversations SET last_message_at = $2 WHERE id = $1`, convID, now)
	if err != nil {
		log.WithError(err).WithField("conversation_id", convID).Error("AppendMessage: last_message_at bump failed")
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, fmt.Errorf("failed to commit message append: %w", err)
	}
	return msg, nil
}

// messageRowScanner is implemented by both *sql.Row and *sql.Rows.
type messageRowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessageWithAttachment(s messageRowScanner) (models.Message, error) {
	var msg models.Message
	var attKey, attMime sql.NullString
	var attSize sql.NullInt64
	var attCreated sql.NullTime

	err := s.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.IsRead, &msg.CreatedAt,
		&attKey, &attMime, &attSize, &attCreated)
	if err != nil {
		return msg, err
	}
	if attKey.Valid {
		msg.Attachment = &models.Attachment{
			MessageID:  msg.ID,
			StorageKey: attKey.String,
			MimeType:   attMime.String,
			SizeBytes:  attSize.Int64,
			CreatedAt:  attCreated.Time,
		}
	}
	return msg, nil
}

const messageSelect = `
        SELECT m.id, m.conversation_id, m.sender_id, m.content, m.is_read, m.created_at,
               a.storage_key, a.mime_type, a.size_bytes, a.created_at
        FROM messages m
        LEFT JOIN attachments a ON a.message_id = m.id`

// ListMessages returns messages with id > sinceID in ascending sequence
// order, capped at limit. sinceID = 0 means "from the beginning".
func ListMessages(convID uuid.UUID, sinceID int64, limit int) ([]models.Message, error) {
	rows, err := DB.Query(messageSelect+`
        WHERE m.conversation_id = $1 AND m.id > $2
        ORDER BY m.id ASC
        LIMIT $3`, convID, sinceID, limit)
	if err != nil {
		log.WithError(err).WithField("conversation_id", convID).Error("ListMessages: query failed")
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, errScan := scanMessageWithAttachment(rows)
		if errScan != nil {
			log.WithError(errScan).WithField("conversation_id", convID).Error("ListMessages: scan failed")
			return nil, errScan
		}
		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		log.WithError(err).WithField("conversation_id", convID).Error("ListMessages: row iteration failed")
		return nil, err
	}
	return messages, nil
}

// GetLastMessage returns the newest message of a conversation, or
// sql.ErrNoRows for an empty one.
func GetLastMessage(convID uuid.UUID) (models.Message, error) {
	row := DB.QueryRow(messageSelect+`
        WHERE m.conversation_id = $1
        ORDER BY m.id DESC
        LIMIT 1`, convID)
	return scanMessageWithAttachment(row)
}

// MarkMessagesRead flips is_read on every unread message not sent by the
// reader. The flag never goes back to false. Returns how many rows changed.
func MarkMessagesRead(convID uuid.UUID, readerID int64) (int64, error) {
	res, err := DB.Exec(`
        UPDATE messages
        SET is_read = TRUE
        WHERE conversation_id = $1 AND sender_id <> $2 AND NOT is_read`, convID, readerID)
	if err != nil {
		log.WithError(err).WithField("conversation_id", convID).Error("MarkMessagesRead: update failed")
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListInbox returns the user's conversations newest-activity-first, each with
// its latest message and a freshly computed unread count. Counts are never
// cached, so a mark-read is visible to the very next call.
func ListInbox(userID int64) ([]models.InboxItem, error) {
	rows, err := DB.Query(`
        SELECT `+conversationColumns+`,
               (SELECT COUNT(*) FROM messages m
                WHERE m.conversation_id = conversations.id
                  AND m.sender_id <> $1
                  AND NOT m.is_read) AS unread_count
        FROM conversations
        WHERE initiator_id = $1 OR recipient_id = $1
        ORDER BY last_message_at DESC`, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("ListInbox: query failed")
		return nil, err
	}
	defer rows.Close()

	var items []models.InboxItem
	for rows.Next() {
		var item models.InboxItem
		c := &item.Conversation
		errScan := rows.Scan(&c.ID, &c.InitiatorID, &c.RecipientID, &c.CreatedAt, &c.LastMessageAt,
			&c.InitiatorLastNotifiedAt, &c.RecipientLastNotifiedAt, &item.UnreadCount)
		if errScan != nil {
			log.WithError(errScan).WithField("user_id", userID).Error("ListInbox: scan failed")
			return nil, errScan
		}
		item.OtherPartyID = c.OtherParty(userID)
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("ListInbox: row iteration failed")
		return nil, err
	}

	for i := range items {
		last, errLast := GetLastMessage(items[i].Conversation.ID)
		if errLast == sql.ErrNoRows {
			continue
		}
		if errLast != nil {
			return nil, errLast
		}
		msg := last
		items[i].LastMessage = &msg
	}
	return items, nil
}

// ConversationActivity is one row of the admin messaging report.
type ConversationActivity struct {
	ConversationID uuid.UUID
	InitiatorEmail string
	RecipientEmail string
	MessageCount   int
	UnreadCount    int
	CreatedAt      time.Time
	LastMessageAt  time.Time
}

// GetMessagingActivity aggregates per-conversation totals for the admin
// export, newest activity first.
func GetMessagingActivity() ([]ConversationActivity, error) {
	rows, err := DB.Query(`
        SELECT c.id, ui.email, ur.email,
               COUNT(m.id) AS message_count,
               COUNT(m.id) FILTER (WHERE NOT m.is_read) AS unread_count,
               c.created_at, c.last_message_at
        FROM conversations c
        JOIN users ui ON ui.id = c.initiator_id
        JOIN users ur ON ur.id = c.recipient_id
        LEFT JOIN messages m ON m.conversation_id = c.id
        GROUP BY c.id, ui.email, ur.email
        ORDER BY c.last_message_at DESC`)
	if err != nil {
		log.WithError(err).Error("GetMessagingActivity: query failed")
		return nil, err
	}
	defer rows.Close()

	var activity []ConversationActivity
	for rows.Next() {
		var a ConversationActivity
		if errScan := rows.Scan(&a.ConversationID, &a.InitiatorEmail, &a.RecipientEmail,
			&a.MessageCount, &a.UnreadCount, &a.CreatedAt, &a.LastMessageAt); errScan != nil {
			log.WithError(errScan).Error("GetMessagingActivity: scan failed")
			return nil, errScan
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}
