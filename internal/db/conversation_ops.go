package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

const conversationColumns = `id, initiator_id, recipient_id, created_at, last_message_at,
       initiator_last_notified_at, recipient_last_notified_at`

func scanConversation(row *sql.Row) (models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.InitiatorID, &c.RecipientID, &c.CreatedAt, &c.LastMessageAt,
		&c.InitiatorLastNotifiedAt, &c.RecipientLastNotifiedAt)
	return c, err
}

// GetConversationByID retrieves a single conversation. Returns sql.ErrNoRows
// when it does not exist.
func GetConversationByID(id uuid.UUID) (models.Conversation, error) {
	c, err := scanConversation(DB.QueryRow(
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).WithField("conversation_id", id).Error("GetConversationByID: query failed")
		}
		return c, err
	}
	return c, nil
}

// getConversationByPair matches the pair in either orientation. The unique
// index on (LEAST, GREATEST) guarantees at most one row.
func getConversationByPair(userA, userB int64) (models.Conversation, error) {
	return scanConversation(DB.QueryRow(`
        SELECT `+conversationColumns+`
        FROM conversations
        WHERE (initiator_id = $1 AND recipient_id = $2)
           OR (initiator_id = $2 AND recipient_id = $1)`, userA, userB))
}

// GetOrCreateConversation returns the conversation between the two users,
// creating it with the caller recorded as initiator on first contact. The
// second return value reports whether a new row was created.
//
// Two concurrent first-contact requests race on the unique pair index; the
// loser gets a 23505 and re-fetches the winner's row instead of failing.
func GetOrCreateConversation(initiatorID, recipientID int64, now time.Time) (models.Conversation, bool, error) {
	c, err := getConversationByPair(initiatorID, recipientID)
	if err == nil {
		return c, false, nil
	}
	if err != sql.ErrNoRows {
		log.WithError(err).Error("GetOrCreateConversation: pair lookup failed")
		return c, false, err
	}

	c, err = scanConversation(DB.QueryRow(`
        INSERT INTO conversations (id, initiator_id, recipient_id, created_at, last_message_at)
        VALUES ($1, $2, $3, $4, $4)
        RETURNING `+conversationColumns,
		uuid.New(), initiatorID, recipientID, now))
	if err == nil {
		log.WithFields(log.Fields{
			"conversation_id": c.ID,
			"initiator_id":    initiatorID,
			"recipient_id":    recipientID,
		}).Info("Created conversation.")
		return c, true, nil
	}

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		// Lost the creation race. Fetch the row the other request inserted.
		c, err = getConversationByPair(initiatorID, recipientID)
		if err != nil {
			log.WithError(err).Error("GetOrCreateConversation: re-fetch after conflict failed")
			return c, false, err
		}
		return c, false, nil
	}

	log.WithError(err).Error("GetOrCreateConversation: insert failed")
	return c, false, err
}

// SetLastNotified stamps the notification throttle mark for one side of the
// conversation.
func SetLastNotified(convID uuid.UUID, role string, at time.Time) error {
	var column string
	switch role {
	case models.RoleInitiator:
		column = "initiator_last_notified_at"
	case models.RoleRecipient:
		column = "recipient_last_notified_at"
	default:
		return fmt.Errorf("unknown conversation role %q", role)
	}

	_, err := DB.Exec(`UPDATE conversations SET `+column+` = $2 WHERE id = $1`, convID, at)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"conversation_id": convID,
			"role":            role,
		}).Error("SetLastNotified: update failed")
	}
	return err
}
