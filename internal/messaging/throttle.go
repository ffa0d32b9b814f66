package messaging

import (
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/constants"
	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// NotifyDecision records whether a send triggered a notification and, when it
// did not, why.
type NotifyDecision struct {
	Notify bool
	Reason string
}

// ShouldNotify is the throttle policy as a pure function: notify iff the
// recipient looks inactive (no last-seen mark, or one older than the
// inactivity threshold) and this direction of the conversation has not been
// notified within the cooldown window.
//
// This is an at-most-once-per-cooldown rate limiter, not a delivery
// guarantee: an active recipient or a recent notification silently wins.
func ShouldNotify(lastSeenAt, lastNotifiedAt sql.NullTime, now time.Time) NotifyDecision {
	isInactive := !lastSeenAt.Valid || now.Sub(lastSeenAt.Time) > constants.INACTIVE_AFTER
	if !isInactive {
		return NotifyDecision{Reason: "recipient recently active"}
	}
	if lastNotifiedAt.Valid && now.Sub(lastNotifiedAt.Time) < constants.NOTIFY_COOLDOWN {
		return NotifyDecision{Reason: "within notification cooldown"}
	}
	return NotifyDecision{Notify: true}
}

// MaybeNotify runs the throttle for the recipient of a freshly appended
// message and, when the policy says so, stamps the cooldown mark and fires
// the email. Dispatch is fire-and-forget: a dead mail backend is logged and
// swallowed, never surfaced to the sender.
func (s *Service) MaybeNotify(conv models.Conversation, senderID int64, now time.Time) NotifyDecision {
	recipientID := conv.OtherParty(senderID)

	recipient, err := s.store.GetUser(recipientID)
	if err != nil {
		log.WithError(err).WithField("user_id", recipientID).Warn("MaybeNotify: failed to load recipient, skipping notification.")
		return NotifyDecision{Reason: "recipient lookup failed"}
	}

	decision := ShouldNotify(recipient.LastSeenAt, conv.LastNotifiedAt(recipientID), now)
	if !decision.Notify {
		return decision
	}

	// Stamp the cooldown before dispatching so a slow backend cannot let a
	// burst of sends queue up duplicate emails. A failed dispatch still
	// consumes the slot, which the rate-limiter contract permits.
	if err := s.store.SetLastNotified(conv.ID, conv.RoleOf(recipientID), now); err != nil {
		log.WithError(err).WithField("conversation_id", conv.ID).Warn("MaybeNotify: failed to stamp cooldown, skipping notification.")
		return NotifyDecision{Reason: "cooldown stamp failed"}
	}

	subject, body := s.buildNotification(conv, senderID, recipient)
	go func() {
		if err := s.mailer.Send(recipient.Email, subject, body); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"conversation_id": conv.ID,
				"recipient_id":    recipientID,
			}).Warn("Notification dispatch failed.")
		}
	}()
	return decision
}

func (s *Service) buildNotification(conv models.Conversation, senderID int64, recipient models.User) (string, string) {
	senderName := "A HandymenHub user"
	if profile, err := s.store.GetUserProfile(senderID); err == nil {
		senderName = profile.DisplayName()
	}
	recipientName := recipient.Email
	if profile, err := s.store.GetUserProfile(recipient.ID); err == nil {
		recipientName = profile.DisplayName()
	}

	link := fmt.Sprintf("%s/messages/c/%s/", s.siteURL, conv.ID)
	subject := "You have a new message on HandymenHub"
	body := fmt.Sprintf(
		"Hi %s,\n\nYou received a new message from %s.\n\nOpen the conversation:\n%s\n\n- HandymenHub",
		recipientName, senderName, link)
	return subject, body
}
