package constants

import "time"

// Account roles
const (
	ROLE_VISITOR      = "visitor"
	ROLE_TRADESPERSON = "tradesperson"
	ROLE_ADMIN        = "admin"
)

// Messaging limits
const (
	// MAX_IMAGE_BYTES is the hard ceiling for a chat attachment (5 MiB).
	MAX_IMAGE_BYTES = 5 << 20

	// INITIAL_HISTORY_LIMIT caps the first full load of a conversation.
	INITIAL_HISTORY_LIMIT = 200

	// POLL_LIMIT caps a single since-id poll response.
	POLL_LIMIT = 200
)

// Notification throttle policy
const (
	// INACTIVE_AFTER is how stale last_seen_at must be before a recipient
	// counts as away and becomes eligible for an email notification.
	INACTIVE_AFTER = 5 * time.Minute

	// NOTIFY_COOLDOWN is the minimum interval between two notifications to
	// the same participant of the same conversation.
	NOTIFY_COOLDOWN = 30 * time.Minute
)

// Presence tracking
const (
	// LAST_SEEN_WRITE_INTERVAL limits how often a user's last_seen_at row is
	// rewritten. Requests inside the window skip the DB write.
	LAST_SEEN_WRITE_INTERVAL = 60 * time.Second
)

// Sessions
const (
	SESSION_COOKIE_NAME = "hh_session"
	SESSION_TTL         = 30 * 24 * time.Hour
)

// ALLOWED_IMAGE_MIME_TYPES lists the attachment content types a sender may
// declare. An absent declaration is tolerated; a wrong one is rejected.
var ALLOWED_IMAGE_MIME_TYPES = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}
