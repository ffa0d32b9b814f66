package api

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/db"
	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// inboxEntry decorates a messaging inbox item with the other party's display
// name for rendering.
type inboxEntry struct {
	models.InboxItem
	OtherPartyName string `json:"other_party_name"`
}

// GetInbox returns the user's conversations ordered by recency with unread
// counts. Counts are computed per call, so reads reflect the latest
// mark-read immediately.
func (a *API) GetInbox(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)

	items, err := a.Msg.Inbox(user.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Failed to load inbox.")
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	entries := make([]inboxEntry, 0, len(items))
	for _, item := range items {
		entry := inboxEntry{InboxItem: item}
		if profile, errProfile := db.GetUserProfile(item.OtherPartyID); errProfile == nil {
			entry.OtherPartyName = profile.DisplayName()
		}
		entries = append(entries, entry)
	}

	writeJSONSuccess(w, "", entries)
}
