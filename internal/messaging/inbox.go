package messaging

import (
	"fmt"

	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// Inbox returns one item per conversation the user participates in, ordered
// by last activity descending. Each item carries the latest message
// (attachment included) and an unread count computed fresh on every call, so
// a mark-read is visible to the very next inbox load.
func (s *Service) Inbox(userID int64) ([]models.InboxItem, error) {
	items, err := s.store.ListInbox(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	for i := range items {
		s.fillAttachmentURL(items[i].LastMessage)
	}
	return items, nil
}
