package messaging

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// Start returns the conversation between initiator and target, creating it
// on first contact. The pair is unordered: if the target had already started
// a conversation the other way around, that same conversation is returned
// rather than a mirror-image duplicate.
func (s *Service) Start(initiatorID, targetID int64) (models.Conversation, error) {
	if initiatorID == targetID {
		return models.Conversation{}, ErrSelfConversation
	}

	// The target must exist; a dangling id reads as not-found.
	if _, err := s.store.GetUser(targetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Conversation{}, ErrNotFound
		}
		return models.Conversation{}, fmt.Errorf("failed to load target user: %w", err)
	}

	conv, _, err := s.store.GetOrCreateConversation(initiatorID, targetID, s.now())
	if err != nil {
		return models.Conversation{}, fmt.Errorf("failed to get or create conversation: %w", err)
	}
	return conv, nil
}

// ResolveParticipant is the access-control gate for every conversation-scoped
// operation. A missing conversation and a non-participant caller both come
// back as ErrNotFound so existence is never confirmed to outsiders.
func (s *Service) ResolveParticipant(convID uuid.UUID, userID int64) (models.Conversation, string, error) {
	conv, err := s.store.GetConversation(convID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Conversation{}, "", ErrNotFound
		}
		return models.Conversation{}, "", fmt.Errorf("failed to load conversation: %w", err)
	}

	role := conv.RoleOf(userID)
	if role == "" {
		return models.Conversation{}, "", ErrNotFound
	}
	return conv, role, nil
}

// OtherParty returns the user on the opposite side of the conversation from
// userID.
func (s *Service) OtherParty(convID uuid.UUID, userID int64) (models.User, error) {
	conv, _, err := s.ResolveParticipant(convID, userID)
	if err != nil {
		return models.User{}, err
	}
	other, err := s.store.GetUser(conv.OtherParty(userID))
	if err != nil {
		return models.User{}, fmt.Errorf("failed to load other party: %w", err)
	}
	return other, nil
}
