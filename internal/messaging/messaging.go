// Package messaging implements the conversation core of the marketplace:
// conversation identity, the append-only message ledger, attachment
// validation, the notification throttle and the inbox aggregation.
//
// The package is transport-agnostic. HTTP handlers live in internal/api;
// persistence lives behind the Store interface (implemented on Postgres by
// internal/db).
package messaging

import (
	"errors"
	"time"

	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// Sentinel errors surfaced to the request boundary. The HTTP layer maps them
// to field-level validation errors or a generic not-found.
var (
	// ErrSelfConversation: a user tried to start a conversation with
	// themselves.
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")

	// ErrNotFound covers both a missing conversation and a non-participant
	// probing someone else's conversation. The two are deliberately
	// indistinguishable so existence is never leaked.
	ErrNotFound = errors.New("conversation not found")

	// ErrEmptyMessage: no trimmed content and no attachment.
	ErrEmptyMessage = errors.New("message has no content and no attachment")

	// Attachment validation failures.
	ErrImageTooLarge        = errors.New("image exceeds the maximum size")
	ErrUnsupportedImageType = errors.New("image type is not supported")
	ErrInvalidImage         = errors.New("file is not a valid image")
)

// Service ties the messaging core to its collaborators.
type Service struct {
	store  Store
	blobs  BlobStore
	mailer Mailer

	siteURL string

	// now is swapped out by tests.
	now func() time.Time
}

// NewService wires a messaging service. siteURL is the public base URL used
// in notification email links.
func NewService(store Store, blobs BlobStore, mailer Mailer, siteURL string) *Service {
	return &Service{
		store:   store,
		blobs:   blobs,
		mailer:  mailer,
		siteURL: siteURL,
		now:     time.Now,
	}
}

// fillAttachmentURL resolves the stored locator into a servable URL.
func (s *Service) fillAttachmentURL(msg *models.Message) {
	if msg != nil && msg.Attachment != nil && msg.Attachment.URL == "" {
		msg.Attachment.URL = s.blobs.URL(msg.Attachment.StorageKey)
	}
}
