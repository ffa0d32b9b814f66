// Package storage keeps attachment bytes on local disk, addressed by a
// conversation-scoped key. Only the key is persisted in the database.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DiskStore writes blobs under root/chat/<conversation>/<name> and serves
// them back through the media endpoint.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore creates the blob root if needed. An empty dir falls back to a
// media_storage directory next to the executable. baseURL is the public
// prefix attachments are served from (e.g. "/api/media").
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if dir == "" {
		executable, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve executable path: %w", err)
		}
		dir = filepath.Join(filepath.Dir(executable), "media_storage")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create media storage directory at %s: %w", dir, err)
	}
	log.WithField("dir", dir).Info("Media storage initialized.")
	return &DiskStore{root: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes data under the conversation's namespace and returns the
// storage key. The caller supplies a sanitized name; Save adds nothing but
// the directory layout.
func (d *DiskStore) Save(conversationID uuid.UUID, name string, data []byte) (string, error) {
	key := fmt.Sprintf("chat/%s/%s", conversationID, name)
	path := filepath.Join(d.root, "chat", conversationID.String(), name)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("cannot create conversation directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("cannot write blob %s: %w", key, err)
	}
	return key, nil
}

// URL maps a storage key to the public media endpoint.
func (d *DiskStore) URL(key string) string {
	return d.baseURL + "/" + key
}

// Open returns the on-disk path for a key after rejecting traversal
// attempts. Callers hand the path to http.ServeFile.
func (d *DiskStore) Open(key string) (string, error) {
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	path := filepath.Join(d.root, filepath.FromSlash(key))
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
