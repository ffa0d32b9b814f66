package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/olugbengaakindele/handyhubclean/internal/constants"
)

// Manager holds login sessions and the per-user presence write gate in
// memory. Sessions die with the process; that is acceptable for this
// service, which keeps all durable state in Postgres.
type Manager struct {
	sessions      map[string]sessionEntry // key: opaque token
	sessionsMutex sync.RWMutex

	// lastSeenWrites remembers when each user's last_seen_at was last
	// flushed to the database, so the post-request hook writes at most once
	// per constants.LAST_SEEN_WRITE_INTERVAL.
	lastSeenWrites      map[int64]time.Time
	lastSeenWritesMutex sync.Mutex
}

type sessionEntry struct {
	userID    int64
	expiresAt time.Time
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions:       make(map[string]sessionEntry),
		lastSeenWrites: make(map[int64]time.Time),
	}
}

// Create opens a session for the user and returns the opaque token to put in
// the cookie.
func (m *Manager) Create(userID int64) string {
	token := uuid.NewString()

	m.sessionsMutex.Lock()
	m.sessions[token] = sessionEntry{
		userID:    userID,
		expiresAt: time.Now().Add(constants.SESSION_TTL),
	}
	m.sessionsMutex.Unlock()

	log.WithField("user_id", userID).Debug("Session created.")
	return token
}

// Resolve returns the user id behind a token. Expired sessions are evicted
// lazily on access.
func (m *Manager) Resolve(token string) (int64, bool) {
	m.sessionsMutex.RLock()
	entry, ok := m.sessions[token]
	m.sessionsMutex.RUnlock()

	if !ok {
		return 0, false
	}
	if time.Now().After(entry.expiresAt) {
		m.Destroy(token)
		return 0, false
	}
	return entry.userID, true
}

// Destroy removes a session. Safe to call with an unknown token.
func (m *Manager) Destroy(token string) {
	m.sessionsMutex.Lock()
	delete(m.sessions, token)
	m.sessionsMutex.Unlock()
}

// ShouldWriteLastSeen reports whether the user's presence mark is due for a
// database write and, when it is, claims the slot. Requests landing inside
// the window skip the write entirely.
func (m *Manager) ShouldWriteLastSeen(userID int64, now time.Time) bool {
	m.lastSeenWritesMutex.Lock()
	defer m.lastSeenWritesMutex.Unlock()

	last, ok := m.lastSeenWrites[userID]
	if ok && now.Sub(last) < constants.LAST_SEEN_WRITE_INTERVAL {
		return false
	}
	m.lastSeenWrites[userID] = now
	return true
}
