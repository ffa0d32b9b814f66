package messaging

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olugbengaakindele/handyhubclean/internal/models"
)

// memStore is an in-memory Store used by the service tests. It mirrors the
// Postgres implementation's contract, including sql.ErrNoRows for missing
// rows and a single global message id sequence.
type memStore struct {
	mu        sync.Mutex
	users     map[int64]models.User
	profiles  map[int64]models.UserProfile
	convs     map[uuid.UUID]*models.Conversation
	messages  []*models.Message
	nextMsgID int64

	failAppend bool // when set, AppendMessage errors without writing
}

func nullTime() sql.NullTime {
	return sql.NullTime{}
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]models.User),
		profiles: make(map[int64]models.UserProfile),
		convs:    make(map[uuid.UUID]*models.Conversation),
	}
}

func (m *memStore) addUser(id int64, email, name string, lastSeen sql.NullTime) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = models.User{ID: id, Email: email, LastSeenAt: lastSeen}
	m.profiles[id] = models.UserProfile{UserID: id, FirstName: name}
}

func (m *memStore) setLastSeen(id int64, lastSeen sql.NullTime) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.LastSeenAt = lastSeen
	m.users[id] = u
}

func (m *memStore) GetOrCreateConversation(initiatorID, recipientID int64, now time.Time) (models.Conversation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.convs {
		if (c.InitiatorID == initiatorID && c.RecipientID == recipientID) ||
			(c.InitiatorID == recipientID && c.RecipientID == initiatorID) {
			return *c, false, nil
		}
	}
	c := &models.Conversation{
		ID:            uuid.New(),
		InitiatorID:   initiatorID,
		RecipientID:   recipientID,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	m.convs[c.ID] = c
	return *c, true, nil
}

func (m *memStore) GetConversation(id uuid.UUID) (models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return models.Conversation{}, sql.ErrNoRows
	}
	return *c, nil
}

func (m *memStore) AppendMessage(convID uuid.UUID, senderID int64, content string, att *models.Attachment, now time.Time) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAppend {
		return models.Message{}, fmt.Errorf("simulated storage failure")
	}
	c, ok := m.convs[convID]
	if !ok {
		return models.Message{}, sql.ErrNoRows
	}

	m.nextMsgID++
	msg := &models.Message{
		ID:             m.nextMsgID,
		ConversationID: convID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      now,
	}
	if att != nil {
		attCopy := *att
		attCopy.MessageID = msg.ID
		attCopy.CreatedAt = now
		msg.Attachment = &attCopy
	}
	m.messages = append(m.messages, msg)
	c.LastMessageAt = now
	return *msg, nil
}

func (m *memStore) MarkMessagesRead(convID uuid.UUID, readerID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, msg := range m.messages {
		if msg.ConversationID == convID && msg.SenderID != readerID && !msg.IsRead {
			msg.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListMessages(convID uuid.UUID, sinceID int64, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == convID && msg.ID > sinceID {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListInbox(userID int64) ([]models.InboxItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []models.InboxItem
	for _, c := range m.convs {
		if c.InitiatorID != userID && c.RecipientID != userID {
			continue
		}
		item := models.InboxItem{Conversation: *c, OtherPartyID: c.OtherParty(userID)}
		for _, msg := range m.messages {
			if msg.ConversationID != c.ID {
				continue
			}
			if item.LastMessage == nil || msg.ID > item.LastMessage.ID {
				msgCopy := *msg
				item.LastMessage = &msgCopy
			}
			if msg.SenderID != userID && !msg.IsRead {
				item.UnreadCount++
			}
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Conversation.LastMessageAt.After(items[j].Conversation.LastMessageAt)
	})
	return items, nil
}

func (m *memStore) SetLastNotified(convID uuid.UUID, role string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.convs[convID]
	if !ok {
		return sql.ErrNoRows
	}
	switch role {
	case models.RoleInitiator:
		c.InitiatorLastNotifiedAt = sql.NullTime{Time: at, Valid: true}
	case models.RoleRecipient:
		c.RecipientLastNotifiedAt = sql.NullTime{Time: at, Valid: true}
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	return nil
}

func (m *memStore) GetUser(id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *memStore) GetUserProfile(id int64) (models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return models.UserProfile{}, sql.ErrNoRows
	}
	return p, nil
}

// fakeBlobs records saved blobs in memory.
type fakeBlobs struct {
	mu    sync.Mutex
	saved map[string][]byte
	fail  bool
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{saved: make(map[string][]byte)}
}

func (f *fakeBlobs) Save(conversationID uuid.UUID, name string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", fmt.Errorf("simulated blob failure")
	}
	key := "chat/" + conversationID.String() + "/" + name
	f.saved[key] = append([]byte(nil), data...)
	return key, nil
}

func (f *fakeBlobs) URL(key string) string {
	return "/api/media/" + key
}

// fakeMailer signals each delivery on a channel so tests can wait for the
// asynchronous dispatch.
type fakeMailer struct {
	mu        sync.Mutex
	delivered chan string // recipient addresses
	fail      bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{delivered: make(chan string, 16)}
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("simulated smtp failure")
	}
	f.delivered <- to
	return nil
}

// testHarness wires a service against the in-memory fakes with a
// controllable clock.
type testHarness struct {
	svc    *Service
	store  *memStore
	blobs  *fakeBlobs
	mailer *fakeMailer
	clock  time.Time
}

func newTestHarness() *testHarness {
	h := &testHarness{
		store:  newMemStore(),
		blobs:  newFakeBlobs(),
		mailer: newFakeMailer(),
		clock:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	h.svc = NewService(h.store, h.blobs, h.mailer, "https://handymenhub.example")
	h.svc.now = func() time.Time { return h.clock }
	return h
}

func (h *testHarness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}
