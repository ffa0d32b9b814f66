package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsStrictlyIncreasingIDs(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	var lastID int64
	senders := []int64{visitor, trades, visitor, visitor, trades}
	for i, sender := range senders {
		msg, errAppend := h.svc.Append(conv.ID, sender, "message", nil)
		require.NoError(t, errAppend, "append %d", i)
		assert.Greater(t, msg.ID, lastID)
		lastID = msg.ID
		h.advance(time.Second)
	}
}

func TestAppendRejectsEmptyMessage(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	for _, content := range []string{"", "   ", "\n\t "} {
		_, errAppend := h.svc.Append(conv.ID, visitor, content, nil)
		assert.ErrorIs(t, errAppend, ErrEmptyMessage, "content %q", content)
	}

	// Both participants hit the same rule.
	_, err = h.svc.Append(conv.ID, trades, "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAppendAllowsAttachmentOnlyMessage(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	msg, err := h.svc.Append(conv.ID, visitor, "", &ImageUpload{
		Filename:     "kitchen sink.png",
		DeclaredMIME: "image/png",
		Data:         makePNG(t, 24, 24),
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "image/png", msg.Attachment.MimeType)
	assert.NotEmpty(t, msg.Attachment.URL)

	// The blob landed under the conversation's namespace with a sanitized
	// name.
	assert.Len(t, h.blobs.saved, 1)
	for key := range h.blobs.saved {
		assert.Contains(t, key, "chat/"+conv.ID.String()+"/")
		assert.Contains(t, key, "kitchen_sink.png")
	}
}

func TestAppendFromOutsiderIsNotFound(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	h.store.addUser(3, "stranger@example.com", "Sam", nullTime())
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	_, err = h.svc.Append(conv.ID, 3, "let me in", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendAdvancesLastMessageAt(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	h.advance(10 * time.Minute)
	_, err = h.svc.Append(conv.ID, visitor, "hello", nil)
	require.NoError(t, err)

	stored, err := h.store.GetConversation(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, h.clock, stored.LastMessageAt)
}

func TestMarkReadUpToOnlyFlipsOtherPartysMessages(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	_, err = h.svc.Append(conv.ID, visitor, "from visitor 1", nil)
	require.NoError(t, err)
	_, err = h.svc.Append(conv.ID, trades, "from trades", nil)
	require.NoError(t, err)
	_, err = h.svc.Append(conv.ID, visitor, "from visitor 2", nil)
	require.NoError(t, err)

	require.NoError(t, h.svc.MarkReadUpTo(conv.ID, trades))

	messages, err := h.svc.List(conv.ID, trades, 0)
	require.NoError(t, err)
	for _, msg := range messages {
		if msg.SenderID == visitor {
			assert.True(t, msg.IsRead, "visitor message %d should be read", msg.ID)
		} else {
			assert.False(t, msg.IsRead, "trades' own message %d stays unread", msg.ID)
		}
	}
}

func TestListSinceIDReturnsOnlyNewMessages(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	var ids []int64
	for i := 0; i < 5; i++ {
		msg, errAppend := h.svc.Append(conv.ID, visitor, "msg", nil)
		require.NoError(t, errAppend)
		ids = append(ids, msg.ID)
	}

	all, err := h.svc.List(conv.ID, trades, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)

	newer, err := h.svc.List(conv.ID, trades, ids[2])
	require.NoError(t, err)
	require.Len(t, newer, 2)
	assert.Equal(t, ids[3], newer[0].ID)
	assert.Equal(t, ids[4], newer[1].ID)

	none, err := h.svc.List(conv.ID, trades, ids[4])
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListIsAscendingByID(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		sender := visitor
		if i%2 == 1 {
			sender = trades
		}
		_, errAppend := h.svc.Append(conv.ID, sender, "msg", nil)
		require.NoError(t, errAppend)
	}

	messages, err := h.svc.List(conv.ID, visitor, 0)
	require.NoError(t, err)
	for i := 1; i < len(messages); i++ {
		assert.Greater(t, messages[i].ID, messages[i-1].ID)
	}
}

func TestAppendStorageFailureLeavesNoMessage(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	h.store.failAppend = true
	_, err = h.svc.Append(conv.ID, visitor, "doomed", nil)
	require.Error(t, err)

	h.store.failAppend = false
	messages, err := h.svc.List(conv.ID, visitor, 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
