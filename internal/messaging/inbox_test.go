package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboxOrdersByLastMessageDescending(t *testing.T) {
	h := newTestHarness()
	h.store.addUser(1, "visitor@example.com", "Vera", nullTime())
	h.store.addUser(2, "a@example.com", "Al", nullTime())
	h.store.addUser(3, "b@example.com", "Bea", nullTime())
	h.store.addUser(4, "c@example.com", "Cy", nullTime())

	// Three conversations with activity at T, T+5 and T+2.
	convA, err := h.svc.Start(1, 2)
	require.NoError(t, err)
	_, err = h.svc.Append(convA.ID, 1, "at T", nil)
	require.NoError(t, err)

	convB, err := h.svc.Start(1, 3)
	require.NoError(t, err)
	h.advance(5 * time.Minute)
	_, err = h.svc.Append(convB.ID, 1, "at T+5", nil)
	require.NoError(t, err)

	convC, err := h.svc.Start(1, 4)
	require.NoError(t, err)
	h.advance(-3 * time.Minute) // back to T+2
	_, err = h.svc.Append(convC.ID, 1, "at T+2", nil)
	require.NoError(t, err)

	items, err := h.svc.Inbox(1)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, convB.ID, items[0].Conversation.ID)
	assert.Equal(t, convC.ID, items[1].Conversation.ID)
	assert.Equal(t, convA.ID, items[2].Conversation.ID)
}

func TestInboxUnreadCountLifecycle(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	unreadFor := func(userID int64) int {
		t.Helper()
		items, errInbox := h.svc.Inbox(userID)
		require.NoError(t, errInbox)
		require.Len(t, items, 1)
		return items[0].UnreadCount
	}

	// The visitor's own messages never count against them.
	_, err = h.svc.Append(conv.ID, visitor, "one", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, unreadFor(visitor))
	assert.Equal(t, 1, unreadFor(trades))

	// Each message from the other party adds exactly one.
	_, err = h.svc.Append(conv.ID, visitor, "two", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, unreadFor(trades))

	// Opening the conversation resets the count, visible to the very next
	// inbox read.
	require.NoError(t, h.svc.MarkReadUpTo(conv.ID, trades))
	assert.Equal(t, 0, unreadFor(trades))

	// The visitor's view was never affected by the tradesperson's reads.
	assert.Equal(t, 0, unreadFor(visitor))
}

func TestInboxCarriesLatestMessageWithAttachment(t *testing.T) {
	h := newTestHarness()
	visitor, trades := seedTwoUsers(h)
	conv, err := h.svc.Start(visitor, trades)
	require.NoError(t, err)

	_, err = h.svc.Append(conv.ID, visitor, "text first", nil)
	require.NoError(t, err)
	h.advance(time.Minute)

	last, err := h.svc.Append(conv.ID, visitor, "with photo", &ImageUpload{
		Filename:     "deck.png",
		DeclaredMIME: "image/png",
		Data:         makePNG(t, 32, 32),
	})
	require.NoError(t, err)

	items, err := h.svc.Inbox(trades)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].LastMessage)
	assert.Equal(t, last.ID, items[0].LastMessage.ID)
	require.NotNil(t, items[0].LastMessage.Attachment)
	assert.NotEmpty(t, items[0].LastMessage.Attachment.URL, "inbox resolves attachment URLs")
	assert.Equal(t, trades, items[0].Conversation.OtherParty(visitor))
	assert.Equal(t, visitor, items[0].OtherPartyID)
}

func TestInboxOnlyListsOwnConversations(t *testing.T) {
	h := newTestHarness()
	h.store.addUser(1, "a@example.com", "Al", nullTime())
	h.store.addUser(2, "b@example.com", "Bea", nullTime())
	h.store.addUser(3, "c@example.com", "Cy", nullTime())

	conv, err := h.svc.Start(1, 2)
	require.NoError(t, err)
	_, err = h.svc.Append(conv.ID, 1, "private", nil)
	require.NoError(t, err)

	items, err := h.svc.Inbox(3)
	require.NoError(t, err)
	assert.Empty(t, items)
}
