package chatclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyhub/entity"
)

func TestSessionConversationList(t *testing.T) {
	t.Run("upsert keeps display positions stable", func(t *testing.T) {
		s := NewSession()
		first := conversationWith("c1", "u2", "bob")
		second := conversationWith("c2", "u3", "carol")

		assert.Equal(t, 1, s.UpsertConversation(first))
		assert.Equal(t, 2, s.UpsertConversation(second))

		replacement := conversationWith("c1", "u2", "bob")
		replacement.UnreadCount = 4
		assert.Equal(t, 1, s.UpsertConversation(replacement))

		require.Len(t, s.Conversations(), 2)
		assert.Equal(t, 4, s.Conversations()[0].UnreadCount)
		assert.Equal(t, "c2", s.Conversations()[1].ID)
	})

	t.Run("one-based index resolution", func(t *testing.T) {
		s := NewSession()
		s.UpsertConversation(conversationWith("c1", "u2", "bob"))

		c, err := s.ConversationAt(1)
		require.NoError(t, err)
		assert.Equal(t, "c1", c.ID)

		_, err = s.ConversationAt(0)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)

		_, err = s.ConversationAt(2)
		require.ErrorAs(t, err, &notFound)
	})
}

func TestSessionFocus(t *testing.T) {
	t.Run("focusing zeroes unread and resets the page", func(t *testing.T) {
		s := NewSession()
		c := conversationWith("c1", "u2", "bob")
		c.UnreadCount = 3
		s.UpsertConversation(c)

		require.NotNil(t, s.SetFocus("c1"))

		assert.Zero(t, s.Focused().UnreadCount)
		assert.Empty(t, s.Messages())
	})

	t.Run("focus on unknown id is refused", func(t *testing.T) {
		s := NewSession()
		assert.Nil(t, s.SetFocus("nope"))
		assert.Nil(t, s.Focused())
	})

	t.Run("clear focus returns the previous conversation", func(t *testing.T) {
		s := NewSession()
		s.UpsertConversation(conversationWith("c1", "u2", "bob"))
		s.SetFocus("c1")

		previous := s.ClearFocus()
		require.NotNil(t, previous)
		assert.Equal(t, "c1", previous.ID)
		assert.Nil(t, s.Focused())
		assert.Nil(t, s.ClearFocus())
	})
}

func TestSessionMessages(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	msg := func(id string, offset time.Duration) *entity.Message {
		return &entity.Message{ID: id, ConversationID: "c1", Text: id, CreatedAt: base.Add(offset)}
	}

	t.Run("duplicates by id are dropped", func(t *testing.T) {
		s := NewSession()
		s.UpsertConversation(conversationWith("c1", "u2", "bob"))
		s.SetFocus("c1")

		assert.True(t, s.AddMessage(msg("m1", 0)))
		assert.False(t, s.AddMessage(msg("m1", time.Minute)))
		assert.Len(t, s.Messages(), 1)
	})

	t.Run("out-of-order arrival converges to timestamp order", func(t *testing.T) {
		s := NewSession()
		s.UpsertConversation(conversationWith("c1", "u2", "bob"))
		s.SetFocus("c1")

		s.AddMessage(msg("m2", 2*time.Minute))
		s.AddMessage(msg("m1", time.Minute))
		s.AddMessage(msg("m3", 3*time.Minute))

		page := s.Messages()
		require.Len(t, page, 3)
		assert.Equal(t, []string{"m1", "m2", "m3"}, []string{page[0].ID, page[1].ID, page[2].ID})
	})

	t.Run("messages for other conversations are ignored", func(t *testing.T) {
		s := NewSession()
		s.UpsertConversation(conversationWith("c1", "u2", "bob"))
		s.SetFocus("c1")

		other := &entity.Message{ID: "mx", ConversationID: "c9", CreatedAt: base}
		assert.False(t, s.AddMessage(other))
		assert.Empty(t, s.Messages())
	})

	t.Run("nothing lands without focus", func(t *testing.T) {
		s := NewSession()
		s.UpsertConversation(conversationWith("c1", "u2", "bob"))

		assert.False(t, s.AddMessage(msg("m1", 0)))
	})
}

func TestSessionPresenceFanOut(t *testing.T) {
	s := NewSession()
	s.UpsertConversation(conversationWith("c1", "u2", "bob"))
	s.UpsertConversation(conversationWith("c2", "u2", "bob"))
	s.UpsertConversation(conversationWith("c3", "u3", "carol"))

	seen := time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC)
	s.ApplyPresence("u2", entity.Presence{IsOnline: true, LastSeen: seen})

	for _, id := range []string{"c1", "c2"} {
		other := s.ConversationByID(id).Counterpart("u1")
		require.NotNil(t, other)
		assert.True(t, other.IsOnline, id)
		assert.Equal(t, seen, other.LastSeen, id)
	}
	carol := s.ConversationByID("c3").Counterpart("u1")
	require.NotNil(t, carol)
	assert.False(t, carol.IsOnline)
}

func TestSessionUnreadCounters(t *testing.T) {
	s := NewSession()
	s.UpsertConversation(conversationWith("c1", "u2", "bob"))

	s.IncrementUnread("c1")
	s.IncrementUnread("c1")
	assert.Equal(t, 2, s.ConversationByID("c1").UnreadCount)

	s.ClearUnread("c1")
	assert.Zero(t, s.ConversationByID("c1").UnreadCount)

	// Unknown ids are a no-op, not a panic.
	s.IncrementUnread("c9")
	s.ClearUnread("c9")
}
