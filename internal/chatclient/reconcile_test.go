package chatclient

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyhub/entity"
)

func testReconciler() (*Reconciler, *Session, *fakeTransport, *bytes.Buffer) {
	session := NewSession()
	transport := newFakeTransport()
	transport.connected = true
	session.Identity = &entity.User{ID: "u1", Username: "alice"}
	session.Token = "token"
	session.Connected = true
	out := &bytes.Buffer{}
	r := NewReconciler(session, transport, NewRenderer(out), testLogger())
	return r, session, transport, out
}

func pushedMessage(id, conversationID, senderID, senderName, text string) *NewMessageEvent {
	return &NewMessageEvent{
		Message: entity.Message{
			ID:             id,
			ConversationID: conversationID,
			Sender:         &entity.User{ID: senderID, Username: senderName},
			Text:           text,
			CreatedAt:      time.Now(),
		},
	}
}

func TestReconcileNewMessage(t *testing.T) {
	t.Run("unfocused conversation gains exactly one unread", func(t *testing.T) {
		r, session, transport, out := testReconciler()
		session.UpsertConversation(conversationWith("c1", "u2", "bob"))

		r.Apply(pushedMessage("m1", "c1", "u2", "bob", "hi"))

		assert.Equal(t, 1, session.ConversationByID("c1").UnreadCount)
		assert.Contains(t, out.String(), "New message from bob")
		assert.Empty(t, transport.events)
		require.NotNil(t, session.ConversationByID("c1").LastMessage)
		assert.Equal(t, "m1", session.ConversationByID("c1").LastMessage.ID)
	})

	t.Run("focused conversation renders and sends a read receipt", func(t *testing.T) {
		r, session, transport, out := testReconciler()
		session.UpsertConversation(conversationWith("c1", "u2", "bob"))
		session.SetFocus("c1")

		r.Apply(pushedMessage("m1", "c1", "u2", "bob", "hi alice"))

		assert.Zero(t, session.Focused().UnreadCount)
		assert.Len(t, session.Messages(), 1)
		assert.Contains(t, out.String(), "bob: hi alice")
		assert.Equal(t, []string{"markRead"}, transport.eventNames())
	})

	t.Run("own echo sends no read receipt", func(t *testing.T) {
		r, session, transport, _ := testReconciler()
		session.UpsertConversation(conversationWith("c1", "u2", "bob"))
		session.SetFocus("c1")

		r.Apply(pushedMessage("m1", "c1", "u1", "alice", "sent elsewhere"))

		assert.Len(t, session.Messages(), 1)
		assert.Empty(t, transport.events)
	})

	t.Run("push racing a page fetch renders once", func(t *testing.T) {
		r, session, _, out := testReconciler()
		session.UpsertConversation(conversationWith("c1", "u2", "bob"))
		session.SetFocus("c1")

		ev := pushedMessage("m1", "c1", "u2", "bob", "hi")
		session.AddMessage(&ev.Message)
		before := out.String()

		r.Apply(ev)

		assert.Len(t, session.Messages(), 1)
		// The duplicate must not be printed again.
		assert.Equal(t, before, out.String())
	})

	t.Run("unknown conversation adopts the pushed snapshot", func(t *testing.T) {
		r, session, _, out := testReconciler()

		ev := pushedMessage("m1", "c1", "u2", "bob", "first contact")
		snapshot := conversationWith("c1", "u2", "bob")
		snapshot.UnreadCount = 1
		ev.Conversation = snapshot

		r.Apply(ev)

		adopted := session.ConversationByID("c1")
		require.NotNil(t, adopted)
		assert.Equal(t, 1, adopted.UnreadCount)
		assert.Contains(t, out.String(), "New message from bob")
	})

	t.Run("unknown conversation without snapshot is dropped", func(t *testing.T) {
		r, session, _, _ := testReconciler()

		r.Apply(pushedMessage("m1", "c1", "u2", "bob", "hi"))

		assert.Nil(t, session.ConversationByID("c1"))
	})
}

func TestReconcileTyping(t *testing.T) {
	t.Run("focused conversation shows the signal", func(t *testing.T) {
		r, session, _, out := testReconciler()
		session.UpsertConversation(conversationWith("c1", "u2", "bob"))
		session.SetFocus("c1")

		r.Apply(&TypingStatusEvent{ConversationID: "c1", UserID: "u2", IsTyping: true})
		assert.Contains(t, out.String(), "bob is typing...")

		r.Apply(&TypingStatusEvent{ConversationID: "c1", UserID: "u2", IsTyping: false})
		assert.Contains(t, out.String(), "bob stopped typing")
	})

	t.Run("other conversations stay silent and unchanged", func(t *testing.T) {
		r, session, _, out := testReconciler()
		session.UpsertConversation(conversationWith("c1", "u2", "bob"))
		session.UpsertConversation(conversationWith("c2", "u3", "carol"))
		session.SetFocus("c1")

		r.Apply(&TypingStatusEvent{ConversationID: "c2", UserID: "u3", IsTyping: true})

		assert.Empty(t, out.String())
		assert.Zero(t, session.ConversationByID("c2").UnreadCount)
	})
}

func TestReconcileUserStatus(t *testing.T) {
	t.Run("presence fans out across conversations", func(t *testing.T) {
		r, session, _, _ := testReconciler()
		session.UpsertConversation(conversationWith("c1", "u2", "bob"))
		session.UpsertConversation(conversationWith("c2", "u2", "bob"))

		r.Apply(&UserStatusEvent{UserID: "u2", Status: entity.Presence{IsOnline: true, LastSeen: time.Now()}})

		assert.True(t, session.ConversationByID("c1").Counterpart("u1").IsOnline)
		assert.True(t, session.ConversationByID("c2").Counterpart("u1").IsOnline)
	})

	t.Run("focused participant change is announced", func(t *testing.T) {
		r, session, _, out := testReconciler()
		session.UpsertConversation(conversationWith("c1", "u2", "bob"))
		session.SetFocus("c1")

		r.Apply(&UserStatusEvent{UserID: "u2", Status: entity.Presence{IsOnline: true}})
		assert.Contains(t, out.String(), "bob is now online")

		r.Apply(&UserStatusEvent{UserID: "u2", Status: entity.Presence{IsOnline: false, LastSeen: time.Now()}})
		assert.Contains(t, out.String(), "bob is now offline")
	})

	t.Run("stranger change is silent", func(t *testing.T) {
		r, session, _, out := testReconciler()
		session.UpsertConversation(conversationWith("c1", "u2", "bob"))
		session.SetFocus("c1")

		r.Apply(&UserStatusEvent{UserID: "u9", Status: entity.Presence{IsOnline: true}})

		assert.Empty(t, out.String())
	})
}

func TestReconcileMessagesRead(t *testing.T) {
	r, session, _, out := testReconciler()
	session.UpsertConversation(conversationWith("c1", "u2", "bob"))
	session.SetFocus("c1")

	r.Apply(&MessagesReadEvent{ConversationID: "c1", Reader: &entity.User{ID: "u2", Username: "bob"}})
	assert.Contains(t, out.String(), "bob read your messages")

	out.Reset()
	r.Apply(&MessagesReadEvent{ConversationID: "c2"})
	assert.Empty(t, out.String())
}

func TestReconcileChannelDown(t *testing.T) {
	r, session, _, out := testReconciler()

	r.Apply(&ChannelDownEvent{})

	assert.False(t, session.Connected)
	assert.Contains(t, out.String(), "Realtime channel lost")
}
