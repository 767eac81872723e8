package chatclient

import (
	"fmt"

	"supplyhub/entity"
)

// Session is the single source of truth for the client: identity,
// conversation list, current focus and the focused message page.
// All access happens on the one client loop, so no locking is needed;
// the operations are still written so that out-of-order arrivals
// converge (idempotent upsert, de-dup by message id).
type Session struct {
	Identity  *entity.User
	Token     string
	Connected bool

	conversations []*entity.Conversation
	focusedID     string
	messages      []*entity.Message
}

func NewSession() *Session {
	return &Session{}
}

// Authenticated reports whether a login has completed.
func (s *Session) Authenticated() bool {
	return s.Identity != nil && s.Token != ""
}

// Conversations returns the ordered conversation list.
func (s *Session) Conversations() []*entity.Conversation {
	return s.conversations
}

// ConversationAt resolves a 1-based display index.
func (s *Session) ConversationAt(index int) (*entity.Conversation, error) {
	if index < 1 || index > len(s.conversations) {
		return nil, &NotFoundError{Ref: fmt.Sprintf("conversation %d", index)}
	}
	return s.conversations[index-1], nil
}

// ConversationByID returns the conversation or nil.
func (s *Session) ConversationByID(id string) *entity.Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// UpsertConversation replaces the conversation with the same id in
// place, keeping its position so numeric references stay stable, or
// appends it when new. Returns the 1-based display index.
func (s *Session) UpsertConversation(conversation *entity.Conversation) int {
	for i, c := range s.conversations {
		if c.ID == conversation.ID {
			s.conversations[i] = conversation
			return i + 1
		}
	}
	s.conversations = append(s.conversations, conversation)
	return len(s.conversations)
}

// Focused returns the focused conversation, or nil.
func (s *Session) Focused() *entity.Conversation {
	if s.focusedID == "" {
		return nil
	}
	return s.ConversationByID(s.focusedID)
}

// SetFocus focuses one conversation and zeroes its unread count. The
// unread count of the focused conversation is always 0 once the focus
// transition completes.
func (s *Session) SetFocus(id string) *entity.Conversation {
	conversation := s.ConversationByID(id)
	if conversation == nil {
		return nil
	}
	s.focusedID = id
	s.messages = nil
	conversation.UnreadCount = 0
	return conversation
}

// ClearFocus unfocuses, returning the previously focused conversation.
func (s *Session) ClearFocus() *entity.Conversation {
	previous := s.Focused()
	s.focusedID = ""
	s.messages = nil
	return previous
}

// ClearUnread zeroes the unread count of one conversation.
func (s *Session) ClearUnread(id string) {
	if c := s.ConversationByID(id); c != nil {
		c.UnreadCount = 0
	}
}

// IncrementUnread bumps the unread count of one conversation.
func (s *Session) IncrementUnread(id string) {
	if c := s.ConversationByID(id); c != nil {
		c.UnreadCount++
	}
}

// UpdateLastMessage refreshes a conversation's last-message summary.
func (s *Session) UpdateLastMessage(msg *entity.Message) {
	if c := s.ConversationByID(msg.ConversationID); c != nil {
		c.LastMessage = msg
	}
}

// ApplyPresence fans one participant's presence change out across
// every conversation referencing them.
func (s *Session) ApplyPresence(userID string, status entity.Presence) {
	for _, c := range s.conversations {
		for _, p := range c.Participants {
			if p != nil && p.ID == userID {
				p.IsOnline = status.IsOnline
				p.LastSeen = status.LastSeen
			}
		}
	}
}

// Messages returns the focused conversation's loaded page.
func (s *Session) Messages() []*entity.Message {
	return s.messages
}

// AddMessage inserts a message into the focused page, de-duplicating
// by id and keeping creation-timestamp order: push events may arrive
// out of chronological order relative to a concurrent page fetch.
// Reports whether the message was actually added.
func (s *Session) AddMessage(msg *entity.Message) bool {
	if s.focusedID == "" || msg.ConversationID != s.focusedID {
		return false
	}
	for _, m := range s.messages {
		if m.ID == msg.ID {
			return false
		}
	}

	pos := len(s.messages)
	for i, m := range s.messages {
		if msg.CreatedAt.Before(m.CreatedAt) {
			pos = i
			break
		}
	}
	s.messages = append(s.messages, nil)
	copy(s.messages[pos+1:], s.messages[pos:])
	s.messages[pos] = msg
	return true
}
