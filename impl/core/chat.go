package core

import (
	"fmt"
	"strings"

	"supplyhub/entity"
)

// GetConversations returns the caller's conversations with
// viewer-relative unread counts.
func (c *Core) GetConversations(userID string) ([]entity.Conversation, error) {
	conversations, err := c.repo.GetConversations(userID)
	if err != nil {
		return nil, err
	}

	out := make([]entity.Conversation, 0, len(conversations))
	for i := range conversations {
		viewed := conversations[i].ForViewer(userID)
		c.stampAttachment(viewed.LastMessage)
		out = append(out, *viewed)
	}
	return out, nil
}

// stampAttachment fills the read-time download link of a message's
// attachment. Stored documents never carry the link.
func (c *Core) stampAttachment(msg *entity.Message) {
	if msg == nil || msg.Attachment == nil || c.links == nil {
		return
	}
	msg.Attachment.URL = c.links.Sign(msg.Attachment.FileID)
}

// GetMessages returns one page of a conversation the caller belongs to.
func (c *Core) GetMessages(userID, conversationID string, page, limit int) ([]entity.Message, error) {
	conversation, err := c.repo.GetConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil || !conversation.HasParticipant(userID) {
		return nil, fmt.Errorf("conversation not found")
	}

	messages, err := c.repo.GetMessages(conversationID, page, limit)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		c.stampAttachment(&messages[i])
	}
	return messages, nil
}

// StartConversation reuses an existing one-on-one thread with the
// participant or creates a new one.
func (c *Core) StartConversation(userID, participantID string) (*entity.Conversation, error) {
	if participantID == userID {
		return nil, fmt.Errorf("cannot start a conversation with yourself")
	}

	existing, err := c.repo.FindConversationBetween(userID, participantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing.ForViewer(userID), nil
	}

	self, err := c.repo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	other, err := c.repo.GetUserByID(participantID)
	if err != nil {
		return nil, err
	}
	if self == nil || other == nil {
		return nil, fmt.Errorf("participant not found")
	}

	conversation := entity.NewConversation(self.Summary(), other.Summary())
	if err := c.repo.InsertConversation(*conversation); err != nil {
		return nil, err
	}

	return conversation.ForViewer(userID), nil
}

// SendMessage persists a message, updates the conversation summary and
// unread counters, pushes it to every participant's channel and mails
// offline recipients.
func (c *Core) SendMessage(user *entity.UserAuth, conversationID, text string, attachment *entity.Attachment) (*entity.Message, error) {
	if strings.TrimSpace(text) == "" && attachment == nil {
		return nil, fmt.Errorf("empty message")
	}

	conversation, err := c.repo.GetConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil || !conversation.HasParticipant(user.UserID) {
		return nil, fmt.Errorf("conversation not found")
	}

	sender, err := c.repo.GetUserByID(user.UserID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, fmt.Errorf("sender not found")
	}

	msg := entity.NewMessage(conversationID, sender.Summary(), text)
	msg.Attachment = attachment

	if err := c.repo.InsertMessage(*msg); err != nil {
		return nil, err
	}
	if err := c.repo.TouchConversation(conversation, *msg); err != nil {
		return nil, err
	}

	c.stampAttachment(msg)
	conversation.LastMessage = msg
	for _, p := range conversation.Participants {
		if p == nil {
			continue
		}
		if c.hub != nil {
			c.hub.SendNewMessage(p.ID, *msg, conversation.ForViewer(p.ID))
		}
		if p.ID == user.UserID {
			continue
		}
		if c.notify != nil && (c.hub == nil || !c.hub.IsOnline(p.ID)) {
			recipient, err := c.repo.GetUserByID(p.ID)
			if err == nil && recipient != nil {
				// Best effort, SMTP latency must not hold up the send
				// response.
				go c.notify.NotifyOfflineMessage(recipient, *msg)
			}
		}
	}

	return msg, nil
}

// MarkRead zeroes the caller's unread counter and tells the other
// participants their messages were seen.
func (c *Core) MarkRead(user *entity.UserAuth, conversationID string) error {
	conversation, err := c.repo.GetConversation(conversationID)
	if err != nil {
		return err
	}
	if conversation == nil || !conversation.HasParticipant(user.UserID) {
		return fmt.Errorf("conversation not found")
	}

	if err := c.repo.ClearUnread(conversationID, user.UserID); err != nil {
		return err
	}

	if c.hub != nil {
		reader := &entity.User{ID: user.UserID, Username: user.Username}
		for _, p := range conversation.Participants {
			if p == nil || p.ID == user.UserID {
				continue
			}
			c.hub.SendMessagesRead(p.ID, conversationID, reader)
		}
	}

	return nil
}

// SearchUsers finds marketplace users the caller could start a
// conversation with.
func (c *Core) SearchUsers(userID, query string) ([]entity.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []entity.User{}, nil
	}

	users, err := c.repo.SearchUsers(query, userID)
	if err != nil {
		return nil, err
	}

	out := make([]entity.User, 0, len(users))
	for i := range users {
		out = append(out, *users[i].Summary())
	}
	return out, nil
}
