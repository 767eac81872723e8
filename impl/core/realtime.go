package core

import (
	"log/slog"
	"time"

	"supplyhub/entity"
	"supplyhub/internal/lib/sl"
)

// HandleMarkRead handles a markRead frame from the channel.
func (c *Core) HandleMarkRead(userID, conversationID string) error {
	return c.MarkRead(&entity.UserAuth{UserID: userID}, conversationID)
}

// HandleTyping fans a typing signal out to the other participants.
// Transient: nothing is persisted.
func (c *Core) HandleTyping(userID, conversationID string, isTyping bool) {
	conversation, err := c.repo.GetConversation(conversationID)
	if err != nil || conversation == nil || !conversation.HasParticipant(userID) {
		return
	}

	if c.hub == nil {
		return
	}
	for _, p := range conversation.Participants {
		if p == nil || p.ID == userID {
			continue
		}
		c.hub.SendTypingStatus(p.ID, conversationID, userID, isTyping)
	}
}

// HandleViewing records which conversation the user currently has open
// and clears its unread counter while viewed.
func (c *Core) HandleViewing(userID, conversationID string, isViewing bool) {
	c.viewingMu.Lock()
	if isViewing {
		c.viewing[userID] = conversationID
	} else if c.viewing[userID] == conversationID {
		delete(c.viewing, userID)
	}
	c.viewingMu.Unlock()

	if isViewing {
		if err := c.repo.ClearUnread(conversationID, userID); err != nil {
			c.log.With(sl.Err(err)).Error("clear unread on viewing")
		}
	}
}

// HandleConnected marks the user online and fans the status change out
// to everyone sharing a conversation with them.
func (c *Core) HandleConnected(userID string) {
	c.setPresence(userID, true)
}

// HandleDisconnected marks the user offline and drops any viewing state.
func (c *Core) HandleDisconnected(userID string) {
	c.viewingMu.Lock()
	delete(c.viewing, userID)
	c.viewingMu.Unlock()

	c.setPresence(userID, false)
}

func (c *Core) setPresence(userID string, online bool) {
	now := time.Now()
	if err := c.repo.SetUserPresence(userID, online, now); err != nil {
		c.log.With(
			slog.String("user_id", userID),
			sl.Err(err),
		).Error("store presence")
	}

	if c.hub == nil {
		return
	}

	conversations, err := c.repo.GetConversations(userID)
	if err != nil {
		c.log.With(sl.Err(err)).Error("load conversations for presence fan-out")
		return
	}

	status := entity.Presence{IsOnline: online, LastSeen: now}
	seen := make(map[string]bool)
	for i := range conversations {
		for _, p := range conversations[i].Participants {
			if p == nil || p.ID == userID || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			c.hub.SendUserStatus(p.ID, userID, status)
		}
	}
}
