package entity

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a private thread between marketplace users.
// Unread is kept per participant in storage; UnreadCount is the
// viewer-relative count filled in before the document leaves the API.
type Conversation struct {
	ID           string         `json:"id" bson:"_id"`
	Participants []*User        `json:"participants" bson:"participants" validate:"required,min=2"`
	LastMessage  *Message       `json:"last_message,omitempty" bson:"last_message,omitempty"`
	Unread       map[string]int `json:"-" bson:"unread"`
	UnreadCount  int            `json:"unread_count" bson:"-"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updated_at"`
}

func NewConversation(participants ...*User) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:           uuid.NewString(),
		Participants: participants,
		Unread:       make(map[string]int),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasParticipant reports whether the user takes part in this conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p != nil && p.ID == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the first participant other than userID, or nil.
func (c *Conversation) Counterpart(userID string) *User {
	for _, p := range c.Participants {
		if p != nil && p.ID != userID {
			return p
		}
	}
	return nil
}

// ForViewer resolves the stored per-user counters into the
// viewer-relative shape sent over the wire.
func (c *Conversation) ForViewer(userID string) *Conversation {
	out := *c
	out.UnreadCount = 0
	if c.Unread != nil {
		out.UnreadCount = c.Unread[userID]
	}
	return &out
}
