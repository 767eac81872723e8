package entity

import (
	"time"

	"github.com/google/uuid"
)

// Message is immutable once created; ordering key is CreatedAt,
// not arrival order.
type Message struct {
	ID             string      `json:"id" bson:"_id"`
	ConversationID string      `json:"conversation_id" bson:"conversation_id" validate:"required"`
	Sender         *User       `json:"sender" bson:"sender" validate:"required"`
	Text           string      `json:"text" bson:"text"`
	Attachment     *Attachment `json:"attachment,omitempty" bson:"attachment,omitempty"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
}

func NewMessage(conversationID string, sender *User, text string) *Message {
	return &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		CreatedAt:      time.Now(),
	}
}
