package chatclient

import (
	"encoding/json"
	"fmt"

	"supplyhub/entity"
)

// Inbound channel events as a tagged union: one validated Go shape per
// variant, decoded before anything reaches the reconciler.

type NewMessageEvent struct {
	Message      entity.Message       `json:"message"`
	Conversation *entity.Conversation `json:"conversation"`
}

type TypingStatusEvent struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

type UserStatusEvent struct {
	UserID string          `json:"user_id"`
	Status entity.Presence `json:"status"`
}

type MessagesReadEvent struct {
	ConversationID string       `json:"conversation_id"`
	Reader         *entity.User `json:"reader"`
}

// ChannelDownEvent is synthesized locally when reconnection is
// exhausted; the server never sends it.
type ChannelDownEvent struct{}

type eventFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeEvent parses a raw channel frame into its typed variant,
// rejecting frames with a missing tag or malformed body.
func DecodeEvent(raw []byte) (interface{}, error) {
	var frame eventFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("parse event frame: %w", err)
	}

	switch frame.Type {
	case "newMessage":
		var ev NewMessageEvent
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return nil, fmt.Errorf("parse newMessage: %w", err)
		}
		if ev.Message.ID == "" || ev.Message.ConversationID == "" {
			return nil, fmt.Errorf("newMessage missing message id or conversation id")
		}
		return &ev, nil

	case "typingStatus":
		var ev TypingStatusEvent
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return nil, fmt.Errorf("parse typingStatus: %w", err)
		}
		if ev.ConversationID == "" || ev.UserID == "" {
			return nil, fmt.Errorf("typingStatus missing ids")
		}
		return &ev, nil

	case "userStatusChanged":
		var ev UserStatusEvent
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return nil, fmt.Errorf("parse userStatusChanged: %w", err)
		}
		if ev.UserID == "" {
			return nil, fmt.Errorf("userStatusChanged missing user id")
		}
		return &ev, nil

	case "messagesRead":
		var ev MessagesReadEvent
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return nil, fmt.Errorf("parse messagesRead: %w", err)
		}
		if ev.ConversationID == "" {
			return nil, fmt.Errorf("messagesRead missing conversation id")
		}
		return &ev, nil
	}

	return nil, fmt.Errorf("unknown event type %q", frame.Type)
}
