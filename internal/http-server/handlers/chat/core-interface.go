package chat

import "supplyhub/entity"

type Core interface {
	GetConversations(userID string) ([]entity.Conversation, error)
	GetMessages(userID, conversationID string, page, limit int) ([]entity.Message, error)
	StartConversation(userID, participantID string) (*entity.Conversation, error)
	SendMessage(user *entity.UserAuth, conversationID, text string, attachment *entity.Attachment) (*entity.Message, error)
	MarkRead(user *entity.UserAuth, conversationID string) error
	SearchUsers(userID, query string) ([]entity.User, error)
}
