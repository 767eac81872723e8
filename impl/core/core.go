package core

import (
	"log/slog"
	"sync"
	"time"

	"supplyhub/entity"
	"supplyhub/internal/lib/sl"
)

type Repository interface {
	GetUserByEmail(email string) (*entity.User, error)
	GetUserByID(id string) (*entity.User, error)
	SearchUsers(query, excludeID string) ([]entity.User, error)
	UpsertUser(user entity.User) error
	SetUserPresence(userID string, online bool, lastSeen time.Time) error

	GetConversations(userID string) ([]entity.Conversation, error)
	GetConversation(id string) (*entity.Conversation, error)
	FindConversationBetween(userID, participantID string) (*entity.Conversation, error)
	InsertConversation(conversation entity.Conversation) error
	TouchConversation(conversation *entity.Conversation, msg entity.Message) error
	ClearUnread(conversationID, userID string) error

	InsertMessage(msg entity.Message) error
	GetMessages(conversationID string, page, limit int) ([]entity.Message, error)
}

type AuthService interface {
	Login(email, password string) (string, *entity.User, error)
	AuthenticateByToken(token string) (*entity.UserAuth, error)
}

type NotifyService interface {
	NotifyOfflineMessage(recipient *entity.User, msg entity.Message)
}

// LinkSigner issues expiring download links for stored attachments.
type LinkSigner interface {
	Sign(fileID string) string
}

type Hub interface {
	IsOnline(userID string) bool
	SendNewMessage(userID string, msg entity.Message, conversation *entity.Conversation)
	SendTypingStatus(userID, conversationID, typistID string, isTyping bool)
	SendUserStatus(userID, changedID string, status entity.Presence)
	SendMessagesRead(userID, conversationID string, reader *entity.User)
}

// Core wires the chat domain logic between storage, auth, the
// websocket hub and the notification sender.
type Core struct {
	repo        Repository
	authService AuthService
	notify      NotifyService
	hub         Hub
	links       LinkSigner
	log         *slog.Logger

	// viewing tracks which conversation each user currently has open,
	// reported by the client over the channel.
	viewingMu sync.RWMutex
	viewing   map[string]string
}

func New(log *slog.Logger) *Core {
	return &Core{
		log:     log.With(sl.Module("core")),
		viewing: make(map[string]string),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetAuthService(auth AuthService) {
	c.authService = auth
}

func (c *Core) SetNotifyService(notify NotifyService) {
	c.notify = notify
}

func (c *Core) SetHub(hub Hub) {
	c.hub = hub
}

func (c *Core) SetLinkSigner(links LinkSigner) {
	c.links = links
}
