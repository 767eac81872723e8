package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"supplyhub/entity"
)

// ClientEventHandler handles events pushed by connected chat clients,
// and connection lifecycle transitions for presence.
type ClientEventHandler interface {
	HandleMarkRead(userID, conversationID string) error
	HandleTyping(userID, conversationID string, isTyping bool)
	HandleViewing(userID, conversationID string, isViewing bool)
	HandleConnected(userID string)
	HandleDisconnected(userID string)
}

// Event is a WebSocket frame in either direction.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type delivery struct {
	userID string
	event  *Event
}

// Hub maintains active connections keyed by user and routes events
// to the connections of specific participants.
type Hub struct {
	clients    map[string]map[*Client]bool
	deliver    chan *delivery
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	handler    ClientEventHandler
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		deliver:    make(chan *delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// SetHandler sets the handler for incoming client events.
func (h *Hub) SetHandler(handler ClientEventHandler) {
	h.handler = handler
}

// Run starts the hub's event loop. Should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			first := len(h.clients[client.userID]) == 0
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			if first && h.handler != nil {
				// Off the hub loop: the callback fans deliveries back
				// into h.deliver and would wedge Run once the buffer
				// fills.
				go h.handler.HandleConnected(client.userID)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			last := false
			if conns, ok := h.clients[client.userID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.send)
				}
				if len(conns) == 0 {
					delete(h.clients, client.userID)
					last = true
				}
			}
			h.mu.Unlock()
			if last && h.handler != nil {
				go h.handler.HandleDisconnected(client.userID)
			}

		case d := <-h.deliver:
			data, err := json.Marshal(d.event)
			if err != nil {
				continue
			}
			// Full lock: evicting a backlogged client mutates the map
			// that IsOnline reads from other goroutines.
			h.mu.Lock()
			for client := range h.clients[d.userID] {
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients[d.userID], client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// IsOnline reports whether the user has at least one open connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// SendNewMessage pushes a newMessage event to one participant.
func (h *Hub) SendNewMessage(userID string, msg entity.Message, conversation *entity.Conversation) {
	h.deliver <- &delivery{userID: userID, event: &Event{
		Type: "newMessage",
		Data: map[string]interface{}{
			"message":      msg,
			"conversation": conversation,
		},
	}}
}

// SendTypingStatus pushes a typingStatus event to one participant.
func (h *Hub) SendTypingStatus(userID, conversationID, typistID string, isTyping bool) {
	h.deliver <- &delivery{userID: userID, event: &Event{
		Type: "typingStatus",
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"user_id":         typistID,
			"is_typing":       isTyping,
		},
	}}
}

// SendUserStatus pushes a userStatusChanged event to one participant.
func (h *Hub) SendUserStatus(userID, changedID string, status entity.Presence) {
	h.deliver <- &delivery{userID: userID, event: &Event{
		Type: "userStatusChanged",
		Data: map[string]interface{}{
			"user_id": changedID,
			"status":  status,
		},
	}}
}

// SendMessagesRead pushes a messagesRead event to one participant.
func (h *Hub) SendMessagesRead(userID, conversationID string, reader *entity.User) {
	h.deliver <- &delivery{userID: userID, event: &Event{
		Type: "messagesRead",
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"reader":          reader,
		},
	}}
}

// clientEvent is an incoming WebSocket frame from a chat client.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleClientMessage parses and dispatches an incoming client frame.
func (h *Hub) HandleClientMessage(userID string, raw []byte) {
	if h.handler == nil {
		return
	}

	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		if h.log != nil {
			h.log.Warn("failed to parse client ws message", slog.String("error", err.Error()))
		}
		return
	}

	switch event.Type {
	case "markRead":
		var data struct {
			ConversationID string `json:"conversation_id"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			return
		}
		if err := h.handler.HandleMarkRead(userID, data.ConversationID); err != nil && h.log != nil {
			h.log.Error("failed to handle markRead",
				slog.String("user_id", userID),
				slog.String("conversation_id", data.ConversationID),
				slog.String("error", err.Error()),
			)
		}

	case "typing":
		var data struct {
			ConversationID string `json:"conversation_id"`
			IsTyping       bool   `json:"is_typing"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			return
		}
		h.handler.HandleTyping(userID, data.ConversationID, data.IsTyping)

	case "viewingConversation":
		var data struct {
			ConversationID string `json:"conversation_id"`
			IsViewing      bool   `json:"is_viewing"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ConversationID == "" {
			return
		}
		h.handler.HandleViewing(userID, data.ConversationID, data.IsViewing)
	}
}
