package chatclient

import (
	"log/slog"

	"supplyhub/internal/lib/sl"
)

// Reconciler applies inbound channel events to the session store.
// Events are handled in arrival order; every handler is idempotent
// where a concurrent REST fetch could deliver the same fact twice.
type Reconciler struct {
	session   *Session
	transport Transport
	render    *Renderer
	log       *slog.Logger
}

func NewReconciler(session *Session, transport Transport, render *Renderer, log *slog.Logger) *Reconciler {
	return &Reconciler{
		session:   session,
		transport: transport,
		render:    render,
		log:       log.With(sl.Module("reconciler")),
	}
}

// Apply dispatches one decoded channel event.
func (r *Reconciler) Apply(ev interface{}) {
	switch event := ev.(type) {
	case *NewMessageEvent:
		r.applyNewMessage(event)
	case *TypingStatusEvent:
		r.applyTyping(event)
	case *UserStatusEvent:
		r.applyUserStatus(event)
	case *MessagesReadEvent:
		r.applyMessagesRead(event)
	case *ChannelDownEvent:
		r.applyChannelDown()
	default:
		r.log.Warn("unhandled event", slog.Any("event", ev))
	}
}

func (r *Reconciler) applyNewMessage(ev *NewMessageEvent) {
	msg := &ev.Message

	known := r.session.ConversationByID(msg.ConversationID)
	if known == nil {
		// First contact from the other side: adopt the pushed
		// conversation snapshot as-is.
		if ev.Conversation == nil {
			r.log.Warn("newMessage for unknown conversation",
				slog.String("conversation_id", msg.ConversationID))
			return
		}
		r.session.UpsertConversation(ev.Conversation)
	}

	// The summary refreshes regardless of focus.
	r.session.UpdateLastMessage(msg)

	focused := r.session.Focused()
	if focused != nil && focused.ID == msg.ConversationID {
		// De-dup guards against the race with a concurrent page
		// fetch; render only what was actually new.
		if r.session.AddMessage(msg) {
			r.render.Message(msg)
		}
		r.session.ClearUnread(msg.ConversationID)

		own := r.session.Identity != nil && msg.Sender != nil && msg.Sender.ID == r.session.Identity.ID
		if !own {
			if err := r.transport.SendEvent("markRead", map[string]interface{}{
				"conversation_id": msg.ConversationID,
			}); err != nil {
				r.log.With(sl.Err(err)).Debug("read receipt not sent")
			}
		}
		return
	}

	if known != nil {
		r.session.IncrementUnread(msg.ConversationID)
	}

	sender := "someone"
	if msg.Sender != nil {
		sender = msg.Sender.Username
	}
	r.render.Notice("New message from %s", sender)
}

func (r *Reconciler) applyTyping(ev *TypingStatusEvent) {
	// Display-only: no store mutation.
	focused := r.session.Focused()
	if focused == nil || focused.ID != ev.ConversationID {
		return
	}

	name := ev.UserID
	for _, p := range focused.Participants {
		if p != nil && p.ID == ev.UserID {
			name = p.Username
			break
		}
	}
	r.render.Typing(name, ev.IsTyping)
}

func (r *Reconciler) applyUserStatus(ev *UserStatusEvent) {
	r.session.ApplyPresence(ev.UserID, ev.Status)

	focused := r.session.Focused()
	if focused == nil {
		return
	}
	for _, p := range focused.Participants {
		if p != nil && p.ID == ev.UserID {
			state := "offline"
			if ev.Status.IsOnline {
				state = "online"
			}
			r.render.Notice("%s is now %s", p.Username, state)
			return
		}
	}
}

func (r *Reconciler) applyMessagesRead(ev *MessagesReadEvent) {
	focused := r.session.Focused()
	if focused == nil || focused.ID != ev.ConversationID {
		return
	}
	reader := "The other side"
	if ev.Reader != nil && ev.Reader.Username != "" {
		reader = ev.Reader.Username
	}
	r.render.Notice("%s read your messages", reader)
}

func (r *Reconciler) applyChannelDown() {
	r.session.Connected = false
	r.render.Notice("Realtime channel lost; messages still work, typing and presence are degraded")
}
