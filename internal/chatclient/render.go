package chatclient

import (
	"fmt"
	"io"

	"supplyhub/entity"
)

const helpText = `Commands:
  /login <email> <password>   authenticate and open the channel
  /conversations              list your conversations
  /open <number>              open a conversation from the list
  /search <query>             find users to talk to
  /start <user-id>            start (or resume) a conversation
  /send <text>                send a message (or just type without /)
  /attach <path>              send a file to the open conversation
  /typing                     tell the other side you are typing
  /read                       mark the open conversation as read
  /back                       leave the open conversation
  /status                     show session state
  /help                       show this help
  /exit                       quit`

// Renderer writes state snapshots and notices to an output stream.
// It never mutates state and tolerates missing optional fields.
type Renderer struct {
	out io.Writer
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) Help() {
	fmt.Fprintln(r.out, helpText)
}

// Notice prints a one-line informational message.
func (r *Renderer) Notice(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Conversations prints the numbered conversation list.
func (r *Renderer) Conversations(list []*entity.Conversation, viewerID string) {
	if len(list) == 0 {
		fmt.Fprintln(r.out, "No conversations found")
		return
	}
	for i, c := range list {
		name := "(unknown)"
		online := ""
		if other := c.Counterpart(viewerID); other != nil {
			name = other.Username
			if other.IsOnline {
				online = " [online]"
			}
		}
		preview := "(no messages yet)"
		if c.LastMessage != nil {
			preview = c.LastMessage.Text
			if preview == "" && c.LastMessage.Attachment != nil {
				preview = "[attachment] " + c.LastMessage.Attachment.Filename
			}
		}
		unread := ""
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d unread)", c.UnreadCount)
		}
		fmt.Fprintf(r.out, "%2d. %s%s%s - %s\n", i+1, name, online, unread, preview)
	}
}

// Header prints the focused conversation banner.
func (r *Renderer) Header(c *entity.Conversation, viewerID string) {
	name := "(unknown)"
	status := ""
	if other := c.Counterpart(viewerID); other != nil {
		name = other.Username
		if other.IsOnline {
			status = " - online"
		} else if !other.LastSeen.IsZero() {
			status = " - last seen " + other.LastSeen.Format("Jan 2 15:04")
		}
	}
	fmt.Fprintf(r.out, "--- %s%s ---\n", name, status)
}

// Message prints one chat message.
func (r *Renderer) Message(m *entity.Message) {
	sender := "?"
	if m.Sender != nil {
		sender = m.Sender.Username
	}
	stamp := ""
	if !m.CreatedAt.IsZero() {
		stamp = m.CreatedAt.Format("15:04") + " "
	}
	text := m.Text
	if m.Attachment != nil {
		if text != "" {
			text += " "
		}
		text += "[attachment: " + m.Attachment.Filename + "]"
	}
	fmt.Fprintf(r.out, "%s%s: %s\n", stamp, sender, text)
}

// Messages prints a page of chat messages.
func (r *Renderer) Messages(page []*entity.Message) {
	if len(page) == 0 {
		fmt.Fprintln(r.out, "(no messages yet)")
		return
	}
	for _, m := range page {
		r.Message(m)
	}
}

// Users prints a numbered search-result list.
func (r *Renderer) Users(users []entity.User) {
	if len(users) == 0 {
		fmt.Fprintln(r.out, "No users found")
		return
	}
	for i, u := range users {
		company := ""
		if u.CompanyName != "" {
			company = " (" + u.CompanyName + ")"
		}
		fmt.Fprintf(r.out, "%2d. %s%s [%s]\n", i+1, u.Username, company, u.Role)
	}
	fmt.Fprintln(r.out, "Type a number to start a conversation, or any command to cancel")
}

// Status prints the session summary.
func (r *Renderer) Status(s *Session) {
	if !s.Authenticated() {
		fmt.Fprintln(r.out, "Not logged in")
		return
	}
	channel := "disconnected"
	if s.Connected {
		channel = "connected"
	}
	fmt.Fprintf(r.out, "Logged in as %s (%s), channel %s, %d conversations\n",
		s.Identity.Username, s.Identity.Role, channel, len(s.Conversations()))
	if focused := s.Focused(); focused != nil {
		name := "(unknown)"
		if other := focused.Counterpart(s.Identity.ID); other != nil {
			name = other.Username
		}
		fmt.Fprintf(r.out, "Open conversation: %s\n", name)
	}
}

// Typing prints a transient typing signal.
func (r *Renderer) Typing(username string, isTyping bool) {
	if isTyping {
		fmt.Fprintf(r.out, "%s is typing...\n", username)
		return
	}
	fmt.Fprintf(r.out, "%s stopped typing\n", username)
}
