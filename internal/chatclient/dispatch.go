package chatclient

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"supplyhub/entity"
	"supplyhub/internal/lib/sl"
)

// TypingRevertDelay is how long a typing signal stays up before the
// dispatcher reverts it on the channel.
const TypingRevertDelay = 5 * time.Second

// Dispatcher maps user commands to transport calls and session
// mutations, enforcing preconditions before anything touches the wire.
type Dispatcher struct {
	session   *Session
	transport Transport
	render    *Renderer
	log       *slog.Logger

	// deferred carries timer callbacks back onto the client loop so
	// they never race the loop's own mutations.
	deferred chan func()

	typingTimer  *time.Timer
	typingConvID string

	pendingSearch []entity.User
}

func NewDispatcher(session *Session, transport Transport, render *Renderer, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		session:   session,
		transport: transport,
		render:    render,
		log:       log.With(sl.Module("dispatcher")),
		deferred:  make(chan func(), 8),
	}
}

// Deferred exposes the callback channel for the client loop to drain.
func (d *Dispatcher) Deferred() <-chan func() {
	return d.deferred
}

// Execute runs one input line. It returns ErrExit when the user quits;
// every other failure is printed and recovered locally.
func (d *Dispatcher) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	// A bare number right after /search picks from the result list.
	if len(d.pendingSearch) > 0 {
		if n, err := strconv.Atoi(line); err == nil {
			users := d.pendingSearch
			d.pendingSearch = nil
			if n < 1 || n > len(users) {
				d.render.Notice("not found: search result %d", n)
				return nil
			}
			d.startConversation(users[n-1].ID)
			return nil
		}
		d.pendingSearch = nil
	}

	if !strings.HasPrefix(line, "/") {
		d.send(line)
		return nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		d.render.Help()
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "login":
		d.login(args)
	case "conversations":
		d.conversations()
	case "open":
		d.open(args)
	case "search":
		d.search(args)
	case "start":
		d.start(args)
	case "send":
		d.send(strings.Join(args, " "))
	case "attach":
		d.attach(args)
	case "typing":
		d.typing()
	case "read":
		d.read()
	case "back":
		d.back()
	case "status":
		d.render.Status(d.session)
	case "exit":
		return d.exit()
	default:
		d.render.Help()
	}
	return nil
}

func (d *Dispatcher) login(args []string) {
	if len(args) != 2 {
		d.render.Notice("%v", &UsageError{Usage: "/login <email> <password>"})
		return
	}

	var data struct {
		Token string       `json:"token"`
		User  *entity.User `json:"user"`
	}
	err := d.transport.Anonymous(context.Background(), http.MethodPost, "/account/login",
		map[string]string{"email": args[0], "password": args[1]}, &data)
	if err != nil {
		d.render.Notice("Login failed: %v", err)
		return
	}
	if data.Token == "" || data.User == nil {
		d.render.Notice("Login failed: malformed server response")
		return
	}

	d.session.Token = data.Token
	d.session.Identity = data.User
	d.transport.SetToken(data.Token)

	if err := d.transport.Connect(data.Token); err != nil {
		d.session.Connected = false
		d.render.Notice("Channel unavailable, realtime features degraded: %v", err)
	} else {
		d.session.Connected = true
	}

	d.render.Notice("Logged in as %s", data.User.Username)
	d.conversations()
}

func (d *Dispatcher) conversations() {
	if !d.session.Authenticated() {
		d.render.Notice("Not logged in")
		return
	}

	var data struct {
		Conversations []*entity.Conversation `json:"conversations"`
	}
	err := d.transport.Call(context.Background(), http.MethodGet, "/chat/conversations", nil, &data)
	if err != nil {
		// Read-only: degrade to an empty view, the session stays usable.
		d.render.Notice("Could not load conversations: %v", err)
		d.render.Conversations(nil, d.viewerID())
		return
	}

	for _, c := range data.Conversations {
		if c != nil && c.ID != "" {
			d.session.UpsertConversation(c)
		}
	}
	d.render.Conversations(d.session.Conversations(), d.viewerID())
}

func (d *Dispatcher) open(args []string) {
	if len(args) != 1 {
		d.render.Notice("%v", &UsageError{Usage: "/open <number>"})
		return
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		d.render.Notice("%v", &UsageError{Usage: "/open <number>"})
		return
	}

	conversation, err := d.session.ConversationAt(index)
	if err != nil {
		d.render.Notice("%v", err)
		return
	}
	d.openConversation(conversation)
}

func (d *Dispatcher) openConversation(conversation *entity.Conversation) {
	d.cancelTypingRevert()

	hadUnread := conversation.UnreadCount > 0

	var data struct {
		Messages []*entity.Message `json:"messages"`
	}
	err := d.transport.Call(context.Background(), http.MethodPost, "/chat/messages",
		map[string]interface{}{
			"conversation_id": conversation.ID,
			"page":            1,
			"limit":           50,
		}, &data)
	if err != nil {
		d.render.Notice("Could not load messages: %v", err)
		data.Messages = nil
	}

	d.session.SetFocus(conversation.ID)
	for _, m := range data.Messages {
		if m != nil {
			d.session.AddMessage(m)
		}
	}

	if hadUnread {
		if err := d.transport.Call(context.Background(), http.MethodPost, "/chat/mark-read",
			map[string]string{"conversation_id": conversation.ID}, nil); err != nil {
			d.log.With(sl.Err(err)).Debug("mark-read on open failed")
		}
	}

	if d.transport.Connected() {
		if err := d.transport.SendEvent("viewingConversation", map[string]interface{}{
			"conversation_id": conversation.ID,
			"is_viewing":      true,
		}); err != nil {
			d.log.With(sl.Err(err)).Debug("viewing notice not sent")
		}
	}

	d.render.Header(conversation, d.viewerID())
	d.render.Messages(d.session.Messages())
}

func (d *Dispatcher) search(args []string) {
	if len(args) < 1 {
		d.render.Notice("%v", &UsageError{Usage: "/search <query>"})
		return
	}
	if !d.session.Authenticated() {
		d.render.Notice("Not logged in")
		return
	}

	var data struct {
		Users []entity.User `json:"users"`
	}
	err := d.transport.Call(context.Background(), http.MethodPost, "/chat/search-users",
		map[string]string{"query": strings.Join(args, " ")}, &data)
	if err != nil {
		d.render.Notice("Search failed: %v", err)
		d.render.Users(nil)
		return
	}

	d.pendingSearch = data.Users
	d.render.Users(data.Users)
}

func (d *Dispatcher) start(args []string) {
	if len(args) != 1 {
		d.render.Notice("%v", &UsageError{Usage: "/start <user-id>"})
		return
	}
	if !d.session.Authenticated() {
		d.render.Notice("Not logged in")
		return
	}
	d.startConversation(args[0])
}

func (d *Dispatcher) startConversation(participantID string) {
	var data struct {
		Conversation *entity.Conversation `json:"conversation"`
	}
	err := d.transport.Call(context.Background(), http.MethodPost, "/chat/conversation/start",
		map[string]string{"participant_id": participantID}, &data)
	if err != nil {
		d.render.Notice("Could not start conversation: %v", err)
		return
	}
	if data.Conversation == nil || data.Conversation.ID == "" {
		d.render.Notice("Could not start conversation: malformed server response")
		return
	}

	d.session.UpsertConversation(data.Conversation)
	d.openConversation(data.Conversation)
}

func (d *Dispatcher) send(text string) {
	if strings.TrimSpace(text) == "" {
		d.render.Notice("%v", &UsageError{Usage: "/send <text>"})
		return
	}
	focused := d.session.Focused()
	if focused == nil {
		d.render.Notice("No open conversation")
		return
	}

	var data struct {
		SentMessage *entity.Message `json:"sentMessage"`
	}
	err := d.transport.Call(context.Background(), http.MethodPost, "/chat/send",
		map[string]string{"conversation_id": focused.ID, "text": text}, &data)
	if err != nil {
		// No optimistic update: the message shows only once confirmed.
		d.render.Notice("Send failed: %v", err)
		return
	}
	if data.SentMessage == nil {
		d.render.Notice("Send failed: malformed server response")
		return
	}

	if d.session.AddMessage(data.SentMessage) {
		d.render.Message(data.SentMessage)
	}
	d.session.UpdateLastMessage(data.SentMessage)
}

func (d *Dispatcher) attach(args []string) {
	if len(args) != 1 {
		d.render.Notice("%v", &UsageError{Usage: "/attach <path>"})
		return
	}
	focused := d.session.Focused()
	if focused == nil {
		d.render.Notice("No open conversation")
		return
	}

	path := args[0]
	if _, err := os.Stat(path); err != nil {
		d.render.Notice("File not found: %s", path)
		return
	}

	var data struct {
		SentMessage *entity.Message `json:"sentMessage"`
	}
	err := d.transport.Upload(context.Background(), "/uploads/chat/send-with-attachments", path,
		map[string]string{"conversation_id": focused.ID, "text": ""}, &data)
	if err != nil {
		d.render.Notice("Upload failed: %v", err)
		return
	}
	if data.SentMessage == nil {
		d.render.Notice("Upload failed: malformed server response")
		return
	}

	if d.session.AddMessage(data.SentMessage) {
		d.render.Message(data.SentMessage)
	}
	d.session.UpdateLastMessage(data.SentMessage)
}

func (d *Dispatcher) typing() {
	focused := d.session.Focused()
	if focused == nil {
		d.render.Notice("No open conversation")
		return
	}
	if !d.transport.Connected() {
		d.render.Notice("Channel not connected")
		return
	}

	if err := d.transport.SendEvent("typing", map[string]interface{}{
		"conversation_id": focused.ID,
		"is_typing":       true,
	}); err != nil {
		d.render.Notice("Typing notice not sent: %v", err)
		return
	}

	d.scheduleTypingRevert(focused.ID)
}

// scheduleTypingRevert arms the auto-revert, replacing any previous
// timer. The revert runs on the client loop via the deferred channel.
func (d *Dispatcher) scheduleTypingRevert(conversationID string) {
	d.cancelTypingRevert()
	d.typingConvID = conversationID
	d.typingTimer = time.AfterFunc(TypingRevertDelay, func() {
		d.queueDeferred(d.RevertTyping)
	})
}

// queueDeferred hands a callback to the client loop. The send blocks
// until the loop drains the channel: dropping a revert would leave
// typing=true latched on the server.
func (d *Dispatcher) queueDeferred(fn func()) {
	d.deferred <- fn
}

// RevertTyping emits typing=false, but only after re-checking that the
// conversation is still focused and the channel is still up. Stale
// context is never assumed.
func (d *Dispatcher) RevertTyping() {
	conversationID := d.typingConvID
	d.typingConvID = ""
	d.typingTimer = nil

	if conversationID == "" || !d.transport.Connected() {
		return
	}
	focused := d.session.Focused()
	if focused == nil || focused.ID != conversationID {
		return
	}

	if err := d.transport.SendEvent("typing", map[string]interface{}{
		"conversation_id": conversationID,
		"is_typing":       false,
	}); err != nil {
		d.log.With(sl.Err(err)).Debug("typing revert not sent")
	}
}

func (d *Dispatcher) cancelTypingRevert() {
	if d.typingTimer != nil {
		d.typingTimer.Stop()
		d.typingTimer = nil
	}
	d.typingConvID = ""
}

func (d *Dispatcher) read() {
	focused := d.session.Focused()
	if focused == nil {
		d.render.Notice("No open conversation")
		return
	}

	if err := d.transport.Call(context.Background(), http.MethodPost, "/chat/mark-read",
		map[string]string{"conversation_id": focused.ID}, nil); err != nil {
		d.render.Notice("Mark read failed: %v", err)
		return
	}
	d.session.ClearUnread(focused.ID)

	if d.transport.Connected() {
		if err := d.transport.SendEvent("markRead", map[string]interface{}{
			"conversation_id": focused.ID,
		}); err != nil {
			d.log.With(sl.Err(err)).Debug("markRead notice not sent")
		}
	}
	d.render.Notice("Conversation marked read")
}

func (d *Dispatcher) back() {
	d.cancelTypingRevert()

	if previous := d.session.ClearFocus(); previous != nil && d.transport.Connected() {
		if err := d.transport.SendEvent("viewingConversation", map[string]interface{}{
			"conversation_id": previous.ID,
			"is_viewing":      false,
		}); err != nil {
			d.log.With(sl.Err(err)).Debug("not-viewing notice not sent")
		}
	}
	d.render.Conversations(d.session.Conversations(), d.viewerID())
}

func (d *Dispatcher) exit() error {
	d.cancelTypingRevert()

	if focused := d.session.Focused(); focused != nil && d.transport.Connected() {
		if err := d.transport.SendEvent("viewingConversation", map[string]interface{}{
			"conversation_id": focused.ID,
			"is_viewing":      false,
		}); err != nil {
			d.log.With(sl.Err(err)).Debug("not-viewing notice not sent")
		}
	}

	if d.transport.Connected() {
		d.transport.CloseChannel()
	}
	d.session.Connected = false
	d.render.Notice("Bye")
	return ErrExit
}

func (d *Dispatcher) viewerID() string {
	if d.session.Identity == nil {
		return ""
	}
	return d.session.Identity.ID
}
