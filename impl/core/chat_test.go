package core

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyhub/entity"
)

type fakeRepository struct {
	mu            sync.Mutex
	users         map[string]*entity.User
	conversations map[string]*entity.Conversation
	messages      []entity.Message
	touched       []string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:         make(map[string]*entity.User),
		conversations: make(map[string]*entity.Conversation),
	}
}

func (f *fakeRepository) GetUserByEmail(email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) GetUserByID(id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeRepository) SearchUsers(query, excludeID string) ([]entity.User, error) {
	return nil, nil
}

func (f *fakeRepository) UpsertUser(user entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = &user
	return nil
}

func (f *fakeRepository) SetUserPresence(userID string, online bool, lastSeen time.Time) error {
	return nil
}

func (f *fakeRepository) GetConversations(userID string) ([]entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Conversation
	for _, c := range f.conversations {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetConversation(id string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conversations[id], nil
}

func (f *fakeRepository) FindConversationBetween(userID, participantID string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conversations {
		if c.HasParticipant(userID) && c.HasParticipant(participantID) {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) InsertConversation(conversation entity.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations[conversation.ID] = &conversation
	return nil
}

func (f *fakeRepository) TouchConversation(conversation *entity.Conversation, msg entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, conversation.ID)
	return nil
}

func (f *fakeRepository) ClearUnread(conversationID, userID string) error {
	return nil
}

func (f *fakeRepository) InsertMessage(msg entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeRepository) GetMessages(conversationID string, page, limit int) ([]entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeHub struct {
	mu        sync.Mutex
	online    map[string]bool
	delivered []string
}

func (f *fakeHub) IsOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func (f *fakeHub) SendNewMessage(userID string, msg entity.Message, conversation *entity.Conversation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, userID)
}

func (f *fakeHub) SendTypingStatus(userID, conversationID, typistID string, isTyping bool) {}

func (f *fakeHub) SendUserStatus(userID, changedID string, status entity.Presence) {}

func (f *fakeHub) SendMessagesRead(userID, conversationID string, reader *entity.User) {}

// slowNotify stands in for the SMTP sender and blocks until released.
type slowNotify struct {
	started chan struct{}
	release chan struct{}
}

func (s *slowNotify) NotifyOfflineMessage(recipient *entity.User, msg entity.Message) {
	close(s.started)
	<-s.release
}

func coreLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chatFixture() (*Core, *fakeRepository, *fakeHub) {
	repo := newFakeRepository()
	repo.users["u1"] = &entity.User{ID: "u1", Username: "alice", Email: "alice@example.com"}
	repo.users["u2"] = &entity.User{ID: "u2", Username: "bob", Email: "bob@example.com"}
	conversation := entity.NewConversation(repo.users["u1"].Summary(), repo.users["u2"].Summary())
	conversation.ID = "c1"
	repo.conversations["c1"] = conversation

	hub := &fakeHub{online: map[string]bool{"u1": true}}

	c := New(coreLogger())
	c.SetRepository(repo)
	c.SetHub(hub)
	return c, repo, hub
}

func TestCoreSendMessage(t *testing.T) {
	sender := &entity.UserAuth{UserID: "u1", Username: "alice", Token: "t"}

	t.Run("persists and fans out to both participants", func(t *testing.T) {
		c, repo, hub := chatFixture()

		msg, err := c.SendMessage(sender, "c1", "hello", nil)

		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, "hello", msg.Text)
		require.Len(t, repo.messages, 1)
		assert.Equal(t, []string{"c1"}, repo.touched)
		assert.ElementsMatch(t, []string{"u1", "u2"}, hub.delivered)
	})

	t.Run("stranger cannot post into the conversation", func(t *testing.T) {
		c, _, _ := chatFixture()
		outsider := &entity.UserAuth{UserID: "u9", Username: "mallory", Token: "t"}

		_, err := c.SendMessage(outsider, "c1", "hello", nil)

		require.Error(t, err)
	})

	t.Run("offline mail does not delay the response", func(t *testing.T) {
		c, _, _ := chatFixture()
		notify := &slowNotify{started: make(chan struct{}), release: make(chan struct{})}
		c.SetNotifyService(notify)

		done := make(chan struct{})
		go func() {
			_, err := c.SendMessage(sender, "c1", "hello", nil)
			assert.NoError(t, err)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("send blocked on the mail sender")
		}

		select {
		case <-notify.started:
		case <-time.After(time.Second):
			t.Fatal("offline recipient was never notified")
		}
		close(notify.release)
	})
}
