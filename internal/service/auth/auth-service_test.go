package auth

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyhub/entity"
	"supplyhub/internal/config"
)

type fakeRepository struct {
	users map[string]*entity.User
}

func (f *fakeRepository) GetUserByEmail(email string) (*entity.User, error) {
	return f.users[email], nil
}

func (f *fakeRepository) GetUserByID(id string) (*entity.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func testService(t *testing.T) *Service {
	t.Helper()

	conf := &config.Config{}
	conf.Auth.JwtSecret = "test-secret"
	conf.Auth.ExpireHours = 1

	s := NewAuthService(conf, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetRepository(&fakeRepository{users: map[string]*entity.User{
		"alice@supplyhub.local": {
			ID:           "u1",
			Username:     "alice",
			Email:        "alice@supplyhub.local",
			Role:         entity.BuyerRole,
			PasswordHash: hashPassword("hunter2"),
		},
		"blocked@supplyhub.local": {
			ID:           "u2",
			Username:     "mallory",
			Email:        "blocked@supplyhub.local",
			PasswordHash: hashPassword("hunter2"),
			Blocked:      true,
		},
	}})
	return s
}

func TestLogin(t *testing.T) {
	s := testService(t)

	t.Run("token round-trips through authentication", func(t *testing.T) {
		token, user, err := s.Login("alice@supplyhub.local", "hunter2")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)

		auth, err := s.AuthenticateByToken(token)
		require.NoError(t, err)
		assert.Equal(t, "u1", auth.UserID)
		assert.Equal(t, "alice", auth.Username)
		assert.Equal(t, entity.BuyerRole, auth.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := s.Login("alice@supplyhub.local", "wrong")
		assert.EqualError(t, err, "invalid credentials")
	})

	t.Run("unknown account", func(t *testing.T) {
		_, _, err := s.Login("nobody@supplyhub.local", "hunter2")
		assert.EqualError(t, err, "invalid credentials")
	})

	t.Run("blocked account", func(t *testing.T) {
		_, _, err := s.Login("blocked@supplyhub.local", "hunter2")
		assert.EqualError(t, err, "invalid credentials")
	})
}

func TestAuthenticateByToken(t *testing.T) {
	s := testService(t)

	t.Run("garbage token", func(t *testing.T) {
		_, err := s.AuthenticateByToken("not-a-token")
		assert.Error(t, err)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := &config.Config{}
		other.Auth.JwtSecret = "a-different-secret"
		other.Auth.ExpireHours = 1
		foreign := NewAuthService(other, slog.New(slog.NewTextHandler(io.Discard, nil)))
		foreign.SetRepository(&fakeRepository{users: map[string]*entity.User{}})

		token, err := foreign.issueToken(&entity.User{ID: "u9", Username: "eve"})
		require.NoError(t, err)

		_, err = s.AuthenticateByToken(token)
		assert.Error(t, err)
	})
}
