package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"supplyhub/entity"
	"supplyhub/internal/config"
	"supplyhub/internal/lib/sl"
)

type Repository interface {
	GetUserByEmail(email string) (*entity.User, error)
	GetUserByID(id string) (*entity.User, error)
}

type Service struct {
	repository Repository
	secret     []byte
	expire     time.Duration
	log        *slog.Logger
}

type claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthService(conf *config.Config, logger *slog.Logger) *Service {
	return &Service{
		secret: []byte(conf.Auth.JwtSecret),
		expire: time.Duration(conf.Auth.ExpireHours) * time.Hour,
		log:    logger.With(sl.Module("auth-service")),
	}
}

func (s *Service) SetRepository(repository Repository) {
	s.repository = repository
}

// Login checks the credentials and issues a bearer token.
func (s *Service) Login(email, password string) (string, *entity.User, error) {
	if s.repository == nil {
		return "", nil, fmt.Errorf("auth repository not configured")
	}

	user, err := s.repository.GetUserByEmail(email)
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || user.Blocked {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	if hashPassword(password) != user.PasswordHash {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	s.log.With(
		slog.String("user", user.Username),
		sl.Secret("token", token),
	).Info("user logged in")

	return token, user, nil
}

func (s *Service) issueToken(user *entity.User) (string, error) {
	now := time.Now()
	c := claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expire)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// AuthenticateByToken verifies a bearer token and resolves the identity.
func (s *Service) AuthenticateByToken(tokenString string) (*entity.UserAuth, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token not valid")
	}

	return &entity.UserAuth{
		UserID:   c.Subject,
		Username: c.Username,
		Role:     c.Role,
		Token:    tokenString,
	}, nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
