package core

import (
	"fmt"

	"supplyhub/entity"
)

// Login delegates to the auth service and returns the bearer token
// together with the public user record.
func (c *Core) Login(email, password string) (string, *entity.User, error) {
	if c.authService == nil {
		return "", nil, fmt.Errorf("auth service not configured")
	}
	return c.authService.Login(email, password)
}

// AuthenticateByToken resolves a bearer token into an identity.
func (c *Core) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if c.authService == nil {
		return nil, fmt.Errorf("auth service not configured")
	}
	return c.authService.AuthenticateByToken(token)
}

// ValidateToken adapts token auth for the websocket upgrade path.
func (c *Core) ValidateToken(token string) (string, error) {
	user, err := c.AuthenticateByToken(token)
	if err != nil {
		return "", err
	}
	return user.UserID, nil
}

// UpdateProfile merges the decrypted profile fields and the stored
// image reference into the user record.
func (c *Core) UpdateProfile(userID, imagePath string, fields map[string]string) error {
	if c.repo == nil {
		return fmt.Errorf("repository not configured")
	}

	user, err := c.repo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}

	if imagePath != "" {
		user.ProfileImage = imagePath
	}
	if v, ok := fields["username"]; ok && v != "" {
		user.Username = v
	}
	if v, ok := fields["company_name"]; ok {
		user.CompanyName = v
	}

	return c.repo.UpsertUser(*user)
}
