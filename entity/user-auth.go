package entity

import (
	"net/http"

	"supplyhub/internal/lib/validate"
)

// UserAuth is the authenticated identity attached to a request
// after the bearer token has been verified.
type UserAuth struct {
	UserID   string `json:"user_id" bson:"user_id" validate:"required"`
	Username string `json:"username" bson:"username" validate:"required"`
	Role     string `json:"role" bson:"role" validate:"omitempty"`
	Token    string `json:"token" bson:"token" validate:"required,min=1"`
}

func (u *UserAuth) Bind(_ *http.Request) error {
	return validate.Struct(u)
}
