package entity

import "time"

const (
	BuyerRole    = "buyer"
	SupplierRole = "supplier"
	ManagerRole  = "manager"
	AdminRole    = "admin"
)

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username" validate:"required,min=3,max=32"`
	Email        string    `json:"email" bson:"email" validate:"required,email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"role" bson:"role" validate:"omitempty,oneof=buyer supplier manager admin"`
	CompanyName  string    `json:"company_name,omitempty" bson:"company_name"`
	ProfileImage string    `json:"profile_image,omitempty" bson:"profile_image"`
	Blocked      bool      `json:"blocked" bson:"blocked"`
	IsOnline     bool      `json:"isOnline" bson:"is_online"`
	LastSeen     time.Time `json:"lastSeen" bson:"last_seen"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Summary strips a user down to what other participants may see.
func (u *User) Summary() *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		Role:         u.Role,
		CompanyName:  u.CompanyName,
		ProfileImage: u.ProfileImage,
		IsOnline:     u.IsOnline,
		LastSeen:     u.LastSeen,
	}
}
