package account

import "supplyhub/entity"

type Core interface {
	Login(email, password string) (string, *entity.User, error)
	UpdateProfile(userID, imagePath string, fields map[string]string) error
}
