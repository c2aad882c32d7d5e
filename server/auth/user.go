package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/Jatinnn-r/Video-Streaming-Platform/pkg/pwdhash"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/model"
)

func (a *AuthServer) CreateUser(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email cannot be empty")
	}
	if err := IsPasswordOK(password); err != nil {
		return err
	}
	existing := model.AuthUser{}
	a.db.First(&existing, "email = ?", email)
	if existing.ID != 0 {
		return errors.New("A user with that email already exists")
	}
	user := model.AuthUser{
		Email:     email,
		Password:  pwdhash.HashPasswordBase64(password),
		CreatedAt: time.Now().UTC(),
	}
	return a.db.Create(&user).Error
}

func (a *AuthServer) AllUsers() ([]model.AuthUser, error) {
	var users []model.AuthUser
	return users, a.db.Find(&users).Error
}
