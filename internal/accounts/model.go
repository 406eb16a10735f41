package accounts

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrInvalidUsername    = errors.New("username must be at least 3 characters of letters, numbers, and underscores")
	ErrInvalidEmail       = errors.New("please enter a valid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

type User struct {
	ID         string         `json:"id" yaml:"id"`
	Username   string         `json:"username" yaml:"username"`
	Email      string         `json:"email" yaml:"email"`
	Avatar     string         `json:"avatar" yaml:"avatar"`
	Bio        string         `json:"bio" yaml:"bio"`
	CreatedAt  time.Time      `json:"createdAt" yaml:"createdAt"`
	HighScores map[string]int `json:"highScores" yaml:"highScores"`
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.HighScores = make(map[string]int, len(u.HighScores))
	for k, v := range u.HighScores {
		c.HighScores[k] = v
	}
	return &c
}

// ProfileUpdate carries the editable profile fields; nil fields are left as is.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

var Avatars = []string{
	"/avatars/avatar-1.png",
	"/avatars/avatar-2.png",
	"/avatars/avatar-3.png",
	"/avatars/avatar-4.png",
	"/avatars/avatar-5.png",
}

// The mock account that SignIn accepts.
const (
	MockEmail    = "player@example.com"
	MockPassword = "password"
	MockUsername = "luna_player"
)

func mockUser(now time.Time) *User {
	return &User{
		ID:        "user-001",
		Username:  MockUsername,
		Email:     MockEmail,
		Avatar:    Avatars[0],
		Bio:       "Cosmic explorer and puzzle solver",
		CreatedAt: now,
		HighScores: map[string]int{
			"luna-dash":   2500,
			"lunas-light": 1800,
			"shadowbound": 750,
		},
	}
}
