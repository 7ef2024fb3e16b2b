package auth

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user with that email already exists")
	ErrWrongCredentials = errors.New("wrong email or password")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordTooShort = errors.New("password must have at least 8 characters")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the process-wide "who is signed in" value carried
// by identity transition events.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type IdentityEventType string

const (
	IdentitySignedIn  IdentityEventType = "signed-in"
	IdentitySignedOut IdentityEventType = "signed-out"
)

// IdentityEvent is published to subscribers on every successful
// sign-in and sign-out. Failed attempts never produce an event.
type IdentityEvent struct {
	Type     IdentityEventType
	Identity Identity
}
