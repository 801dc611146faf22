package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the account owner. Password and transaction PIN are stored as
// argon2id hashes; PinHash is nil until the user sets one.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	PinHash      *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPin reports whether the user has set a transaction PIN.
func (u *User) HasPin() bool {
	return u.PinHash != nil && *u.PinHash != ""
}
