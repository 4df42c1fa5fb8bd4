// Package domain holds the account model for the auth module.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

// User is a registered account. Accounts own characters and are distinct
// from players, which exist only inside a session.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// NewUser hashes the plaintext password and returns the account record.
func NewUser(name, email, password string) (User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}

	return User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Authenticate checks the plaintext password against the stored hash.
func (u User) Authenticate(password string) error {
	if !CheckPassword(u.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	return nil
}
