// Package domain holds the character template model. Templates belong to an
// account and live outside any session; binding a copy into a session is the
// session module's concern.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Character struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"userId"`
	Name      string          `db:"name" json:"name"`
	Data      json.RawMessage `db:"data" json:"data"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// NewCharacter creates a template from an opaque sheet payload. The sheet's
// shape is up to the client; the server stores and serves it untouched.
func NewCharacter(userID uuid.UUID, name string, data json.RawMessage) Character {
	now := time.Now().UTC()
	if data == nil {
		data = json.RawMessage("{}")
	}

	return Character{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
