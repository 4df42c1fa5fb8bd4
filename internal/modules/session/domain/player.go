package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner       Role = "owner"
	RoleParticipant Role = "participant"
)

type Player struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SessionID uuid.UUID `db:"session_id" json:"sessionId"`
	Name      string    `db:"name" json:"name"`
	Role      Role      `db:"role" json:"role"`
	JoinedAt  time.Time `db:"joined_at" json:"joinedAt"`
}

func NewPlayer(sessionID uuid.UUID, name string) Player {
	return Player{
		ID:        uuid.New(),
		SessionID: sessionID,
		Name:      name,
		Role:      RoleParticipant,
		JoinedAt:  time.Now().UTC(),
	}
}

// CharacterBinding associates at most one character payload with a player
// inside a session. The payload is opaque to the session core - only
// presentation code interprets its shape.
type CharacterBinding struct {
	PlayerID  uuid.UUID       `db:"player_id" json:"playerId"`
	SessionID uuid.UUID       `db:"session_id" json:"sessionId"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

func NewCharacterBinding(playerID, sessionID uuid.UUID, payload json.RawMessage) CharacterBinding {
	return CharacterBinding{
		PlayerID:  playerID,
		SessionID: sessionID,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
}
