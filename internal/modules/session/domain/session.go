// Package domain holds the game session model: the session record itself,
// the player roster, and the per-player character binding.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the session lifecycle state. Transitions only move forward:
// waiting -> active -> paused -> ended, never backward.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

var statusOrder = map[Status]int{
	StatusWaiting: 0,
	StatusActive:  1,
	StatusPaused:  2,
	StatusEnded:   3,
}

func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a forward
// transition. Staying in place does not count as a transition.
func (s Status) CanTransitionTo(next Status) bool {
	current, ok := statusOrder[s]
	if !ok {
		return false
	}

	target, ok := statusOrder[next]
	if !ok {
		return false
	}

	return target > current
}

// DefaultMaxPlayers caps the roster when a session is created without an
// explicit limit.
const DefaultMaxPlayers = 6

// Settings is the per-session configuration blob, stored as jsonb.
type Settings struct {
	MaxPlayers      int    `json:"maxPlayers"`
	AllowSpectators bool   `json:"allowSpectators"`
	DiceVisibility  string `json:"diceVisibility"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:      DefaultMaxPlayers,
		AllowSpectators: true,
		DiceVisibility:  "public",
	}
}

func (s Settings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Settings) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into Settings", src)
	}
}

var (
	ErrSessionNotJoinable = errors.New("session is not accepting new players")
	ErrSessionFull        = errors.New("session is full")
)

type Session struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	OwnerPlayerID uuid.UUID `db:"owner_player_id" json:"ownerPlayerId"`
	Status        Status    `db:"status" json:"status"`
	Settings      Settings  `db:"settings" json:"settings"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// NewSession builds a waiting session and its owner player in one step. The
// two records are expected to be persisted together in a single transaction.
func NewSession(name, ownerName string) (Session, Player) {
	sessionID := uuid.New()

	owner := Player{
		ID:        uuid.New(),
		SessionID: sessionID,
		Name:      ownerName,
		Role:      RoleOwner,
		JoinedAt:  time.Now().UTC(),
	}

	session := Session{
		ID:            sessionID,
		Name:          name,
		OwnerPlayerID: owner.ID,
		Status:        StatusWaiting,
		Settings:      DefaultSettings(),
		CreatedAt:     time.Now().UTC(),
	}

	return session, owner
}

// CanJoin checks the join preconditions against the current roster size.
// Invariant preserved by callers: participantCount never exceeds
// Settings.MaxPlayers after a successful join.
func (s Session) CanJoin(participantCount int) error {
	if s.Status != StatusWaiting {
		return ErrSessionNotJoinable
	}

	if participantCount >= s.Settings.MaxPlayers {
		return ErrSessionFull
	}

	return nil
}
