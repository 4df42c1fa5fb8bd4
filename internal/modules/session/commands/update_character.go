package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eskrenkovic/tabletop-go/internal/modules/core"
	"github.com/eskrenkovic/tabletop-go/internal/modules/session/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

// UpdateCharacterCommand replaces a player's character payload wholesale -
// no partial merge. Dispatched from the websocket transport, not routed over
// HTTP.
type UpdateCharacterCommand struct {
	PlayerID uuid.UUID       `json:"playerId"`
	Payload  json.RawMessage `json:"payload"`
}

func (c UpdateCharacterCommand) Validate() error {
	if c.PlayerID == uuid.Nil {
		return fmt.Errorf("invalid PlayerID - '%s'", c.PlayerID)
	}

	if len(c.Payload) == 0 {
		return fmt.Errorf("empty character payload")
	}

	return nil
}

type UpdateCharacterCommandHandler struct {
	db *sql.DB
}

func NewUpdateCharacterCommandHandler(db *sql.DB) *UpdateCharacterCommandHandler {
	return &UpdateCharacterCommandHandler{db}
}

func (h *UpdateCharacterCommandHandler) Handle(
	ctx context.Context,
	request UpdateCharacterCommand,
) (domain.CharacterBinding, error) {
	const stmt = `
		UPDATE
			session_characters
		SET
			payload = $1,
			updated_at = $2
		WHERE
			player_id = $3
		RETURNING *;`

	binding, err := tql.QueryFirst[domain.CharacterBinding](
		ctx,
		h.db,
		stmt,
		request.Payload,
		time.Now().UTC(),
		request.PlayerID,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.CharacterBinding{}, core.NewCommandError(404, err, core.WithReason("player has no bound character"))
	case err != nil:
		return domain.CharacterBinding{}, core.NewCommandError(500, err)
	}

	return binding, nil
}
