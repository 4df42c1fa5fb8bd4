package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eskrenkovic/tabletop-go/internal/modules/core"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

// RemovePlayerCommand deletes a player and their character binding from the
// roster. Supported internally but not routed over HTTP - there is no
// end-to-end leave flow yet.
type RemovePlayerCommand struct {
	PlayerID uuid.UUID
}

func (c RemovePlayerCommand) Validate() error {
	if c.PlayerID == uuid.Nil {
		return fmt.Errorf("invalid PlayerID - '%s'", c.PlayerID)
	}

	return nil
}

type RemovePlayerCommandHandler struct {
	db *sql.DB
}

func NewRemovePlayerCommandHandler(db *sql.DB) *RemovePlayerCommandHandler {
	return &RemovePlayerCommandHandler{db}
}

func (h *RemovePlayerCommandHandler) Handle(
	ctx context.Context,
	request RemovePlayerCommand,
) (core.Unit, error) {
	txFn := func(ctx context.Context, tx *sql.Tx) error {
		const bindingStmt = `
			DELETE FROM
				session_characters
			WHERE
				player_id = $1;`
		if _, err := tql.Exec(ctx, tx, bindingStmt, request.PlayerID); err != nil {
			return err
		}

		const playerStmt = `
			DELETE FROM
				players
			WHERE
				id = $1
			RETURNING id;`
		_, err := tql.QueryFirst[uuid.UUID](ctx, tx, playerStmt, request.PlayerID)
		return err
	}

	err := core.Tx(ctx, h.db, txFn)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return core.Unit{}, core.NewCommandError(404, err, core.WithReason("player not found"))
	case err != nil:
		return core.Unit{}, core.NewCommandError(500, err)
	}

	return core.Unit{}, nil
}
