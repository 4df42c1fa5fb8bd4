package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"path"

	"github.com/eskrenkovic/tabletop-go/internal/modules/core"
	"github.com/eskrenkovic/tabletop-go/internal/modules/session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type CreateSessionCommand struct {
	Name      string `json:"name"`
	OwnerName string `json:"ownerName"`
}

func (c CreateSessionCommand) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("invalid Name - '%s'", c.Name)
	}

	if c.OwnerName == "" {
		return fmt.Errorf("invalid OwnerName - '%s'", c.OwnerName)
	}

	return nil
}

type CreateSessionResponse struct {
	SessionID     uuid.UUID `json:"sessionId"`
	OwnerPlayerID uuid.UUID `json:"ownerPlayerId"`
}

func HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[CreateSessionCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	response, err := mediator.Send[CreateSessionCommand, CreateSessionResponse](
		r.Context(),
		command,
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	location := path.Join(r.Host, "api", "sessions", response.SessionID.String())
	core.WriteCreated(w, r, location, response)
}

type CreateSessionCommandHandler struct {
	db *sql.DB
}

func NewCreateSessionCommandHandler(db *sql.DB) *CreateSessionCommandHandler {
	return &CreateSessionCommandHandler{db}
}

// Handle allocates the session record and registers the owner as its first
// player in a single transaction - either both rows exist or neither does.
func (h *CreateSessionCommandHandler) Handle(
	ctx context.Context,
	request CreateSessionCommand,
) (CreateSessionResponse, error) {
	session, owner := domain.NewSession(request.Name, request.OwnerName)

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		const sessionStmt = `
			INSERT INTO
				sessions (id, name, owner_player_id, status, settings, created_at)
			VALUES
				(:id, :name, :owner_player_id, :status, :settings, :created_at);`
		if _, err := tql.Exec(ctx, tx, sessionStmt, session); err != nil {
			return err
		}

		const playerStmt = `
			INSERT INTO
				players (id, session_id, name, role, joined_at)
			VALUES
				(:id, :session_id, :name, :role, :joined_at);`
		_, err := tql.Exec(ctx, tx, playerStmt, owner)
		return err
	}

	if err := core.Tx(ctx, h.db, txFn); err != nil {
		return CreateSessionResponse{}, core.NewCommandError(500, err)
	}

	return CreateSessionResponse{
		SessionID:     session.ID,
		OwnerPlayerID: owner.ID,
	}, nil
}
