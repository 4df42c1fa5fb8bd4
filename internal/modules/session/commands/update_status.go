package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/tabletop-go/internal/modules/core"
	"github.com/eskrenkovic/tabletop-go/internal/modules/session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

var errBackwardTransition = errors.New("session status can only move forward")

type UpdateSessionStatusCommand struct {
	SessionID uuid.UUID     `json:"-"`
	Status    domain.Status `json:"status"`
}

func (c UpdateSessionStatusCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if !c.Status.Valid() {
		return fmt.Errorf("invalid Status - '%s'", c.Status)
	}

	return nil
}

func HandleUpdateSessionStatus(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[UpdateSessionStatusCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}
	command.SessionID = sessionID

	if _, err := mediator.Send[UpdateSessionStatusCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type UpdateSessionStatusCommandHandler struct {
	db *sql.DB
}

func NewUpdateSessionStatusCommandHandler(db *sql.DB) *UpdateSessionStatusCommandHandler {
	return &UpdateSessionStatusCommandHandler{db}
}

// Handle advances the session lifecycle. Backward transitions are rejected -
// an ended session stays ended.
func (h *UpdateSessionStatusCommandHandler) Handle(
	ctx context.Context,
	request UpdateSessionStatusCommand,
) (core.Unit, error) {
	txFn := func(ctx context.Context, tx *sql.Tx) error {
		const sessionQuery = `
			SELECT
				*
			FROM
				sessions
			WHERE
				id = $1
			FOR UPDATE;`
		session, err := tql.QueryFirst[domain.Session](ctx, tx, sessionQuery, request.SessionID)
		if err != nil {
			return err
		}

		if !session.Status.CanTransitionTo(request.Status) {
			return errBackwardTransition
		}

		const stmt = `
			UPDATE
				sessions
			SET
				status = $1
			WHERE
				id = $2;`
		_, err = tql.Exec(ctx, tx, stmt, request.Status, request.SessionID)
		return err
	}

	err := core.Tx(ctx, h.db, txFn)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return core.Unit{}, core.NewCommandError(404, err, core.WithReason("session not found"))
	case errors.Is(err, errBackwardTransition):
		return core.Unit{}, core.NewCommandError(409, err, core.WithReason(errBackwardTransition.Error()))
	case err != nil:
		return core.Unit{}, core.NewCommandError(500, err)
	}

	return core.Unit{}, nil
}
