package queries

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

type GetSessionQuery struct {
	SessionID uuid.UUID
}

func (q GetSessionQuery) Validate() error {
	if q.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", q.SessionID)
	}

	return nil
}

// SessionDetails is the full session view: record, roster, and bound
// characters. Also serves as the sessionState snapshot for new channel
// subscribers.
type SessionDetails struct {
	domain.Session
	Players    []domain.Player           `json:"players"`
	Characters []domain.CharacterBinding `json:"characters"`
}

func HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	response, err := mediator.Send[GetSessionQuery, SessionDetails](
		r.Context(),
		GetSessionQuery{SessionID: sessionID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetSessionQueryHandler struct {
	db *sql.DB
}

func NewGetSessionQueryHandler(db *sql.DB) *GetSessionQueryHandler {
	return &GetSessionQueryHandler{db}
}

func (h *GetSessionQueryHandler) Handle(
	ctx context.Context,
	request GetSessionQuery,
) (SessionDetails, error) {
	const sessionQuery = `
		SELECT
			*
		FROM
			sessions
		WHERE
			id = $1;`
	session, err := tql.QueryFirst[domain.Session](ctx, h.db, sessionQuery, request.SessionID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return SessionDetails{}, core.NewCommandError(404, err, core.WithReason("session not found"))
	case err != nil:
		return SessionDetails{}, core.NewCommandError(500, err)
	}

	const playersQuery = `
		SELECT
			*
		FROM
			players
		WHERE
			session_id = $1
		ORDER BY
			joined_at ASC;`
	players, err := tql.Query[domain.Player](ctx, h.db, playersQuery, request.SessionID)
	if err != nil {
		return SessionDetails{}, core.NewCommandError(500, err)
	}

	const charactersQuery = `
		SELECT
			*
		FROM
			session_characters
		WHERE
			session_id = $1
		ORDER BY
			updated_at ASC;`
	characters, err := tql.Query[domain.CharacterBinding](ctx, h.db, charactersQuery, request.SessionID)
	if err != nil {
		return SessionDetails{}, core.NewCommandError(500, err)
	}

	return SessionDetails{
		Session:    session,
		Players:    players,
		Characters: characters,
	}, nil
}
