package commands

import (
	"context"
	"database/sql"
	"encoding/json"
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

const playerJoinedEvent = "playerJoined"

// EventPublisher is the session channel fan-out as seen from the command
// side. Satisfied by live.Hub.
type EventPublisher interface {
	Publish(sessionID string, eventType string, payload interface{})
}

type JoinSessionCommand struct {
	SessionID     uuid.UUID       `json:"-"`
	PlayerName    string          `json:"playerName"`
	CharacterData json.RawMessage `json:"characterData,omitempty"`
}

func (c JoinSessionCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.PlayerName == "" {
		return fmt.Errorf("invalid PlayerName - '%s'", c.PlayerName)
	}

	return nil
}

type JoinSessionResponse struct {
	PlayerID uuid.UUID `json:"playerId"`
}

type playerJoinedPayload struct {
	PlayerID      uuid.UUID       `json:"playerId"`
	PlayerName    string          `json:"playerName"`
	CharacterData json.RawMessage `json:"characterData,omitempty"`
}

func HandleJoinSession(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[JoinSessionCommand](r)
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

	response, err := mediator.Send[JoinSessionCommand, JoinSessionResponse](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type JoinSessionCommandHandler struct {
	db        *sql.DB
	publisher EventPublisher
}

func NewJoinSessionCommandHandler(db *sql.DB, publisher EventPublisher) *JoinSessionCommandHandler {
	return &JoinSessionCommandHandler{db, publisher}
}

// Handle appends a player to the roster, creating a character binding when a
// payload accompanies the join. The session row is locked for the duration of
// the transaction so the roster can never grow past the configured maximum,
// even under concurrent joins. The playerJoined broadcast fires only after
// the transaction commits.
func (h *JoinSessionCommandHandler) Handle(
	ctx context.Context,
	request JoinSessionCommand,
) (JoinSessionResponse, error) {
	player := domain.NewPlayer(request.SessionID, request.PlayerName)

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

		const countQuery = `
			SELECT
				count(id)
			FROM
				players
			WHERE
				session_id = $1;`
		participantCount, err := tql.QueryFirst[int](ctx, tx, countQuery, request.SessionID)
		if err != nil {
			return err
		}

		if err := session.CanJoin(participantCount); err != nil {
			return err
		}

		const playerStmt = `
			INSERT INTO
				players (id, session_id, name, role, joined_at)
			VALUES
				(:id, :session_id, :name, :role, :joined_at);`
		if _, err := tql.Exec(ctx, tx, playerStmt, player); err != nil {
			return err
		}

		if len(request.CharacterData) == 0 {
			return nil
		}

		binding := domain.NewCharacterBinding(player.ID, request.SessionID, request.CharacterData)
		const bindingStmt = `
			INSERT INTO
				session_characters (player_id, session_id, payload, updated_at)
			VALUES
				(:player_id, :session_id, :payload, :updated_at);`
		_, err = tql.Exec(ctx, tx, bindingStmt, binding)
		return err
	}

	err := core.Tx(ctx, h.db, txFn)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return JoinSessionResponse{}, core.NewCommandError(404, err, core.WithReason("session not found"))
	case errors.Is(err, domain.ErrSessionNotJoinable):
		return JoinSessionResponse{}, core.NewCommandError(409, err, core.WithReason("session is not accepting new players"))
	case errors.Is(err, domain.ErrSessionFull):
		return JoinSessionResponse{}, core.NewCommandError(409, err, core.WithReason("session is full"))
	case err != nil:
		return JoinSessionResponse{}, core.NewCommandError(500, err)
	}

	h.publisher.Publish(request.SessionID.String(), playerJoinedEvent, playerJoinedPayload{
		PlayerID:      player.ID,
		PlayerName:    player.Name,
		CharacterData: request.CharacterData,
	})

	return JoinSessionResponse{PlayerID: player.ID}, nil
}
