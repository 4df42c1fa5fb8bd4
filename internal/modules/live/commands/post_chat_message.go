// Package commands holds the persistence commands behind channel actions.
// The websocket transport persists through these before broadcasting; when a
// command fails the broadcast is skipped.
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eskrenkovic/tabletop-go/internal/modules/core"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

// ChatMessage is an append-only chat entry. Immutable once created.
type ChatMessage struct {
	ID        int64     `db:"id" json:"id"`
	SessionID uuid.UUID `db:"session_id" json:"sessionId"`
	PlayerID  uuid.UUID `db:"player_id" json:"playerId"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type PostChatMessageCommand struct {
	SessionID uuid.UUID `json:"sessionId"`
	PlayerID  uuid.UUID `json:"playerId"`
	Message   string    `json:"message"`
}

func (c PostChatMessageCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.PlayerID == uuid.Nil {
		return fmt.Errorf("invalid PlayerID - '%s'", c.PlayerID)
	}

	if c.Message == "" {
		return fmt.Errorf("empty chat message")
	}

	return nil
}

type PostChatMessageCommandHandler struct {
	db *sql.DB
}

func NewPostChatMessageCommandHandler(db *sql.DB) *PostChatMessageCommandHandler {
	return &PostChatMessageCommandHandler{db}
}

func (h *PostChatMessageCommandHandler) Handle(
	ctx context.Context,
	request PostChatMessageCommand,
) (ChatMessage, error) {
	const stmt = `
		INSERT INTO
			chat_messages (session_id, player_id, message, created_at)
		VALUES
			($1, $2, $3, $4)
		RETURNING *;`

	message, err := tql.QueryFirst[ChatMessage](
		ctx,
		h.db,
		stmt,
		request.SessionID,
		request.PlayerID,
		request.Message,
		time.Now().UTC(),
	)
	if err != nil {
		return ChatMessage{}, core.NewCommandError(500, err)
	}

	return message, nil
}
