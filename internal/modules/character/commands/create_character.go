package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"path"

	"github.com/eskrenkovic/tabletop-go/internal/modules/character/domain"
	"github.com/eskrenkovic/tabletop-go/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type CreateCharacterCommand struct {
	UserID uuid.UUID       `json:"-"`
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
}

func (c CreateCharacterCommand) Validate() error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	if c.Name == "" {
		return fmt.Errorf("invalid Name - '%s'", c.Name)
	}

	return nil
}

func HandleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[CreateCharacterCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	command.UserID = core.Session(r.Context()).UserID

	character, err := mediator.Send[CreateCharacterCommand, domain.Character](
		r.Context(),
		command,
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	location := path.Join(r.Host, "api", "characters", character.ID.String())
	core.WriteCreated(w, r, location, character)
}

type CreateCharacterCommandHandler struct {
	db *sql.DB
}

func NewCreateCharacterCommandHandler(db *sql.DB) *CreateCharacterCommandHandler {
	return &CreateCharacterCommandHandler{db}
}

func (h *CreateCharacterCommandHandler) Handle(
	ctx context.Context,
	request CreateCharacterCommand,
) (domain.Character, error) {
	character := domain.NewCharacter(request.UserID, request.Name, request.Data)

	const stmt = `
		INSERT INTO
			characters (id, user_id, name, data, created_at, updated_at)
		VALUES
			(:id, :user_id, :name, :data, :created_at, :updated_at);`
	if _, err := tql.Exec(ctx, h.db, stmt, character); err != nil {
		return domain.Character{}, core.NewCommandError(500, err)
	}

	return character, nil
}
