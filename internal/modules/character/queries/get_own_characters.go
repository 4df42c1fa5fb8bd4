package queries

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/eskrenkovic/tabletop-go/internal/modules/character/domain"
	"github.com/eskrenkovic/tabletop-go/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type GetOwnCharactersQuery struct {
	UserID uuid.UUID
}

func HandleGetOwnCharacters(w http.ResponseWriter, r *http.Request) {
	query := GetOwnCharactersQuery{UserID: core.Session(r.Context()).UserID}

	characters, err := mediator.Send[GetOwnCharactersQuery, []domain.Character](
		r.Context(),
		query,
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, characters)
}

type GetOwnCharactersQueryHandler struct {
	db *sql.DB
}

func NewGetOwnCharactersQueryHandler(db *sql.DB) *GetOwnCharactersQueryHandler {
	return &GetOwnCharactersQueryHandler{db}
}

func (h *GetOwnCharactersQueryHandler) Handle(
	ctx context.Context,
	request GetOwnCharactersQuery,
) ([]domain.Character, error) {
	const query = `
		SELECT
			*
		FROM
			characters
		WHERE
			user_id = $1
		ORDER BY
			updated_at DESC;`
	characters, err := tql.Query[domain.Character](ctx, h.db, query, request.UserID)
	if err != nil {
		return nil, core.NewCommandError(500, err)
	}

	if characters == nil {
		characters = []domain.Character{}
	}

	return characters, nil
}
