package queries

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/eskrenkovic/tabletop-go/internal/modules/core"
	"github.com/eskrenkovic/tabletop-go/internal/modules/session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type ListSessionsQuery struct{}

type SessionSummary struct {
	ID               uuid.UUID     `db:"id" json:"id"`
	Name             string        `db:"name" json:"name"`
	ParticipantCount int           `db:"participant_count" json:"participantCount"`
	MaxPlayers       int           `db:"max_players" json:"maxPlayers"`
	Status           domain.Status `db:"status" json:"status"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
}

func HandleListSessions(w http.ResponseWriter, r *http.Request) {
	response, err := mediator.Send[ListSessionsQuery, []SessionSummary](
		r.Context(),
		ListSessionsQuery{},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type ListSessionsQueryHandler struct {
	db *sql.DB
}

func NewListSessionsQueryHandler(db *sql.DB) *ListSessionsQueryHandler {
	return &ListSessionsQueryHandler{db}
}

// Handle returns session summaries newest-first.
func (h *ListSessionsQueryHandler) Handle(
	ctx context.Context,
	request ListSessionsQuery,
) ([]SessionSummary, error) {
	const query = `
		SELECT
			s.id,
			s.name,
			count(p.id) AS participant_count,
			(s.settings->>'maxPlayers')::int AS max_players,
			s.status,
			s.created_at
		FROM
			sessions s
			LEFT JOIN players p ON s.id = p.session_id
		GROUP BY
			s.id
		ORDER BY
			s.created_at DESC;`

	summaries, err := tql.Query[SessionSummary](ctx, h.db, query)
	if err != nil {
		return nil, core.NewCommandError(500, err)
	}

	return summaries, nil
}
