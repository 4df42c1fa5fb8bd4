package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eskrenkovic/tabletop-go/internal/dice"
	"github.com/eskrenkovic/tabletop-go/internal/modules/core"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

// DiceRoll is an append-only roll record. The breakdown column preserves
// every individual die result so a roll can be audited after the fact.
type DiceRoll struct {
	ID         int64           `db:"id" json:"id"`
	SessionID  uuid.UUID       `db:"session_id" json:"sessionId"`
	PlayerID   uuid.UUID       `db:"player_id" json:"playerId"`
	Expression string          `db:"expression" json:"expression"`
	Total      int             `db:"total" json:"total"`
	Breakdown  json.RawMessage `db:"breakdown" json:"breakdown"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

type RollDiceCommand struct {
	SessionID  uuid.UUID `json:"sessionId"`
	PlayerID   uuid.UUID `json:"playerId"`
	Expression string    `json:"expression"`
}

func (c RollDiceCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.PlayerID == uuid.Nil {
		return fmt.Errorf("invalid PlayerID - '%s'", c.PlayerID)
	}

	if c.Expression == "" {
		return fmt.Errorf("empty dice expression")
	}

	return nil
}

type RollDiceCommandHandler struct {
	db     *sql.DB
	source dice.Source
}

func NewRollDiceCommandHandler(db *sql.DB, source dice.Source) *RollDiceCommandHandler {
	return &RollDiceCommandHandler{db, source}
}

// Handle evaluates the expression server-side and persists the full result.
// The stored breakdown together with the expression makes the roll
// deterministically replayable.
func (h *RollDiceCommandHandler) Handle(
	ctx context.Context,
	request RollDiceCommand,
) (DiceRoll, error) {
	result, err := dice.Evaluate(request.Expression, h.source)
	if err != nil {
		return DiceRoll{}, core.NewCommandError(400, err, core.WithReason(err.Error()))
	}

	breakdown, err := json.Marshal(result.Terms)
	if err != nil {
		return DiceRoll{}, core.NewCommandError(500, err)
	}

	const stmt = `
		INSERT INTO
			dice_rolls (session_id, player_id, expression, total, breakdown, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6)
		RETURNING *;`

	roll, err := tql.QueryFirst[DiceRoll](
		ctx,
		h.db,
		stmt,
		request.SessionID,
		request.PlayerID,
		request.Expression,
		result.Total,
		breakdown,
		time.Now().UTC(),
	)
	if err != nil {
		return DiceRoll{}, core.NewCommandError(500, err)
	}

	return roll, nil
}
