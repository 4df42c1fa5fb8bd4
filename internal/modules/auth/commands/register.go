package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/eskrenkovic/tabletop-go/internal/modules/auth"
	"github.com/eskrenkovic/tabletop-go/internal/modules/auth/domain"
	"github.com/eskrenkovic/tabletop-go/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

type RegisterCommand struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c RegisterCommand) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("invalid Name - '%s'", c.Name)
	}

	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return fmt.Errorf("invalid Email - '%s'", c.Email)
	}

	if len(c.Password) < 8 {
		return fmt.Errorf("password needs at least 8 characters")
	}

	return nil
}

type RegisterResponse struct {
	UserID uuid.UUID `json:"userId"`
	Token  string    `json:"token"`
}

func HandleRegister(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[RegisterCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	response, err := mediator.Send[RegisterCommand, RegisterResponse](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	location := path.Join(r.Host, "api", "users", response.UserID.String())
	core.WriteCreated(w, r, location, response)
}

type RegisterCommandHandler struct {
	db     *sql.DB
	issuer *auth.TokenIssuer
}

func NewRegisterCommandHandler(db *sql.DB, issuer *auth.TokenIssuer) *RegisterCommandHandler {
	return &RegisterCommandHandler{db, issuer}
}

// Handle creates the account. The email UNIQUE constraint is the source of
// truth for duplicates - concurrent registrations of the same email both
// reach the insert, and the loser gets the same 409 as a sequential retry.
func (h *RegisterCommandHandler) Handle(
	ctx context.Context,
	request RegisterCommand,
) (RegisterResponse, error) {
	duplicate := core.NewCommandError(
		409,
		fmt.Errorf("email already registered"),
		core.WithReason("email already registered"),
	)

	const existsQuery = "SELECT count(id) FROM users WHERE email = $1;"
	taken, err := tql.QuerySingle[int](ctx, h.db, existsQuery, request.Email)
	if err != nil {
		return RegisterResponse{}, core.NewCommandError(500, err)
	}

	if taken > 0 {
		return RegisterResponse{}, duplicate
	}

	user, err := domain.NewUser(request.Name, request.Email, request.Password)
	if err != nil {
		return RegisterResponse{}, core.NewCommandError(500, err)
	}

	const stmt = `
		INSERT INTO
			users (id, name, email, password_hash, created_at)
		VALUES
			(:id, :name, :email, :password_hash, :created_at);`
	if _, err := tql.Exec(ctx, h.db, stmt, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return RegisterResponse{}, duplicate
		}

		return RegisterResponse{}, core.NewCommandError(500, err)
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		return RegisterResponse{}, core.NewCommandError(500, err)
	}

	return RegisterResponse{UserID: user.ID, Token: token}, nil
}
