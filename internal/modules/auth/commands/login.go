package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/tabletop-go/internal/modules/auth"
	"github.com/eskrenkovic/tabletop-go/internal/modules/auth/domain"
	"github.com/eskrenkovic/tabletop-go/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type LoginCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c LoginCommand) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("invalid Email - '%s'", c.Email)
	}

	if c.Password == "" {
		return fmt.Errorf("password is required")
	}

	return nil
}

type LoginResponse struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Token  string    `json:"token"`
}

func HandleLogin(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[LoginCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	response, err := mediator.Send[LoginCommand, LoginResponse](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type LoginCommandHandler struct {
	db     *sql.DB
	issuer *auth.TokenIssuer
}

func NewLoginCommandHandler(db *sql.DB, issuer *auth.TokenIssuer) *LoginCommandHandler {
	return &LoginCommandHandler{db, issuer}
}

// Handle responds with the same 401 whether the account is missing or the
// password is wrong, so login attempts cannot probe for registered emails.
func (h *LoginCommandHandler) Handle(
	ctx context.Context,
	request LoginCommand,
) (LoginResponse, error) {
	unauthorized := core.NewCommandError(
		401,
		domain.ErrInvalidCredentials,
		core.WithReason("invalid credentials"),
	)

	const query = "SELECT * FROM users WHERE email = $1;"
	user, err := tql.QueryFirst[domain.User](ctx, h.db, query, request.Email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return LoginResponse{}, unauthorized
	case err != nil:
		return LoginResponse{}, core.NewCommandError(500, err)
	}

	if err := user.Authenticate(request.Password); err != nil {
		return LoginResponse{}, unauthorized
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		return LoginResponse{}, core.NewCommandError(500, err)
	}

	return LoginResponse{UserID: user.ID, Name: user.Name, Token: token}, nil
}
