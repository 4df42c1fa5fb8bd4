package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/eskrenkovic/tabletop-go/internal/config"
	"github.com/eskrenkovic/tabletop-go/internal/dice"
	"github.com/eskrenkovic/tabletop-go/internal/modules/auth"
	authcommands "github.com/eskrenkovic/tabletop-go/internal/modules/auth/commands"
	charactercommands "github.com/eskrenkovic/tabletop-go/internal/modules/character/commands"
	characterdomain "github.com/eskrenkovic/tabletop-go/internal/modules/character/domain"
	characterqueries "github.com/eskrenkovic/tabletop-go/internal/modules/character/queries"
	"github.com/eskrenkovic/tabletop-go/internal/modules/core"
	"github.com/eskrenkovic/tabletop-go/internal/modules/live"
	livecommands "github.com/eskrenkovic/tabletop-go/internal/modules/live/commands"
	sessioncommands "github.com/eskrenkovic/tabletop-go/internal/modules/session/commands"
	sessiondomain "github.com/eskrenkovic/tabletop-go/internal/modules/session/domain"
	sessionqueries "github.com/eskrenkovic/tabletop-go/internal/modules/session/queries"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/migrate-go"
	"github.com/go-chi/chi"
	_ "github.com/lib/pq"
)

type Server interface {
	Start() error
	Stop() error
}

var _ Server = &HTTPServer{}

// HTTPServer acts as the composition root for the application.
type HTTPServer struct {
	server *http.Server
	db     *sql.DB
}

func NewHTTPServer(config config.Config) (Server, error) {
	baseCtx := context.Background()

	db, err := sql.Open("postgres", config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := migrate.Run(baseCtx, db, config.MigrationsPath); err != nil {
		return nil, err
	}

	requestLoggingBehavior := core.RequestLoggingBehavior{Logger: config.Logger}
	handlerErrorLoggingBehavior := core.HandlerErrorLoggingBehavior{Logger: config.Logger}
	requestValidationBehavior := core.RequestValidationBehavior{}

	mediator.RegisterPipelineBehavior(&requestLoggingBehavior)
	mediator.RegisterPipelineBehavior(&handlerErrorLoggingBehavior)
	mediator.RegisterPipelineBehavior(&requestValidationBehavior)

	hub := live.NewHub(config.Logger)
	issuer := auth.NewTokenIssuer(config.JWTSecret)

	// handler registration

	// session

	createSessionHandler := sessioncommands.NewCreateSessionCommandHandler(db)
	err = mediator.RegisterRequestHandler[sessioncommands.CreateSessionCommand, sessioncommands.CreateSessionResponse](
		createSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	joinSessionHandler := sessioncommands.NewJoinSessionCommandHandler(db, hub)
	err = mediator.RegisterRequestHandler[sessioncommands.JoinSessionCommand, sessioncommands.JoinSessionResponse](
		joinSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	updateStatusHandler := sessioncommands.NewUpdateSessionStatusCommandHandler(db)
	err = mediator.RegisterRequestHandler[sessioncommands.UpdateSessionStatusCommand, core.Unit](
		updateStatusHandler,
	)
	if err != nil {
		return nil, err
	}

	updateCharacterHandler := sessioncommands.NewUpdateCharacterCommandHandler(db)
	err = mediator.RegisterRequestHandler[sessioncommands.UpdateCharacterCommand, sessiondomain.CharacterBinding](
		updateCharacterHandler,
	)
	if err != nil {
		return nil, err
	}

	removePlayerHandler := sessioncommands.NewRemovePlayerCommandHandler(db)
	err = mediator.RegisterRequestHandler[sessioncommands.RemovePlayerCommand, core.Unit](
		removePlayerHandler,
	)
	if err != nil {
		return nil, err
	}

	listSessionsHandler := sessionqueries.NewListSessionsQueryHandler(db)
	err = mediator.RegisterRequestHandler[sessionqueries.ListSessionsQuery, []sessionqueries.SessionSummary](
		listSessionsHandler,
	)
	if err != nil {
		return nil, err
	}

	getSessionHandler := sessionqueries.NewGetSessionQueryHandler(db)
	err = mediator.RegisterRequestHandler[sessionqueries.GetSessionQuery, sessionqueries.SessionDetails](
		getSessionHandler,
	)
	if err != nil {
		return nil, err
	}

	// live

	postChatMessageHandler := livecommands.NewPostChatMessageCommandHandler(db)
	err = mediator.RegisterRequestHandler[livecommands.PostChatMessageCommand, livecommands.ChatMessage](
		postChatMessageHandler,
	)
	if err != nil {
		return nil, err
	}

	rollDiceHandler := livecommands.NewRollDiceCommandHandler(db, dice.NewCryptoSource())
	err = mediator.RegisterRequestHandler[livecommands.RollDiceCommand, livecommands.DiceRoll](
		rollDiceHandler,
	)
	if err != nil {
		return nil, err
	}

	// auth

	registerHandler := authcommands.NewRegisterCommandHandler(db, issuer)
	err = mediator.RegisterRequestHandler[authcommands.RegisterCommand, authcommands.RegisterResponse](
		registerHandler,
	)
	if err != nil {
		return nil, err
	}

	loginHandler := authcommands.NewLoginCommandHandler(db, issuer)
	err = mediator.RegisterRequestHandler[authcommands.LoginCommand, authcommands.LoginResponse](
		loginHandler,
	)
	if err != nil {
		return nil, err
	}

	// character

	createCharacterHandler := charactercommands.NewCreateCharacterCommandHandler(db)
	err = mediator.RegisterRequestHandler[charactercommands.CreateCharacterCommand, characterdomain.Character](
		createCharacterHandler,
	)
	if err != nil {
		return nil, err
	}

	getOwnCharactersHandler := characterqueries.NewGetOwnCharactersQueryHandler(db)
	err = mediator.RegisterRequestHandler[characterqueries.GetOwnCharactersQuery, []characterdomain.Character](
		getOwnCharactersHandler,
	)
	if err != nil {
		return nil, err
	}

	socketHandler := live.NewSocketHandler(hub, config.Logger)

	// http

	router := chi.NewRouter()
	router.Use(core.CorrelationIDHTTPMiddleware)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		core.WriteOK(w, r, map[string]string{"status": "ok"})
	})

	router.Get("/ws", socketHandler.Handle)

	router.Route("/api", func(r chi.Router) {
		r.Get("/sessions", sessionqueries.HandleListSessions)
		r.Post("/sessions", sessioncommands.HandleCreateSession)
		r.Get("/sessions/{id}", sessionqueries.HandleGetSession)

		r.Post("/sessions/{id}/actions/join", sessioncommands.HandleJoinSession)
		r.Put("/sessions/{id}/actions/status", sessioncommands.HandleUpdateSessionStatus)

		r.Post("/auth/registrations", authcommands.HandleRegister)
		r.Post("/auth/login", authcommands.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(issuer))
			r.Get("/characters", characterqueries.HandleGetOwnCharacters)
			r.Post("/characters", charactercommands.HandleCreateCharacter)
		})
	})

	server := http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(config.Port)),
		Handler: router,
	}

	return &HTTPServer{server: &server, db: db}, nil
}

func (s *HTTPServer) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop() error {
	if err := s.server.Close(); err != nil {
		return err
	}

	return s.db.Close()
}
