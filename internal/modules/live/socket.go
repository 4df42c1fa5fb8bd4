package live

import (
	"context"
	"encoding/json"
	"net/http"

	livecommands "github.com/eskrenkovic/tabletop-go/internal/modules/live/commands"
	sessioncommands "github.com/eskrenkovic/tabletop-go/internal/modules/session/commands"
	sessiondomain "github.com/eskrenkovic/tabletop-go/internal/modules/session/domain"
	sessionqueries "github.com/eskrenkovic/tabletop-go/internal/modules/session/queries"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client-to-server frame types. Mirrored by the event kinds the server fans
// out in response.
const (
	frameJoinSession     = "joinSession"
	frameChatMessage     = "chatMessage"
	frameDiceRoll        = "diceRoll"
	frameUpdateCharacter = "updateCharacter"
)

type clientFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinSessionPayload struct {
	SessionID uuid.UUID `json:"sessionId"`
}

type chatMessagePayload struct {
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Message    string    `json:"message"`
}

type diceRollPayload struct {
	PlayerID   uuid.UUID `json:"playerId"`
	Expression string    `json:"expression"`
}

type updateCharacterPayload struct {
	PlayerID uuid.UUID       `json:"playerId"`
	Payload  json.RawMessage `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// SocketHandler upgrades HTTP requests to websocket connections and bridges
// frames to the command side and the hub. One connection subscribes to at
// most one session channel.
type SocketHandler struct {
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewSocketHandler(hub *Hub, logger *zap.Logger) *SocketHandler {
	return &SocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The REST surface is open cross-origin; the socket follows suit.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type connection struct {
	conn          *websocket.Conn
	send          chan []byte
	sub           *Subscriber
	forwarderDone chan struct{}
}

func (c *connection) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func (c *connection) sendEvent(eventType string, payload interface{}) {
	data, err := encodeEnvelope(eventType, payload)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (h *SocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &connection{
		conn:          conn,
		send:          make(chan []byte, subscriberBufferSize),
		forwarderDone: make(chan struct{}),
	}

	go writePump(c)
	h.readLoop(r.Context(), c)
}

func writePump(c *connection) {
	defer func() {
		_ = c.conn.Close()
	}()

	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// readLoop processes inbound frames until the connection drops. A dropped
// connection is simply unsubscribed - it stops receiving further events and
// nothing is replayed on reconnect.
func (h *SocketHandler) readLoop(ctx context.Context, c *connection) {
	defer func() {
		if c.sub != nil {
			h.hub.Unsubscribe(c.sub)
			<-c.forwarderDone
		}
		close(c.send)
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendEvent(EventError, errorPayload{Message: "invalid frame"})
			continue
		}

		switch frame.Type {
		case frameJoinSession:
			h.handleJoinSession(ctx, c, frame.Payload)
		case frameChatMessage:
			h.handleChatMessage(ctx, c, frame.Payload)
		case frameDiceRoll:
			h.handleDiceRoll(ctx, c, frame.Payload)
		case frameUpdateCharacter:
			h.handleUpdateCharacter(ctx, c, frame.Payload)
		default:
			c.sendEvent(EventError, errorPayload{Message: "unsupported frame type"})
		}
	}
}

// handleJoinSession subscribes the connection to a session channel and sends
// it the sessionState snapshot. The snapshot goes to this connection only -
// it is not a broadcast, and no chat or dice backlog is replayed.
func (h *SocketHandler) handleJoinSession(ctx context.Context, c *connection, payload json.RawMessage) {
	var join joinSessionPayload
	if err := json.Unmarshal(payload, &join); err != nil || join.SessionID == uuid.Nil {
		c.sendEvent(EventError, errorPayload{Message: "invalid join payload"})
		return
	}

	if c.sub != nil {
		c.sendEvent(EventError, errorPayload{Message: "already subscribed to a session"})
		return
	}

	details, err := mediator.Send[sessionqueries.GetSessionQuery, sessionqueries.SessionDetails](
		ctx,
		sessionqueries.GetSessionQuery{SessionID: join.SessionID},
	)
	if err != nil {
		h.logger.Warn("session snapshot failed",
			zap.String("session_id", join.SessionID.String()),
			zap.Error(err))
		c.sendEvent(EventError, errorPayload{Message: "session not found"})
		return
	}

	c.sub = h.hub.Subscribe(join.SessionID.String())
	h.hub.SendTo(c.sub, EventSessionState, details)

	sub := c.sub
	go func() {
		defer close(c.forwarderDone)
		for data := range sub.Events() {
			c.enqueue(data)
		}
	}()
}

func (h *SocketHandler) handleChatMessage(ctx context.Context, c *connection, payload json.RawMessage) {
	var chat chatMessagePayload
	if err := json.Unmarshal(payload, &chat); err != nil {
		c.sendEvent(EventError, errorPayload{Message: "invalid chat payload"})
		return
	}

	if c.sub == nil {
		c.sendEvent(EventError, errorPayload{Message: "join a session first"})
		return
	}

	sessionID := uuid.MustParse(c.sub.SessionID())
	message, err := mediator.Send[livecommands.PostChatMessageCommand, livecommands.ChatMessage](
		ctx,
		livecommands.PostChatMessageCommand{
			SessionID: sessionID,
			PlayerID:  chat.PlayerID,
			Message:   chat.Message,
		},
	)
	if err != nil {
		// Persistence failed - skip the broadcast, log, tell no one.
		h.logger.Error("failed to persist chat message",
			zap.String("session_id", c.sub.SessionID()),
			zap.Error(err))
		return
	}

	h.hub.Publish(c.sub.SessionID(), EventChatMessage, struct {
		livecommands.ChatMessage
		PlayerName string `json:"playerName"`
	}{message, chat.PlayerName})
}

func (h *SocketHandler) handleDiceRoll(ctx context.Context, c *connection, payload json.RawMessage) {
	var roll diceRollPayload
	if err := json.Unmarshal(payload, &roll); err != nil {
		c.sendEvent(EventError, errorPayload{Message: "invalid dice payload"})
		return
	}

	if c.sub == nil {
		c.sendEvent(EventError, errorPayload{Message: "join a session first"})
		return
	}

	record, err := mediator.Send[livecommands.RollDiceCommand, livecommands.DiceRoll](
		ctx,
		livecommands.RollDiceCommand{
			SessionID:  uuid.MustParse(c.sub.SessionID()),
			PlayerID:   roll.PlayerID,
			Expression: roll.Expression,
		},
	)
	if err != nil {
		h.logger.Error("failed to persist dice roll",
			zap.String("session_id", c.sub.SessionID()),
			zap.Error(err))
		return
	}

	h.hub.Publish(c.sub.SessionID(), EventDiceRolled, record)
}

func (h *SocketHandler) handleUpdateCharacter(ctx context.Context, c *connection, payload json.RawMessage) {
	var update updateCharacterPayload
	if err := json.Unmarshal(payload, &update); err != nil {
		c.sendEvent(EventError, errorPayload{Message: "invalid character payload"})
		return
	}

	if c.sub == nil {
		c.sendEvent(EventError, errorPayload{Message: "join a session first"})
		return
	}

	binding, err := mediator.Send[sessioncommands.UpdateCharacterCommand, sessiondomain.CharacterBinding](
		ctx,
		sessioncommands.UpdateCharacterCommand{
			PlayerID: update.PlayerID,
			Payload:  update.Payload,
		},
	)
	if err != nil {
		h.logger.Error("failed to persist character update",
			zap.String("session_id", c.sub.SessionID()),
			zap.Error(err))
		return
	}

	h.hub.Publish(c.sub.SessionID(), EventCharacterUpdated, binding)
}
