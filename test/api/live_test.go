package main

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	sessioncommands "github.com/eskrenkovic/tabletop-go/internal/modules/session/commands"
	sessionqueries "github.com/eskrenkovic/tabletop-go/internal/modules/session/queries"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialSocket(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(fixture.wsURL, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, frameType string, payload interface{}) {
	t.Helper()

	frame := struct {
		Type    string      `json:"type"`
		Payload interface{} `json:"payload"`
	}{frameType, payload}

	require.NoError(t, conn.WriteJSON(frame))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var env envelope
	require.NoError(t, conn.ReadJSON(&env))

	return env
}

func joinChannel(t *testing.T, conn *websocket.Conn, sessionID uuid.UUID) sessionqueries.SessionDetails {
	t.Helper()

	sendFrame(t, conn, "joinSession", map[string]string{"sessionId": sessionID.String()})

	env := readEnvelope(t, conn)
	require.Equal(t, "sessionState", env.Type)

	var details sessionqueries.SessionDetails
	require.NoError(t, json.Unmarshal(env.Payload, &details))

	return details
}

func Test_JoinSession_Frame_Returns_Session_State_Snapshot(t *testing.T) {
	// Arrange
	created := createSession(t, uuid.New().String())
	conn := dialSocket(t)

	// Act
	details := joinChannel(t, conn, created.SessionID)

	// Assert
	require.Equal(t, created.SessionID, details.ID)
	require.Len(t, details.Players, 1)
}

func Test_JoinSession_Frame_Returns_Error_For_Unknown_Session(t *testing.T) {
	// Arrange
	conn := dialSocket(t)

	// Act
	sendFrame(t, conn, "joinSession", map[string]string{"sessionId": uuid.New().String()})

	// Assert
	env := readEnvelope(t, conn)
	require.Equal(t, "error", env.Type)
}

func Test_ChatMessage_Before_Join_Returns_Error(t *testing.T) {
	// Arrange
	conn := dialSocket(t)

	// Act
	sendFrame(t, conn, "chatMessage", map[string]string{"message": "anyone here?"})

	// Assert
	env := readEnvelope(t, conn)
	require.Equal(t, "error", env.Type)
}

func Test_Unknown_Frame_Type_Returns_Error(t *testing.T) {
	// Arrange
	conn := dialSocket(t)

	// Act
	sendFrame(t, conn, "teleport", map[string]string{})

	// Assert
	env := readEnvelope(t, conn)
	require.Equal(t, "error", env.Type)
}

func Test_ChatMessage_Is_Broadcast_To_All_Subscribers(t *testing.T) {
	// Arrange
	created := createSession(t, uuid.New().String())

	sender := dialSocket(t)
	details := joinChannel(t, sender, created.SessionID)

	observer := dialSocket(t)
	joinChannel(t, observer, created.SessionID)

	// Act
	sendFrame(t, sender, "chatMessage", map[string]string{
		"playerId":   details.Players[0].ID.String(),
		"playerName": details.Players[0].Name,
		"message":    "roll for initiative",
	})

	// Assert
	for _, conn := range []*websocket.Conn{sender, observer} {
		env := readEnvelope(t, conn)
		require.Equal(t, "chatMessage", env.Type)

		var payload struct {
			Message    string `json:"message"`
			PlayerName string `json:"playerName"`
		}
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		require.Equal(t, "roll for initiative", payload.Message)
	}

	var persisted int
	err := fixture.db.QueryRow(
		"SELECT count(id) FROM chat_messages WHERE session_id = $1;",
		created.SessionID,
	).Scan(&persisted)
	require.NoError(t, err)
	require.Equal(t, 1, persisted)
}

func Test_DiceRoll_Is_Evaluated_Persisted_And_Broadcast(t *testing.T) {
	// Arrange
	created := createSession(t, uuid.New().String())

	conn := dialSocket(t)
	details := joinChannel(t, conn, created.SessionID)

	// Act
	sendFrame(t, conn, "diceRoll", map[string]string{
		"playerId":   details.Players[0].ID.String(),
		"expression": "2d6+3",
	})

	// Assert
	env := readEnvelope(t, conn)
	require.Equal(t, "diceRolled", env.Type)

	var payload struct {
		Expression string          `json:"expression"`
		Total      int             `json:"total"`
		Breakdown  json.RawMessage `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, "2d6+3", payload.Expression)
	require.GreaterOrEqual(t, payload.Total, 5)
	require.LessOrEqual(t, payload.Total, 15)
	require.NotEmpty(t, payload.Breakdown)

	var persisted int
	err := fixture.db.QueryRow(
		"SELECT count(id) FROM dice_rolls WHERE session_id = $1;",
		created.SessionID,
	).Scan(&persisted)
	require.NoError(t, err)
	require.Equal(t, 1, persisted)
}

func Test_HTTP_Join_Broadcasts_PlayerJoined_To_Subscribers(t *testing.T) {
	// Arrange
	created := createSession(t, uuid.New().String())

	conn := dialSocket(t)
	joinChannel(t, conn, created.SessionID)

	// Act
	_, httpResp, err := sendRequest[sessioncommands.JoinSessionCommand, sessioncommands.JoinSessionResponse](
		fixture.client,
		fixture.baseURL+"/api/sessions/"+created.SessionID.String()+"/actions/join",
		http.MethodPost,
		sessioncommands.JoinSessionCommand{PlayerName: "legolas"},
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, httpResp.StatusCode)

	// Assert
	env := readEnvelope(t, conn)
	require.Equal(t, "playerJoined", env.Type)

	var payload struct {
		PlayerName string `json:"playerName"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, "legolas", payload.PlayerName)
}

func Test_UpdateCharacter_Frame_Broadcasts_New_Sheet(t *testing.T) {
	// Arrange
	created := createSession(t, uuid.New().String())

	sheet := json.RawMessage(`{"class":"ranger","level":1}`)
	joined, httpResp, err := sendRequest[sessioncommands.JoinSessionCommand, sessioncommands.JoinSessionResponse](
		fixture.client,
		fixture.baseURL+"/api/sessions/"+created.SessionID.String()+"/actions/join",
		http.MethodPost,
		sessioncommands.JoinSessionCommand{PlayerName: "strider", CharacterData: sheet},
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, httpResp.StatusCode)

	conn := dialSocket(t)
	joinChannel(t, conn, created.SessionID)

	updated := json.RawMessage(`{"class":"ranger","level":2}`)

	// Act
	sendFrame(t, conn, "updateCharacter", map[string]interface{}{
		"playerId": joined.PlayerID.String(),
		"payload":  updated,
	})

	// Assert
	env := readEnvelope(t, conn)
	require.Equal(t, "characterUpdated", env.Type)

	var payload struct {
		PlayerID uuid.UUID       `json:"playerId"`
		Payload  json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, joined.PlayerID, payload.PlayerID)
	require.JSONEq(t, string(updated), string(payload.Payload))
}
