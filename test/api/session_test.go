package main

import (
	"fmt"
	"net/http"
	"testing"

	sessioncommands "github.com/eskrenkovic/tabletop-go/internal/modules/session/commands"
	sessionqueries "github.com/eskrenkovic/tabletop-go/internal/modules/session/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func createSession(t *testing.T, name string) sessioncommands.CreateSessionResponse {
	t.Helper()

	response, httpResp, err := sendRequest[sessioncommands.CreateSessionCommand, sessioncommands.CreateSessionResponse](
		fixture.client,
		fixture.baseURL+"/api/sessions",
		http.MethodPost,
		sessioncommands.CreateSessionCommand{Name: name, OwnerName: "gm"},
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, httpResp.StatusCode)

	return response
}

func Test_CreateSession_Returns_201_With_Location(t *testing.T) {
	// Arrange
	command := sessioncommands.CreateSessionCommand{
		Name:      uuid.New().String(),
		OwnerName: "gm",
	}

	// Act
	response, httpResp, err := sendRequest[sessioncommands.CreateSessionCommand, sessioncommands.CreateSessionResponse](
		fixture.client,
		fixture.baseURL+"/api/sessions",
		http.MethodPost,
		command,
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, httpResp.StatusCode)
	require.NotEmpty(t, httpResp.Header.Get("Location"))
	require.NotEqual(t, uuid.Nil, response.SessionID)
	require.NotEqual(t, uuid.Nil, response.OwnerPlayerID)
}

func Test_CreateSession_Returns_400_When_Name_Empty(t *testing.T) {
	// Arrange
	command := sessioncommands.CreateSessionCommand{
		Name:      "",
		OwnerName: "gm",
	}

	// Act
	_, httpResp, err := sendRequest[sessioncommands.CreateSessionCommand, map[string]string](
		fixture.client,
		fixture.baseURL+"/api/sessions",
		http.MethodPost,
		command,
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, httpResp.StatusCode)
}

func Test_GetSession_Returns_Owner_In_Roster(t *testing.T) {
	// Arrange
	name := uuid.New().String()
	created := createSession(t, name)

	// Act
	details, httpResp, err := sendRequest[struct{}, sessionqueries.SessionDetails](
		fixture.client,
		fmt.Sprintf("%s/api/sessions/%s", fixture.baseURL, created.SessionID),
		http.MethodGet,
		struct{}{},
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, httpResp.StatusCode)
	require.Equal(t, name, details.Name)
	require.Len(t, details.Players, 1)
	require.Equal(t, created.OwnerPlayerID, details.Players[0].ID)
}

func Test_GetSession_Returns_404_For_Unknown_Session(t *testing.T) {
	// Act
	_, httpResp, err := sendRequest[struct{}, map[string]string](
		fixture.client,
		fmt.Sprintf("%s/api/sessions/%s", fixture.baseURL, uuid.New()),
		http.MethodGet,
		struct{}{},
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, httpResp.StatusCode)
}

func Test_ListSessions_Contains_Created_Session(t *testing.T) {
	// Arrange
	name := uuid.New().String()
	created := createSession(t, name)

	// Act
	summaries, httpResp, err := sendRequest[struct{}, []sessionqueries.SessionSummary](
		fixture.client,
		fixture.baseURL+"/api/sessions",
		http.MethodGet,
		struct{}{},
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, httpResp.StatusCode)

	var found *sessionqueries.SessionSummary
	for i := range summaries {
		if summaries[i].ID == created.SessionID {
			found = &summaries[i]
			break
		}
	}

	require.NotNil(t, found)
	require.Equal(t, name, found.Name)
	require.Equal(t, 1, found.ParticipantCount)
	require.Equal(t, 6, found.MaxPlayers)
}

func Test_JoinSession_Adds_Player(t *testing.T) {
	// Arrange
	created := createSession(t, uuid.New().String())

	// Act
	response, httpResp, err := sendRequest[sessioncommands.JoinSessionCommand, sessioncommands.JoinSessionResponse](
		fixture.client,
		fmt.Sprintf("%s/api/sessions/%s/actions/join", fixture.baseURL, created.SessionID),
		http.MethodPost,
		sessioncommands.JoinSessionCommand{PlayerName: "aragorn"},
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, httpResp.StatusCode)
	require.NotEqual(t, uuid.Nil, response.PlayerID)

	details, _, err := sendRequest[struct{}, sessionqueries.SessionDetails](
		fixture.client,
		fmt.Sprintf("%s/api/sessions/%s", fixture.baseURL, created.SessionID),
		http.MethodGet,
		struct{}{},
	)
	require.NoError(t, err)
	require.Len(t, details.Players, 2)
}

func Test_JoinSession_Returns_409_When_Session_Full(t *testing.T) {
	// Arrange
	created := createSession(t, uuid.New().String())

	// The owner holds one seat out of the default six.
	for i := 0; i < 5; i++ {
		_, httpResp, err := sendRequest[sessioncommands.JoinSessionCommand, sessioncommands.JoinSessionResponse](
			fixture.client,
			fmt.Sprintf("%s/api/sessions/%s/actions/join", fixture.baseURL, created.SessionID),
			http.MethodPost,
			sessioncommands.JoinSessionCommand{PlayerName: fmt.Sprintf("player-%d", i)},
		)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, httpResp.StatusCode)
	}

	// Act
	_, httpResp, err := sendRequest[sessioncommands.JoinSessionCommand, map[string]string](
		fixture.client,
		fmt.Sprintf("%s/api/sessions/%s/actions/join", fixture.baseURL, created.SessionID),
		http.MethodPost,
		sessioncommands.JoinSessionCommand{PlayerName: "late-arrival"},
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, httpResp.StatusCode)
}

func Test_JoinSession_Returns_409_When_Session_Not_Waiting(t *testing.T) {
	// Arrange
	created := createSession(t, uuid.New().String())
	updateStatus(t, created.SessionID, "active", http.StatusOK)

	// Act
	_, httpResp, err := sendRequest[sessioncommands.JoinSessionCommand, map[string]string](
		fixture.client,
		fmt.Sprintf("%s/api/sessions/%s/actions/join", fixture.baseURL, created.SessionID),
		http.MethodPost,
		sessioncommands.JoinSessionCommand{PlayerName: "latecomer"},
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, httpResp.StatusCode)
}

func Test_JoinSession_Returns_404_For_Unknown_Session(t *testing.T) {
	// Act
	_, httpResp, err := sendRequest[sessioncommands.JoinSessionCommand, map[string]string](
		fixture.client,
		fmt.Sprintf("%s/api/sessions/%s/actions/join", fixture.baseURL, uuid.New()),
		http.MethodPost,
		sessioncommands.JoinSessionCommand{PlayerName: "ghost"},
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, httpResp.StatusCode)
}

func updateStatus(t *testing.T, sessionID uuid.UUID, status string, expectedCode int) {
	t.Helper()

	_, httpResp, err := sendRequest[map[string]string, map[string]string](
		fixture.client,
		fmt.Sprintf("%s/api/sessions/%s/actions/status", fixture.baseURL, sessionID),
		http.MethodPut,
		map[string]string{"status": status},
	)
	require.NoError(t, err)
	require.Equal(t, expectedCode, httpResp.StatusCode)
}

func Test_UpdateSessionStatus_Moves_Forward_Only(t *testing.T) {
	// Arrange
	created := createSession(t, uuid.New().String())

	// Act
	// Assert
	updateStatus(t, created.SessionID, "active", http.StatusOK)
	updateStatus(t, created.SessionID, "paused", http.StatusOK)
	updateStatus(t, created.SessionID, "waiting", http.StatusConflict)
	updateStatus(t, created.SessionID, "ended", http.StatusOK)
	updateStatus(t, created.SessionID, "active", http.StatusConflict)
}

func Test_UpdateSessionStatus_Rejects_Unknown_Status(t *testing.T) {
	// Arrange
	created := createSession(t, uuid.New().String())

	// Act
	// Assert
	updateStatus(t, created.SessionID, "archived", http.StatusBadRequest)
}
