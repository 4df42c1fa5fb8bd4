// Package live implements the real-time side of a game session: a
// per-session broadcast hub and the websocket transport that feeds it.
package live

import "encoding/json"

// Event kinds fanned out on a session channel. sessionState is only ever
// sent to a newly subscribing connection; the rest go to every subscriber,
// including the one that triggered the action.
const (
	EventSessionState     = "sessionState"
	EventPlayerJoined     = "playerJoined"
	EventCharacterUpdated = "characterUpdated"
	EventDiceRolled       = "diceRolled"
	EventChatMessage      = "chatMessage"
	EventError            = "error"
)

// Envelope is the wire format for every server-to-client event.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

func encodeEnvelope(eventType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Envelope{Type: eventType, Payload: payload})
}
