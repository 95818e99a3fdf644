package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is the envelope fanned out to session subscribers. The Topic
// carries the routing key, everything else is payload.
type Message struct {
	Topic           string          `json:"topic"`
	Kind            string          `json:"kind"`
	UserID          uuid.UUID       `json:"userId"`
	UserName        string          `json:"userName,omitempty"`
	PersonaTag      string          `json:"personaTag,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	Enrichments     map[string]any  `json:"enrichments,omitempty"`
	ServerTimestamp time.Time       `json:"serverTimestamp"`
}

// InboundEvent is a client-submitted event before the dispatcher has
// classified or persisted it.
type InboundEvent struct {
	SessionID       string
	UserID          uuid.UUID
	UserName        string
	PersonaTag      string
	Kind            string
	Payload         json.RawMessage
	ClientTimestamp *time.Time
}

func SessionTopic(sessionID string) string {
	return "collab:" + sessionID
}

func CursorTopic(sessionID string) string {
	return SessionTopic(sessionID) + ":cursors"
}

func PresenceTopic(sessionID string) string {
	return SessionTopic(sessionID) + ":presence"
}
