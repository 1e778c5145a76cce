// Package transport maintains the bidirectional JSON channel to the atopile
// dashboard backend: fire-and-forget actions, correlated request/response
// with deadlines, and a single inbound message stream. It never mutates the
// state document; it only forwards messages.
package transport

import (
	"encoding/json"

	"github.com/atopile/dashsync/internal/foundation"
)

// Wire message types.
const (
	TypeState               = "state"
	TypeAction              = "action"
	TypeActionResult        = "action_result"
	TypeMigrationStepResult = "migration_step_result"
	TypePing                = "ping"
	TypePong                = "pong"
)

// Outbound is a command sent to the backend. RequestID is set only for
// correlated requests; fire-and-forget actions leave it empty.
type Outbound struct {
	Type      string         `json:"type"`
	Action    string         `json:"action,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

// Inbound is a decoded backend message. Data carries the payload for state
// broadcasts; Raw holds the full message for narrow event decoding.
type Inbound struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// Response is a correlated backend reply.
type Response struct {
	Success bool                      `json:"success"`
	Error   foundation.Option[string] `json:"error"`
	BuildID foundation.Option[string] `json:"build_id"`
	Data    json.RawMessage           `json:"data,omitempty"`
}

// DecodeResponse parses a correlated reply out of a raw inbound message.
func DecodeResponse(raw json.RawMessage) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
