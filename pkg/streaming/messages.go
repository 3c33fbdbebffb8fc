package streaming

import (
	"encoding/json"
	"fmt"

	"github.com/RiveroDeveloper/boat-ui-interface/pkg/core"
)

// Message type constants matching the viewer protocol.
const (
	// Server to viewer.
	TypeBoatData = "boatData"

	// Viewer to server.
	TypeSetEngine     = "setEngine"
	TypeSetSpeed      = "setSpeed"
	TypeSetHeading    = "setHeading"
	TypeSetAutopilot  = "setAutopilot"
	TypeSetAnchor     = "setAnchor"
	TypeSetBilgePump  = "setBilgePump"
	TypeEmergencyStop = "emergencyStop"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals payload and wraps it in an Envelope of the given type.
func Encode(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// EncodeSnapshot builds the boatData message for s.
func EncodeSnapshot(s core.Snapshot) ([]byte, error) {
	return Encode(TypeBoatData, s)
}

// Decode parses a raw message into an Envelope. A message without a type is
// rejected.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}
