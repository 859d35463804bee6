// Package streaming defines the frames exchanged on the state stream.
// The server and any Go client share these types.
package streaming

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message type constants. A state_update payload is a core.EngineState;
// a dataset payload is the export/v1 dataset object.
const (
	TypeStateUpdate = "state_update"
	TypeDataset     = "dataset"
	TypeCommand     = "command"
	TypeAck         = "ack"
	TypeError       = "error"
)

// Envelope wraps every frame sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Command is the payload of a command frame: one engine operation and its
// operation-specific arguments, forwarded to the dispatcher untouched.
type Command struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AckMessage is the payload acknowledging a processed command frame.
type AckMessage struct {
	For string `json:"for"`
}

// ErrorMessage is the payload reporting a rejected frame or a failed
// command.
type ErrorMessage struct {
	For     string `json:"for,omitempty"`
	Message string `json:"message"`
}

// Marshal wraps a payload in an envelope of the given type and encodes
// the whole frame.
func Marshal(msgType string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Payload: body})
}

// ParseEnvelope decodes one frame and validates the type tag.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, errors.New("envelope missing type")
	}
	return env, nil
}
