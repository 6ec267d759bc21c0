package relay

import (
	"encoding/json"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/bytedance/sonic"
)

// Command types sent to the bridge script.
const (
	CommandReady  = "ready"
	CommandHeight = "height"
	CommandPost   = "post"
	CommandAck    = "ack"
	CommandError  = "error"
)

// Command is a frame sent from the server to the bridge.
type Command struct {
	Type    string          `json:"type"`
	Session string          `json:"session,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Height  float64         `json:"height,omitempty"`
	Origin  string          `json:"origin,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func encodeCommand(cmd Command) ([]byte, error) {
	return sonic.Marshal(cmd)
}

// DecodeEnvelope parses a frame sent by the bridge.
func DecodeEnvelope(data []byte) (docuseal.Envelope, error) {
	var env docuseal.Envelope
	err := sonic.Unmarshal(data, &env)
	return env, err
}

// DecodeCommand parses a frame sent by the server
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	err := sonic.Unmarshal(data, &cmd)
	return cmd, err
}
