// Package protocol defines the JSON messages exchanged over the local IPC
// socket. Each connection carries exactly one request and one response.
package protocol

// Command names accepted by the service in addition to the relay commands.
const (
	// CommandList returns the registered command names.
	CommandList = "commands.list"
	// CommandSessionInfo returns the current voice session snapshot.
	CommandSessionInfo = "session.info"
)

// Request is sent by local clients to the relay service. Payload travels as
// base64 in JSON.
type Request struct {
	Token   string         `json:"token"`
	Command string         `json:"command"`
	Payload []byte         `json:"payload,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
}

// Response carries either a result string or an error message.
type Response struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
