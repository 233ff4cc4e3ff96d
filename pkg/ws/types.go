// Package ws holds the WebSocket wire envelope shared by server and clients.
package ws

// Event types pushed over the socket.
const (
	EventSnapshot = "snapshot"
	EventPing     = "ping"
	EventPong     = "pong"
	EventError    = "error"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content,omitempty"`
}

// ErrorContent is the payload of an error event.
type ErrorContent struct {
	Message string `json:"message"`
}
