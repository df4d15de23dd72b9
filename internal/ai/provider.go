package ai

import (
	"context"
	"io"

	"github.com/arin/chatbot-llm/internal/conversation"
)

const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// Request is one chat completion call.
type Request struct {
	// Model overrides the transport's model when non-empty.
	Model    string
	Messages []conversation.Message
	// MaxTokens caps the reply; zero means DefaultMaxTokens.
	MaxTokens int
	// Temperature is sent as-is; nil means DefaultTemperature.
	Temperature *float64
	// Stream asks for an SSE body instead of a single JSON document.
	Stream bool
}

// Transport is the capability to open a completion against some provider.
// This abstraction allows swapping providers without touching the decoder
// or the turn logic.
type Transport interface {
	// Open sends req and returns the raw response body. On a non-2xx answer
	// no body is returned; the error is a *TransportError carrying the
	// status and the error body. Closing the body releases the connection.
	Open(ctx context.Context, req Request) (io.ReadCloser, error)
}

// Temperature returns a pointer to t, for use in Request literals.
func Temperature(t float64) *float64 {
	return &t
}
