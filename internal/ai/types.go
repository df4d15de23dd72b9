// Package ai talks to an OpenAI-compatible chat completion endpoint and
// decodes its streamed replies.
package ai

import "github.com/arin/chatbot-llm/internal/conversation"

// chatRequest is the request body sent to /chat/completions.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

// wireMessage is a single message in the chat completion format.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionResponse is the non-streaming response body.
type completionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

func toWire(msgs []conversation.Message) []wireMessage {
	out := make([]wireMessage, len(msgs))
	for i, m := range msgs {
		out[i] = wireMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}
