package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNoChoices is returned when a non-streaming response has no choices.
var ErrNoChoices = errors.New("response contained no choices")

// ReadCompletion decodes a non-streaming completion body and returns the
// assistant's reply text.
func ReadCompletion(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", classify(err)
	}
	var resp completionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
