package exitcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	cause := errors.New("OPENAI_API_KEY is not set")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"plain error", errors.New("boom"), Error},
		{"config", ConfigError(cause), Config},
		{"wrapped config", fmt.Errorf("startup: %w", ConfigError(cause)), Config},
		{"cancel", Cancel(), Cancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("bad personas file")
	err := ConfigError(cause)

	if err.Error() != "bad personas file" {
		t.Errorf("expected cause message, got %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected ExitError to unwrap to its cause")
	}
	if Cancel().Error() != "cancelled" {
		t.Errorf("unexpected cancel message %q", Cancel().Error())
	}
}
