// Package exitcode maps command failures to process exit statuses.
package exitcode

import "errors"

// Exit codes for chatbot-llm commands
const (
	Success   = 0
	Error     = 1
	Config    = 2
	Cancelled = 130 // 128 + SIGINT
)

// ExitError is an error that carries a specific exit code
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e ExitError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e ExitError) Unwrap() error { return e.Err }

// Convenience constructors
func ConfigError(err error) ExitError { return ExitError{Code: Config, Err: err} }
func Cancel() ExitError              { return ExitError{Code: Cancelled, Message: "cancelled"} }

// Code returns the exit status for err: Success for nil, the carried code
// for an ExitError anywhere in the chain, Error otherwise.
func Code(err error) int {
	if err == nil {
		return Success
	}
	var ee ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return Error
}
