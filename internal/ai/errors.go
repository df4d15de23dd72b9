package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TransportErrorKind classifies why a request to the completion endpoint failed.
type TransportErrorKind int

const (
	// KindConnection covers DNS, dial, TLS and other I/O failures.
	KindConnection TransportErrorKind = iota
	// KindTimeout means the configured request timeout elapsed.
	KindTimeout
	// KindStatus means the endpoint answered with a non-2xx status.
	KindStatus
)

func (k TransportErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "api status"
	default:
		return "connection"
	}
}

// TransportError is returned by Transport.Open. For KindStatus the full
// response body is kept for diagnostics.
type TransportError struct {
	Kind       TransportErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
	case KindTimeout:
		return fmt.Sprintf("request timed out: %v", e.Err)
	default:
		return fmt.Sprintf("could not reach the completion endpoint: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StreamError is a failure while reading an already opened stream. Partial
// holds the reply text decoded before the failure.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// classify wraps a low-level HTTP error into a TransportError.
func classify(err error) *TransportError {
	if isTimeout(err) {
		return &TransportError{Kind: KindTimeout, Err: err}
	}
	return &TransportError{Kind: KindConnection, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
