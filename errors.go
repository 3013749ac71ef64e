package maestro

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Sentinel errors for client state.
var (
	ErrNotConnected = errors.New("client is not connected")
	ErrClientClosed = errors.New("client is closed")
)

// ConnectionError represents a failure to establish or maintain the
// connection to the Maestro server.
type ConnectionError struct {
	URL    string
	Reason string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error [%s]: %s", e.URL, e.Reason)
}

// AuthError represents an auth_failed verdict from the server.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "authentication failed"
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// ErrorKind classifies failures surfaced through the OnError handler.
type ErrorKind int

const (
	ErrTransport          ErrorKind = iota // socket error or dial failure
	ErrProtocol                            // inbound frame failed to decode
	ErrAuthRejected                        // server refused the auth token
	ErrReconnectExhausted                  // reconnect attempt cap reached
)

var errorKindNames = [...]string{
	ErrTransport:          "ErrTransport",
	ErrProtocol:           "ErrProtocol",
	ErrAuthRejected:       "ErrAuthRejected",
	ErrReconnectExhausted: "ErrReconnectExhausted",
}

func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// ClientError wraps a failure the client recovered from internally and
// surfaced through state plus the OnError handler. The public API never
// propagates these as panics or return values.
type ClientError struct {
	Kind      ErrorKind
	Cause     error
	Raw       []byte // raw frame bytes, for decode failures
	Timestamp time.Time
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// LogErrors returns an OnError handler that writes every surfaced error
// to logger.
func LogErrors(logger zerolog.Logger) func(error) {
	return func(err error) {
		var ce *ClientError
		if errors.As(err, &ce) {
			logger.Error().Err(ce.Cause).Str("kind", ce.Kind.String()).Msg("maestro client error")
			return
		}
		logger.Error().Err(err).Msg("maestro client error")
	}
}
