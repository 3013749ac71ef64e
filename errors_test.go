package maestro

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestConnectionError_Error(t *testing.T) {
	err := &ConnectionError{
		URL:    "ws://localhost:8127",
		Reason: "connection refused",
	}
	want := "connection error [ws://localhost:8127]: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAuthError_Error(t *testing.T) {
	err := &AuthError{Reason: "invalid token"}
	if got := err.Error(); got != "authentication failed: invalid token" {
		t.Errorf("Error() = %q", got)
	}

	err = &AuthError{}
	if got := err.Error(); got != "authentication failed" {
		t.Errorf("Error() without reason = %q", got)
	}
}

func TestClientError_Error(t *testing.T) {
	err := &ClientError{
		Kind:      ErrTransport,
		Cause:     fmt.Errorf("broken pipe"),
		Timestamp: time.Now(),
	}
	got := err.Error()
	if !strings.Contains(got, "ErrTransport") {
		t.Errorf("Error() = %q, should contain kind", got)
	}
	if !strings.Contains(got, "broken pipe") {
		t.Errorf("Error() = %q, should contain cause", got)
	}

	bare := &ClientError{Kind: ErrReconnectExhausted}
	if bare.Error() != "ErrReconnectExhausted" {
		t.Errorf("Error() without cause = %q", bare.Error())
	}
}

func TestClientError_Unwrap(t *testing.T) {
	cause := &AuthError{Reason: "expired"}
	err := &ClientError{Kind: ErrAuthRejected, Cause: cause}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatal("ClientError should unwrap to its Cause")
	}
	if authErr.Reason != "expired" {
		t.Errorf("Reason = %q, want %q", authErr.Reason, "expired")
	}
}

func TestClientError_ErrorsAs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &ClientError{
		Kind:  ErrReconnectExhausted,
		Cause: fmt.Errorf("gave up after 5 reconnect attempts"),
	})
	var ce *ClientError
	if !errors.As(err, &ce) {
		t.Fatal("errors.As should match ClientError")
	}
	if ce.Kind != ErrReconnectExhausted {
		t.Errorf("Kind = %v, want ErrReconnectExhausted", ce.Kind)
	}
}

func TestSentinelErrors(t *testing.T) {
	if !errors.Is(ErrNotConnected, ErrNotConnected) {
		t.Error("ErrNotConnected should match itself")
	}
	if !errors.Is(ErrClientClosed, ErrClientClosed) {
		t.Error("ErrClientClosed should match itself")
	}
}

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ErrTransport, "ErrTransport"},
		{ErrProtocol, "ErrProtocol"},
		{ErrAuthRejected, "ErrAuthRejected"},
		{ErrReconnectExhausted, "ErrReconnectExhausted"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
	if got := ErrorKind(99).String(); got != "ErrorKind(99)" {
		t.Errorf("unknown kind String() = %q", got)
	}
}

func TestLogErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := LogErrors(logger)
	handler(&ClientError{
		Kind:      ErrAuthRejected,
		Cause:     &AuthError{Reason: "invalid token"},
		Timestamp: time.Now(),
	})

	output := buf.String()
	if !strings.Contains(output, "ErrAuthRejected") {
		t.Errorf("LogErrors output = %q, should contain error kind", output)
	}
	if !strings.Contains(output, "invalid token") {
		t.Errorf("LogErrors output = %q, should contain cause", output)
	}
}

func TestLogErrors_PlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	LogErrors(logger)(fmt.Errorf("some failure"))
	if !strings.Contains(buf.String(), "some failure") {
		t.Errorf("LogErrors output = %q, should contain message", buf.String())
	}
}
