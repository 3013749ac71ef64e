package maestro

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied by resolveConfig for zero-valued fields.
const (
	DefaultReconnectDelay       = 3 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultPingInterval         = 30 * time.Second
	DefaultDialTimeout          = 10 * time.Second
)

// URLBuilder produces the WebSocket URL for a connection attempt. The
// client treats the result as opaque.
type URLBuilder func(serverURL, token, sessionID string) (string, error)

// Config holds the configuration for a Maestro client.
type Config struct {
	// ServerURL is the base WebSocket URL of the Maestro server, e.g.
	// "ws://localhost:8127". Fallback: MAESTRO_SERVER_URL environment
	// variable.
	ServerURL string

	// Token authenticates the client. It travels embedded in the
	// connection URL path, so the server can authenticate on open
	// without a separate handshake. Fallback: MAESTRO_TOKEN.
	Token string

	// SessionID optionally scopes the connection to a single session's
	// event stream.
	SessionID string

	// BuildURL overrides connection URL construction. Defaults to
	// BuildSessionURL.
	BuildURL URLBuilder

	// DisableAutoReconnect turns off reconnection after dial failures
	// and unclean closes.
	DisableAutoReconnect bool

	// ReconnectDelay is the fixed wait between reconnect attempts.
	// The delay does not grow between attempts.
	ReconnectDelay time.Duration

	// MaxReconnectAttempts caps consecutive failed attempts before the
	// client gives up and surfaces a terminal error.
	MaxReconnectAttempts int

	// PingInterval is the heartbeat period. Zero selects the default;
	// a negative value disables the heartbeat.
	PingInterval time.Duration

	// DialTimeout bounds the WebSocket handshake.
	DialTimeout time.Duration

	// Logger receives structured client events. The zero value logs
	// nothing.
	Logger zerolog.Logger
}

// resolveConfig fills empty fields from environment variables and
// defaults, and validates required fields.
func resolveConfig(cfg Config) (Config, error) {
	if cfg.ServerURL == "" {
		cfg.ServerURL = os.Getenv("MAESTRO_SERVER_URL")
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("MAESTRO_TOKEN")
	}

	if cfg.ServerURL == "" {
		return cfg, fmt.Errorf("ServerURL is required (set in Config or MAESTRO_SERVER_URL env)")
	}
	if cfg.Token == "" {
		return cfg, fmt.Errorf("Token is required (set in Config or MAESTRO_TOKEN env)")
	}

	if cfg.BuildURL == nil {
		cfg.BuildURL = BuildSessionURL
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}

	return cfg, nil
}

// BuildSessionURL is the default URLBuilder. The token travels in the
// URL path rather than a query parameter; a non-empty sessionID appends
// a subscription segment:
//
//	ws://host:port/ws/<token>[/session/<sessionID>]
func BuildSessionURL(serverURL, token, sessionID string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server URL: %w", err)
	}
	u = u.JoinPath("ws", token)
	if sessionID != "" {
		u = u.JoinPath("session", sessionID)
	}
	return u.String(), nil
}
