package maestro

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Message type tags sent by the Maestro server. Every inbound frame is a
// JSON object with a required "type" field plus variant-specific fields.
const (
	MsgConnected            = "connected"
	MsgAuthRequired         = "auth_required"
	MsgAuthSuccess          = "auth_success"
	MsgAuthFailed           = "auth_failed"
	MsgSessionsList         = "sessions_list"
	MsgSessionStateChange   = "session_state_change"
	MsgSessionAdded         = "session_added"
	MsgSessionRemoved       = "session_removed"
	MsgActiveSessionChanged = "active_session_changed"
	MsgSessionOutput        = "session_output"
	MsgSessionExit          = "session_exit"
	MsgUserInput            = "user_input"
	MsgTheme                = "theme"
	MsgCustomCommands       = "custom_commands"
	MsgAutorunState         = "autorun_state"
	MsgTabsChanged          = "tabs_changed"
	MsgPong                 = "pong"
	MsgSubscribed           = "subscribed"
	MsgEcho                 = "echo"
	MsgError                = "error"
)

// Frame is one decoded WebSocket text message from the server. The
// variant payload stays in raw form until dispatch narrows it.
type Frame struct {
	Type      string
	Timestamp int64

	raw json.RawMessage
}

// Decode unmarshals the frame's variant fields into v. The wire format is
// flat, so v sees the whole frame object.
func (f *Frame) Decode(v any) error {
	return json.Unmarshal(f.raw, v)
}

// Raw returns the frame bytes as received.
func (f *Frame) Raw() []byte {
	return f.raw
}

// parseFrame decodes the envelope of one inbound frame. Frames without a
// type tag are rejected so the dispatcher never routes them.
func parseFrame(data []byte) (*Frame, error) {
	var env struct {
		Type      string `json:"type"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("parse frame: missing type field")
	}
	return &Frame{Type: env.Type, Timestamp: env.Timestamp, raw: data}, nil
}

// Session describes one coding-agent session managed by the server.
type Session struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Tool      string `json:"tool,omitempty"`
	State     string `json:"state,omitempty"`
	Cwd       string `json:"cwd,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// CustomCommand is a user-defined command exposed by the server.
type CustomCommand struct {
	Name    string `json:"name"`
	Command string `json:"command"`
	Icon    string `json:"icon,omitempty"`
}

// Tab is one tab in the server's tab layout.
type Tab struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	SessionIDs []string `json:"sessionIds,omitempty"`
}

// ConnectedEvent is the server hello. When Authenticated is true the
// token embedded in the connection URL was accepted and no explicit
// exchange is needed.
type ConnectedEvent struct {
	ClientID      string `json:"clientId"`
	Authenticated bool   `json:"authenticated"`
}

// AuthRequiredEvent asks the client to exchange a token via Authenticate.
type AuthRequiredEvent struct {
	ClientID string `json:"clientId"`
}

// AuthResultEvent is the server's verdict on an auth frame.
type AuthResultEvent struct {
	ClientID string `json:"clientId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SessionStateChangeEvent reports a session state delta.
type SessionStateChangeEvent struct {
	SessionID string `json:"sessionId"`
	State     string `json:"state"`
}

// SessionOutputEvent carries one output chunk from a session. MsgID, when
// present, identifies the broadcast so redeliveries can be dropped.
type SessionOutputEvent struct {
	SessionID string `json:"sessionId"`
	Data      string `json:"data"`
	MsgID     string `json:"msgId,omitempty"`
}

// SessionExitEvent reports that a session's process exited.
type SessionExitEvent struct {
	SessionID string `json:"sessionId"`
	ExitCode  int    `json:"exitCode"`
}

// UserInputEvent is input another client submitted to a session, echoed
// to the rest of the subscribers.
type UserInputEvent struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

type sessionsListEvent struct {
	Sessions []Session `json:"sessions"`
}

type sessionAddedEvent struct {
	Session Session `json:"session"`
}

type sessionRefEvent struct {
	SessionID string `json:"sessionId"`
}

type themeEvent struct {
	Theme json.RawMessage `json:"theme"`
}

type customCommandsEvent struct {
	Commands []CustomCommand `json:"commands"`
}

type autorunStateEvent struct {
	Enabled bool `json:"enabled"`
}

type tabsChangedEvent struct {
	Tabs []Tab `json:"tabs"`
}

type serverErrorEvent struct {
	Message string `json:"message"`
}

// Outbound frames (client → server).

type authFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type pingFrame struct {
	Type string `json:"type"`
}

type subscribeFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

type userInputFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	MsgID     string `json:"msgId"`
}

// generateID returns a new unique message ID.
func generateID() string {
	return uuid.New().String()
}
