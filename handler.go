package maestro

import "encoding/json"

// EventHandlers is the caller-supplied callback table. Every slot is
// optional; nil slots are skipped. The table may be replaced at any time
// with Client.SetHandlers — socket goroutines read it at dispatch time,
// so frames arriving after a swap always see the latest callbacks.
//
// Handlers run on the connection's read goroutine; frames are delivered
// in the order the transport produced them. A handler that blocks stalls
// the stream.
type EventHandlers struct {
	OnConnected            func(ConnectedEvent)
	OnAuthRequired         func(AuthRequiredEvent)
	OnAuthSuccess          func(AuthResultEvent)
	OnAuthFailed           func(AuthResultEvent)
	OnSessionsList         func([]Session)
	OnSessionStateChange   func(SessionStateChangeEvent)
	OnSessionAdded         func(Session)
	OnSessionRemoved       func(sessionID string)
	OnActiveSessionChanged func(sessionID string)
	OnSessionOutput        func(SessionOutputEvent)
	OnSessionExit          func(SessionExitEvent)
	OnUserInput            func(UserInputEvent)
	OnTheme                func(theme json.RawMessage)
	OnCustomCommands       func([]CustomCommand)
	OnAutorunState         func(enabled bool)
	OnTabsChanged          func([]Tab)
	OnPong                 func()
	OnSubscribed           func(sessionID string)
	OnEcho                 func(*Frame)
	OnServerError          func(message string)

	// OnMessage fires for every well-formed frame, before the variant
	// slot, including frames of unrecognized type.
	OnMessage func(*Frame)

	// OnStateChange fires on every connection state transition.
	OnStateChange func(ConnState)

	// OnError receives transport failures, authentication rejections,
	// and the terminal reconnect-exhaustion error.
	OnError func(error)
}

// SetHandlers replaces the callback table. In-flight socket callbacks
// observe the new table on their next dispatch; no reconnect happens.
func (c *Client) SetHandlers(h EventHandlers) {
	c.handlersMu.Lock()
	c.handlers = h
	c.handlersMu.Unlock()
}

// handlersSnapshot returns the current table by value for one dispatch.
func (c *Client) handlersSnapshot() EventHandlers {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	return c.handlers
}
