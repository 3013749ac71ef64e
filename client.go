package maestro

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client maintains one logical connection to a Maestro server and
// dispatches inbound frames to the caller's EventHandlers.
//
// All failures are recovered inside the client and surfaced through
// State, Err, and the OnError handler; the public API never panics on
// network flakiness. A Client may be disconnected and reconnected;
// Close is terminal.
type Client struct {
	cfg   Config
	log   zerolog.Logger
	wsURL string
	dial  dialFunc // test seam; defaults to gorillaDial

	mu         sync.Mutex
	conn       wsConn
	state      ConnState
	clientID   string
	lastErr    error
	attempts   int
	generation uint64 // bumped per connect chain and on teardown; stale callbacks bail
	cancel     context.CancelFunc
	closed     bool

	writeMu sync.Mutex // serializes socket writes

	handlersMu sync.RWMutex
	handlers   EventHandlers

	dedup *dedupWindow
}

// NewClient creates a Maestro client with the given configuration and
// callback table. The client is not connected until Connect is called.
func NewClient(cfg Config, handlers EventHandlers) (*Client, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	wsURL, err := resolved.BuildURL(resolved.ServerURL, resolved.Token, resolved.SessionID)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:      resolved,
		log:      resolved.Logger,
		wsURL:    wsURL,
		dial:     gorillaDial(resolved.DialTimeout),
		handlers: handlers,
		dedup:    newDedupWindow(),
	}, nil
}

// Connect opens the connection. It is asynchronous: the outcome is
// observable through State, Err, and the OnStateChange/OnError handlers.
// Connect resets the attempt counter and last error. Calling it while a
// connection chain is live is a no-op; after Close it returns
// ErrClientClosed.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.attempts = 0
	c.lastErr = nil
	c.generation++
	gen := c.generation
	c.state = StateConnecting
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.log.Debug().Str("server", c.cfg.ServerURL).Msg("connecting")
	if fn := c.handlersSnapshot().OnStateChange; fn != nil {
		fn(StateConnecting)
	}

	go c.run(runCtx, gen)
	return nil
}

// Disconnect closes the connection with a normal close code and
// suppresses reconnection, including a reconnect already scheduled. The
// client may Connect again afterwards.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.generation++
	conn := c.conn
	c.conn = nil
	cancel := c.cancel
	c.cancel = nil
	changed := c.state != StateDisconnected
	c.state = StateDisconnected
	c.clientID = ""
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		conn.Close()
	}
	if changed {
		c.log.Debug().Msg("disconnected")
		if fn := c.handlersSnapshot().OnStateChange; fn != nil {
			fn(StateDisconnected)
		}
	}
}

// Close disconnects and permanently shuts down the client. Subsequent
// Connect calls return ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.Disconnect()
	return nil
}

// Authenticate sends an explicit auth frame. It is meaningful while the
// connection is open pre-auth, after the server sent auth_required.
func (c *Client) Authenticate(token string) error {
	c.mu.Lock()
	conn := c.conn
	gen := c.generation
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	if err := c.writeJSON(authFrame{Type: "auth", Token: token}); err != nil {
		return err
	}
	c.setState(gen, StateAuthenticating)
	return nil
}

// Ping sends a manual heartbeat frame. The server answers with pong,
// which the dispatcher recognizes and otherwise ignores.
func (c *Client) Ping() error {
	return c.writeJSON(pingFrame{Type: "ping"})
}

// Send writes an arbitrary JSON message to the server, best effort. It
// returns false, after logging, when the socket is not open or the write
// fails; nothing is queued.
func (c *Client) Send(msg any) bool {
	if err := c.writeJSON(msg); err != nil {
		c.log.Warn().Err(err).Msg("send failed")
		return false
	}
	return true
}

// SendInput submits user input to a session. The frame carries a fresh
// msgId so at-least-once broadcast redeliveries can be dropped.
func (c *Client) SendInput(sessionID, text string) bool {
	return c.Send(userInputFrame{
		Type:      MsgUserInput,
		SessionID: sessionID,
		Text:      text,
		MsgID:     generateID(),
	})
}

// Subscribe asks the server to add this connection to a session's
// broadcast list. The server acknowledges with a subscribed message.
func (c *Client) Subscribe(sessionID string) bool {
	return c.Send(subscribeFrame{Type: "subscribe", SessionID: sessionID})
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ClientID returns the server-assigned client identifier. It is empty
// until the server's hello arrives.
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// Err returns the most recently surfaced error, or nil. Connect clears it.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ReconnectAttempts returns the failed-attempt count of the current
// connect chain.
func (c *Client) ReconnectAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// run owns one connection chain: it dials, pumps frames, and applies the
// reconnect policy until the chain is superseded, closed cleanly, or the
// attempt budget runs out. Exactly one run goroutine is live per client;
// a stale one detects the generation bump and exits without touching
// state.
func (c *Client) run(ctx context.Context, gen uint64) {
	policy := newRetryPolicy(c.cfg.ReconnectDelay, c.cfg.MaxReconnectAttempts)

	for {
		if !c.setState(gen, StateConnecting) {
			return
		}

		conn, err := c.dial(ctx, c.wsURL)
		if err != nil {
			c.surfaceError(gen, &ClientError{
				Kind:      ErrTransport,
				Cause:     &ConnectionError{URL: c.cfg.ServerURL, Reason: err.Error()},
				Timestamp: time.Now(),
			})
			c.setState(gen, StateDisconnected)
			if c.cfg.DisableAutoReconnect || !c.retry(ctx, gen, policy) {
				return
			}
			continue
		}

		if !c.adopt(gen, conn) {
			conn.Close()
			return
		}
		policy.reset()
		c.setState(gen, StateConnected)

		stopPing := c.startHeartbeat(gen)
		err = c.readLoop(conn, gen)
		stopPing()

		c.mu.Lock()
		stale := gen != c.generation
		if !stale {
			c.conn = nil
		}
		c.mu.Unlock()
		if stale {
			return
		}

		c.setState(gen, StateDisconnected)
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			c.log.Debug().Msg("server closed the connection cleanly")
			return
		}

		c.surfaceError(gen, &ClientError{Kind: ErrTransport, Cause: err, Timestamp: time.Now()})
		if c.cfg.DisableAutoReconnect {
			return
		}
		if !c.retry(ctx, gen, policy) {
			return
		}
	}
}

// retry records a failed attempt and waits the fixed delay before the
// next one. It returns false when the budget is exhausted, the context
// is done, or the chain has been superseded.
func (c *Client) retry(ctx context.Context, gen uint64, policy *retryPolicy) bool {
	delay, ok := policy.fail()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.attempts = policy.count()
	c.mu.Unlock()

	if !ok {
		c.surfaceError(gen, &ClientError{
			Kind:      ErrReconnectExhausted,
			Cause:     fmt.Errorf("gave up after %d reconnect attempts", c.cfg.MaxReconnectAttempts),
			Timestamp: time.Now(),
		})
		return false
	}

	c.log.Debug().Int("attempt", policy.count()).Dur("delay", delay).Msg("reconnect scheduled")
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
	}

	c.mu.Lock()
	live := gen == c.generation && !c.closed
	c.mu.Unlock()
	return live
}

// adopt installs conn as the live socket unless the chain was superseded
// while dialing.
func (c *Client) adopt(gen uint64, conn wsConn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.conn = conn
	c.attempts = 0
	return true
}

// readLoop pumps frames until the connection drops and returns the read
// error. Frames are dispatched in arrival order on this goroutine.
func (c *Client) readLoop(conn wsConn, gen uint64) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleFrame(gen, data)
	}
}

// startHeartbeat sends a ping frame on the configured interval until the
// returned stop function is called. A negative interval disables it.
func (c *Client) startHeartbeat(gen uint64) func() {
	if c.cfg.PingInterval <= 0 {
		return func() {}
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.mu.Lock()
				live := gen == c.generation
				c.mu.Unlock()
				if !live {
					return
				}
				if err := c.Ping(); err != nil {
					c.log.Debug().Err(err).Msg("heartbeat ping failed")
				}
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}

// handleFrame decodes one inbound frame and routes it to the matching
// handler slot. Malformed frames are logged and dropped; the connection
// stays up and the state machine is untouched. Unrecognized type tags
// are ignored so new server message types never crash old clients.
func (c *Client) handleFrame(gen uint64, data []byte) {
	frame, err := parseFrame(data)
	if err != nil {
		c.log.Warn().Err(err).Str("kind", ErrProtocol.String()).Msg("dropping malformed frame")
		return
	}

	c.mu.Lock()
	live := gen == c.generation
	c.mu.Unlock()
	if !live {
		return
	}

	h := c.handlersSnapshot()
	if h.OnMessage != nil {
		h.OnMessage(frame)
	}

	switch frame.Type {
	case MsgConnected:
		var ev ConnectedEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		c.setClientID(gen, ev.ClientID)
		if ev.Authenticated {
			c.setState(gen, StateAuthenticated)
		}
		if h.OnConnected != nil {
			h.OnConnected(ev)
		}

	case MsgAuthRequired:
		var ev AuthRequiredEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		c.setClientID(gen, ev.ClientID)
		if h.OnAuthRequired != nil {
			h.OnAuthRequired(ev)
		}

	case MsgAuthSuccess:
		var ev AuthResultEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		c.setClientID(gen, ev.ClientID)
		c.setState(gen, StateAuthenticated)
		if h.OnAuthSuccess != nil {
			h.OnAuthSuccess(ev)
		}

	case MsgAuthFailed:
		var ev AuthResultEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		// The connection stays open awaiting another Authenticate or a
		// Disconnect by the caller.
		c.setState(gen, StateConnected)
		c.surfaceError(gen, &ClientError{
			Kind:      ErrAuthRejected,
			Cause:     &AuthError{Reason: ev.Error},
			Timestamp: time.Now(),
		})
		if h.OnAuthFailed != nil {
			h.OnAuthFailed(ev)
		}

	case MsgSessionsList:
		var ev sessionsListEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnSessionsList != nil {
			h.OnSessionsList(ev.Sessions)
		}

	case MsgSessionStateChange:
		var ev SessionStateChangeEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnSessionStateChange != nil {
			h.OnSessionStateChange(ev)
		}

	case MsgSessionAdded:
		var ev sessionAddedEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnSessionAdded != nil {
			h.OnSessionAdded(ev.Session)
		}

	case MsgSessionRemoved:
		var ev sessionRefEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnSessionRemoved != nil {
			h.OnSessionRemoved(ev.SessionID)
		}

	case MsgActiveSessionChanged:
		var ev sessionRefEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnActiveSessionChanged != nil {
			h.OnActiveSessionChanged(ev.SessionID)
		}

	case MsgSessionOutput:
		var ev SessionOutputEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if ev.MsgID != "" && c.dedup.remember(ev.MsgID) {
			c.log.Debug().Str("msgId", ev.MsgID).Msg("duplicate output chunk dropped")
			return
		}
		if h.OnSessionOutput != nil {
			h.OnSessionOutput(ev)
		}

	case MsgSessionExit:
		var ev SessionExitEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnSessionExit != nil {
			h.OnSessionExit(ev)
		}

	case MsgUserInput:
		var ev UserInputEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnUserInput != nil {
			h.OnUserInput(ev)
		}

	case MsgTheme:
		var ev themeEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnTheme != nil {
			h.OnTheme(ev.Theme)
		}

	case MsgCustomCommands:
		var ev customCommandsEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnCustomCommands != nil {
			h.OnCustomCommands(ev.Commands)
		}

	case MsgAutorunState:
		var ev autorunStateEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnAutorunState != nil {
			h.OnAutorunState(ev.Enabled)
		}

	case MsgTabsChanged:
		var ev tabsChangedEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnTabsChanged != nil {
			h.OnTabsChanged(ev.Tabs)
		}

	case MsgPong:
		if h.OnPong != nil {
			h.OnPong()
		}

	case MsgSubscribed:
		var ev sessionRefEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnSubscribed != nil {
			h.OnSubscribed(ev.SessionID)
		}

	case MsgEcho:
		if h.OnEcho != nil {
			h.OnEcho(frame)
		}

	case MsgError:
		var ev serverErrorEvent
		if !c.decodeFrame(frame, &ev) {
			return
		}
		if h.OnServerError != nil {
			h.OnServerError(ev.Message)
		}

	default:
		c.log.Debug().Str("type", frame.Type).Msg("ignoring unrecognized message type")
	}
}

// decodeFrame narrows frame into v, logging and dropping on failure.
func (c *Client) decodeFrame(frame *Frame, v any) bool {
	if err := frame.Decode(v); err != nil {
		c.log.Warn().Err(err).Str("type", frame.Type).Msg("dropping undecodable frame")
		return false
	}
	return true
}

// setState transitions the connection state and notifies OnStateChange.
// It returns false when gen is no longer the live generation.
func (c *Client) setState(gen uint64, s ConnState) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	if c.state == s {
		c.mu.Unlock()
		return true
	}
	old := c.state
	c.state = s
	c.mu.Unlock()

	c.log.Debug().Stringer("from", old).Stringer("to", s).Msg("connection state changed")
	if fn := c.handlersSnapshot().OnStateChange; fn != nil {
		fn(s)
	}
	return true
}

func (c *Client) setClientID(gen uint64, id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	if gen == c.generation {
		c.clientID = id
	}
	c.mu.Unlock()
}

// surfaceError records err and reports it through OnError. Errors from
// superseded generations are discarded.
func (c *Client) surfaceError(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.lastErr = err
	c.mu.Unlock()

	c.log.Warn().Err(err).Msg("client error")
	if fn := c.handlersSnapshot().OnError; fn != nil {
		fn(err)
	}
}

// writeJSON marshals v and writes it as one text frame.
func (c *Client) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}
