package maestro

// ConnState is the lifecycle state of the connection to the Maestro server.
type ConnState int

const (
	// StateDisconnected means no socket is open.
	StateDisconnected ConnState = iota

	// StateConnecting means a dial is in progress.
	StateConnecting

	// StateConnected means the socket is open. The server's hello may
	// upgrade the client straight to StateAuthenticated, or request an
	// explicit token exchange via Authenticate.
	StateConnected

	// StateAuthenticating means an auth frame was sent and the verdict
	// is pending.
	StateAuthenticating

	// StateAuthenticated means the server accepted the client.
	StateAuthenticated
)

// String returns the string representation of a ConnState.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
