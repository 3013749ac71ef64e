// Package maestro provides a Go client for the Maestro session
// orchestration server, the WebSocket endpoint that Maestro exposes to
// companion clients (mobile web UI, CLIs, headless tools) for observing
// and driving AI coding-agent sessions.
//
// The client handles connection lifecycle (connect, authenticate,
// heartbeat, fixed-delay reconnection with an attempt cap), decodes the
// server's typed message stream, deduplicates at-least-once output
// broadcasts, and routes each message to a caller-supplied handler slot:
//
//	client, err := maestro.NewClient(maestro.Config{
//	    ServerURL: "ws://localhost:8127",
//	    // Token loaded from MAESTRO_TOKEN env
//	}, maestro.EventHandlers{
//	    OnSessionOutput: func(ev maestro.SessionOutputEvent) {
//	        fmt.Print(ev.Data)
//	    },
//	    OnStateChange: func(s maestro.ConnState) {
//	        log.Printf("connection: %s", s)
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.SendInput("session-1", "run the tests\n")
//
// The token travels in the connection URL path, so in the common case
// the server authenticates the client on open and no explicit exchange
// is needed; when the server answers with auth_required instead, call
// Authenticate.
package maestro
