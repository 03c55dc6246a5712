// Package websocket pushes live session updates to browser viewers.
//
// Viewers connect to /ws?session=<id> and receive a JSON Message after every
// change to that session: moves, undo, reset, victory and deletion. Viewers
// never send commands; play happens over REST, MCP or the CLI.
//
// A single Hub goroutine owns the viewer registry. Handlers call
// BroadcastToSession, which queues the update without blocking; the hub fans
// it out to the session's viewers and drops viewers that cannot keep up.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(id, websocket.EventMove, state)
package websocket
