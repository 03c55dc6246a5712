// Package api provides the HTTP REST API for hexbuzz.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session {level_id?, level?, mode?}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&level=name)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Play:
//   - GET /api/sessions/{id}/state - State with possible moves and a text board
//   - POST /api/sessions/{id}/move - Extend the path {q, r, reset?}
//   - POST /api/sessions/{id}/bulk-move - Several cells {moves: [{q, r}], reset?}
//   - POST /api/sessions/{id}/undo - Remove the last cell
//   - POST /api/sessions/{id}/reset - Clear the path
//   - GET /api/sessions/{id}/history - Paginated move history (?page&limit&order)
//
// Levels and tools:
//   - GET /api/levels, POST /api/levels {name, level}, GET /api/levels/{name}
//   - POST /api/validate - Solve a level JSON body (?count=N counts solutions)
//   - POST /api/generate - Generate a level {size, seed?, checkpoints?, wall_density?, save?, name?}
//   - POST /api/generate/batch - Generate several levels {count, size, seed?, save?}
//   - GET /api/health
//   - GET /ws?session=<id> - Live updates for viewers
//
// A rejected move is not an HTTP error: the response is 200 with
// {"success": false, "error": "<reason>"}. HTTP errors use
//
//	{"error": "error message"}
//
// with 404 for unknown sessions and levels, 400 for malformed or unsound
// input and 500 otherwise. Every response carries an X-Request-ID header.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
package api
