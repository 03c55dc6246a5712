// Package mcp exposes hexbuzz to AI agents over the Model Context Protocol.
//
// Client is a thin proxy: every tool call becomes a REST request against a
// running hexbuzz server and the JSON response is rendered as text for the
// agent. The package keeps no game state of its own.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state: board, path, possible moves and the next checkpoint
//   - move, bulk_move: extend the path by axial (q, r) cells
//   - undo, reset_game, move_history
//   - list_levels, validate_level, generate_level
//   - game_instructions: the full rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
