// Package engine provides the core rules and live play state machine for the
// hex one-stroke puzzle.
//
// The engine package implements:
//   - Move legality (adjacency, walls, revisits, checkpoint order)
//   - The win condition (every cell visited, every checkpoint consumed)
//   - A per-attempt state machine with undo, reset and timing
//   - Move history for replay and diagnostics
//
// Core Types:
//
// GameState is an immutable value describing one attempt: the level, the path
// drawn so far, the next checkpoint to reach and the start/end timestamps.
// The Engine interface, implemented by GameEngine, swaps in a new GameState on
// every successful transition and leaves the state untouched on rejection.
//
// Usage:
//
//	level, err := grid.ParseLevel(data)
//	if err != nil {
//		return err
//	}
//
//	gameEngine, err := engine.NewEngine(level, engine.ModePractice)
//	if err != nil {
//		return err
//	}
//
//	result := gameEngine.TryMove(grid.Coord{Q: 0, R: 0})
//	if !result.Success {
//		fmt.Println(result.Reason.Message())
//	}
//
// Game Rules:
//
// The path starts on checkpoint 1 and grows one adjacent cell at a time. It
// may not cross a wall, revisit a cell, or reach checkpoint k+1 before
// checkpoint k. Cells without a checkpoint may be visited at any time. The
// attempt is complete once every cell is on the path and all checkpoints have
// been consumed; the last cell does not have to be checkpoint N.
package engine
