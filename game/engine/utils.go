package engine

import "github.com/wricardo/hexbuzz/game/grid"

// RemainingCells counts the level cells not yet on the path
func RemainingCells(state *GameState) int {
	return state.Level.CellCount() - len(state.Path)
}

// RemainingCheckpoints counts the checkpoints still to be visited
func RemainingCheckpoints(state *GameState) int {
	return max(0, state.Level.CheckpointCount()-state.NextCheckpoint+1)
}

// NextCheckpointTarget returns the cell carrying the next required checkpoint
// and its hex distance from the head of the path (0 before the first move).
func NextCheckpointTarget(state *GameState) (grid.Coord, int, bool) {
	target, ok := state.Level.CheckpointAt(state.NextCheckpoint)
	if !ok {
		return grid.Coord{}, 0, false
	}
	head, started := state.Head()
	if !started {
		return target, 0, true
	}
	return target, grid.Distance(head, target), true
}

// IsStranded reports whether an in-progress attempt has no legal move left.
// Only undo or reset can recover from a stranded state.
func IsStranded(e Engine) bool {
	return e.Phase() == InProgress && len(e.PossibleMoves()) == 0
}
