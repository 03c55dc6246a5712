package engine

import "github.com/wricardo/hexbuzz/game/grid"

// IsAdjacent reports whether b is one of a's six axial neighbours.
func IsAdjacent(a, b grid.Coord) bool {
	return grid.IsAdjacent(a, b)
}

// IsPassable reports whether no wall of the level blocks the edge from-to.
func IsPassable(level *grid.Level, from, to grid.Coord) bool {
	return level.IsPassable(from, to)
}

// IsValidMove checks whether target may be appended to the path of state.
// The target is resolved against the level; nothing about the cell is taken
// from the caller.
func IsValidMove(state *GameState, target grid.Coord) MoveCheck {
	cell, ok := state.Level.Cell(target)
	if !ok {
		return MoveCheck{Reason: ReasonCellNotInLevel}
	}

	head, started := state.Head()
	if !started {
		if cell.Checkpoint != 1 {
			return MoveCheck{Reason: ReasonNotStartCell}
		}
		return MoveCheck{Valid: true}
	}

	if !IsAdjacent(head, target) {
		return MoveCheck{Reason: ReasonNotAdjacent}
	}
	if !IsPassable(state.Level, head, target) {
		return MoveCheck{Reason: ReasonWallBlocked}
	}
	if state.Visited(target) {
		return MoveCheck{Reason: ReasonAlreadyVisited}
	}
	if cell.Checkpoint != 0 && cell.Checkpoint != state.NextCheckpoint {
		return MoveCheck{Reason: ReasonWrongCheckpointOrder}
	}
	return MoveCheck{Valid: true}
}

// CheckWinCondition reports a win when every cell is on the path and every
// checkpoint has been consumed. The path does not have to end on checkpoint N.
func CheckWinCondition(state *GameState) WinCheck {
	if state.Level == nil || len(state.Path) != state.Level.CellCount() {
		return WinCheck{Reason: ReasonPathIncomplete}
	}
	if state.NextCheckpoint <= state.Level.CheckpointCount() {
		return WinCheck{Reason: ReasonCheckpointsRemaining}
	}
	return WinCheck{Win: true}
}

// applyMove returns the state after appending target. The move must already be
// valid.
func applyMove(state *GameState, target grid.Coord) *GameState {
	next := state.Clone()
	next.Path = append(next.Path, target)
	if cell, _ := state.Level.Cell(target); cell.Checkpoint != 0 && cell.Checkpoint == next.NextCheckpoint {
		next.NextCheckpoint++
	}
	return next
}

// undoMove returns the state with the last path cell removed.
func undoMove(state *GameState) *GameState {
	next := state.Clone()
	last := next.Path[len(next.Path)-1]
	next.Path = next.Path[:len(next.Path)-1]
	if cell, _ := state.Level.Cell(last); cell.Checkpoint != 0 && cell.Checkpoint == next.NextCheckpoint-1 {
		next.NextCheckpoint--
	}
	return next
}
