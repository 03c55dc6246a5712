package engine

import (
	"testing"

	"github.com/wricardo/hexbuzz/game/grid"
)

func stateWithPath(level *grid.Level, path ...grid.Coord) *GameState {
	state := NewGameState(level, ModePractice)
	for _, c := range path {
		state = applyMove(state, c)
	}
	return state
}

func TestIsValidMove(t *testing.T) {
	level := diskLevel(t)
	walled, err := level.WithWalls(grid.NewEdge(at(0, 0), at(1, 0)))
	if err != nil {
		t.Fatalf("Failed to add wall: %v", err)
	}

	tests := []struct {
		name   string
		level  *grid.Level
		path   []grid.Coord
		target grid.Coord
		want   Reason
	}{
		{"start on checkpoint 1", level, nil, at(0, 0), ReasonNone},
		{"start elsewhere", level, nil, at(1, 0), ReasonNotStartCell},
		{"start on checkpoint 2", level, nil, at(1, -1), ReasonNotStartCell},
		{"outside level", level, nil, at(5, 5), ReasonCellNotInLevel},
		{"outside level mid-path", level, []grid.Coord{at(0, 0)}, at(2, 0), ReasonCellNotInLevel},
		{"plain neighbour", level, []grid.Coord{at(0, 0)}, at(1, 0), ReasonNone},
		{"next checkpoint", level, []grid.Coord{at(0, 0)}, at(1, -1), ReasonNone},
		{"checkpoint out of order", level, []grid.Coord{at(0, 0)}, at(0, 1), ReasonWrongCheckpointOrder},
		{"two hexes away", level, []grid.Coord{at(0, 0), at(1, 0)}, at(-1, 0), ReasonNotAdjacent},
		{"revisit", level, []grid.Coord{at(0, 0), at(1, 0)}, at(0, 0), ReasonAlreadyVisited},
		{"same cell as head", level, []grid.Coord{at(0, 0)}, at(0, 0), ReasonNotAdjacent},
		{"wall", walled, []grid.Coord{at(0, 0)}, at(1, 0), ReasonWallBlocked},
		{"wall in reverse", walled, []grid.Coord{at(0, 0), at(1, -1)}, at(1, 0), ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := stateWithPath(tt.level, tt.path...)
			check := IsValidMove(state, tt.target)
			if check.Reason != tt.want {
				t.Errorf("Expected reason %q, got %q", tt.want, check.Reason)
			}
			if check.Valid != (tt.want == ReasonNone) {
				t.Errorf("Expected valid=%v, got %v", tt.want == ReasonNone, check.Valid)
			}
		})
	}
}

func TestIsPassable(t *testing.T) {
	level := rhombusLevel(t, grid.NewEdge(at(1, 0), at(0, 1)))

	if IsPassable(level, at(1, 0), at(0, 1)) {
		t.Error("Expected wall to block (1,0)->(0,1)")
	}
	if IsPassable(level, at(0, 1), at(1, 0)) {
		t.Error("Expected wall to block (0,1)->(1,0)")
	}
	if !IsPassable(level, at(0, 0), at(1, 0)) {
		t.Error("Expected (0,0)->(1,0) to be open")
	}
}

func TestCheckWinCondition(t *testing.T) {
	level := diskLevel(t)

	tests := []struct {
		name string
		path []grid.Coord
		want WinCheck
	}{
		{"empty path", nil, WinCheck{Reason: ReasonPathIncomplete}},
		{"partial path", diskSolution[:4], WinCheck{Reason: ReasonPathIncomplete}},
		{"full path", diskSolution, WinCheck{Win: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckWinCondition(stateWithPath(level, tt.path...))
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestCheckWinCondition_CheckpointsRemaining(t *testing.T) {
	// A full-length path that skipped a checkpoint counter cannot win, even
	// though legal play never reaches it.
	level := diskLevel(t)
	state := &GameState{Level: level, Path: append([]grid.Coord(nil), diskSolution...), NextCheckpoint: 3}

	got := CheckWinCondition(state)
	if got.Win || got.Reason != ReasonCheckpointsRemaining {
		t.Errorf("Expected checkpoints_remaining, got %+v", got)
	}
}

func TestCheckWinCondition_EndNeedNotBeLastCheckpoint(t *testing.T) {
	// Checkpoint 3 sits on (0,1) and the path ends on (1,0).
	state := stateWithPath(diskLevel(t), diskSolution...)
	last := state.Path[len(state.Path)-1]
	if cell, _ := state.Level.Cell(last); cell.Checkpoint == state.Level.CheckpointCount() {
		t.Fatalf("Fixture must end away from the final checkpoint")
	}
	if !CheckWinCondition(state).Win {
		t.Error("Expected win when all cells and checkpoints are covered")
	}
}

func TestApplyAndUndoMove_Checkpoints(t *testing.T) {
	level := diskLevel(t)
	state := stateWithPath(level, at(0, 0))
	if state.NextCheckpoint != 2 {
		t.Fatalf("Expected next checkpoint 2 after start, got %d", state.NextCheckpoint)
	}

	after := applyMove(state, at(1, -1))
	if after.NextCheckpoint != 3 {
		t.Errorf("Expected next checkpoint 3, got %d", after.NextCheckpoint)
	}
	if len(state.Path) != 1 {
		t.Errorf("applyMove must not mutate its input, path length now %d", len(state.Path))
	}

	back := undoMove(after)
	if back.NextCheckpoint != 2 {
		t.Errorf("Expected next checkpoint 2 after undo, got %d", back.NextCheckpoint)
	}

	plain := undoMove(applyMove(state, at(1, 0)))
	if plain.NextCheckpoint != 2 {
		t.Errorf("Undoing a plain cell must keep the counter, got %d", plain.NextCheckpoint)
	}
}
