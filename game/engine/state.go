package engine

import (
	"time"

	"github.com/wricardo/hexbuzz/game/grid"
)

// GameState is one attempt at a level. It is treated as a value: transitions
// copy it and never mutate a state that has been handed out.
type GameState struct {
	Level          *grid.Level
	Mode           string
	Path           []grid.Coord
	NextCheckpoint int
	StartedAt      *time.Time
	EndedAt        *time.Time
}

// NewGameState returns the initial state for a level.
func NewGameState(level *grid.Level, mode string) *GameState {
	if mode == "" {
		mode = ModePractice
	}
	return &GameState{
		Level:          level,
		Mode:           mode,
		Path:           []grid.Coord{},
		NextCheckpoint: 1,
	}
}

// Clone returns a deep copy of the state. The level is shared; it is immutable.
func (gs *GameState) Clone() *GameState {
	next := *gs
	next.Path = make([]grid.Coord, len(gs.Path), len(gs.Path)+1)
	copy(next.Path, gs.Path)
	if gs.StartedAt != nil {
		t := *gs.StartedAt
		next.StartedAt = &t
	}
	if gs.EndedAt != nil {
		t := *gs.EndedAt
		next.EndedAt = &t
	}
	return &next
}

// Head returns the last cell of the path.
func (gs *GameState) Head() (grid.Coord, bool) {
	if len(gs.Path) == 0 {
		return grid.Coord{}, false
	}
	return gs.Path[len(gs.Path)-1], true
}

// Visited reports whether c is already on the path.
func (gs *GameState) Visited(c grid.Coord) bool {
	for _, p := range gs.Path {
		if p == c {
			return true
		}
	}
	return false
}

// Phase derives the lifecycle stage from the path and the win condition.
func (gs *GameState) Phase() Phase {
	if len(gs.Path) == 0 {
		return NotStarted
	}
	if CheckWinCondition(gs).Win {
		return Complete
	}
	return InProgress
}

// Elapsed returns the time spent on the attempt. It is absent before the
// first move.
func (gs *GameState) Elapsed(now time.Time) (time.Duration, bool) {
	if gs.StartedAt == nil {
		return 0, false
	}
	if gs.EndedAt != nil {
		return gs.EndedAt.Sub(*gs.StartedAt), true
	}
	return now.Sub(*gs.StartedAt), true
}

// Snapshot renders the state for shells.
func (gs *GameState) Snapshot(now time.Time) Snapshot {
	path := make([]grid.Coord, len(gs.Path))
	copy(path, gs.Path)
	s := Snapshot{
		Mode:           gs.Mode,
		Phase:          gs.Phase(),
		Path:           path,
		NextCheckpoint: gs.NextCheckpoint,
		StartedAt:      gs.StartedAt,
		EndedAt:        gs.EndedAt,
	}
	if gs.Level != nil {
		s.LevelID = gs.Level.ID()
		s.CheckpointCount = gs.Level.CheckpointCount()
		s.CellCount = gs.Level.CellCount()
	}
	s.IsWin = s.Phase == Complete
	if d, ok := gs.Elapsed(now); ok {
		ms := d.Milliseconds()
		s.ElapsedMs = &ms
	}
	return s
}
