package engine

import (
	"fmt"
	"time"

	"github.com/wricardo/hexbuzz/game/grid"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	State() *GameState
	Snapshot() Snapshot
	Phase() Phase
	Reset() *GameState
	Restore(path []grid.Coord, startedAt, endedAt *time.Time) error
	Elapsed() (time.Duration, bool)

	// Movement operations
	TryMove(target grid.Coord) MoveResult
	Undo() bool
	PossibleMoves() []grid.Coord
	BulkMove(targets []grid.Coord) []MoveResult

	// Level
	Level() *grid.Level
	Mode() string

	// History
	History() []HistoryEntry
	LastMove() *HistoryEntry
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state   *GameState
	history []HistoryEntry
	now     func() time.Time
}

// Option configures a GameEngine.
type Option func(*GameEngine)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) { e.now = now }
}

// NewEngine creates a new game engine for a structurally sound level
func NewEngine(level *grid.Level, mode string, opts ...Option) (*GameEngine, error) {
	if level == nil {
		return nil, fmt.Errorf("level cannot be nil")
	}
	if err := level.CheckStructure(); err != nil {
		return nil, fmt.Errorf("level %s is not playable: %w", level.ID(), err)
	}

	e := &GameEngine{
		state:   NewGameState(level, mode),
		history: []HistoryEntry{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns a copy of the current game state.
func (e *GameEngine) State() *GameState {
	return e.state.Clone()
}

// Snapshot returns the serialisable view of the current state
func (e *GameEngine) Snapshot() Snapshot {
	return e.state.Snapshot(e.now())
}

// Phase returns the lifecycle stage of the attempt
func (e *GameEngine) Phase() Phase {
	return e.state.Phase()
}

// Level returns the level being played
func (e *GameEngine) Level() *grid.Level {
	return e.state.Level
}

// Mode returns the play mode
func (e *GameEngine) Mode() string {
	return e.state.Mode
}

// Elapsed returns the time spent on the attempt, absent before the first move
func (e *GameEngine) Elapsed() (time.Duration, bool) {
	return e.state.Elapsed(e.now())
}

// TryMove attempts to extend the path to target
func (e *GameEngine) TryMove(target grid.Coord) MoveResult {
	result := e.tryMove(target)
	e.record(ActionMove, &target, result.Success, result.Reason)
	return result
}

func (e *GameEngine) tryMove(target grid.Coord) MoveResult {
	if e.state.Phase() == Complete {
		return MoveResult{Reason: ReasonGameComplete}
	}

	check := IsValidMove(e.state, target)
	if !check.Valid {
		return MoveResult{Reason: check.Reason}
	}

	next := applyMove(e.state, target)
	now := e.now()
	if next.StartedAt == nil {
		next.StartedAt = &now
	}
	win := CheckWinCondition(next).Win
	if win {
		next.EndedAt = &now
	}
	e.state = next

	return MoveResult{Success: true, IsWin: win}
}

// Undo removes the last cell of the path. It fails on an empty path and on a
// completed attempt.
func (e *GameEngine) Undo() bool {
	ok := len(e.state.Path) > 0 && e.state.Phase() != Complete
	if ok {
		e.state = undoMove(e.state)
	}
	e.record(ActionUndo, nil, ok, ReasonNone)
	return ok
}

// Reset returns to the initial state for the same level and mode.
func (e *GameEngine) Reset() *GameState {
	e.state = NewGameState(e.state.Level, e.state.Mode)
	e.record(ActionReset, nil, true, ReasonNone)
	return e.state.Clone()
}

// Restore rebuilds the state from a persisted path. Every step is replayed
// through the move rules so a tampered path is rejected.
func (e *GameEngine) Restore(path []grid.Coord, startedAt, endedAt *time.Time) error {
	state := NewGameState(e.state.Level, e.state.Mode)
	for i, c := range path {
		if check := IsValidMove(state, c); !check.Valid {
			return fmt.Errorf("restore step %d (%d,%d): %w", i+1, c.Q, c.R, check.Reason)
		}
		state = applyMove(state, c)
	}
	if len(path) > 0 {
		state.StartedAt = startedAt
	}
	if CheckWinCondition(state).Win {
		state.EndedAt = endedAt
		if state.EndedAt == nil {
			now := e.now()
			state.EndedAt = &now
		}
	}
	e.state = state
	return nil
}

// PossibleMoves returns every target TryMove would currently accept
func (e *GameEngine) PossibleMoves() []grid.Coord {
	if e.state.Phase() == Complete {
		return nil
	}
	var candidates []grid.Coord
	if head, ok := e.state.Head(); ok {
		candidates = e.state.Level.Neighbors(head)
	} else if start, ok := e.state.Level.CheckpointAt(1); ok {
		candidates = []grid.Coord{start}
	}

	var possible []grid.Coord
	for _, c := range candidates {
		if IsValidMove(e.state, c).Valid {
			possible = append(possible, c)
		}
	}
	return possible
}

// BulkMove applies targets in order, stopping at the first rejected move or
// when the level is complete.
func (e *GameEngine) BulkMove(targets []grid.Coord) []MoveResult {
	results := make([]MoveResult, 0, len(targets))
	for _, target := range targets {
		if e.state.Phase() == Complete {
			break
		}
		result := e.TryMove(target)
		results = append(results, result)
		if !result.Success {
			break
		}
	}
	return results
}

// History returns the complete operation history
func (e *GameEngine) History() []HistoryEntry {
	return e.history
}

// LastMove returns the last recorded operation, or nil if there is none
func (e *GameEngine) LastMove() *HistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// SetHistory replaces the history (used for persistence loading)
func (e *GameEngine) SetHistory(history []HistoryEntry) {
	e.history = history
}

func (e *GameEngine) record(action HistoryAction, target *grid.Coord, success bool, reason Reason) {
	e.history = append(e.history, HistoryEntry{
		Action:     action,
		Target:     target,
		Success:    success,
		Reason:     reason,
		PathLength: len(e.state.Path),
		Timestamp:  e.now().Unix(),
		MoveNumber: len(e.history) + 1,
	})
}
