package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/solver"
)

// ErrMoveBudget is returned when a strategy runs out of moves
var ErrMoveBudget = errors.New("move budget exhausted")

// Stats describes one run of a strategy
type Stats struct {
	Strategy string
	Moves    int
	Rejected int
	Undos    int
	Won      bool
	Path     []grid.Coord
	Duration time.Duration
}

// Strategy plays the bound session of a client. The session path must be
// empty when Play is called.
type Strategy interface {
	Name() string
	Play(ctx context.Context, c *Client, level *grid.Level) (*Stats, error)
}

// SolveStrategy finds a solution locally and replays it through the API
type SolveStrategy struct {
	NodeBudget int64
	// Delay pauses between moves so viewers can follow along.
	Delay time.Duration
	// Bulk sends the whole solution in one request.
	Bulk bool
}

func (s *SolveStrategy) Name() string { return "solve" }

func (s *SolveStrategy) Play(ctx context.Context, c *Client, level *grid.Level) (*Stats, error) {
	start := time.Now()
	stats := &Stats{Strategy: s.Name()}

	solution, err := solver.FindSolution(ctx, level, solver.Options{NodeBudget: s.NodeBudget})
	if err != nil {
		return stats, fmt.Errorf("no solution to replay: %w", err)
	}

	if s.Bulk {
		res, err := c.BulkMove(ctx, solution)
		if err != nil {
			return stats, err
		}
		stats.Moves = res.MovesExecuted
		stats.Won = res.IsWin
		stats.Path = res.GameState.Path
		if !res.Success {
			stats.Rejected = 1
		}
		stats.Duration = time.Since(start)
		return stats, nil
	}

	for _, cell := range solution {
		res, err := c.Move(ctx, cell)
		if err != nil {
			return stats, err
		}
		stats.Moves++
		stats.Path = res.GameState.Path
		if !res.Success {
			stats.Rejected++
			return stats, fmt.Errorf("server rejected (%d,%d): %s", cell.Q, cell.R, res.Reason)
		}
		if res.IsWin {
			stats.Won = true
			break
		}
		if err := sleep(ctx, s.Delay); err != nil {
			return stats, err
		}
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// ExploreStrategy searches the live session depth first, backtracking with
// undo. Candidates are ordered so that the next checkpoint comes first and
// then the cell with the fewest onward exits.
type ExploreStrategy struct {
	MaxMoves int
	Delay    time.Duration
	Verbose  bool

	level *grid.Level
	stats *Stats
}

func (s *ExploreStrategy) Name() string { return "explore" }

func (s *ExploreStrategy) Play(ctx context.Context, c *Client, level *grid.Level) (*Stats, error) {
	start := time.Now()
	s.level = level
	s.stats = &Stats{Strategy: s.Name()}

	first, ok := level.CheckpointAt(1)
	if !ok {
		return s.stats, fmt.Errorf("level has no first checkpoint")
	}

	won, err := s.visit(ctx, c, first)
	s.stats.Won = won
	s.stats.Duration = time.Since(start)
	return s.stats, err
}

func (s *ExploreStrategy) visit(ctx context.Context, c *Client, target grid.Coord) (bool, error) {
	if s.MaxMoves > 0 && s.stats.Moves >= s.MaxMoves {
		return false, ErrMoveBudget
	}

	res, err := c.Move(ctx, target)
	if err != nil {
		return false, err
	}
	s.stats.Moves++
	if !res.Success {
		s.stats.Rejected++
		return false, nil
	}
	s.stats.Path = res.GameState.Path
	if res.IsWin {
		return true, nil
	}

	if s.Verbose && s.stats.Moves%50 == 0 {
		log.Printf("Moves: %d, path: %d/%d, next checkpoint: %d",
			s.stats.Moves, len(res.GameState.Path), s.level.CellCount(), res.GameState.NextCheckpoint)
	}
	if err := sleep(ctx, s.Delay); err != nil {
		return false, err
	}

	for _, next := range s.order(res.PossibleMoves, res.GameState.Path, res.GameState.NextCheckpoint) {
		won, err := s.visit(ctx, c, next)
		if err != nil || won {
			return won, err
		}
	}

	undo, err := c.Undo(ctx)
	if err != nil {
		return false, err
	}
	if !undo.Success {
		return false, fmt.Errorf("undo failed at (%d,%d): %s", target.Q, target.R, undo.Message)
	}
	s.stats.Undos++
	s.stats.Path = undo.GameState.Path
	return false, nil
}

// order sorts candidates: the next checkpoint first, then fewest exits
func (s *ExploreStrategy) order(candidates, path []grid.Coord, nextCheckpoint int) []grid.Coord {
	visited := make(map[grid.Coord]bool, len(path)+1)
	for _, c := range path {
		visited[c] = true
	}
	exits := func(c grid.Coord) int {
		n := 0
		for _, nb := range s.level.Neighbors(c) {
			if !visited[nb] {
				n++
			}
		}
		return n
	}
	isNext := func(c grid.Coord) bool {
		cell, ok := s.level.Cell(c)
		return ok && cell.Checkpoint == nextCheckpoint
	}

	ordered := append([]grid.Coord(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if isNext(a) != isNext(b) {
			return isNext(a)
		}
		if ea, eb := exits(a), exits(b); ea != eb {
			return ea < eb
		}
		return a.Less(b)
	})
	return ordered
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
