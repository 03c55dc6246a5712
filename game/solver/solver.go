package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/grid"
)

// MinCountLimit is the smallest useful cap for CountSolutions: two solutions
// are enough to disprove uniqueness.
const MinCountLimit = 2

// Validate reports whether level has a solution and returns the first one in
// search order as a witness. Structural problems are reported as
// OutcomeInvalid without searching.
func Validate(ctx context.Context, level *grid.Level, opts Options) Result {
	return solve(ctx, level, 1, opts)
}

// CountSolutions continues the search past the first solution and stops once
// limit solutions are found. HasUniqueSolution is only set when the search
// space was exhausted with exactly one solution.
func CountSolutions(ctx context.Context, level *grid.Level, limit int, opts Options) Result {
	res := solve(ctx, level, max(limit, MinCountLimit), opts)
	res.counted = true
	return res
}

// FindSolution returns a witness solution or the reason none was found.
func FindSolution(ctx context.Context, level *grid.Level, opts Options) ([]grid.Coord, error) {
	res := Validate(ctx, level, opts)
	if res.Outcome != OutcomeSolvable {
		return nil, res.Err
	}
	return res.Solution, nil
}

func solve(ctx context.Context, level *grid.Level, limit int, opts Options) Result {
	start := time.Now()
	if level == nil {
		return Result{Outcome: OutcomeInvalid, Err: errors.New("level cannot be nil")}
	}
	if err := level.CheckStructure(); err != nil {
		return Result{Outcome: OutcomeInvalid, Err: err}
	}

	s := newSearch(level, limit, opts.NodeBudget)
	exhausted := s.run(ctx)

	res := Result{
		Solutions:     s.solutions,
		SolutionCount: len(s.solutions),
		Exhausted:     exhausted,
		Nodes:         s.nodes,
		Duration:      time.Since(start),
	}
	if len(s.solutions) > 0 {
		res.Solution = s.solutions[0]
	}

	switch {
	case len(s.solutions) > 0:
		res.Outcome = OutcomeSolvable
		res.CountCapped = !exhausted
		res.HasUniqueSolution = exhausted && len(s.solutions) == 1
	case exhausted:
		res.Outcome = OutcomeUnsolvable
		res.Err = ErrUnsolvable
	default:
		res.Outcome = OutcomeInconclusive
		res.Err = budgetError(ctx, s.nodes)
	}
	return res
}

func budgetError(ctx context.Context, nodes int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w after %d nodes: %w", ErrBudgetExceeded, nodes, err)
	}
	return fmt.Errorf("%w after %d nodes", ErrBudgetExceeded, nodes)
}

// VerifyPath checks that path is a complete solution of level by replaying it
// through the engine's move rules.
func VerifyPath(level *grid.Level, path []grid.Coord) error {
	e, err := engine.NewEngine(level, engine.ModePractice)
	if err != nil {
		return err
	}
	if err := e.Restore(path, nil, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	if win := engine.CheckWinCondition(e.State()); !win.Win {
		return fmt.Errorf("%w: %w", ErrInvalidPath, win.Reason)
	}
	return nil
}
