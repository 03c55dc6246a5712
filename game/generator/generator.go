package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/solver"
)

// Stats describes how a level was produced.
type Stats struct {
	WallCount   int           `json:"wallCount"`
	Attempts    int           `json:"attempts"`
	Nodes       int64         `json:"nodes"`
	Checkpoints int           `json:"checkpoints"`
	Unique      bool          `json:"unique"`
	Seed        int64         `json:"seed"`
	Duration    time.Duration `json:"-"`
}

// Result is a generated level with its witness solution.
type Result struct {
	Level    *grid.Level
	Solution []grid.Coord
	Stats    Stats
}

// Generate builds a level for opts.EdgeSize. With RequireUnique the level has
// exactly one solution, proven by the solver. A broken level is never
// returned: when every attempt fails the error wraps ErrAttemptsExhausted and
// the last failure.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var lastErr error
	var nodes int64
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}

		res, used, err := generateOnce(ctx, rng, opts)
		nodes += used
		if err != nil {
			lastErr = err
			continue
		}
		res.Stats.Attempts = attempt
		res.Stats.Nodes = nodes
		res.Stats.Seed = seed
		res.Stats.Duration = time.Since(start)
		return res, nil
	}
	return nil, fmt.Errorf("%w (%d attempts, size %d): %w", ErrAttemptsExhausted, opts.MaxAttempts, opts.EdgeSize, lastErr)
}

// generateOnce runs a single attempt and reports the solver nodes it spent.
func generateOnce(ctx context.Context, rng *rand.Rand, opts Options) (*Result, int64, error) {
	radius := boardRadius(opts.EdgeSize)
	witness := buildWitness(rng, radius)

	checkpoints := make(map[grid.Coord]int, opts.Checkpoints)
	for i, pos := range placeCheckpoints(rng, len(witness), opts.Checkpoints) {
		checkpoints[witness[pos]] = i + 1
	}
	cells := make([]grid.Cell, 0, len(witness))
	for _, c := range grid.Disk(radius) {
		cells = append(cells, grid.Cell{Coord: c, Checkpoint: checkpoints[c]})
	}
	level, err := grid.NewLevel(opts.EdgeSize, cells, nil, opts.Checkpoints)
	if err != nil {
		return nil, 0, fmt.Errorf("build level: %w", err)
	}

	used := pathEdges(witness)
	var free []grid.Edge
	for _, e := range boardEdges(level.Coords()) {
		if !used[e] {
			free = append(free, e)
		}
	}

	level, err = addDecorativeWalls(rng, level, witness, free, opts.WallDensity)
	if err != nil {
		return nil, 0, err
	}

	var nodes int64
	unique := false
	if opts.RequireUnique {
		level, nodes, err = enforceUniqueness(ctx, level, witness, used, opts.NodeBudget)
		if err != nil {
			return nil, nodes, err
		}
		unique = true
	} else {
		if err := solver.VerifyPath(level, witness); err != nil {
			return nil, 0, fmt.Errorf("witness rejected: %w", err)
		}
		// uniqueness is reported, not enforced; an inconclusive count reads as not unique
		res := solver.CountSolutions(ctx, level, solver.MinCountLimit, solver.Options{NodeBudget: opts.NodeBudget})
		nodes = res.Nodes
		unique = res.HasUniqueSolution
	}

	return &Result{
		Level:    level,
		Solution: witness,
		Stats: Stats{
			WallCount:   level.WallCount(),
			Checkpoints: level.CheckpointCount(),
			Unique:      unique,
		},
	}, nodes, nil
}

// addDecorativeWalls walls a random share of the edges off the witness path.
// Every wall is kept only while the witness still solves the level.
func addDecorativeWalls(rng *rand.Rand, level *grid.Level, witness []grid.Coord, free []grid.Edge, density float64) (*grid.Level, error) {
	target := int(density*float64(len(free)) + 0.5)
	if target == 0 {
		return level, nil
	}

	candidates := make([]grid.Edge, len(free))
	copy(candidates, free)
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	added := 0
	for _, e := range candidates {
		if added == target {
			break
		}
		next, err := level.WithWalls(e)
		if err != nil {
			return nil, fmt.Errorf("add wall %s: %w", e, err)
		}
		if solver.VerifyPath(next, witness) != nil {
			continue
		}
		level = next
		added++
	}
	return level, nil
}

// enforceUniqueness walls off alternative solutions until the solver proves
// the witness is the only one.
func enforceUniqueness(ctx context.Context, level *grid.Level, witness []grid.Coord, used map[grid.Edge]bool, budget int64) (*grid.Level, int64, error) {
	var nodes int64
	for {
		res := solver.CountSolutions(ctx, level, solver.MinCountLimit, solver.Options{NodeBudget: budget})
		nodes += res.Nodes

		switch res.Outcome {
		case solver.OutcomeSolvable:
		case solver.OutcomeInconclusive:
			return nil, nodes, fmt.Errorf("uniqueness check: %w", res.Err)
		default:
			return nil, nodes, fmt.Errorf("witness level reported %s: %w", res.Outcome, res.Err)
		}
		if res.HasUniqueSolution {
			if !samePath(res.Solution, witness) {
				return nil, nodes, errors.New("unique solution differs from witness")
			}
			return level, nodes, nil
		}

		alt := alternative(res.Solutions, witness)
		if alt == nil {
			// only the witness was found before the budget ran out
			return nil, nodes, fmt.Errorf("uniqueness check: %w", solver.ErrBudgetExceeded)
		}
		wall, ok := divergence(alt, used)
		if !ok {
			return nil, nodes, errors.New("alternative solution uses only witness edges")
		}

		next, err := level.WithWalls(wall)
		if err != nil {
			return nil, nodes, fmt.Errorf("add wall %s: %w", wall, err)
		}
		if err := solver.VerifyPath(next, witness); err != nil {
			return nil, nodes, fmt.Errorf("wall %s broke the witness: %w", wall, err)
		}
		level = next
	}
}

func alternative(solutions [][]grid.Coord, witness []grid.Coord) []grid.Coord {
	for _, s := range solutions {
		if !samePath(s, witness) {
			return s
		}
	}
	return nil
}

// divergence returns the first edge of alt that the witness does not use.
func divergence(alt []grid.Coord, used map[grid.Edge]bool) (grid.Edge, bool) {
	for i := 1; i < len(alt); i++ {
		e := grid.NewEdge(alt[i-1], alt[i])
		if !used[e] {
			return e, true
		}
	}
	return grid.Edge{}, false
}

func samePath(a, b []grid.Coord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
