package solver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/grid"
)

func at(q, r int) grid.Coord { return grid.Coord{Q: q, R: r} }

func newLevel(t *testing.T, cells []grid.Cell, walls ...grid.Edge) *grid.Level {
	t.Helper()
	l, err := grid.NewLevel(0, cells, walls, 0)
	require.NoError(t, err)
	return l
}

// rhombus is the 4-cell level with checkpoints on opposite corners.
func rhombus(t *testing.T, walls ...grid.Edge) *grid.Level {
	return newLevel(t, []grid.Cell{
		{Coord: at(0, 0), Checkpoint: 1},
		{Coord: at(1, 0)},
		{Coord: at(0, 1)},
		{Coord: at(1, 1), Checkpoint: 2},
	}, walls...)
}

// line is a straight row of cells with checkpoints given by position.
func line(t *testing.T, checkpoints []int, walls ...grid.Edge) *grid.Level {
	cells := make([]grid.Cell, len(checkpoints))
	for i, cp := range checkpoints {
		cells[i] = grid.Cell{Coord: at(i, 0), Checkpoint: cp}
	}
	return newLevel(t, cells, walls...)
}

// snake returns the row-by-row serpentine through Disk(radius).
func snake(radius int) []grid.Coord {
	var out []grid.Coord
	for r := -radius; r <= radius; r++ {
		lo, hi := max(-radius, -r-radius), min(radius, -r+radius)
		row := make([]grid.Coord, 0, hi-lo+1)
		for q := lo; q <= hi; q++ {
			row = append(row, at(q, r))
		}
		if (r+radius)%2 == 1 {
			for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
				row[i], row[j] = row[j], row[i]
			}
		}
		out = append(out, row...)
	}
	return out
}

// snakeLevel places checkpoints at the given positions of the serpentine.
func snakeLevel(t *testing.T, radius int, positions ...int) (*grid.Level, []grid.Coord) {
	t.Helper()
	path := snake(radius)
	cps := make(map[grid.Coord]int)
	for i, p := range positions {
		cps[path[p]] = i + 1
	}
	var cells []grid.Cell
	for _, c := range grid.Disk(radius) {
		cells = append(cells, grid.Cell{Coord: c, Checkpoint: cps[c]})
	}
	l, err := grid.NewLevel(radius+1, cells, nil, 0)
	require.NoError(t, err)
	return l, path
}

func assertWitness(t *testing.T, level *grid.Level, path []grid.Coord) {
	t.Helper()
	require.Len(t, path, level.CellCount())

	start, ok := level.CheckpointAt(1)
	require.True(t, ok)
	assert.Equal(t, start, path[0], "witness must start on checkpoint 1")

	seen := make(map[grid.Coord]bool)
	next := 1
	for i, c := range path {
		assert.False(t, seen[c], "cell %v visited twice", c)
		seen[c] = true
		if i > 0 {
			assert.True(t, engine.IsAdjacent(path[i-1], c), "%v -> %v not adjacent", path[i-1], c)
			assert.True(t, engine.IsPassable(level, path[i-1], c), "%v -> %v crosses a wall", path[i-1], c)
		}
		if cell, _ := level.Cell(c); cell.Checkpoint != 0 {
			assert.Equal(t, next, cell.Checkpoint, "checkpoint order")
			next++
		}
	}
	assert.NoError(t, VerifyPath(level, path))
}

func TestValidate_Rhombus(t *testing.T) {
	level := rhombus(t)
	res := Validate(context.Background(), level, Options{})

	require.Equal(t, OutcomeSolvable, res.Outcome)
	require.NoError(t, res.Err)
	assert.Equal(t, []grid.Coord{at(0, 0), at(1, 0), at(0, 1), at(1, 1)}, res.Solution)
	assertWitness(t, level, res.Solution)
}

func TestValidate_WallsSplitLevel(t *testing.T) {
	// cut {(0,0),(1,0)} off from {(0,1),(1,1)}
	level := rhombus(t,
		grid.NewEdge(at(0, 0), at(0, 1)),
		grid.NewEdge(at(1, 0), at(0, 1)),
		grid.NewEdge(at(1, 0), at(1, 1)),
	)
	res := Validate(context.Background(), level, Options{})
	assert.Equal(t, OutcomeUnsolvable, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrUnsolvable)
	assert.True(t, res.Exhausted)
	assert.Nil(t, res.Solution)

	walledLine := line(t, []int{1, 0, 0, 2}, grid.NewEdge(at(1, 0), at(2, 0)))
	assert.Equal(t, OutcomeUnsolvable, Validate(context.Background(), walledLine, Options{}).Outcome)
}

func TestValidate_CheckpointBetween(t *testing.T) {
	// checkpoint 3 sits between 1 and 2 on the only route
	level := line(t, []int{1, 3, 2})
	res := Validate(context.Background(), level, Options{})
	assert.Equal(t, OutcomeUnsolvable, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrUnsolvable)
}

func TestValidate_WitnessProperties(t *testing.T) {
	tests := []struct {
		name      string
		radius    int
		positions []int
	}{
		{"disk 1 two checkpoints", 1, []int{0, 6}},
		{"disk 1 three checkpoints", 1, []int{0, 3, 6}},
		{"disk 2 ends", 2, []int{0, 18}},
		{"disk 2 spread", 2, []int{0, 5, 11, 18}},
		{"disk 2 final checkpoint mid-path", 2, []int{0, 4, 9}},
		{"disk 3", 3, []int{0, 18, 36}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, path := snakeLevel(t, tt.radius, tt.positions...)
			require.NoError(t, VerifyPath(level, path))

			res := Validate(context.Background(), level, Options{NodeBudget: 5_000_000})
			require.Equal(t, OutcomeSolvable, res.Outcome, "err: %v", res.Err)
			assertWitness(t, level, res.Solution)
			assert.Positive(t, res.Nodes)
		})
	}
}

func TestValidate_Deterministic(t *testing.T) {
	level, _ := snakeLevel(t, 2, 0, 7, 18)
	first := Validate(context.Background(), level, Options{})
	second := Validate(context.Background(), level, Options{})
	assert.Equal(t, first.Solution, second.Solution)
	assert.Equal(t, first.Nodes, second.Nodes)
}

func TestValidate_StructuralErrors(t *testing.T) {
	empty, err := grid.NewLevel(0, nil, nil, 0)
	require.NoError(t, err)
	mismatch, err := grid.NewLevel(0, []grid.Cell{
		{Coord: at(0, 0), Checkpoint: 1}, {Coord: at(1, 0), Checkpoint: 2},
	}, nil, 3)
	require.NoError(t, err)

	tests := []struct {
		name  string
		level *grid.Level
		want  error
	}{
		{"empty", empty, grid.ErrEmptyLevel},
		{"one checkpoint", line(t, []int{1, 0, 0}), grid.ErrTooFewCheckpoints},
		{"gap", line(t, []int{1, 0, 3}), grid.ErrMissingCheckpoint},
		{"count mismatch", mismatch, grid.ErrCheckpointCountMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(context.Background(), tt.level, Options{})
			assert.Equal(t, OutcomeInvalid, res.Outcome)
			assert.ErrorIs(t, res.Err, tt.want)
			assert.Zero(t, res.Nodes, "no search on structural errors")
		})
	}

	res := Validate(context.Background(), nil, Options{})
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Error(t, res.Err)
}

func TestCountSolutions(t *testing.T) {
	ctx := context.Background()

	all := CountSolutions(ctx, rhombus(t), 10, Options{})
	assert.Equal(t, 4, all.SolutionCount)
	assert.True(t, all.Exhausted)
	assert.False(t, all.CountCapped)
	assert.False(t, all.HasUniqueSolution)
	assert.Len(t, all.Solutions, 4)
	for _, s := range all.Solutions {
		assertWitness(t, rhombus(t), s)
	}

	capped := CountSolutions(ctx, rhombus(t), 2, Options{})
	assert.Equal(t, 2, capped.SolutionCount)
	assert.True(t, capped.CountCapped)
	assert.False(t, capped.HasUniqueSolution)

	// limits below two are raised
	low := CountSolutions(ctx, rhombus(t), 1, Options{})
	assert.Equal(t, 2, low.SolutionCount)

	unique := CountSolutions(ctx, line(t, []int{1, 0, 0, 2}), 2, Options{})
	assert.Equal(t, OutcomeSolvable, unique.Outcome)
	assert.Equal(t, 1, unique.SolutionCount)
	assert.True(t, unique.Exhausted)
	assert.True(t, unique.HasUniqueSolution)

	none := CountSolutions(ctx, line(t, []int{1, 3, 2}), 2, Options{})
	assert.Equal(t, OutcomeUnsolvable, none.Outcome)
	assert.Zero(t, none.SolutionCount)
	assert.False(t, none.HasUniqueSolution)
}

func TestCountSolutions_WallsForceUniqueness(t *testing.T) {
	// walling (0,0)-(0,1) and (1,0)-(1,1) leaves only 1,(1,0),(0,1),2
	level := rhombus(t, grid.NewEdge(at(0, 0), at(0, 1)), grid.NewEdge(at(1, 0), at(1, 1)))
	res := CountSolutions(context.Background(), level, 2, Options{})
	require.True(t, res.HasUniqueSolution)
	assert.Equal(t, []grid.Coord{at(0, 0), at(1, 0), at(0, 1), at(1, 1)}, res.Solution)
}

func TestBudget(t *testing.T) {
	level, _ := snakeLevel(t, 2, 0, 18)

	res := Validate(context.Background(), level, Options{NodeBudget: 1})
	assert.Equal(t, OutcomeInconclusive, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrBudgetExceeded)
	assert.False(t, res.Exhausted)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	big, _ := snakeLevel(t, 3, 0, 36)
	counted := CountSolutions(ctx, big, 1_000_000, Options{})
	assert.False(t, counted.Exhausted)
	assert.False(t, counted.HasUniqueSolution)
	if counted.Outcome == OutcomeInconclusive {
		assert.ErrorIs(t, counted.Err, context.Canceled)
	} else {
		assert.True(t, counted.CountCapped)
	}
}

func TestVerifyPath(t *testing.T) {
	level := rhombus(t, grid.NewEdge(at(1, 0), at(0, 1)))

	assert.NoError(t, VerifyPath(level, []grid.Coord{at(0, 0), at(1, 0), at(1, 1), at(0, 1)}))

	err := VerifyPath(level, []grid.Coord{at(0, 0), at(1, 0), at(0, 1), at(1, 1)})
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, err, engine.ReasonWallBlocked)

	err = VerifyPath(level, []grid.Coord{at(0, 0), at(1, 0)})
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, err, engine.ReasonPathIncomplete)

	err = VerifyPath(level, []grid.Coord{at(1, 1)})
	assert.ErrorIs(t, err, engine.ReasonNotStartCell)
}

func TestResponse(t *testing.T) {
	ctx := context.Background()

	data, err := json.Marshal(Validate(ctx, rhombus(t), Options{}).Response())
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["solvable"])
	assert.Len(t, decoded["solution"], 4)
	assert.NotContains(t, decoded, "solutionCount")
	assert.NotContains(t, decoded, "hasUniqueSolution")
	assert.NotContains(t, decoded, "error")

	resp := CountSolutions(ctx, line(t, []int{1, 0, 2}), 2, Options{}).Response()
	require.NotNil(t, resp.SolutionCount)
	require.NotNil(t, resp.HasUniqueSolution)
	assert.Equal(t, 1, *resp.SolutionCount)
	assert.True(t, *resp.HasUniqueSolution)

	resp = Validate(ctx, line(t, []int{1, 3, 2}), Options{}).Response()
	assert.False(t, resp.Solvable)
	assert.Equal(t, OutcomeUnsolvable, resp.Outcome)
	assert.Equal(t, ErrUnsolvable.Error(), resp.Error)
}
