package generator

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/solver"
)

func assertHamiltonian(t *testing.T, radius int, path []grid.Coord) {
	t.Helper()
	require.Len(t, path, len(grid.Disk(radius)))
	seen := make(map[grid.Coord]bool)
	for i, c := range path {
		assert.True(t, grid.InBoard(c, radius+1), "%v off the board", c)
		assert.False(t, seen[c], "%v visited twice", c)
		seen[c] = true
		if i > 0 {
			assert.True(t, grid.IsAdjacent(path[i-1], c), "%v -> %v", path[i-1], c)
		}
	}
}

func TestSerpentine(t *testing.T) {
	for radius := 0; radius < MaxEdgeSize; radius++ {
		assertHamiltonian(t, radius, serpentine(radius))
	}
}

func TestTransform(t *testing.T) {
	base := serpentine(3)
	for rot := 0; rot < 6; rot++ {
		for _, mirror := range []bool{false, true} {
			for _, reverse := range []bool{false, true} {
				assertHamiltonian(t, 3, transform(base, rot, mirror, reverse))
			}
		}
	}
	assert.Equal(t, base, transform(base, 6, false, false), "six rotations are the identity")
}

func TestBuildWitness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for size := MinEdgeSize; size <= MaxEdgeSize; size++ {
		assertHamiltonian(t, boardRadius(size), buildWitness(rng, boardRadius(size)))
	}
}

func TestPlaceCheckpoints(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tests := []struct{ length, n int }{
		{7, 2}, {7, 7}, {19, 3}, {37, 4}, {91, 6}, {91, 20},
	}
	for _, tt := range tests {
		pos := placeCheckpoints(rng, tt.length, tt.n)
		require.Len(t, pos, tt.n)
		assert.Equal(t, 0, pos[0])
		assert.Equal(t, tt.length-1, pos[tt.n-1])
		for i := 1; i < len(pos); i++ {
			assert.Greater(t, pos[i], pos[i-1], "positions must increase: %v", pos)
		}
	}
}

func TestBoardEdges(t *testing.T) {
	// a disk of radius 1 has 6 spokes and 6 rim edges
	edges := boardEdges(grid.Disk(1))
	assert.Len(t, edges, 12)
	assert.Len(t, pathEdges(serpentine(1)), 6)
}

func TestGenerate_UniqueLevels(t *testing.T) {
	seeds := map[int]int64{2: 22, 3: 33, 4: 44, 5: 100}
	for size := MinEdgeSize; size <= MaxEdgeSize; size++ {
		if size == MaxEdgeSize && testing.Short() {
			t.Skip("largest board is slow to generate")
		}
		opts := DefaultOptions(size)
		opts.Seed = seeds[size]
		require.NotZero(t, opts.Seed, "no seed for size %d", size)

		res, err := Generate(context.Background(), opts)
		require.NoError(t, err, "size %d", size)

		level := res.Level
		assert.Equal(t, size, level.Size())
		assert.Equal(t, CellCount(size), level.CellCount())
		assert.Equal(t, opts.Checkpoints, level.CheckpointCount())
		require.NoError(t, level.CheckStructure())
		require.NoError(t, solver.VerifyPath(level, res.Solution))

		start, _ := level.CheckpointAt(1)
		end, _ := level.CheckpointAt(level.CheckpointCount())
		assert.Equal(t, start, res.Solution[0])
		assert.Equal(t, end, res.Solution[len(res.Solution)-1])

		valid := solver.Validate(context.Background(), level, solver.Options{})
		assert.True(t, valid.Solvable())

		count := solver.CountSolutions(context.Background(), level, 2, solver.Options{})
		assert.True(t, count.HasUniqueSolution, "size %d", size)
		assert.Equal(t, res.Solution, count.Solution)

		assert.True(t, res.Stats.Unique)
		assert.Equal(t, level.WallCount(), res.Stats.WallCount)
		assert.GreaterOrEqual(t, res.Stats.Attempts, 1)
		assert.Equal(t, opts.Seed, res.Stats.Seed)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	opts := DefaultOptions(3)
	opts.Seed = 42

	first, err := Generate(context.Background(), opts)
	require.NoError(t, err)
	second, err := Generate(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, first.Level.ID(), second.Level.ID())
	assert.Equal(t, first.Solution, second.Solution)
}

func TestGenerate_WithoutUniqueness(t *testing.T) {
	opts := DefaultOptions(3)
	opts.Seed = 5
	opts.RequireUnique = false
	opts.WallDensity = 1

	res, err := Generate(context.Background(), opts)
	require.NoError(t, err)
	require.NoError(t, solver.VerifyPath(res.Level, res.Solution))

	// every edge off the witness is walled, so only the witness edges remain
	edges := len(boardEdges(res.Level.Coords()))
	assert.Equal(t, edges-(res.Level.CellCount()-1), res.Level.WallCount())
	assert.True(t, res.Stats.Unique, "a level walled down to its witness has one solution")
	assert.Positive(t, res.Stats.Nodes)
}

func TestGenerate_ReportsUniquenessWithoutEnforcing(t *testing.T) {
	for seed := int64(1); seed <= 6; seed++ {
		opts := DefaultOptions(3)
		opts.Seed = seed
		opts.RequireUnique = false
		opts.WallDensity = 0

		res, err := Generate(context.Background(), opts)
		require.NoError(t, err)
		assert.Zero(t, res.Level.WallCount())

		count := solver.CountSolutions(context.Background(), res.Level, 2, solver.Options{})
		require.True(t, count.Exhausted || count.CountCapped)
		assert.Equal(t, count.HasUniqueSolution, res.Stats.Unique, "seed %d", seed)
	}
}

func TestDefaultOptions(t *testing.T) {
	for size := MinEdgeSize; size <= MaxEdgeSize; size++ {
		opts := DefaultOptions(size)
		require.NoError(t, opts.validate(), "size %d", size)
		assert.GreaterOrEqual(t, opts.MaxAttempts, 20)
		assert.GreaterOrEqual(t, opts.MaxAttempts, 10*size)
	}
	assert.Greater(t, DefaultOptions(MaxEdgeSize).MaxAttempts, DefaultOptions(MinEdgeSize).MaxAttempts)
}

func TestGenerate_InvalidOptions(t *testing.T) {
	for _, size := range []int{-1, 0, 1, MaxEdgeSize + 1} {
		_, err := Generate(context.Background(), DefaultOptions(size))
		assert.ErrorIs(t, err, ErrInvalidSize, "size %d", size)
	}

	opts := DefaultOptions(2)
	opts.Checkpoints = 8
	_, err := Generate(context.Background(), opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	opts = DefaultOptions(2)
	opts.WallDensity = 1.5
	_, err = Generate(context.Background(), opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestGenerate_AttemptsExhausted(t *testing.T) {
	opts := DefaultOptions(4)
	opts.Seed = 9
	opts.MaxAttempts = 3
	opts.NodeBudget = 1

	res, err := Generate(context.Background(), opts)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.ErrorIs(t, err, solver.ErrBudgetExceeded)
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Generate(ctx, DefaultOptions(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewResponse(t *testing.T) {
	opts := DefaultOptions(2)
	opts.Seed = 1
	res, err := Generate(context.Background(), opts)
	require.NoError(t, err)

	data, err := json.Marshal(NewResponse(res, nil))
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["generated"])
	assert.Equal(t, res.Level.ID(), decoded["levelId"])
	assert.Len(t, decoded["solutionPath"], 7)
	stats := decoded["stats"].(map[string]interface{})
	assert.Contains(t, stats, "wallCount")
	assert.Contains(t, stats, "attempts")

	level, err := grid.ParseLevel(mustJSON(t, decoded["level"]))
	require.NoError(t, err)
	assert.Equal(t, res.Level.ID(), level.ID())

	failed := NewResponse(nil, ErrAttemptsExhausted)
	assert.False(t, failed.Generated)
	assert.Nil(t, failed.Level)
	assert.Equal(t, ErrAttemptsExhausted.Error(), failed.Error)
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
