package generator

import (
	"errors"
	"fmt"
)

// Board edge sizes the generator accepts.
const (
	MinEdgeSize = 2
	MaxEdgeSize = 5
)

var (
	ErrInvalidSize       = errors.New("board edge size out of range")
	ErrInvalidOptions    = errors.New("invalid generator options")
	ErrAttemptsExhausted = errors.New("could not generate a level within the attempt limit")
)

// Options controls level generation.
type Options struct {
	EdgeSize int `json:"size" yaml:"size"`
	// Checkpoints is the number of checkpoints to place, at least 2.
	Checkpoints int `json:"checkpoints" yaml:"checkpoints"`
	// WallDensity is the fraction of edges off the solution path that get a
	// decorative wall before uniqueness is enforced.
	WallDensity float64 `json:"wall_density" yaml:"wall_density"`
	MaxAttempts int     `json:"max_attempts" yaml:"max_attempts"`
	// Seed makes generation reproducible. 0 picks a seed from the clock.
	Seed          int64 `json:"seed" yaml:"seed"`
	RequireUnique bool  `json:"require_unique" yaml:"require_unique"`
	// NodeBudget caps each solver run. 0 means unbounded.
	NodeBudget int64 `json:"node_budget" yaml:"node_budget"`
}

// DefaultOptions returns the options used when a caller only picks a size.
// Larger boards get more attempts since more of them run out of budget.
func DefaultOptions(size int) Options {
	return Options{
		EdgeSize:      size,
		Checkpoints:   max(2, size),
		WallDensity:   0.15,
		MaxAttempts:   max(20, 10*size),
		RequireUnique: true,
		NodeBudget:    2_000_000,
	}
}

// CellCount returns the number of cells on a board of the given edge size.
func CellCount(size int) int {
	if size < 1 {
		return 0
	}
	return 3*size*(size-1) + 1
}

func (o Options) validate() error {
	if o.EdgeSize < MinEdgeSize || o.EdgeSize > MaxEdgeSize {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidSize, o.EdgeSize, MinEdgeSize, MaxEdgeSize)
	}
	if o.Checkpoints < 2 || o.Checkpoints > CellCount(o.EdgeSize) {
		return fmt.Errorf("%w: %d checkpoints on %d cells", ErrInvalidOptions, o.Checkpoints, CellCount(o.EdgeSize))
	}
	if o.WallDensity < 0 || o.WallDensity > 1 {
		return fmt.Errorf("%w: wall density %.2f not in [0,1]", ErrInvalidOptions, o.WallDensity)
	}
	if o.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be positive", ErrInvalidOptions)
	}
	return nil
}

// withDefaults fills zero values from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions(o.EdgeSize)
	if o.Checkpoints == 0 {
		o.Checkpoints = def.Checkpoints
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = def.MaxAttempts
	}
	return o
}

// boardRadius converts an edge size to the radius of its disk.
func boardRadius(size int) int { return size - 1 }
