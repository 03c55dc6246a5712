package grid

import (
	"errors"
	"fmt"
)

// Construction errors. A level carrying one of these is never built.
var (
	ErrDuplicateCell     = errors.New("grid: duplicate cell coordinate")
	ErrInvalidCheckpoint = errors.New("grid: checkpoint must be zero or positive")
	ErrWallNotAdjacent   = errors.New("grid: wall endpoints are not adjacent")
	ErrWallOutsideLevel  = errors.New("grid: wall endpoint is not a level cell")
	ErrDuplicateWall     = errors.New("grid: duplicate wall")
	ErrInvalidSize       = errors.New("grid: size must not be negative")
)

// Structural problems. Levels with these exist, but can never be solved.
var (
	ErrEmptyLevel              = errors.New("level has no cells")
	ErrTooFewCheckpoints       = errors.New("level needs at least 2 checkpoints")
	ErrMissingCheckpoint       = errors.New("checkpoint sequence has a gap")
	ErrDuplicateCheckpoint     = errors.New("checkpoint number used more than once")
	ErrCheckpointCountMismatch = errors.New("checkpoint count does not match cells")
)

// StructureError describes why a level is structurally unsolvable.
type StructureError struct {
	Err    error
	Detail string
}

func (e *StructureError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
}

func (e *StructureError) Unwrap() error { return e.Err }
