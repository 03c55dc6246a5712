package grid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Cell is a level cell. Checkpoint 0 means the cell carries no checkpoint.
type Cell struct {
	Coord
	Checkpoint int `json:"checkpoint,omitempty"`
}

// Edge is an unordered pair of adjacent coordinates, stored in canonical order
// so that NewEdge(a, b) == NewEdge(b, a).
type Edge struct {
	A Coord
	B Coord
}

// NewEdge builds the canonical edge between a and b.
func NewEdge(a, b Coord) Edge {
	if b.Less(a) {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

func (e Edge) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", e.A.Q, e.A.R, e.B.Q, e.B.R)
}

func (e Edge) less(o Edge) bool {
	if e.A != o.A {
		return e.A.Less(o.A)
	}
	return e.B.Less(o.B)
}

// Level is an immutable puzzle definition: cells, walls and checkpoints.
type Level struct {
	size            int
	cells           map[Coord]Cell
	order           []Coord
	walls           map[Edge]struct{}
	wallOrder       []Edge
	checkpointCount int
	checkpoints     map[int]Coord
	id              string
}

// NewLevel validates the shape of a level and builds it.
//
// checkpointCount 0 derives the count from the highest checkpoint present.
// Levels with checkpoint gaps or too few checkpoints are still built; use
// CheckStructure to detect them.
func NewLevel(size int, cells []Cell, walls []Edge, checkpointCount int) (*Level, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	l := &Level{
		size:        size,
		cells:       make(map[Coord]Cell, len(cells)),
		order:       make([]Coord, 0, len(cells)),
		walls:       make(map[Edge]struct{}, len(walls)),
		wallOrder:   make([]Edge, 0, len(walls)),
		checkpoints: make(map[int]Coord),
	}

	highest := 0
	for _, c := range cells {
		if _, dup := l.cells[c.Coord]; dup {
			return nil, fmt.Errorf("%w: (%d,%d)", ErrDuplicateCell, c.Q, c.R)
		}
		if c.Checkpoint < 0 {
			return nil, fmt.Errorf("%w: (%d,%d) has %d", ErrInvalidCheckpoint, c.Q, c.R, c.Checkpoint)
		}
		l.cells[c.Coord] = c
		l.order = append(l.order, c.Coord)
		if c.Checkpoint > 0 {
			highest = max(highest, c.Checkpoint)
			// first cell wins; duplicates are reported by CheckStructure
			if _, seen := l.checkpoints[c.Checkpoint]; !seen {
				l.checkpoints[c.Checkpoint] = c.Coord
			}
		}
	}
	sort.Slice(l.order, func(i, j int) bool { return l.order[i].Less(l.order[j]) })

	for _, w := range walls {
		e := NewEdge(w.A, w.B)
		if !IsAdjacent(e.A, e.B) {
			return nil, fmt.Errorf("%w: %s", ErrWallNotAdjacent, e)
		}
		if !l.Has(e.A) || !l.Has(e.B) {
			return nil, fmt.Errorf("%w: %s", ErrWallOutsideLevel, e)
		}
		if _, dup := l.walls[e]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateWall, e)
		}
		l.walls[e] = struct{}{}
		l.wallOrder = append(l.wallOrder, e)
	}
	sort.Slice(l.wallOrder, func(i, j int) bool { return l.wallOrder[i].less(l.wallOrder[j]) })

	if checkpointCount == 0 {
		checkpointCount = highest
	}
	l.checkpointCount = checkpointCount
	l.id = l.computeID()
	return l, nil
}

// WithWalls returns a copy of l with extra walls added.
func (l *Level) WithWalls(extra ...Edge) (*Level, error) {
	walls := make([]Edge, 0, len(l.wallOrder)+len(extra))
	walls = append(walls, l.wallOrder...)
	walls = append(walls, extra...)
	return NewLevel(l.size, l.Cells(), walls, l.checkpointCount)
}

// Size returns the board edge size the level was built for (0 for free-form levels).
func (l *Level) Size() int { return l.size }

// CellCount returns the number of cells.
func (l *Level) CellCount() int { return len(l.order) }

// Cells returns the cells in canonical order.
func (l *Level) Cells() []Cell {
	out := make([]Cell, len(l.order))
	for i, c := range l.order {
		out[i] = l.cells[c]
	}
	return out
}

// Coords returns the cell coordinates in canonical order.
func (l *Level) Coords() []Coord {
	out := make([]Coord, len(l.order))
	copy(out, l.order)
	return out
}

// Cell resolves a coordinate to its cell definition.
func (l *Level) Cell(c Coord) (Cell, bool) {
	cell, ok := l.cells[c]
	return cell, ok
}

// Has reports whether c is a cell of the level.
func (l *Level) Has(c Coord) bool {
	_, ok := l.cells[c]
	return ok
}

// Walls returns the walls in canonical order.
func (l *Level) Walls() []Edge {
	out := make([]Edge, len(l.wallOrder))
	copy(out, l.wallOrder)
	return out
}

// WallCount returns the number of walls.
func (l *Level) WallCount() int { return len(l.wallOrder) }

// HasWall reports whether a wall separates a and b.
func (l *Level) HasWall(a, b Coord) bool {
	_, ok := l.walls[NewEdge(a, b)]
	return ok
}

// IsPassable reports whether no wall blocks the edge between from and to.
func (l *Level) IsPassable(from, to Coord) bool {
	return !l.HasWall(from, to)
}

// Neighbors returns the level cells reachable in one step from c, in canonical
// direction order.
func (l *Level) Neighbors(c Coord) []Coord {
	out := make([]Coord, 0, 6)
	for _, n := range c.Neighbors() {
		if l.Has(n) && l.IsPassable(c, n) {
			out = append(out, n)
		}
	}
	return out
}

// CheckpointCount returns N, the number of checkpoints the level declares.
func (l *Level) CheckpointCount() int { return l.checkpointCount }

// CheckpointAt returns the cell carrying checkpoint n.
func (l *Level) CheckpointAt(n int) (Coord, bool) {
	c, ok := l.checkpoints[n]
	return c, ok
}

// ID returns the identity hash of the level content.
func (l *Level) ID() string { return l.id }

// CheckStructure reports the first structural problem that makes the level
// unsolvable before any search, or nil.
func (l *Level) CheckStructure() error {
	if len(l.order) == 0 {
		return &StructureError{Err: ErrEmptyLevel}
	}

	counts := make(map[int]int)
	highest := 0
	for _, c := range l.order {
		cp := l.cells[c].Checkpoint
		if cp == 0 {
			continue
		}
		counts[cp]++
		highest = max(highest, cp)
	}
	if len(counts) < 2 {
		return &StructureError{Err: ErrTooFewCheckpoints, Detail: fmt.Sprintf("found %d", len(counts))}
	}
	for n := 1; n <= highest; n++ {
		switch counts[n] {
		case 0:
			return &StructureError{Err: ErrMissingCheckpoint, Detail: fmt.Sprintf("checkpoint %d is missing", n)}
		case 1:
		default:
			return &StructureError{Err: ErrDuplicateCheckpoint, Detail: fmt.Sprintf("checkpoint %d appears %d times", n, counts[n])}
		}
	}
	if l.checkpointCount != highest {
		return &StructureError{
			Err:    ErrCheckpointCountMismatch,
			Detail: fmt.Sprintf("declared %d, cells carry 1..%d", l.checkpointCount, highest),
		}
	}
	return nil
}

// computeID hashes a canonical rendering of the level content.
func (l *Level) computeID() string {
	var b strings.Builder
	fmt.Fprintf(&b, "hexbuzz/level/v1\nsize=%d\n", l.size)
	for _, c := range l.order {
		fmt.Fprintf(&b, "c %d %d %d\n", c.Q, c.R, l.cells[c].Checkpoint)
	}
	for _, w := range l.wallOrder {
		fmt.Fprintf(&b, "w %d %d %d %d\n", w.A.Q, w.A.R, w.B.Q, w.B.R)
	}
	fmt.Fprintf(&b, "n=%d\n", l.checkpointCount)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:IDBytes])
}

// IDBytes is the number of hash bytes kept in a level ID.
const IDBytes = 8
