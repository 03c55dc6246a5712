package grid

// Coord is an axial hex coordinate. The third cube coordinate is derived.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Directions lists the six axial neighbour offsets in canonical rotation.
// Every deterministic walk over a level follows this order.
var Directions = [6]Coord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// S returns the implicit third cube coordinate.
func (c Coord) S() int { return -c.Q - c.R }

// Add returns c+o in axial space.
func (c Coord) Add(o Coord) Coord { return Coord{Q: c.Q + o.Q, R: c.R + o.R} }

// Neighbors returns the six axial neighbours of c in canonical order.
func (c Coord) Neighbors() [6]Coord {
	var out [6]Coord
	for i, d := range Directions {
		out[i] = c.Add(d)
	}
	return out
}

// Less orders coordinates by Q, then R.
func (c Coord) Less(o Coord) bool {
	if c.Q != o.Q {
		return c.Q < o.Q
	}
	return c.R < o.R
}

// IsAdjacent reports whether b is one of a's six axial neighbours.
func IsAdjacent(a, b Coord) bool {
	dq, dr := b.Q-a.Q, b.R-a.R
	switch {
	case dq == 1 && dr == 0, dq == -1 && dr == 0:
		return true
	case dq == 0 && (dr == 1 || dr == -1):
		return true
	case dq == 1 && dr == -1, dq == -1 && dr == 1:
		return true
	}
	return false
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b Coord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	return max(dq, dr, ds)
}

// Disk returns every coordinate within radius of the origin, in canonical order.
// A board with edge size k is Disk(k-1).
func Disk(radius int) []Coord {
	if radius < 0 {
		return nil
	}
	out := make([]Coord, 0, 1+3*radius*(radius+1))
	for q := -radius; q <= radius; q++ {
		for r := max(-radius, -q-radius); r <= min(radius, -q+radius); r++ {
			out = append(out, Coord{Q: q, R: r})
		}
	}
	return out
}

// InBoard reports whether c lies on a hexagonal board with the given edge size.
func InBoard(c Coord, edgeSize int) bool {
	lim := edgeSize - 1
	return abs(c.Q) <= lim && abs(c.R) <= lim && abs(c.S()) <= lim
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
