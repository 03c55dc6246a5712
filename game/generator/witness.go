package generator

import (
	"math/rand"

	"github.com/wricardo/hexbuzz/game/grid"
)

// warnsdorffTries is how many random walks are attempted before falling back
// to the serpentine.
const warnsdorffTries = 32

// buildWitness returns a Hamiltonian path through Disk(radius).
func buildWitness(rng *rand.Rand, radius int) []grid.Coord {
	cells := grid.Disk(radius)
	for try := 0; try < warnsdorffTries; try++ {
		if path, ok := warnsdorff(rng, cells, radius+1); ok {
			return path
		}
	}
	return transform(serpentine(radius), rng.Intn(6), rng.Intn(2) == 1, rng.Intn(2) == 1)
}

// warnsdorff walks from a random cell, always stepping to the unvisited
// neighbour with the fewest unvisited neighbours of its own. Ties are broken
// at random.
func warnsdorff(rng *rand.Rand, cells []grid.Coord, edgeSize int) ([]grid.Coord, bool) {
	visited := make(map[grid.Coord]bool, len(cells))
	cur := cells[rng.Intn(len(cells))]
	path := make([]grid.Coord, 0, len(cells))

	for {
		visited[cur] = true
		path = append(path, cur)
		if len(path) == len(cells) {
			return path, true
		}

		var best []grid.Coord
		bestDegree := 7
		for _, n := range cur.Neighbors() {
			if !grid.InBoard(n, edgeSize) || visited[n] {
				continue
			}
			degree := 0
			for _, m := range n.Neighbors() {
				if grid.InBoard(m, edgeSize) && !visited[m] {
					degree++
				}
			}
			switch {
			case degree < bestDegree:
				best = append(best[:0], n)
				bestDegree = degree
			case degree == bestDegree:
				best = append(best, n)
			}
		}
		if len(best) == 0 {
			return nil, false
		}
		cur = best[rng.Intn(len(best))]
	}
}

// serpentine walks Disk(radius) row by row, alternating direction.
func serpentine(radius int) []grid.Coord {
	var out []grid.Coord
	for r := -radius; r <= radius; r++ {
		lo, hi := max(-radius, -r-radius), min(radius, -r+radius)
		if (r+radius)%2 == 0 {
			for q := lo; q <= hi; q++ {
				out = append(out, grid.Coord{Q: q, R: r})
			}
		} else {
			for q := hi; q >= lo; q-- {
				out = append(out, grid.Coord{Q: q, R: r})
			}
		}
	}
	return out
}

// transform applies a symmetry of the hex disk to a path: rotations by
// multiples of 60 degrees, an optional mirror, and an optional reversal.
// Adjacency is preserved.
func transform(path []grid.Coord, rotations int, mirror, reverse bool) []grid.Coord {
	out := make([]grid.Coord, len(path))
	for i, c := range path {
		for k := 0; k < rotations; k++ {
			c = grid.Coord{Q: -c.R, R: c.Q + c.R}
		}
		if mirror {
			c = grid.Coord{Q: c.R, R: c.Q}
		}
		out[i] = c
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// placeCheckpoints spreads n checkpoints along path: the first on the start,
// the last on the end, the rest near even spacing with some jitter. It
// returns the path indices carrying checkpoints 1..n.
func placeCheckpoints(rng *rand.Rand, length, n int) []int {
	positions := make([]int, n)
	positions[n-1] = length - 1
	gap := float64(length-1) / float64(n-1)
	for i := 1; i < n-1; i++ {
		pos := int(float64(i)*gap + 0.5)
		if spread := int(gap / 3); spread > 0 {
			pos += rng.Intn(2*spread+1) - spread
		}
		lo := positions[i-1] + 1
		hi := length - 1 - (n - 1 - i)
		positions[i] = min(max(pos, lo), hi)
	}
	return positions
}

// pathEdges returns the set of edges a path uses.
func pathEdges(path []grid.Coord) map[grid.Edge]bool {
	out := make(map[grid.Edge]bool, len(path))
	for i := 1; i < len(path); i++ {
		out[grid.NewEdge(path[i-1], path[i])] = true
	}
	return out
}

// boardEdges lists every edge between adjacent cells, in canonical order.
func boardEdges(cells []grid.Coord) []grid.Edge {
	board := make(map[grid.Coord]bool, len(cells))
	for _, c := range cells {
		board[c] = true
	}
	var out []grid.Edge
	for _, c := range cells {
		for _, n := range c.Neighbors() {
			if board[n] && c.Less(n) {
				out = append(out, grid.NewEdge(c, n))
			}
		}
	}
	return out
}
