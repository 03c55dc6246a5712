package solver

import (
	"context"

	"github.com/wricardo/hexbuzz/game/grid"
)

// ctxCheckInterval is how many search steps run between context checks.
const ctxCheckInterval = 1024

// search is the backtracking state for one level. Cells are indexed in the
// level's canonical order.
type search struct {
	coords      []grid.Coord
	adj         [][]int
	checkpoint  []int
	start       int
	checkpoints int

	visited []bool
	path    []int
	next    int

	// scratch for the reachability check
	mark  []int
	epoch int
	queue []int

	limit     int
	budget    int64
	nodes     int64
	ticks     int
	solutions [][]grid.Coord
	stopped   bool
}

func newSearch(level *grid.Level, limit int, budget int64) *search {
	coords := level.Coords()
	index := make(map[grid.Coord]int, len(coords))
	for i, c := range coords {
		index[c] = i
	}

	s := &search{
		coords:      coords,
		adj:         make([][]int, len(coords)),
		checkpoint:  make([]int, len(coords)),
		checkpoints: level.CheckpointCount(),
		visited:     make([]bool, len(coords)),
		path:        make([]int, 0, len(coords)),
		next:        1,
		mark:        make([]int, len(coords)),
		queue:       make([]int, 0, len(coords)),
		limit:       limit,
		budget:      budget,
	}
	for i, c := range coords {
		cell, _ := level.Cell(c)
		s.checkpoint[i] = cell.Checkpoint
		if cell.Checkpoint == 1 {
			s.start = i
		}
		for _, n := range level.Neighbors(c) {
			s.adj[i] = append(s.adj[i], index[n])
		}
	}
	return s
}

type frame struct {
	cell int
	next int
}

// run explores the search tree until it is exhausted, the solution limit is
// reached, or the budget runs out. It reports whether the tree was exhausted.
func (s *search) run(ctx context.Context) bool {
	s.push(s.start)
	s.nodes++
	if s.dead() {
		return true
	}

	stack := make([]frame, 1, len(s.coords))
	stack[0] = frame{cell: s.start}

	for len(stack) > 0 {
		if s.interrupted(ctx) {
			return false
		}

		if len(s.path) == len(s.coords) {
			if s.next > s.checkpoints {
				s.record()
				if len(s.solutions) >= s.limit {
					return false
				}
			}
			stack = stack[:len(stack)-1]
			s.pop()
			continue
		}

		top := &stack[len(stack)-1]
		advanced := false
		for top.next < len(s.adj[top.cell]) {
			n := s.adj[top.cell][top.next]
			top.next++
			if !s.eligible(n) {
				continue
			}
			s.push(n)
			s.nodes++
			if s.dead() {
				s.pop()
				continue
			}
			stack = append(stack, frame{cell: n})
			advanced = true
			break
		}
		if !advanced {
			stack = stack[:len(stack)-1]
			s.pop()
		}
	}
	return true
}

func (s *search) interrupted(ctx context.Context) bool {
	if s.stopped {
		return true
	}
	s.ticks++
	if s.budget > 0 && s.nodes > s.budget {
		s.stopped = true
	} else if s.ticks%ctxCheckInterval == 0 && ctx.Err() != nil {
		s.stopped = true
	}
	return s.stopped
}

func (s *search) eligible(n int) bool {
	if s.visited[n] {
		return false
	}
	cp := s.checkpoint[n]
	return cp == 0 || cp == s.next
}

func (s *search) push(n int) {
	s.visited[n] = true
	s.path = append(s.path, n)
	if s.checkpoint[n] == s.next {
		s.next++
	}
}

func (s *search) pop() {
	n := s.path[len(s.path)-1]
	s.path = s.path[:len(s.path)-1]
	s.visited[n] = false
	if s.checkpoint[n] != 0 && s.checkpoint[n] == s.next-1 {
		s.next--
	}
}

func (s *search) record() {
	solution := make([]grid.Coord, len(s.path))
	for i, n := range s.path {
		solution[i] = s.coords[n]
	}
	s.solutions = append(s.solutions, solution)
}

// dead reports whether the current partial path can be proven not to extend
// to a full solution.
func (s *search) dead() bool {
	remaining := len(s.coords) - len(s.path)
	if remaining == 0 {
		return false
	}
	head := s.path[len(s.path)-1]

	ends := 0
	for v := range s.coords {
		if s.visited[v] {
			continue
		}
		free := 0
		for _, w := range s.adj[v] {
			if !s.visited[w] || w == head {
				free++
			}
		}
		switch free {
		case 0:
			return true
		case 1:
			ends++
			if ends > 1 {
				return true
			}
		}
	}

	return s.reachable(head) < remaining
}

// reachable counts the unvisited cells connected to head.
func (s *search) reachable(head int) int {
	s.epoch++
	s.queue = append(s.queue[:0], head)
	s.mark[head] = s.epoch
	count := 0
	for i := 0; i < len(s.queue); i++ {
		for _, w := range s.adj[s.queue[i]] {
			if s.visited[w] || s.mark[w] == s.epoch {
				continue
			}
			s.mark[w] = s.epoch
			s.queue = append(s.queue, w)
			count++
		}
	}
	return count
}
