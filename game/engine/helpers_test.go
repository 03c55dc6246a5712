package engine

import (
	"testing"
	"time"

	"github.com/wricardo/hexbuzz/game/grid"
)

func at(q, r int) grid.Coord { return grid.Coord{Q: q, R: r} }

// rhombusLevel is a 4-cell level with checkpoints on opposite corners.
//
//	(0,0)=1  (1,0)
//	   (0,1)   (1,1)=2
func rhombusLevel(t *testing.T, walls ...grid.Edge) *grid.Level {
	t.Helper()
	level, err := grid.NewLevel(2, []grid.Cell{
		{Coord: at(0, 0), Checkpoint: 1},
		{Coord: at(1, 0)},
		{Coord: at(0, 1)},
		{Coord: at(1, 1), Checkpoint: 2},
	}, walls, 0)
	if err != nil {
		t.Fatalf("Failed to build rhombus level: %v", err)
	}
	return level
}

// diskLevel is the 7-cell board of edge size 2 with three checkpoints.
func diskLevel(t *testing.T) *grid.Level {
	t.Helper()
	cells := make([]grid.Cell, 0, 7)
	for _, c := range grid.Disk(1) {
		cell := grid.Cell{Coord: c}
		switch c {
		case at(0, 0):
			cell.Checkpoint = 1
		case at(1, -1):
			cell.Checkpoint = 2
		case at(0, 1):
			cell.Checkpoint = 3
		}
		cells = append(cells, cell)
	}
	level, err := grid.NewLevel(2, cells, nil, 0)
	if err != nil {
		t.Fatalf("Failed to build disk level: %v", err)
	}
	return level
}

// diskSolution is a valid full path through diskLevel.
var diskSolution = []grid.Coord{
	at(0, 0), at(1, -1), at(0, -1), at(-1, 0), at(-1, 1), at(0, 1), at(1, 0),
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T, level *grid.Level, clock *fakeClock) *GameEngine {
	t.Helper()
	e, err := NewEngine(level, ModePractice, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}
