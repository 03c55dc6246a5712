package engine

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/wricardo/hexbuzz/game/grid"
)

// boardLevel builds the 19-cell board of edge size 3 with checkpoints placed
// along a serpentine route and a couple of walls.
func boardLevel(t *testing.T) *grid.Level {
	t.Helper()
	checkpoints := map[grid.Coord]int{
		at(-2, 0): 1,
		at(2, -2): 2,
		at(-1, 2): 3,
		at(0, 2):  4,
	}
	var cells []grid.Cell
	for _, c := range grid.Disk(2) {
		cells = append(cells, grid.Cell{Coord: c, Checkpoint: checkpoints[c]})
	}
	walls := []grid.Edge{
		grid.NewEdge(at(0, 0), at(1, 0)),
		grid.NewEdge(at(-1, 1), at(-1, 2)),
	}
	level, err := grid.NewLevel(3, cells, walls, 0)
	if err != nil {
		t.Fatalf("Failed to build board level: %v", err)
	}
	return level
}

// TestEngine_RandomWalkInvariants drives the engine with random targets and
// checks the invariants after every operation.
func TestEngine_RandomWalkInvariants(t *testing.T) {
	levels := map[string]*grid.Level{
		"rhombus": rhombusLevel(t),
		"disk":    diskLevel(t),
		"board":   boardLevel(t),
	}

	for name, level := range levels {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			clock := newFakeClock()
			engine := newTestEngine(t, level, clock)
			coords := level.Coords()

			for step := 0; step < 2000; step++ {
				clock.Advance(time.Millisecond)
				before := engine.State()

				switch roll := rng.Intn(10); {
				case roll == 0:
					engine.Reset()
				case roll <= 2:
					wasComplete := before.Phase() == Complete
					ok := engine.Undo()
					if ok == (wasComplete || len(before.Path) == 0) {
						t.Fatalf("step %d: undo returned %v on phase %s", step, ok, before.Phase())
					}
				default:
					var target grid.Coord
					if moves := engine.PossibleMoves(); len(moves) > 0 && rng.Intn(3) > 0 {
						target = moves[rng.Intn(len(moves))]
					} else {
						target = coords[rng.Intn(len(coords))]
					}
					checkMoveUndoInverse(t, engine, target)
				}

				assertStateInvariants(t, engine.State())
			}
		})
	}
}

// checkMoveUndoInverse applies target, and when the move succeeds without
// completing the level, checks that undo restores the previous state exactly.
func checkMoveUndoInverse(t *testing.T, engine *GameEngine, target grid.Coord) {
	t.Helper()
	before := engine.State()
	result := engine.TryMove(target)
	if !result.Success {
		if !reflect.DeepEqual(engine.State(), before) {
			t.Fatalf("rejected move to %v changed the state", target)
		}
		return
	}
	if result.IsWin != (engine.Phase() == Complete) {
		t.Fatalf("isWin=%v but phase %s", result.IsWin, engine.Phase())
	}
	if result.IsWin || len(before.Path) == 0 {
		return
	}

	after := engine.State()
	if !engine.Undo() {
		t.Fatalf("undo after move to %v failed", target)
	}
	restored := engine.State()
	if !samePath(restored.Path, before.Path) || restored.NextCheckpoint != before.NextCheckpoint {
		t.Fatalf("move+undo to %v: expected %v/%d, got %v/%d",
			target, before.Path, before.NextCheckpoint, restored.Path, restored.NextCheckpoint)
	}
	if !restored.StartedAt.Equal(*before.StartedAt) {
		t.Fatalf("move+undo to %v changed the start time", target)
	}

	// put the move back so the walk keeps progressing
	if res := engine.TryMove(target); !res.Success || !samePath(engine.State().Path, after.Path) {
		t.Fatalf("replaying move to %v failed: %+v", target, res)
	}
}

func assertStateInvariants(t *testing.T, s *GameState) {
	t.Helper()

	seen := make(map[grid.Coord]bool)
	next := 1
	for i, c := range s.Path {
		if seen[c] {
			t.Fatalf("path visits %v twice: %v", c, s.Path)
		}
		seen[c] = true
		if i > 0 && (!grid.IsAdjacent(s.Path[i-1], c) || !s.Level.IsPassable(s.Path[i-1], c)) {
			t.Fatalf("path step %v->%v is not a legal edge", s.Path[i-1], c)
		}
		if cell, _ := s.Level.Cell(c); cell.Checkpoint != 0 {
			if cell.Checkpoint != next {
				t.Fatalf("checkpoint %d reached while expecting %d", cell.Checkpoint, next)
			}
			next++
		}
	}
	if s.NextCheckpoint != next {
		t.Fatalf("next checkpoint %d, path implies %d", s.NextCheckpoint, next)
	}

	win := len(s.Path) == s.Level.CellCount() && s.NextCheckpoint > s.Level.CheckpointCount()
	if CheckWinCondition(s).Win != win {
		t.Fatalf("win condition disagrees with definition for path %v", s.Path)
	}
	if (s.Phase() == Complete) != win {
		t.Fatalf("phase %s with win=%v", s.Phase(), win)
	}
	if (s.EndedAt != nil) != win {
		t.Fatalf("end time set=%v with win=%v", s.EndedAt != nil, win)
	}
	if len(s.Path) > 0 && s.StartedAt == nil {
		t.Fatal("non-empty path without a start time")
	}
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
