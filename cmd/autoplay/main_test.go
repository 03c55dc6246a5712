package main

import (
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/wricardo/hexbuzz/api"
	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/generator"
	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/levels"
	"github.com/wricardo/hexbuzz/game/service"
	"github.com/wricardo/hexbuzz/game/session"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	library, err := levels.NewLibrary(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create library: %v", err)
	}
	if err := library.SaveLevel(levels.DefaultLevelName, levels.BuiltinLevel()); err != nil {
		t.Fatalf("Failed to save starter: %v", err)
	}

	res, err := generator.Generate(context.Background(), generator.Options{EdgeSize: 3, Seed: 42, WallDensity: 0.15})
	if err != nil {
		t.Fatalf("Failed to generate level: %v", err)
	}
	if err := library.SaveLevel("generated", res.Level); err != nil {
		t.Fatalf("Failed to save generated level: %v", err)
	}
	library.RefreshCache()

	cfg := service.DefaultConfig()
	server := httptest.NewServer(api.NewServer(service.NewGameService(session.NewManager(), library, cfg), nil))
	t.Cleanup(server.Close)
	return server
}

func TestClientSessionLifecycle(t *testing.T) {
	server := newTestAPI(t)
	ctx := context.Background()
	client := NewClient(server.URL + "/")

	info, err := client.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if client.SessionID() != info.ID || info.Level == nil {
		t.Fatalf("Unexpected session info: %+v", info)
	}

	res, err := client.Move(ctx, grid.Coord{Q: 1, R: 0})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if res.Success || res.Reason != engine.ReasonNotStartCell {
		t.Errorf("Expected not_start_cell rejection, got %+v", res.MoveResult)
	}

	if res, err = client.Move(ctx, grid.Coord{Q: 0, R: 0}); err != nil || !res.Success {
		t.Fatalf("Expected start move to succeed, got %+v, %v", res, err)
	}

	state, err := client.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if len(state.Path) != 1 || len(state.PossibleMoves) == 0 {
		t.Errorf("Unexpected state: path=%v possible=%v", state.Path, state.PossibleMoves)
	}

	undo, err := client.Undo(ctx)
	if err != nil || !undo.Success {
		t.Fatalf("Undo failed: %+v, %v", undo, err)
	}

	snapshot, err := client.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if snapshot == nil || len(snapshot.Path) != 0 {
		t.Errorf("Expected empty path after reset, got %+v", snapshot)
	}

	resumed, err := NewClient(server.URL).Resume(ctx, strings.ToUpper(info.ID))
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.ID != info.ID {
		t.Errorf("Expected session %s, got %s", info.ID, resumed.ID)
	}
}

func TestClientErrors(t *testing.T) {
	server := newTestAPI(t)
	ctx := context.Background()

	client := NewClient(server.URL)
	if _, err := client.CreateSession(ctx, "no-such-level"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected 404 error for unknown level, got %v", err)
	}
	if _, err := client.Resume(ctx, "deadbeef"); err == nil {
		t.Error("Expected error resuming an unknown session")
	}

	unreachable := NewClient("http://127.0.0.1:1")
	if _, err := unreachable.CreateSession(ctx, ""); err == nil {
		t.Error("Expected error for unreachable server")
	}
}

func TestStrategies(t *testing.T) {
	server := newTestAPI(t)

	tests := []struct {
		name     string
		level    string
		strategy Strategy
	}{
		{name: "solve starter", level: "", strategy: &SolveStrategy{}},
		{name: "solve bulk", level: "generated", strategy: &SolveStrategy{Bulk: true}},
		{name: "solve generated", level: "generated", strategy: &SolveStrategy{}},
		{name: "explore starter", level: "", strategy: &ExploreStrategy{MaxMoves: 1000}},
		{name: "explore generated", level: "generated", strategy: &ExploreStrategy{MaxMoves: 100000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			client := NewClient(server.URL)
			info, err := client.CreateSession(ctx, tt.level)
			if err != nil {
				t.Fatalf("CreateSession failed: %v", err)
			}

			stats, err := Autoplay(ctx, client, info.Level, tt.strategy)
			if err != nil {
				t.Fatalf("Autoplay failed: %v", err)
			}
			if !stats.Won {
				t.Fatalf("Expected a win, got %+v", stats)
			}
			if len(stats.Path) != info.Level.CellCount() {
				t.Errorf("Expected path over all %d cells, got %d", info.Level.CellCount(), len(stats.Path))
			}

			state, err := client.GetState(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if !state.IsWin || state.Phase != engine.Complete {
				t.Errorf("Expected server to report a win, got phase %s", state.Phase)
			}
		})
	}
}

func TestExploreStrategy_MoveBudget(t *testing.T) {
	server := newTestAPI(t)
	ctx := context.Background()
	client := NewClient(server.URL)
	info, err := client.CreateSession(ctx, "generated")
	if err != nil {
		t.Fatal(err)
	}

	stats, err := Autoplay(ctx, client, info.Level, &ExploreStrategy{MaxMoves: 3})
	if err == nil {
		t.Fatal("Expected move budget error")
	}
	if stats.Moves != 3 {
		t.Errorf("Expected 3 moves, got %d", stats.Moves)
	}
}

func TestExploreStrategy_Order(t *testing.T) {
	level := levels.BuiltinLevel()
	s := &ExploreStrategy{level: level}

	// From the start every ring cell is a candidate; checkpoint 2 goes first
	path := []grid.Coord{{Q: 0, R: 0}}
	ordered := s.order(level.Neighbors(grid.Coord{Q: 0, R: 0}), path, 2)
	if ordered[0] != (grid.Coord{Q: 1, R: -1}) {
		t.Errorf("Expected next checkpoint first, got %v", ordered)
	}
	if len(ordered) != 6 {
		t.Errorf("Expected 6 candidates, got %d", len(ordered))
	}
}

func TestSolveStrategy_Unsolvable(t *testing.T) {
	if _, err := (&SolveStrategy{}).Play(context.Background(), NewClient("http://127.0.0.1:1"), blockedLevel(t)); err == nil {
		t.Error("Expected an error replaying an unsolvable level")
	}
}

func TestOpenSession(t *testing.T) {
	server := newTestAPI(t)
	t.Chdir(t.TempDir())
	ctx := context.Background()

	client := NewClient(server.URL)
	first, err := openSession(ctx, client, "", "")
	if err != nil {
		t.Fatalf("openSession failed: %v", err)
	}
	saved, err := os.ReadFile(sessionFile)
	if err != nil || string(saved) != first.ID {
		t.Fatalf("Expected session file with %s, got %q (%v)", first.ID, saved, err)
	}

	again, err := openSession(ctx, NewClient(server.URL), first.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID {
		t.Errorf("Expected to resume %s, got %s", first.ID, again.ID)
	}

	// A different level or a stale ID starts over
	other, err := openSession(ctx, NewClient(server.URL), first.ID, "generated")
	if err != nil {
		t.Fatal(err)
	}
	if other.ID == first.ID || other.LevelName != "generated" {
		t.Errorf("Expected a new generated session, got %s on %s", other.ID, other.LevelName)
	}
	stale, err := openSession(ctx, NewClient(server.URL), "deadbeef", "")
	if err != nil {
		t.Fatal(err)
	}
	if stale.ID == "deadbeef" {
		t.Error("Expected a new session for a stale ID")
	}
}

func blockedLevel(t *testing.T) *grid.Level {
	t.Helper()
	base := levels.BuiltinLevel()
	start := grid.Coord{Q: 0, R: 0}
	var walls []grid.Edge
	for _, n := range base.Neighbors(start) {
		walls = append(walls, grid.NewEdge(start, n))
	}
	level, err := base.WithWalls(walls...)
	if err != nil {
		t.Fatal(err)
	}
	return level
}
