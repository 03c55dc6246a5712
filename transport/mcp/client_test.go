package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/hexbuzz/api"
	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/levels"
	"github.com/wricardo/hexbuzz/game/service"
	"github.com/wricardo/hexbuzz/game/session"
	"github.com/wricardo/hexbuzz/game/solver"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	library, err := levels.NewLibrary(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create library: %v", err)
	}
	if err := library.SaveLevel(levels.DefaultLevelName, levels.BuiltinLevel()); err != nil {
		t.Fatalf("Failed to save starter level: %v", err)
	}
	library.RefreshCache()

	gameService := service.NewGameService(session.NewManager(), library, service.DefaultConfig())
	server := httptest.NewServer(api.NewServer(gameService, nil))
	t.Cleanup(server.Close)
	return server
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) (string, bool) {
	t.Helper()
	result, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("%s returned no content", name)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("%s: expected text content", name)
	}
	return text.Text, result.IsError
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080/"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12"})
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": "session not found", "code": 404})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	var response map[string]interface{}
	if err := client.apiCall(ctx, "GET", "/ok", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}

	err := client.apiCall(ctx, "GET", "/missing", nil, nil)
	if err == nil || err.Error() != "session not found" {
		t.Errorf("Expected the API error message, got %v", err)
	}

	err = client.apiCall(ctx, "GET", "/boom", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error', got %v", err)
	}
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, nil); err == nil {
		t.Error("Expected error for unreachable server")
	}
}

func TestClient_PlayThroughTools(t *testing.T) {
	client := NewClient(newAPIServer(t).URL)

	text, isErr := callTool(t, client.handleCreateSession, "create_session", map[string]interface{}{})
	if isErr || !strings.HasPrefix(text, "Created session: ") {
		t.Fatalf("Unexpected create_session output: %s", text)
	}
	if !strings.Contains(text, "Start on checkpoint 1 at (0,0)") {
		t.Errorf("Expected the start cell, got: %s", text)
	}
	sessionID := strings.Fields(strings.TrimPrefix(text, "Created session: "))[0]

	text, _ = callTool(t, client.handleMove, "move", map[string]interface{}{
		"session_id": sessionID, "q": float64(0), "r": float64(0), "intent": "start on checkpoint 1",
	})
	if !strings.HasPrefix(text, "✓") {
		t.Errorf("Expected an accepted move, got: %s", text)
	}

	text, _ = callTool(t, client.handleMove, "move", map[string]interface{}{
		"session_id": sessionID, "q": float64(0), "r": float64(1),
	})
	if !strings.Contains(text, "rejected") || !strings.Contains(text, string(engine.ReasonWrongCheckpointOrder)) {
		t.Errorf("Expected a checkpoint order rejection, got: %s", text)
	}

	text, isErr = callTool(t, client.handleMove, "move", map[string]interface{}{"session_id": sessionID, "q": float64(1)})
	if !isErr {
		t.Errorf("Expected an error for a missing coordinate, got: %s", text)
	}

	text, _ = callTool(t, client.handleGameState, "game_state", map[string]interface{}{"session_id": sessionID})
	for _, want := range []string{"Phase: in_progress", "Possible moves:", "Next checkpoint at (1,-1)", "@"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in game_state, got: %s", want, text)
		}
	}

	text, _ = callTool(t, client.handleUndo, "undo", map[string]interface{}{"session_id": sessionID})
	if !strings.HasPrefix(text, "✓") || !strings.Contains(text, "(empty)") {
		t.Errorf("Unexpected undo output: %s", text)
	}

	text, _ = callTool(t, client.handleBulkMove, "bulk_move", map[string]interface{}{
		"session_id": sessionID,
		"moves": []interface{}{
			map[string]interface{}{"q": float64(0), "r": float64(0)},
			map[string]interface{}{"q": float64(1), "r": float64(-1)},
			map[string]interface{}{"q": float64(0), "r": float64(-1)},
			map[string]interface{}{"q": float64(-1), "r": float64(0)},
			map[string]interface{}{"q": float64(-1), "r": float64(1)},
			map[string]interface{}{"q": float64(0), "r": float64(1)},
			map[string]interface{}{"q": float64(1), "r": float64(0)},
		},
	})
	if !strings.Contains(text, "executed 7/7") || !strings.Contains(text, "VICTORY") {
		t.Errorf("Expected a winning bulk move, got: %s", text)
	}

	text, _ = callTool(t, client.handleMoveHistory, "move_history", map[string]interface{}{
		"session_id": sessionID, "limit": float64(50),
	})
	if !strings.Contains(text, "Total: 10") || !strings.Contains(text, string(engine.ReasonWrongCheckpointOrder)) {
		t.Errorf("Unexpected history: %s", text)
	}

	text, _ = callTool(t, client.handleReset, "reset_game", map[string]interface{}{"session_id": sessionID})
	if !strings.Contains(text, "Phase: not_started") {
		t.Errorf("Unexpected reset output: %s", text)
	}

	text, _ = callTool(t, client.handleListSessions, "list_sessions", map[string]interface{}{})
	if !strings.Contains(text, "Active Sessions (1)") || !strings.Contains(text, sessionID) {
		t.Errorf("Unexpected session list: %s", text)
	}

	text, _ = callTool(t, client.handleGetSession, "get_session", map[string]interface{}{"session_id": sessionID})
	if !strings.Contains(text, "Level: starter") {
		t.Errorf("Unexpected session info: %s", text)
	}

	text, isErr = callTool(t, client.handleGameState, "game_state", map[string]interface{}{"session_id": "zzzz"})
	if !isErr || !strings.Contains(text, "session not found") {
		t.Errorf("Expected a not found error, got: %s", text)
	}
}

func TestClient_LevelTools(t *testing.T) {
	client := NewClient(newAPIServer(t).URL)

	text, _ := callTool(t, client.handleListLevels, "list_levels", map[string]interface{}{})
	if !strings.Contains(text, "• starter") || !strings.Contains(text, "Checkpoints: 3") {
		t.Errorf("Unexpected level list: %s", text)
	}

	text, _ = callTool(t, client.handleValidateLevel, "validate_level", map[string]interface{}{"level_id": "starter", "count": float64(100)})
	if !strings.Contains(text, "Level is solvable") || !strings.Contains(text, "Solutions: ") {
		t.Errorf("Unexpected validation: %s", text)
	}

	var inline map[string]interface{}
	data, _ := json.Marshal(levels.BuiltinLevel())
	json.Unmarshal(data, &inline)
	text, _ = callTool(t, client.handleValidateLevel, "validate_level", map[string]interface{}{"level": inline})
	if !strings.Contains(text, "Level is solvable") || strings.Contains(text, "Solutions:") {
		t.Errorf("Unexpected inline validation: %s", text)
	}

	text, isErr := callTool(t, client.handleValidateLevel, "validate_level", map[string]interface{}{})
	if !isErr {
		t.Errorf("Expected an error without a level, got: %s", text)
	}

	text, isErr = callTool(t, client.handleGenerateLevel, "generate_level", map[string]interface{}{
		"size": float64(2), "seed": float64(7), "save": true,
	})
	if isErr || !strings.Contains(text, "Generated level") || !strings.Contains(text, "Saved as \"gen-2-") {
		t.Errorf("Unexpected generate output: %s", text)
	}

	text, isErr = callTool(t, client.handleGenerateLevel, "generate_level", map[string]interface{}{"size": float64(42)})
	if !isErr {
		t.Errorf("Expected an error for an invalid size, got: %s", text)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	text, _ := callTool(t, client.handleGameInstructions, "game_instructions", map[string]interface{}{})

	expectedContent := []string{
		"hexbuzz - Complete Instructions",
		"GAME OBJECTIVE:",
		"BOARD LEGEND",
		"MOVE RULES:",
		"VICTORY CONDITIONS:",
		"does not have to end on the last checkpoint",
		string(engine.ReasonWallBlocked),
		"STRATEGY:",
	}
	for _, content := range expectedContent {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}

func TestFormatValidation(t *testing.T) {
	count := 3
	unique := false
	text := formatValidation(&solver.Response{
		Solvable:          true,
		Outcome:           solver.OutcomeSolvable,
		Solution:          []grid.Coord{{Q: 0, R: 0}, {Q: 1, R: 0}},
		SolutionCount:     &count,
		CountCapped:       true,
		HasUniqueSolution: &unique,
		Nodes:             12,
	})
	for _, want := range []string{"solvable", "Solutions: at least 3", "Unique: false", "(0,0) (1,0)", "Nodes searched: 12"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in %q", want, text)
		}
	}

	text = formatValidation(&solver.Response{Outcome: solver.OutcomeInvalid, Error: "checkpoint sequence has a gap"})
	if !strings.Contains(text, "structurally invalid") || !strings.Contains(text, "gap") {
		t.Errorf("Unexpected invalid output: %q", text)
	}
}

func TestFormatMoveResult(t *testing.T) {
	result := &service.MoveResult{
		MoveResult: engine.MoveResult{Success: false, Reason: engine.ReasonWallBlocked},
		Message:    engine.ReasonWallBlocked.Message(),
		Target:     grid.Coord{Q: 1, R: 0},
		GameState: engine.Snapshot{
			Path:            []grid.Coord{{Q: 0, R: 0}},
			CellCount:       7,
			NextCheckpoint:  2,
			CheckpointCount: 3,
		},
		PossibleMoves: []grid.Coord{{Q: 0, R: 1}},
		Stranded:      true,
	}

	text := formatMoveResult(result)
	for _, want := range []string{"✗ Move to (1,0) rejected", "wall_blocked", "Path: 1/7", "Possible moves: (0,1)", "Stranded"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in %q", want, text)
		}
	}

	result.Success, result.IsWin, result.Reason = true, true, ""
	if text := formatMoveResult(result); !strings.Contains(text, "VICTORY") {
		t.Errorf("Expected victory output, got %q", text)
	}
}
