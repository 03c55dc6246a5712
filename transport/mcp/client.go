package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/generator"
	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/service"
	"github.com/wricardo/hexbuzz/game/solver"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Validation and generation may search for a while
			Timeout: 60 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"hexbuzz",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`hexbuzz - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Draw one continuous path through every cell of a hexagonal board. Start on
checkpoint 1 and pass the numbered checkpoints in increasing order. Cells are
addressed with axial coordinates (q, r); walls block some neighbouring pairs.

AVAILABLE TOOLS:
- create_session: Create a new game session on a level
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Board, path, possible moves and next checkpoint
- move: Extend the path by one cell - requires intent explanation
- bulk_move: Extend the path by several cells - requires intent explanation
- undo: Remove the last cell of the path
- reset_game: Clear the path
- move_history: View past moves
- list_levels: List stored levels
- validate_level: Check that a level can be solved and count solutions
- generate_level: Generate a new level with a unique solution
- game_instructions: Get the full rules

NOTE: The 'intent' parameter on move/bulk_move serves as rubber duck debugging - explain your reasoning!`),
	)

	// Register all tools
	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session on a stored level (default level when omitted)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": map[string]interface{}{
					"type":        "string",
					"description": "Name of the level to play, see list_levels (optional)",
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        []string{engine.ModePractice, engine.ModeDaily},
					"description": "Play mode (optional, default practice)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, path, possible next cells and the next checkpoint",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Extend the path to a cell. The first cell must be checkpoint 1; later cells must be neighbours of the path head.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"q": map[string]interface{}{
					"type":        "integer",
					"description": "Axial q coordinate of the target cell",
				},
				"r": map[string]interface{}{
					"type":        "integer",
					"description": "Axial r coordinate of the target cell",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "q", "r"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: "Extend the path by several cells in order, stopping at the first rejected cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"q": map[string]interface{}{"type": "integer"},
							"r": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"q", "r"},
					},
					"description": "Cells to append, as {q, r} objects",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "undo",
		Description: "Remove the last cell of the path (not allowed once the level is complete)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleUndo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Clear the path and start the level again",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Levels
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List the stored levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "validate_level",
		Description: "Check whether a level can be solved. Pass a stored level name or a level JSON object.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": map[string]interface{}{
					"type":        "string",
					"description": "Name of a stored level",
				},
				"level": map[string]interface{}{
					"type":        "object",
					"description": "Level JSON: {size, cells: [{q, r, checkpoint?}], walls: [{q1, r1, q2, r2}], checkpointCount}",
				},
				"count": map[string]interface{}{
					"type":        "integer",
					"description": "Count solutions up to this limit (optional)",
				},
			},
		},
	}, c.handleValidateLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "generate_level",
		Description: "Generate a new level with a unique solution",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"size": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Board edge size (%d-%d)", generator.MinEdgeSize, generator.MaxEdgeSize),
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Seed for a reproducible level (optional)",
				},
				"checkpoints": map[string]interface{}{
					"type":        "integer",
					"description": "Number of checkpoints (optional)",
				},
				"save": map[string]interface{}{
					"type":        "boolean",
					"description": "Store the level in the library so sessions can use it",
				},
			},
			Required: []string{"size"},
		},
	}, c.handleGenerateLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the client disconnects
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]string{}
	if levelID, _ := args["level_id"].(string); levelID != "" {
		body["level_id"] = levelID
	}
	if mode, _ := args["mode"].(string); mode != "" {
		body["mode"] = mode
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLevel: %s (%d cells, %d checkpoints)\n",
		session.ID, session.LevelName, session.GameState.CellCount, session.GameState.CheckpointCount)
	if start, ok := session.Level.CheckpointAt(1); ok {
		result += fmt.Sprintf("Start on checkpoint 1 at (%d,%d)\n", start.Q, start.R)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Level: %s, Phase: %s, Path: %d/%d, Created: %s)\n",
			s.ID, s.LevelName, s.GameState.Phase, len(s.GameState.Path), s.GameState.CellCount,
			s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var state service.GameStateView
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID)+"/state", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	reset, _ := args["reset"].(bool)
	// The intent argument is for the caller's benefit only

	q, okQ := intArg(args, "q")
	r, okR := intArg(args, "r")
	if !okQ || !okR {
		return mcp.NewToolResultError("both q and r are required"), nil
	}

	body := map[string]interface{}{
		"q":     q,
		"r":     r,
		"reset": reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", "/api/sessions/"+url.PathEscape(sessionID)+"/move", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	reset, _ := args["reset"].(bool)

	moves := make([]map[string]int, 0, len(movesRaw))
	for i, m := range movesRaw {
		cell, _ := m.(map[string]interface{})
		q, okQ := intArg(cell, "q")
		r, okR := intArg(cell, "r")
		if !okQ || !okR {
			return mcp.NewToolResultError(fmt.Sprintf("move %d: both q and r are required", i+1)), nil
		}
		moves = append(moves, map[string]int{"q": q, "r": r})
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", "/api/sessions/"+url.PathEscape(sessionID)+"/bulk-move", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var result service.UndoResult
	if err := c.apiCall(ctx, "POST", "/api/sessions/"+url.PathEscape(sessionID)+"/undo", nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status := "✓"
	if !result.Success {
		status = "✗"
	}
	text := fmt.Sprintf("%s %s\nPath: %s\n", status, result.Message, formatPath(result.GameState.Path))
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var response struct {
		Message string          `json:"message"`
		State   engine.Snapshot `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", "/api/sessions/"+url.PathEscape(sessionID)+"/reset", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\nPhase: %s | Cells: %d | Checkpoints: %d\n",
		response.Message, response.State.Phase, response.State.CellCount, response.State.CheckpointCount)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/history"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var infos []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &infos); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Available Levels (%d):\n\n", len(infos))
	for _, info := range infos {
		result += fmt.Sprintf("• %s\n  Size: %d, Cells: %d, Checkpoints: %d, Walls: %d\n\n",
			info.Name, info.Size, info.CellCount, info.CheckpointCount, info.WallCount)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleValidateLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var level interface{}
	if raw, ok := args["level"].(map[string]interface{}); ok {
		level = raw
	} else if levelID, _ := args["level_id"].(string); levelID != "" {
		var stored json.RawMessage
		if err := c.apiCall(ctx, "GET", "/api/levels/"+url.PathEscape(levelID), nil, &stored); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		level = stored
	} else {
		return mcp.NewToolResultError("either level_id or level is required"), nil
	}

	path := "/api/validate"
	if count, ok := intArg(args, "count"); ok && count > 0 {
		path += fmt.Sprintf("?count=%d", count)
	}

	var resp solver.Response
	if err := c.apiCall(ctx, "POST", path, level, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatValidation(&resp)), nil
}

func (c *Client) handleGenerateLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]interface{}{}
	if size, ok := intArg(args, "size"); ok {
		body["size"] = size
	}
	if seed, ok := intArg(args, "seed"); ok {
		body["seed"] = seed
	}
	if checkpoints, ok := intArg(args, "checkpoints"); ok {
		body["checkpoints"] = checkpoints
	}
	if save, _ := args["save"].(bool); save {
		body["save"] = true
	}

	var resp struct {
		generator.Response
		Name string `json:"level_name"`
	}
	if err := c.apiCall(ctx, "POST", "/api/generate", body, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !resp.Generated {
		return mcp.NewToolResultError("generation failed: " + resp.Error), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generated level %s\n", resp.LevelID)
	if resp.Stats != nil {
		fmt.Fprintf(&b, "Checkpoints: %d | Walls: %d | Attempts: %d | Unique: %v | Seed: %d\n",
			resp.Stats.Checkpoints, resp.Stats.WallCount, resp.Stats.Attempts, resp.Stats.Unique, resp.Stats.Seed)
	}
	if resp.Name != "" {
		fmt.Fprintf(&b, "Saved as %q, use create_session with level_id=%s to play it\n", resp.Name, resp.Name)
	}
	if resp.Level != nil {
		b.WriteString("\n")
		b.WriteString(service.RenderBoard(resp.Level, nil))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🐝 hexbuzz - Complete Instructions

GAME OBJECTIVE:
Draw a single path that visits every cell of the board exactly once.

BOARD:
• The board is a hexagon of hexagonal cells addressed by axial coordinates (q, r)
• Each cell has six neighbours: (q+1,r) (q-1,r) (q,r+1) (q,r-1) (q+1,r-1) (q-1,r+1)
• Walls sit between two neighbouring cells and cannot be crossed
• Some cells carry checkpoint numbers 1..N

BOARD LEGEND (game_state):
• . - Cell not yet on the path
• * - Cell already on the path
• @ - Head of the path
• 1-9 - Checkpoint number (shown whether or not it was visited)
• Rows follow r; columns are 2q+r so neighbours line up diagonally
• The walls: line lists each wall as a pair of cells

MOVE RULES:
1. The first cell must be checkpoint 1
2. Each next cell must be a neighbour of the path head
3. You cannot cross a wall
4. You cannot enter a cell twice
5. Checkpoints must be reached in order: entering checkpoint k requires k to be the next one

VICTORY CONDITIONS:
- The path covers every cell
- Every checkpoint has been passed in order
- The path does not have to end on the last checkpoint

REJECTED MOVES:
A rejected move leaves the path unchanged and reports a reason:
cell_not_in_level, not_start_cell, not_adjacent, wall_blocked,
already_visited, wrong_checkpoint_order, game_already_complete

🤖 STRATEGY:
- Call game_state often; possible_moves lists every legal next cell
- Watch "stranded": it means some unvisited cell can no longer be reached
- Cells with only one free neighbour must be an end of the path, visit them early
- Use undo to back out of a dead end instead of resetting
- Use bulk_move for long straight runs once you are sure of the route

TOOLS:
- validate_level tells you whether a level is solvable and how many solutions it has
- generate_level makes a fresh level; save it and play it with create_session

SESSION MANAGEMENT:
- Multiple game sessions can run simultaneously
- Each session has unique 4-character ID
- Sessions maintain independent state and level

Good luck, and keep buzzing! 🐝`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %s (%s)\nMode: %s\nPhase: %s\nPath: %d/%d cells, next checkpoint %d of %d\nCreated: %s\nLast Accessed: %s\n",
		session.ID, session.LevelName, session.LevelID, session.Mode, session.GameState.Phase,
		len(session.GameState.Path), session.GameState.CellCount,
		session.GameState.NextCheckpoint, session.GameState.CheckpointCount,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.LastAccessedAt.Format("2006-01-02 15:04:05"))
}

func formatPath(path []grid.Coord) string {
	if len(path) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(path))
	for i, c := range path {
		parts[i] = fmt.Sprintf("(%d,%d)", c.Q, c.R)
	}
	return strings.Join(parts, " ")
}

func formatCells(cells []grid.Coord) string {
	if len(cells) == 0 {
		return "none"
	}
	return formatPath(cells)
}

func formatGameState(state *service.GameStateView) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Phase: %s | Path: %d/%d cells | Next checkpoint: %d of %d\n",
		state.Phase, len(state.Path), state.CellCount, state.NextCheckpoint, state.CheckpointCount)

	if state.IsWin {
		result.WriteString("🎉 VICTORY! Every cell visited with all checkpoints in order.\n")
		if state.ElapsedMs != nil {
			fmt.Fprintf(&result, "Time: %s\n", (time.Duration(*state.ElapsedMs) * time.Millisecond).String())
		}
	} else {
		fmt.Fprintf(&result, "Remaining cells: %d | Remaining checkpoints: %d\n", state.RemainingCells, state.RemainingCheckpoints)
		if state.NextCheckpointCell != nil {
			fmt.Fprintf(&result, "Next checkpoint at (%d,%d), distance %d\n",
				state.NextCheckpointCell.Q, state.NextCheckpointCell.R, state.NextCheckpointDistance)
		}
		fmt.Fprintf(&result, "Possible moves: %s\n", formatCells(state.PossibleMoves))
		if state.Stranded {
			result.WriteString("⚠️ Stranded: some cells can no longer be reached, undo or reset\n")
		}
	}

	fmt.Fprintf(&result, "Path: %s\n\n", formatPath(state.Path))
	result.WriteString(state.Board)
	return result.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %s\n", result.Message)
	} else {
		fmt.Fprintf(&b, "✗ Move to (%d,%d) rejected: %s (%s)\n", result.Target.Q, result.Target.R, result.Message, result.Reason)
	}

	for _, event := range result.Events {
		if event.Type == "checkpoint" || event.Type == "victory" {
			fmt.Fprintf(&b, "• %s\n", event.Message)
		}
	}

	if result.IsWin {
		b.WriteString("🎉 VICTORY!\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Path: %d/%d cells | Next checkpoint: %d of %d\n",
		len(result.GameState.Path), result.GameState.CellCount,
		result.GameState.NextCheckpoint, result.GameState.CheckpointCount)
	fmt.Fprintf(&b, "Possible moves: %s\n", formatCells(result.PossibleMoves))
	if result.Stranded {
		b.WriteString("⚠️ Stranded: some cells can no longer be reached\n")
	}
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s: executed %d/%d moves (path %d → %d)\n",
		sessionID, result.MovesExecuted, result.RequestedMoves, result.StartPathLength, result.EndPathLength)

	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d moves\n", result.Limit)
	}

	for _, step := range result.Steps {
		line := fmt.Sprintf("%d. (%d,%d)", step.Idx, step.Cell.Q, step.Cell.R)
		if step.Checkpoint > 0 {
			line += fmt.Sprintf(" checkpoint %d", step.Checkpoint)
		}
		if step.Win {
			line += " 🎉"
		}
		b.WriteString(line + "\n")
	}

	switch {
	case result.IsWin:
		b.WriteString("🎉 VICTORY!\n")
	case result.StoppedReason != "":
		fmt.Fprintf(&b, "Stopped on move %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}

	if !result.IsWin {
		fmt.Fprintf(&b, "Possible moves: %s\n", formatCells(result.PossibleMoves))
		if result.Stranded {
			b.WriteString("⚠️ Stranded: some cells can no longer be reached\n")
		}
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	result := fmt.Sprintf("Move History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✓"
		if !move.Success {
			status = "✗ " + string(move.Reason)
		}
		target := ""
		if move.Target != nil {
			target = fmt.Sprintf(" (%d,%d)", move.Target.Q, move.Target.R)
		}
		result += fmt.Sprintf("%d. %s%s %s [Path: %d]\n",
			move.MoveNumber, move.Action, target, status, move.PathLength)
	}

	return result
}

func formatValidation(resp *solver.Response) string {
	var b strings.Builder
	switch resp.Outcome {
	case solver.OutcomeSolvable:
		b.WriteString("✓ Level is solvable\n")
	case solver.OutcomeUnsolvable:
		b.WriteString("✗ Level has no solution\n")
	case solver.OutcomeInvalid:
		b.WriteString("✗ Level is structurally invalid\n")
	default:
		b.WriteString("? Search was inconclusive\n")
	}
	if resp.Error != "" {
		fmt.Fprintf(&b, "Reason: %s\n", resp.Error)
	}
	if resp.SolutionCount != nil {
		atLeast := ""
		if resp.CountCapped {
			atLeast = "at least "
		}
		fmt.Fprintf(&b, "Solutions: %s%d\n", atLeast, *resp.SolutionCount)
	}
	if resp.HasUniqueSolution != nil {
		fmt.Fprintf(&b, "Unique: %v\n", *resp.HasUniqueSolution)
	}
	if len(resp.Solution) > 0 {
		fmt.Fprintf(&b, "Solution: %s\n", formatPath(resp.Solution))
	}
	fmt.Fprintf(&b, "Nodes searched: %d\n", resp.Nodes)
	return b.String()
}
