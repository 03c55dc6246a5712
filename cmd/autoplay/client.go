package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/service"
)

// Client plays one session through the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

type cellRequest struct {
	Q int `json:"q"`
	R int `json:"r"`
}

type bulkMoveRequest struct {
	Moves []cellRequest `json:"moves"`
	Reset bool          `json:"reset,omitempty"`
}

type resetResponse struct {
	Message string           `json:"message"`
	State   *engine.Snapshot `json:"state"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is bound to
func (c *Client) SessionID() string {
	return c.sessionID
}

// do sends body as JSON and decodes the response into result. Non-2xx
// responses are returned as errors carrying the API error message.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse %s response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}

// CreateSession starts a session on the named level (the server default
// when empty) and binds the client to it
func (c *Client) CreateSession(ctx context.Context, levelName string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	req := service.CreateSessionRequest{LevelName: levelName}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

// Resume binds the client to an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	c.sessionID = sessionID
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodGet, c.sessionPath(""), nil, &info); err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	return &info, nil
}

func (c *Client) GetState(ctx context.Context) (*service.GameStateView, error) {
	var state service.GameStateView
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

// Move extends the path. A rejected move is not an error: check Success.
func (c *Client) Move(ctx context.Context, target grid.Coord) (*service.MoveResult, error) {
	var res service.MoveResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/move"), cellRequest{Q: target.Q, R: target.R}, &res); err != nil {
		return nil, fmt.Errorf("move: %w", err)
	}
	return &res, nil
}

func (c *Client) BulkMove(ctx context.Context, targets []grid.Coord) (*service.BulkMoveResult, error) {
	req := bulkMoveRequest{Moves: make([]cellRequest, len(targets))}
	for i, t := range targets {
		req.Moves[i] = cellRequest{Q: t.Q, R: t.R}
	}
	var res service.BulkMoveResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/bulk-move"), req, &res); err != nil {
		return nil, fmt.Errorf("bulk move: %w", err)
	}
	return &res, nil
}

func (c *Client) Undo(ctx context.Context) (*service.UndoResult, error) {
	var res service.UndoResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/undo"), nil, &res); err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}
	return &res, nil
}

func (c *Client) Reset(ctx context.Context) (*engine.Snapshot, error) {
	var res resetResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &res); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return res.State, nil
}
