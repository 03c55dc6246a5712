package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wricardo/hexbuzz/game/generator"
	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/service"
	"github.com/wricardo/hexbuzz/game/session"
	"github.com/wricardo/hexbuzz/game/solver"
	"github.com/wricardo/hexbuzz/transport/websocket"
)

// RequestIDHeader carries the per-request identifier
const RequestIDHeader = "X-Request-ID"

// maxBodySize limits request bodies; the largest level is a few kilobytes
const maxBodySize = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil when no live viewers
// are served.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(requestIDMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/bulk-move", s.handleBulkMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/undo", s.handleUndo).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Levels
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels", s.handleSaveLevel).Methods("POST")
	api.HandleFunc("/levels/{name}", s.handleGetLevel).Methods("GET")

	// Puzzle tools
	api.HandleFunc("/validate", s.handleValidate).Methods("POST")
	api.HandleFunc("/generate", s.handleGenerate).Methods("POST")
	api.HandleFunc("/generate/batch", s.handleGenerateBatch).Methods("POST")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// statusRecorder remembers the status written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrade take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// requestIDMiddleware tags every request with an ID and logs one line per
// request
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Printf("[HTTP] id=%s %s %s %d %s", id, r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service and store errors to status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	var structErr *grid.StructureError
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, service.ErrLevelNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidLevel),
		errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, generator.ErrInvalidSize),
		errors.Is(err, generator.ErrInvalidOptions),
		errors.As(err, &structErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched when
// allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("request body is required")
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
	if errors.Is(err, io.EOF) {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("request body is required")
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

func (s *Server) broadcast(sessionID, event string, state interface{}) {
	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, event, state)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.service.CreateSession(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[SESSION] created id=%s level=%s mode=%s", info.ID, info.LevelName, info.Mode)
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return
	levelName := query.Get("level")

	// Set defaults
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if levelName != "" {
		filtered := sessions[:0]
		for _, sess := range sessions {
			if sess.LevelName == levelName {
				filtered = append(filtered, sess)
			}
		}
		sessions = filtered
	}
	total := len(sessions)

	// Sort sessions
	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else { // "accessed"
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj) // desc
	})

	// Apply limit if specified
	limit := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, websocket.EventDeleted, nil)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// cellRequest is a target cell in axial coordinates. Pointers detect
// missing fields.
type cellRequest struct {
	Q *int `json:"q"`
	R *int `json:"r"`
}

func (c cellRequest) coord() (grid.Coord, error) {
	if c.Q == nil || c.R == nil {
		return grid.Coord{}, fmt.Errorf("both q and r are required")
	}
	return grid.Coord{Q: *c.Q, R: *c.R}, nil
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		cellRequest
		Reset bool `json:"reset,omitempty"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	target, err := req.coord()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, target, req.Reset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	event := websocket.EventMove
	if result.IsWin {
		event = websocket.EventVictory
	}
	s.broadcast(sessionID, event, result.GameState)

	// Compact server log for observability
	status := "OK"
	if !result.Success {
		status = "FAIL:" + string(result.Reason)
	}
	log.Printf("[MOVE] session=%s to=(%d,%d) path=%d next=%d/%d status=%s",
		sessionID, target.Q, target.R, len(result.GameState.Path),
		result.GameState.NextCheckpoint, result.GameState.CheckpointCount, status)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Moves []cellRequest `json:"moves"`
		Reset bool          `json:"reset,omitempty"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	targets := make([]grid.Coord, 0, len(req.Moves))
	for i, m := range req.Moves {
		target, err := m.coord()
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("move %d: %v", i+1, err))
			return
		}
		targets = append(targets, target)
	}

	result, err := s.service.BulkMove(r.Context(), sessionID, targets, req.Reset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	event := websocket.EventMove
	if result.IsWin {
		event = websocket.EventVictory
	}
	s.broadcast(sessionID, event, result.GameState)

	// Compact server log for observability
	stop := result.StopReasonCode
	if stop == "" {
		stop = "none"
	}
	log.Printf("[BULK] session=%s exec=%d/%d stop=%s path=%d->%d",
		sessionID, result.MovesExecuted, result.RequestedMoves, stop, result.StartPathLength, result.EndPathLength)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Undo(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.Success {
		s.broadcast(sessionID, websocket.EventUndo, result.GameState)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, websocket.EventReset, state)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	// Parse query parameters
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Level Handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	infos, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	level, err := s.service.LoadLevel(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, level)
}

func (s *Server) handleSaveLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string      `json:"name"`
		Level *grid.Level `json:"level"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.SaveLevel(r.Context(), req.Name, req.Level); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Level saved successfully",
		"level_id": strings.TrimSuffix(req.Name, ".json"),
		"hash":     req.Level.ID(),
	})
}

// Puzzle Tool Handlers

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	countLimit := 0
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		countLimit = n
	}

	var level grid.Level
	if err := decodeJSON(w, r, &level, false); err != nil {
		respondJSON(w, http.StatusBadRequest, solver.Response{
			Outcome: solver.OutcomeInvalid,
			Error:   err.Error(),
		})
		return
	}

	result := s.service.ValidateLevel(r.Context(), &level, countLimit)
	log.Printf("[VALIDATE] level=%s outcome=%s nodes=%d dur=%s", level.ID(), result.Outcome, result.Nodes, result.Duration.Round(time.Millisecond))
	respondJSON(w, http.StatusOK, result.Response())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Size        int     `json:"size"`
		Seed        int64   `json:"seed,omitempty"`
		Checkpoints int     `json:"checkpoints,omitempty"`
		WallDensity float64 `json:"wall_density,omitempty"`
		Save        bool    `json:"save,omitempty"`
		Name        string  `json:"name,omitempty"`
	}
	if err := decodeJSON(w, r, &req, true); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.service.GenerateLevel(r.Context(), generator.Options{
		EdgeSize:    req.Size,
		Seed:        req.Seed,
		Checkpoints: req.Checkpoints,
		WallDensity: req.WallDensity,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			// Exhausted attempts and timeouts are outcomes, not failures
			status = http.StatusOK
		}
		respondJSON(w, status, generator.NewResponse(nil, err))
		return
	}

	resp := struct {
		generator.Response
		Name string `json:"level_name,omitempty"`
	}{Response: generator.NewResponse(res, nil)}

	if req.Save {
		name := req.Name
		if name == "" {
			name = fmt.Sprintf("gen-%d-%s", res.Level.Size(), res.Level.ID())
		}
		if err := s.service.SaveLevel(r.Context(), name, res.Level); err != nil {
			respondServiceError(w, err)
			return
		}
		resp.Name = strings.TrimSuffix(name, ".json")
	}

	log.Printf("[GENERATE] size=%d level=%s walls=%d attempts=%d", res.Level.Size(), res.Level.ID(), res.Stats.WallCount, res.Stats.Attempts)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req service.BatchRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.GenerateBatch(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "live updates are disabled")
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session parameter required")
		return
	}

	// Verify session exists
	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Upgrade to WebSocket
	s.hub.ServeWS(w, r, sessionID)

	// Bring the new viewer up to date
	s.hub.BroadcastToSession(sessionID, websocket.EventState, state.Snapshot)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
