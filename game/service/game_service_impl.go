package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/generator"
	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/solver"
)

var (
	ErrLevelNotFound  = errors.New("level not found")
	ErrInvalidLevel   = errors.New("invalid level")
	ErrInvalidRequest = errors.New("invalid request")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelLibrary
	cfg      Config
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, levels LevelLibrary, cfg Config) GameService {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = def.MaxBatch
	}
	if cfg.Generator.EdgeSize == 0 {
		cfg.Generator = def.Generator
	}
	return &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		cfg:      cfg,
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		LevelName:      sess.LevelName,
		LevelID:        sess.Engine.Level().ID(),
		Mode:           sess.Engine.Mode(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.Snapshot(),
		Level:          sess.Engine.Level(),
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	switch req.Mode {
	case "", engine.ModePractice, engine.ModeDaily:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, req.Mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := req.LevelName
	var level *grid.Level
	switch {
	case req.Level != nil:
		level = req.Level
		if name == "" {
			name = "custom-" + level.ID()
		}
	case name != "":
		var err error
		level, err = s.levels.LoadLevel(name)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				return nil, fmt.Errorf("level '%s' not found, use /api/levels to list available levels: %w", name, err)
			}
			return nil, fmt.Errorf("failed to load level %s: %w", name, err)
		}
	default:
		name, level = s.levels.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", level, name, req.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move extends the path of a session by one cell
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, target grid.Coord, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	res := sess.Engine.TryMove(target)
	result := &MoveResult{
		MoveResult:    res,
		Target:        target,
		GameState:     sess.Engine.Snapshot(),
		PossibleMoves: sess.Engine.PossibleMoves(),
		Stranded:      engine.IsStranded(sess.Engine),
	}
	if res.Success {
		evs := moveEvents(sess.Engine, target, res)
		events = append(events, evs...)
		result.Message = evs[len(evs)-1].Message
	} else {
		result.Message = res.Reason.Message()
		events = append(events, GameEvent{
			Type:      "rejected",
			Message:   fmt.Sprintf("Move to (%d,%d) rejected: %s", target.Q, target.R, res.Reason),
			Timestamp: time.Now(),
			Cell:      &target,
		})
	}
	result.Events = events

	// Auto-save session after move
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after move: %v", sessionID, err)
	}
	return result, nil
}

// BulkMove applies several targets in order, stopping at the first rejection
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, targets []grid.Coord, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(targets),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}
	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}
	result.StartPathLength = len(sess.Engine.State().Path)

	// Limit moves to prevent abuse
	if len(targets) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		targets = targets[:engine.MaxBulkMoves]
	}

	if len(targets) > 0 && sess.Engine.Phase() == engine.Complete {
		result.Success = false
		result.StopReasonCode = string(engine.ReasonGameComplete)
		result.StoppedReason = engine.ReasonGameComplete.Message()
		result.StoppedOnMove = 1
	}

	for i, res := range sess.Engine.BulkMove(targets) {
		target := targets[i]
		if !res.Success {
			result.Success = false
			result.StopReasonCode = string(res.Reason)
			result.StoppedReason = fmt.Sprintf("move %d to (%d,%d) rejected: %s", i+1, target.Q, target.R, res.Reason.Message())
			result.StoppedOnMove = i + 1
			result.AttemptedTo = &target
			break
		}

		result.MovesExecuted++
		result.Events = append(result.Events, moveEvents(sess.Engine, target, res)...)
		cell, _ := sess.Engine.Level().Cell(target)
		result.Steps = append(result.Steps, StepInfo{
			Idx:        i + 1,
			Cell:       target,
			Checkpoint: cell.Checkpoint,
			Win:        res.IsWin,
		})
		if res.IsWin {
			result.IsWin = true
			result.StopReasonCode = "victory"
			if i+1 < len(targets) {
				result.StoppedOnMove = i + 1
				result.StoppedReason = "level complete"
			}
		}
	}

	result.GameState = sess.Engine.Snapshot()
	result.EndPathLength = len(result.GameState.Path)
	result.PossibleMoves = sess.Engine.PossibleMoves()
	result.Stranded = engine.IsStranded(sess.Engine)

	// Auto-save session after bulk moves
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after bulk moves: %v", sessionID, err)
	}
	return result, nil
}

// Undo removes the last cell of the path
func (s *gameServiceImpl) Undo(ctx context.Context, sessionID string) (*UndoResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &UndoResult{Success: sess.Engine.Undo()}
	switch {
	case result.Success:
		result.Message = "Removed the last cell of the path"
	case sess.Engine.Phase() == engine.Complete:
		result.Message = engine.ReasonGameComplete.Message()
	default:
		result.Message = "Nothing to undo"
	}
	result.GameState = sess.Engine.Snapshot()

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after undo: %v", sessionID, err)
	}
	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	sess.Engine.Reset()
	snapshot := sess.Engine.Snapshot()

	// Auto-save session after reset
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after reset: %v", sessionID, err)
	}
	return &snapshot, nil
}

// GetGameState retrieves the current game state with decision aids
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*GameStateView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return stateView(sess.Engine), nil
}

func stateView(e *engine.GameEngine) *GameStateView {
	state := e.State()
	view := &GameStateView{
		Snapshot:             e.Snapshot(),
		PossibleMoves:        e.PossibleMoves(),
		RemainingCells:       engine.RemainingCells(state),
		RemainingCheckpoints: engine.RemainingCheckpoints(state),
		Stranded:             engine.IsStranded(e),
		Board:                RenderBoard(state.Level, state.Path),
	}
	if view.PossibleMoves == nil {
		view.PossibleMoves = []grid.Coord{}
	}
	if target, dist, ok := engine.NextCheckpointTarget(state); ok {
		view.NextCheckpointCell = &target
		view.NextCheckpointDistance = dist
	}
	return view
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.History()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	var moves []engine.HistoryEntry
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}
	if moves == nil {
		moves = []engine.HistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListLevels returns the levels in the library
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads a level from the library
func (s *gameServiceImpl) LoadLevel(ctx context.Context, name string) (*grid.Level, error) {
	return s.levels.LoadLevel(name)
}

// SaveLevel stores a level in the library
func (s *gameServiceImpl) SaveLevel(ctx context.Context, name string, level *grid.Level) error {
	if name == "" {
		return fmt.Errorf("%w: level name is required", ErrInvalidRequest)
	}
	if level == nil {
		return fmt.Errorf("%w: level is required", ErrInvalidRequest)
	}
	return s.levels.SaveLevel(name, level)
}

// ValidateLevel runs the solver on a level. A positive countLimit counts
// solutions up to that limit instead of stopping at the first.
func (s *gameServiceImpl) ValidateLevel(ctx context.Context, level *grid.Level, countLimit int) solver.Result {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := solver.Options{NodeBudget: s.cfg.NodeBudget}
	if countLimit > 0 {
		return solver.CountSolutions(ctx, level, countLimit, opts)
	}
	return solver.Validate(ctx, level, opts)
}

// GenerateLevel builds a new level. Zero fields of opts fall back to the
// configured generator defaults.
func (s *gameServiceImpl) GenerateLevel(ctx context.Context, opts generator.Options) (*generator.Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return generator.Generate(ctx, s.generatorOptions(opts))
}

func (s *gameServiceImpl) generatorOptions(req generator.Options) generator.Options {
	opts := s.cfg.Generator
	if req.EdgeSize != 0 && req.EdgeSize != opts.EdgeSize {
		def := generator.DefaultOptions(req.EdgeSize)
		opts.EdgeSize = req.EdgeSize
		opts.Checkpoints = def.Checkpoints
		opts.MaxAttempts = max(opts.MaxAttempts, def.MaxAttempts)
	}
	if req.Checkpoints != 0 {
		opts.Checkpoints = req.Checkpoints
	}
	if req.WallDensity != 0 {
		opts.WallDensity = req.WallDensity
	}
	if req.MaxAttempts != 0 {
		opts.MaxAttempts = req.MaxAttempts
	}
	opts.Seed = req.Seed
	if opts.NodeBudget == 0 {
		opts.NodeBudget = s.cfg.NodeBudget
	}
	return opts
}

// GenerateBatch generates several levels concurrently and optionally saves
// them to the library under "gen-<size>-<hash>".
func (s *gameServiceImpl) GenerateBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if req.Count < 1 || req.Count > s.cfg.MaxBatch {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidRequest, s.cfg.MaxBatch)
	}

	base := req.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}

	items := make([]BatchItem, req.Count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i := 0; i < req.Count; i++ {
		opts := generator.Options{
			EdgeSize:    req.Size,
			Checkpoints: req.Checkpoints,
			WallDensity: req.WallDensity,
			Seed:        base + int64(i),
		}
		if opts.Seed == 0 {
			// zero would ask the generator for a clock seed
			opts.Seed = base + int64(req.Count)
		}
		g.Go(func() error {
			item := BatchItem{Index: i, Seed: opts.Seed}
			res, err := s.GenerateLevel(gctx, opts)
			if err != nil {
				item.Error = err.Error()
				items[i] = item
				return nil
			}
			item.LevelID = res.Level.ID()
			item.WallCount = res.Stats.WallCount
			item.Attempts = res.Stats.Attempts
			if req.Save {
				name := fmt.Sprintf("gen-%d-%s", res.Level.Size(), item.LevelID)
				if err := s.levels.SaveLevel(name, res.Level); err != nil {
					item.Error = fmt.Sprintf("save: %v", err)
				} else {
					item.Name = name
				}
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch generation: %w", err)
	}

	result := &BatchResult{Items: items}
	for _, item := range items {
		if item.Error == "" {
			result.Generated++
		} else {
			result.Failed++
		}
	}
	log.Printf("[BATCH] generated=%d failed=%d size=%d", result.Generated, result.Failed, req.Size)
	return result, nil
}

func (s *gameServiceImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Game reset to initial state",
		Timestamp: time.Now(),
	}
}

// moveEvents describes a successful move. The last event is the most
// significant one.
func moveEvents(e *engine.GameEngine, target grid.Coord, res engine.MoveResult) []GameEvent {
	now := time.Now()
	cell, _ := e.Level().Cell(target)
	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved to (%d,%d)", target.Q, target.R),
		Timestamp: now,
		Cell:      &target,
	}}

	if cell.Checkpoint > 0 {
		events = append(events, GameEvent{
			Type:      "checkpoint",
			Message:   fmt.Sprintf("Checkpoint %d of %d reached", cell.Checkpoint, e.Level().CheckpointCount()),
			Timestamp: now,
			Cell:      &target,
		})
	}

	if res.IsWin {
		msg := "Level complete!"
		if elapsed, ok := e.Elapsed(); ok {
			msg = fmt.Sprintf("Level complete in %s!", elapsed.Round(time.Millisecond))
		}
		events = append(events, GameEvent{
			Type:      "victory",
			Message:   msg,
			Timestamp: now,
		})
	}
	return events
}
