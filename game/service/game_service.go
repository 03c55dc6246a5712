package service

import (
	"context"
	"time"

	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/generator"
	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/solver"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID string, target grid.Coord, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, targets []grid.Coord, reset bool) (*BulkMoveResult, error)
	Undo(ctx context.Context, sessionID string) (*UndoResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*GameStateView, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, name string) (*grid.Level, error)
	SaveLevel(ctx context.Context, name string, level *grid.Level) error

	// Puzzle tools
	ValidateLevel(ctx context.Context, level *grid.Level, countLimit int) solver.Result
	GenerateLevel(ctx context.Context, opts generator.Options) (*generator.Result, error)
	GenerateBatch(ctx context.Context, req BatchRequest) (*BatchResult, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, level *grid.Level, levelName, mode string) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LevelLibrary handles level loading and storage
type LevelLibrary interface {
	LoadLevel(name string) (*grid.Level, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() (string, *grid.Level)
	SaveLevel(name string, level *grid.Level) error
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	LevelName      string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Config tunes the puzzle tools exposed by the service
type Config struct {
	// NodeBudget caps every solver run started by the service. 0 means unbounded.
	NodeBudget int64
	// Timeout bounds validation and generation calls. 0 means no timeout.
	Timeout time.Duration
	// Generator holds the defaults merged into generation requests.
	Generator generator.Options
	// Workers limits concurrent generations in a batch.
	Workers int
	// MaxBatch caps the number of levels in one batch.
	MaxBatch int
}

// DefaultConfig returns the service configuration used when none is given
func DefaultConfig() Config {
	return Config{
		NodeBudget: 5_000_000,
		Timeout:    30 * time.Second,
		Generator:  generator.DefaultOptions(4),
		Workers:    4,
		MaxBatch:   50,
	}
}
