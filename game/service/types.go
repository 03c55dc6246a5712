package service

import (
	"time"

	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/grid"
)

// CreateSessionRequest selects the level for a new session. Level takes
// precedence over LevelName; with neither the library default is used.
type CreateSessionRequest struct {
	LevelName string      `json:"level_id,omitempty"`
	Level     *grid.Level `json:"level,omitempty"`
	Mode      string      `json:"mode,omitempty"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string          `json:"id"`
	LevelName      string          `json:"level_name"`
	LevelID        string          `json:"level_id"`
	Mode           string          `json:"mode"`
	CreatedAt      time.Time       `json:"created_at"`
	LastAccessedAt time.Time       `json:"last_accessed_at"`
	GameState      engine.Snapshot `json:"game_state"`
	Level          *grid.Level     `json:"level"`
}

// GameStateView is a snapshot enriched with decision aids for clients
type GameStateView struct {
	engine.Snapshot
	PossibleMoves          []grid.Coord `json:"possible_moves"`
	RemainingCells         int          `json:"remaining_cells"`
	RemainingCheckpoints   int          `json:"remaining_checkpoints"`
	NextCheckpointCell     *grid.Coord  `json:"next_checkpoint_cell,omitempty"`
	NextCheckpointDistance int          `json:"next_checkpoint_distance,omitempty"`
	Stranded               bool         `json:"stranded"`
	Board                  string       `json:"board"`
}

// MoveResult contains the result of a move operation. The embedded engine
// result carries the live play contract fields.
type MoveResult struct {
	engine.MoveResult
	Message       string          `json:"message"`
	GameState     engine.Snapshot `json:"game_state"`
	Events        []GameEvent     `json:"events,omitempty"`
	Target        grid.Coord      `json:"target"`
	PossibleMoves []grid.Coord    `json:"possible_moves"`
	Stranded      bool            `json:"stranded,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	MovesExecuted  int             `json:"moves_executed"`
	RequestedMoves int             `json:"requested_moves"`
	Success        bool            `json:"success"`
	IsWin          bool            `json:"isWin"`
	GameState      engine.Snapshot `json:"game_state"`
	Events         []GameEvent     `json:"events"`
	StoppedReason  string          `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string          `json:"stop_reason_code,omitempty"` // engine reason code or "victory"
	StoppedOnMove  int             `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool            `json:"truncated,omitempty"`
	Limit          int             `json:"limit,omitempty"`

	StartPathLength int `json:"start_path_length"`
	EndPathLength   int `json:"end_path_length"`

	Steps         []StepInfo   `json:"steps,omitempty"`
	AttemptedTo   *grid.Coord  `json:"attempted_to,omitempty"`
	PossibleMoves []grid.Coord `json:"possible_moves,omitempty"`
	Stranded      bool         `json:"stranded,omitempty"`
}

// StepInfo is a compact record for each executed move in the bulk call
type StepInfo struct {
	Idx        int        `json:"idx"`
	Cell       grid.Coord `json:"cell"`
	Checkpoint int        `json:"checkpoint,omitempty"`
	Win        bool       `json:"win,omitempty"`
}

// UndoResult reports whether the last cell was removed
type UndoResult struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	GameState engine.Snapshot `json:"game_state"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string      `json:"type"` // "move", "checkpoint", "victory", "rejected", "undo", "reset"
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
	Cell      *grid.Coord `json:"cell,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.HistoryEntry `json:"moves"`
	TotalMoves  int                   `json:"total_moves"`
	Page        int                   `json:"page"`
	PageSize    int                   `json:"page_size"`
	TotalPages  int                   `json:"total_pages"`
	HasNext     bool                  `json:"has_next"`
	HasPrevious bool                  `json:"has_previous"`
}

// LevelInfo provides information about a stored level
type LevelInfo struct {
	Filename        string `json:"filename"`
	Name            string `json:"level_id"` // The identifier to use for session creation
	ID              string `json:"hash"`
	Size            int    `json:"size"`
	CellCount       int    `json:"cell_count"`
	CheckpointCount int    `json:"checkpoint_count"`
	WallCount       int    `json:"wall_count"`
}

// BatchRequest asks for several generated levels at once
type BatchRequest struct {
	Count int  `json:"count"`
	Save  bool `json:"save"`
	// Options for every level. The seed of level i is Seed+i; a zero Seed
	// picks one base seed for the whole batch.
	Size        int     `json:"size"`
	Seed        int64   `json:"seed,omitempty"`
	Checkpoints int     `json:"checkpoints,omitempty"`
	WallDensity float64 `json:"wall_density,omitempty"`
}

// BatchItem is the outcome of one level in a batch
type BatchItem struct {
	Index     int    `json:"index"`
	Name      string `json:"level_id,omitempty"`
	LevelID   string `json:"hash,omitempty"`
	WallCount int    `json:"wall_count,omitempty"`
	Attempts  int    `json:"attempts,omitempty"`
	Seed      int64  `json:"seed"`
	Error     string `json:"error,omitempty"`
}

// BatchResult summarises a batch generation run
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Generated int         `json:"generated"`
	Failed    int         `json:"failed"`
}
