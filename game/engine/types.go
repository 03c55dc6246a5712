package engine

import (
	"time"

	"github.com/wricardo/hexbuzz/game/grid"
)

// Phase is the lifecycle stage of an attempt.
type Phase string

const (
	NotStarted Phase = "not_started"
	InProgress Phase = "in_progress"
	Complete   Phase = "complete"
)

// Default play modes. The engine carries the mode through resets but never
// interprets it.
const (
	ModePractice = "practice"
	ModeDaily    = "daily"

	MaxBulkMoves = 200
)

// Reason is a move or win diagnostic code. Reasons double as errors so shells
// can compare them with errors.Is.
type Reason string

// Move rejection reasons.
const (
	ReasonNone                 Reason = ""
	ReasonNotAdjacent          Reason = "not_adjacent"
	ReasonWallBlocked          Reason = "wall_blocked"
	ReasonAlreadyVisited       Reason = "already_visited"
	ReasonWrongCheckpointOrder Reason = "wrong_checkpoint_order"
	ReasonNotStartCell         Reason = "not_start_cell"
	ReasonCellNotInLevel       Reason = "cell_not_in_level"
	ReasonGameComplete         Reason = "game_already_complete"
)

// Win diagnostics.
const (
	ReasonPathIncomplete       Reason = "path_incomplete"
	ReasonCheckpointsRemaining Reason = "checkpoints_remaining"
)

func (r Reason) Error() string { return string(r) }

// Message returns a player-facing description of the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonNotAdjacent:
		return "That cell is not next to the end of your path."
	case ReasonWallBlocked:
		return "A wall blocks that edge."
	case ReasonAlreadyVisited:
		return "That cell is already part of your path."
	case ReasonWrongCheckpointOrder:
		return "Checkpoints must be visited in ascending order."
	case ReasonNotStartCell:
		return "The path must start on checkpoint 1."
	case ReasonCellNotInLevel:
		return "That cell is not part of this level."
	case ReasonGameComplete:
		return "The level is already complete."
	case ReasonPathIncomplete:
		return "Some cells have not been visited yet."
	case ReasonCheckpointsRemaining:
		return "Some checkpoints have not been reached yet."
	}
	return ""
}

// MoveCheck is the outcome of IsValidMove.
type MoveCheck struct {
	Valid  bool
	Reason Reason
}

// WinCheck is the outcome of CheckWinCondition.
type WinCheck struct {
	Win    bool
	Reason Reason
}

// MoveResult is what TryMove reports to its caller.
type MoveResult struct {
	Success bool   `json:"success"`
	IsWin   bool   `json:"isWin"`
	Reason  Reason `json:"error,omitempty"`
}

// Err returns the rejection reason as an error, or nil on success.
func (r MoveResult) Err() error {
	if r.Success {
		return nil
	}
	return r.Reason
}

// HistoryAction names an engine operation recorded in the move history.
type HistoryAction string

const (
	ActionMove  HistoryAction = "move"
	ActionUndo  HistoryAction = "undo"
	ActionReset HistoryAction = "reset"
)

// HistoryEntry records a single engine operation.
type HistoryEntry struct {
	Action     HistoryAction `json:"action"`
	Target     *grid.Coord   `json:"target,omitempty"`
	Success    bool          `json:"success"`
	Reason     Reason        `json:"reason,omitempty"`
	PathLength int           `json:"path_length"`
	Timestamp  int64         `json:"timestamp"`
	MoveNumber int           `json:"move_number"`
}

// Snapshot is the serialisable view of a game state handed to shells.
type Snapshot struct {
	LevelID         string       `json:"level_id"`
	Mode            string       `json:"mode"`
	Phase           Phase        `json:"phase"`
	Path            []grid.Coord `json:"path"`
	NextCheckpoint  int          `json:"next_checkpoint"`
	CheckpointCount int          `json:"checkpoint_count"`
	CellCount       int          `json:"cell_count"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	EndedAt         *time.Time   `json:"ended_at,omitempty"`
	ElapsedMs       *int64       `json:"elapsed_ms,omitempty"`
	IsWin           bool         `json:"is_win"`
}
