package generator

import (
	"github.com/wricardo/hexbuzz/game/grid"
)

// Response is the JSON shape handed to API and CLI callers.
type Response struct {
	Generated    bool           `json:"generated"`
	Level        *grid.Level    `json:"level,omitempty"`
	LevelID      string         `json:"levelId,omitempty"`
	SolutionPath []grid.Coord   `json:"solutionPath,omitempty"`
	Stats        *ResponseStats `json:"stats,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// ResponseStats is the serialised form of Stats.
type ResponseStats struct {
	WallCount   int   `json:"wallCount"`
	Attempts    int   `json:"attempts"`
	Nodes       int64 `json:"nodes"`
	Checkpoints int   `json:"checkpoints"`
	Unique      bool  `json:"unique"`
	Seed        int64 `json:"seed"`
	DurationMs  int64 `json:"durationMs"`
}

// NewResponse renders the outcome of Generate.
func NewResponse(res *Result, err error) Response {
	if err != nil {
		return Response{Error: err.Error()}
	}
	return Response{
		Generated:    true,
		Level:        res.Level,
		LevelID:      res.Level.ID(),
		SolutionPath: res.Solution,
		Stats: &ResponseStats{
			WallCount:   res.Stats.WallCount,
			Attempts:    res.Stats.Attempts,
			Nodes:       res.Stats.Nodes,
			Checkpoints: res.Stats.Checkpoints,
			Unique:      res.Stats.Unique,
			Seed:        res.Stats.Seed,
			DurationMs:  res.Stats.Duration.Milliseconds(),
		},
	}
}
