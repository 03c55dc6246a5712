package grid

import (
	"encoding/json"
	"fmt"
)

// levelJSON is the wire shape of a level.
type levelJSON struct {
	Size            int        `json:"size"`
	Cells           []cellJSON `json:"cells"`
	Walls           []wallJSON `json:"walls"`
	CheckpointCount int        `json:"checkpointCount"`
}

type cellJSON struct {
	Q          int `json:"q"`
	R          int `json:"r"`
	Checkpoint int `json:"checkpoint,omitempty"`
}

type wallJSON struct {
	Q1 int `json:"q1"`
	R1 int `json:"r1"`
	Q2 int `json:"q2"`
	R2 int `json:"r2"`
}

// MarshalJSON encodes the level in canonical order.
func (l *Level) MarshalJSON() ([]byte, error) {
	out := levelJSON{
		Size:            l.size,
		Cells:           make([]cellJSON, 0, len(l.order)),
		Walls:           make([]wallJSON, 0, len(l.wallOrder)),
		CheckpointCount: l.checkpointCount,
	}
	for _, c := range l.order {
		out.Cells = append(out.Cells, cellJSON{Q: c.Q, R: c.R, Checkpoint: l.cells[c].Checkpoint})
	}
	for _, w := range l.wallOrder {
		out.Walls = append(out.Walls, wallJSON{Q1: w.A.Q, R1: w.A.R, Q2: w.B.Q, R2: w.B.R})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes and validates a level.
func (l *Level) UnmarshalJSON(data []byte) error {
	var in levelJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	cells := make([]Cell, len(in.Cells))
	for i, c := range in.Cells {
		cells[i] = Cell{Coord: Coord{Q: c.Q, R: c.R}, Checkpoint: c.Checkpoint}
	}
	walls := make([]Edge, len(in.Walls))
	for i, w := range in.Walls {
		walls[i] = Edge{A: Coord{Q: w.Q1, R: w.R1}, B: Coord{Q: w.Q2, R: w.R2}}
	}
	built, err := NewLevel(in.Size, cells, walls, in.CheckpointCount)
	if err != nil {
		return err
	}
	*l = *built
	return nil
}

// ParseLevel decodes a level from JSON.
func ParseLevel(data []byte) (*Level, error) {
	var l Level
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	return &l, nil
}
