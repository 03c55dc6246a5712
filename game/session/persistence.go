package session

import (
	"fmt"
	"time"

	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// The level travels with the session so generated and inline levels survive
// a restart.
type PersistedSessionData struct {
	ID             string                `json:"id"`
	LevelName      string                `json:"level_name"`
	Mode           string                `json:"mode"`
	Level          *grid.Level           `json:"level"`
	Path           []grid.Coord          `json:"path"`
	StartedAt      *time.Time            `json:"started_at,omitempty"`
	EndedAt        *time.Time            `json:"ended_at,omitempty"`
	History        []engine.HistoryEntry `json:"history,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	LastAccessedAt time.Time             `json:"last_accessed_at"`
}

func encodeSession(session *service.Session) PersistedSessionData {
	state := session.Engine.State()
	return PersistedSessionData{
		ID:             session.ID,
		LevelName:      session.LevelName,
		Mode:           state.Mode,
		Level:          state.Level,
		Path:           state.Path,
		StartedAt:      state.StartedAt,
		EndedAt:        state.EndedAt,
		History:        session.Engine.History(),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
	}
}

// decodeSession rebuilds a live session. The path is replayed through the
// move rules, so a tampered record fails to load.
func decodeSession(data PersistedSessionData) (*service.Session, error) {
	if data.Level == nil {
		return nil, fmt.Errorf("session %s has no level", data.ID)
	}

	gameEngine, err := engine.NewEngine(data.Level, data.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	if err := gameEngine.Restore(data.Path, data.StartedAt, data.EndedAt); err != nil {
		return nil, fmt.Errorf("failed to restore game state: %w", err)
	}
	if data.History != nil {
		gameEngine.SetHistory(data.History)
	}

	return &service.Session{
		ID:             data.ID,
		Engine:         gameEngine,
		LevelName:      data.LevelName,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}
