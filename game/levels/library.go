package levels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = service.ErrInvalidLevel
)

// DefaultLevelName is the level preferred as the library default.
const DefaultLevelName = "starter"

// Library loads levels from a directory of JSON files and caches them
type Library struct {
	dir          string
	defaultName  string
	defaultLevel *grid.Level
	levels       map[string]*grid.Level
	mu           sync.RWMutex
}

// NewLibrary creates a level library rooted at dir
func NewLibrary(dir string) (*Library, error) {
	// Ensure level directory exists
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", dir)
	}

	l := &Library{
		dir:    dir,
		levels: make(map[string]*grid.Level),
	}
	l.loadDefault()
	return l, nil
}

// LoadLevel loads a level by name. Structurally unsound levels are rejected
// with ErrInvalidLevel.
func (l *Library) LoadLevel(name string) (*grid.Level, error) {
	name = strings.TrimSuffix(name, ".json")

	l.mu.RLock()
	// Check cache first
	if level, exists := l.levels[name]; exists {
		l.mu.RUnlock()
		return level, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := l.levels[name]; exists {
		return level, nil
	}

	level, err := l.read(name)
	if err != nil {
		return nil, err
	}
	l.levels[name] = level
	return level, nil
}

func (l *Library) read(name string) (*grid.Level, error) {
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, name)
		}
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	level, err := grid.ParseLevel(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLevel, name, err)
	}
	if err := level.CheckStructure(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLevel, name, err)
	}
	return level, nil
}

func (l *Library) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: level name %q", service.ErrInvalidRequest, name)
	}
	return filepath.Join(l.dir, name+".json"), nil
}

// ListLevels returns information about every valid level in the directory,
// sorted by name
func (l *Library) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	infos := []*service.LevelInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		level, err := l.LoadLevel(name)
		if err != nil {
			// Skip invalid levels
			continue
		}
		infos = append(infos, Info(entry.Name(), name, level))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Info summarises a level for listings
func Info(filename, name string, level *grid.Level) *service.LevelInfo {
	return &service.LevelInfo{
		Filename:        filename,
		Name:            name,
		ID:              level.ID(),
		Size:            level.Size(),
		CellCount:       level.CellCount(),
		CheckpointCount: level.CheckpointCount(),
		WallCount:       level.WallCount(),
	}
}

// GetDefault returns the default level and its name
func (l *Library) GetDefault() (string, *grid.Level) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.defaultName, l.defaultLevel
}

// SetDefault sets the default level by name
func (l *Library) SetDefault(name string) error {
	level, err := l.LoadLevel(name)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.defaultName = strings.TrimSuffix(name, ".json")
	l.defaultLevel = level
	return nil
}

// Count returns the number of cached levels
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.levels)
}

// RefreshCache drops cached levels and picks the default again from disk
func (l *Library) RefreshCache() {
	l.mu.Lock()
	l.levels = make(map[string]*grid.Level)
	l.mu.Unlock()

	l.loadDefault()
}

// loadDefault picks starter.json, then the first valid level, then a
// built-in level.
func (l *Library) loadDefault() {
	name := DefaultLevelName
	level, err := l.LoadLevel(name)
	if err != nil {
		infos, listErr := l.ListLevels()
		if listErr != nil || len(infos) == 0 {
			name, level = "default", BuiltinLevel()
		} else {
			name = infos[0].Name
			level, err = l.LoadLevel(name)
			if err != nil {
				name, level = "default", BuiltinLevel()
			}
		}
	}

	l.mu.Lock()
	l.defaultName = name
	l.defaultLevel = level
	l.mu.Unlock()
}

// SaveLevel writes a level to disk and caches it
func (l *Library) SaveLevel(name string, level *grid.Level) error {
	name = strings.TrimSuffix(name, ".json")
	if level == nil {
		return fmt.Errorf("%w: level is nil", ErrInvalidLevel)
	}
	if err := level.CheckStructure(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	path, err := l.path(name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(level, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	l.mu.Lock()
	l.levels[name] = level
	l.mu.Unlock()
	return nil
}

// BuiltinLevel is the 7-cell level used when the directory has no valid level
func BuiltinLevel() *grid.Level {
	cells := make([]grid.Cell, 0, 7)
	for _, c := range grid.Disk(1) {
		cell := grid.Cell{Coord: c}
		switch c {
		case (grid.Coord{Q: 0, R: 0}):
			cell.Checkpoint = 1
		case (grid.Coord{Q: 1, R: -1}):
			cell.Checkpoint = 2
		case (grid.Coord{Q: 0, R: 1}):
			cell.Checkpoint = 3
		}
		cells = append(cells, cell)
	}
	level, err := grid.NewLevel(2, cells, nil, 3)
	if err != nil {
		panic(fmt.Sprintf("builtin level: %v", err))
	}
	return level
}
