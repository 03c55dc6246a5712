package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

const (
	maxSessionIDLen = 32
	// idAttempts bounds the search for an unused random ID.
	idAttempts = 16
)

// Manager keeps live sessions in memory and writes them through to an
// optional persistence backend. IDs are case-insensitive.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*service.Session
	persistence SessionPersistence
}

// NewManager creates a memory-only session manager
func NewManager() *Manager {
	return NewManagerWithPersistence(nil)
}

// NewManagerWithPersistence creates a session manager backed by persistence.
// A nil backend keeps sessions in memory only.
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		persistence: persistence,
	}
}

func key(id string) string { return strings.ToLower(id) }

// checkID accepts 1-32 characters of letters, digits, '-' and '_'. IDs end
// up in file names and Redis keys.
func checkID(id string) error {
	if id == "" || len(id) > maxSessionIDLen {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
		}
	}
	return nil
}

// Create starts a session on level. An empty id gets a random 4-character
// one; a taken id, in memory or in storage, is rejected.
func (m *Manager) Create(id string, level *grid.Level, levelName, mode string) (*service.Session, error) {
	if id != "" {
		if err := checkID(id); err != nil {
			return nil, err
		}
	}

	eng, err := engine.NewEngine(level, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		if id, err = m.unusedID(); err != nil {
			return nil, err
		}
	} else if m.taken(id) {
		return nil, fmt.Errorf("%w: %s", ErrSessionAlreadyExists, id)
	}

	now := time.Now()
	sess := &service.Session{
		ID:             id,
		Engine:         eng,
		LevelName:      levelName,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[key(id)] = sess
	m.persist(sess, "creation")
	return sess, nil
}

// taken reports whether id is live or stored. Callers hold m.mu.
func (m *Manager) taken(id string) bool {
	if _, ok := m.sessions[key(id)]; ok {
		return true
	}
	return m.persistence != nil && m.persistence.Exists(id)
}

// unusedID draws random IDs until one is free. Callers hold m.mu.
func (m *Manager) unusedID() (string, error) {
	for i := 0; i < idAttempts; i++ {
		id, err := generateSessionID()
		if err != nil {
			return "", err
		}
		if !m.taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no free ID after %d tries", ErrSessionAlreadyExists, idAttempts)
}

// generateSessionID returns 4 lower-case hex characters
func generateSessionID() (string, error) {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// persist writes sess through to storage. Failures are logged; the live
// session stays usable. Callers may hold m.mu.
func (m *Manager) persist(sess *service.Session, reason string) {
	if m.persistence == nil {
		return
	}
	if err := m.persistence.Save(sess); err != nil {
		log.Printf("Warning: Failed to persist session %s after %s: %v", sess.ID, reason, err)
	}
}

// Get returns a live session, loading it from storage when it was evicted
// or belongs to a previous run.
func (m *Manager) Get(id string) (*service.Session, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	sess, ok := m.sessions[key(id)]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}
	if m.persistence == nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	loaded, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// a concurrent Get may have loaded it first
	if sess, ok := m.sessions[key(id)]; ok {
		return sess, nil
	}
	m.sessions[key(id)] = loaded
	return loaded, nil
}

// List returns the live sessions, oldest first
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	out := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return key(out[i].ID) < key(out[j].ID)
	})
	return out
}

// Delete removes a session from memory and storage
func (m *Manager) Delete(id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, live := m.sessions[key(id)]
	delete(m.sessions, key(id))

	stored := m.persistence != nil && m.persistence.Exists(id)
	if stored {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
	}
	if !live && !stored {
		return ErrSessionNotFound
	}
	return nil
}

// UpdateLastAccessed marks a live session as used now
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[key(id)]
	if !ok {
		return ErrSessionNotFound
	}
	sess.LastAccessedAt = time.Now()
	m.persist(sess, "access update")
	return nil
}

// Save writes one live session to storage. It is a no-op without a backend.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sess, ok := m.sessions[key(id)]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	return m.persistence.Save(sess)
}

// CleanupExpiredSessions evicts sessions idle for longer than maxAge from
// memory and returns how many went. With a backend each evicted session is
// saved first, so a later Get restores its latest state.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var idle []*service.Session
	for k, sess := range m.sessions {
		if sess.LastAccessedAt.Before(cutoff) {
			idle = append(idle, sess)
			delete(m.sessions, k)
		}
	}
	m.mu.Unlock()

	for _, sess := range idle {
		m.persist(sess, "eviction")
	}
	return len(idle)
}

// RunCleanup evicts idle sessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Evicted %d idle sessions", removed)
			}
		}
	}
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// LoadPersistedSessions brings every stored session into memory. Records
// that fail to load, for instance a path the move rules reject, are skipped.
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		if _, ok := m.sessions[key(id)]; ok {
			continue
		}
		sess, err := m.persistence.Load(id)
		if err != nil {
			log.Printf("Warning: Failed to load persisted session %s: %v", id, err)
			continue
		}
		m.sessions[key(id)] = sess
		loaded++
	}
	if loaded > 0 {
		log.Printf("Loaded %d persisted sessions from storage", loaded)
	}
	return nil
}

// SaveAllSessions writes every live session to storage
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	failed := 0
	for _, sess := range m.List() {
		if err := m.persistence.Save(sess); err != nil {
			log.Printf("Warning: Failed to save session %s: %v", sess.ID, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to save %d sessions", failed)
	}
	return nil
}
