// Package session provides session management for hexbuzz.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session persistence to JSON files or Redis
//   - Idle session eviction
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// It implements service.SessionManager. Each session owns its own engine
// bound to one level.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive.
//
// Persistence:
//
// A persisted session carries its level, its path, its timestamps and its
// move history. Loading replays the path through the engine's move rules,
// so a record edited by hand into an illegal path is refused.
//
//	persistence, err := session.NewFilePersistence("sessions")
//	manager := session.NewManagerWithPersistence(persistence)
//	manager.LoadPersistedSessions()
//
//	client, err := session.ConnectRedis(ctx, session.RedisOptions{Address: "localhost:6379"})
//	manager = session.NewManagerWithPersistence(session.NewRedisPersistence(ctx, client, "", 24*time.Hour))
//
// Cleanup:
//
// RunCleanup evicts idle sessions from memory; persisted copies are
// reloaded on the next access.
package session
