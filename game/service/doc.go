// Package service provides the business logic layer for the hex one-stroke puzzle.
//
// The service package implements:
//   - Multi-session play on top of the game engine
//   - Level library access (list, load, save)
//   - Move processing with gameplay events
//   - Level validation and generation with configured budgets
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and persistence.
// LevelLibrary loads and stores level definitions.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP/CLI)
// and the puzzle packages. Each session owns its own engine instance; the
// solver and generator are stateless and run under the budget and timeout
// from Config.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	library := levels.NewLibrary("levels")
//	gameService := service.NewGameService(sessionMgr, library, service.DefaultConfig())
//
//	info, err := gameService.CreateSession(ctx, service.CreateSessionRequest{LevelName: "starter"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	start, _ := info.Level.CheckpointAt(1)
//	result, err := gameService.Move(ctx, info.ID, start, false)
package service
