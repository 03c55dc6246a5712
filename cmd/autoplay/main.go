// Command autoplay plays a hexbuzz session through the REST API. It either
// replays a locally computed solution or explores the live session with
// move and undo until the level is won. Viewers connected over WebSocket
// see every step.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/service"
)

const sessionFile = ".session"

func main() {
	cmd := &cli.Command{
		Name:  "autoplay",
		Usage: "play a hexbuzz session automatically",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL", Sources: cli.EnvVars("HEXBUZZ_API_URL")},
			&cli.StringFlag{Name: "level", Usage: "level to play (server default when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing session by ID"},
			&cli.StringFlag{Name: "strategy", Value: "solve", Usage: "solve or explore"},
			&cli.BoolFlag{Name: "bulk", Usage: "send the solution in one bulk move (solve only)"},
			&cli.IntFlag{Name: "max-moves", Value: 100000, Usage: "move budget for explore"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between moves"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newStrategy(cmd *cli.Command) (Strategy, error) {
	switch name := cmd.String("strategy"); name {
	case "solve":
		return &SolveStrategy{Delay: cmd.Duration("delay"), Bulk: cmd.Bool("bulk")}, nil
	case "explore":
		return &ExploreStrategy{
			MaxMoves: int(cmd.Int("max-moves")),
			Delay:    cmd.Duration("delay"),
			Verbose:  cmd.Bool("v"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want solve or explore)", name)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	strategy, err := newStrategy(cmd)
	if err != nil {
		return err
	}

	log.Printf("Connecting to game server at %s", cmd.String("url"))
	client := NewClient(cmd.String("url"))

	savedSessionID := cmd.String("continue")
	if savedSessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	info, err := openSession(ctx, client, savedSessionID, cmd.String("level"))
	if err != nil {
		return err
	}

	stats, err := Autoplay(ctx, client, info.Level, strategy)
	if err != nil {
		return err
	}
	if !stats.Won {
		return fmt.Errorf("%s strategy did not win session %s", stats.Strategy, client.SessionID())
	}
	return nil
}

// openSession resumes savedID when it still exists and otherwise creates a
// session, remembering its ID for the next run
func openSession(ctx context.Context, client *Client, savedID, levelName string) (*service.SessionInfo, error) {
	if savedID != "" {
		log.Printf("🔄 Resuming session: %s", savedID)
		info, err := client.Resume(ctx, savedID)
		if err == nil && (levelName == "" || levelName == info.LevelName) {
			log.Printf("Session resumed - level %s: %d cells, %d checkpoints",
				info.LevelName, info.Level.CellCount(), info.Level.CheckpointCount())
			return info, nil
		}
		if err != nil {
			log.Printf("⚠️  Failed to resume session (may be expired): %v", err)
		}
		log.Printf("Creating new session...")
	}

	info, err := client.CreateSession(ctx, levelName)
	if err != nil {
		return nil, err
	}
	log.Printf("✨ Session created: %s (level %s: %d cells, %d checkpoints)",
		info.ID, info.LevelName, info.Level.CellCount(), info.Level.CheckpointCount())

	if err := os.WriteFile(sessionFile, []byte(info.ID), 0644); err != nil {
		log.Printf("Warning: Failed to save session ID: %v", err)
	}
	return info, nil
}

// Autoplay resets the bound session and plays it with strategy
func Autoplay(ctx context.Context, client *Client, level *grid.Level, strategy Strategy) (*Stats, error) {
	log.Printf("🔄 Resetting game state...")
	if _, err := client.Reset(ctx); err != nil {
		return nil, err
	}

	log.Printf("=== 🎮 %s ===", strategy.Name())
	stats, err := strategy.Play(ctx, client, level)
	if err != nil {
		return stats, fmt.Errorf("%s strategy: %w", strategy.Name(), err)
	}

	log.Printf("Moves=%d, Rejected=%d, Undos=%d, Path=%d/%d in %s",
		stats.Moves, stats.Rejected, stats.Undos, len(stats.Path), level.CellCount(),
		stats.Duration.Round(time.Millisecond))
	if stats.Won {
		log.Printf("🎉 VICTORY! Session: %s", client.SessionID())
	} else {
		log.Printf("❌ Not solved. Session: %s", client.SessionID())
	}
	return stats, nil
}
