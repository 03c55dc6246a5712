package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/hexbuzz/game/engine"
	"github.com/wricardo/hexbuzz/game/generator"
	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/levels"
	"github.com/wricardo/hexbuzz/game/service"
	"github.com/wricardo/hexbuzz/game/solver"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check that level files are solvable",
		ArgsUsage: "<level.json>...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "count solutions up to this limit (0 only looks for one)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "time limit per level",
				Value: 30 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print one JSON response per level",
			},
		},
		Action: runValidate,
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "generate a solvable level",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "size", Usage: "board edge size"},
			&cli.IntFlag{Name: "seed", Usage: "random seed (0 picks one)"},
			&cli.IntFlag{Name: "checkpoints", Usage: "number of checkpoints"},
			&cli.FloatFlag{Name: "wall-density", Usage: "fraction of free edges walled before uniqueness is enforced"},
			&cli.BoolFlag{Name: "unique", Usage: "require a unique solution", Value: true},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the level JSON to this file"},
			&cli.StringFlag{Name: "save", Usage: "save the level into the levels directory under this name"},
		},
		Action: runGenerate,
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "play a level in the terminal",
		ArgsUsage: "[level.json]",
		Action:    runPlay,
	}
}

func readLevel(path string) (*grid.Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level: %w", err)
	}
	return grid.ParseLevel(data)
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return cli.Exit("validate needs at least one level file", 2)
	}

	out := cmd.Root().Writer
	count := int(cmd.Int("count"))
	failed := 0
	for _, file := range files {
		resp := validateFile(ctx, file, count, cmd.Duration("timeout"))
		if !resp.Solvable {
			failed++
		}

		if cmd.Bool("json") {
			data, err := json.Marshal(resp)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n", data)
			continue
		}
		fmt.Fprintln(out, describeValidation(filepath.Base(file), resp))
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d levels failed validation", failed, len(files)), 1)
	}
	return nil
}

func validateFile(ctx context.Context, file string, count int, timeout time.Duration) solver.Response {
	level, err := readLevel(file)
	if err != nil {
		return solver.Response{Outcome: solver.OutcomeInvalid, Error: err.Error()}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if count > 0 {
		return solver.CountSolutions(ctx, level, count, solver.Options{}).Response()
	}
	return solver.Validate(ctx, level, solver.Options{}).Response()
}

func describeValidation(name string, resp solver.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%d nodes)", name, resp.Outcome, resp.Nodes)
	if resp.SolutionCount != nil {
		fmt.Fprintf(&b, ", solutions: %d", *resp.SolutionCount)
		if resp.CountCapped {
			b.WriteString("+")
		}
	}
	if resp.HasUniqueSolution != nil && *resp.HasUniqueSolution {
		b.WriteString(", unique")
	}
	if resp.Error != "" {
		fmt.Fprintf(&b, ": %s", resp.Error)
	}
	return b.String()
}

func runGenerate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := cfg.Generator.Options
	if cmd.IsSet("size") {
		opts.EdgeSize = int(cmd.Int("size"))
		if !cmd.IsSet("checkpoints") {
			opts.Checkpoints = 0
		}
	}
	if cmd.IsSet("checkpoints") {
		opts.Checkpoints = int(cmd.Int("checkpoints"))
	}
	if cmd.IsSet("wall-density") {
		opts.WallDensity = cmd.Float("wall-density")
	}
	if cmd.IsSet("unique") {
		opts.RequireUnique = cmd.Bool("unique")
	}
	opts.Seed = int64(cmd.Int("seed"))

	if cfg.Solver.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Solver.Timeout)
		defer cancel()
	}

	res, err := generator.Generate(ctx, opts)
	if err != nil {
		return cli.Exit(fmt.Sprintf("generate: %v", err), 1)
	}

	data, err := json.MarshalIndent(res.Level, "", "  ")
	if err != nil {
		return err
	}
	if path := cmd.String("out"); path != "" {
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write level: %w", err)
		}
	} else {
		fmt.Fprintf(cmd.Root().Writer, "%s\n", data)
	}

	if name := cmd.String("save"); name != "" {
		library, err := levels.NewLibrary(cfg.Server.LevelsDir)
		if err != nil {
			return err
		}
		if err := library.SaveLevel(name, res.Level); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.Root().ErrWriter, "[GENERATE] id=%s size=%d checkpoints=%d walls=%d unique=%t attempts=%d seed=%d in %s\n",
		res.Level.ID(), res.Level.Size(), res.Stats.Checkpoints, res.Stats.WallCount,
		res.Stats.Unique, res.Stats.Attempts, res.Stats.Seed, res.Stats.Duration.Round(time.Millisecond))
	return nil
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	var level *grid.Level
	if file := cmd.Args().First(); file != "" {
		l, err := readLevel(file)
		if err != nil {
			return err
		}
		level = l
	} else {
		level = levels.BuiltinLevel()
	}

	e, err := engine.NewEngine(level, engine.ModePractice)
	if err != nil {
		return err
	}
	return playLoop(ctx, cmd.Root().Reader, cmd.Root().Writer, e)
}

const playHelp = `Commands:
  <q> <r>   extend the path to cell (q,r)
  undo      remove the last cell
  reset     clear the path
  moves     list legal cells
  quit      leave the game`

// playLoop reads commands from in until the level is won, input ends or
// the player quits.
func playLoop(ctx context.Context, in io.Reader, out io.Writer, e *engine.GameEngine) error {
	fmt.Fprintf(out, "Level %s: %d cells, %d checkpoints. Start on checkpoint 1.\n",
		e.Level().ID(), e.Level().CellCount(), e.Level().CheckpointCount())
	fmt.Fprintln(out, playHelp)

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n> ", service.RenderBoard(e.Level(), e.State().Path))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			fmt.Fprintln(out, playHelp)
		case "undo", "u":
			if !e.Undo() {
				fmt.Fprintln(out, "Nothing to undo")
			}
		case "reset":
			e.Reset()
		case "moves":
			fmt.Fprintf(out, "Legal cells: %s\n", formatCells(e.PossibleMoves()))
		default:
			target, err := parseCell(fields)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			res := e.TryMove(target)
			if !res.Success {
				fmt.Fprintf(out, "Rejected: %s\n", res.Reason.Message())
				continue
			}
			if res.IsWin {
				elapsed, _ := e.Elapsed()
				fmt.Fprintf(out, "\n%s\n", service.RenderBoard(e.Level(), e.State().Path))
				fmt.Fprintf(out, "🎉 Solved in %d moves (%s)\n", len(e.State().Path), elapsed.Round(time.Millisecond))
				return nil
			}
		}
	}
}

func parseCell(fields []string) (grid.Coord, error) {
	if len(fields) != 2 {
		return grid.Coord{}, fmt.Errorf("expected \"<q> <r>\" or a command, type help")
	}
	q, err := strconv.Atoi(fields[0])
	if err != nil {
		return grid.Coord{}, fmt.Errorf("invalid q %q", fields[0])
	}
	r, err := strconv.Atoi(fields[1])
	if err != nil {
		return grid.Coord{}, fmt.Errorf("invalid r %q", fields[1])
	}
	return grid.Coord{Q: q, R: r}, nil
}

func formatCells(cells []grid.Coord) string {
	if len(cells) == 0 {
		return "none"
	}
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprintf("(%d,%d)", c.Q, c.R)
	}
	return strings.Join(parts, " ")
}
