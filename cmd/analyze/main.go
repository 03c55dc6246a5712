// Command analyze prints a summary of every level in a directory: board
// size, checkpoints, walls, whether it is solvable and how many solutions
// it has. Levels are solved in parallel.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/hexbuzz/game/grid"
	"github.com/wricardo/hexbuzz/game/solver"
)

// LevelAnalysis is the summary of one level file
type LevelAnalysis struct {
	File        string         `json:"file"`
	LevelID     string         `json:"level_id,omitempty"`
	Size        int            `json:"size"`
	Cells       int            `json:"cells"`
	Checkpoints int            `json:"checkpoints"`
	Walls       int            `json:"walls"`
	Outcome     solver.Outcome `json:"outcome"`
	Solutions   int            `json:"solutions"`
	Capped      bool           `json:"capped,omitempty"`
	Unique      bool           `json:"unique"`
	Nodes       int64          `json:"nodes"`
	Duration    time.Duration  `json:"-"`
	Error       string         `json:"error,omitempty"`
}

// Options controls a directory analysis
type Options struct {
	CountLimit int
	Workers    int
	Timeout    time.Duration
	NodeBudget int64
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "summarize the levels in a directory",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Value: 10, Usage: "stop counting solutions at this limit"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU(), Usage: "levels solved concurrently"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "time limit per level"},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "levels"
			}

			results, err := AnalyzeDir(ctx, dir, Options{
				CountLimit: int(cmd.Int("count")),
				Workers:    int(cmd.Int("workers")),
				Timeout:    cmd.Duration("timeout"),
			})
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(cmd.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			return PrintTable(cmd.Writer, results)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// AnalyzeDir analyzes every *.json file in dir. A file that cannot be read
// or parsed is reported in its LevelAnalysis, not as an error.
func AnalyzeDir(ctx context.Context, dir string, opts Options) ([]LevelAnalysis, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no level files in %s", dir)
	}
	sort.Strings(files)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]LevelAnalysis, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		g.Go(func() error {
			results[i] = AnalyzeFile(gctx, file, opts)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AnalyzeFile parses and solves a single level file
func AnalyzeFile(ctx context.Context, path string, opts Options) LevelAnalysis {
	a := LevelAnalysis{File: filepath.Base(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		a.Outcome = solver.OutcomeInvalid
		a.Error = err.Error()
		return a
	}
	level, err := grid.ParseLevel(data)
	if err != nil {
		a.Outcome = solver.OutcomeInvalid
		a.Error = err.Error()
		return a
	}
	return analyzeLevel(ctx, a, level, opts)
}

func analyzeLevel(ctx context.Context, a LevelAnalysis, level *grid.Level, opts Options) LevelAnalysis {
	a.LevelID = level.ID()
	a.Size = level.Size()
	a.Cells = level.CellCount()
	a.Checkpoints = level.CheckpointCount()
	a.Walls = level.WallCount()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	res := solver.CountSolutions(ctx, level, opts.CountLimit, solver.Options{NodeBudget: opts.NodeBudget})
	a.Outcome = res.Outcome
	a.Solutions = res.SolutionCount
	a.Capped = res.CountCapped
	a.Unique = res.HasUniqueSolution
	a.Nodes = res.Nodes
	a.Duration = res.Duration
	if res.Err != nil {
		a.Error = res.Err.Error()
	}
	return a
}

// PrintTable writes one row per level
func PrintTable(w io.Writer, results []LevelAnalysis) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSIZE\tCELLS\tCHECKPOINTS\tWALLS\tOUTCOME\tSOLUTIONS\tUNIQUE\tNODES\tTIME")

	solvable := 0
	for _, a := range results {
		if a.Outcome == solver.OutcomeSolvable {
			solvable++
		}
		solutions := fmt.Sprintf("%d", a.Solutions)
		if a.Capped {
			solutions += "+"
		}
		outcome := string(a.Outcome)
		if a.Error != "" && a.Outcome != solver.OutcomeUnsolvable {
			outcome += " (" + firstLine(a.Error) + ")"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\t%t\t%d\t%s\n",
			a.File, a.Size, a.Cells, a.Checkpoints, a.Walls, outcome, solutions, a.Unique, a.Nodes,
			a.Duration.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d of %d levels solvable\n", solvable, len(results))
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
