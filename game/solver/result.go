package solver

import (
	"errors"
	"time"

	"github.com/wricardo/hexbuzz/game/grid"
)

var (
	ErrUnsolvable     = errors.New("level has no solution")
	ErrBudgetExceeded = errors.New("search budget exceeded")
	ErrInvalidPath    = errors.New("path is not a solution")
)

// Outcome is the closed set of answers a search can give.
type Outcome string

const (
	OutcomeSolvable     Outcome = "solvable"
	OutcomeUnsolvable   Outcome = "unsolvable"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeInconclusive Outcome = "inconclusive"
)

// Options bounds a search.
type Options struct {
	// NodeBudget caps the number of nodes expanded. 0 means unbounded.
	NodeBudget int64
}

// Result is the outcome of Validate or CountSolutions.
type Result struct {
	Outcome  Outcome
	Solution []grid.Coord
	// Solutions holds every solution found, up to the counting limit.
	Solutions [][]grid.Coord
	// SolutionCount is exact unless CountCapped is set, in which case there
	// are at least that many solutions.
	SolutionCount     int
	CountCapped       bool
	HasUniqueSolution bool
	// Exhausted is set when the whole search space was explored.
	Exhausted bool
	Nodes     int64
	Duration  time.Duration
	Err       error

	counted bool
}

// Solvable reports whether at least one solution was found.
func (r Result) Solvable() bool {
	return r.Outcome == OutcomeSolvable
}

// Response is the JSON shape handed to API and CLI callers.
type Response struct {
	Solvable          bool         `json:"solvable"`
	Outcome           Outcome      `json:"outcome"`
	Solution          []grid.Coord `json:"solution,omitempty"`
	SolutionCount     *int         `json:"solutionCount,omitempty"`
	CountCapped       bool         `json:"countCapped,omitempty"`
	HasUniqueSolution *bool        `json:"hasUniqueSolution,omitempty"`
	Nodes             int64        `json:"nodes"`
	Error             string       `json:"error,omitempty"`
}

// Response renders the result. Counting fields are only present for results
// produced by CountSolutions.
func (r Result) Response() Response {
	resp := Response{
		Solvable: r.Solvable(),
		Outcome:  r.Outcome,
		Solution: r.Solution,
		Nodes:    r.Nodes,
	}
	if r.counted && r.Outcome != OutcomeInvalid {
		count := r.SolutionCount
		unique := r.HasUniqueSolution
		resp.SolutionCount = &count
		resp.CountCapped = r.CountCapped
		resp.HasUniqueSolution = &unique
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}
