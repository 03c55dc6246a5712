// Package generator builds hex levels with a known, and optionally unique,
// solution.
//
// Each attempt works in three steps:
//
//  1. Build a Hamiltonian path through the whole board. A randomised
//     Warnsdorff walk is tried first; if it keeps getting stuck the row by
//     row serpentine is used under a random symmetry of the board.
//  2. Put checkpoint 1 on the start of that path, checkpoint N on its end and
//     spread the others along it, then wall a share of the edges the path
//     does not use.
//  3. When uniqueness is required, ask the solver for two solutions. While it
//     finds one that is not the witness, wall the first edge where that
//     solution leaves the witness's edges and ask again.
//
// Every wall is checked against the witness path, so the level stays
// solvable throughout. Generation is deterministic for a given Options.Seed.
//
// Usage:
//
//	opts := generator.DefaultOptions(4)
//	opts.Seed = 7
//	res, err := generator.Generate(ctx, opts)
//	if err != nil {
//		return err
//	}
//	data, _ := json.Marshal(res.Level)
package generator
