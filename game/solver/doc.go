// Package solver decides whether a hex level can be solved and counts its
// solutions.
//
// A solution is an ordering of every cell of the level that starts on
// checkpoint 1, moves between adjacent cells without crossing walls, visits
// each cell once and reaches the checkpoints in ascending order. Finding one
// is a constrained Hamiltonian path search; the package runs it as a
// depth-first backtracking search over an explicit frame stack, trying
// neighbours in canonical direction order so results are reproducible.
//
// Branches are abandoned early when:
//   - some unvisited cell can no longer be reached from the head of the path
//   - an unvisited cell has no free neighbour left
//   - more than one unvisited cell has a single free neighbour, since each of
//     them would have to be the end of the path
//
// Searches are bounded by the caller. Options.NodeBudget caps the number of
// expanded nodes and the context carries deadlines and cancellation; a search
// that stops before it knows the answer reports OutcomeInconclusive.
//
// Usage:
//
//	res := solver.Validate(ctx, level, solver.Options{NodeBudget: 1_000_000})
//	switch res.Outcome {
//	case solver.OutcomeSolvable:
//		fmt.Println(res.Solution)
//	case solver.OutcomeInconclusive:
//		// retry with a bigger budget
//	}
//
//	count := solver.CountSolutions(ctx, level, 2, solver.Options{})
//	if count.HasUniqueSolution {
//		fmt.Println("unique")
//	}
package solver
