// Package grid defines the hex puzzle data model: axial coordinates, cells,
// walls and immutable levels.
//
// A Level is a set of cells keyed by axial coordinate, a set of walls (each an
// unordered pair of adjacent cells) and a checkpoint count N. Levels are built
// with NewLevel or decoded from JSON:
//
//	{ "size": 3,
//	  "cells": [{"q": 0, "r": 0, "checkpoint": 1}, {"q": 1, "r": 0}],
//	  "walls": [{"q1": 0, "r1": 0, "q2": 1, "r2": 0}],
//	  "checkpointCount": 2 }
//
// NewLevel rejects malformed shapes (duplicate cells, walls between
// non-adjacent or missing cells, repeated walls). Logical problems such as a
// gap in the checkpoint sequence are left for CheckStructure, so that
// validators can report them as an unsolvable level instead of failing.
//
// ID returns a short identity hash computed from the canonical content of the
// level. It is stable across processes and used for storage keys and duplicate
// detection.
package grid
