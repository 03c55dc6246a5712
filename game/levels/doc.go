// Package levels provides the on-disk level library for hexbuzz.
//
// The levels package handles:
//   - Loading levels from JSON files in a directory
//   - Rejecting structurally unsound levels
//   - Default level selection
//   - Level discovery, listing and saving
//
// Level Format:
//
// Each file holds one level in the grid JSON encoding:
//
//	{
//	  "size": 2,
//	  "cells": [{"q": 0, "r": 0, "checkpoint": 1}, {"q": 1, "r": 0}, ...],
//	  "walls": [{"q1": 0, "r1": 0, "q2": 1, "r2": 0}],
//	  "checkpointCount": 3
//	}
//
// The file name without ".json" is the level name used for session creation.
// starter.json is the preferred default; without it the first valid level
// is used, and an empty directory falls back to a built-in 7-cell level.
//
// Usage:
//
//	library, err := levels.NewLibrary("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := library.LoadLevel("ridge")
//	infos, err := library.ListLevels()
package levels
