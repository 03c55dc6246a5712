package service

import (
	"strconv"
	"strings"

	"github.com/wricardo/hexbuzz/game/grid"
)

// RenderBoard draws a level and a path as text. Rows follow r, columns use
// doubled coordinates (2q+r) so neighbouring hexes line up diagonally.
//
//	digits  checkpoint number (base 36 above 9)
//	@       head of the path
//	*       visited cell
//	.       unvisited cell
//
// Walls are listed after the grid.
func RenderBoard(level *grid.Level, path []grid.Coord) string {
	if level == nil || level.CellCount() == 0 {
		return ""
	}

	visited := make(map[grid.Coord]bool, len(path))
	for _, c := range path {
		visited[c] = true
	}
	var head grid.Coord
	hasHead := len(path) > 0
	if hasHead {
		head = path[len(path)-1]
	}

	coords := level.Coords()
	minR, maxR := coords[0].R, coords[0].R
	minX, maxX := 2*coords[0].Q+coords[0].R, 2*coords[0].Q+coords[0].R
	for _, c := range coords {
		minR, maxR = min(minR, c.R), max(maxR, c.R)
		x := 2*c.Q + c.R
		minX, maxX = min(minX, x), max(maxX, x)
	}

	rows := make([][]byte, maxR-minR+1)
	for i := range rows {
		rows[i] = []byte(strings.Repeat(" ", maxX-minX+1))
	}
	for _, c := range coords {
		cell, _ := level.Cell(c)
		ch := byte('.')
		switch {
		case hasHead && c == head:
			ch = '@'
		case cell.Checkpoint > 0:
			ch = strconv.FormatInt(int64(cell.Checkpoint%36), 36)[0]
		case visited[c]:
			ch = '*'
		}
		rows[c.R-minR][2*c.Q+c.R-minX] = ch
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteByte('\n')
	}
	if walls := level.Walls(); len(walls) > 0 {
		b.WriteString("walls:")
		for _, w := range walls {
			b.WriteByte(' ')
			b.WriteString(w.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
