// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package display renders game states as text.
package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"laptudirm.com/x/hyperchess/pkg/api"
)

// Options configures Render.
type Options struct {
	// Summary prints only the piece count, whatever the dimension.
	Summary bool

	// Color highlights the pieces of each side.
	Color bool
}

// MaxSliceDimension is the largest dimension drawn square by square.
const MaxSliceDimension = 4

// MaxCells is the largest number of squares drawn one by one. Bigger
// boards are summarized.
const MaxCells = 1 << 16

const sliceGap = "   "

var (
	whitePiece = color.New(color.FgHiWhite, color.Bold)
	blackPiece = color.New(color.FgHiRed, color.Bold)
)

// Render draws the board of the given state. A 2-d board is drawn as a
// single grid with rank 0 at the bottom. 3-d and 4-d boards are drawn as
// a grid of 2-d slices, the third axis running left to right and the
// fourth running top to bottom. Any other board, or one with more than
// MaxCells squares, is summarized.
func Render(w io.Writer, state *api.GameState, opts Options) error {
	if opts.Summary || state.Side < 1 || state.Dimension < 2 || state.Dimension > MaxSliceDimension || !drawable(state) {
		_, err := fmt.Fprintf(w, "Multidimensional board (%dD), showing raw pieces count: %d\n", state.Dimension, len(state.Pieces))
		return err
	}

	var lines []string
	switch state.Dimension {
	case 2:
		lines = grid(state, nil, opts)
	default:
		lines = slices(state, opts)
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// drawable reports whether the board has at most MaxCells squares.
func drawable(state *api.GameState) bool {
	cells := 1
	for i := 0; i < state.Dimension; i++ {
		if cells *= state.Side; cells > MaxCells {
			return false
		}
	}

	return true
}

// grid draws the 2-d slice of the board whose axes past the second are
// fixed to the given values.
func grid(state *api.GameState, fixed []int, opts Options) []string {
	side := state.Side
	width := len(strconv.Itoa(side - 1))

	cells := make([][]string, side)
	for r := range cells {
		cells[r] = make([]string, side)
		for c := range cells[r] {
			cells[r][c] = pad(".", width)
		}
	}

	for _, piece := range state.Pieces {
		coord := piece.Coordinate
		if len(coord) != state.Dimension || !coord.Within(side) || !onSlice(coord, fixed) {
			continue
		}

		symbol := piece.Symbol()
		if opts.Color {
			painter := whitePiece
			if piece.Owner == api.Black {
				painter = blackPiece
			}

			symbol = strings.Repeat(" ", width-1) + painter.Sprint(symbol)
		} else {
			symbol = pad(symbol, width)
		}

		cells[coord[0]][coord[1]] = symbol
	}

	labels := make([]string, side)
	for i := range labels {
		labels[i] = pad(strconv.Itoa(i), width)
	}

	lines := make([]string, 0, side+1)
	lines = append(lines, strings.Repeat(" ", width+1)+strings.Join(labels, " "))
	for r := side - 1; r >= 0; r-- {
		lines = append(lines, pad(strconv.Itoa(r), width)+" "+strings.Join(cells[r], " "))
	}

	return lines
}

func slices(state *api.GameState, opts Options) []string {
	side := state.Side

	planes := 1
	if state.Dimension == 4 {
		planes = side
	}

	var lines []string
	for w := 0; w < planes; w++ {
		if w > 0 {
			lines = append(lines, "")
		}

		row := make([][]string, side)
		for z := 0; z < side; z++ {
			fixed := []int{z}
			if state.Dimension == 4 {
				fixed = append(fixed, w)
			}

			label := make([]string, state.Dimension)
			label[0], label[1] = "*", "*"
			for i, value := range fixed {
				label[i+2] = strconv.Itoa(value)
			}

			row[z] = append([]string{"(" + strings.Join(label, ", ") + ")"}, grid(state, fixed, opts)...)
		}

		lines = append(lines, beside(row)...)
	}

	return lines
}

// beside joins blocks of lines left to right. Every block has the same
// number of lines.
func beside(blocks [][]string) []string {
	width := 0
	for _, block := range blocks {
		for _, line := range block {
			width = max(width, visibleLen(line))
		}
	}

	lines := make([]string, len(blocks[0]))
	for i := range lines {
		parts := make([]string, len(blocks))
		for j, block := range blocks {
			parts[j] = block[i] + strings.Repeat(" ", width-visibleLen(block[i]))
		}

		lines[i] = strings.TrimRight(strings.Join(parts, sliceGap), " ")
	}

	return lines
}

func onSlice(coord api.Coordinate, fixed []int) bool {
	for i, value := range fixed {
		if coord[i+2] != value {
			return false
		}
	}

	return true
}

func pad(str string, width int) string {
	if len(str) >= width {
		return str
	}

	return strings.Repeat(" ", width-len(str)) + str
}

// visibleLen returns the length of str ignoring ANSI escape sequences.
func visibleLen(str string) int {
	n, escaped := 0, false
	for _, r := range str {
		switch {
		case r == '\x1b':
			escaped = true
		case escaped:
			if r == 'm' {
				escaped = false
			}
		default:
			n++
		}
	}

	return n
}

// RenderMoves prints the legal destinations of the piece on coord.
func RenderMoves(w io.Writer, state *api.GameState, coord api.Coordinate) error {
	moves, found := state.ValidMoves[coord.String()]
	if !found {
		_, err := fmt.Fprintf(w, "No moves found for %s (Are we White?)\n", coord)
		return err
	}

	name := "piece"
	if piece, found := state.PieceAt(coord); found {
		name = string(piece.Type)
	}

	destinations := make([]string, len(moves))
	for i, move := range moves {
		destinations[i] = move.String()
	}

	_, err := fmt.Fprintf(w, "Moves for %s at %s: %s\n", name, coord, strings.Join(destinations, ", "))
	return err
}

// RenderAllMoves prints the legal destinations of every piece which has
// any, in natural order of their squares.
func RenderAllMoves(w io.Writer, state *api.GameState) error {
	for _, key := range state.Sources() {
		coord, err := api.ParseCoordinate(key)
		if err != nil {
			return err
		}

		if err := RenderMoves(w, state, coord); err != nil {
			return err
		}
	}

	return nil
}

// Algebraic returns the square name of a 2-d coordinate, like e2 for
// (1, 4), if the board is small enough to have one.
func Algebraic(coord api.Coordinate, side int) (string, bool) {
	if len(coord) != 2 || side > 26 || !coord.Within(side) {
		return "", false
	}

	return fmt.Sprintf("%c%d", 'a'+coord[1], coord[0]+1), true
}
