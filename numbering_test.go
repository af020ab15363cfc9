package xword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridFromRows builds a cell matrix from strings where '#' is a block and
// any other character is a playable cell.
func gridFromRows(rows ...string) [][]Cell {
	cells := make([][]Cell, len(rows))
	for y, row := range rows {
		cells[y] = make([]Cell, len(row))
		for x, ch := range row {
			if ch == '#' {
				cells[y][x].IsBlack = true
			}
		}
	}
	return cells
}

func TestNumberGrid(t *testing.T) {
	cells := gridFromRows(
		"ABC",
		"D#E",
		"FGH",
	)
	starts := numberGrid(cells)
	require.Len(t, starts, 3)

	// (0,0) starts both directions and gets one shared number.
	assert.Equal(t, entryStart{X: 0, Y: 0, Number: 1, Across: true, Down: true}, starts[0])
	// (2,0) starts only a down entry.
	assert.Equal(t, entryStart{X: 2, Y: 0, Number: 2, Across: false, Down: true}, starts[1])
	// (0,2) starts only an across entry.
	assert.Equal(t, entryStart{X: 0, Y: 2, Number: 3, Across: true, Down: false}, starts[2])

	assert.Equal(t, 1, cells[0][0].Number)
	assert.Equal(t, 2, cells[0][2].Number)
	assert.Equal(t, 3, cells[2][0].Number)
	assert.Zero(t, cells[0][1].Number, "mid-word cells stay unnumbered")
	assert.Zero(t, cells[1][2].Number, "a one-cell stub in both directions stays unnumbered")
}

func TestNumberGridSingleRow(t *testing.T) {
	cells := gridFromRows("AB#CD")
	starts := numberGrid(cells)
	require.Len(t, starts, 2)
	assert.True(t, starts[0].Across)
	assert.False(t, starts[0].Down, "no down entry in a one-row grid")
	assert.Equal(t, 3, starts[1].X)
}

func TestNumberGridDeterminism(t *testing.T) {
	// Numbering depends only on topology, never on letters.
	a := gridFromRows("AB#", "CDE", "#FG")
	b := gridFromRows("ZY#", "XWV", "#UT")

	sa := numberGrid(a)
	sb := numberGrid(b)
	assert.Equal(t, sa, sb)
}

func TestNumberGridAllBlack(t *testing.T) {
	cells := gridFromRows("###", "###")
	assert.Empty(t, numberGrid(cells))
}

func TestCheckGridSize(t *testing.T) {
	assert.NoError(t, checkGridSize(FormatPuz, CodePuzInvalidDimensions, 15, 15, nil))
	assert.NoError(t, checkGridSize(FormatPuz, CodePuzInvalidDimensions, 100, 100, nil))

	err := checkGridSize(FormatPuz, CodePuzInvalidDimensions, 101, 5, nil)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodePuzInvalidDimensions, pe.Code)

	require.Error(t, checkGridSize(FormatPuz, CodePuzInvalidDimensions, 0, 5, nil))
	require.Error(t, checkGridSize(FormatPuz, CodePuzInvalidDimensions, 5, 0, nil))

	limit := &GridSize{Width: 10, Height: 10}
	assert.NoError(t, checkGridSize(FormatXd, CodeXdInvalidDimensions, 10, 10, limit))
	require.Error(t, checkGridSize(FormatXd, CodeXdInvalidDimensions, 11, 10, limit))
}
