package xword

// entryStart records a cell that received a number and which directions it
// begins. Starts are produced in row-major order, which is also ascending
// number order.
type entryStart struct {
	X, Y   int
	Number int
	Across bool
	Down   bool
}

// numberGrid assigns clue numbers to cells in row-major order and returns
// the entry starts. A non-black cell gets the next sequential number
// (starting at 1) iff it starts an across entry (left neighbor off-grid or
// black, and a non-black cell to its right) or a down entry (top neighbor
// off-grid or black, and a non-black cell below). A cell starting both still
// gets exactly one number.
//
// Numbering depends only on grid topology: two grids with the same
// black/white layout always number identically.
//
// This rule is used by the binary and text converters, whose source formats
// do not carry authoritative numbers. The JSON and XML converters bypass it:
// those formats support barred and non-rectangular topologies where the
// neighbor rule would assign wrong numbers, so their native numbers pass
// through unchanged.
func numberGrid(cells [][]Cell) []entryStart {
	height := len(cells)
	if height == 0 {
		return nil
	}
	width := len(cells[0])

	var starts []entryStart
	next := 1
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := &cells[y][x]
			if c.IsBlack {
				continue
			}
			across := (x == 0 || cells[y][x-1].IsBlack) && x+1 < width && !cells[y][x+1].IsBlack
			down := (y == 0 || cells[y-1][x].IsBlack) && y+1 < height && !cells[y+1][x].IsBlack
			if !across && !down {
				continue
			}
			c.Number = next
			starts = append(starts, entryStart{X: x, Y: y, Number: next, Across: across, Down: down})
			next++
		}
	}
	return starts
}
