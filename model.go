package xword

// Puzzle is the canonical, format-independent representation every decoder
// converges to. Only Grid and Clues are mandatory: a puzzle is minimally a
// playable grid with clue text. All fields are write-once; a Puzzle is never
// mutated after its converter returns it.
type Puzzle struct {
	Title     string
	Author    string
	Copyright string
	Notes     string
	Date      string

	Grid  Grid
	Clues Clues

	// RebusTable maps rebus keys referenced by Cell.RebusKey to their
	// multi-character answers. Nil when the puzzle has no rebus entries.
	RebusTable map[int]string

	// AdditionalProperties carries format-specific extras that have no
	// canonical slot (variety clue sections, word lists, scrambled flag).
	// The core never interprets these values.
	AdditionalProperties map[string]any
}

// Grid is a rectangular matrix of cells. len(Cells) == Height and every row
// has exactly Width entries; every converter guarantees this before
// returning.
type Grid struct {
	Width  int
	Height int
	Cells  [][]Cell
}

// Cell is one square of the grid.
type Cell struct {
	// IsBlack marks a block (or, for formats with void cells, a cell outside
	// the playable area; see AdditionalProperties["void"]).
	IsBlack bool

	// Solution is the answer text for this cell. Always empty for black
	// cells. Usually one character; longer for rebus answers carried inline.
	Solution string

	// Number is the clue number printed in this cell, 0 when unnumbered.
	Number int

	// IsCircled marks a circled square.
	IsCircled bool

	// HasRebus marks a cell whose full answer is longer than one character.
	HasRebus bool

	// RebusKey indexes Puzzle.RebusTable when HasRebus is set and the source
	// format keys rebus answers through a shared table.
	RebusKey int

	// AdditionalProperties carries per-cell extras (style, bars,
	// continuation markers) preserved opaquely from the source format.
	AdditionalProperties map[string]any
}

// Clues holds the two standard clue lists in source order. Variety sections
// (Rows, Spiral, ...) are not folded in here; they survive only in
// Puzzle.AdditionalProperties.
type Clues struct {
	Across []Clue
	Down   []Clue
}

// Clue pairs a clue number with its text.
type Clue struct {
	Number int
	Text   string
}

// newGrid allocates a Width×Height grid of default (white, empty) cells.
// Callers must have validated dimensions via checkGridSize first.
func newGrid(width, height int) Grid {
	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
	}
	return Grid{Width: width, Height: height, Cells: cells}
}

// setProperty lazily initializes a cell's extension map.
func (c *Cell) setProperty(key string, value any) {
	if c.AdditionalProperties == nil {
		c.AdditionalProperties = make(map[string]any)
	}
	c.AdditionalProperties[key] = value
}

// setProperty lazily initializes the puzzle's extension map.
func (p *Puzzle) setProperty(key string, value any) {
	if p.AdditionalProperties == nil {
		p.AdditionalProperties = make(map[string]any)
	}
	p.AdditionalProperties[key] = value
}
