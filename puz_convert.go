package xword

// gextCircled is the GEXT flag bit marking a circled cell.
const gextCircled = 0x80

// ConvertPuz maps a binary-format intermediate representation onto the
// canonical model. The binary format carries no clue numbers, so numbers are
// derived from grid topology, and the flat clue list is split across the
// numbered positions.
func ConvertPuz(p *PuzPuzzle) (*Puzzle, error) {
	return guard(FormatPuz, func() (*Puzzle, error) {
		return convertPuz(p)
	})
}

func convertPuz(p *PuzPuzzle) (*Puzzle, error) {
	cellCount := p.Width * p.Height
	if len(p.Solution) != cellCount {
		return nil, errf(FormatPuz, CodeInvalidFile,
			"solution holds %d cells, header declares %dx%d", len(p.Solution), p.Width, p.Height)
	}

	grid := newGrid(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			glyph := p.Solution[y*p.Width+x]
			cell := &grid.Cells[y][x]
			if glyph == "." {
				cell.IsBlack = true
				continue
			}
			cell.Solution = glyph
		}
	}

	starts := numberGrid(grid.Cells)

	// The flat clue list is consumed in two passes: every across start in
	// row-major order, then every down start in row-major order. The passes
	// are not interleaved.
	var acrossCount, downCount int
	for _, s := range starts {
		if s.Across {
			acrossCount++
		}
		if s.Down {
			downCount++
		}
	}
	if acrossCount+downCount != len(p.Clues) {
		return nil, errf(FormatPuz, CodePuzClueMismatch,
			"grid needs %d clues (%d across, %d down), file holds %d",
			acrossCount+downCount, acrossCount, downCount, len(p.Clues))
	}

	clues := Clues{}
	next := 0
	for _, s := range starts {
		if s.Across {
			clues.Across = append(clues.Across, Clue{Number: s.Number, Text: p.Clues[next]})
			next++
		}
	}
	for _, s := range starts {
		if s.Down {
			clues.Down = append(clues.Down, Clue{Number: s.Number, Text: p.Clues[next]})
			next++
		}
	}

	puzzle := &Puzzle{
		Title:     p.Title,
		Author:    p.Author,
		Copyright: p.Copyright,
		Notes:     p.Notes,
		Grid:      grid,
		Clues:     clues,
	}

	if p.RebusGrid != nil {
		for i, key := range p.RebusGrid {
			if key == 0 {
				continue
			}
			cell := &puzzle.Grid.Cells[i/p.Width][i%p.Width]
			cell.HasRebus = true
			// GRBS entries are 1-based; the table is keyed as written in
			// RTBL, which uses the 0-based value.
			cell.RebusKey = key - 1
		}
	}
	if len(p.RebusTable) > 0 {
		table := make(map[int]string, len(p.RebusTable))
		for k, v := range p.RebusTable {
			table[k] = v
		}
		puzzle.RebusTable = table
	}

	if p.GridExtras != nil && len(p.GridExtras) == cellCount {
		for i, flags := range p.GridExtras {
			if flags&gextCircled != 0 {
				puzzle.Grid.Cells[i/p.Width][i%p.Width].IsCircled = true
			}
		}
	}

	if p.Scrambled {
		// Scrambled solutions are reported, never decrypted.
		puzzle.setProperty("scrambled", true)
	}

	return puzzle, nil
}
