package xword

import "unicode/utf8"

// ConvertJpz maps an XML-dialect intermediate representation onto the
// canonical model. Numbers come from the file: the dialect supports barred
// grids, where the shared numbering rule would assign wrong numbers.
func ConvertJpz(p *JpzPuzzle) (*Puzzle, error) {
	return guard(FormatJpz, func() (*Puzzle, error) {
		return convertJpz(p)
	})
}

func convertJpz(p *JpzPuzzle) (*Puzzle, error) {
	grid := newGrid(p.Width, p.Height)
	for _, src := range p.Cells {
		cell := &grid.Cells[src.Y-1][src.X-1]
		if src.IsBlock {
			cell.IsBlack = true
		} else {
			cell.Solution = src.Solution
			cell.Number = src.Number
			cell.IsCircled = src.IsCircled
			if utf8.RuneCountInString(src.Solution) > 1 {
				cell.HasRebus = true
			}
		}
		if src.BackgroundColor != "" {
			cell.setProperty("backgroundColor", src.BackgroundColor)
		}
		if src.TopBar {
			cell.setProperty("barTop", true)
		}
		if src.BottomBar {
			cell.setProperty("barBottom", true)
		}
		if src.LeftBar {
			cell.setProperty("barLeft", true)
		}
		if src.RightBar {
			cell.setProperty("barRight", true)
		}
	}

	puzzle := &Puzzle{
		Title:     p.Title,
		Author:    p.Creator,
		Copyright: p.Copyright,
		Notes:     p.Description,
		Grid:      grid,
	}

	for _, section := range p.Clues {
		for _, clue := range section.Clues {
			converted := Clue{Number: clue.Number, Text: clue.Text}
			if section.Across {
				puzzle.Clues.Across = append(puzzle.Clues.Across, converted)
			} else {
				puzzle.Clues.Down = append(puzzle.Clues.Down, converted)
			}
		}
	}

	if len(p.Words) > 0 {
		puzzle.setProperty("words", p.Words)
	}

	return puzzle, nil
}
