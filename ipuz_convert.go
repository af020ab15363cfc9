package xword

import "unicode/utf8"

// ConvertIpuz maps a JSON-dialect intermediate representation onto the
// canonical model. The format carries authoritative clue numbers, so the
// shared numbering algorithm is bypassed: this dialect supports barred and
// non-rectangular topologies where the neighbor rule would misnumber.
func ConvertIpuz(p *IpuzPuzzle) (*Puzzle, error) {
	return guard(FormatIpuz, func() (*Puzzle, error) {
		return convertIpuz(p)
	})
}

func convertIpuz(p *IpuzPuzzle) (*Puzzle, error) {
	if len(p.Cells) != p.Height {
		return nil, errf(FormatIpuz, CodeInvalidFile,
			"normalized grid has %d rows, dimensions declare %d", len(p.Cells), p.Height)
	}

	grid := newGrid(p.Width, p.Height)
	for y, row := range p.Cells {
		if len(row) != p.Width {
			return nil, errf(FormatIpuz, CodeInvalidFile,
				"normalized row %d has %d cells, dimensions declare %d", y+1, len(row), p.Width)
		}
		for x, src := range row {
			cell := &grid.Cells[y][x]
			switch src.Kind {
			case IpuzCellVoid:
				// The canonical model has no void slot; a void renders as a
				// black cell tagged so callers can tell them apart.
				cell.IsBlack = true
				cell.setProperty("void", true)
				continue
			case IpuzCellBlock:
				cell.IsBlack = true
				continue
			}
			cell.Number = src.Number
			cell.Solution = src.Solution
			cell.IsCircled = src.Circled
			if utf8.RuneCountInString(src.Solution) > 1 {
				cell.HasRebus = true
			}
			if src.Style != nil {
				cell.setProperty("style", src.Style)
			}
			for key, value := range src.Meta {
				cell.setProperty(key, value)
			}
		}
	}

	puzzle := &Puzzle{
		Title:     p.Title,
		Author:    p.Author,
		Copyright: p.Copyright,
		Notes:     p.Notes,
		Date:      p.Date,
		Grid:      grid,
	}

	// Only the sections literally named "Across" and "Down" populate the
	// canonical lists; variety sections survive opaquely.
	extra := make(map[string][]IpuzClue)
	for section, entries := range p.Clues {
		switch section {
		case "Across":
			puzzle.Clues.Across = convertIpuzClueList(entries)
		case "Down":
			puzzle.Clues.Down = convertIpuzClueList(entries)
		default:
			extra[section] = entries
		}
	}
	if len(extra) > 0 {
		puzzle.setProperty("additionalClues", extra)
	}

	for key, raw := range p.Extensions {
		puzzle.setProperty(key, raw)
	}
	if p.Version != "" {
		puzzle.setProperty("version", p.Version)
	}

	return puzzle, nil
}

func convertIpuzClueList(entries []IpuzClue) []Clue {
	clues := make([]Clue, 0, len(entries))
	for _, entry := range entries {
		clues = append(clues, Clue{Number: entry.Number, Text: entry.Text})
	}
	return clues
}
