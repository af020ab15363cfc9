package xword

import (
	"strconv"
	"strings"
)

// ConvertXd maps a line-text intermediate representation onto the canonical
// model. The format carries no per-cell numbers, so they are derived from
// grid topology.
func ConvertXd(p *XdPuzzle) (*Puzzle, error) {
	return guard(FormatXd, func() (*Puzzle, error) {
		return convertXd(p)
	})
}

func convertXd(p *XdPuzzle) (*Puzzle, error) {
	if len(p.Grid) != p.Height {
		return nil, errf(FormatXd, CodeInvalidFile,
			"grid has %d rows, header computed %d", len(p.Grid), p.Height)
	}

	rebusTable := parseXdRebus(p.Metadata["rebus"])

	grid := newGrid(p.Width, p.Height)
	for y, row := range p.Grid {
		for x := 0; x < p.Width; x++ {
			glyph := row[x]
			cell := &grid.Cells[y][x]
			switch {
			case glyph == '#':
				cell.IsBlack = true
			case glyph == '.':
				// Void cells sit outside the playable grid; the canonical
				// model renders them as tagged black cells.
				cell.IsBlack = true
				cell.setProperty("void", true)
			case glyph == '_':
				// Playable cell with no solution given.
			case glyph >= '0' && glyph <= '9':
				key := int(glyph - '0')
				cell.HasRebus = true
				cell.RebusKey = key
				if answer, ok := rebusTable[key]; ok {
					cell.Solution = answer
				}
			default:
				cell.Solution = string(rune(glyph))
			}
		}
	}

	numberGrid(grid.Cells)

	puzzle := &Puzzle{
		Title:     p.Metadata["title"],
		Author:    p.Metadata["author"],
		Copyright: p.Metadata["copyright"],
		Date:      p.Metadata["date"],
		Grid:      grid,
	}
	if len(rebusTable) > 0 {
		puzzle.RebusTable = rebusTable
	}

	var notes []string
	if meta := p.Metadata["notes"]; meta != "" {
		notes = append(notes, meta)
	}
	if p.Notes != "" {
		notes = append(notes, p.Notes)
	}
	puzzle.Notes = strings.Join(notes, "\n\n")

	answers := make(map[string]string)
	for _, clue := range p.Across {
		puzzle.Clues.Across = append(puzzle.Clues.Across, Clue{Number: clue.Number, Text: clue.Text})
		if clue.Answer != "" {
			answers["A"+strconv.Itoa(clue.Number)] = clue.Answer
		}
	}
	for _, clue := range p.Down {
		puzzle.Clues.Down = append(puzzle.Clues.Down, Clue{Number: clue.Number, Text: clue.Text})
		if clue.Answer != "" {
			answers["D"+strconv.Itoa(clue.Number)] = clue.Answer
		}
	}
	if len(answers) > 0 {
		puzzle.setProperty("clueAnswers", answers)
	}

	for key, value := range p.Metadata {
		switch key {
		case "title", "author", "copyright", "date", "notes", "rebus":
		default:
			puzzle.setProperty(key, value)
		}
	}

	return puzzle, nil
}

// parseXdRebus reads a metadata declaration of the form
// "1=FIRST 2=SECOND" into a rebus table.
func parseXdRebus(decl string) map[int]string {
	if decl == "" {
		return nil
	}
	table := make(map[int]string)
	for _, pair := range strings.Fields(decl) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		table[n] = value
	}
	if len(table) == 0 {
		return nil
	}
	return table
}
