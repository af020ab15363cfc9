package xword

import (
	"regexp"
	"strings"
)

// XdClue is one parsed clue line.
type XdClue struct {
	Number int
	Text   string
	// Answer is the optional "~ ANSWER" suffix.
	Answer string
}

// XdPuzzle is the format-faithful intermediate representation of a
// line-text document.
type XdPuzzle struct {
	// Metadata holds the header's "Key: value" pairs, keyed with the first
	// letter lower-cased.
	Metadata map[string]string

	Grid   []string
	Width  int
	Height int

	Across []XdClue
	Down   []XdClue

	Notes string
}

var (
	xdGridLine = regexp.MustCompile(`^[A-Za-z0-9#._]+$`)
	xdClueTag  = regexp.MustCompile(`^[AD]\d+\.`)
	xdClueLine = regexp.MustCompile(`^([AD])(\d+)\.\s+(.+?)(?:\s+~\s+(.+))?$`)
)

// xdBlock is a run of non-blank lines plus the size of the blank gap that
// preceded it.
type xdBlock struct {
	Lines []string
	Gap   int
}

// DecodeXd decodes a line-text document into its intermediate
// representation. The format has no section tags; sections are inferred from
// blank-line runs and line shapes, applied greedily in order: metadata,
// grid, clues, free-form notes.
func DecodeXd(data []byte, opts *Options) (*XdPuzzle, error) {
	return guard(FormatXd, func() (*XdPuzzle, error) {
		return decodeXd(data, opts)
	})
}

func decodeXd(data []byte, opts *Options) (*XdPuzzle, error) {
	enc, err := resolveEncoding(opts.encoding())
	if err != nil {
		return nil, err
	}
	text, err := decodeText(stripBOM(data), enc)
	if err != nil {
		return nil, errf(FormatXd, CodeInvalidFile, "input undecodable").withCause(err)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	blocks := splitXdBlocks(strings.Split(text, "\n"))
	p := &XdPuzzle{Metadata: make(map[string]string)}
	i := 0

	// A run of >=2 blank lines always closes a section; a single blank line
	// closes one only if the next block no longer matches the section's
	// shape. The shape checks below implement that merge rule per section.

	// (1) The leading block is metadata iff at least one line has a colon.
	if i < len(blocks) && anyXdLine(blocks[i].Lines, xdMetaShape) {
		p.Metadata = parseXdMetadata(blocks[i].Lines)
		i++
		for i < len(blocks) && blocks[i].Gap == 1 && anyXdLine(blocks[i].Lines, xdMetaShape) {
			for k, v := range parseXdMetadata(blocks[i].Lines) {
				p.Metadata[k] = v
			}
			i++
		}
	}

	// (2) The next block is the grid iff every line matches the grid
	// character class (letters/digits/block/void/rebus markers).
	if i >= len(blocks) || !allXdLines(blocks[i].Lines, xdGridShape) {
		return nil, errf(FormatXd, CodeXdNoGrid, "no grid block identified")
	}
	p.Grid = append(p.Grid, blocks[i].Lines...)
	i++
	for i < len(blocks) && blocks[i].Gap == 1 && allXdLines(blocks[i].Lines, xdGridShape) {
		p.Grid = append(p.Grid, blocks[i].Lines...)
		i++
	}

	if err := validateXdGrid(p, opts); err != nil {
		return nil, err
	}

	// (3) Every subsequent block joins the clues section as long as at
	// least one of its lines is clue-shaped.
	for i < len(blocks) && anyXdLine(blocks[i].Lines, xdClueShape) {
		if err := parseXdClues(blocks[i].Lines, p); err != nil {
			return nil, err
		}
		i++
	}
	if len(p.Across) == 0 && len(p.Down) == 0 {
		return nil, errf(FormatXd, CodeXdNoClues, "no clues found in either direction")
	}

	// (4) Anything left over is free-form notes.
	var notes []string
	for ; i < len(blocks); i++ {
		notes = append(notes, strings.Join(blocks[i].Lines, "\n"))
	}
	p.Notes = strings.Join(notes, "\n\n")

	return p, nil
}

func xdMetaShape(line string) bool { return strings.Contains(line, ":") }
func xdGridShape(line string) bool { return xdGridLine.MatchString(line) }
func xdClueShape(line string) bool { return xdClueTag.MatchString(line) }

func anyXdLine(lines []string, shape func(string) bool) bool {
	for _, line := range lines {
		if shape(line) {
			return true
		}
	}
	return false
}

func allXdLines(lines []string, shape func(string) bool) bool {
	for _, line := range lines {
		if !shape(line) {
			return false
		}
	}
	return len(lines) > 0
}

// splitXdBlocks groups lines into runs of non-blank lines, recording the
// number of blank lines before each run.
func splitXdBlocks(lines []string) []xdBlock {
	var blocks []xdBlock
	gap := 0
	var current []string
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, xdBlock{Lines: current, Gap: gap})
			current = nil
			gap = 0
		}
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			gap++
			continue
		}
		current = append(current, line)
	}
	flush()
	if len(blocks) > 0 {
		blocks[0].Gap = 0
	}
	return blocks
}

// parseXdMetadata reads "Key: value" lines, lower-casing the key's first
// letter to form the canonical field name. Lines without a colon are
// skipped.
func parseXdMetadata(lines []string) map[string]string {
	meta := make(map[string]string, len(lines))
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		key = strings.ToLower(key[:1]) + key[1:]
		meta[key] = strings.TrimSpace(value)
	}
	return meta
}

func validateXdGrid(p *XdPuzzle, opts *Options) error {
	width := len(p.Grid[0])
	if width == 0 {
		return errf(FormatXd, CodeXdInvalidDimensions, "grid has zero columns")
	}
	for i, row := range p.Grid {
		// Ragged grids are rejected, never padded.
		if len(row) != width {
			return errf(FormatXd, CodeXdRaggedGrid,
				"grid row %d has %d cells, first row has %d", i+1, len(row), width).
				withContext(ErrorContext{Line: i + 1})
		}
	}
	if err := checkGridSize(FormatXd, CodeXdInvalidDimensions, width, len(p.Grid), opts.maxGridSize()); err != nil {
		return err
	}
	p.Width, p.Height = width, len(p.Grid)
	return nil
}

func parseXdClues(lines []string, p *XdPuzzle) error {
	for _, line := range lines {
		m := xdClueLine.FindStringSubmatch(strings.TrimRight(line, " \t"))
		if m == nil {
			continue
		}
		number := 0
		for _, d := range m[2] {
			number = number*10 + int(d-'0')
		}
		clue := XdClue{Number: number, Text: m[3], Answer: m[4]}
		if m[1] == "A" {
			p.Across = append(p.Across, clue)
		} else {
			p.Down = append(p.Down, clue)
		}
	}
	return nil
}
