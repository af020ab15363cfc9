package xword

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Builders ---

func le16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

// puzFile assembles a syntactically valid binary file for tests.
type puzFile struct {
	width, height int
	solution      string // width*height chars, '.' for black
	clues         []string
	title         string
	author        string
	copyright     string
	notes         string
	scrambledTag  uint16
	preamble      []byte
	extras        []byte // raw bytes appended after the notes string
	badCIB        bool
}

func (f *puzFile) encode() []byte {
	hdr := make([]byte, puzHeaderSize)
	copy(hdr[0x02:], "ACROSS&DOWN\x00")
	copy(hdr[0x18:], "1.3\x00")
	hdr[0x2C] = byte(f.width)
	hdr[0x2D] = byte(f.height)
	le16(hdr[0x2E:], uint16(len(f.clues)))
	le16(hdr[0x30:], 0x0001)
	le16(hdr[0x32:], f.scrambledTag)
	cib := puzChecksum(hdr[puzCIBStart:puzHeaderSize], 0)
	if f.badCIB {
		cib++
	}
	le16(hdr[0x0E:], cib)

	var buf bytes.Buffer
	buf.Write(f.preamble)
	buf.Write(hdr)
	buf.WriteString(f.solution)
	for _, ch := range f.solution {
		if ch == '.' {
			buf.WriteByte('.')
		} else {
			buf.WriteByte('-')
		}
	}
	for _, s := range []string{f.title, f.author, f.copyright} {
		buf.WriteString(s)
		buf.WriteByte(0)
	}
	for _, clue := range f.clues {
		buf.WriteString(clue)
		buf.WriteByte(0)
	}
	buf.WriteString(f.notes)
	buf.WriteByte(0)
	buf.Write(f.extras)
	return buf.Bytes()
}

// puzSection encodes one trailing section (tag, length, checksum, payload,
// trailing NUL).
func puzSection(tag string, data []byte) []byte {
	out := make([]byte, 0, len(data)+9)
	out = append(out, tag...)
	var fixed [4]byte
	le16(fixed[0:], uint16(len(data)))
	le16(fixed[2:], puzChecksum(data, 0))
	out = append(out, fixed[:]...)
	out = append(out, data...)
	return append(out, 0)
}

// cluesFor generates placeholder clue strings in the file's flat order:
// every across start in row-major order, then every down start.
func cluesFor(solution string, width, height int) []string {
	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
		for x := range cells[y] {
			if solution[y*width+x] == '.' {
				cells[y][x].IsBlack = true
			}
		}
	}
	starts := numberGrid(cells)
	var clues []string
	for _, s := range starts {
		if s.Across {
			clues = append(clues, fmt.Sprintf("A%d", s.Number))
		}
	}
	for _, s := range starts {
		if s.Down {
			clues = append(clues, fmt.Sprintf("D%d", s.Number))
		}
	}
	return clues
}

// --- Decode suite ---

type PuzSuite struct {
	suite.Suite
}

func TestPuz(t *testing.T) {
	suite.Run(t, new(PuzSuite))
}

func (s *PuzSuite) TestDecodeBasic() {
	f := &puzFile{
		width:     3,
		height:    3,
		solution:  "ABCD.EFGH",
		clues:     []string{"A1", "A3", "D1", "D2"},
		title:     "Tiny",
		author:    "Setter",
		copyright: "© 2026",
		notes:     "a note",
	}
	p, err := DecodePuz(f.encode(), nil)
	s.Require().NoError(err)

	s.Equal(3, p.Width)
	s.Equal(3, p.Height)
	s.Equal(4, p.NumClues)
	s.Equal("Tiny", p.Title)
	s.Equal("Setter", p.Author)
	s.Equal("© 2026", p.Copyright)
	s.Equal("a note", p.Notes)
	s.Equal("1.3", p.Version)
	s.Equal([]string{"A1", "A3", "D1", "D2"}, p.Clues)
	s.Equal(".", p.Solution[4])
	s.Equal("A", p.Solution[0])
	s.Equal("-", p.PlayerState[0])
	s.False(p.Scrambled)
}

func (s *PuzSuite) TestDecodeWithPreamble() {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
		preamble: []byte("vendor junk before the real file\r\n"),
	}
	p, err := DecodePuz(f.encode(), nil)
	s.Require().NoError(err)
	s.Equal(3, p.Width)
}

func (s *PuzSuite) TestDecodeBase64() {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
	}
	encoded := base64.StdEncoding.EncodeToString(f.encode())
	p, err := DecodePuz([]byte(encoded), nil)
	s.Require().NoError(err)
	s.Equal(3, p.Width)
}

func (s *PuzSuite) TestMagicMissing() {
	_, err := DecodePuz([]byte("not a binary puzzle at all"), nil)
	var pe *ParseError
	s.Require().ErrorAs(err, &pe)
	s.Equal(CodePuzInvalidHeader, pe.Code)
	s.True(pe.FormatMismatch())
}

func (s *PuzSuite) TestMagicTooEarly() {
	// The header cannot be positioned when fewer than 2 bytes precede the
	// magic string.
	data := append([]byte("ACROSS&DOWN\x00"), make([]byte, 64)...)
	_, err := DecodePuz(data, nil)
	var pe *ParseError
	s.Require().ErrorAs(err, &pe)
	s.Equal(CodePuzInvalidHeader, pe.Code)
	s.True(pe.FormatMismatch())
}

func (s *PuzSuite) TestChecksumMismatch() {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
		badCIB:   true,
	}
	_, err := DecodePuz(f.encode(), nil)
	var pe *ParseError
	s.Require().ErrorAs(err, &pe)
	s.Equal(CodePuzChecksumMismatch, pe.Code)
	s.False(pe.FormatMismatch(), "a checksum mismatch means confirmed-but-corrupt")
}

func (s *PuzSuite) TestTruncatedSolution() {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
	}
	data := f.encode()
	headerEnd := bytes.Index(data, puzMagic) - 2 + puzHeaderSize
	_, err := DecodePuz(data[:headerEnd+4], nil)

	var pe *ParseError
	s.Require().ErrorAs(err, &pe)
	s.Equal(CodePuzTruncated, pe.Code)
	s.False(pe.FormatMismatch())

	var be *BoundsError
	s.Require().ErrorAs(err, &be, "the low-level bounds fault stays on the chain")
}

func (s *PuzSuite) TestMissingClueStrings() {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
	}
	data := f.encode()
	// Drop the last two clue strings and the notes.
	data = data[:bytes.Index(data, []byte("D1\x00"))]
	_, err := DecodePuz(data, nil)

	var pe *ParseError
	s.Require().ErrorAs(err, &pe)
	s.Equal(CodePuzTruncated, pe.Code)
}

func (s *PuzSuite) TestDimensionCeiling() {
	f := &puzFile{
		width:    101,
		height:   3,
		solution: strings.Repeat("A", 101*3),
		clues:    []string{"x"},
	}
	_, err := DecodePuz(f.encode(), nil)
	var pe *ParseError
	s.Require().ErrorAs(err, &pe)
	s.Equal(CodePuzInvalidDimensions, pe.Code)
}

func (s *PuzSuite) TestMaxGridSizeOption() {
	f := &puzFile{
		width:    5,
		height:   5,
		solution: strings.Repeat("A", 25),
	}
	f.clues = cluesFor(f.solution, 5, 5)
	opts := &Options{MaxGridSize: &GridSize{Width: 3, Height: 3}}
	_, err := DecodePuz(f.encode(), opts)
	var pe *ParseError
	s.Require().ErrorAs(err, &pe)
	s.Equal(CodePuzInvalidDimensions, pe.Code)
}

func (s *PuzSuite) TestLatin1Strings() {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
		title:    "CAF\xc9", // "CAFÉ" in ISO-8859-1
	}
	p, err := DecodePuz(f.encode(), &Options{Encoding: "ISO-8859-1"})
	s.Require().NoError(err)
	s.Equal("CAFÉ", p.Title)
}

func (s *PuzSuite) TestScrambledTag() {
	f := &puzFile{
		width:        3,
		height:       3,
		solution:     "ABCD.EFGH",
		clues:        []string{"A1", "A3", "D1", "D2"},
		scrambledTag: 0x0004,
	}
	p, err := DecodePuz(f.encode(), nil)
	s.Require().NoError(err)
	s.True(p.Scrambled)

	puzzle, err := ConvertPuz(p)
	s.Require().NoError(err)
	s.Equal(true, puzzle.AdditionalProperties["scrambled"])
}

func (s *PuzSuite) TestTrailingSections() {
	grbs := make([]byte, 9)
	grbs[0] = 1 // cell (0,0) uses rebus table entry 0
	gext := make([]byte, 9)
	gext[2] = gextCircled

	var extras []byte
	extras = append(extras, puzSection("GRBS", grbs)...)
	extras = append(extras, puzSection("RTBL", []byte(" 0:CAT;"))...)
	extras = append(extras, puzSection("GEXT", gext)...)
	extras = append(extras, puzSection("LTIM", []byte("125,1"))...)
	extras = append(extras, puzSection("ZZZZ", []byte{1, 2, 3})...) // unknown, skipped whole
	extras = append(extras, 0, 0, 0)                                // padding
	extras = append(extras, "GR"...)                                // truncated header: stop, no error

	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
		extras:   extras,
	}
	p, err := DecodePuz(f.encode(), nil)
	s.Require().NoError(err)

	s.Require().NotNil(p.RebusGrid)
	s.Equal(1, p.RebusGrid[0])
	s.Equal(map[int]string{0: "CAT"}, p.RebusTable)
	s.Equal(byte(gextCircled), p.GridExtras[2])
	s.Require().NotNil(p.Timer)
	s.Equal(125, p.Timer.ElapsedSeconds)
	s.True(p.Timer.Running)
	s.Require().Len(p.Sections, 1)
	s.Equal("ZZZZ", p.Sections[0].Tag)
	s.Equal([]byte{1, 2, 3}, p.Sections[0].Data)
}

func (s *PuzSuite) TestBadSectionSize() {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
		extras:   puzSection("GRBS", []byte{1, 0, 0}), // wrong cell count
	}
	_, err := DecodePuz(f.encode(), nil)
	var pe *ParseError
	s.Require().ErrorAs(err, &pe)
	s.Equal(CodePuzInvalidSection, pe.Code)
}

// --- Conversion ---

func TestConvertPuzClueOrder(t *testing.T) {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		// The flat list is consumed in two passes: across starts in
		// row-major order, then down starts. Never interleaved.
		clues: []string{"A1", "A3", "D1", "D2"},
	}
	ir, err := DecodePuz(f.encode(), nil)
	require.NoError(t, err)
	p, err := ConvertPuz(ir)
	require.NoError(t, err)

	assert.Equal(t, []Clue{{1, "A1"}, {3, "A3"}}, p.Clues.Across)
	assert.Equal(t, []Clue{{1, "D1"}, {2, "D2"}}, p.Clues.Down)

	assert.Equal(t, 3, p.Grid.Width)
	assert.Equal(t, 3, p.Grid.Height)
	assert.True(t, p.Grid.Cells[1][1].IsBlack)
	assert.Empty(t, p.Grid.Cells[1][1].Solution, "black cells never carry a solution")
	assert.Equal(t, "A", p.Grid.Cells[0][0].Solution)
	assert.Equal(t, 1, p.Grid.Cells[0][0].Number)
}

func TestConvertPuzClueCountMismatch(t *testing.T) {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"only", "three", "clues"},
	}
	ir, err := DecodePuz(f.encode(), nil)
	require.NoError(t, err)
	_, err = ConvertPuz(ir)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodePuzClueMismatch, pe.Code)
	assert.False(t, pe.FormatMismatch())
}

// TestPuzRebusScenario exercises a 15x15 puzzle with a GRBS/RTBL pair
// encoding a single rebus key.
func TestPuzRebusScenario(t *testing.T) {
	const size = 15
	rows := make([]byte, 0, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x+y)%5 == 4 && (x*y)%3 == 1 {
				rows = append(rows, '.')
			} else {
				rows = append(rows, byte('A'+(x+y)%26))
			}
		}
	}
	solution := string(rows)

	// Put the rebus on the first non-black cell.
	grbs := make([]byte, size*size)
	rebusIdx := strings.IndexFunc(solution, func(r rune) bool { return r != '.' })
	grbs[rebusIdx] = 1 // 1-based: table entry 0

	var extras []byte
	extras = append(extras, puzSection("GRBS", grbs)...)
	extras = append(extras, puzSection("RTBL", []byte(" 0:HEART;"))...)

	f := &puzFile{
		width:    size,
		height:   size,
		solution: solution,
		clues:    cluesFor(solution, size, size),
		extras:   extras,
	}
	ir, err := DecodePuz(f.encode(), nil)
	require.NoError(t, err)
	p, err := ConvertPuz(ir)
	require.NoError(t, err)

	assert.Equal(t, size, p.Grid.Width)
	assert.Equal(t, size, p.Grid.Height)
	require.Len(t, p.RebusTable, 1)
	assert.Equal(t, "HEART", p.RebusTable[0])

	var rebusCells []Cell
	for y := range p.Grid.Cells {
		for x := range p.Grid.Cells[y] {
			if p.Grid.Cells[y][x].HasRebus {
				rebusCells = append(rebusCells, p.Grid.Cells[y][x])
			}
		}
	}
	require.Len(t, rebusCells, 1)
	assert.Equal(t, 0, rebusCells[0].RebusKey)
	_, ok := p.RebusTable[rebusCells[0].RebusKey]
	assert.True(t, ok, "the cell's key must resolve in the table")

	// Black cell positions survive the round trip.
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			assert.Equal(t, solution[y*size+x] == '.', p.Grid.Cells[y][x].IsBlack)
		}
	}
}

func TestConvertPuzCircles(t *testing.T) {
	gext := make([]byte, 9)
	gext[0] = gextCircled
	gext[8] = gextCircled | 0x10 // other flag bits are ignored

	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
		extras:   puzSection("GEXT", gext),
	}
	ir, err := DecodePuz(f.encode(), nil)
	require.NoError(t, err)
	p, err := ConvertPuz(ir)
	require.NoError(t, err)

	assert.True(t, p.Grid.Cells[0][0].IsCircled)
	assert.True(t, p.Grid.Cells[2][2].IsCircled)
	assert.False(t, p.Grid.Cells[0][1].IsCircled)
}
