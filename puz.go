package xword

import (
	"encoding/base64"
	"encoding/binary"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
)

// puzMagic is the 11-byte marker identifying the binary format. It is not
// assumed to sit at a fixed offset: real files carry vendor preambles, so
// the decoder scans for it. The header proper begins 2 bytes before the
// marker.
var puzMagic = []byte("ACROSS&DOWN")

// puzHeader is the fixed-layout region of a binary file, 0x34 bytes from the
// header start. Multi-byte fields are little-endian.
type puzHeader struct {
	FileChecksum       uint16
	Magic              [12]byte // "ACROSS&DOWN\x00"
	CIBChecksum        uint16
	MaskedLowChecksum  [4]byte
	MaskedHighChecksum [4]byte
	Version            [4]byte
	Reserved1C         uint16
	ScrambledChecksum  uint16
	Reserved20         [12]byte
	Width              uint8
	Height             uint8
	NumClues           uint16
	PuzzleType         uint16
	ScrambledTag       uint16
}

const puzHeaderSize = 0x34

// puzCIBStart is the offset, from the header start, of the 8-byte region
// the CIB checksum covers (width through scrambled tag).
const puzCIBStart = 0x2C

// PuzTimer is the optional timer state from an LTIM section.
type PuzTimer struct {
	ElapsedSeconds int
	Running        bool
}

// PuzSection is a trailing section the decoder does not interpret, kept
// verbatim for format fidelity.
type PuzSection struct {
	Tag      string
	Checksum uint16
	Data     []byte
}

// PuzPuzzle is the format-faithful intermediate representation of a binary
// file. It preserves everything the format can express, including player
// state and checksums that the canonical model discards.
type PuzPuzzle struct {
	FileChecksum      uint16
	CIBChecksum       uint16
	ScrambledChecksum uint16
	Version           string
	PuzzleType        uint16
	Scrambled         bool

	Width    int
	Height   int
	NumClues int

	// Solution and PlayerState hold one decoded glyph per cell in row-major
	// order. "." in Solution marks a black cell; "-" or "." in PlayerState
	// means not yet filled.
	Solution    []string
	PlayerState []string

	Title     string
	Author    string
	Copyright string
	Notes     string
	Clues     []string

	// RebusGrid holds one entry per cell from a GRBS section: a 1-based
	// index into the rebus table, 0 for none. Nil when the section is
	// absent.
	RebusGrid []int

	// RebusTable holds the parsed RTBL entries keyed as written in the file.
	RebusTable map[int]string

	// GridExtras holds the raw GEXT flag byte per cell; bit 0x80 marks a
	// circled cell. Nil when the section is absent.
	GridExtras []byte

	Timer *PuzTimer

	// Sections preserves unrecognized trailing sections.
	Sections []PuzSection
}

// DecodePuz decodes a binary-format buffer into its intermediate
// representation. The buffer may also hold a base64 encoding of the binary
// payload; the decoder detects and unwraps that transparently.
func DecodePuz(data []byte, opts *Options) (*PuzPuzzle, error) {
	return guard(FormatPuz, func() (*PuzPuzzle, error) {
		return decodePuz(data, opts)
	})
}

func decodePuz(data []byte, opts *Options) (*PuzPuzzle, error) {
	enc, err := resolveEncoding(opts.encoding())
	if err != nil {
		return nil, err
	}

	r := NewByteReader(data)
	magicAt := r.Find(puzMagic)
	if magicAt < 0 {
		if decoded, ok := decodePuzBase64(data); ok {
			r = NewByteReader(decoded)
			magicAt = r.Find(puzMagic)
		}
		if magicAt < 0 {
			return nil, errf(FormatPuz, CodePuzInvalidHeader, "magic string %q not found", puzMagic)
		}
	}
	if magicAt < 2 {
		return nil, errf(FormatPuz, CodePuzInvalidHeader,
			"magic string at offset %d leaves no room for the leading checksum", magicAt)
	}
	headerStart := magicAt - 2

	if err := r.Seek(headerStart); err != nil {
		return nil, errf(FormatPuz, CodePuzInvalidHeader, "cannot position header").withCause(err)
	}
	raw, err := r.ReadBytes(puzHeaderSize)
	if err != nil {
		return nil, errf(FormatPuz, CodePuzInvalidHeader, "header truncated").
			withContext(ErrorContext{Offset: headerStart}).withCause(err)
	}

	var hdr puzHeader
	if _, err := binary.Decode(raw, binary.LittleEndian, &hdr); err != nil {
		return nil, errf(FormatPuz, CodePuzInvalidHeader, "header unreadable").withCause(err)
	}

	if sum := puzChecksum(raw[puzCIBStart:puzHeaderSize], 0); sum != hdr.CIBChecksum {
		return nil, errf(FormatPuz, CodePuzChecksumMismatch,
			"CIB checksum mismatch: header declares 0x%04X, computed 0x%04X", hdr.CIBChecksum, sum).
			withContext(ErrorContext{Offset: headerStart + 0x0E})
	}

	if err := checkGridSize(FormatPuz, CodePuzInvalidDimensions, hdr.Width, hdr.Height, opts.maxGridSize()); err != nil {
		return nil, err
	}

	p := &PuzPuzzle{
		FileChecksum:      hdr.FileChecksum,
		CIBChecksum:       hdr.CIBChecksum,
		ScrambledChecksum: hdr.ScrambledChecksum,
		Version:           strings.TrimRight(string(hdr.Version[:]), "\x00"),
		PuzzleType:        hdr.PuzzleType,
		Scrambled:         hdr.ScrambledTag != 0,
		Width:             int(hdr.Width),
		Height:            int(hdr.Height),
		NumClues:          int(hdr.NumClues),
	}

	cellCount := p.Width * p.Height
	solutionRaw, err := r.ReadBytes(cellCount)
	if err != nil {
		return nil, errf(FormatPuz, CodePuzTruncated, "solution grid truncated").
			withContext(ErrorContext{Offset: r.Position()}).withCause(err)
	}
	playerRaw, err := r.ReadBytes(cellCount)
	if err != nil {
		return nil, errf(FormatPuz, CodePuzTruncated, "player state grid truncated").
			withContext(ErrorContext{Offset: r.Position()}).withCause(err)
	}
	p.Solution = decodeCellBlock(solutionRaw, enc)
	p.PlayerState = decodeCellBlock(playerRaw, enc)

	readString := func(field string) (string, error) {
		s, err := r.ReadNullTerminatedString(enc)
		if err != nil {
			return "", errf(FormatPuz, CodePuzTruncated, "missing %s string", field).
				withContext(ErrorContext{Offset: r.Position(), Field: field}).withCause(err)
		}
		return s, nil
	}

	if p.Title, err = readString("title"); err != nil {
		return nil, err
	}
	if p.Author, err = readString("author"); err != nil {
		return nil, err
	}
	if p.Copyright, err = readString("copyright"); err != nil {
		return nil, err
	}

	p.Clues = make([]string, 0, p.NumClues)
	for i := 0; i < p.NumClues; i++ {
		clue, err := readString("clue " + strconv.Itoa(i+1))
		if err != nil {
			return nil, err
		}
		p.Clues = append(p.Clues, clue)
	}

	// Some writers omit the trailing notes string entirely.
	if r.HasMore() {
		if p.Notes, err = readString("notes"); err != nil {
			return nil, err
		}
	}

	if err := decodePuzSections(r, p, enc); err != nil {
		return nil, err
	}
	return p, nil
}

// decodePuzBase64 attempts to interpret data as a base64-encoded binary
// payload.
func decodePuzBase64(data []byte) ([]byte, bool) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, false
	}
	return decoded, true
}

// decodePuzSections scans the optional trailing sections: 4-byte tag, 16-bit
// length, 16-bit checksum (retained, not verified), then the payload. Null
// padding between sections is skipped; a truncated section header or payload
// stops scanning without error, since newer writers append sections older
// readers are expected to ignore.
func decodePuzSections(r *ByteReader, p *PuzPuzzle, enc encoding.Encoding) error {
	cellCount := p.Width * p.Height
	for {
		for r.HasMore() {
			b, _ := r.Peek()
			if b != 0 {
				break
			}
			_, _ = r.ReadU8()
		}
		if r.Remaining() < 8 {
			return nil
		}

		tagBytes, _ := r.ReadBytes(4)
		length, _ := r.ReadU16LE()
		checksum, _ := r.ReadU16LE()
		if r.Remaining() < int(length) {
			return nil
		}
		payload, _ := r.ReadBytes(int(length))
		tag := string(tagBytes)

		switch tag {
		case "GRBS":
			if len(payload) != cellCount {
				return errf(FormatPuz, CodePuzInvalidSection,
					"GRBS section holds %d cells, grid has %d", len(payload), cellCount)
			}
			p.RebusGrid = make([]int, cellCount)
			for i, b := range payload {
				p.RebusGrid[i] = int(b)
			}
		case "RTBL":
			text, err := decodeText(payload, enc)
			if err != nil {
				return errf(FormatPuz, CodePuzInvalidSection, "RTBL section undecodable").withCause(err)
			}
			table, err := parsePuzRebusTable(text)
			if err != nil {
				return err
			}
			p.RebusTable = table
		case "GEXT":
			if len(payload) != cellCount {
				return errf(FormatPuz, CodePuzInvalidSection,
					"GEXT section holds %d cells, grid has %d", len(payload), cellCount)
			}
			p.GridExtras = append([]byte(nil), payload...)
		case "LTIM":
			timer, err := parsePuzTimer(string(payload))
			if err != nil {
				return err
			}
			p.Timer = timer
		default:
			p.Sections = append(p.Sections, PuzSection{
				Tag:      tag,
				Checksum: checksum,
				Data:     append([]byte(nil), payload...),
			})
		}
	}
}

// parsePuzRebusTable parses RTBL text of the form "key:value;key:value;...".
// Keys are space-padded decimal integers.
func parsePuzRebusTable(text string) (map[int]string, error) {
	table := make(map[int]string)
	for _, pair := range strings.Split(text, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, errf(FormatPuz, CodePuzInvalidSection, "malformed RTBL entry %q", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, errf(FormatPuz, CodePuzInvalidSection, "malformed RTBL key %q", key).withCause(err)
		}
		table[n] = value
	}
	return table, nil
}

// parsePuzTimer parses LTIM text of the form "elapsedSeconds,isRunningFlag".
func parsePuzTimer(text string) (*PuzTimer, error) {
	elapsed, running, ok := strings.Cut(strings.TrimSpace(text), ",")
	if !ok {
		return nil, errf(FormatPuz, CodePuzInvalidSection, "malformed LTIM section %q", text)
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(elapsed))
	if err != nil {
		return nil, errf(FormatPuz, CodePuzInvalidSection, "malformed LTIM elapsed time %q", elapsed).withCause(err)
	}
	flag, err := strconv.Atoi(strings.TrimSpace(running))
	if err != nil {
		return nil, errf(FormatPuz, CodePuzInvalidSection, "malformed LTIM running flag %q", running).withCause(err)
	}
	return &PuzTimer{ElapsedSeconds: seconds, Running: flag != 0}, nil
}

// decodeCellBlock expands a width*height byte block into one glyph per cell.
// ASCII bytes map directly. For non-ASCII bytes the whole block is decoded
// at once; if the decoded length drifts (multi-byte sequences), each byte is
// decoded independently so the per-cell mapping stays intact.
func decodeCellBlock(raw []byte, enc encoding.Encoding) []string {
	cells := make([]string, len(raw))
	ascii := true
	for _, b := range raw {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		for i, b := range raw {
			cells[i] = string(rune(b))
		}
		return cells
	}

	if decoded, err := decodeText(raw, enc); err == nil {
		runes := []rune(decoded)
		if len(runes) == len(raw) {
			for i, r := range runes {
				cells[i] = string(r)
			}
			return cells
		}
	}

	for i, b := range raw {
		if b < 0x80 {
			cells[i] = string(rune(b))
			continue
		}
		if enc != nil {
			if s, err := decodeText(raw[i:i+1], enc); err == nil {
				cells[i] = s
				continue
			}
		}
		// Latin-1 fallback keeps the glyph printable and the mapping 1:1.
		cells[i] = string(rune(b))
	}
	return cells
}

// puzChecksum is the format's rotating 16-bit region checksum.
func puzChecksum(data []byte, sum uint16) uint16 {
	for _, b := range data {
		if sum&1 != 0 {
			sum = sum>>1 + 0x8000
		} else {
			sum >>= 1
		}
		sum += uint16(b)
	}
	return sum
}
