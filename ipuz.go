package xword

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

// IpuzCellKind classifies a normalized grid cell.
type IpuzCellKind int

const (
	// IpuzCellNormal is an ordinary playable cell.
	IpuzCellNormal IpuzCellKind = iota
	// IpuzCellBlock is a block square.
	IpuzCellBlock
	// IpuzCellVoid is a cell outside the playable grid, distinct from a
	// block.
	IpuzCellVoid
)

// IpuzCell is the normalized form of the format's polymorphic cell encoding.
// The same block/void/number question is answered by up to five JSON shapes
// (null, "#", bare number, numeric string, nested object); normalization
// happens exactly once, here, at the IR boundary.
type IpuzCell struct {
	Kind     IpuzCellKind
	Number   int
	Solution string
	Circled  bool

	// Style holds the cell's style object, when present.
	Style map[string]any

	// Meta holds the remaining side-channels of an object-shaped cell
	// (value, continued, directions, given, ...). They never affect the
	// cell's kind.
	Meta map[string]any
}

// IpuzClue is one clue entry from any clue section.
type IpuzClue struct {
	Number int
	Text   string

	// Meta preserves the entry's extra fields (cells, references,
	// continued, highlight, image, tuple extras).
	Meta map[string]any
}

// IpuzPuzzle is the format-faithful intermediate representation of a JSON
// document.
type IpuzPuzzle struct {
	Version string
	Kind    []string

	Width  int
	Height int

	Title     string
	Author    string
	Copyright string
	Notes     string
	Date      string

	// Block is the glyph marking block cells, "#" unless the document
	// overrides it.
	Block string

	// Empty is the value marking empty playable cells, "0" unless the
	// document overrides it.
	Empty string

	Cells [][]IpuzCell

	// Clues holds every clue section by its literal name, including
	// non-standard variety sections.
	Clues map[string][]IpuzClue

	// Extensions preserves top-level keys that look like URIs (vendor
	// extensions), byte for byte.
	Extensions map[string]json.RawMessage
}

// ipuzMaxCellDepth bounds recursion through nested object cells.
const ipuzMaxCellDepth = 8

// DecodeIpuz decodes a JSON-dialect document into its intermediate
// representation. The input may be bare JSON, JSON with comments or trailing
// commas, or a JSONP-style "ipuz(...)" wrapper around either.
func DecodeIpuz(data []byte, opts *Options) (*IpuzPuzzle, error) {
	return guard(FormatIpuz, func() (*IpuzPuzzle, error) {
		return decodeIpuz(data, opts)
	})
}

func decodeIpuz(data []byte, opts *Options) (*IpuzPuzzle, error) {
	payload := unwrapJSONP(stripBOM(data))
	payload = jsonc.ToJSON(payload)

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, errf(FormatIpuz, CodeIpuzInvalidJSON, "not a JSON object").withCause(err)
	}

	p := &IpuzPuzzle{Block: "#", Empty: "0"}

	kindRaw, ok := doc["kind"]
	if !ok {
		return nil, errf(FormatIpuz, CodeIpuzMissingKind, "document has no kind list").
			withContext(ErrorContext{Field: "kind"})
	}
	if err := json.Unmarshal(kindRaw, &p.Kind); err != nil {
		return nil, errf(FormatIpuz, CodeIpuzMissingKind, "kind is not a list of strings").
			withContext(ErrorContext{Field: "kind"}).withCause(err)
	}
	if !ipuzKindIsCrossword(p.Kind) {
		return nil, errf(FormatIpuz, CodeUnsupportedPuzzleKind,
			"no crossword kind among %v", p.Kind).withContext(ErrorContext{Field: "kind"})
	}

	if raw, ok := doc["version"]; ok {
		_ = json.Unmarshal(raw, &p.Version)
	}
	if raw, ok := doc["block"]; ok {
		var block string
		if err := json.Unmarshal(raw, &block); err == nil && block != "" {
			p.Block = block
		}
	}
	if raw, ok := doc["empty"]; ok {
		// The empty marker may be written as a string or a bare number.
		var empty string
		if err := json.Unmarshal(raw, &empty); err != nil {
			var n json.Number
			if err := json.Unmarshal(raw, &n); err == nil {
				empty = n.String()
			}
		}
		if empty != "" {
			p.Empty = empty
		}
	}
	for field, dst := range map[string]*string{
		"title":     &p.Title,
		"author":    &p.Author,
		"copyright": &p.Copyright,
		"notes":     &p.Notes,
		"date":      &p.Date,
	} {
		if raw, ok := doc[field]; ok {
			_ = json.Unmarshal(raw, dst)
		}
	}

	if err := decodeIpuzDimensions(doc, p, opts); err != nil {
		return nil, err
	}
	if err := decodeIpuzGrid(doc, p); err != nil {
		return nil, err
	}
	if err := decodeIpuzSolution(doc, p); err != nil {
		return nil, err
	}
	if err := decodeIpuzClues(doc, p); err != nil {
		return nil, err
	}

	for key, raw := range doc {
		if strings.Contains(key, ":") {
			if p.Extensions == nil {
				p.Extensions = make(map[string]json.RawMessage)
			}
			p.Extensions[key] = raw
		}
	}
	return p, nil
}

// unwrapJSONP strips an "ipuz( ... )" wrapper, tolerating surrounding
// whitespace and a trailing semicolon.
func unwrapJSONP(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("ipuz")) {
		return data
	}
	rest := bytes.TrimSpace(trimmed[len("ipuz"):])
	if len(rest) == 0 || rest[0] != '(' {
		return data
	}
	end := bytes.LastIndexByte(rest, ')')
	if end < 0 {
		return data
	}
	return rest[1:end]
}

func ipuzKindIsCrossword(kinds []string) bool {
	for _, k := range kinds {
		if strings.Contains(strings.ToLower(k), "crossword") {
			return true
		}
	}
	return false
}

func decodeIpuzDimensions(doc map[string]json.RawMessage, p *IpuzPuzzle, opts *Options) error {
	raw, ok := doc["dimensions"]
	if !ok {
		return errf(FormatIpuz, CodeIpuzMissingField, "document has no dimensions").
			withContext(ErrorContext{Field: "dimensions"})
	}
	var dims struct {
		Width  *json.Number `json:"width"`
		Height *json.Number `json:"height"`
	}
	if err := json.Unmarshal(raw, &dims); err != nil {
		return errf(FormatIpuz, CodeIpuzInvalidDimensions, "dimensions must be numeric").
			withContext(ErrorContext{Field: "dimensions"}).withCause(err)
	}
	if dims.Width == nil || dims.Height == nil {
		return errf(FormatIpuz, CodeIpuzInvalidDimensions, "dimensions need both width and height").
			withContext(ErrorContext{Field: "dimensions"})
	}
	width, errW := dims.Width.Int64()
	height, errH := dims.Height.Int64()
	if errW != nil || errH != nil {
		return errf(FormatIpuz, CodeIpuzInvalidDimensions,
			"dimensions %sx%s are not integers", dims.Width.String(), dims.Height.String()).
			withContext(ErrorContext{Field: "dimensions"})
	}
	if err := checkGridSize(FormatIpuz, CodeIpuzInvalidDimensions, width, height, opts.maxGridSize()); err != nil {
		return err
	}
	p.Width, p.Height = int(width), int(height)
	return nil
}

func decodeIpuzGrid(doc map[string]json.RawMessage, p *IpuzPuzzle) error {
	raw, ok := doc["puzzle"]
	if !ok {
		return errf(FormatIpuz, CodeIpuzMissingField, "document has no puzzle grid").
			withContext(ErrorContext{Field: "puzzle"})
	}
	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return errf(FormatIpuz, CodeIpuzInvalidCell, "puzzle grid is not a 2D array").
			withContext(ErrorContext{Field: "puzzle"}).withCause(err)
	}
	if len(rows) != p.Height {
		return errf(FormatIpuz, CodeIpuzInvalidDimensions,
			"puzzle grid has %d rows, dimensions declare %d", len(rows), p.Height).
			withContext(ErrorContext{Field: "puzzle"})
	}

	p.Cells = make([][]IpuzCell, p.Height)
	for y, row := range rows {
		if len(row) != p.Width {
			return errf(FormatIpuz, CodeIpuzInvalidDimensions,
				"puzzle row %d has %d cells, dimensions declare %d", y+1, len(row), p.Width).
				withContext(ErrorContext{Line: y + 1, Field: "puzzle"})
		}
		p.Cells[y] = make([]IpuzCell, p.Width)
		for x, rawCell := range row {
			cell, err := normalizeIpuzCell(rawCell, p.Block, p.Empty, 0)
			if err != nil {
				return errf(FormatIpuz, CodeIpuzInvalidCell, "cell (%d,%d) unreadable", x+1, y+1).
					withContext(ErrorContext{Line: y + 1, Column: x + 1, Field: "puzzle"}).withCause(err)
			}
			p.Cells[y][x] = cell
		}
	}
	return nil
}

// normalizeIpuzCell resolves the polymorphic cell encoding into a tagged
// value. null and the string "null" are void; the block glyph is a block; the
// empty marker is an unnumbered playable cell; a bare number or numeric
// string is a clue-number label; an object defers the same rule to its own
// "cell" key and adds side-channels on top.
func normalizeIpuzCell(raw json.RawMessage, block, empty string, depth int) (IpuzCell, error) {
	if depth > ipuzMaxCellDepth {
		return IpuzCell{}, errf(FormatIpuz, CodeIpuzInvalidCell, "cell object nested deeper than %d levels", ipuzMaxCellDepth)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return IpuzCell{Kind: IpuzCellVoid}, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return IpuzCell{}, err
		}
		if s == "null" {
			return IpuzCell{Kind: IpuzCellVoid}, nil
		}
		if s == block {
			return IpuzCell{Kind: IpuzCellBlock}, nil
		}
		if s == empty {
			return IpuzCell{Kind: IpuzCellNormal}, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return IpuzCell{}, errf(FormatIpuz, CodeIpuzInvalidCell, "cell string %q is neither the block glyph nor a number", s)
		}
		return IpuzCell{Kind: IpuzCellNormal, Number: n}, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return IpuzCell{}, err
		}
		cell := IpuzCell{Kind: IpuzCellNormal}
		if inner, ok := obj["cell"]; ok {
			normalized, err := normalizeIpuzCell(inner, block, empty, depth+1)
			if err != nil {
				return IpuzCell{}, err
			}
			cell = normalized
		}
		if styleRaw, ok := obj["style"]; ok {
			var style map[string]any
			if err := json.Unmarshal(styleRaw, &style); err == nil {
				cell.Style = style
				if shape, ok := style["shapebg"].(string); ok && shape == "circle" {
					cell.Circled = true
				}
			}
		}
		for key, value := range obj {
			if key == "cell" || key == "style" {
				continue
			}
			var decoded any
			if err := json.Unmarshal(value, &decoded); err != nil {
				continue
			}
			if cell.Meta == nil {
				cell.Meta = make(map[string]any)
			}
			cell.Meta[key] = decoded
		}
		return cell, nil

	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return IpuzCell{}, errf(FormatIpuz, CodeIpuzInvalidCell, "cell value %s has no recognized shape", trimmed)
		}
		v, err := n.Int64()
		if err != nil || v < 0 {
			return IpuzCell{}, errf(FormatIpuz, CodeIpuzInvalidCell, "cell number %s is not a non-negative integer", n.String())
		}
		return IpuzCell{Kind: IpuzCellNormal, Number: int(v)}, nil
	}
}

// decodeIpuzSolution applies the optional parallel solution grid. A value of
// null, "null", or the block glyph means "no solution here"; strings carry
// the answer, enabling multi-character rebus answers.
func decodeIpuzSolution(doc map[string]json.RawMessage, p *IpuzPuzzle) error {
	raw, ok := doc["solution"]
	if !ok {
		return nil
	}
	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return errf(FormatIpuz, CodeIpuzInvalidCell, "solution grid is not a 2D array").
			withContext(ErrorContext{Field: "solution"}).withCause(err)
	}
	if len(rows) != p.Height {
		return errf(FormatIpuz, CodeIpuzInvalidDimensions,
			"solution grid has %d rows, dimensions declare %d", len(rows), p.Height).
			withContext(ErrorContext{Field: "solution"})
	}
	for y, row := range rows {
		if len(row) != p.Width {
			return errf(FormatIpuz, CodeIpuzInvalidDimensions,
				"solution row %d has %d cells, dimensions declare %d", y+1, len(row), p.Width).
				withContext(ErrorContext{Line: y + 1, Field: "solution"})
		}
		for x, rawValue := range row {
			value := ipuzSolutionValue(rawValue, p.Block)
			if value != "" {
				p.Cells[y][x].Solution = value
			}
		}
	}
	return nil
}

func ipuzSolutionValue(raw json.RawMessage, block string) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		if s == "null" || s == block {
			return ""
		}
		return s
	case '{':
		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return ""
		}
		return obj.Value
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return ""
		}
		return n.String()
	}
}

// decodeIpuzClues parses every clue section. Entries come in tuple form
// [number, text, ...extras] or object form {number, clue, ...}.
func decodeIpuzClues(doc map[string]json.RawMessage, p *IpuzPuzzle) error {
	raw, ok := doc["clues"]
	if !ok {
		return nil
	}
	var sections map[string][]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return errf(FormatIpuz, CodeIpuzInvalidClue, "clues is not a map of sections").
			withContext(ErrorContext{Field: "clues"}).withCause(err)
	}
	p.Clues = make(map[string][]IpuzClue, len(sections))
	for section, entries := range sections {
		clues := make([]IpuzClue, 0, len(entries))
		for i, entry := range entries {
			clue, err := decodeIpuzClue(entry)
			if err != nil {
				return errf(FormatIpuz, CodeIpuzInvalidClue, "section %q entry %d unreadable", section, i+1).
					withContext(ErrorContext{Field: "clues." + section}).withCause(err)
			}
			clues = append(clues, clue)
		}
		p.Clues[section] = clues
	}
	return nil
}

func decodeIpuzClue(raw json.RawMessage) (IpuzClue, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return IpuzClue{}, errf(FormatIpuz, CodeIpuzInvalidClue, "empty clue entry")
	}

	switch trimmed[0] {
	case '[':
		var tuple []json.RawMessage
		if err := json.Unmarshal(trimmed, &tuple); err != nil {
			return IpuzClue{}, err
		}
		if len(tuple) < 2 {
			return IpuzClue{}, errf(FormatIpuz, CodeIpuzInvalidClue, "clue tuple needs number and text")
		}
		var number json.Number
		if err := json.Unmarshal(tuple[0], &number); err != nil {
			return IpuzClue{}, err
		}
		n, err := number.Int64()
		if err != nil {
			return IpuzClue{}, err
		}
		var text string
		if err := json.Unmarshal(tuple[1], &text); err != nil {
			return IpuzClue{}, err
		}
		clue := IpuzClue{Number: int(n), Text: text}
		if len(tuple) > 2 {
			var extras []any
			for _, extra := range tuple[2:] {
				var decoded any
				if err := json.Unmarshal(extra, &decoded); err == nil {
					extras = append(extras, decoded)
				}
			}
			if extras != nil {
				clue.Meta = map[string]any{"extras": extras}
			}
		}
		return clue, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return IpuzClue{}, err
		}
		clue := IpuzClue{}
		if numberRaw, ok := obj["number"]; ok {
			var number json.Number
			if err := json.Unmarshal(numberRaw, &number); err != nil {
				return IpuzClue{}, err
			}
			n, err := number.Int64()
			if err != nil {
				return IpuzClue{}, err
			}
			clue.Number = int(n)
		}
		if clueRaw, ok := obj["clue"]; ok {
			if err := json.Unmarshal(clueRaw, &clue.Text); err != nil {
				return IpuzClue{}, err
			}
		}
		for key, value := range obj {
			if key == "number" || key == "clue" {
				continue
			}
			var decoded any
			if err := json.Unmarshal(value, &decoded); err != nil {
				continue
			}
			if clue.Meta == nil {
				clue.Meta = make(map[string]any)
			}
			clue.Meta[key] = decoded
		}
		return clue, nil

	default:
		return IpuzClue{}, errf(FormatIpuz, CodeIpuzInvalidClue, "clue entry %s has no recognized shape", trimmed)
	}
}
