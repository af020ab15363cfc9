package xword

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// xmlNode is a generic element tree. The XML dialect nests the same payload
// under several different roots and wraps text in presentation markup, so
// the decoder walks a tree instead of binding struct tags to one shape.
type xmlNode struct {
	Name     string
	Attrs    map[string]string
	Children []*xmlNode
	Text     string
}

// child returns the first direct child with the given local name,
// case-insensitively, or nil.
func (n *xmlNode) child(name string) *xmlNode {
	for _, c := range n.Children {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// childAll returns every direct child with the given local name.
func (n *xmlNode) childAll(name string) []*xmlNode {
	var out []*xmlNode
	for _, c := range n.Children {
		if strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
	}
	return out
}

// attr returns the named attribute, case-insensitively, or "".
func (n *xmlNode) attr(name string) string {
	for k, v := range n.Attrs {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// allText concatenates the node's character data and that of all
// descendants, in document order.
func (n *xmlNode) allText() string {
	var b strings.Builder
	n.appendText(&b)
	return b.String()
}

func (n *xmlNode) appendText(b *strings.Builder) {
	b.WriteString(n.Text)
	for _, c := range n.Children {
		c.appendText(b)
	}
}

// find does a breadth-first search for the first descendant with the given
// local name within maxDepth levels.
func (n *xmlNode) find(name string, maxDepth int) *xmlNode {
	queue := []*xmlNode{n}
	for depth := 0; depth <= maxDepth && len(queue) > 0; depth++ {
		var next []*xmlNode
		for _, node := range queue {
			if strings.EqualFold(node.Name, name) {
				return node
			}
			next = append(next, node.Children...)
		}
		queue = next
	}
	return nil
}

// parseXMLTree builds an element tree from raw XML. Namespaces are dropped
// (local names only) and declared charsets resolve through the same encoding
// table as everything else.
func parseXMLTree(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		enc, err := resolveEncoding(label)
		if err != nil {
			return nil, err
		}
		if enc == nil {
			return input, nil
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var root *xmlNode
	var stack []*xmlNode
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node := &xmlNode{Name: t.Name.Local}
			if len(t.Attr) > 0 {
				node.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					node.Attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errf(FormatJpz, CodeJpzInvalidXML, "multiple document roots")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, errf(FormatJpz, CodeJpzInvalidXML, "no document root")
	}
	return root, nil
}

// JpzCell is one sparse grid cell from the XML dialect. Coordinates are
// 1-based as written in the file.
type JpzCell struct {
	X, Y            int
	Solution        string
	Number          int
	IsBlock         bool
	IsCircled       bool
	BackgroundColor string
	TopBar          bool
	BottomBar       bool
	LeftBar         bool
	RightBar        bool
}

// JpzClue is one clue entry.
type JpzClue struct {
	Number int
	Text   string
	// Word references a word-list entry when the file links clues to word
	// ids. Preserved, never interpreted.
	Word string
}

// JpzClueSection is one titled clue group.
type JpzClueSection struct {
	Title  string
	Across bool
	Clues  []JpzClue
}

// JpzWord is a named sequence of grid coordinates, preserved opaquely.
type JpzWord struct {
	ID    string
	Attrs map[string]string
	Cells []map[string]string
}

// JpzPuzzle is the format-faithful intermediate representation of an XML
// document.
type JpzPuzzle struct {
	Title       string
	Creator     string
	Copyright   string
	Description string

	Width  int
	Height int

	Cells []JpzCell
	Clues []JpzClueSection
	Words []JpzWord
}

// jpzUnsupportedKinds are sibling markers under the puzzle root that name
// puzzle types outside this library's scope. They are checked before any
// grid-shaped data is touched.
var jpzUnsupportedKinds = []string{"coded", "cipher", "sudoku", "kakuro", "word-search", "wordsearch"}

// jpzCluePrefix extracts a leading "N. " numeric prefix from clue text.
var jpzCluePrefix = regexp.MustCompile(`^\s*(\d+)\.\s*(.*)$`)

// DecodeJpz decodes an XML-dialect document into its intermediate
// representation.
func DecodeJpz(data []byte, opts *Options) (*JpzPuzzle, error) {
	return guard(FormatJpz, func() (*JpzPuzzle, error) {
		return decodeJpz(data, opts)
	})
}

func decodeJpz(data []byte, opts *Options) (*JpzPuzzle, error) {
	root, err := parseXMLTree(stripBOM(data))
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			return nil, pe
		}
		return nil, errf(FormatJpz, CodeJpzInvalidXML, "malformed XML").withCause(err)
	}

	// The payload may be the root itself, a direct child, or buried another
	// level down depending on which writer produced the file; fall back
	// progressively.
	rectangular := root.find("rectangular-puzzle", 3)
	if rectangular == nil {
		return nil, errf(FormatJpz, CodeJpzMissingPuzzle, "no rectangular-puzzle element under root <%s>", root.Name)
	}

	for _, kind := range jpzUnsupportedKinds {
		if rectangular.child(kind) != nil {
			return nil, errf(FormatJpz, CodeUnsupportedPuzzleKind, "puzzle kind %q is not supported", kind)
		}
	}

	crossword := rectangular.child("crossword")
	if crossword == nil {
		return nil, errf(FormatJpz, CodeJpzMissingGrid, "rectangular-puzzle has no crossword element")
	}

	p := &JpzPuzzle{}
	if meta := rectangular.child("metadata"); meta != nil {
		readMeta := func(name string) string {
			if node := meta.child(name); node != nil {
				return strings.TrimSpace(node.allText())
			}
			return ""
		}
		p.Title = readMeta("title")
		p.Creator = readMeta("creator")
		p.Copyright = readMeta("copyright")
		p.Description = readMeta("description")
	}

	if err := decodeJpzGrid(crossword, p, opts); err != nil {
		return nil, err
	}
	if err := decodeJpzClues(crossword, p); err != nil {
		return nil, err
	}
	decodeJpzWords(crossword, p)
	return p, nil
}

func decodeJpzGrid(crossword *xmlNode, p *JpzPuzzle, opts *Options) error {
	grid := crossword.child("grid")
	if grid == nil {
		return errf(FormatJpz, CodeJpzMissingGrid, "crossword has no grid element")
	}

	width, errW := strconv.Atoi(grid.attr("width"))
	height, errH := strconv.Atoi(grid.attr("height"))
	if errW != nil || errH != nil {
		return errf(FormatJpz, CodeJpzInvalidDimensions,
			"grid element needs integer width and height attributes").
			withContext(ErrorContext{Field: "grid"})
	}
	if err := checkGridSize(FormatJpz, CodeJpzInvalidDimensions, width, height, opts.maxGridSize()); err != nil {
		return err
	}
	p.Width, p.Height = width, height

	// The cell list is sparse: any (x, y) not present stays an ordinary
	// empty cell.
	for _, node := range grid.childAll("cell") {
		x, errX := strconv.Atoi(node.attr("x"))
		y, errY := strconv.Atoi(node.attr("y"))
		if errX != nil || errY != nil {
			return errf(FormatJpz, CodeJpzInvalidCell, "cell element needs integer x and y attributes")
		}
		if x < 1 || x > width || y < 1 || y > height {
			return errf(FormatJpz, CodeJpzInvalidCell,
				"cell (%d,%d) outside %dx%d grid", x, y, width, height)
		}
		cell := JpzCell{
			X:               x,
			Y:               y,
			Solution:        node.attr("solution"),
			IsBlock:         strings.EqualFold(node.attr("type"), "block"),
			IsCircled:       strings.EqualFold(node.attr("background-shape"), "circle"),
			BackgroundColor: node.attr("background-color"),
			TopBar:          node.attr("top-bar") == "true",
			BottomBar:       node.attr("bottom-bar") == "true",
			LeftBar:         node.attr("left-bar") == "true",
			RightBar:        node.attr("right-bar") == "true",
		}
		if number := node.attr("number"); number != "" {
			n, err := strconv.Atoi(number)
			if err != nil {
				return errf(FormatJpz, CodeJpzInvalidCell,
					"cell (%d,%d) has non-numeric number %q", x, y, number).withCause(err)
			}
			cell.Number = n
		}
		p.Cells = append(p.Cells, cell)
	}
	return nil
}

func decodeJpzClues(crossword *xmlNode, p *JpzPuzzle) error {
	for _, section := range crossword.childAll("clues") {
		title := jpzSectionTitle(section)
		parsed := JpzClueSection{
			Title: title,
			// Anything not matching "across" is down; there is no third
			// direction.
			Across: strings.Contains(strings.ToLower(title), "across"),
		}
		for _, node := range section.childAll("clue") {
			clue := JpzClue{Word: node.attr("word")}
			text := strings.TrimSpace(node.allText())
			if number := node.attr("number"); number != "" {
				n, err := strconv.Atoi(number)
				if err != nil {
					return errf(FormatJpz, CodeJpzInvalidClue, "clue has non-numeric number %q", number).withCause(err)
				}
				clue.Number = n
				clue.Text = text
			} else if m := jpzCluePrefix.FindStringSubmatch(text); m != nil {
				clue.Number, _ = strconv.Atoi(m[1])
				clue.Text = m[2]
			} else {
				return errf(FormatJpz, CodeJpzInvalidClue, "clue %q has no number", text)
			}
			parsed.Clues = append(parsed.Clues, clue)
		}
		p.Clues = append(p.Clues, parsed)
	}
	return nil
}

// jpzSectionTitle resolves a clue group's direction title: a title
// attribute, a nested title element (first child element's text, falling
// back to the element's own raw text), or "".
func jpzSectionTitle(section *xmlNode) string {
	if title := section.attr("title"); title != "" {
		return title
	}
	node := section.child("title")
	if node == nil {
		return ""
	}
	if len(node.Children) > 0 {
		if text := strings.TrimSpace(node.Children[0].allText()); text != "" {
			return text
		}
	}
	return strings.TrimSpace(node.Text)
}

func decodeJpzWords(crossword *xmlNode, p *JpzPuzzle) {
	for _, node := range crossword.childAll("word") {
		word := JpzWord{ID: node.attr("id"), Attrs: node.Attrs}
		for _, cell := range node.childAll("cells") {
			word.Cells = append(word.Cells, cell.Attrs)
		}
		p.Words = append(p.Words, word)
	}
}
