package xword

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
)

// Format identifies one of the four supported puzzle file dialects.
type Format string

const (
	// FormatPuz is the proprietary binary format.
	FormatPuz Format = "puz"
	// FormatIpuz is the JSON dialect.
	FormatIpuz Format = "ipuz"
	// FormatJpz is the XML dialect.
	FormatJpz Format = "jpz"
	// FormatXd is the line-oriented text dialect.
	FormatXd Format = "xd"
)

// defaultFormatOrder is the fixed fallback order appended after hint-derived
// candidates, so every detection yields all four formats in some order.
var defaultFormatOrder = [4]Format{FormatPuz, FormatIpuz, FormatJpz, FormatXd}

// formatExtensions maps filename extensions to format hints.
var formatExtensions = map[string]Format{
	".puz":  FormatPuz,
	".ipuz": FormatIpuz,
	".jpz":  FormatJpz,
	".xd":   FormatXd,
}

// xdMetaKey matches a leading "Key: value" metadata line of the text
// dialect.
var xdMetaKey = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 _-]*:\s`)

// DetectFormats produces an ordered, duplicate-free candidate list for the
// dispatcher: filename-extension hint first, then a content-sniffing hint,
// then the remaining formats in a fixed default order. Every call returns
// all four formats.
func DetectFormats(data []byte, filename string) []Format {
	order := make([]Format, 0, len(defaultFormatOrder))
	seen := map[Format]bool{}
	add := func(f Format) {
		if !seen[f] {
			seen[f] = true
			order = append(order, f)
		}
	}

	if filename != "" {
		if f, ok := formatExtensions[strings.ToLower(filepath.Ext(filename))]; ok {
			add(f)
		}
	}
	add(sniffFormat(data))
	for _, f := range defaultFormatOrder {
		add(f)
	}
	return order
}

// sniffFormat guesses a single format from content: a JSON-looking prefix, an
// XML-looking prefix or declaration, text lines starting with metadata keys,
// else probably binary.
func sniffFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(stripBOM(data), " \t\r\n")
	if len(trimmed) == 0 {
		return FormatPuz
	}
	switch {
	case trimmed[0] == '{' || trimmed[0] == '[' || bytes.HasPrefix(trimmed, []byte("ipuz(")):
		return FormatIpuz
	case trimmed[0] == '<':
		return FormatJpz
	case looksLikeXdText(trimmed):
		return FormatXd
	default:
		return FormatPuz
	}
}

// looksLikeXdText reports whether any of the first few lines looks like a
// "Key: value" metadata line.
func looksLikeXdText(data []byte) bool {
	lines := bytes.SplitN(data, []byte("\n"), 6)
	for _, line := range lines {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		if xdMetaKey.Match(line) {
			return true
		}
	}
	return false
}
