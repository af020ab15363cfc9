package xword

import (
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// encodingCache memoizes label resolution so repeated Parse calls with the
// same Options.Encoding do not re-derive the decoder. The mapping from label
// to encoding is pure, so the shared cache is invisible to callers.
var encodingCache = xsync.NewMap[string, encoding.Encoding]()

// resolveEncoding maps a caller-supplied encoding label to an x/text
// encoding. An empty label means UTF-8, reported as a nil Encoding so hot
// paths can skip the decoder entirely.
func resolveEncoding(label string) (encoding.Encoding, error) {
	if label == "" {
		return nil, nil
	}
	key := normalizeEncodingLabel(label)
	if enc, ok := encodingCache.Load(key); ok {
		return enc, nil
	}

	var enc encoding.Encoding
	switch key {
	case "utf8":
		return nil, nil
	case "iso88591", "latin1", "latin1iso88591":
		enc = charmap.ISO8859_1
	case "windows1252", "cp1252":
		enc = charmap.Windows1252
	case "macintosh", "macroman":
		enc = charmap.Macintosh
	case "utf16", "utf16le":
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case "utf16be":
		enc = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	default:
		return nil, errf("", CodeUnknownEncoding, "unknown text encoding %q", label)
	}

	encodingCache.Store(key, enc)
	return enc, nil
}

// normalizeEncodingLabel lower-cases a label and strips separators, so
// "ISO-8859-1", "iso_8859_1" and "iso88591" all resolve identically.
func normalizeEncodingLabel(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range strings.ToLower(label) {
		switch r {
		case '-', '_', ' ', '.':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripBOM removes a UTF-8 byte order mark from text input. Decoders for the
// text-based formats call this before any line or token inspection.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
