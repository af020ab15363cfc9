package xword

import "errors"

// GridSize is a width/height ceiling for Options.MaxGridSize. A zero field
// leaves that axis at the built-in maximum.
type GridSize struct {
	Width  int
	Height int
}

// Options tunes a Parse call. The zero value (or a nil *Options) is valid.
type Options struct {
	// Filename is a hint used only to order format candidates; it is never
	// opened.
	Filename string

	// Encoding names the text encoding used when decoding strings from byte
	// buffers (the binary and text dialects). Empty means UTF-8.
	Encoding string

	// MaxGridSize optionally tightens the built-in 100x100 dimension
	// ceiling. Exceeding it is a decode error, never a silent truncation.
	MaxGridSize *GridSize
}

func (o *Options) filename() string {
	if o == nil {
		return ""
	}
	return o.Filename
}

func (o *Options) encoding() string {
	if o == nil {
		return ""
	}
	return o.Encoding
}

func (o *Options) maxGridSize() *GridSize {
	if o == nil {
		return nil
	}
	return o.MaxGridSize
}

// formatCodecs pairs every format with its decoder+converter chain. The map
// is populated once and never mutated.
var formatCodecs = map[Format]func([]byte, *Options) (*Puzzle, error){
	FormatPuz: func(data []byte, opts *Options) (*Puzzle, error) {
		ir, err := DecodePuz(data, opts)
		if err != nil {
			return nil, err
		}
		return ConvertPuz(ir)
	},
	FormatIpuz: func(data []byte, opts *Options) (*Puzzle, error) {
		ir, err := DecodeIpuz(data, opts)
		if err != nil {
			return nil, err
		}
		return ConvertIpuz(ir)
	},
	FormatJpz: func(data []byte, opts *Options) (*Puzzle, error) {
		ir, err := DecodeJpz(data, opts)
		if err != nil {
			return nil, err
		}
		return ConvertJpz(ir)
	},
	FormatXd: func(data []byte, opts *Options) (*Puzzle, error) {
		ir, err := DecodeXd(data, opts)
		if err != nil {
			return nil, err
		}
		return ConvertXd(ir)
	},
}

// Parse decodes a puzzle of unknown format. Candidates are tried in the
// order DetectFormats produces. A candidate failing with a format-mismatch
// error is recorded and the next one is tried; any other failure means the
// format was confidently identified but the file is broken, and that exact
// error propagates immediately rather than being reinterpreted as a
// different format. When every candidate reports a mismatch, the input is
// undetectable.
//
// Parse performs no I/O and holds no state between calls; it is safe to call
// concurrently as long as each call's input buffer is not mutated mid-call.
func Parse(data []byte, opts *Options) (*Puzzle, error) {
	// Surface a bad encoding label as a configuration error up front
	// instead of as four confusing per-format failures.
	if _, err := resolveEncoding(opts.encoding()); err != nil {
		return nil, err
	}

	var attempts []error
	for _, format := range DetectFormats(data, opts.filename()) {
		puzzle, err := formatCodecs[format](data, opts)
		if err == nil {
			return puzzle, nil
		}
		if !IsFormatMismatch(err) {
			return nil, err
		}
		attempts = append(attempts, err)
	}
	return nil, errf("", CodeFormatUndetectable, "no supported puzzle format detected").
		withCause(errors.Join(attempts...))
}

// ParseString decodes a puzzle supplied as text. For the binary format this
// also accepts a base64-encoded payload.
func ParseString(input string, opts *Options) (*Puzzle, error) {
	return Parse([]byte(input), opts)
}
