package xword

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a symbolic, machine-readable identifier for a parse failure.
// Codes are stable across releases; messages are not.
type ErrorCode string

// Format-independent codes.
const (
	// CodeFormatUndetectable indicates that every candidate format rejected
	// the input as "not mine".
	CodeFormatUndetectable ErrorCode = "FORMAT_UNDETECTABLE"

	// CodeInvalidFile indicates generic structural corruption in an input
	// whose format was already confirmed.
	CodeInvalidFile ErrorCode = "INVALID_FILE"

	// CodeUnsupportedPuzzleKind indicates the input was recognized but holds
	// a puzzle type outside this library's scope (coded, sudoku, kakuro,
	// word search, ...).
	CodeUnsupportedPuzzleKind ErrorCode = "UNSUPPORTED_PUZZLE_KIND"

	// CodeUnknownEncoding indicates Options.Encoding named a text encoding
	// this library cannot resolve.
	CodeUnknownEncoding ErrorCode = "UNKNOWN_ENCODING"
)

// Binary (.puz) codes.
const (
	CodePuzInvalidHeader     ErrorCode = "PUZ_INVALID_HEADER"
	CodePuzChecksumMismatch  ErrorCode = "PUZ_CHECKSUM_MISMATCH"
	CodePuzInvalidDimensions ErrorCode = "PUZ_INVALID_DIMENSIONS"
	CodePuzTruncated         ErrorCode = "PUZ_TRUNCATED"
	CodePuzInvalidSection    ErrorCode = "PUZ_INVALID_SECTION"
	CodePuzClueMismatch      ErrorCode = "PUZ_CLUE_MISMATCH"
)

// JSON (.ipuz) codes.
const (
	CodeIpuzInvalidJSON       ErrorCode = "IPUZ_INVALID_JSON"
	CodeIpuzMissingKind       ErrorCode = "IPUZ_MISSING_KIND"
	CodeIpuzMissingField      ErrorCode = "IPUZ_MISSING_FIELD"
	CodeIpuzInvalidDimensions ErrorCode = "IPUZ_INVALID_DIMENSIONS"
	CodeIpuzInvalidCell       ErrorCode = "IPUZ_INVALID_CELL"
	CodeIpuzInvalidClue       ErrorCode = "IPUZ_INVALID_CLUE"
)

// XML (.jpz) codes.
const (
	CodeJpzInvalidXML        ErrorCode = "JPZ_INVALID_XML"
	CodeJpzMissingPuzzle     ErrorCode = "JPZ_MISSING_PUZZLE"
	CodeJpzMissingGrid       ErrorCode = "JPZ_MISSING_GRID"
	CodeJpzInvalidDimensions ErrorCode = "JPZ_INVALID_DIMENSIONS"
	CodeJpzInvalidCell       ErrorCode = "JPZ_INVALID_CELL"
	CodeJpzInvalidClue       ErrorCode = "JPZ_INVALID_CLUE"
)

// Line-text (.xd) codes.
const (
	CodeXdNoGrid            ErrorCode = "XD_NO_GRID"
	CodeXdRaggedGrid        ErrorCode = "XD_RAGGED_GRID"
	CodeXdInvalidDimensions ErrorCode = "XD_INVALID_DIMENSIONS"
	CodeXdNoClues           ErrorCode = "XD_NO_CLUES"
)

// mismatchCodes is the set of codes that mean "this input probably is not
// the format being attempted", as opposed to "the format is confirmed but
// the file is broken". The dispatcher keeps trying other formats only for
// codes in this set.
var mismatchCodes = map[ErrorCode]bool{
	CodeFormatUndetectable:    true,
	CodeUnsupportedPuzzleKind: true,
	CodePuzInvalidHeader:      true,
	CodeIpuzInvalidJSON:       true,
	CodeIpuzMissingKind:       true,
	CodeJpzInvalidXML:         true,
	CodeJpzMissingPuzzle:      true,
	CodeXdNoGrid:              true,
}

// ErrorContext pinpoints where in the input a parse failure happened.
// Fields are best-effort: a binary failure carries Offset, a text failure
// Line/Column, a structural failure Field.
type ErrorContext struct {
	Line   int
	Column int
	Offset int
	Field  string
}

func (c *ErrorContext) String() string {
	var parts []string
	if c.Line > 0 {
		if c.Column > 0 {
			parts = append(parts, fmt.Sprintf("line %d, column %d", c.Line, c.Column))
		} else {
			parts = append(parts, fmt.Sprintf("line %d", c.Line))
		}
	}
	if c.Offset > 0 {
		parts = append(parts, fmt.Sprintf("offset %d", c.Offset))
	}
	if c.Field != "" {
		parts = append(parts, fmt.Sprintf("field %q", c.Field))
	}
	return strings.Join(parts, ", ")
}

// ParseError is the root of the error hierarchy. Every failure surfaced by
// a public entry point of this package is (or wraps) a *ParseError.
type ParseError struct {
	// Format names the decoder that produced the error. Empty for
	// format-independent failures such as CodeFormatUndetectable.
	Format Format

	// Code is the symbolic failure identifier.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Context optionally locates the failure in the input.
	Context *ErrorContext

	cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Format != "" {
		b.WriteString(string(e.Format))
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Context != nil {
		if s := e.Context.String(); s != "" {
			b.WriteString(" (")
			b.WriteString(s)
			b.WriteString(")")
		}
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap exposes the wrapped lower-level cause, if any, for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.cause }

// FormatMismatch reports whether this error means "the input likely is not
// this format at all" rather than "the input is this format but corrupt".
func (e *ParseError) FormatMismatch() bool { return mismatchCodes[e.Code] }

// errf builds a *ParseError with a formatted message.
func errf(format Format, code ErrorCode, msg string, args ...any) *ParseError {
	return &ParseError{Format: format, Code: code, Message: fmt.Sprintf(msg, args...)}
}

// withCause attaches a wrapped lower-level cause.
func (e *ParseError) withCause(cause error) *ParseError {
	e.cause = cause
	return e
}

// withContext attaches location information.
func (e *ParseError) withContext(ctx ErrorContext) *ParseError {
	e.Context = &ctx
	return e
}

// IsFormatMismatch reports whether err (or anything it wraps) is a
// *ParseError classified as a format mismatch. A non-ParseError err is never
// a mismatch: an unclassified failure must fail loudly rather than let the
// dispatcher keep guessing.
func IsFormatMismatch(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.FormatMismatch()
	}
	return false
}
