package xword

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
)

// BoundsError reports a read or seek that would leave the valid range of a
// ByteReader's buffer. It is the only failure a ByteReader ever returns;
// decoders wrap it into a *ParseError at their boundary.
type BoundsError struct {
	Op     string // "read" or "seek"
	Offset int    // cursor position (or seek target) when the fault occurred
	Size   int    // number of bytes requested; 0 for seeks
	Length int    // total buffer length
}

// Error implements the error interface.
func (e *BoundsError) Error() string {
	if e.Op == "seek" {
		return fmt.Sprintf("xword: seek to %d outside buffer of length %d", e.Offset, e.Length)
	}
	return fmt.Sprintf("xword: read of %d bytes at offset %d exceeds buffer of length %d", e.Size, e.Offset, e.Length)
}

// ByteReader is a sequential, bounds-checked cursor over an in-memory byte
// buffer. Every read that would cross the end of the buffer, and every seek
// outside [0, len], fails with a *BoundsError instead of an index fault.
//
// ByteReader is pure cursor arithmetic: it knows nothing about any puzzle
// format. Returned byte slices alias the underlying buffer and must not be
// mutated by callers.
type ByteReader struct {
	buf []byte
	pos int
}

// NewByteReader creates a ByteReader positioned at the start of buf.
func NewByteReader(buf []byte) *ByteReader {
	return &ByteReader{buf: buf}
}

// Position returns the current cursor offset.
func (r *ByteReader) Position() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *ByteReader) Remaining() int {
	n := len(r.buf) - r.pos
	if n < 0 {
		return 0
	}
	return n
}

// HasMore reports whether at least one unread byte remains.
func (r *ByteReader) HasMore() bool { return r.pos < len(r.buf) }

// Len returns the total buffer length.
func (r *ByteReader) Len() int { return len(r.buf) }

// Seek moves the cursor to an absolute offset. Seeking to len(buf) is legal
// (the "just past the end" position); anything outside [0, len] is not.
func (r *ByteReader) Seek(pos int) error {
	if pos < 0 || pos > len(r.buf) {
		return &BoundsError{Op: "seek", Offset: pos, Length: len(r.buf)}
	}
	r.pos = pos
	return nil
}

// ReadU8 reads one byte.
func (r *ByteReader) ReadU8() (uint8, error) {
	if r.pos+1 > len(r.buf) {
		return 0, &BoundsError{Op: "read", Offset: r.pos, Size: 1, Length: len(r.buf)}
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadU16LE reads a little-endian 16-bit unsigned integer.
func (r *ByteReader) ReadU16LE() (uint16, error) {
	if r.pos+2 > len(r.buf) {
		return 0, &BoundsError{Op: "read", Offset: r.pos, Size: 2, Length: len(r.buf)}
	}
	v := uint16(r.buf[r.pos]) | uint16(r.buf[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the buffer.
func (r *ByteReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, &BoundsError{Op: "read", Offset: r.pos, Size: n, Length: len(r.buf)}
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Peek returns the byte at the cursor without advancing.
func (r *ByteReader) Peek() (uint8, error) {
	if r.pos >= len(r.buf) {
		return 0, &BoundsError{Op: "read", Offset: r.pos, Size: 1, Length: len(r.buf)}
	}
	return r.buf[r.pos], nil
}

// Find returns the offset of the first occurrence of pattern at or after the
// cursor, or -1 if absent. The cursor does not move.
func (r *ByteReader) Find(pattern []byte) int {
	idx := bytes.Index(r.buf[r.pos:], pattern)
	if idx < 0 {
		return -1
	}
	return r.pos + idx
}

// ReadFixedString reads exactly n bytes and decodes them as text. When
// trimAtNull is set, the decoded region stops at the first NUL byte (the
// full n bytes are still consumed). A nil enc means the bytes are already
// UTF-8.
func (r *ByteReader) ReadFixedString(n int, trimAtNull bool, enc encoding.Encoding) (string, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	if trimAtNull {
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
	}
	return decodeText(b, enc)
}

// ReadNullTerminatedString reads bytes up to (and consuming) the next NUL
// byte and decodes them as text. A string running to the end of the buffer
// without a terminator is accepted; the cursor lands on the buffer end.
// Calling with no bytes remaining is a bounds error.
func (r *ByteReader) ReadNullTerminatedString(enc encoding.Encoding) (string, error) {
	if !r.HasMore() {
		return "", &BoundsError{Op: "read", Offset: r.pos, Size: 1, Length: len(r.buf)}
	}
	raw := r.buf[r.pos:]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		r.pos += i + 1
		raw = raw[:i]
	} else {
		r.pos = len(r.buf)
	}
	return decodeText(raw, enc)
}

// decodeText converts raw bytes to a string via enc. A nil enc passes the
// bytes through unmodified (UTF-8 input).
func decodeText(b []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		return string(b), nil
	}
	decoded, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
