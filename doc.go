// Package xword decodes crossword puzzles stored in four incompatible file
// encodings into one canonical in-memory representation, without knowing in
// advance which encoding a given byte stream uses. The supported encodings
// are a proprietary binary format (.puz), a JSON dialect (.ipuz), an XML
// dialect (.jpz), and a line-oriented text dialect (.xd).
//
// The usual entry point is Parse:
//
//	puzzle, err := xword.Parse(data, &xword.Options{Filename: "daily.puz"})
//	if err != nil {
//		var pe *xword.ParseError
//		if errors.As(err, &pe) {
//			log.Fatalf("%s (%s)", pe.Message, pe.Code)
//		}
//	}
//	fmt.Println(puzzle.Title, puzzle.Grid.Width, puzzle.Grid.Height)
//
// Parse tries candidate formats in the order DetectFormats suggests. Each
// decoder distinguishes "wrong format, try the next one" from "right format,
// but the file is broken" via ParseError.FormatMismatch; a confidently
// identified but corrupt file fails loudly instead of being silently
// reinterpreted as a different format.
//
// Callers that already know the format can skip detection and use the
// per-format pairs directly (DecodePuz/ConvertPuz and so on). The Decode
// half yields a format-faithful intermediate representation preserving every
// field the source format can express, including vendor extensions; the
// Convert half maps it onto the shared Puzzle model, deriving cell numbers
// where the source format omits them.
//
// The package performs no file or network I/O (callers supply raw bytes) and
// never writes any of the four formats back out. All functions are safe for
// concurrent use; no call retains or shares state.
package xword
