package xword

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPuzBytes() []byte {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
		title:    "Binary",
	}
	return f.encode()
}

func TestParseEachFormat(t *testing.T) {
	t.Run("puz", func(t *testing.T) {
		p, err := Parse(validPuzBytes(), nil)
		require.NoError(t, err)
		assert.Equal(t, "Binary", p.Title)
	})

	t.Run("ipuz", func(t *testing.T) {
		p, err := Parse([]byte(`{
			"kind": ["http://ipuz.org/crossword#1"],
			"dimensions": {"width": 1, "height": 1},
			"puzzle": [[1]],
			"title": "JSON"
		}`), nil)
		require.NoError(t, err)
		assert.Equal(t, "JSON", p.Title)
	})

	t.Run("jpz", func(t *testing.T) {
		p, err := Parse([]byte(jpzAppletDoc), nil)
		require.NoError(t, err)
		assert.Equal(t, "Sample", p.Title)
	})

	t.Run("xd", func(t *testing.T) {
		p, err := Parse([]byte(xdSampleDoc), nil)
		require.NoError(t, err)
		assert.Equal(t, "Mini", p.Title)
	})
}

// TestParseMismatchContinues feeds text-dialect content under a misleading
// .puz filename: the binary attempt reports a mismatch and the dispatcher
// moves on instead of giving up.
func TestParseMismatchContinues(t *testing.T) {
	p, err := Parse([]byte(xdSampleDoc), &Options{Filename: "daily.puz"})
	require.NoError(t, err)
	assert.Equal(t, "Mini", p.Title)
}

// TestParseConfirmedErrorPropagates corrupts a binary file's checksum: the
// format is confidently identified, so its exact error surfaces instead of
// being retried as something else.
func TestParseConfirmedErrorPropagates(t *testing.T) {
	f := &puzFile{
		width:    3,
		height:   3,
		solution: "ABCD.EFGH",
		clues:    []string{"A1", "A3", "D1", "D2"},
		badCIB:   true,
	}
	_, err := Parse(f.encode(), nil)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodePuzChecksumMismatch, pe.Code)
	assert.Equal(t, FormatPuz, pe.Format)
}

func TestParseConfirmedErrorBeatsMisleadingFilename(t *testing.T) {
	// Valid JSON of the right kind but missing its dimensions, handed in as
	// ".jpz": the XML attempt mismatches, the JSON attempt confirms the
	// format and its error propagates.
	doc := `{"kind": ["http://ipuz.org/crossword#1"], "puzzle": [[1]]}`
	_, err := Parse([]byte(doc), &Options{Filename: "puzzle.jpz"})

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeIpuzMissingField, pe.Code)
}

func TestParseUndetectable(t *testing.T) {
	_, err := Parse([]byte("?????"), nil)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeFormatUndetectable, pe.Code)
	assert.True(t, pe.FormatMismatch())

	// The per-format attempts stay reachable on the chain.
	assert.ErrorContains(t, err, "no supported puzzle format detected")
	assert.NotNil(t, pe.Unwrap())
}

func TestParseUnknownEncoding(t *testing.T) {
	_, err := Parse(validPuzBytes(), &Options{Encoding: "klingon-8"})

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeUnknownEncoding, pe.Code)
}

func TestParseStringBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(validPuzBytes())
	p, err := ParseString(encoded, &Options{Filename: "daily.puz"})
	require.NoError(t, err)
	assert.Equal(t, "Binary", p.Title)
}

func TestParseNilOptions(t *testing.T) {
	var opts *Options
	assert.Equal(t, "", opts.filename())
	assert.Equal(t, "", opts.encoding())
	assert.Nil(t, opts.maxGridSize())
}

func TestParseErrorsAreTyped(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("{broken json"),
		[]byte("<unclosed"),
		[]byte("?????"),
	}
	for _, input := range inputs {
		_, err := Parse(input, nil)
		var pe *ParseError
		assert.ErrorAs(t, err, &pe, "input %q", input)
	}
}
