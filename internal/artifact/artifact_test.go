package artifact

import (
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

func allCodecs() []Codec {
	return []Codec{CSV{}, JSONL{}, SQLite{}}
}

func TestRoundTrip(t *testing.T) {
	names := []string{"id", "score", "ok", "label", "mixed"}
	in, err := frame.FromColumns(names,
		[]any{1, 2, nil},
		[]any{1.0, 2.5, nil},
		[]any{true, false, nil},
		[]any{"x", "with, comma", "two\nlines"},
		[]any{1, "s", true},
	)
	require.NoError(t, err)

	for _, c := range allCodecs() {
		t.Run(c.Format(), func(t *testing.T) {
			path := Path(t.TempDir(), "data", c)
			require.NoError(t, c.Write(path, in))

			out, err := c.Read(path)
			require.NoError(t, err)
			assert.Equal(t, names, out.Columns())
			if diff := cmp.Diff(in.Rows(), out.Rows()); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, in.Equal(out))
		})
	}
}

func TestRoundTripEdgeShapes(t *testing.T) {
	headerOnly, err := frame.FromColumns([]string{"a", "b"}, []any{}, []any{})
	require.NoError(t, err)
	nullColumn, err := frame.FromColumns([]string{"a"}, []any{nil, nil, 3})
	require.NoError(t, err)
	quoted, err := frame.FromColumns([]string{`say "hi"`, "select"}, []any{1}, []any{2})
	require.NoError(t, err)

	shapes := map[string]*frame.Frame{
		"empty":       frame.New(),
		"header only": headerOnly,
		"null column": nullColumn,
		"odd names":   quoted,
	}
	for _, c := range allCodecs() {
		for name, in := range shapes {
			t.Run(c.Format()+"/"+name, func(t *testing.T) {
				path := Path(t.TempDir(), "data", c)
				require.NoError(t, c.Write(path, in))
				out, err := c.Read(path)
				require.NoError(t, err)
				assert.True(t, in.Equal(out), "got %v %v", out.Columns(), out.Rows())
			})
		}
	}
}

func TestCSVSingleUnnamedColumn(t *testing.T) {
	in, err := frame.FromColumns([]string{""}, []any{1, nil, "x"})
	require.NoError(t, err)

	path := Path(t.TempDir(), "data", CSV{})
	require.NoError(t, CSV{}.Write(path, in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"\"\n1\n\"\"\nx\n", string(raw))

	out, err := CSV{}.Read(path)
	require.NoError(t, err)
	assert.True(t, in.Equal(out), "got %q %v", out.Columns(), out.Rows())
}

func TestReadMissing(t *testing.T) {
	for _, c := range allCodecs() {
		t.Run(c.Format(), func(t *testing.T) {
			path := Path(t.TempDir(), "absent", c)
			_, err := c.Read(path)
			assert.ErrorIs(t, err, fs.ErrNotExist)
			_, statErr := os.Stat(path)
			assert.ErrorIs(t, statErr, fs.ErrNotExist, "reading must not create the file")
		})
	}
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		codec   Codec
		content string
	}{
		{CSV{}, "a,b\n1\n"},
		{CSV{}, "a,b\n\"unterminated,2\n"},
		{JSONL{}, "{\"a\": 1}\n"},
		{JSONL{}, "[\"a\",\"b\"]\n[1,2]\nnot json\n"},
		{JSONL{}, "[\"a\",\"b\"]\n[1]\n"},
		{SQLite{}, "this is not a database file, just text that is long enough to matter"},
	}
	for _, tt := range tests {
		t.Run(tt.codec.Format(), func(t *testing.T) {
			path := Path(t.TempDir(), "bad", tt.codec)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := tt.codec.Read(path)
			assert.ErrorIs(t, err, types.ErrSerialization)
		})
	}
}

func TestJSONLRejectsNonFinite(t *testing.T) {
	f, err := frame.FromColumns([]string{"x"}, []any{1.0, math.NaN()})
	require.NoError(t, err)
	err = JSONL{}.Write(filepath.Join(t.TempDir(), "x.jsonl"), f)
	assert.ErrorIs(t, err, types.ErrSerialization)
}

func TestJSONLKeepsFloatMarker(t *testing.T) {
	f, err := frame.FromColumns([]string{"x"}, []any{2.0})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "x.jsonl")
	require.NoError(t, JSONL{}.Write(path, f))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\"x\"]\n[2.0]\n", string(raw))
}

func TestFor(t *testing.T) {
	for _, name := range types.Formats() {
		c, err := For(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Format())
	}
	_, err := For("parquet")
	assert.ErrorIs(t, err, types.ErrFormatUnknown)
}

func TestCandidates(t *testing.T) {
	formats := func(cs []Codec) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Format())
		}
		return out
	}
	assert.Equal(t, []string{"jsonl", "csv", "sqlite"}, formats(Candidates("jsonl")))
	assert.Equal(t, []string{"csv", "jsonl", "sqlite"}, formats(Candidates("csv")))
	assert.Equal(t, []string{"csv", "jsonl", "sqlite"}, formats(Candidates("unknown")))
}

func TestWriteAtomicCleansUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	err := WriteAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(raw))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file removed")
}
