// Package artifact reads and writes frames as standalone files. Each codec
// owns one on-disk format and is selected by its file extension.
package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// Codec persists a frame's columns and cells. The index is never written;
// frames read back carry a range index.
type Codec interface {
	// Format is the configuration name and file extension of the codec.
	Format() string
	Write(path string, f *frame.Frame) error
	// Read returns an error wrapping fs.ErrNotExist when path is absent and
	// types.ErrSerialization when the content cannot be decoded.
	Read(path string) (*frame.Frame, error)
}

var codecs = map[string]Codec{
	types.FormatCSV:    CSV{},
	types.FormatJSONL:  JSONL{},
	types.FormatSQLite: SQLite{},
}

// For returns the codec for a format name.
func For(format string) (Codec, error) {
	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("%q: %w", format, types.ErrFormatUnknown)
	}
	return c, nil
}

// Path returns the artifact file for a table field inside a record directory.
func Path(dir, field string, c Codec) string {
	return filepath.Join(dir, field+"."+c.Format())
}

// Candidates returns the codecs to try when reading, preferred first and then
// the remaining formats in their default order.
func Candidates(preferred string) []Codec {
	var out []Codec
	if c, ok := codecs[preferred]; ok {
		out = append(out, c)
	}
	for _, name := range types.Formats() {
		if name != preferred {
			out = append(out, codecs[name])
		}
	}
	return out
}

func malformed(path string, err error) error {
	return fmt.Errorf("decoding %s: %v: %w", path, err, types.ErrSerialization)
}
