package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mesh-intelligence/prelude/internal/artifact"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// TableInfo describes one artifact found in a record directory.
type TableInfo struct {
	Field   string   `json:"field"`
	Path    string   `json:"path"`
	Format  string   `json:"format"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Error   string   `json:"error,omitempty"`
}

// Manifest describes a saved record without knowing its Go type.
type Manifest struct {
	Path      string      `json:"path"`
	Directory bool        `json:"directory"`
	Fields    []string    `json:"fields"`
	Tables    []TableInfo `json:"tables,omitempty"`
}

// Inspect reads the record at path and reports its document fields and, for
// a directory, every artifact in a known format. Unreadable artifacts are
// reported in TableInfo.Error rather than failing the call.
func (s *Store) Inspect(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, types.ErrPathNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	m := &Manifest{Path: path, Directory: info.IsDir()}
	docPath := path
	if m.Directory {
		docPath = filepath.Join(path, ModelFile)
	}
	doc, err := readDocument(docPath)
	if err != nil {
		return nil, err
	}
	for k := range doc {
		m.Fields = append(m.Fields, k)
	}
	slices.Sort(m.Fields)
	if !m.Directory {
		return m, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == ModelFile {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(e.Name()), ".")
		c, err := artifact.For(ext)
		if err != nil {
			continue
		}
		t := TableInfo{
			Field:  strings.TrimSuffix(e.Name(), "."+ext),
			Path:   filepath.Join(path, e.Name()),
			Format: c.Format(),
		}
		f, err := c.Read(t.Path)
		if err != nil {
			t.Error = err.Error()
		} else {
			t.Rows = f.Len()
			t.Columns = f.Columns()
		}
		m.Tables = append(m.Tables, t)
	}
	return m, nil
}
