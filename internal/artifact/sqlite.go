package artifact

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/scalar"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// Column kinds recorded in frame_columns.
const (
	kindValue = "value" // stored as is; SQLite keeps the storage class per cell
	kindBool  = "bool"  // stored as 0/1
	kindText  = "text"  // mixed with bools; stored with scalar.Format
)

const columnsSchema = `CREATE TABLE frame_columns (
	position INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	kind     TEXT NOT NULL
)`

// SQLite stores a frame in a single-file database: a frame table with one
// untyped column per frame column, in row order, and a frame_columns table
// that records column order and kind.
type SQLite struct{}

func (SQLite) Format() string { return types.FormatSQLite }

func (SQLite) Write(path string, f *frame.Frame) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := writeDB(tmpName, f); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func writeDB(path string, f *frame.Frame) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening sqlite: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning write transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(columnsSchema); err != nil {
		return fmt.Errorf("creating frame_columns: %w", err)
	}

	names := f.Columns()
	kinds := make([]string, len(names))
	for i, name := range names {
		s, _ := f.Column(name)
		kinds[i] = columnKind(s.Values)
		if _, err := tx.Exec("INSERT INTO frame_columns (position, name, kind) VALUES (?, ?, ?)", i, name, kinds[i]); err != nil {
			return fmt.Errorf("recording column %q: %w", name, err)
		}
	}

	if len(names) > 0 {
		if err := insertRows(tx, f, names, kinds); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing write transaction: %w", err)
	}
	return nil
}

func insertRows(tx *sql.Tx, f *frame.Frame, names, kinds []string) error {
	quoted := make([]string, len(names))
	placeholders := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
		placeholders[i] = "?"
	}
	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE frame (%s)", strings.Join(quoted, ", "))); err != nil {
		return fmt.Errorf("creating frame table: %w", err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO frame (%s) VALUES (%s)",
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for r, row := range f.Rows() {
		for i, v := range row {
			args[i] = sqlArg(v, kinds[i])
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", r, err)
		}
	}
	return nil
}

func columnKind(values []any) string {
	var bools, others int
	for _, v := range values {
		switch v.(type) {
		case nil:
		case bool:
			bools++
		default:
			others++
		}
	}
	switch {
	case bools > 0 && others == 0:
		return kindBool
	case bools > 0:
		return kindText
	}
	return kindValue
}

func sqlArg(v any, kind string) any {
	if v == nil {
		return nil
	}
	switch kind {
	case kindText:
		return scalar.Format(v)
	case kindBool:
		if v.(bool) {
			return int64(1)
		}
		return int64(0)
	}
	switch x := v.(type) {
	case int64, float64, string:
		return x
	case uint64:
		// Out of int64 range; SQLite has no unsigned integers.
		return float64(x)
	}
	return scalar.Format(v)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) Read(path string) (*frame.Frame, error) {
	// sql.Open would create a missing database.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	defer db.Close()

	names, kinds, err := readColumns(db)
	if err != nil {
		return nil, malformed(path, err)
	}
	if len(names) == 0 {
		return frame.New(), nil
	}

	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}
	rs, err := db.Query(fmt.Sprintf("SELECT %s FROM frame ORDER BY rowid", strings.Join(quoted, ", ")))
	if err != nil {
		return nil, malformed(path, err)
	}
	defer rs.Close()

	var rows [][]any
	for rs.Next() {
		cells := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, malformed(path, err)
		}
		for i, c := range cells {
			cells[i], err = fromSQL(c, kinds[i])
			if err != nil {
				return nil, malformed(path, fmt.Errorf("column %q: %w", names[i], err))
			}
		}
		rows = append(rows, cells)
	}
	if err := rs.Err(); err != nil {
		return nil, malformed(path, err)
	}

	f, err := frame.FromRows(names, rows...)
	if err != nil {
		return nil, malformed(path, err)
	}
	return f, nil
}

func readColumns(db *sql.DB) (names, kinds []string, err error) {
	rs, err := db.Query("SELECT name, kind FROM frame_columns ORDER BY position")
	if err != nil {
		return nil, nil, err
	}
	defer rs.Close()
	for rs.Next() {
		var name, kind string
		if err := rs.Scan(&name, &kind); err != nil {
			return nil, nil, err
		}
		names = append(names, name)
		kinds = append(kinds, kind)
	}
	return names, kinds, rs.Err()
}

func fromSQL(v any, kind string) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}
	switch kind {
	case kindBool:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("bool cell holds %T", v)
		}
		return n != 0, nil
	case kindText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("text cell holds %T", v)
		}
		return scalar.Parse(s), nil
	case kindValue:
		return scalar.Normalize(v), nil
	}
	return nil, fmt.Errorf("unknown column kind %q", kind)
}
