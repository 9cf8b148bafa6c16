// Package store saves records to disk and loads them back.
//
// A record without table-typed fields is written as a single JSON document.
// A record with table-typed fields becomes a directory: each frame goes to
// its own artifact file named after the field and the remaining fields go to
// model.json. Loading reverses the split; a missing or unreadable artifact
// yields an empty frame unless the store is configured with StrictArtifacts.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/prelude/internal/artifact"
	"github.com/mesh-intelligence/prelude/internal/paths"
	"github.com/mesh-intelligence/prelude/pkg/convert"
	"github.com/mesh-intelligence/prelude/pkg/frame"
	"github.com/mesh-intelligence/prelude/pkg/record"
	"github.com/mesh-intelligence/prelude/pkg/types"
)

// ModelFile holds the scalar fields of a record saved as a directory.
const ModelFile = "model.json"

// Clock returns the current time. It is only used to report elapsed time.
type Clock func() time.Time

// Option configures a Store.
type Option func(*Store)

// WithConverter replaces the default converter from convert.New.
func WithConverter(c *convert.Converter) Option {
	return func(s *Store) { s.conv = c }
}

// WithLogger sets the logger progress is reported to. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock sets the clock used to time saves and loads.
func WithClock(c Clock) Option {
	return func(s *Store) { s.now = c }
}

// Namer is implemented by records that choose their own directory name in Put.
type Namer interface {
	RecordName() string
}

// Store saves and loads records. It holds no mutable state and may be shared;
// callers serialize access to the same destination.
type Store struct {
	cfg   types.Config
	codec artifact.Codec
	conv  *convert.Converter
	log   *zap.Logger
	now   Clock
}

// New validates cfg and returns a Store.
func New(cfg types.Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	codec, err := artifact.For(cfg.Format())
	if err != nil {
		return nil, err
	}
	s := &Store{
		cfg:   cfg,
		codec: codec,
		conv:  convert.New(),
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the configuration the store was built with.
func (s *Store) Config() types.Config {
	return s.cfg
}

func (s *Store) logger(d *record.Descriptor) *zap.SugaredLogger {
	return s.log.Named(d.Type.Name()).Sugar()
}

func (s *Store) since(start time.Time) time.Duration {
	return s.now().Sub(start).Round(time.Millisecond)
}

// Save writes instance under dest and returns the path written. instance is
// a struct or a pointer to one.
//
// Without table-typed fields the record is a JSON file at dest, or at
// dest/<type>.json when dest is an existing directory. With table-typed
// fields dest is a directory. An existing destination is an ErrAlreadyExists
// unless overwrite is set; an overwritten directory is emptied first.
func (s *Store) Save(instance any, dest string, overwrite bool) (string, error) {
	start := s.now()
	d, err := record.DescribeValue(instance)
	if err != nil {
		return "", err
	}
	doc, err := s.conv.Unstructure(instance)
	if err != nil {
		return "", fmt.Errorf("unstructuring %s: %w", d.Type, err)
	}
	log := s.logger(d)

	var path string
	if d.HasTables() {
		path, err = s.saveDir(log, d, doc, dest, overwrite)
	} else {
		path, err = s.saveFile(d, doc, dest, overwrite)
	}
	if err != nil {
		return "", err
	}
	log.Infof("model saved to %s in %s", path, s.since(start))
	return path, nil
}

func (s *Store) saveFile(d *record.Descriptor, doc map[string]any, dest string, overwrite bool) (string, error) {
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, strings.ToLower(d.Type.Name())+".json")
	}
	path, err := paths.EnsureFile(dest, overwrite)
	if err != nil {
		return "", err
	}
	if err := writeDocument(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) saveDir(log *zap.SugaredLogger, d *record.Descriptor, doc map[string]any, dest string, overwrite bool) (string, error) {
	dir, err := paths.EnsurePath(dest, true, overwrite)
	if err != nil {
		return "", err
	}

	for _, field := range d.TableFields() {
		f, _ := doc[field.Name].(*frame.Frame)
		delete(doc, field.Name)
		if f == nil {
			log.Debugf("%s is nil, no artifact written", field.Name)
			continue
		}
		path := artifact.Path(dir, field.Name, s.codec)
		if err := s.codec.Write(path, f); err != nil {
			return "", fmt.Errorf("writing %s: %w", field.Name, err)
		}
		log.Infof("%s saved to %s (%s rows, %s cols)",
			field.Name, path, humanize.Comma(int64(f.Len())), humanize.Comma(int64(f.Width())))
	}

	modelPath := filepath.Join(dir, ModelFile)
	if err := writeDocument(modelPath, doc); err != nil {
		return "", err
	}
	log.Infof("record saved to %s", modelPath)
	return dir, nil
}

// Load reads the record at path into out, which must be a non-nil pointer to
// a struct. path is either a JSON file or a directory written by Save.
func (s *Store) Load(path string, out any) error {
	start := s.now()
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("loading into %T: %w", out, types.ErrNotRecord)
	}
	d, err := record.Describe(rv.Type())
	if err != nil {
		return err
	}
	log := s.logger(d)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, types.ErrPathNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if !info.IsDir() {
		doc, err := readDocument(path)
		if err != nil {
			return err
		}
		if err := s.conv.Structure(doc, out); err != nil {
			return fmt.Errorf("structuring %s: %w", d.Type, err)
		}
		log.Infof("model loaded from %s in %s", path, s.since(start))
		return nil
	}

	modelPath := filepath.Join(path, ModelFile)
	doc, err := readDocument(modelPath)
	if err != nil {
		return err
	}
	log.Infof("record loaded from %s", modelPath)

	for _, field := range d.TableFields() {
		f, err := s.readTable(log, path, field.Name)
		if err != nil {
			return err
		}
		doc[field.Name] = f
	}
	if err := s.conv.Structure(doc, out); err != nil {
		return fmt.Errorf("structuring %s: %w", d.Type, err)
	}
	log.Infof("model loaded from %s in %s", path, s.since(start))
	return nil
}

// readTable looks for the field's artifact in the configured format first
// and then in the others.
func (s *Store) readTable(log *zap.SugaredLogger, dir, name string) (*frame.Frame, error) {
	for _, c := range artifact.Candidates(s.codec.Format()) {
		path := artifact.Path(dir, name, c)
		f, err := c.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			if s.cfg.StrictArtifacts {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
			log.Warnf("%s could not be read from %s, using an empty table: %v", name, path, err)
			return frame.New(), nil
		}
		log.Infof("%s loaded from %s (%s rows x %s cols)",
			name, path, humanize.Comma(int64(f.Len())), humanize.Comma(int64(f.Width())))
		return f, nil
	}
	log.Infof("%s has no artifact in %s, using an empty table", name, dir)
	return frame.New(), nil
}

// Copy deep-copies src into dst without touching the filesystem. Frames are
// cloned.
func (s *Store) Copy(src, dst any) error {
	doc, err := s.conv.Unstructure(src)
	if err != nil {
		return fmt.Errorf("unstructuring %T: %w", src, err)
	}
	if err := s.conv.Structure(doc, dst); err != nil {
		return fmt.Errorf("structuring %T: %w", dst, err)
	}
	return nil
}

// Put saves instance under root, in a directory (or JSON file) named by the
// record's RecordName method or, failing that, a new time-ordered UUID. An
// existing record with the same name is replaced.
func (s *Store) Put(root string, instance any) (string, error) {
	d, err := record.DescribeValue(instance)
	if err != nil {
		return "", err
	}
	name := ""
	if n, ok := instance.(Namer); ok {
		name = n.RecordName()
	}
	if name == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generating record name: %w", err)
		}
		name = id.String()
	}
	if !d.HasTables() {
		name += ".json"
	}
	return s.Save(instance, filepath.Join(root, name), true)
}

// Load reads the record at path into a new T.
func Load[T any](s *Store, path string) (T, error) {
	var out T
	err := s.Load(path, &out)
	return out, err
}

// Copy returns a deep copy of v.
func Copy[T any](s *Store, v T) (T, error) {
	var out T
	err := s.Copy(v, &out)
	return out, err
}

func writeDocument(path string, doc map[string]any) error {
	return artifact.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding %s: %v: %w", path, err, types.ErrSerialization)
		}
		return nil
	})
}

func readDocument(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, types.ErrPathNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %v: %w", path, err, types.ErrSerialization)
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	return doc, nil
}
