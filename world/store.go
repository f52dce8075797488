package world

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrReadOnly = errors.New("world: store is read-only")

// Store loads and saves maps by name.
type Store interface {
	Load(ctx context.Context, name string) (*Map, error)
	Save(ctx context.Context, name string, m *Map) error
	List(ctx context.Context) ([]string, error)
}

// FSStore keeps maps as name.txt files.
type FSStore struct {
	fsys fs.FS
	dir  string // empty for read-only stores
}

// NewFSStore returns a read-only store over fsys.
func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

// NewDirStore returns a writable store over a directory.
func NewDirStore(dir string) *FSStore {
	return &FSStore{fsys: os.DirFS(dir), dir: dir}
}

// BuiltinStore serves the embedded maps.
func BuiltinStore() *FSStore {
	return NewFSStore(Builtin())
}

func (s *FSStore) Load(_ context.Context, name string) (*Map, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return Load(s.fsys, name)
}

func (s *FSStore) Save(_ context.Context, name string, m *Map) error {
	if s.dir == "" {
		return ErrReadOnly
	}
	if err := checkName(name); err != nil {
		return err
	}
	path := filepath.Join(s.dir, name+".txt")
	if err := os.WriteFile(path, []byte(m.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("world: save map %s: %w", name, err)
	}
	return nil
}

func (s *FSStore) List(_ context.Context) ([]string, error) {
	matches, err := fs.Glob(s.fsys, "*.txt")
	if err != nil {
		return nil, fmt.Errorf("world: list maps: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(m, ".txt"))
	}
	sort.Strings(names)
	return names, nil
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("world: bad map name %q", name)
	}
	return nil
}
