// Package world holds the grid the renderer looks at and the viewpoint that
// moves through it.
package world

import (
	"bufio"
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"rolla/raycast"
)

// Floor glyph used to pad ragged rows and to clear a spawned viewpoint.
const Blank = ' '

// PlayerGlyph marks the default viewpoint spawn.
const PlayerGlyph = 'P'

var (
	ErrEmptyMap    = errors.New("world: empty map")
	ErrNoSpawn     = errors.New("world: spawn glyph not found")
	ErrMapSize     = errors.New("world: snapshot size mismatch")
	ErrMapNotFound = errors.New("world: map not found")
)

//go:embed maps/*.txt
var builtin embed.FS

// DefaultMapName is the embedded map loaded when no other is given.
const DefaultMapName = "default"

// Map is a row-major byte grid, row = z, column = x.
type Map struct {
	Name   string
	Width  int
	Height int
	cells  []byte
	cls    *raycast.Classifier
}

// Parse reads one row per line. Short rows are padded with Blank; a trailing
// blank line is ignored.
func Parse(r io.Reader) (*Map, error) {
	var rows [][]byte
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		rows = append(rows, bytes.TrimRight(append([]byte(nil), sc.Bytes()...), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("world: read map: %w", err)
	}
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}

	w := 0
	for _, row := range rows {
		w = max(w, len(row))
	}
	if w == 0 {
		return nil, ErrEmptyMap
	}

	m := &Map{Width: w, Height: len(rows), cells: make([]byte, w*len(rows)), cls: raycast.DefaultClassifier()}
	for z, row := range rows {
		line := m.cells[z*w : (z+1)*w]
		n := copy(line, row)
		for x := n; x < w; x++ {
			line[x] = Blank
		}
	}
	return m, nil
}

// ParseString is Parse over s.
func ParseString(s string) (*Map, error) {
	return Parse(strings.NewReader(s))
}

// Load parses name.txt from fsys.
func Load(fsys fs.FS, name string) (*Map, error) {
	f, err := fsys.Open(name + ".txt")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMapNotFound, name)
		}
		return nil, fmt.Errorf("world: open map %s: %w", name, err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("world: map %s: %w", name, err)
	}
	m.Name = name
	return m, nil
}

// Builtin returns the embedded maps.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtin, "maps")
	if err != nil {
		panic(err)
	}
	return sub
}

// Default loads the embedded default map.
func Default() (*Map, error) {
	return Load(Builtin(), DefaultMapName)
}

// SetClassifier replaces the classifier used by Blocked.
func (m *Map) SetClassifier(c *raycast.Classifier) { m.cls = c }

// At returns the glyph at (x, z). ok is false outside the grid.
func (m *Map) At(x, z int) (b byte, ok bool) {
	if x < 0 || z < 0 || x >= m.Width || z >= m.Height {
		return 0, false
	}
	return m.cells[z*m.Width+x], true
}

func (m *Map) set(x, z int, b byte) { m.cells[z*m.Width+x] = b }

// Blocked reports whether a viewpoint may not stand in cell (x, z). Cells
// outside the grid are blocked.
func (m *Map) Blocked(x, z int) bool {
	b, ok := m.At(x, z)
	return !ok || m.cls.Solid(b)
}

// Find returns the first cell holding g in row-major order.
func (m *Map) Find(g byte) (x, z int, ok bool) {
	i := bytes.IndexByte(m.cells, g)
	if i < 0 {
		return 0, 0, false
	}
	return i % m.Width, i / m.Width, true
}

// Spawn removes the first g from the grid and returns a viewpoint standing in
// the middle of its cell. The glyph is drawn back by Snapshot wherever the
// viewpoint is.
func (m *Map) Spawn(g byte) (*Viewpoint, error) {
	x, z, ok := m.Find(g)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSpawn, g)
	}
	m.set(x, z, Blank)
	vp := NewViewpoint(g)
	vp.X, vp.Z = float64(x)+0.5, float64(z)+0.5
	return vp, nil
}

// Size is the snapshot size in bytes.
func (m *Map) Size() int { return len(m.cells) }

// Snapshot copies the grid into dst and overlays every viewpoint's glyph at
// its current cell.
func (m *Map) Snapshot(dst []byte, vps ...*Viewpoint) error {
	if len(dst) != len(m.cells) {
		return fmt.Errorf("%w: %d bytes, want %d", ErrMapSize, len(dst), len(m.cells))
	}
	copy(dst, m.cells)
	for _, vp := range vps {
		if vp == nil || vp.Glyph == 0 {
			continue
		}
		x, z := vp.Cell()
		if _, ok := m.At(x, z); ok {
			dst[z*m.Width+x] = vp.Glyph
		}
	}
	return nil
}

// Rows returns the grid as text, one line per row.
func (m *Map) Rows() []string {
	out := make([]string, m.Height)
	for z := range out {
		out[z] = string(m.cells[z*m.Width : (z+1)*m.Width])
	}
	return out
}

func (m *Map) String() string { return strings.Join(m.Rows(), "\n") }
