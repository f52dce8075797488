// Package raycast is the render kernel run by every gpu worker: it marches one
// ray per screen column through a byte grid and shades the column.
package raycast

import (
	"errors"
	"fmt"
	"math"

	"rolla/gpu"
)

var ErrInput = errors.New("raycast: bad input")

// Grid is a row-major map snapshot, row = z, column = x.
type Grid struct {
	Width  int
	Height int
	Cells  []byte
}

// At returns the cell at (x, z). ok is false outside the grid.
func (g Grid) At(x, z int) (b byte, ok bool) {
	if x < 0 || z < 0 || x >= g.Width || z >= g.Height {
		return 0, false
	}
	return g.Cells[z*g.Width+x], true
}

// DecodeFunc splits a pool input region into the frame's camera and map.
// The returned grid may alias in.
type DecodeFunc func(in []byte) (Camera, Grid, error)

// InputSize is the pool input size for a w×h map.
func InputSize(w, h int) int { return CameraSize + w*h }

// NewDecoder returns the decoder for inputs laid out as a Camera record
// followed by a w×h map snapshot.
func NewDecoder(w, h int) DecodeFunc {
	size := InputSize(w, h)
	return func(in []byte) (Camera, Grid, error) {
		if len(in) != size {
			return Camera{}, Grid{}, fmt.Errorf("%w: %d bytes, want %d", ErrInput, len(in), size)
		}
		cam, ok := DecodeCamera(in)
		if !ok {
			return Camera{}, Grid{}, fmt.Errorf("%w: short camera", ErrInput)
		}
		return cam, Grid{Width: w, Height: h, Cells: in[CameraSize:]}, nil
	}
}

// EncodeInput writes cam followed by cells into dst, which must be exactly
// CameraSize+len(cells) bytes.
func EncodeInput(dst []byte, cam Camera, cells []byte) error {
	if len(dst) != CameraSize+len(cells) {
		return fmt.Errorf("%w: %d bytes, want %d", ErrInput, len(dst), CameraSize+len(cells))
	}
	cam.Encode(dst)
	copy(dst[CameraSize:], cells)
	return nil
}

// Hit is the first non-floor cell met by a column's ray. Kind is Floor when the
// ray met nothing.
type Hit struct {
	Kind   CellKind
	Glyph  byte
	Dist   float64
	Height float64
	Color  RGB
}

// Engine implements gpu.Device.
type Engine struct {
	decode  DecodeFunc
	cls     *Classifier
	sprites *Registry
}

var _ gpu.Device = (*Engine)(nil)

// NewEngine returns an engine using the default glyph sets. A nil registry
// means DefaultRegistry.
func NewEngine(decode DecodeFunc, sprites *Registry) *Engine {
	if sprites == nil {
		sprites = DefaultRegistry()
	}
	return NewEngineWith(decode, NewClassifier(WallGlyphs, BoundaryGlyphs, sprites), sprites)
}

func NewEngineWith(decode DecodeFunc, cls *Classifier, sprites *Registry) *Engine {
	return &Engine{decode: decode, cls: cls, sprites: sprites}
}

// Render draws the columns of dst.
func (e *Engine) Render(idx int, in []byte, dst *gpu.Shard) error {
	cam, g, err := e.decode(in)
	if err != nil {
		return err
	}

	hits := make([]Hit, dst.End-dst.Start)
	for col := dst.Start; col < dst.End; col++ {
		hits[col-dst.Start] = e.March(cam, g, col, dst.Width, dst.Height)
	}

	midY := Horizon(dst.Height, float64(cam.Pitch))
	for row := 0; row < dst.Height; row++ {
		for i := range hits {
			c := Shade(row, midY, hits[i])
			dst.Set(dst.Start+i, row, c.R, c.G, c.B)
		}
	}
	return nil
}

// March casts the ray of screen column col. The ray steps one unit at a time
// for cam.Dist steps; leaving the grid ends it without a hit.
func (e *Engine) March(cam Camera, g Grid, col, width, screenH int) Hit {
	fov := float64(cam.FOV) * math.Pi / 180
	angle := float64(col)*fov/float64(width) + fov/2 + float64(cam.Yaw)
	sin, cos := math.Sin(angle), math.Cos(angle)
	cx, cz := float64(cam.X), float64(cam.Z)

	for j := 0; j < int(cam.Dist); j++ {
		d := float64(j)
		x := int(math.Floor(cx + d*sin))
		z := int(math.Floor(cz + d*cos))
		b, ok := g.At(x, z)
		if !ok {
			return Hit{}
		}
		switch e.cls.Classify(b) {
		case Boundary:
			return Hit{Kind: Boundary, Glyph: b, Dist: d, Height: ApparentHeight(screenH, BoundaryScale, d), Color: Grey(d)}
		case Wall:
			return Hit{Kind: Wall, Glyph: b, Dist: d, Height: ApparentHeight(screenH, WallScale, d), Color: Grey(d)}
		case Sprite:
			if b == cam.Glyph {
				continue
			}
			s, ok := e.sprites.Lookup(b)
			if !ok {
				s = SpriteInfo{Scale: 1}
			}
			return Hit{Kind: Sprite, Glyph: b, Dist: d, Height: ApparentHeight(screenH, s.Scale, d), Color: s.Color}
		}
	}
	return Hit{}
}

// NewPool builds a pool rendering w×h maps with the default cast.
func NewPool(cfg gpu.Config, w, h int) (*gpu.Pool, error) {
	cfg.InputSize = InputSize(w, h)
	return gpu.New(cfg, NewEngine(NewDecoder(w, h), nil))
}
