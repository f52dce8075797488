package hud

import (
	"image"
	"image/color"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Font is the HUD monospace bitmap font (7x13).
var Font tinyfont.Fonter = NewFace(basicfont.Face7x13)

// face adapts a basicfont face to tinyfont.Fonter.
type face struct {
	f *basicfont.Face
}

// NewFace wraps a fixed-size basicfont face for tinyfont.
func NewFace(f *basicfont.Face) tinyfont.Fonter {
	return &face{f: f}
}

func (f *face) GetYAdvance() uint8 { return uint8(f.f.Height) }

func (f *face) GetGlyph(r rune) tinyfont.Glypher {
	return &glyph{f: f.f, r: r}
}

type glyph struct {
	f *basicfont.Face
	r rune
}

// Draw plots the glyph with its baseline at y.
func (g *glyph) Draw(display drivers.Displayer, x, y int16, c color.RGBA) {
	dr, mask, mp, _, ok := g.f.Glyph(fixed.P(0, 0), g.r)
	if !ok {
		dr, mask, mp, _, ok = g.f.Glyph(fixed.P(0, 0), '?')
		if !ok {
			return
		}
	}
	for py := 0; py < dr.Dy(); py++ {
		for px := 0; px < dr.Dx(); px++ {
			if !opaque(mask, mp.Add(image.Pt(px, py))) {
				continue
			}
			display.SetPixel(x+int16(dr.Min.X+px), y+int16(dr.Min.Y+py), c)
		}
	}
}

func (g *glyph) Info() tinyfont.GlyphInfo {
	return tinyfont.GlyphInfo{
		Rune:     g.r,
		Width:    uint8(g.f.Width),
		Height:   uint8(g.f.Height),
		XAdvance: uint8(g.f.Advance),
		XOffset:  int8(g.f.Left),
		YOffset:  int8(-g.f.Ascent),
	}
}

func opaque(m image.Image, p image.Point) bool {
	_, _, _, a := m.At(p.X, p.Y).RGBA()
	return a >= 0x8000
}
