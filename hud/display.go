package hud

import (
	"image/color"

	"rolla/hal"
)

// fbDisplayer draws onto an RGB888 framebuffer through the tinygo display
// interface.
type fbDisplayer struct {
	fb hal.Framebuffer
}

func (d *fbDisplayer) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *fbDisplayer) SetPixel(x, y int16, c color.RGBA) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB888 {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || iy < 0 || ix >= d.fb.Width() || iy >= d.fb.Height() {
		return
	}
	buf := d.fb.Buffer()
	off := iy*d.fb.StrideBytes() + ix*3
	if off+2 >= len(buf) {
		return
	}
	buf[off] = c.R
	buf[off+1] = c.G
	buf[off+2] = c.B
}

func (d *fbDisplayer) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

// FillRectangle blends c over the rectangle using its alpha.
func (d *fbDisplayer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB888 {
		return nil
	}
	buf := d.fb.Buffer()
	w, h := d.fb.Width(), d.fb.Height()

	x0 := clampInt(int(x), 0, w)
	y0 := clampInt(int(y), 0, h)
	x1 := clampInt(int(x)+int(width), 0, w)
	y1 := clampInt(int(y)+int(height), 0, h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	a := uint16(c.A)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := py * stride
		for px := x0; px < x1; px++ {
			off := row + px*3
			buf[off] = blend(buf[off], c.R, a)
			buf[off+1] = blend(buf[off+1], c.G, a)
			buf[off+2] = blend(buf[off+2], c.B, a)
		}
	}
	return nil
}

func blend(dst, src uint8, a uint16) uint8 {
	return uint8((uint16(src)*a + uint16(dst)*(255-a)) / 255)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
