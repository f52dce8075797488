// Package hud draws the status text over rendered frames.
package hud

import (
	"image/color"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"tinygo.org/x/tinyfont"

	"rolla/hal"
)

// Stats is what the overlay reports for one frame.
type Stats struct {
	Frame     uint64
	FrameTime time.Duration
	Uptime    time.Duration

	X, Z       float64
	Yaw, Pitch float64

	Stale   uint64
	Skipped uint64
	Faults  uint64
	Clients int
}

// Overlay writes Stats into the top-left corner of a framebuffer.
type Overlay struct {
	d    *fbDisplayer
	font tinyfont.Fonter
	p    *message.Printer

	fontHeight int16
	pad        int16

	FG      color.RGBA
	BG      color.RGBA
	Visible bool
}

func New(fb hal.Framebuffer) *Overlay {
	return NewWithFont(fb, Font)
}

func NewWithFont(fb hal.Framebuffer, font tinyfont.Fonter) *Overlay {
	return &Overlay{
		d:          &fbDisplayer{fb: fb},
		font:       font,
		p:          message.NewPrinter(language.English),
		fontHeight: int16(font.GetYAdvance()),
		pad:        2,
		FG:         color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		BG:         color.RGBA{A: 0xA0},
		Visible:    true,
	}
}

// Lines formats s as the overlay text.
func (o *Overlay) Lines(s Stats) []string {
	return []string{
		o.p.Sprintf("frame %d  %.1f ms", s.Frame, float64(s.FrameTime.Microseconds())/1000),
		o.p.Sprintf("pos %.1f,%.1f  yaw %d  pitch %d", s.X, s.Z, degrees(s.Yaw), degrees(s.Pitch)),
		o.p.Sprintf("stale %d  skip %d  fault %d", s.Stale, s.Skipped, s.Faults),
		o.p.Sprintf("up %s  viewers %d", s.Uptime.Truncate(time.Second).String(), s.Clients),
	}
}

// Draw renders the overlay. It does nothing when the overlay is hidden.
func (o *Overlay) Draw(s Stats) {
	if !o.Visible {
		return
	}
	lines := o.Lines(s)

	var w uint32
	for _, l := range lines {
		_, outbox := tinyfont.LineWidth(o.font, l)
		w = max(w, outbox)
	}
	h := int16(len(lines))*o.fontHeight + 2*o.pad
	o.d.FillRectangle(0, 0, int16(w)+2*o.pad, h, o.BG)

	for i, l := range lines {
		y := o.pad + int16(i+1)*o.fontHeight - 2
		tinyfont.WriteLine(o.d, o.font, o.pad, y, l, o.FG)
	}
}

func degrees(rad float64) int {
	d := int(math.Round(rad*180/math.Pi)) % 360
	if d < 0 {
		d += 360
	}
	return d
}
