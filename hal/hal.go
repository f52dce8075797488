// Package hal is the host side of the renderer: a framebuffer, keyboard input,
// a tick source and a log sink, driven either by a desktop window or by a
// headless ticker.
package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// ErrStop ends a runner cleanly when returned from a step.
var ErrStop = errors.New("hal: stop")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB888 is 24bpp: r, g, b bytes.
	PixelFormatRGB888 PixelFormat = iota + 1
)

// BytesPerPixel returns the size of one pixel in f.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGB888:
		return 3
	default:
		return 0
	}
}

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	// Blit replaces the whole buffer with src, which must have the same size.
	Blit(src []byte) error
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyW
	KeyA
	KeyS
	KeyD
	KeyEscape
	KeyF1
	KeyF2
)

// KeyEvent is a keyboard event.
type KeyEvent struct {
	Code  KeyCode
	Press bool
}

// Keyboard provides key events (best-effort on each platform).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Input provides access to input devices (if available).
type Input interface {
	Keyboard() Keyboard
}

// Time provides the uptime in milliseconds, published once per step.
type Time interface {
	Ticks() <-chan uint64
}

// HAL is the only contact point between the renderer loop and the outside
// world.
type HAL interface {
	Logger() Logger
	Display() Display
	Input() Input
	Time() Time
}
