package hal

import (
	"fmt"
	"sync"
)

type hostFramebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	buf    []byte
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	stride := width * 3
	return &hostFramebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
}

func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return PixelFormatRGB888 }
func (f *hostFramebuffer) StrideBytes() int    { return f.stride }
func (f *hostFramebuffer) Buffer() []byte      { return f.buf }
func (f *hostFramebuffer) Present() error      { return nil }

func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := 0; i+2 < len(f.buf); i += 3 {
		f.buf[i] = r
		f.buf[i+1] = g
		f.buf[i+2] = b
	}
}

func (f *hostFramebuffer) Blit(src []byte) error {
	if len(src) != len(f.buf) {
		return fmt.Errorf("hal: blit %d bytes into %dx%d framebuffer", len(src), f.width, f.height)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(f.buf, src)
	return nil
}

// snapshotRGBA converts the framebuffer into dst, 4 bytes per pixel.
func (f *hostFramebuffer) snapshotRGBA(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rgbToRGBA(dst, f.buf)
}
