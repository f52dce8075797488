package gpu

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BytesPerPixel is the size of one RGB24 pixel in both the output region and
// worker shards.
const BytesPerPixel = 3

// Res is a logical (unscaled) screen resolution.
type Res struct {
	Width  int
	Height int
}

// Preset resolutions offered by the launcher.
var (
	R256x144   = Res{Width: 256, Height: 144}
	R640x360   = Res{Width: 640, Height: 360}
	R1920x1080 = Res{Width: 1920, Height: 1080}
)

// Presets lists the launcher resolutions in menu order.
var Presets = []Res{R256x144, R640x360, R1920x1080}

func (r Res) String() string {
	return strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
}

// Size returns the unscaled framebuffer size in bytes.
func (r Res) Size() int { return r.Width * r.Height * BytesPerPixel }

// ParseRes parses "WxH".
func ParseRes(s string) (Res, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Res{}, fmt.Errorf("gpu: bad resolution %q (want WxH)", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return Res{}, fmt.Errorf("gpu: bad resolution width %q: %w", ws, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return Res{}, fmt.Errorf("gpu: bad resolution height %q: %w", hs, err)
	}
	if w <= 0 || h <= 0 {
		return Res{}, fmt.Errorf("gpu: bad resolution %q", s)
	}
	return Res{Width: w, Height: h}, nil
}

const (
	// DefaultTimeout bounds how long Call waits for the frame barrier.
	DefaultTimeout = 50 * time.Millisecond
	// DefaultExitTimeout bounds how long Exit waits to join workers.
	DefaultExitTimeout = time.Second
)

// Config describes a compute pool.
type Config struct {
	Res Res
	// Cores is the number of workers. Res.Width must be a multiple of it.
	Cores int
	// Scale replicates every logical pixel into a Scale×Scale block.
	Scale int
	// InputSize is the exact byte size of every Call input.
	InputSize int

	Timeout     time.Duration
	ExitTimeout time.Duration
}

// BlockWidth is the number of logical columns owned by each worker.
func (c Config) BlockWidth() int {
	if c.Cores <= 0 {
		return 0
	}
	return c.Res.Width / c.Cores
}

// OutputSize is the framebuffer size in bytes, scale included.
func (c Config) OutputSize() int {
	return c.Res.Size() * c.Scale * c.Scale
}

func (c Config) withDefaults() Config {
	if c.Scale == 0 {
		c.Scale = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ExitTimeout <= 0 {
		c.ExitTimeout = DefaultExitTimeout
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.Res.Width <= 0 || c.Res.Height <= 0:
		return fmt.Errorf("%w: resolution %s", ErrConfig, c.Res)
	case c.Cores <= 0:
		return fmt.Errorf("%w: cores = %d", ErrConfig, c.Cores)
	case c.Scale <= 0:
		return fmt.Errorf("%w: scale = %d", ErrConfig, c.Scale)
	case c.InputSize <= 0:
		return fmt.Errorf("%w: input size = %d", ErrConfig, c.InputSize)
	case c.Res.Width%c.Cores != 0:
		return fmt.Errorf("%w: width %d is not a multiple of %d cores", ErrConfig, c.Res.Width, c.Cores)
	}
	return nil
}
