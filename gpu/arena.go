package gpu

import (
	"sync"
	"sync/atomic"
)

// Region is a fixed-size byte region shared by the pool owner and its workers.
//
// There is no memory protection: ownership rules are enforced by the pool
// (owner writes input, workers write output through Arena.publish).
type Region struct {
	seq atomic.Uint64
	buf []byte
}

func newRegion(size int) *Region {
	return &Region{buf: make([]byte, size)}
}

// Len returns the region size in bytes.
func (r *Region) Len() int { return len(r.buf) }

// Bytes returns the backing storage.
func (r *Region) Bytes() []byte { return r.buf }

// Seq returns the number of completed writes.
func (r *Region) Seq() uint64 { return r.seq.Load() }

// write copies data into the region and bumps the sequence counter.
// Callers check the size first.
func (r *Region) write(data []byte) uint64 {
	copy(r.buf, data)
	return r.seq.Add(1)
}

// Arena holds the input and output regions of one pool.
//
// Each output shard has its own lock: a worker holds only its own lock while
// publishing, a snapshot holds all of them, so a snapshot never observes a
// half-published shard.
type Arena struct {
	In  *Region
	Out *Region

	width int // output width in pixels, scale included
	locks []sync.Mutex
}

func newArena(cfg Config) *Arena {
	return &Arena{
		In:    newRegion(cfg.InputSize),
		Out:   newRegion(cfg.OutputSize()),
		width: cfg.Res.Width * cfg.Scale,
		locks: make([]sync.Mutex, cfg.Cores),
	}
}

// publish copies a finished shard into its column range of the output region.
func (a *Arena) publish(s *Shard) {
	stride := s.Stride()
	rowBytes := a.width * BytesPerPixel
	x0 := s.Start * s.Scale * BytesPerPixel
	rows := s.Height * s.Scale

	mu := &a.locks[s.Index]
	mu.Lock()
	out := a.Out.buf
	for y := 0; y < rows; y++ {
		dst := y*rowBytes + x0
		copy(out[dst:dst+stride], s.Pix[y*stride:(y+1)*stride])
	}
	a.Out.seq.Add(1)
	mu.Unlock()
}

// snapshot copies the whole output region into dst.
func (a *Arena) snapshot(dst []byte) {
	for i := range a.locks {
		a.locks[i].Lock()
	}
	copy(dst, a.Out.buf)
	for i := range a.locks {
		a.locks[i].Unlock()
	}
}

// Shard is a worker's private render target for one column range.
//
// Start and End are logical (unscaled) columns of the full screen; Pix holds
// (End-Start)*Scale columns by Height*Scale rows of RGB24.
type Shard struct {
	Index  int
	Start  int
	End    int
	Width  int
	Height int
	Scale  int
	Pix    []byte
}

func newShard(cfg Config, idx int) Shard {
	block := cfg.BlockWidth()
	s := Shard{
		Index:  idx,
		Start:  block * idx,
		End:    block * (idx + 1),
		Width:  cfg.Res.Width,
		Height: cfg.Res.Height,
		Scale:  cfg.Scale,
	}
	s.Pix = make([]byte, s.Stride()*s.Height*s.Scale)
	return s
}

// Stride returns the number of bytes per scaled shard row.
func (s *Shard) Stride() int {
	return (s.End - s.Start) * s.Scale * BytesPerPixel
}

// Set writes the logical pixel at screen column col and row as a Scale×Scale
// block. Columns outside the shard are ignored.
func (s *Shard) Set(col, row int, r, g, b uint8) {
	if col < s.Start || col >= s.End || row < 0 || row >= s.Height {
		return
	}
	stride := s.Stride()
	x0 := (col - s.Start) * s.Scale * BytesPerPixel
	y0 := row * s.Scale
	for dy := 0; dy < s.Scale; dy++ {
		off := (y0+dy)*stride + x0
		for dx := 0; dx < s.Scale; dx++ {
			s.Pix[off] = r
			s.Pix[off+1] = g
			s.Pix[off+2] = b
			off += BytesPerPixel
		}
	}
}
