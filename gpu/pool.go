// Package gpu runs a fixed pool of render workers over two shared regions.
//
// The owner writes one input record per frame, every worker renders a
// disjoint column shard of the output, and a barrier with a short timeout
// joins the frame. A frame that misses the deadline is returned stale rather
// than blocking the owner; late shards show up on a following call.
package gpu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrConfig      = errors.New("gpu: invalid config")
	ErrNotEntered  = errors.New("gpu: pool not entered")
	ErrEntered     = errors.New("gpu: pool already entered")
	ErrClosed      = errors.New("gpu: pool closed")
	ErrInputSize   = errors.New("gpu: input size mismatch")
	ErrOutputSize  = errors.New("gpu: output size mismatch")
	ErrExitTimeout = errors.New("gpu: workers did not stop")
)

// Device renders one shard of a frame.
//
// in is the shared input region and must be treated as read-only. Render may
// only write dst. A returned error or a panic discards the shard for this
// frame; the output keeps that shard's previous pixels.
type Device interface {
	Render(idx int, in []byte, dst *Shard) error
}

// DeviceFunc adapts a function to Device.
type DeviceFunc func(idx int, in []byte, dst *Shard) error

func (f DeviceFunc) Render(idx int, in []byte, dst *Shard) error { return f(idx, in, dst) }

// Stats are cumulative pool counters.
type Stats struct {
	Dispatched uint64 // frames handed to workers
	Completed  uint64 // frames joined before the deadline
	Stale      uint64 // frames that missed the deadline
	Skipped    uint64 // calls that found the previous frame still running
	Faults     uint64 // shards discarded after an error or panic
}

type poolState uint8

const (
	stateNew poolState = iota
	stateEntered
	stateClosed
)

type frame struct {
	seq       uint64
	remaining atomic.Int32
	done      chan struct{}
}

type worker struct {
	idx   int
	wake  chan *frame
	shard Shard
}

// Pool is a fixed set of render workers plus their shared regions.
//
// Call, Enter and Exit are serialized; at most one frame is in flight.
type Pool struct {
	cfg Config
	dev Device

	mu       sync.Mutex
	state    poolState
	arena    *Arena
	workers  []*worker
	quit     chan struct{}
	wg       sync.WaitGroup
	inflight *frame

	dispatched atomic.Uint64
	completed  atomic.Uint64
	stale      atomic.Uint64
	skipped    atomic.Uint64
	faults     atomic.Uint64
}

// New validates cfg and returns a pool that has not started any worker yet.
func New(cfg Config, dev Device) (*Pool, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device", ErrConfig)
	}
	return &Pool{cfg: cfg, dev: dev}, nil
}

// Config returns the effective configuration, defaults applied.
func (p *Pool) Config() Config { return p.cfg }

// Enter allocates the shared regions, starts the workers and blocks until all
// of them are waiting for work. If ctx ends first, everything started so far
// is torn down and the pool is closed.
func (p *Pool) Enter(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateEntered:
		return ErrEntered
	case stateClosed:
		return ErrClosed
	}

	p.arena = newArena(p.cfg)
	p.quit = make(chan struct{})
	ready := make(chan int, p.cfg.Cores)

	for idx := 0; idx < p.cfg.Cores; idx++ {
		w := &worker{
			idx:   idx,
			wake:  make(chan *frame, 1),
			shard: newShard(p.cfg, idx),
		}
		p.workers = append(p.workers, w)
		p.wg.Add(1)
		go p.run(w, p.arena, p.quit, ready)
	}

	for n := 0; n < p.cfg.Cores; n++ {
		select {
		case <-ready:
		case <-ctx.Done():
			_ = p.teardown()
			p.state = stateClosed
			return fmt.Errorf("gpu: waiting for workers: %w", ctx.Err())
		}
	}

	p.state = stateEntered
	Logger().Debug("gpu: pool entered",
		"res", p.cfg.Res.String(),
		"scale", p.cfg.Scale,
		"cores", p.cfg.Cores,
		"input_bytes", p.cfg.InputSize,
		"output_bytes", p.cfg.OutputSize())
	return nil
}

// Call renders one frame from in and returns a copy of the output region.
func (p *Pool) Call(in []byte) ([]byte, error) {
	out := make([]byte, p.cfg.OutputSize())
	if err := p.CallInto(out, in); err != nil {
		return nil, err
	}
	return out, nil
}

// CallInto is Call writing into dst, which must be exactly OutputSize bytes.
//
// The wait for workers is bounded by Config.Timeout. On timeout dst receives
// whatever the output region holds, which may mix shards of this frame and
// earlier ones.
func (p *Pool) CallInto(dst, in []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateNew:
		return ErrNotEntered
	case stateClosed:
		return ErrClosed
	}
	if len(in) != p.cfg.InputSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInputSize, len(in), p.cfg.InputSize)
	}
	if len(dst) != p.arena.Out.Len() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrOutputSize, len(dst), p.arena.Out.Len())
	}

	// Workers may still be reading the previous input.
	if f := p.inflight; f != nil && !p.wait(f) {
		p.skipped.Add(1)
		p.arena.snapshot(dst)
		return nil
	}

	seq := p.arena.In.write(in)
	f := &frame{seq: seq, done: make(chan struct{})}
	f.remaining.Store(int32(len(p.workers)))
	p.inflight = f
	p.dispatched.Add(1)
	for _, w := range p.workers {
		w.wake <- f
	}

	if p.wait(f) {
		p.completed.Add(1)
	} else {
		p.stale.Add(1)
		Logger().Debug("gpu: frame missed deadline", "frame", seq, "timeout", p.cfg.Timeout)
	}
	p.arena.snapshot(dst)
	return nil
}

// wait blocks until f is joined or the timeout elapses.
func (p *Pool) wait(f *frame) bool {
	t := time.NewTimer(p.cfg.Timeout)
	defer t.Stop()
	select {
	case <-f.done:
		p.inflight = nil
		return true
	case <-t.C:
		return false
	}
}

func (p *Pool) run(w *worker, arena *Arena, quit <-chan struct{}, ready chan<- int) {
	defer p.wg.Done()
	ready <- w.idx

	for {
		select {
		case <-quit:
			return
		case f := <-w.wake:
			p.step(w, arena, f)
			if f.remaining.Add(-1) == 0 {
				close(f.done)
			}
		}
	}
}

func (p *Pool) step(w *worker, arena *Arena, f *frame) {
	defer func() {
		if r := recover(); r != nil {
			p.faults.Add(1)
			Logger().Warn("gpu: worker panic", "worker", w.idx, "frame", f.seq, "panic", r)
		}
	}()

	if err := p.dev.Render(w.idx, arena.In.Bytes(), &w.shard); err != nil {
		p.faults.Add(1)
		Logger().Warn("gpu: worker failed", "worker", w.idx, "frame", f.seq, "err", err)
		return
	}
	arena.publish(&w.shard)
}

// Exit stops every worker and releases the shared regions. Workers notice
// the stop only between frames, so Exit waits up to Config.ExitTimeout for a
// running frame and reports ErrExitTimeout if some worker never returned.
// Exit is idempotent and may be called on a pool that was never entered.
func (p *Pool) Exit() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == stateClosed {
		return nil
	}
	p.state = stateClosed
	return p.teardown()
}

func (p *Pool) teardown() error {
	if p.quit != nil {
		close(p.quit)
		p.quit = nil
	}

	joined := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(joined)
	}()

	var err error
	t := time.NewTimer(p.cfg.ExitTimeout)
	defer t.Stop()
	select {
	case <-joined:
	case <-t.C:
		err = ErrExitTimeout
		Logger().Warn("gpu: workers still running after exit timeout", "timeout", p.cfg.ExitTimeout)
	}

	p.workers = nil
	p.arena = nil
	p.inflight = nil
	return err
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Dispatched: p.dispatched.Load(),
		Completed:  p.completed.Load(),
		Stale:      p.stale.Load(),
		Skipped:    p.skipped.Load(),
		Faults:     p.faults.Load(),
	}
}
