package gpu

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fillDevice paints its whole shard with (in[0], idx, in[1]).
func fillDevice() Device {
	return DeviceFunc(func(idx int, in []byte, dst *Shard) error {
		for row := 0; row < dst.Height; row++ {
			for col := dst.Start; col < dst.End; col++ {
				dst.Set(col, row, in[0], uint8(idx), in[1])
			}
		}
		return nil
	})
}

func newEnteredPool(t *testing.T, cfg Config, dev Device) *Pool {
	t.Helper()
	p, err := New(cfg, dev)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := p.Enter(context.Background()); err != nil {
		t.Fatalf("Enter() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Exit() })
	return p
}

func pixelAt(out []byte, cfg Config, x, y int) [3]byte {
	w := cfg.Res.Width * cfg.Scale
	off := (y*w + x) * BytesPerPixel
	return [3]byte{out[off], out[off+1], out[off+2]}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"width not divisible", Config{Res: Res{Width: 10, Height: 4}, Cores: 3, InputSize: 2}},
		{"zero cores", Config{Res: R256x144, Cores: 0, InputSize: 2}},
		{"negative scale", Config{Res: R256x144, Cores: 4, Scale: -1, InputSize: 2}},
		{"zero input", Config{Res: R256x144, Cores: 4}},
		{"zero resolution", Config{Cores: 1, InputSize: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg, fillDevice())
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("New() error = %v, want ErrConfig", err)
			}
			if p != nil {
				t.Fatalf("New() pool = %v, want nil", p)
			}
		})
	}
}

func TestNewRejectsNilDevice(t *testing.T) {
	if _, err := New(Config{Res: R256x144, Cores: 4, InputSize: 2}, nil); !errors.Is(err, ErrConfig) {
		t.Fatalf("New(nil device) error = %v, want ErrConfig", err)
	}
}

func TestBlockWidthCoversWidth(t *testing.T) {
	for _, res := range Presets {
		for _, cores := range []int{1, 2, 4, 8} {
			cfg := Config{Res: res, Cores: cores, InputSize: 1}
			if err := cfg.withDefaults().validate(); err != nil {
				t.Fatalf("validate(%s, %d) error = %v", res, cores, err)
			}
			if got := cfg.BlockWidth() * cores; got != res.Width {
				t.Fatalf("BlockWidth()*cores = %d, want %d", got, res.Width)
			}
		}
	}
}

func TestCallOutputLength(t *testing.T) {
	for _, cores := range []int{1, 2, 4} {
		for _, scale := range []int{1, 2, 3} {
			cfg := Config{Res: Res{Width: 32, Height: 6}, Cores: cores, Scale: scale, InputSize: 2}
			p := newEnteredPool(t, cfg, fillDevice())
			out, err := p.Call([]byte{1, 2})
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			want := 32 * 6 * 3 * scale * scale
			if len(out) != want {
				t.Fatalf("len(Call()) = %d, want %d (cores=%d scale=%d)", len(out), want, cores, scale)
			}
		}
	}
}

func TestCallShardsAreDisjoint(t *testing.T) {
	cfg := Config{Res: Res{Width: 16, Height: 3}, Cores: 4, Scale: 2, InputSize: 2, Timeout: time.Second}
	p := newEnteredPool(t, cfg, fillDevice())

	out, err := p.Call([]byte{7, 9})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	block := cfg.BlockWidth() * cfg.Scale
	for y := 0; y < cfg.Res.Height*cfg.Scale; y++ {
		for x := 0; x < cfg.Res.Width*cfg.Scale; x++ {
			got := pixelAt(out, cfg, x, y)
			want := [3]byte{7, byte(x / block), 9}
			if got != want {
				t.Fatalf("pixel(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if s := p.Stats(); s.Dispatched != 1 || s.Completed != 1 {
		t.Fatalf("Stats() = %+v, want 1 dispatched and completed", s)
	}
}

func TestCallIsDeterministic(t *testing.T) {
	cfg := Config{Res: Res{Width: 8, Height: 4}, Cores: 2, InputSize: 2, Timeout: time.Second}
	p := newEnteredPool(t, cfg, fillDevice())

	a, err := p.Call([]byte{3, 4})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	b, err := p.Call([]byte{3, 4})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if string(a) != string(b) {
		t.Fatal("Call() output differs for identical input")
	}
}

func TestCallLifecycleErrors(t *testing.T) {
	cfg := Config{Res: Res{Width: 4, Height: 2}, Cores: 2, InputSize: 2}
	p, err := New(cfg, fillDevice())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := p.Call([]byte{0, 0}); !errors.Is(err, ErrNotEntered) {
		t.Fatalf("Call() before Enter error = %v, want ErrNotEntered", err)
	}
	if err := p.Enter(context.Background()); err != nil {
		t.Fatalf("Enter() error = %v", err)
	}
	if err := p.Enter(context.Background()); !errors.Is(err, ErrEntered) {
		t.Fatalf("second Enter() error = %v, want ErrEntered", err)
	}
	if _, err := p.Call([]byte{0}); !errors.Is(err, ErrInputSize) {
		t.Fatalf("Call(short input) error = %v, want ErrInputSize", err)
	}
	if err := p.CallInto(make([]byte, 3), []byte{0, 0}); !errors.Is(err, ErrOutputSize) {
		t.Fatalf("CallInto(short dst) error = %v, want ErrOutputSize", err)
	}
	if err := p.Exit(); err != nil {
		t.Fatalf("Exit() error = %v", err)
	}
	if err := p.Exit(); err != nil {
		t.Fatalf("second Exit() error = %v", err)
	}
	if _, err := p.Call([]byte{0, 0}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Call() after Exit error = %v, want ErrClosed", err)
	}
	if err := p.Enter(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Enter() after Exit error = %v, want ErrClosed", err)
	}
}

func TestExitWithoutEnter(t *testing.T) {
	p, err := New(Config{Res: Res{Width: 4, Height: 2}, Cores: 1, InputSize: 1}, fillDevice())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := p.Exit(); err != nil {
		t.Fatalf("Exit() error = %v", err)
	}
}

func TestEnterCanceledContext(t *testing.T) {
	// Workers signal ready immediately, so a canceled context may or may not
	// win; either way the pool must end up usable or closed, never stuck.
	p, err := New(Config{Res: Res{Width: 4, Height: 2}, Cores: 2, InputSize: 1}, fillDevice())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Enter(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Enter() error = %v, want context.Canceled", err)
		}
		if _, err := p.Call([]byte{0}); !errors.Is(err, ErrClosed) {
			t.Fatalf("Call() after failed Enter error = %v, want ErrClosed", err)
		}
		return
	}
	if err := p.Exit(); err != nil {
		t.Fatalf("Exit() error = %v", err)
	}
}

func TestWorkerFaultKeepsPreviousShard(t *testing.T) {
	var frames atomic.Int32
	dev := DeviceFunc(func(idx int, in []byte, dst *Shard) error {
		if idx == 1 && in[0] == 2 {
			panic("boom")
		}
		if idx == 2 && in[0] == 2 {
			return errors.New("bad shard")
		}
		frames.Add(1)
		for row := 0; row < dst.Height; row++ {
			for col := dst.Start; col < dst.End; col++ {
				dst.Set(col, row, in[0], in[0], in[0])
			}
		}
		return nil
	})
	cfg := Config{Res: Res{Width: 12, Height: 2}, Cores: 3, InputSize: 1, Timeout: time.Second}
	p := newEnteredPool(t, cfg, dev)

	if _, err := p.Call([]byte{1}); err != nil {
		t.Fatalf("Call(1) error = %v", err)
	}
	out, err := p.Call([]byte{2})
	if err != nil {
		t.Fatalf("Call(2) error = %v", err)
	}

	wants := []byte{2, 1, 1}
	for idx, want := range wants {
		x := idx * cfg.BlockWidth()
		if got := pixelAt(out, cfg, x, 0); got != [3]byte{want, want, want} {
			t.Fatalf("shard %d pixel = %v, want %d", idx, got, want)
		}
	}
	s := p.Stats()
	if s.Faults != 2 {
		t.Fatalf("Stats().Faults = %d, want 2", s.Faults)
	}
	if s.Completed != 2 {
		t.Fatalf("Stats().Completed = %d, want 2", s.Completed)
	}

	// The pool keeps working after faults.
	out, err = p.Call([]byte{3})
	if err != nil {
		t.Fatalf("Call(3) error = %v", err)
	}
	if got := pixelAt(out, cfg, cfg.BlockWidth(), 0); got != [3]byte{3, 3, 3} {
		t.Fatalf("pixel after recovery = %v, want 3", got)
	}
}

func TestCallTimeoutReturnsStaleFrame(t *testing.T) {
	release := make(chan struct{})
	var blockOnce atomic.Bool
	dev := DeviceFunc(func(idx int, in []byte, dst *Shard) error {
		if idx == 0 && in[0] == 2 && blockOnce.CompareAndSwap(false, true) {
			<-release
		}
		for row := 0; row < dst.Height; row++ {
			for col := dst.Start; col < dst.End; col++ {
				dst.Set(col, row, in[0], 0, 0)
			}
		}
		return nil
	})
	cfg := Config{Res: Res{Width: 4, Height: 1}, Cores: 2, InputSize: 1, Timeout: 50 * time.Millisecond}
	p := newEnteredPool(t, cfg, dev)

	if _, err := p.Call([]byte{1}); err != nil {
		t.Fatalf("Call(1) error = %v", err)
	}

	start := time.Now()
	out, err := p.Call([]byte{2})
	if err != nil {
		t.Fatalf("Call(2) error = %v", err)
	}
	if d := time.Since(start); d > time.Second {
		t.Fatalf("Call(2) took %v, want bounded by timeout", d)
	}
	if got := pixelAt(out, cfg, 0, 0)[0]; got != 1 {
		t.Fatalf("blocked shard = %d, want stale 1", got)
	}
	if got := pixelAt(out, cfg, 2, 0)[0]; got != 2 {
		t.Fatalf("fast shard = %d, want 2", got)
	}
	if s := p.Stats(); s.Stale != 1 {
		t.Fatalf("Stats().Stale = %d, want 1", s.Stale)
	}

	// Still in flight: the next call must not dispatch.
	if _, err := p.Call([]byte{3}); err != nil {
		t.Fatalf("Call(3) error = %v", err)
	}
	if s := p.Stats(); s.Skipped != 1 || s.Dispatched != 2 {
		t.Fatalf("Stats() = %+v, want 1 skipped and 2 dispatched", s)
	}

	close(release)
	out, err = p.Call([]byte{4})
	if err != nil {
		t.Fatalf("Call(4) error = %v", err)
	}
	if got := pixelAt(out, cfg, 0, 0)[0]; got != 4 {
		t.Fatalf("shard after release = %d, want 4", got)
	}
}

func TestExitTimesOutOnStuckWorker(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	dev := DeviceFunc(func(idx int, in []byte, dst *Shard) error {
		<-release
		return nil
	})
	cfg := Config{
		Res:         Res{Width: 2, Height: 1},
		Cores:       1,
		InputSize:   1,
		Timeout:     5 * time.Millisecond,
		ExitTimeout: 20 * time.Millisecond,
	}
	p, err := New(cfg, dev)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := p.Enter(context.Background()); err != nil {
		t.Fatalf("Enter() error = %v", err)
	}
	if _, err := p.Call([]byte{0}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if err := p.Exit(); !errors.Is(err, ErrExitTimeout) {
		t.Fatalf("Exit() error = %v, want ErrExitTimeout", err)
	}
	if err := p.Exit(); err != nil {
		t.Fatalf("second Exit() error = %v", err)
	}
}
