// Package app is the per-tick renderer loop: keyboard in, camera and map out
// to the worker pool, frame back onto the framebuffer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"rolla/gpu"
	"rolla/hal"
	"rolla/hud"
	"rolla/internal/framedump"
	"rolla/raycast"
	"rolla/stream"
	"rolla/world"
)

const (
	DefaultTurnStep  = 3 * math.Pi / 180
	DefaultPitchStep = 2 * math.Pi / 180
)

type Config struct {
	Pool gpu.Config
	Map  *world.Map
	// Spawn is the glyph the viewpoint starts on; 0 means world.PlayerGlyph.
	Spawn byte

	TurnStep  float64
	PitchStep float64

	// Dump is a frame file path (.png or .bmp); empty disables dumps. With
	// DumpEvery > 0 every DumpEvery-th frame is written to a numbered file;
	// otherwise only F2 writes one.
	Dump      string
	DumpEvery uint64

	Hub *stream.Hub
	Log *slog.Logger
}

// Renderer owns the pool and the viewpoint for one window or headless run.
type Renderer struct {
	h   hal.HAL
	fb  hal.Framebuffer
	cfg Config
	log *slog.Logger

	pool *gpu.Pool
	m    *world.Map
	vp   *world.Viewpoint
	hud  *hud.Overlay

	held   map[hal.KeyCode]bool
	in     []byte
	frame  []byte
	frames uint64
	ticks  uint64

	dumpNext bool
}

// New spawns the viewpoint, enters the pool and returns the loop.
func New(ctx context.Context, h hal.HAL, cfg Config) (*Renderer, error) {
	if cfg.Map == nil {
		return nil, errors.New("app: no map")
	}
	if cfg.Spawn == 0 {
		cfg.Spawn = world.PlayerGlyph
	}
	if cfg.TurnStep == 0 {
		cfg.TurnStep = DefaultTurnStep
	}
	if cfg.PitchStep == 0 {
		cfg.PitchStep = DefaultPitchStep
	}
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(hal.LogWriter{L: h.Logger()}, nil))
	}

	fb := h.Display().Framebuffer()
	pc := cfg.Pool
	if pc.Scale == 0 {
		pc.Scale = 1
	}
	if fb.Width() != pc.Res.Width*pc.Scale || fb.Height() != pc.Res.Height*pc.Scale {
		return nil, fmt.Errorf("app: framebuffer %dx%d does not fit %s at scale %d",
			fb.Width(), fb.Height(), pc.Res, pc.Scale)
	}

	vp, err := cfg.Map.Spawn(cfg.Spawn)
	if err != nil {
		return nil, err
	}

	pool, err := raycast.NewPool(pc, cfg.Map.Width, cfg.Map.Height)
	if err != nil {
		return nil, err
	}
	if err := pool.Enter(ctx); err != nil {
		return nil, err
	}

	r := &Renderer{
		h:     h,
		fb:    fb,
		cfg:   cfg,
		log:   log,
		pool:  pool,
		m:     cfg.Map,
		vp:    vp,
		hud:   hud.New(fb),
		held:  make(map[hal.KeyCode]bool),
		in:    make([]byte, raycast.InputSize(cfg.Map.Width, cfg.Map.Height)),
		frame: make([]byte, pool.Config().OutputSize()),
	}
	log.Info("renderer ready",
		"map", cfg.Map.Name,
		"res", pc.Res.String(),
		"scale", pc.Scale,
		"cores", pc.Cores,
		"spawn", string(rune(cfg.Spawn)))
	return r, nil
}

// Viewpoint returns the bound viewpoint.
func (r *Renderer) Viewpoint() *world.Viewpoint { return r.vp }

// Frames returns the number of frames rendered.
func (r *Renderer) Frames() uint64 { return r.frames }

// HUD returns the status overlay.
func (r *Renderer) HUD() *hud.Overlay { return r.hud }

// Step runs one tick. It returns hal.ErrStop when Escape is pressed or the
// renderer has been closed.
func (r *Renderer) Step() error {
	if r.pollKeys() {
		return hal.ErrStop
	}
	r.pollTicks()
	r.steer()

	if err := r.m.Snapshot(r.in[raycast.CameraSize:], r.vp); err != nil {
		return err
	}
	r.vp.Camera().Encode(r.in)

	start := time.Now()
	if err := r.pool.CallInto(r.frame, r.in); err != nil {
		// The pool is closed once the run context ends.
		if errors.Is(err, gpu.ErrClosed) {
			return hal.ErrStop
		}
		return err
	}
	elapsed := time.Since(start)
	r.frames++

	if err := r.fb.Blit(r.frame); err != nil {
		return err
	}
	st := r.pool.Stats()
	clients := 0
	if r.cfg.Hub != nil {
		clients = r.cfg.Hub.Clients()
	}
	r.hud.Draw(hud.Stats{
		Frame:     r.frames,
		FrameTime: elapsed,
		Uptime:    time.Duration(r.ticks) * time.Millisecond,
		X:         r.vp.X,
		Z:         r.vp.Z,
		Yaw:       r.vp.Yaw,
		Pitch:     r.vp.Pitch,
		Stale:     st.Stale,
		Skipped:   st.Skipped,
		Faults:    st.Faults,
		Clients:   clients,
	})

	if r.cfg.Hub != nil {
		r.cfg.Hub.Broadcast(r.fb.Buffer())
	}
	if err := r.maybeDump(); err != nil {
		return err
	}
	return r.fb.Present()
}

// pollKeys drains pending key events. It reports whether Escape was pressed.
func (r *Renderer) pollKeys() (quit bool) {
	kbd := r.h.Input().Keyboard()
	if kbd == nil {
		return false
	}
	for {
		select {
		case ev := <-kbd.Events():
			r.held[ev.Code] = ev.Press
			if !ev.Press {
				continue
			}
			switch ev.Code {
			case hal.KeyEscape:
				quit = true
			case hal.KeyF1:
				r.hud.Visible = !r.hud.Visible
			case hal.KeyF2:
				r.dumpNext = true
			}
		default:
			return quit
		}
	}
}

func (r *Renderer) pollTicks() {
	t := r.h.Time()
	if t == nil {
		return
	}
	for {
		select {
		case v := <-t.Ticks():
			r.ticks = v
		default:
			return
		}
	}
}

func (r *Renderer) steer() {
	axis := func(neg, pos hal.KeyCode) float64 {
		v := 0.0
		if r.held[neg] {
			v--
		}
		if r.held[pos] {
			v++
		}
		return v
	}

	yaw := axis(hal.KeyLeft, hal.KeyRight) * r.cfg.TurnStep
	pitch := axis(hal.KeyUp, hal.KeyDown) * r.cfg.PitchStep
	if yaw != 0 || pitch != 0 {
		r.vp.Turn(yaw, pitch)
	}
	r.vp.Move(r.m, world.Throttle{
		Forward: axis(hal.KeyS, hal.KeyW),
		Strafe:  axis(hal.KeyA, hal.KeyD),
	})
}

func (r *Renderer) maybeDump() error {
	if r.cfg.Dump == "" {
		r.dumpNext = false
		return nil
	}
	every := r.cfg.DumpEvery > 0 && r.frames%r.cfg.DumpEvery == 0
	if !every && !r.dumpNext {
		return nil
	}
	r.dumpNext = false

	path := framedump.Numbered(r.cfg.Dump, r.frames)
	if err := framedump.WriteFile(path, r.fb.Buffer(), r.fb.Width(), r.fb.Height()); err != nil {
		return err
	}
	r.log.Info("frame written", "path", path, "frame", r.frames)
	return nil
}

// Close stops the worker pool.
func (r *Renderer) Close() error {
	return r.pool.Exit()
}

// NewStep adapts New to the hal runners. Construction errors surface from
// the first step; the renderer is closed when ctx ends.
func NewStep(ctx context.Context, cfg Config) func(hal.HAL) func() error {
	return func(h hal.HAL) func() error {
		r, err := New(ctx, h, cfg)
		if err != nil {
			return func() error { return err }
		}
		go func() {
			<-ctx.Done()
			r.Close()
		}()
		return r.Step
	}
}
