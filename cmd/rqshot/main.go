package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"rolla/gpu"
	"rolla/internal/framedump"
	"rolla/raycast"
	"rolla/world"
)

func main() {
	var (
		outPath = flag.String("out", "", "Output image (.png or .bmp).")
		mapName = flag.String("map", world.DefaultMapName, "Map name.")
		mapDir  = flag.String("mapdir", "", "Map directory (default: built-in maps).")
		resFlag = flag.String("res", gpu.R640x360.String(), "Logical resolution WxH.")
		cores   = flag.Int("cores", 4, "Render workers.")
		scale   = flag.Int("scale", 1, "Render scale.")
		spawn   = flag.String("spawn", "P", "Glyph to place the camera on.")
		x       = flag.Float64("x", math.NaN(), "Camera x (default: spawn cell).")
		z       = flag.Float64("z", math.NaN(), "Camera z (default: spawn cell).")
		yaw     = flag.Float64("yaw", 0, "Yaw in degrees.")
		pitch   = flag.Float64("pitch", 0, "Pitch in degrees.")
		fov     = flag.Float64("fov", raycast.DefaultFOV, "Field of view in degrees.")
		dist    = flag.Uint("dist", raycast.DefaultDist, "Max view distance in steps.")
	)
	flag.Parse()

	if *outPath == "" || len(*spawn) != 1 {
		fatalf("usage: rqshot -out frame.png [-map name] [-mapdir dir] [-res WxH] [-cores N] [-scale N] [-spawn P] [-x X -z Z] [-yaw deg] [-pitch deg]")
	}
	res, err := gpu.ParseRes(*resFlag)
	if err != nil {
		fatalf("%v", err)
	}

	var store world.Store = world.BuiltinStore()
	if *mapDir != "" {
		store = world.NewDirStore(*mapDir)
	}
	m, err := store.Load(context.Background(), *mapName)
	if err != nil {
		fatalf("%v", err)
	}
	vp, err := m.Spawn((*spawn)[0])
	if err != nil {
		fatalf("%v", err)
	}
	if !math.IsNaN(*x) {
		vp.X = *x
	}
	if !math.IsNaN(*z) {
		vp.Z = *z
	}
	vp.Turn(*yaw*math.Pi/180, *pitch*math.Pi/180)
	vp.FOV = *fov
	vp.Dist = uint16(min(*dist, math.MaxUint16))

	frame, took, err := render(gpu.Config{Res: res, Cores: *cores, Scale: *scale, Timeout: 10 * time.Second}, m, vp)
	if err != nil {
		fatalf("render: %v", err)
	}
	if err := framedump.WriteFile(*outPath, frame, res.Width**scale, res.Height**scale); err != nil {
		fatalf("write: %v", err)
	}
	fmt.Printf("%s: %s %s scale %d, %d cores, %v\n", *outPath, m.Name, res, *scale, *cores, took.Round(time.Microsecond))
}

func render(cfg gpu.Config, m *world.Map, vp *world.Viewpoint) ([]byte, time.Duration, error) {
	pool, err := raycast.NewPool(cfg, m.Width, m.Height)
	if err != nil {
		return nil, 0, err
	}
	if err := pool.Enter(context.Background()); err != nil {
		return nil, 0, err
	}
	defer pool.Exit()

	in := make([]byte, raycast.InputSize(m.Width, m.Height))
	vp.Camera().Encode(in)
	if err := m.Snapshot(in[raycast.CameraSize:], vp); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	frame, err := pool.Call(in)
	if err != nil {
		return nil, 0, err
	}
	took := time.Since(start)
	if s := pool.Stats(); s.Stale > 0 || s.Faults > 0 {
		return nil, 0, fmt.Errorf("incomplete frame (stale %d, faults %d)", s.Stale, s.Faults)
	}
	return frame, took, nil
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
