package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"rolla/app"
	"rolla/gpu"
	"rolla/hal"
	"rolla/internal/buildinfo"
	"rolla/stream"
	"rolla/world"
)

func main() {
	var (
		headless  bool
		hcfg      hal.HeadlessConfig
		resFlag   string
		cores     int
		scale     int
		zoom      int
		timeout   time.Duration
		mapName   string
		mapDir    string
		mapDB     string
		seed      bool
		serve     string
		dump      string
		dumpEvery uint64
		verbose   bool
	)
	flag.BoolVar(&headless, "headless", false, "Run without a window.")
	flag.IntVar(&hcfg.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&hcfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.StringVar(&resFlag, "res", gpu.R640x360.String(), "Logical resolution WxH (256x144, 640x360, 1920x1080 or any).")
	flag.IntVar(&cores, "cores", 8, "Render workers; must divide the width.")
	flag.IntVar(&scale, "scale", 2, "Render scale (each pixel becomes scale×scale).")
	flag.IntVar(&zoom, "zoom", 1, "Window size multiplier.")
	flag.DurationVar(&timeout, "timeout", gpu.DefaultTimeout, "Frame barrier timeout.")
	flag.StringVar(&mapName, "map", world.DefaultMapName, "Map name.")
	flag.StringVar(&mapDir, "mapdir", "", "Load maps from this directory instead of the built-in set.")
	flag.StringVar(&mapDB, "mapdb", "", "Load maps from PostgreSQL (connection string).")
	flag.BoolVar(&seed, "seed", false, "Copy the built-in maps into -mapdir or -mapdb, then exit.")
	flag.StringVar(&serve, "serve", "", "Serve frames to websocket viewers on this address (e.g. :8080).")
	flag.StringVar(&dump, "dump", "", "Frame dump path (.png or .bmp); F2 writes one frame.")
	flag.Uint64Var(&dumpEvery, "dump-every", 0, "Also dump every Nth frame.")
	flag.BoolVar(&verbose, "v", false, "Debug logging.")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(hal.LogWriter{L: hal.NewLogger(os.Stderr)}, &slog.HandlerOptions{Level: level}))
	gpu.SetLogger(log)
	log.Info("rolla", "build", buildinfo.Short())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := gpu.ParseRes(resFlag)
	if err != nil {
		fatalf("%v", err)
	}

	store, closeStore, err := openStore(ctx, mapDir, mapDB)
	if err != nil {
		fatalf("%v", err)
	}
	defer closeStore()

	if seed {
		if err := seedStore(ctx, store); err != nil {
			fatalf("seed: %v", err)
		}
		return
	}

	m, err := store.Load(ctx, mapName)
	if err != nil {
		fatalf("%v", err)
	}
	log.Info("map loaded", "map", m.Name, "width", m.Width, "height", m.Height)

	cfg := app.Config{
		Pool: gpu.Config{
			Res:     res,
			Cores:   cores,
			Scale:   scale,
			Timeout: timeout,
		},
		Map:       m,
		Dump:      dump,
		DumpEvery: dumpEvery,
		Log:       log,
	}

	w, h := res.Width*scale, res.Height*scale
	if serve != "" {
		hub := stream.NewHub(w, h, log)
		defer hub.Close()
		cfg.Hub = hub

		srv := startServer(serve, hub, log)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
	}

	if headless {
		hcfg.Width, hcfg.Height = w, h
		if err := hal.RunHeadless(ctx, app.NewStep(ctx, cfg), hcfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(app.NewStep(ctx, cfg), hal.WindowConfig{
		Width:  w,
		Height: h,
		Zoom:   zoom,
		Title:  "rolla " + m.Name,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, dir, dsn string) (world.Store, func(), error) {
	switch {
	case dsn != "":
		s, err := world.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case dir != "":
		return world.NewDirStore(dir), func() {}, nil
	default:
		return world.BuiltinStore(), func() {}, nil
	}
}

func seedStore(ctx context.Context, dst world.Store) error {
	src := world.BuiltinStore()
	names, err := src.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		m, err := src.Load(ctx, name)
		if err != nil {
			return err
		}
		if err := dst.Save(ctx, name, m); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "seeded %s (%dx%d)\n", name, m.Width, m.Height)
	}
	return nil
}

func startServer(addr string, hub *stream.Hub, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/stream", hub)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("serving frames", "addr", addr, "path", "/stream")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("stream server", "err", err)
		}
	}()
	return srv
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
