package hal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFramebufferClearAndBlit(t *testing.T) {
	fb := newHostFramebuffer(3, 2)
	if fb.StrideBytes() != 9 || len(fb.Buffer()) != 18 {
		t.Fatalf("stride/len = %d/%d, want 9/18", fb.StrideBytes(), len(fb.Buffer()))
	}
	if fb.Format().BytesPerPixel() != 3 {
		t.Fatalf("BytesPerPixel() = %d, want 3", fb.Format().BytesPerPixel())
	}

	fb.ClearRGB(1, 2, 3)
	if !bytes.Equal(fb.Buffer()[:6], []byte{1, 2, 3, 1, 2, 3}) {
		t.Fatalf("ClearRGB() buffer = %v", fb.Buffer()[:6])
	}

	src := make([]byte, 18)
	src[3], src[4], src[5] = 9, 8, 7
	if err := fb.Blit(src); err != nil {
		t.Fatalf("Blit() error = %v", err)
	}
	if err := fb.Blit(src[:3]); err == nil {
		t.Fatal("Blit(short) error = nil, want error")
	}

	rgba := make([]byte, 3*2*4)
	fb.snapshotRGBA(rgba)
	if !bytes.Equal(rgba[:8], []byte{0, 0, 0, 0xFF, 9, 8, 7, 0xFF}) {
		t.Fatalf("snapshotRGBA() = %v", rgba[:8])
	}
}

func TestLogWriterSplitsLines(t *testing.T) {
	var out bytes.Buffer
	l := &hostLogger{w: &out}
	n, err := LogWriter{L: l}.Write([]byte("a=1\nb=2\n"))
	if err != nil || n != 8 {
		t.Fatalf("Write() = %d, %v, want 8, nil", n, err)
	}
	if got := out.String(); got != "a=1\nb=2\n" {
		t.Fatalf("log output = %q", got)
	}
}

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	var log strings.Builder
	steps := 0
	var fbw int
	err := RunHeadless(context.Background(), func(h HAL) func() error {
		fbw = h.Display().Framebuffer().Width()
		h.Logger().WriteLineString("started")
		return func() error {
			steps++
			return nil
		}
	}, HeadlessConfig{Width: 16, Height: 8, Hz: 1000, Ticks: 5, Log: &log})
	if err != nil {
		t.Fatalf("RunHeadless() error = %v", err)
	}
	if steps != 5 {
		t.Fatalf("steps = %d, want 5", steps)
	}
	if fbw != 16 {
		t.Fatalf("framebuffer width = %d, want 16", fbw)
	}
	if log.String() != "started\n" {
		t.Fatalf("log = %q", log.String())
	}
}

func TestRunHeadlessStopAndError(t *testing.T) {
	err := RunHeadless(context.Background(), func(HAL) func() error {
		return func() error { return ErrStop }
	}, HeadlessConfig{Width: 1, Height: 1, Hz: 1000, Log: &strings.Builder{}})
	if err != nil {
		t.Fatalf("RunHeadless(ErrStop) error = %v, want nil", err)
	}

	boom := errors.New("boom")
	err = RunHeadless(context.Background(), func(HAL) func() error {
		return func() error { return boom }
	}, HeadlessConfig{Width: 1, Height: 1, Hz: 1000, Log: &strings.Builder{}})
	if !errors.Is(err, boom) {
		t.Fatalf("RunHeadless() error = %v, want boom", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = RunHeadless(ctx, func(HAL) func() error { return nil }, HeadlessConfig{Width: 1, Height: 1, Log: &strings.Builder{}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunHeadless(canceled) error = %v, want context.Canceled", err)
	}
}

func TestTimeTicks(t *testing.T) {
	now := time.Unix(100, 0)
	ht := newHostTime()
	ht.now = func() time.Time { return now }

	ht.sample()
	if v := <-ht.Ticks(); v != 1 {
		t.Fatalf("first tick = %d, want 1", v)
	}

	ht.sample()
	select {
	case v := <-ht.Ticks():
		t.Fatalf("tick %d without elapsed time", v)
	default:
	}

	now = now.Add(5 * time.Millisecond)
	ht.sample()
	now = now.Add(20 * time.Millisecond)
	ht.sample()
	if v := <-ht.Ticks(); v != 26 {
		t.Fatalf("tick = %d, want 26 (newest reading only)", v)
	}
}
