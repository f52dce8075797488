package raycast

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestCameraEncodeLayout(t *testing.T) {
	c := Camera{X: 1.5, Y: -2, Z: 3, Yaw: 0.25, Pitch: -0.5, Roll: 0, FOV: 90, Dist: 300, Glyph: 'P'}
	b := AppendCamera(nil, c)
	if len(b) != CameraSize {
		t.Fatalf("len(AppendCamera()) = %d, want %d", len(b), CameraSize)
	}
	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }
	if f32(0) != 1.5 || f32(4) != -2 || f32(8) != 3 {
		t.Fatalf("position = (%v,%v,%v), want (1.5,-2,3)", f32(0), f32(4), f32(8))
	}
	if f32(12) != 0.25 || f32(16) != -0.5 || f32(24) != 90 {
		t.Fatalf("yaw/pitch/fov = %v/%v/%v", f32(12), f32(16), f32(24))
	}
	if got := binary.LittleEndian.Uint16(b[28:]); got != 300 {
		t.Fatalf("dist = %d, want 300", got)
	}
	if b[30] != 'P' || b[31] != 0 {
		t.Fatalf("glyph/reserved = %d/%d, want %d/0", b[30], b[31], 'P')
	}

	got, ok := DecodeCamera(b)
	if !ok || got != c {
		t.Fatalf("DecodeCamera() = %+v, %v, want %+v, true", got, ok, c)
	}
	if _, ok := DecodeCamera(b[:CameraSize-1]); ok {
		t.Fatal("DecodeCamera(short) ok = true, want false")
	}
}

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()
	if c.FOV != 90 || c.Dist != 100 || c.Glyph != 0 {
		t.Fatalf("NewCamera() = %+v, want fov 90 dist 100", c)
	}
}

func TestDecoderSize(t *testing.T) {
	dec := NewDecoder(4, 3)
	in := make([]byte, InputSize(4, 3))
	if err := EncodeInput(in, NewCamera(), []byte("#..#|..|-++-")); err != nil {
		t.Fatalf("EncodeInput() error = %v", err)
	}
	cam, g, err := dec(in)
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if cam.Dist != DefaultDist {
		t.Fatalf("decoded dist = %d, want %d", cam.Dist, DefaultDist)
	}
	if b, ok := g.At(3, 1); !ok || b != '|' {
		t.Fatalf("At(3,1) = %q, %v, want '|'", b, ok)
	}
	if _, ok := g.At(4, 0); ok {
		t.Fatal("At(4,0) ok = true, want false")
	}
	if _, _, err := dec(in[1:]); err == nil {
		t.Fatal("decode(short) error = nil, want error")
	}
	if err := EncodeInput(in, NewCamera(), []byte("x")); err == nil {
		t.Fatal("EncodeInput(wrong size) error = nil, want error")
	}
}

func TestClassifierIsTotal(t *testing.T) {
	c := DefaultClassifier()
	want := map[byte]CellKind{
		'#': Wall, '|': Boundary, '-': Boundary, '+': Boundary,
		'M': Sprite, 'G': Sprite, '0': Sprite, '.': Floor, ' ': Floor, 0: Floor,
	}
	for b, k := range want {
		if got := c.Classify(b); got != k {
			t.Fatalf("Classify(%q) = %v, want %v", b, got, k)
		}
	}
	for b := 0; b < 256; b++ {
		if k := c.Classify(byte(b)); k > Sprite {
			t.Fatalf("Classify(%d) = %v, not a known kind", b, k)
		}
	}
	if !c.Solid('#') || !c.Solid('+') || c.Solid('M') || c.Solid('.') {
		t.Fatal("Solid() disagrees with wall and boundary sets")
	}
}
