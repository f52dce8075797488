package framedump

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func testFrame() []byte {
	// 2x1: red, blue
	return []byte{255, 0, 0, 0, 0, 255}
}

func checkDecoded(t *testing.T, img image.Image) {
	t.Helper()
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 1 {
		t.Fatalf("bounds = %v, want 2x1", b)
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 || a>>8 != 255 {
		t.Fatalf("pixel(0,0) = %d,%d,%d,%d, want red", r>>8, g>>8, b>>8, a>>8)
	}
	r, g, b, _ = img.At(1, 0).RGBA()
	if r != 0 || g != 0 || b>>8 != 255 {
		t.Fatalf("pixel(1,0) = %d,%d,%d, want blue", r>>8, g>>8, b>>8)
	}
}

func TestWriteFilePNGAndBMP(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "f.png")
	if err := WriteFile(pngPath, testFrame(), 2, 1); err != nil {
		t.Fatalf("WriteFile(png) error = %v", err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	checkDecoded(t, img)

	bmpPath := filepath.Join(dir, "f.BMP")
	if err := WriteFile(bmpPath, testFrame(), 2, 1); err != nil {
		t.Fatalf("WriteFile(bmp) error = %v", err)
	}
	f, err = os.Open(bmpPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	img, err = bmp.Decode(f)
	f.Close()
	if err != nil {
		t.Fatalf("bmp.Decode() error = %v", err)
	}
	checkDecoded(t, img)
}

func TestWriteFileErrors(t *testing.T) {
	dir := t.TempDir()
	if err := WriteFile(filepath.Join(dir, "f.gif"), testFrame(), 2, 1); !errors.Is(err, ErrFormat) {
		t.Fatalf("WriteFile(gif) error = %v, want ErrFormat", err)
	}
	if err := WriteFile(filepath.Join(dir, "f.png"), testFrame(), 3, 1); err == nil {
		t.Fatal("WriteFile(bad size) error = nil, want error")
	}
}

func TestNumbered(t *testing.T) {
	if got := Numbered("out/frame.png", 7); got != "out/frame-000007.png" {
		t.Fatalf("Numbered() = %q", got)
	}
}
