// Package framedump writes RGB24 framebuffers to image files.
package framedump

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

var ErrFormat = errors.New("framedump: unknown image format")

// Image wraps an RGB24 buffer as an opaque RGBA image.
func Image(pix []byte, width, height int) (*image.RGBA, error) {
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("framedump: %d bytes for %dx%d frame", len(pix), width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		img.Pix[j] = pix[i]
		img.Pix[j+1] = pix[i+1]
		img.Pix[j+2] = pix[i+2]
		img.Pix[j+3] = 0xFF
	}
	return img, nil
}

// Encode writes the frame to w as "png" or "bmp".
func Encode(w io.Writer, format string, pix []byte, width, height int) error {
	img, err := Image(pix, width, height)
	if err != nil {
		return err
	}
	switch format {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return "png", nil
	case ".bmp":
		return "bmp", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, ext)
	}
}

// WriteFile encodes the frame into path, choosing the format by extension.
func WriteFile(path string, pix []byte, width, height int) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("framedump: %w", err)
	}
	if err := Encode(f, format, pix, width, height); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Numbered returns path with n inserted before the extension:
// "out/frame.png", 7 -> "out/frame-000007.png".
func Numbered(path string, n uint64) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%06d%s", strings.TrimSuffix(path, ext), n, ext)
}
