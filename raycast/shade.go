package raycast

import "math"

// Palette is the distance greyscale for walls and boundaries, nearest first.
var Palette = [...]uint8{225, 200, 190, 180, 125, 75, 50, 25, 10}

var (
	Ground = RGB{63, 166, 90}
	Sky    = RGB{79, 217, 245}
)

// Height scales per hit kind. Sprites use their registry scale.
const (
	BoundaryScale = 0.5
	WallScale     = 1.0
)

// Squash is the falloff x/(x+1).
func Squash(x float64) float64 { return x / (x + 1) }

// Grey returns the palette shade for a hit at distance d: the palette entry at
// int(ln d), clamped to the palette. d <= 1 is the nearest entry.
func Grey(d float64) RGB {
	i := 0
	if d > 1 {
		i = int(math.Log(d))
	}
	if i >= len(Palette) {
		i = len(Palette) - 1
	}
	v := Palette[i]
	return RGB{v, v, v}
}

// ApparentHeight is the angular-size approximation of a hit at distance d on a
// screen of screenH rows, in rows above and below the horizon.
func ApparentHeight(screenH int, scale, d float64) float64 {
	return math.Floor(float64(screenH) * scale / (2 * math.Pi * (d + 1)) * 360 / 2)
}

// Horizon returns the row of the horizon line for the given pitch. At zero
// pitch it is the middle row, rounded down on odd heights.
func Horizon(screenH int, pitch float64) float64 {
	return float64(screenH/2) - math.Sin(pitch)*float64(screenH)
}

// attenuate multiplies every channel by f, truncating.
func attenuate(c RGB, f float64) RGB {
	return RGB{uint8(float64(c.R) * f), uint8(float64(c.G) * f), uint8(float64(c.B) * f)}
}

// Shade returns the color of screen row for a column whose hit is h.
func Shade(row int, midY float64, h Hit) RGB {
	dv := float64(row) - midY
	adv := math.Abs(dv)
	if h.Kind != Floor && adv <= h.Height {
		return attenuate(h.Color, Squash(h.Dist))
	}
	if dv > 0 {
		return attenuate(Ground, Squash(adv))
	}
	return attenuate(Sky, Squash(adv))
}
