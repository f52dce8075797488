package raycast

import "sort"

// RGB is a 24-bit color.
type RGB struct{ R, G, B uint8 }

// SpriteInfo is how a sprite glyph is drawn.
type SpriteInfo struct {
	Color RGB
	Scale float64
}

// Registry maps sprite glyphs to their appearance. It is read concurrently by
// workers and must not change after the pool is entered.
type Registry struct {
	m map[byte]SpriteInfo
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[byte]SpriteInfo)}
}

// Add registers glyph g. A non-positive scale means 1.
func (r *Registry) Add(g byte, color RGB, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	r.m[g] = SpriteInfo{Color: color, Scale: scale}
}

func (r *Registry) Lookup(g byte) (SpriteInfo, bool) {
	s, ok := r.m[g]
	return s, ok
}

// Glyphs returns the registered glyphs in ascending order.
func (r *Registry) Glyphs() []byte {
	out := make([]byte, 0, len(r.m))
	for g := range r.m {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	Teal      = RGB{0, 128, 128}
	Blue      = RGB{0, 0, 255}
	Red       = RGB{255, 0, 0}
	Yellow    = RGB{255, 255, 0}
	Brown     = RGB{150, 75, 0}
	Orange    = RGB{255, 165, 0}
	CashGreen = RGB{133, 187, 101}
	MSTGreen  = RGB{0, 133, 63}
)

// DefaultRegistry returns the stock cast.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Add('M', Teal, 1)
	r.Add('P', Blue, 1)
	r.Add('C', Red, 1)
	r.Add('S', Yellow, 1)
	r.Add('0', Brown, 1)
	r.Add('1', Orange, 1)
	r.Add('V', CashGreen, 1)
	r.Add('G', MSTGreen, 1)
	return r
}
