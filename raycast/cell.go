package raycast

// CellKind is the class of one map cell.
type CellKind uint8

const (
	Floor CellKind = iota
	Wall
	Boundary
	Sprite
)

func (k CellKind) String() string {
	switch k {
	case Floor:
		return "floor"
	case Wall:
		return "wall"
	case Boundary:
		return "boundary"
	case Sprite:
		return "sprite"
	default:
		return "unknown"
	}
}

// Default glyph sets.
const (
	WallGlyphs     = "#"
	BoundaryGlyphs = "|-+"
)

// Classifier maps every byte to exactly one CellKind.
type Classifier struct {
	kinds [256]CellKind
}

// NewClassifier builds a classifier from glyph sets. Boundary wins over Wall,
// Wall over Sprite, for glyphs listed in more than one set.
func NewClassifier(walls, bounds string, sprites *Registry) *Classifier {
	c := &Classifier{}
	if sprites != nil {
		for _, g := range sprites.Glyphs() {
			c.kinds[g] = Sprite
		}
	}
	for i := 0; i < len(walls); i++ {
		c.kinds[walls[i]] = Wall
	}
	for i := 0; i < len(bounds); i++ {
		c.kinds[bounds[i]] = Boundary
	}
	return c
}

// DefaultClassifier uses the default glyph sets and the default registry.
func DefaultClassifier() *Classifier {
	return NewClassifier(WallGlyphs, BoundaryGlyphs, DefaultRegistry())
}

func (c *Classifier) Classify(b byte) CellKind { return c.kinds[b] }

// Solid reports whether b blocks movement.
func (c *Classifier) Solid(b byte) bool {
	k := c.kinds[b]
	return k == Wall || k == Boundary
}
