package world

import (
	"math"

	"rolla/raycast"
)

const (
	// DefaultVelocity is the distance covered per Move at full throttle.
	DefaultVelocity = 0.5
	// PitchLimit bounds |Pitch| (exclusive).
	PitchLimit = math.Pi / 4
)

// Throttle is the movement request for one step, each axis in [-1, 1].
// Forward moves along the view direction, Strafe to its right.
type Throttle struct {
	Strafe  float64
	Forward float64
}

func (t Throttle) Zero() bool { return t.Strafe == 0 && t.Forward == 0 }

// Viewpoint is the entity the camera is bound to.
type Viewpoint struct {
	X, Y, Z          float64
	Yaw, Pitch, Roll float64
	Glyph            byte

	FOV      float64
	Dist     uint16
	Velocity float64
}

func NewViewpoint(glyph byte) *Viewpoint {
	return &Viewpoint{
		Glyph:    glyph,
		FOV:      raycast.DefaultFOV,
		Dist:     raycast.DefaultDist,
		Velocity: DefaultVelocity,
	}
}

// Cell returns the grid cell the viewpoint stands in.
func (v *Viewpoint) Cell() (x, z int) {
	return int(math.Floor(v.X)), int(math.Floor(v.Z))
}

// Heading returns the unit (x, z) direction of the screen center.
func (v *Viewpoint) Heading() (dx, dz float64) {
	return math.Cos(v.Yaw), -math.Sin(v.Yaw)
}

// Move applies one throttle step. A step whose target cell is blocked is
// dropped whole and Move reports false.
func (v *Viewpoint) Move(m *Map, t Throttle) bool {
	if t.Zero() {
		return false
	}
	fx, fz := v.Heading()
	// Right of the heading.
	rx, rz := math.Cos(v.Yaw+math.Pi/2), -math.Sin(v.Yaw+math.Pi/2)

	nx := v.X + (fx*t.Forward+rx*t.Strafe)*v.Velocity
	nz := v.Z + (fz*t.Forward+rz*t.Strafe)*v.Velocity
	if m.Blocked(int(math.Floor(nx)), int(math.Floor(nz))) {
		return false
	}
	v.X, v.Z = nx, nz
	return true
}

// Turn adds to yaw and pitch. A pitch change that would reach PitchLimit is
// ignored; yaw is kept in [0, 2π).
func (v *Viewpoint) Turn(dYaw, dPitch float64) {
	v.Yaw = math.Mod(v.Yaw+dYaw, 2*math.Pi)
	if v.Yaw < 0 {
		v.Yaw += 2 * math.Pi
	}
	if p := v.Pitch + dPitch; math.Abs(p) < PitchLimit {
		v.Pitch = p
	}
}

// Camera returns the camera for the current frame.
func (v *Viewpoint) Camera() raycast.Camera {
	return raycast.Camera{
		X:     float32(v.X),
		Y:     float32(v.Y),
		Z:     float32(v.Z),
		Yaw:   float32(v.Yaw),
		Pitch: float32(v.Pitch),
		Roll:  float32(v.Roll),
		FOV:   float32(v.FOV),
		Dist:  v.Dist,
		Glyph: v.Glyph,
	}
}
