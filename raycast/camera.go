package raycast

import (
	"encoding/binary"
	"math"
)

// CameraSize is the encoded size of a Camera.
const CameraSize = 32

const (
	DefaultFOV  = 90
	DefaultDist = 100
)

// Camera is the viewpoint of one frame.
//
// Wire format (little-endian):
//
//	0  f32 x
//	4  f32 y
//	8  f32 z
//	12 f32 yaw (rad)
//	16 f32 pitch (rad)
//	20 f32 roll (rad)
//	24 f32 field of view (degrees)
//	28 u16 max view distance (steps)
//	30 u8  bound glyph, 0 = none
//	31 u8  reserved
type Camera struct {
	X, Y, Z          float32
	Yaw, Pitch, Roll float32
	FOV              float32
	Dist             uint16
	Glyph            byte
}

// NewCamera returns a camera at the origin with the default field of view and
// view distance.
func NewCamera() Camera {
	return Camera{FOV: DefaultFOV, Dist: DefaultDist}
}

// Encode writes c into b, which must hold at least CameraSize bytes.
func (c Camera) Encode(b []byte) {
	_ = b[CameraSize-1]
	le := binary.LittleEndian
	le.PutUint32(b[0:], math.Float32bits(c.X))
	le.PutUint32(b[4:], math.Float32bits(c.Y))
	le.PutUint32(b[8:], math.Float32bits(c.Z))
	le.PutUint32(b[12:], math.Float32bits(c.Yaw))
	le.PutUint32(b[16:], math.Float32bits(c.Pitch))
	le.PutUint32(b[20:], math.Float32bits(c.Roll))
	le.PutUint32(b[24:], math.Float32bits(c.FOV))
	le.PutUint16(b[28:], c.Dist)
	b[30] = c.Glyph
	b[31] = 0
}

// AppendCamera appends the encoded camera to b.
func AppendCamera(b []byte, c Camera) []byte {
	var rec [CameraSize]byte
	c.Encode(rec[:])
	return append(b, rec[:]...)
}

func DecodeCamera(b []byte) (c Camera, ok bool) {
	if len(b) < CameraSize {
		return Camera{}, false
	}
	le := binary.LittleEndian
	c.X = math.Float32frombits(le.Uint32(b[0:]))
	c.Y = math.Float32frombits(le.Uint32(b[4:]))
	c.Z = math.Float32frombits(le.Uint32(b[8:]))
	c.Yaw = math.Float32frombits(le.Uint32(b[12:]))
	c.Pitch = math.Float32frombits(le.Uint32(b[16:]))
	c.Roll = math.Float32frombits(le.Uint32(b[20:]))
	c.FOV = math.Float32frombits(le.Uint32(b[24:]))
	c.Dist = le.Uint16(b[28:])
	c.Glyph = b[30]
	return c, true
}
