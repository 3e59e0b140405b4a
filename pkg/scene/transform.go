package scene

import "math"

// Vec2 is a 2D vector in canvas pixels.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Mul returns v scaled by s.
func (v Vec2) Mul(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Round rounds both components half away from zero.
func (v Vec2) Round() Vec2 { return Vec2{math.Round(v.X), math.Round(v.Y)} }

// Transform is a node's position and uniform magnification relative to its
// parent's coordinate space.
type Transform struct {
	Offset Vec2
	Scale  float64
}

// Identity returns the transform with zero offset and scale 1.
func Identity() Transform {
	return Transform{Scale: 1}
}

// Compose returns the absolute transform of a child whose local transform is
// local, given t as the parent's already-accumulated absolute transform.
// The local offset is scaled by the parent scale before it is added; scales
// multiply. No rounding happens here.
func (t Transform) Compose(local Transform) Transform {
	return Transform{
		Offset: t.Offset.Add(local.Offset.Mul(t.Scale)),
		Scale:  t.Scale * local.Scale,
	}
}

// Snap rounds the offset to whole pixels.
func (t *Transform) Snap() {
	t.Offset = t.Offset.Round()
}

// Reset restores the identity transform.
func (t *Transform) Reset() {
	*t = Identity()
}

// Nudge moves the offset by (dx, dy).
func (t *Transform) Nudge(dx, dy float64) {
	t.Offset = t.Offset.Add(Vec2{dx, dy})
}
