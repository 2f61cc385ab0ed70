package track

import "math"

// Vec3 is a point or direction in world space. X and Y span the ground
// plane, Z is up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3         { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3         { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3    { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64      { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64            { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Flat() Vec3              { return Vec3{v.X, v.Y, 0} }
func (v Vec3) Dist(o Vec3) float64     { return v.Sub(o).Len() }
func (v Vec3) FlatDist(o Vec3) float64 { return v.Sub(o).Flat().Len() }

// CrossZ is the Z component of v × o. Positive when o lies counter-clockwise
// (to the left) of v.
func (v Vec3) CrossZ(o Vec3) float64 { return v.X*o.Y - v.Y*o.X }

// Normalize returns the unit vector. Vectors shorter than 1e-9 return zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-9 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// Lerp interpolates between a and b.
func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Scale(t))
}

// Heading returns the unit ground-plane vector for a yaw angle (radians,
// counter-clockwise from +X).
func Heading(yaw float64) Vec3 {
	return Vec3{X: math.Cos(yaw), Y: math.Sin(yaw)}
}

// SignedAngle returns the angle in radians to rotate a onto b in the ground
// plane, positive counter-clockwise. Zero vectors yield 0.
func SignedAngle(a, b Vec3) float64 {
	a, b = a.Flat(), b.Flat()
	if a.Len() < 1e-9 || b.Len() < 1e-9 {
		return 0
	}
	return math.Atan2(a.CrossZ(b), a.Dot(b))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
