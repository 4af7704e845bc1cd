// Package math provides the float32 vector, quaternion and matrix types
// shared by the viewer, the crosshairs and the renderer.
package math

import "github.com/chewxy/math32"

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// Axis vectors used throughout the viewer. The camera looks down -Z with +Y up.
var (
	Up      = Vec3{0, 1, 0}
	Forward = Vec3{0, 0, -1}
	UnitX   = Vec3{1, 0, 0}
	UnitZ   = Vec3{0, 0, 1}
)

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Negate returns -v.
func (v Vec3) Negate() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit vector. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Distance returns the distance to another point.
func (v Vec3) Distance(other Vec3) float32 {
	return v.Sub(other).Length()
}

// AngleTo returns the unsigned angle between v and other in radians.
// atan2 keeps the result accurate near 0 and pi where acos loses precision.
// Either vector being zero yields pi/2.
func (v Vec3) AngleTo(other Vec3) float32 {
	if v.IsZero() || other.IsZero() {
		return math32.Pi / 2
	}
	return math32.Atan2(v.Cross(other).Length(), v.Dot(other))
}

// ProjectOnPlane removes the component of v along the plane normal.
func (v Vec3) ProjectOnPlane(normal Vec3) Vec3 {
	n := normal.Normalize()
	return v.Sub(n.Scale(v.Dot(n)))
}

// Array returns the components as an array, for GL uniforms.
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// DirectionFromAngles returns the unit vector reached by tilting +Y down onto
// the horizon by theta (radians) and then turning it by phi around the
// vertical axis. theta=0, phi=0 points along +Z; positive theta looks down.
func DirectionFromAngles(theta, phi float32) Vec3 {
	ct := math32.Cos(theta)
	return Vec3{
		X: ct * math32.Sin(phi),
		Y: -math32.Sin(theta),
		Z: ct * math32.Cos(phi),
	}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return deg * math32.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float32) float32 {
	return rad * 180 / math32.Pi
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
