// Package camera provides the head-tracked perspective camera and the
// controls that orient it.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/pkg/math"
)

// maxPitch keeps the view just short of the poles.
const maxPitch = math32.Pi/2 - 0.01

// HeadCamera sits at the origin of the panorama and turns with the viewer's
// head. It looks down -Z when Orientation is the identity.
type HeadCamera struct {
	FOV    float32 // vertical, degrees
	Aspect float32
	Near   float32
	Far    float32

	Position    math.Vec3
	Orientation math.Quat

	// Layers selects which scene layers this camera renders.
	Layers scene.Layers
}

// NewHeadCamera creates a camera that sees the default layer.
func NewHeadCamera(fov, aspect, near, far float32) *HeadCamera {
	return &HeadCamera{
		FOV:         fov,
		Aspect:      aspect,
		Near:        near,
		Far:         far,
		Orientation: math.QuatIdentity(),
		Layers:      scene.LayerMask(scene.LayerDefault),
	}
}

// SetAspect updates the aspect ratio after a resize.
func (c *HeadCamera) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// Direction returns the unit gaze direction.
func (c *HeadCamera) Direction() math.Vec3 {
	return c.Orientation.Rotate(math.Forward).Normalize()
}

// Up returns the camera's up vector.
func (c *HeadCamera) Up() math.Vec3 {
	return c.Orientation.Rotate(math.Up).Normalize()
}

// Right returns the camera's right vector.
func (c *HeadCamera) Right() math.Vec3 {
	return c.Orientation.Rotate(math.UnitX).Normalize()
}

// Yaw returns the heading of the gaze around the vertical axis in radians.
// Zero looks down -Z; positive turns left.
func (c *HeadCamera) Yaw() float32 {
	return YawPitch(c.Direction()).Yaw
}

// LookAlong points the camera along dir with no roll.
func (c *HeadCamera) LookAlong(dir math.Vec3) {
	a := YawPitch(dir)
	c.Orientation = math.QuatFromEulerYXZ(a.Pitch, a.Yaw, 0)
}

// ViewMatrix returns the world-to-camera transform.
func (c *HeadCamera) ViewMatrix() math.Mat4 {
	return c.EyeViewMatrix(0)
}

// EyeViewMatrix returns the view matrix of an eye shifted by offset along
// the camera's right vector. Stereo rendering uses -ipd/2 and +ipd/2.
func (c *HeadCamera) EyeViewMatrix(offset float32) math.Mat4 {
	eye := c.Position.Add(c.Right().Scale(offset))
	return math.LookAt(eye, eye.Add(c.Direction()), c.Up())
}

// ProjectionMatrix returns the perspective projection.
func (c *HeadCamera) ProjectionMatrix() math.Mat4 {
	return math.Perspective(math.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *HeadCamera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// Angles is a heading in radians.
type Angles struct {
	Yaw, Pitch float32
}

// YawPitch decomposes a direction into heading and elevation.
func YawPitch(dir math.Vec3) Angles {
	dir = dir.Normalize()
	if dir.IsZero() {
		return Angles{}
	}
	return Angles{
		Yaw:   math32.Atan2(-dir.X, -dir.Z),
		Pitch: math32.Asin(math.Clamp(dir.Y, -1, 1)),
	}
}
