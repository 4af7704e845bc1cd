package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/veri/pkg/math"
)

// Controls orient a camera once per frame.
type Controls interface {
	Update(cam *HeadCamera, dt float32)
}

// DragControls turn the view with mouse drags and the arrow keys. They are
// the desktop stand-in for device orientation.
type DragControls struct {
	Yaw   float32 // radians, positive turns left
	Pitch float32 // radians, positive looks up

	DragSensitivity float32 // radians per pixel
	KeyTurnRate     float32 // radians per second
	InvertY         bool

	turnX, turnY float32
}

// NewDragControls starts looking along dir.
func NewDragControls(dir math.Vec3, dragSensitivity, keyTurnRate float32) *DragControls {
	a := YawPitch(dir)
	return &DragControls{
		Yaw:             a.Yaw,
		Pitch:           a.Pitch,
		DragSensitivity: dragSensitivity,
		KeyTurnRate:     keyTurnRate,
	}
}

// HandleDrag turns by a mouse delta in pixels. Dragging right pulls the
// panorama with the cursor, turning the view left.
func (d *DragControls) HandleDrag(deltaX, deltaY float32) {
	if d.InvertY {
		deltaY = -deltaY
	}
	d.Yaw += deltaX * d.DragSensitivity
	d.Pitch += deltaY * d.DragSensitivity
	d.clamp()
}

// SetTurn sets the keyboard turn direction, each axis in [-1, 1].
// Positive x turns right, positive y looks up.
func (d *DragControls) SetTurn(x, y float32) {
	d.turnX = math.Clamp(x, -1, 1)
	d.turnY = math.Clamp(y, -1, 1)
}

func (d *DragControls) clamp() {
	d.Pitch = math.Clamp(d.Pitch, -maxPitch, maxPitch)
	// keep yaw in (-pi, pi]
	if d.Yaw > math32.Pi || d.Yaw <= -math32.Pi {
		d.Yaw = math32.Remainder(d.Yaw, 2*math32.Pi)
	}
}

func (d *DragControls) Update(cam *HeadCamera, dt float32) {
	d.Yaw -= d.turnX * d.KeyTurnRate * dt
	d.Pitch += d.turnY * d.KeyTurnRate * dt
	d.clamp()
	cam.Orientation = math.QuatFromEulerYXZ(d.Pitch, d.Yaw, 0)
}

// PoseSource reports the orientation of a tracked headset.
type PoseSource interface {
	Pose() (math.Quat, bool)
}

// PoseControls copy the headset orientation onto the camera. A frame
// without a pose keeps the previous orientation.
type PoseControls struct {
	Source PoseSource
	// Base is applied before the pose, so the initial look direction is
	// preserved.
	Base math.Quat
}

// NewPoseControls starts relative to the initial look direction.
func NewPoseControls(src PoseSource, dir math.Vec3) *PoseControls {
	a := YawPitch(dir)
	return &PoseControls{
		Source: src,
		Base:   math.QuatFromEulerYXZ(0, a.Yaw, 0),
	}
}

func (p *PoseControls) Update(cam *HeadCamera, _ float32) {
	q, ok := p.Source.Pose()
	if !ok {
		return
	}
	cam.Orientation = p.Base.Mul(q).Normalize()
}
