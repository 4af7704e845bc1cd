package crosshairs

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/engine/geometry"
	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/pkg/math"
)

// ringDistance is how far along the gaze the ring is drawn.
const ringDistance = 200

var ringColor = [3]float32{1, 1, 0}

// ring is the fallback dwell indicator: an arc that thickens and closes as
// the dwell progresses.
type ring struct {
	node    *scene.Node
	percent float64
	built   bool
}

// RingMesh returns the ring for dwell progress p.
func RingMesh(p float64) *geometry.Mesh {
	f := float32(p)
	return geometry.Ring(8*(1-f), 10*(1+f), 20, 10, math32.Pi, math32.Pi*(1+f))
}

func (r *ring) update(c *Crosshairs, percent float64, gaze math.Vec3) {
	if r.node == nil {
		mat := scene.BasicMaterial(ringColor, nil)
		mat.Side = scene.DoubleSide
		r.node = scene.NewNode("crosshairs:ring", nil, mat)
		if c.scene != nil {
			c.scene.Add(r.node)
		}
	}

	// rebuild the mesh only when the progress changes
	if !r.built || percent != r.percent {
		r.node.Mesh = RingMesh(percent)
		r.percent = percent
		r.built = true
	}

	r.node.Position = gaze.Scale(ringDistance)
	r.node.Rotation = math.QuatBetween(math.UnitZ, gaze)

	if c.debug && c.counter%debugEvery == 0 {
		p := r.node.Position
		c.log.Debug("ring placement",
			zap.Float32s("position", []float32{p.X, p.Y, p.Z}),
			zap.Float64("percent", percent))
	}
}
