package viewer

import (
	"sort"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/assets"
	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/engine/camera"
	"github.com/Faultbox/veri/internal/engine/geometry"
	"github.com/Faultbox/veri/internal/engine/picking"
	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/pkg/formats"
	"github.com/Faultbox/veri/pkg/math"
)

// Object material and placement constants.
const (
	objectShininess = 70
	// followDistance is how far along the gaze camera-following objects sit.
	followDistance = 10
)

var objectSpecular = [3]float32{0x11 / 255.0, 0x11 / 255.0, 0x11 / 255.0}

// object is an interactive model from the objects block.
type object struct {
	name   string
	cfg    config.ObjectConfig
	handle *assets.Handle[*formats.OBJ]

	root   *scene.Node
	parts  []*scene.Node
	failed bool
}

// loadObjects starts loading every configured model, in name order.
func (v *Viewer) loadObjects() {
	names := make([]string, 0, len(v.cfg.Objects))
	for name := range v.cfg.Objects {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		oc := v.cfg.Objects[name]
		o := &object{
			name:   name,
			cfg:    oc,
			handle: assets.Load(v.assets, v.cfg.ResolvePath(oc.Resource), formats.ParseOBJ),
		}
		v.objects = append(v.objects, o)
	}
}

// pollObjects adds models whose load finished since the last frame.
func (v *Viewer) pollObjects() {
	for _, o := range v.objects {
		if o.root != nil || o.failed {
			continue
		}
		switch o.handle.State() {
		case assets.Ready:
			obj, _ := o.handle.Value()
			v.addObject(o, obj)
		case assets.Failed:
			o.failed = true
			v.log.Warn("object unavailable",
				zap.String("object", o.name),
				zap.Error(o.handle.Err()))
		}
	}
}

func (v *Viewer) addObject(o *object, obj *formats.OBJ) {
	mat := scene.PhongMaterial(o.cfg.Color.RGB(), objectSpecular, objectShininess)

	o.root = scene.NewNode(o.name, nil, nil)
	o.root.Position = o.cfg.Position
	for i := range obj.Objects {
		pos, norm, uvs := obj.Triangles(&obj.Objects[i])
		part := scene.NewNode(o.name+"/"+obj.Objects[i].Name, geometry.FromTriangles(pos, norm, uvs), mat)
		o.root.Add(part)
		o.parts = append(o.parts, part)
	}
	v.scene.Add(o.root)

	v.log.Info("object added",
		zap.String("object", o.name),
		zap.Int("parts", len(o.parts)),
		zap.Int("faces", obj.GetTotalFaceCount()))
}

// FollowPose returns where a camera-following object sits for a gaze: ten
// units along the gaze, shifted one unit sideways, turned to face the
// viewer and flapping around its X axis.
func FollowPose(oc config.ObjectConfig, gaze math.Vec3, elapsed time.Duration) (math.Vec3, math.Quat) {
	ahead := gaze.Scale(followDistance)
	tangent := ahead.Cross(math.Up).Normalize()

	var flap float32
	if oc.FlappingAmplitude != 0 {
		t := float32(elapsed.Seconds())
		flap = oc.FlappingAmplitude * math32.Sin(2*math32.Pi*oc.FlappingFrequency*t)
	}
	yaw := camera.YawPitch(gaze).Yaw
	return ahead.Add(tangent), math.QuatFromEulerYXZ(flap, oc.Phase-yaw, 0)
}

func (v *Viewer) updateFollowers(gaze math.Vec3, now time.Time) {
	elapsed := now.Sub(v.startTime)
	for _, o := range v.objects {
		if o.root == nil || !o.cfg.MovesWithCamera {
			continue
		}
		o.root.Position, o.root.Rotation = FollowPose(o.cfg, gaze, elapsed)
	}
}

// HandleClick casts a ray through the pointer at pixel (x, y) and calls cb
// with the name of the nearest object hit. Nothing is called on a miss or
// when no object has loaded yet.
func (v *Viewer) HandleClick(x, y int, cb func(id string)) {
	var roots []*scene.Node
	owner := make(map[*scene.Node]string)
	for _, o := range v.objects {
		if o.root == nil {
			continue
		}
		roots = append(roots, o.root)
		for _, p := range o.parts {
			owner[p] = o.name
		}
	}
	if len(roots) == 0 || v.width <= 0 || v.height <= 0 {
		return
	}

	nx, ny := picking.NDC(float32(x), float32(y), v.width, v.height)
	ray := picking.ScreenToRay(nx, ny, v.camera.ViewProjection().Inverse())
	hits := picking.Pick(ray, roots)
	if len(hits) == 0 {
		return
	}

	name, ok := owner[hits[0].Node]
	if !ok {
		return
	}
	v.log.Debug("object clicked",
		zap.String("object", name),
		zap.Float32("distance", hits[0].Distance))
	if cb != nil {
		cb(name)
	}
}

// Objects returns the names of the objects that finished loading.
func (v *Viewer) Objects() []string {
	var names []string
	for _, o := range v.objects {
		if o.root != nil {
			names = append(names, o.name)
		}
	}
	return names
}
