// Package panorama builds the sphere the panoramic video is projected onto.
// Mono sources use one sphere; stereoscopic sources use one sphere per eye
// with remapped texture coordinates, each on its own render layer.
package panorama

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/engine/geometry"
	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/pkg/math"
)

// Sphere segment counts.
const (
	monoWidthSegments    = 80
	monoHeightSegments   = 50
	stereoWidthSegments  = 60
	stereoHeightSegments = 40
)

// mirror flips the sphere on X so the texture reads correctly from inside.
var mirror = math.Vec3{X: -1, Y: 1, Z: 1}

// Sphere is the panoramic backdrop.
type Sphere struct {
	mode    string
	factors map[string]config.StereoUV
	texture *scene.Texture
	log     *zap.Logger

	mono        *scene.Node
	left, right *scene.Node
}

// Build creates the sphere for a stereoscopic mode ("" for mono) and adds
// it to s. The factor table is copied; nil uses the defaults.
func Build(s *scene.Scene, mode string, radius float32, factors map[string]config.StereoUV, tex *scene.Texture, log *zap.Logger) (*Sphere, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if factors == nil {
		factors = config.DefaultStereoFactors()
	}
	sp := &Sphere{
		mode:    mode,
		factors: CloneFactors(factors),
		texture: tex,
		log:     log.Named("panorama"),
	}

	if mode == config.StereoNone {
		m := geometry.Sphere(radius, monoWidthSegments, monoHeightSegments)
		m.Scale(mirror)
		sp.mono = sp.node("sphere", m)
		s.Add(sp.mono)
		sp.log.Debug("mono sphere built", zap.Float32("radius", radius))
		return sp, nil
	}

	f, ok := sp.factors[mode]
	if !ok {
		return nil, fmt.Errorf("%w: no uv factors for stereoscopic mode %q", config.ErrConfiguration, mode)
	}

	rm := geometry.Sphere(radius, stereoWidthSegments, stereoHeightSegments)
	rm.Scale(mirror)
	ApplyUV(rm, f.Right)
	sp.right = sp.node("sphere:right", rm)
	sp.right.Layers.Set(scene.LayerRightEye)

	lm := geometry.Sphere(radius, stereoWidthSegments, stereoHeightSegments)
	lm.Scale(mirror)
	ApplyUV(lm, f.Left)
	sp.left = sp.node("sphere:left", lm)
	sp.left.Layers.Set(scene.LayerLeftEye)

	s.Add(sp.right)
	s.Add(sp.left)
	sp.log.Debug("stereo spheres built",
		zap.String("mode", mode),
		zap.Float32("radius", radius))
	return sp, nil
}

func (sp *Sphere) node(name string, m *geometry.Mesh) *scene.Node {
	mat := scene.BasicMaterial([3]float32{1, 1, 1}, sp.texture)
	mat.Side = scene.DoubleSide
	return scene.NewNode(name, m, mat)
}

// Mode returns the stereoscopic mode the sphere was built for.
func (sp *Sphere) Mode() string { return sp.mode }

// Stereo reports whether the sphere has one mesh per eye.
func (sp *Sphere) Stereo() bool { return sp.mode != config.StereoNone }

// Nodes returns the sphere nodes: one for mono, left then right for stereo.
func (sp *Sphere) Nodes() []*scene.Node {
	if sp.Stereo() {
		return []*scene.Node{sp.left, sp.right}
	}
	return []*scene.Node{sp.mono}
}

// Factors returns a copy of the current factor table.
func (sp *Sphere) Factors() map[string]config.StereoUV {
	return CloneFactors(sp.factors)
}

// UpdateGeometry shifts one calibration parameter by delta for both eyes of
// every layout and re-maps the eye meshes.
func (sp *Sphere) UpdateGeometry(param string, delta float32) error {
	if sp.Stereo() {
		f := sp.factors[sp.mode]
		ResetUV(sp.right.Mesh, f.Right)
		ResetUV(sp.left.Mesh, f.Left)
	}

	err := Adjust(sp.factors, param, delta)

	if sp.Stereo() {
		f := sp.factors[sp.mode]
		ApplyUV(sp.right.Mesh, f.Right)
		ApplyUV(sp.left.Mesh, f.Left)
	}
	if err != nil {
		return err
	}

	sp.log.Info("uv factors updated",
		zap.String("param", param),
		zap.Float32("delta", delta),
		zap.Any("factors", sp.factors))
	return nil
}
