// Package scene holds the viewer's scene graph: nodes with meshes and
// materials, render layers and lights. It is plain data; the renderer walks
// it each frame.
package scene

import (
	"image"

	"github.com/Faultbox/veri/internal/engine/geometry"
	"github.com/Faultbox/veri/internal/engine/lighting"
	"github.com/Faultbox/veri/pkg/math"
)

// Layers is a bitmask of render layers. A node is drawn by a camera when
// their masks intersect.
type Layers uint32

// Layer numbers used by the viewer.
const (
	LayerDefault  = 0
	LayerLeftEye  = 1
	LayerRightEye = 2
)

// LayerMask returns a mask with only layer n set.
func LayerMask(n int) Layers { return Layers(1) << uint(n) }

// Set restricts the mask to layer n.
func (l *Layers) Set(n int) { *l = LayerMask(n) }

// Enable adds layer n.
func (l *Layers) Enable(n int) { *l |= LayerMask(n) }

// Disable removes layer n.
func (l *Layers) Disable(n int) { *l &^= LayerMask(n) }

// Test reports whether the masks share a layer.
func (l Layers) Test(other Layers) bool { return l&other != 0 }

// Side selects which triangle faces are drawn.
type Side int

const (
	FrontSide Side = iota
	BackSide
	DoubleSide
)

// Texture is an image with a version that bumps when the pixels change.
type Texture struct {
	Image   image.Image
	Version uint64
	// Repeat enables wrap-around sampling, needed by sprite sheets.
	Repeat bool
	// Mipmaps is false for the video texture.
	Mipmaps bool
}

// NewTexture wraps img.
func NewTexture(img image.Image) *Texture {
	return &Texture{Image: img, Version: 1}
}

// SetImage replaces the pixels.
func (t *Texture) SetImage(img image.Image) {
	t.Image = img
	t.Version++
}

// NeedsUpdate flags the texture for re-upload without changing the image.
func (t *Texture) NeedsUpdate() {
	t.Version++
}

// Size returns the image dimensions.
func (t *Texture) Size() (w, h int) {
	if t == nil || t.Image == nil {
		return 0, 0
	}
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Material describes how a mesh is shaded.
type Material struct {
	Color   [3]float32
	Opacity float32
	Texture *Texture
	// UVRepeat and UVOffset transform texture coordinates:
	// uv' = uv*repeat + offset.
	UVRepeat    [2]float32
	UVOffset    [2]float32
	Transparent bool
	Side        Side

	// Lit enables Phong shading against the scene lights.
	Lit       bool
	Specular  [3]float32
	Shininess float32
}

// BasicMaterial returns an unlit material.
func BasicMaterial(color [3]float32, tex *Texture) *Material {
	return &Material{
		Color:    color,
		Opacity:  1,
		Texture:  tex,
		UVRepeat: [2]float32{1, 1},
	}
}

// PhongMaterial returns a lit material.
func PhongMaterial(color, specular [3]float32, shininess float32) *Material {
	return &Material{
		Color:     color,
		Opacity:   1,
		UVRepeat:  [2]float32{1, 1},
		Lit:       true,
		Specular:  specular,
		Shininess: shininess,
	}
}

// Node is an object in the scene graph.
type Node struct {
	Name     string
	Mesh     *geometry.Mesh
	Material *Material

	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3

	Layers  Layers
	Visible bool

	parent   *Node
	children []*Node
}

// NewNode creates a visible node on the default layer.
func NewNode(name string, mesh *geometry.Mesh, mat *Material) *Node {
	return &Node{
		Name:     name,
		Mesh:     mesh,
		Material: mat,
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
		Layers:   LayerMask(LayerDefault),
		Visible:  true,
	}
}

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child. It reports whether child was attached to n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Children returns the direct children.
func (n *Node) Children() []*Node { return n.children }

// Parent returns the parent node, or nil for roots.
func (n *Node) Parent() *Node { return n.parent }

// LocalMatrix returns translate * rotate * scale.
func (n *Node) LocalMatrix() math.Mat4 {
	return math.Compose(n.Position, n.Rotation, n.Scale)
}

// WorldMatrix composes the local matrices up to the root.
func (n *Node) WorldMatrix() math.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// LookAt turns the node so its +Z axis points at target. Planes built by
// geometry.Plane then face the target.
func (n *Node) LookAt(target math.Vec3) {
	n.Rotation = math.QuatLookRotation(target.Sub(n.Position), math.Up)
}

// Traverse calls fn for n and its descendants, depth first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// View is one camera pass: the matrices, the eye position and the layers
// the camera sees.
type View struct {
	View       math.Mat4
	Projection math.Mat4
	CameraPos  math.Vec3
	Layers     Layers
}

// Scene is the root collection of nodes and lights.
type Scene struct {
	nodes  []*Node
	Lights []lighting.PointLight
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add appends a root node. Adding a node twice is a no-op.
func (s *Scene) Add(n *Node) {
	for _, existing := range s.nodes {
		if existing == n {
			return
		}
	}
	s.nodes = append(s.nodes, n)
}

// Remove drops a root node. It reports whether the node was present.
func (s *Scene) Remove(n *Node) bool {
	for i, existing := range s.nodes {
		if existing == n {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether n is a root node of the scene.
func (s *Scene) Contains(n *Node) bool {
	for _, existing := range s.nodes {
		if existing == n {
			return true
		}
	}
	return false
}

// Nodes returns the root nodes in insertion order.
func (s *Scene) Nodes() []*Node { return s.nodes }

// AddLight adds a point light.
func (s *Scene) AddLight(l lighting.PointLight) {
	s.Lights = append(s.Lights, l)
}

// Traverse visits every node in insertion order, depth first.
func (s *Scene) Traverse(fn func(*Node)) {
	for _, n := range s.nodes {
		n.Traverse(fn)
	}
}
