package renderer

import (
	"sort"

	"github.com/Faultbox/veri/internal/engine/geometry"
	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/pkg/math"
)

// drawItem is one node queued for drawing.
type drawItem struct {
	node  *scene.Node
	world math.Mat4
	// depth is the squared distance from the camera to the node origin.
	depth float32
}

// collect gathers the drawable nodes seen by a camera with the given layer
// mask. Opaque items keep scene order; transparent items are sorted back to
// front. Hidden nodes hide their subtree.
func collect(s *scene.Scene, layers scene.Layers, camPos math.Vec3) (opaque, transparent []drawItem) {
	var walk func(n *scene.Node, parent math.Mat4)
	walk = func(n *scene.Node, parent math.Mat4) {
		if !n.Visible {
			return
		}
		world := parent.Mul(n.LocalMatrix())
		if n.Mesh != nil && n.Material != nil && n.Layers.Test(layers) && n.Mesh.TriangleCount() > 0 {
			pos := world.TransformPoint(math.Vec3{})
			d := pos.Sub(camPos)
			item := drawItem{node: n, world: world, depth: d.Dot(d)}
			if n.Material.Transparent || n.Material.Opacity < 1 {
				transparent = append(transparent, item)
			} else {
				opaque = append(opaque, item)
			}
		}
		for _, c := range n.Children() {
			walk(c, world)
		}
	}
	for _, n := range s.Nodes() {
		walk(n, math.Identity())
	}

	sort.SliceStable(transparent, func(i, j int) bool {
		return transparent[i].depth > transparent[j].depth
	})
	return opaque, transparent
}

// vertexStride is position(3) + normal(3) + uv(2) floats.
const vertexStride = 8

// interleave packs a mesh into the vertex layout of the scene shader.
// Missing normals or UVs are filled with zeros.
func interleave(m *geometry.Mesh) []float32 {
	n := m.VertexCount()
	out := make([]float32, 0, n*vertexStride)
	for i := 0; i < n; i++ {
		out = append(out, m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2])
		if len(m.Normals) >= (i+1)*3 {
			out = append(out, m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2])
		} else {
			out = append(out, 0, 0, 0)
		}
		if len(m.UVs) >= (i+1)*2 {
			out = append(out, m.UVs[i*2], m.UVs[i*2+1])
		} else {
			out = append(out, 0, 0)
		}
	}
	return out
}
