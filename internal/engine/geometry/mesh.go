// Package geometry generates the indexed triangle meshes used by the viewer:
// the panoramic sphere, sprite planes and the dwell ring. Vertex order and
// texture coordinates follow the usual WebGL scene-graph conventions so
// sprite sheets and equirectangular frames map the same way.
package geometry

import (
	"github.com/Faultbox/veri/pkg/math"
)

// Mesh is an indexed triangle list with per-vertex attributes.
type Mesh struct {
	Positions []float32 // xyz per vertex
	Normals   []float32 // xyz per vertex
	UVs       []float32 // uv per vertex
	Indices   []uint32

	// Version changes whenever attributes are edited so renderers know to
	// re-upload.
	Version uint64
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Touch marks the mesh as modified.
func (m *Mesh) Touch() {
	m.Version++
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i uint32) math.Vec3 {
	return math.Vec3{X: m.Positions[i*3], Y: m.Positions[i*3+1], Z: m.Positions[i*3+2]}
}

// UV returns the texture coordinate of vertex i.
func (m *Mesh) UV(i int) (u, v float32) {
	return m.UVs[i*2], m.UVs[i*2+1]
}

// Triangle returns the corners of triangle t.
func (m *Mesh) Triangle(t int) (a, b, c math.Vec3) {
	return m.Vertex(m.Indices[t*3]), m.Vertex(m.Indices[t*3+1]), m.Vertex(m.Indices[t*3+2])
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() (min, max math.Vec3) {
	if m.VertexCount() == 0 {
		return
	}
	min = m.Vertex(0)
	max = min
	for i := 1; i < m.VertexCount(); i++ {
		v := m.Vertex(uint32(i))
		min = math.Vec3{X: minf(min.X, v.X), Y: minf(min.Y, v.Y), Z: minf(min.Z, v.Z)}
		max = math.Vec3{X: maxf(max.X, v.X), Y: maxf(max.Y, v.Y), Z: maxf(max.Z, v.Z)}
	}
	return
}

// Scale multiplies every position by s. A negative factor mirrors the mesh;
// normals follow the mirror and the winding is reversed so the front faces
// stay consistent.
func (m *Mesh) Scale(s math.Vec3) {
	for i := 0; i < len(m.Positions); i += 3 {
		m.Positions[i] *= s.X
		m.Positions[i+1] *= s.Y
		m.Positions[i+2] *= s.Z
	}
	for i := 0; i < len(m.Normals); i += 3 {
		n := math.Vec3{X: m.Normals[i] * sign(s.X), Y: m.Normals[i+1] * sign(s.Y), Z: m.Normals[i+2] * sign(s.Z)}
		m.Normals[i], m.Normals[i+1], m.Normals[i+2] = n.X, n.Y, n.Z
	}
	if s.X*s.Y*s.Z < 0 {
		for i := 0; i+2 < len(m.Indices); i += 3 {
			m.Indices[i+1], m.Indices[i+2] = m.Indices[i+2], m.Indices[i+1]
		}
	}
	m.Touch()
}

// FromTriangles builds a mesh from flat, unindexed triangle lists such as
// the ones model loaders produce.
func FromTriangles(positions, normals, uvs []float32) *Mesh {
	m := &Mesh{
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
		Version:   1,
	}
	n := uint32(len(positions) / 3)
	m.Indices = make([]uint32, n)
	for i := range m.Indices {
		m.Indices[i] = uint32(i)
	}
	return m
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Positions: append([]float32(nil), m.Positions...),
		Normals:   append([]float32(nil), m.Normals...),
		UVs:       append([]float32(nil), m.UVs...),
		Indices:   append([]uint32(nil), m.Indices...),
		Version:   m.Version,
	}
}

func (m *Mesh) push(p, n math.Vec3, u, v float32) {
	m.Positions = append(m.Positions, p.X, p.Y, p.Z)
	m.Normals = append(m.Normals, n.X, n.Y, n.Z)
	m.UVs = append(m.UVs, u, v)
}

func (m *Mesh) face(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

func sign(f float32) float32 {
	if f < 0 {
		return -1
	}
	return 1
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
