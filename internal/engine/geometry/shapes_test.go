package geometry

import (
	"math"
	"testing"

	vmath "github.com/Faultbox/veri/pkg/math"
)

func TestSphere(t *testing.T) {
	tests := []struct {
		name      string
		radius    float32
		w, h      int
		wantVerts int
		wantTris  int
	}{
		{"mono", 500, 80, 50, 81 * 51, 2 * 80 * 49},
		{"stereo", 500, 60, 40, 61 * 41, 2 * 60 * 39},
		{"clamped", 1, 1, 1, 4 * 3, 2 * 3 * 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Sphere(tt.radius, tt.w, tt.h)
			if m.VertexCount() != tt.wantVerts {
				t.Errorf("vertices = %d, want %d", m.VertexCount(), tt.wantVerts)
			}
			if m.TriangleCount() != tt.wantTris {
				t.Errorf("triangles = %d, want %d", m.TriangleCount(), tt.wantTris)
			}
			for i := 0; i < m.VertexCount(); i++ {
				r := m.Vertex(uint32(i)).Length()
				if math.Abs(float64(r-tt.radius)) > float64(tt.radius)*1e-4 {
					t.Fatalf("vertex %d at radius %v", i, r)
				}
				u, v := m.UV(i)
				if u < -0.2 || u > 1.2 || v < 0 || v > 1 {
					t.Fatalf("vertex %d uv (%v,%v) out of range", i, u, v)
				}
			}
		})
	}
}

func TestSphereUVOrientation(t *testing.T) {
	m := Sphere(1, 4, 2)
	// first row is the north pole with v = 1
	if _, v := m.UV(0); v != 1 {
		t.Errorf("north pole v = %v, want 1", v)
	}
	// equator, u = 0 sits on -X
	eq := 5 // row 1, column 0
	p := m.Vertex(uint32(eq))
	if math.Abs(float64(p.X+1)) > 1e-6 {
		t.Errorf("u=0 equator vertex = %v, want -X", p)
	}
}

func TestPlane(t *testing.T) {
	m := Plane(4, 2, 1, 1)
	if m.VertexCount() != 4 || m.TriangleCount() != 2 {
		t.Fatalf("plane has %d verts %d tris", m.VertexCount(), m.TriangleCount())
	}
	// top-left corner first, with uv (0,1)
	if p := m.Vertex(0); p != (vmath.Vec3{X: -2, Y: 1}) {
		t.Errorf("first vertex = %v", p)
	}
	if u, v := m.UV(0); u != 0 || v != 1 {
		t.Errorf("first uv = (%v,%v)", u, v)
	}
	min, max := m.Bounds()
	if min != (vmath.Vec3{X: -2, Y: -1}) || max != (vmath.Vec3{X: 2, Y: 1}) {
		t.Errorf("bounds = %v %v", min, max)
	}
	// counter-clockwise when seen from +Z
	a, b, c := m.Triangle(0)
	if n := b.Sub(a).Cross(c.Sub(a)); n.Z <= 0 {
		t.Errorf("first triangle faces %v, want +Z", n)
	}
}

func TestRing(t *testing.T) {
	inner, outer := float32(8), float32(10)
	m := Ring(inner, outer, 20, 10, math.Pi, math.Pi)
	if m.VertexCount() != 21*11 {
		t.Errorf("vertices = %d", m.VertexCount())
	}
	if m.TriangleCount() != 2*20*10 {
		t.Errorf("triangles = %d", m.TriangleCount())
	}
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Vertex(uint32(i))
		r := p.Length()
		if r < inner-1e-4 || r > outer+1e-4 {
			t.Fatalf("vertex %d radius %v outside [%v,%v]", i, r, inner, outer)
		}
		// half ring from pi to 2pi lies at y <= 0
		if p.Y > 1e-4 {
			t.Fatalf("vertex %d above the axis: %v", i, p)
		}
	}
}

func TestScaleMirror(t *testing.T) {
	m := Plane(2, 2, 1, 1)
	before := m.Version
	a0, b0, c0 := m.Triangle(0)
	n0 := b0.Sub(a0).Cross(c0.Sub(a0))
	x0 := m.Vertex(0).X

	m.Scale(vmath.Vec3{X: -1, Y: 1, Z: 1})

	if m.Version == before {
		t.Error("Scale did not bump version")
	}
	a, b, c := m.Triangle(0)
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Z*n0.Z <= 0 {
		t.Errorf("mirrored triangle normal %v should keep facing %v", n, n0)
	}
	if x0 != -1 || m.Vertex(0).X != 1 {
		t.Errorf("vertex 0 not mirrored: %v", m.Vertex(0))
	}
	if m.Normals[2] != 1 {
		t.Errorf("plane normal z changed: %v", m.Normals[:3])
	}
}

func TestClone(t *testing.T) {
	m := Plane(1, 1, 1, 1)
	c := m.Clone()
	c.UVs[0] = 0.5
	if m.UVs[0] == 0.5 {
		t.Error("Clone shares UV storage")
	}
}

func TestFromTriangles(t *testing.T) {
	m := FromTriangles(
		[]float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0, 0, 1, 0, 1, 0, 0},
		make([]float32, 18),
		make([]float32, 12),
	)
	if m.VertexCount() != 6 || m.TriangleCount() != 2 {
		t.Fatalf("got %d vertices, %d triangles", m.VertexCount(), m.TriangleCount())
	}
	for i, idx := range m.Indices {
		if idx != uint32(i) {
			t.Errorf("index %d = %d", i, idx)
		}
	}
	if m.Version == 0 {
		t.Error("new mesh has version 0")
	}
}
