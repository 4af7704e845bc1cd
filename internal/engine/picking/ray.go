// Package picking turns screen clicks into rays and finds the scene objects
// they hit.
package picking

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/Faultbox/veri/internal/engine/geometry"
	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// NDC converts pixel coordinates to normalized device coordinates, with y
// pointing up.
func NDC(x, y float32, width, height int) (float32, float32) {
	return 2*x/float32(width) - 1, 1 - 2*y/float32(height)
}

// ScreenToRay converts normalized device coordinates to a world-space ray.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(ndcX, ndcY float32, invViewProj math.Mat4) Ray {
	nearWorld := unproject(invViewProj, math.Vec4{ndcX, ndcY, -1, 1})
	farWorld := unproject(invViewProj, math.Vec4{ndcX, ndcY, 1, 1})

	return Ray{
		Origin:    nearWorld,
		Direction: farWorld.Sub(nearWorld).Normalize(),
	}
}

func unproject(inv math.Mat4, p math.Vec4) math.Vec3 {
	w := inv.MulVec4(p)
	if w[3] != 0 {
		w[0] /= w[3]
		w[1] /= w[3]
		w[2] /= w[3]
	}
	return math.Vec3{X: w[0], Y: w[1], Z: w[2]}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle implements Moller-Trumbore. Both faces count.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	const eps = 1e-7

	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < eps {
		return 0, false
	}
	inv := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = e2.Dot(q) * inv
	if t < eps {
		return 0, false
	}
	return t, true
}

// WorldAABB returns the bounds of mesh after transforming it by world.
func WorldAABB(mesh *geometry.Mesh, world math.Mat4) AABB {
	lo, hi := mesh.Bounds()
	box := AABB{
		Min: math.Vec3{X: math32.MaxFloat32, Y: math32.MaxFloat32, Z: math32.MaxFloat32},
		Max: math.Vec3{X: -math32.MaxFloat32, Y: -math32.MaxFloat32, Z: -math32.MaxFloat32},
	}
	for i := 0; i < 8; i++ {
		corner := lo
		if i&1 != 0 {
			corner.X = hi.X
		}
		if i&2 != 0 {
			corner.Y = hi.Y
		}
		if i&4 != 0 {
			corner.Z = hi.Z
		}
		p := world.TransformPoint(corner)
		box.Min = math.Vec3{X: min(box.Min.X, p.X), Y: min(box.Min.Y, p.Y), Z: min(box.Min.Z, p.Z)}
		box.Max = math.Vec3{X: max(box.Max.X, p.X), Y: max(box.Max.Y, p.Y), Z: max(box.Max.Z, p.Z)}
	}
	return box
}

// IntersectNode returns the nearest hit of r on the triangles of n.
func (r Ray) IntersectNode(n *scene.Node) (t float32, hit bool) {
	if n.Mesh == nil || n.Mesh.TriangleCount() == 0 {
		return 0, false
	}
	world := n.WorldMatrix()
	if _, ok := r.IntersectAABB(WorldAABB(n.Mesh, world)); !ok {
		return 0, false
	}

	best := float32(math32.MaxFloat32)
	for i := 0; i < n.Mesh.TriangleCount(); i++ {
		a, b, c := n.Mesh.Triangle(i)
		ti, ok := r.IntersectTriangle(world.TransformPoint(a), world.TransformPoint(b), world.TransformPoint(c))
		if ok && ti < best {
			best, hit = ti, true
		}
	}
	return best, hit
}

// Hit is an intersection with a node.
type Hit struct {
	Node     *scene.Node
	Distance float32
	Point    math.Vec3
}

// Pick returns hits of r on nodes and their descendants, nearest first.
// A hidden node hides its whole subtree.
func Pick(r Ray, nodes []*scene.Node) []Hit {
	var hits []Hit
	for _, root := range nodes {
		hits = pickNode(r, root, hits)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

func pickNode(r Ray, n *scene.Node, hits []Hit) []Hit {
	if !n.Visible {
		return hits
	}
	if t, ok := r.IntersectNode(n); ok {
		hits = append(hits, Hit{Node: n, Distance: t, Point: r.At(t)})
	}
	for _, c := range n.Children() {
		hits = pickNode(r, c, hits)
	}
	return hits
}
