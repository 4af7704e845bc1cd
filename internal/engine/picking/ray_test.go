package picking

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/veri/internal/engine/camera"
	"github.com/Faultbox/veri/internal/engine/geometry"
	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/pkg/math"
)

func TestNDC(t *testing.T) {
	tests := []struct {
		x, y   float32
		nx, ny float32
	}{
		{0, 0, -1, 1},
		{400, 300, 0, 0},
		{800, 600, 1, -1},
	}
	for _, tt := range tests {
		nx, ny := NDC(tt.x, tt.y, 800, 600)
		if nx != tt.nx || ny != tt.ny {
			t.Errorf("NDC(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, nx, ny, tt.nx, tt.ny)
		}
	}
}

func TestScreenToRayCenter(t *testing.T) {
	cam := camera.NewHeadCamera(75, 4.0/3.0, 0.1, 1000)
	cam.LookAlong(math.Vec3{X: 1})
	inv := cam.ViewProjection().Inverse()

	r := ScreenToRay(0, 0, inv)
	if r.Direction.Distance(math.Vec3{X: 1}) > 1e-3 {
		t.Errorf("center ray direction = %v, want +X", r.Direction)
	}

	// right half of the screen goes to the camera's right
	r = ScreenToRay(0.5, 0, inv)
	if r.Direction.Z <= 0 {
		t.Errorf("right ray direction = %v, want +Z component", r.Direction)
	}
}

func TestIntersectAABB(t *testing.T) {
	box := AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}
	tests := []struct {
		name string
		ray  Ray
		hit  bool
		t    float32
	}{
		{"front", Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: -1}}, true, 4},
		{"inside", Ray{Origin: math.Vec3{}, Direction: math.Vec3{X: 1}}, true, 1},
		{"miss", Ray{Origin: math.Vec3{X: 3, Z: 5}, Direction: math.Vec3{Z: -1}}, false, 0},
		{"behind", Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: 1}}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && math32.Abs(got-tt.t) > 1e-5 {
				t.Errorf("t = %v, want %v", got, tt.t)
			}
		})
	}
}

func TestIntersectTriangle(t *testing.T) {
	a := math.Vec3{X: -1, Y: -1, Z: 0}
	b := math.Vec3{X: 1, Y: -1, Z: 0}
	c := math.Vec3{X: 0, Y: 1, Z: 0}

	r := Ray{Origin: math.Vec3{Z: 3}, Direction: math.Vec3{Z: -1}}
	if d, ok := r.IntersectTriangle(a, b, c); !ok || math32.Abs(d-3) > 1e-5 {
		t.Errorf("front hit = (%v, %v), want (3, true)", d, ok)
	}

	// back faces count too
	r = Ray{Origin: math.Vec3{Z: -3}, Direction: math.Vec3{Z: 1}}
	if _, ok := r.IntersectTriangle(a, b, c); !ok {
		t.Error("back face missed")
	}

	r = Ray{Origin: math.Vec3{X: 2, Z: 3}, Direction: math.Vec3{Z: -1}}
	if _, ok := r.IntersectTriangle(a, b, c); ok {
		t.Error("ray outside the triangle hit")
	}

	r = Ray{Origin: math.Vec3{Z: 3}, Direction: math.Vec3{X: 1}}
	if _, ok := r.IntersectTriangle(a, b, c); ok {
		t.Error("parallel ray hit")
	}
}

func TestPickNearestFirst(t *testing.T) {
	nearNode := scene.NewNode("near", geometry.Plane(2, 2, 1, 1), nil)
	nearNode.Position = math.Vec3{Z: -5}
	farNode := scene.NewNode("far", geometry.Plane(2, 2, 1, 1), nil)
	farNode.Position = math.Vec3{Z: -10}
	hidden := scene.NewNode("hidden", geometry.Plane(2, 2, 1, 1), nil)
	hidden.Position = math.Vec3{Z: -2}
	hidden.Visible = false
	off := scene.NewNode("off", geometry.Plane(2, 2, 1, 1), nil)
	off.Position = math.Vec3{X: 10, Z: -5}

	// off the plane diagonals so the hit is inside a single triangle
	r := Ray{Origin: math.Vec3{X: 0.3, Y: 0.2}, Direction: math.Vec3{Z: -1}}
	hits := Pick(r, []*scene.Node{farNode, hidden, off, nearNode})
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Node != nearNode || hits[1].Node != farNode {
		t.Errorf("hit order = %s, %s", hits[0].Node.Name, hits[1].Node.Name)
	}
	if hits[0].Point.Distance(math.Vec3{X: 0.3, Y: 0.2, Z: -5}) > 1e-4 {
		t.Errorf("hit point = %v", hits[0].Point)
	}
}

func TestPickChildren(t *testing.T) {
	parent := scene.NewNode("group", nil, nil)
	parent.Position = math.Vec3{Z: -5}
	child := scene.NewNode("button", geometry.Plane(1, 1, 1, 1), nil)
	child.Position = math.Vec3{X: 3}
	parent.Add(child)

	r := Ray{Origin: math.Vec3{Y: 0.2}, Direction: math.Vec3{X: 3, Z: -5}.Normalize()}
	hits := Pick(r, []*scene.Node{parent})
	if len(hits) != 1 || hits[0].Node != child {
		t.Fatalf("hits = %v, want the child", hits)
	}
}

func TestPickSkipsHiddenSubtree(t *testing.T) {
	parent := scene.NewNode("group", nil, nil)
	parent.Position = math.Vec3{Z: -5}
	parent.Visible = false
	child := scene.NewNode("button", geometry.Plane(1, 1, 1, 1), nil)
	child.Position = math.Vec3{X: 3}
	parent.Add(child)

	r := Ray{Origin: math.Vec3{Y: 0.2}, Direction: math.Vec3{X: 3, Z: -5}.Normalize()}
	if hits := Pick(r, []*scene.Node{parent}); len(hits) != 0 {
		t.Fatalf("hits = %v, want none under a hidden parent", hits)
	}

	parent.Visible = true
	if hits := Pick(r, []*scene.Node{parent}); len(hits) != 1 || hits[0].Node != child {
		t.Fatalf("hits = %v, want the child once the parent is shown", hits)
	}
}

func TestWorldAABB(t *testing.T) {
	m := geometry.Plane(2, 4, 1, 1)
	world := math.Compose(math.Vec3{X: 10}, math.QuatFromAxisAngle(math.Up, math32.Pi/2), math.Vec3{X: 1, Y: 1, Z: 1})
	box := WorldAABB(m, world)
	if math32.Abs(box.Min.X-10) > 1e-4 || math32.Abs(box.Max.X-10) > 1e-4 {
		t.Errorf("rotated plane x range = [%v, %v], want 10", box.Min.X, box.Max.X)
	}
	if math32.Abs(box.Min.Z+1) > 1e-4 || math32.Abs(box.Max.Z-1) > 1e-4 {
		t.Errorf("rotated plane z range = [%v, %v], want [-1, 1]", box.Min.Z, box.Max.Z)
	}
	if math32.Abs(box.Max.Y-2) > 1e-4 {
		t.Errorf("max y = %v, want 2", box.Max.Y)
	}
}
