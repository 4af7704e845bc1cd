package panorama

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/engine/geometry"
	"github.com/Faultbox/veri/internal/engine/scene"
)

const eps = 1e-4

func near(a, b float32) bool { return math32.Abs(a-b) < eps }

func TestMapUVRoundTrip(t *testing.T) {
	factors := []config.EyeUV{
		{XMult: 1, YMult: 0.5, YPhase: 0.5},
		{XMult: 0.5, XPhase: 0.5, YMult: 1},
		{XMult: 0.97, XPhase: -0.03, YMult: 0.52, YPhase: 0.01},
	}
	coords := [][2]float32{{0, 0}, {1, 1}, {0.25, 0.75}, {0.5, 0.1}}

	for _, f := range factors {
		for _, c := range coords {
			u, v := MapUV(f, c[0], c[1])
			bu, bv := UnmapUV(f, u, v)
			if !near(bu, c[0]) || !near(bv, c[1]) {
				t.Errorf("%+v: %v -> (%v, %v) -> (%v, %v)", f, c, u, v, bu, bv)
			}
		}
	}
}

func TestMapUVTopToBottom(t *testing.T) {
	f := config.DefaultStereoFactors()[config.StereoTopToBottom]

	// the left eye sees the top half of the frame
	if _, v := MapUV(f.Left, 0, 0); v != 0.5 {
		t.Errorf("left v(0) = %v, want 0.5", v)
	}
	if _, v := MapUV(f.Left, 0, 1); v != 1 {
		t.Errorf("left v(1) = %v, want 1", v)
	}
	if _, v := MapUV(f.Right, 0, 1); v != 0.5 {
		t.Errorf("right v(1) = %v, want 0.5", v)
	}
}

func TestApplyResetMesh(t *testing.T) {
	m := geometry.Sphere(1, 8, 6)
	orig := append([]float32(nil), m.UVs...)
	v0 := m.Version

	f := config.EyeUV{XMult: 0.5, XPhase: 0.5, YMult: 1}
	ApplyUV(m, f)
	if m.Version == v0 {
		t.Error("ApplyUV did not touch the mesh")
	}
	for i := 0; i < len(m.UVs); i += 2 {
		if want := orig[i]*0.5 + 0.5; !near(m.UVs[i], want) {
			t.Fatalf("u[%d] = %v, want %v", i/2, m.UVs[i], want)
		}
		if !near(m.UVs[i+1], orig[i+1]) {
			t.Fatalf("v[%d] = %v, want %v", i/2, m.UVs[i+1], orig[i+1])
		}
	}

	ResetUV(m, f)
	for i := range orig {
		if !near(m.UVs[i], orig[i]) {
			t.Fatalf("uv[%d] = %v after reset, want %v", i, m.UVs[i], orig[i])
		}
	}
}

func TestBuildMono(t *testing.T) {
	s := scene.New()
	tex := scene.NewTexture(nil)
	sp, err := Build(s, config.StereoNone, 500, nil, tex, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if sp.Stereo() {
		t.Error("mono sphere reports stereo")
	}
	nodes := sp.Nodes()
	if len(nodes) != 1 || !s.Contains(nodes[0]) {
		t.Fatalf("nodes = %v", nodes)
	}
	n := nodes[0]
	if got, want := n.Mesh.VertexCount(), 81*51; got != want {
		t.Errorf("vertices = %d, want %d", got, want)
	}
	if n.Material.Texture != tex {
		t.Error("sphere does not use the video texture")
	}
	if !n.Layers.Test(scene.LayerMask(scene.LayerDefault)) {
		t.Error("mono sphere not on the default layer")
	}

	// mirrored: the first vertex of the equator row sits at +X instead of -X
	lo, hi := n.Mesh.Bounds()
	if !near(lo.X, -500) || !near(hi.X, 500) {
		t.Errorf("bounds x = [%v, %v]", lo.X, hi.X)
	}
	eq := uint32(25 * 81)
	if x := n.Mesh.Vertex(eq).X; !near(x, 500) {
		t.Errorf("equator start x = %v, want 500", x)
	}
}

func TestBuildStereo(t *testing.T) {
	s := scene.New()
	sp, err := Build(s, config.StereoLeftToRight, 500, nil, nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	nodes := sp.Nodes()
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes", len(nodes))
	}
	left, right := nodes[0], nodes[1]
	if left.Layers != scene.LayerMask(scene.LayerLeftEye) {
		t.Errorf("left layers = %b", left.Layers)
	}
	if right.Layers != scene.LayerMask(scene.LayerRightEye) {
		t.Errorf("right layers = %b", right.Layers)
	}
	if got, want := left.Mesh.VertexCount(), 61*41; got != want {
		t.Errorf("vertices = %d, want %d", got, want)
	}
	if left.Mesh == right.Mesh {
		t.Fatal("eyes share a mesh")
	}

	// pole rows carry a half segment u offset, check the rows between
	cols := stereoWidthSegments + 1
	for i := cols; i < left.Mesh.VertexCount()-cols; i++ {
		lu, _ := left.Mesh.UV(i)
		ru, _ := right.Mesh.UV(i)
		if lu > 0.5+eps || ru < 0.5-eps {
			t.Fatalf("vertex %d: left u %v, right u %v", i, lu, ru)
		}
	}
}

func TestBuildUnknownMode(t *testing.T) {
	_, err := Build(scene.New(), "over-under", 500, map[string]config.StereoUV{}, nil, nil)
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestUpdateGeometry(t *testing.T) {
	s := scene.New()
	sp, err := Build(s, config.StereoTopToBottom, 500, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	left := sp.Nodes()[0]
	base := geometry.Sphere(500, stereoWidthSegments, stereoHeightSegments)

	if err := sp.UpdateGeometry(ParamYPhase, 0.01); err != nil {
		t.Fatalf("UpdateGeometry() error = %v", err)
	}

	f := sp.Factors()
	for mode, want := range map[string][2]float32{
		config.StereoTopToBottom: {0.51, 0.01},
		config.StereoLeftToRight: {0.01, 0.01},
	} {
		if !near(f[mode].Left.YPhase, want[0]) || !near(f[mode].Right.YPhase, want[1]) {
			t.Errorf("%s yPhase = %v/%v, want %v/%v", mode, f[mode].Left.YPhase, f[mode].Right.YPhase, want[0], want[1])
		}
	}

	for i := 0; i < base.VertexCount(); i++ {
		_, bv := base.UV(i)
		_, lv := left.Mesh.UV(i)
		if want := bv*0.5 + 0.51; !near(lv, want) {
			t.Fatalf("vertex %d v = %v, want %v", i, lv, want)
		}
	}
}

func TestUpdateGeometryErrors(t *testing.T) {
	sp, err := Build(scene.New(), config.StereoTopToBottom, 500, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	before := sp.Factors()

	if err := sp.UpdateGeometry("zoom", 1); err == nil {
		t.Error("unknown parameter accepted")
	}
	// top-to-bottom yMult is 0.5
	if err := sp.UpdateGeometry(ParamYMult, -0.5); err == nil {
		t.Error("zero multiplier accepted")
	}

	after := sp.Factors()
	for mode := range before {
		if before[mode] != after[mode] {
			t.Errorf("%s changed after rejected update: %+v -> %+v", mode, before[mode], after[mode])
		}
	}
}

func TestUpdateGeometryMono(t *testing.T) {
	sp, err := Build(scene.New(), config.StereoNone, 500, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := sp.UpdateGeometry(ParamXPhase, 0.1); err != nil {
		t.Fatalf("UpdateGeometry() error = %v", err)
	}
	if got := sp.Factors()[config.StereoLeftToRight].Right.XPhase; !near(got, 0.6) {
		t.Errorf("xPhase = %v, want 0.6", got)
	}
}
