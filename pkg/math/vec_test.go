package math

import (
	"math"
	"testing"
)

func near(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

func nearVec(a, b Vec3, eps float32) bool {
	return near(a.X, b.X, eps) && near(a.Y, b.Y, eps) && near(a.Z, b.Z, eps)
}

func TestVec3Cross(t *testing.T) {
	got := UnitX.Cross(Up)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 0}.Normalize()
	if !near(n.Length(), 1, 1e-6) {
		t.Errorf("Normalize().Length() = %v, want 1", n.Length())
	}
	if z := (Vec3{}).Normalize(); !z.IsZero() {
		t.Errorf("zero vector normalized to %v", z)
	}
}

func TestVec3AngleTo(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
		want float32
	}{
		{"same", Forward, Forward, 0},
		{"perpendicular", UnitX, Up, math.Pi / 2},
		{"opposite", UnitZ, UnitZ.Negate(), math.Pi},
		{"scaled", Vec3{0, 0, 5}, Vec3{0, 0, 0.1}, 0},
		{"forty-five", Vec3{1, 0, 0}, Vec3{1, 1, 0}, math.Pi / 4},
		{"zero operand", Vec3{}, UnitX, math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.AngleTo(tt.b); !near(got, tt.want, 1e-5) {
				t.Errorf("AngleTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVec3ProjectOnPlane(t *testing.T) {
	got := Vec3{1, 2, 3}.ProjectOnPlane(Vec3{0, 5, 0})
	want := Vec3{1, 0, 3}
	if !nearVec(got, want, 1e-6) {
		t.Errorf("ProjectOnPlane() = %v, want %v", got, want)
	}
}

func TestDirectionFromAngles(t *testing.T) {
	tests := []struct {
		name       string
		theta, phi float32
		want       Vec3
	}{
		{"origin", 0, 0, Vec3{0, 0, 1}},
		{"quarter turn", 0, math.Pi / 2, Vec3{1, 0, 0}},
		{"half turn", 0, math.Pi, Vec3{0, 0, -1}},
		{"look down", math.Pi / 2, 0, Vec3{0, -1, 0}},
		{"look up", -math.Pi / 2, 0, Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DirectionFromAngles(tt.theta, tt.phi)
			if !nearVec(got, tt.want, 1e-6) {
				t.Errorf("DirectionFromAngles(%v, %v) = %v, want %v", tt.theta, tt.phi, got, tt.want)
			}
			if !near(got.Length(), 1, 1e-6) {
				t.Errorf("length = %v, want 1", got.Length())
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-1, 0, 1) != 0 || Clamp(2, 0, 1) != 1 || Clamp(0.5, 0, 1) != 0.5 {
		t.Error("Clamp out of range")
	}
}

func TestDegRad(t *testing.T) {
	if !near(DegToRad(180), math.Pi, 1e-6) {
		t.Errorf("DegToRad(180) = %v", DegToRad(180))
	}
	if !near(RadToDeg(math.Pi/2), 90, 1e-4) {
		t.Errorf("RadToDeg(pi/2) = %v", RadToDeg(math.Pi/2))
	}
}
