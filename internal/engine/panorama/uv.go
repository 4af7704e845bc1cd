package panorama

import (
	"fmt"

	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/engine/geometry"
)

// Calibration parameters accepted by UpdateGeometry.
const (
	ParamXMult  = "xMult"
	ParamXPhase = "xPhase"
	ParamYMult  = "yMult"
	ParamYPhase = "yPhase"
)

// Params lists the calibration parameters in key binding order.
func Params() []string {
	return []string{ParamXMult, ParamXPhase, ParamYMult, ParamYPhase}
}

// MapUV applies an eye transform to one texture coordinate.
func MapUV(f config.EyeUV, u, v float32) (float32, float32) {
	return u*f.XMult + f.XPhase, v*f.YMult + f.YPhase
}

// UnmapUV inverts MapUV.
func UnmapUV(f config.EyeUV, u, v float32) (float32, float32) {
	return (u - f.XPhase) / f.XMult, (v - f.YPhase) / f.YMult
}

// ApplyUV remaps every texture coordinate of m.
func ApplyUV(m *geometry.Mesh, f config.EyeUV) {
	for i := 0; i+1 < len(m.UVs); i += 2 {
		m.UVs[i], m.UVs[i+1] = MapUV(f, m.UVs[i], m.UVs[i+1])
	}
	m.Touch()
}

// ResetUV undoes ApplyUV with the same factors.
func ResetUV(m *geometry.Mesh, f config.EyeUV) {
	for i := 0; i+1 < len(m.UVs); i += 2 {
		m.UVs[i], m.UVs[i+1] = UnmapUV(f, m.UVs[i], m.UVs[i+1])
	}
	m.Touch()
}

// field returns the factor named by param.
func field(f *config.EyeUV, param string) (*float32, error) {
	switch param {
	case ParamXMult:
		return &f.XMult, nil
	case ParamXPhase:
		return &f.XPhase, nil
	case ParamYMult:
		return &f.YMult, nil
	case ParamYPhase:
		return &f.YPhase, nil
	}
	return nil, fmt.Errorf("unknown uv parameter %q", param)
}

// Adjust adds delta to param of both eyes of every layout. Multipliers that
// would become zero are rejected and nothing changes.
func Adjust(factors map[string]config.StereoUV, param string, delta float32) error {
	next := make(map[string]config.StereoUV, len(factors))
	for mode, f := range factors {
		for _, eye := range []*config.EyeUV{&f.Left, &f.Right} {
			p, err := field(eye, param)
			if err != nil {
				return err
			}
			*p += delta
			if (param == ParamXMult || param == ParamYMult) && *p == 0 {
				return fmt.Errorf("%s.%s would become zero", mode, param)
			}
		}
		next[mode] = f
	}
	for mode, f := range next {
		factors[mode] = f
	}
	return nil
}

// CloneFactors copies a factor table.
func CloneFactors(factors map[string]config.StereoUV) map[string]config.StereoUV {
	out := make(map[string]config.StereoUV, len(factors))
	for k, v := range factors {
		out[k] = v
	}
	return out
}
