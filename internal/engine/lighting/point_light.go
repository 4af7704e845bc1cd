// Package lighting provides point light support for lit scene objects.
package lighting

import "github.com/Faultbox/veri/pkg/math"

// MaxPointLights is the maximum number of point lights supported in shaders.
const MaxPointLights = 4

// PointLight represents a point light source for GPU upload.
type PointLight struct {
	Position  math.Vec3
	Color     [3]float32 // RGB color (0-1 range)
	Range     float32    // distance at which the light reaches zero; 0 means unlimited
	Intensity float32
}

// NewPointLight creates a light, clamping color to [0,1] and defaulting
// intensity to 1.
func NewPointLight(pos math.Vec3, color [3]float32, intensity, rng float32) PointLight {
	for i := range color {
		color[i] = math.Clamp(color[i], 0, 1)
	}
	if intensity <= 0 {
		intensity = 1
	}
	if rng < 0 {
		rng = 0
	}
	return PointLight{Position: pos, Color: color, Range: rng, Intensity: intensity}
}

// Attenuation returns the light factor at point p: intensity falls off
// linearly to zero at Range. The shaders apply the same formula.
func (l PointLight) Attenuation(p math.Vec3) float32 {
	if l.Range <= 0 {
		return l.Intensity
	}
	d := l.Position.Distance(p)
	return l.Intensity * math.Clamp(1-d/l.Range, 0, 1)
}

// PointLightBuffer holds lights for GPU upload.
type PointLightBuffer struct {
	Lights []PointLight
}

// NewPointLightBuffer creates an empty point light buffer.
func NewPointLightBuffer() *PointLightBuffer {
	return &PointLightBuffer{
		Lights: make([]PointLight, 0, MaxPointLights),
	}
}

// Count returns the number of lights.
func (b *PointLightBuffer) Count() int { return len(b.Lights) }

// SetLights replaces all lights in the buffer.
// Truncates to MaxPointLights if necessary.
func (b *PointLightBuffer) SetLights(lights []PointLight) {
	b.Lights = b.Lights[:0]
	if len(lights) > MaxPointLights {
		lights = lights[:MaxPointLights]
	}
	b.Lights = append(b.Lights, lights...)
}

// Positions returns positions as a flat float32 slice for GPU upload.
// Format: [x0, y0, z0, x1, y1, z1, ...]
func (b *PointLightBuffer) Positions() []float32 {
	result := make([]float32, MaxPointLights*3)
	for i, light := range b.Lights {
		result[i*3+0] = light.Position.X
		result[i*3+1] = light.Position.Y
		result[i*3+2] = light.Position.Z
	}
	return result
}

// Colors returns colors premultiplied by intensity.
func (b *PointLightBuffer) Colors() []float32 {
	result := make([]float32, MaxPointLights*3)
	for i, light := range b.Lights {
		result[i*3+0] = light.Color[0] * light.Intensity
		result[i*3+1] = light.Color[1] * light.Intensity
		result[i*3+2] = light.Color[2] * light.Intensity
	}
	return result
}

// Ranges returns ranges as a flat float32 slice for GPU upload.
func (b *PointLightBuffer) Ranges() []float32 {
	result := make([]float32, MaxPointLights)
	for i, light := range b.Lights {
		result[i] = light.Range
	}
	return result
}
