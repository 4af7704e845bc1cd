// Package config handles viewer configuration loading and management.
package config

import (
	"github.com/Faultbox/veri/pkg/math"
)

// Stereoscopic layouts of the source video.
const (
	StereoNone        = ""
	StereoTopToBottom = "top-to-bottom"
	StereoLeftToRight = "left-to-right"
)

// Audio modes.
const (
	AudioPositional = "positional"
	AudioAmbisonic  = "ambisonic"
)

// Crosshair modes.
const (
	CrosshairsAnimated = "animated-crosshairs"
	CrosshairsButtons  = "animated-buttons"
)

// Config holds all viewer settings.
type Config struct {
	VREnabled     bool                    `yaml:"vr_enabled"`
	Stereoscopic  string                  `yaml:"stereoscopic"`
	StereoFactors map[string]StereoUV     `yaml:"stereo_factors,omitempty"`
	PolyfillWebVR bool                    `yaml:"polyfill_webvr,omitempty"`
	Camera        CameraConfig            `yaml:"camera"`
	Renderer      RendererConfig          `yaml:"renderer"`
	Sphere        SphereConfig            `yaml:"sphere360"`
	Video         VideoConfig             `yaml:"video"`
	Objects       map[string]ObjectConfig `yaml:"objects,omitempty"`
	Light         LightConfig             `yaml:"light"`
	Audio         *AudioConfig            `yaml:"audio,omitempty"`
	Crosshairs    *CrosshairsConfig       `yaml:"crosshairs,omitempty"`
	Controls      ControlsConfig          `yaml:"controls"`
	Debug         bool                    `yaml:"debug"`
	ScreenshotDir string                  `yaml:"screenshot_dir"`
	Logging       LoggingConfig           `yaml:"logging"`

	// BaseDir is the directory of the loaded config file. Relative resource
	// paths are resolved against it.
	BaseDir string `yaml:"-"`
}

// CameraConfig holds the perspective camera settings.
type CameraConfig struct {
	FOV    float32 `yaml:"fov"` // vertical, degrees
	Aspect float32 `yaml:"aspect"`
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"`
	// Direction is the initial look direction; nil means -Z.
	Direction *math.Vec3 `yaml:"direction,omitempty"`
	// IPD is the eye separation used for stereo rendering.
	IPD float32 `yaml:"ipd"`
}

// RendererConfig holds display and rendering settings.
type RendererConfig struct {
	Width      int   `yaml:"width"`
	Height     int   `yaml:"height"`
	Fullscreen bool  `yaml:"fullscreen"`
	VSync      bool  `yaml:"vsync"`
	FPSLimit   int   `yaml:"fps_limit"`
	ClearColor Color `yaml:"clear_color"`
}

// SphereConfig controls the panoramic sphere.
type SphereConfig struct {
	Hide   bool    `yaml:"hide"`
	Radius float32 `yaml:"radius"`
}

// VideoConfig describes the panoramic frame source. Src is a single image,
// a directory of numbered frames or a glob pattern.
type VideoConfig struct {
	Src  string  `yaml:"src"`
	FPS  float64 `yaml:"fps"`
	Loop bool    `yaml:"loop"`
}

// ObjectConfig describes an interactive OBJ model.
type ObjectConfig struct {
	Resource          string    `yaml:"resource"`
	Position          math.Vec3 `yaml:"position"`
	Color             Color     `yaml:"color"`
	MovesWithCamera   bool      `yaml:"moves_with_camera"`
	FlappingAmplitude float32   `yaml:"flapping_amplitude"` // radians
	FlappingFrequency float32   `yaml:"flapping_frequency"` // Hz
	Phase             float32   `yaml:"phase"`              // radians
}

// LightConfig describes the scene point light.
type LightConfig struct {
	Position  math.Vec3 `yaml:"position"`
	Color     Color     `yaml:"color"`
	Intensity float32   `yaml:"intensity"`
	Range     float32   `yaml:"range"`
}

// AudioConfig selects and configures the soundtrack.
type AudioConfig struct {
	Type        string    `yaml:"type"`
	Src         string    `yaml:"src"`
	Position    math.Vec3 `yaml:"position"`
	Gain        float32   `yaml:"gain"`
	MaxDistance float32   `yaml:"max_distance"`
}

// CrosshairsConfig configures gaze selection.
type CrosshairsConfig struct {
	Type      string         `yaml:"type"`
	Targets   []TargetConfig `yaml:"targets"`
	HitRadius float32        `yaml:"hit_radius"` // degrees
	HitTime   Duration       `yaml:"hit_time"` // integer milliseconds or "1.5s"
	Sprite    *SpriteConfig  `yaml:"sprite,omitempty"`
	Debug     bool           `yaml:"debug"`
}

// TargetConfig is one gaze destination. Exactly one of Direction and
// Orientation is required; Resolve fills Direction from Orientation and
// copies the crosshair defaults into zero HitRadius and HitTime.
type TargetConfig struct {
	ID          string        `yaml:"id"`
	Disabled    bool          `yaml:"disabled"`
	Direction   *math.Vec3    `yaml:"direction,omitempty"`
	Orientation *Orientation  `yaml:"orientation,omitempty"`
	HitRadius   float32       `yaml:"hit_radius"`
	HitTime     Duration      `yaml:"hit_time"`
	Sprite      *SpriteConfig `yaml:"sprite,omitempty"`
}

// Orientation is a direction given as angles in degrees: theta tilts down
// from the horizon, phi turns around the vertical axis.
type Orientation struct {
	Theta float32 `yaml:"theta"`
	Phi   float32 `yaml:"phi"`
}

// Vec converts the orientation to a unit direction.
func (o Orientation) Vec() math.Vec3 {
	return math.DirectionFromAngles(math.DegToRad(o.Theta), math.DegToRad(o.Phi))
}

// SpriteConfig describes a sprite sheet used for dwell feedback.
type SpriteConfig struct {
	Src       string  `yaml:"src"`
	Rows      int     `yaml:"rows"`
	Columns   int     `yaml:"columns"`
	Count     int     `yaml:"count"`
	Distance  float32 `yaml:"distance"`
	ObjWidth  float32 `yaml:"obj_width"`
	ObjHeight float32 `yaml:"obj_height"`
	// Width and Height are the pixel size of one frame; when both are set
	// they override the rows/columns derived frame size.
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	Hide   bool `yaml:"hide"`
	// Direction pins a button sprite; unset sprites follow their target.
	Direction   *math.Vec3   `yaml:"direction,omitempty"`
	Orientation *Orientation `yaml:"orientation,omitempty"`
}

// ControlsConfig holds the desktop orientation controls used when no
// headset pose is available.
type ControlsConfig struct {
	DragSensitivity float32 `yaml:"drag_sensitivity"` // radians per pixel
	KeyTurnRate     float32 `yaml:"key_turn_rate"`    // radians per second
	InvertY         bool    `yaml:"invert_y"`
}

// EyeUV is the linear texture transform of one eye: u' = u*XMult + XPhase.
type EyeUV struct {
	XMult  float32 `yaml:"x_mult" json:"xMult"`
	XPhase float32 `yaml:"x_phase" json:"xPhase"`
	YMult  float32 `yaml:"y_mult" json:"yMult"`
	YPhase float32 `yaml:"y_phase" json:"yPhase"`
}

// StereoUV holds both eyes of one stereoscopic layout.
type StereoUV struct {
	Left  EyeUV `yaml:"left" json:"left"`
	Right EyeUV `yaml:"right" json:"right"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// DefaultStereoFactors returns the UV layouts for side-by-side sources.
// The left eye takes the top (or left) half of the frame.
func DefaultStereoFactors() map[string]StereoUV {
	return map[string]StereoUV{
		StereoTopToBottom: {
			Left:  EyeUV{XMult: 1, YMult: 0.5, YPhase: 0.5},
			Right: EyeUV{XMult: 1, YMult: 0.5},
		},
		StereoLeftToRight: {
			Left:  EyeUV{XMult: 0.5, YMult: 1},
			Right: EyeUV{XMult: 0.5, XPhase: 0.5, YMult: 1},
		},
	}
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			FOV:  75,
			Near: 0.1,
			Far:  1000,
			IPD:  0.064,
		},
		Renderer: RendererConfig{
			Width:      1280,
			Height:     720,
			VSync:      true,
			ClearColor: 0x505050,
		},
		Sphere: SphereConfig{
			Radius: 500,
		},
		Video: VideoConfig{
			FPS:  30,
			Loop: true,
		},
		Light: LightConfig{
			Color:     0xffffff,
			Intensity: 1,
			Range:     10000,
		},
		Controls: ControlsConfig{
			DragSensitivity: 0.005,
			KeyTurnRate:     1.5,
		},
		ScreenshotDir: "screenshots",
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
