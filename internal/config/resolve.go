package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Faultbox/veri/pkg/math"
)

// ErrConfiguration marks a configuration the viewer cannot start with.
var ErrConfiguration = errors.New("configuration error")

// Crosshair defaults applied when neither the crosshairs block nor a target
// sets them.
const (
	DefaultHitRadius = 10 // degrees
	DefaultHitTime   = 1500 * time.Millisecond
)

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Resolve validates the configuration and materializes every default so
// that consumers never fall back to parent values at run time. All problems
// are reported together; each one matches ErrConfiguration.
func (c *Config) Resolve() error {
	var errs []error

	if c.Video.Src == "" {
		errs = append(errs, configErr("video.src is required"))
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = 30
	}

	switch c.Stereoscopic {
	case StereoNone:
	case StereoTopToBottom, StereoLeftToRight:
		defaults := DefaultStereoFactors()
		if c.StereoFactors == nil {
			c.StereoFactors = defaults
		}
		for mode, f := range defaults {
			if _, ok := c.StereoFactors[mode]; !ok {
				c.StereoFactors[mode] = f
			}
		}
		for mode, f := range c.StereoFactors {
			if f.Left.XMult == 0 || f.Left.YMult == 0 || f.Right.XMult == 0 || f.Right.YMult == 0 {
				errs = append(errs, configErr("stereo_factors.%s: multipliers must be non-zero", mode))
			}
		}
	default:
		errs = append(errs, configErr("unknown stereoscopic mode %q", c.Stereoscopic))
	}

	errs = append(errs, c.resolveCamera()...)

	if c.Renderer.Width <= 0 || c.Renderer.Height <= 0 {
		errs = append(errs, configErr("renderer size %dx%d is invalid", c.Renderer.Width, c.Renderer.Height))
	}
	if c.Sphere.Radius <= 0 {
		c.Sphere.Radius = 500
	}

	for name, obj := range c.Objects {
		if obj.Resource == "" {
			errs = append(errs, configErr("objects.%s: resource is required", name))
		}
	}

	if c.Light.Range <= 0 {
		c.Light.Range = 10000
	}

	if c.Audio != nil {
		errs = append(errs, c.resolveAudio()...)
	}
	if c.Crosshairs != nil {
		errs = append(errs, c.Crosshairs.resolve()...)
	}

	return errors.Join(errs...)
}

func (c *Config) resolveCamera() []error {
	var errs []error
	cam := &c.Camera
	if cam.Direction == nil {
		d := math.Forward
		cam.Direction = &d
	} else if cam.Direction.IsZero() {
		errs = append(errs, configErr("camera.direction must not be zero"))
	} else {
		d := cam.Direction.Normalize()
		cam.Direction = &d
	}
	if cam.FOV <= 0 || cam.FOV >= 180 {
		errs = append(errs, configErr("camera.fov %v out of range (0, 180)", cam.FOV))
	}
	if cam.Near <= 0 || cam.Far <= cam.Near {
		errs = append(errs, configErr("camera near/far %v/%v invalid", cam.Near, cam.Far))
	}
	if cam.Aspect <= 0 && c.Renderer.Height > 0 {
		cam.Aspect = float32(c.Renderer.Width) / float32(c.Renderer.Height)
	}
	return errs
}

func (c *Config) resolveAudio() []error {
	var errs []error
	a := c.Audio
	switch a.Type {
	case AudioPositional, AudioAmbisonic:
	default:
		errs = append(errs, configErr("unknown audio type %q", a.Type))
	}
	if a.Src == "" {
		errs = append(errs, configErr("audio.src is required"))
	}
	if a.Gain == 0 {
		a.Gain = 1
	}
	if a.MaxDistance <= 0 {
		a.MaxDistance = 100
	}
	return errs
}

// Resolve validates the crosshairs block and fills target defaults. It is
// idempotent.
func (ch *CrosshairsConfig) Resolve() error {
	return errors.Join(ch.resolve()...)
}

func (ch *CrosshairsConfig) resolve() []error {
	var errs []error

	switch ch.Type {
	case CrosshairsAnimated, CrosshairsButtons:
	default:
		return []error{configErr("unknown crosshairs type %q", ch.Type)}
	}

	if ch.HitRadius <= 0 {
		ch.HitRadius = DefaultHitRadius
	}
	if ch.HitTime <= 0 {
		ch.HitTime = Duration(DefaultHitTime)
	}

	if ch.Sprite != nil {
		errs = append(errs, ch.Sprite.resolve("crosshairs.sprite")...)
	} else if ch.Type == CrosshairsButtons {
		errs = append(errs, configErr("crosshairs.sprite is required for %s", CrosshairsButtons))
	}

	seen := make(map[string]bool, len(ch.Targets))
	for i := range ch.Targets {
		t := &ch.Targets[i]
		where := fmt.Sprintf("crosshairs.targets[%d]", i)
		if t.ID == "" {
			errs = append(errs, configErr("%s: id is required", where))
		} else if seen[t.ID] {
			errs = append(errs, configErr("%s: duplicate id %q", where, t.ID))
		}
		seen[t.ID] = true

		dir, err := direction(where, t.Direction, t.Orientation)
		if err != nil {
			errs = append(errs, err)
		} else {
			t.Direction = &dir
		}

		if t.HitRadius <= 0 {
			t.HitRadius = ch.HitRadius
		}
		if t.HitTime <= 0 {
			t.HitTime = ch.HitTime
		}

		if t.Sprite != nil {
			errs = append(errs, t.Sprite.resolve(where+".sprite")...)
			if t.Sprite.Direction == nil && t.Direction != nil {
				d := *t.Direction
				t.Sprite.Direction = &d
			}
		} else if ch.Type == CrosshairsButtons {
			errs = append(errs, configErr("%s: sprite is required for %s", where, CrosshairsButtons))
		}
	}
	return errs
}

func (s *SpriteConfig) resolve(where string) []error {
	var errs []error
	if s.Src == "" {
		errs = append(errs, configErr("%s: src is required", where))
	}
	if s.Rows <= 0 || s.Columns <= 0 {
		errs = append(errs, configErr("%s: rows and columns must be positive", where))
	}
	if s.Count <= 0 {
		s.Count = s.Rows * s.Columns
	}
	if s.Distance <= 0 {
		s.Distance = 100
	}
	if s.ObjWidth <= 0 {
		s.ObjWidth = 10
	}
	if s.ObjHeight <= 0 {
		s.ObjHeight = s.ObjWidth
	}
	if s.Direction != nil || s.Orientation != nil {
		dir, err := direction(where, s.Direction, s.Orientation)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.Direction = &dir
		}
	}
	return errs
}

func direction(where string, dir *math.Vec3, o *Orientation) (math.Vec3, error) {
	switch {
	case o != nil:
		return o.Vec(), nil
	case dir == nil:
		return math.Vec3{}, configErr("%s: direction or orientation is required", where)
	case dir.IsZero():
		return math.Vec3{}, configErr("%s: direction must not be zero", where)
	default:
		return dir.Normalize(), nil
	}
}

// ResolvePath makes a resource path absolute relative to BaseDir. URLs and
// absolute paths are returned unchanged.
func (c *Config) ResolvePath(p string) string {
	if p == "" || strings.Contains(p, "://") || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}
