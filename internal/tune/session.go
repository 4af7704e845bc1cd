// Package tune holds the state of a stereo calibration session: the UV
// factor table being edited, the saved snapshot it can revert to and
// per-eye crops of a video frame showing what each eye will see.
package tune

import (
	"errors"
	"fmt"
	"image"
	"maps"

	"github.com/anthonynsimon/bild/transform"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/engine/panorama"
	"github.com/Faultbox/veri/internal/engine/texture"
	"github.com/Faultbox/veri/internal/engine/video"
)

// Eye selects one half of a stereo pair.
type Eye int

const (
	Left Eye = iota
	Right
)

func (e Eye) String() string {
	if e == Left {
		return "left"
	}
	return "right"
}

// Modes lists the stereo layouts that can be calibrated.
func Modes() []string {
	return []string{config.StereoTopToBottom, config.StereoLeftToRight}
}

// Session is one calibration run over a config file.
type Session struct {
	cfg  *config.Config
	path string
	log  *zap.Logger

	mode    string
	factors map[string]config.StereoUV
	saved   map[string]config.StereoUV

	frame image.Image
}

// NewSession starts editing the factors of cfg, which was loaded from path.
// Mono configs start on the top-to-bottom layout.
func NewSession(cfg *config.Config, path string, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		cfg:  cfg,
		path: path,
		log:  log.Named("tune"),
		mode: cfg.Stereoscopic,
	}
	if s.mode == config.StereoNone {
		s.mode = config.StereoTopToBottom
	}

	src := cfg.StereoFactors
	if src == nil {
		src = config.DefaultStereoFactors()
	}
	var err error
	if s.factors, err = snapshot(src); err != nil {
		return nil, err
	}
	for mode, f := range config.DefaultStereoFactors() {
		if _, ok := s.factors[mode]; !ok {
			s.factors[mode] = f
		}
	}
	if s.saved, err = snapshot(s.factors); err != nil {
		return nil, err
	}
	return s, nil
}

// snapshot deep-copies a factor table.
func snapshot(src map[string]config.StereoUV) (map[string]config.StereoUV, error) {
	var dst map[string]config.StereoUV
	if err := copier.CopyWithOption(&dst, src, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy factors: %w", err)
	}
	if dst == nil {
		dst = make(map[string]config.StereoUV)
	}
	return dst, nil
}

// Path returns the config file being edited.
func (s *Session) Path() string { return s.path }

// Mode returns the layout being edited.
func (s *Session) Mode() string { return s.mode }

// SetMode switches the layout being edited.
func (s *Session) SetMode(mode string) error {
	if _, ok := s.factors[mode]; !ok {
		return fmt.Errorf("%w: unknown stereoscopic mode %q", config.ErrConfiguration, mode)
	}
	s.mode = mode
	return nil
}

// Eye returns the factors of one eye of the current layout.
func (s *Session) Eye(e Eye) config.EyeUV {
	f := s.factors[s.mode]
	if e == Left {
		return f.Left
	}
	return f.Right
}

// SetEye replaces the factors of one eye of the current layout. Zero
// multipliers are rejected.
func (s *Session) SetEye(e Eye, uv config.EyeUV) error {
	if uv.XMult == 0 || uv.YMult == 0 {
		return fmt.Errorf("%w: %s eye multipliers must be non-zero", config.ErrConfiguration, e)
	}
	f := s.factors[s.mode]
	if e == Left {
		f.Left = uv
	} else {
		f.Right = uv
	}
	s.factors[s.mode] = f
	return nil
}

// Nudge shifts one parameter of both eyes of every layout, the same change
// the viewer's calibration keys make.
func (s *Session) Nudge(param string, delta float32) error {
	if err := panorama.Adjust(s.factors, param, delta); err != nil {
		return err
	}
	s.log.Debug("factors nudged", zap.String("param", param), zap.Float32("delta", delta))
	return nil
}

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool {
	return !maps.Equal(s.factors, s.saved)
}

// Revert drops unsaved changes.
func (s *Session) Revert() error {
	f, err := snapshot(s.saved)
	if err != nil {
		return err
	}
	s.factors = f
	return nil
}

// Save writes the factors into the config file.
func (s *Session) Save() error {
	return s.SaveAs(s.path)
}

// SaveAs writes the config with the edited factors to path and makes path
// the session file.
func (s *Session) SaveAs(path string) error {
	if path == "" {
		return errors.New("no file to save to")
	}
	out, err := snapshot(s.factors)
	if err != nil {
		return err
	}
	s.cfg.StereoFactors = out
	if err := s.cfg.SaveTo(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if s.saved, err = snapshot(s.factors); err != nil {
		return err
	}
	s.path = path
	s.log.Info("calibration saved", zap.String("path", path), zap.Any("factors", out))
	return nil
}

// LoadFrame decodes the first frame of the configured video.
func (s *Session) LoadFrame() error {
	paths, err := video.ResolveFrames(s.cfg.ResolvePath(s.cfg.Video.Src))
	if err != nil {
		return err
	}
	img, err := texture.DecodeFile(paths[0])
	if err != nil {
		return fmt.Errorf("frame %s: %w", paths[0], err)
	}
	s.frame = img
	return nil
}

// SetFrame replaces the preview frame.
func (s *Session) SetFrame(img image.Image) { s.frame = img }

// Frame returns the preview frame, nil before LoadFrame.
func (s *Session) Frame() image.Image { return s.frame }

// Preview crops the part of the frame one eye samples, scaled down to at
// most maxWidth pixels wide. It returns nil without a frame or when the
// eye samples nothing inside the frame. The result's bounds start at the
// origin.
func (s *Session) Preview(e Eye, maxWidth int) *image.RGBA {
	if s.frame == nil {
		return nil
	}
	b := s.frame.Bounds()
	r := EyeRegion(s.Eye(e), b.Dx(), b.Dy()).Add(b.Min).Intersect(b)
	if r.Empty() {
		return nil
	}
	crop := transform.Crop(s.frame, r)
	// Crop keeps the frame's coordinates; previews start at the origin
	crop.Rect = crop.Rect.Sub(crop.Rect.Min)
	w, h := r.Dx(), r.Dy()
	if maxWidth > 0 && w > maxWidth {
		return transform.Resize(crop, maxWidth, max(1, h*maxWidth/w), transform.Linear)
	}
	return crop
}

// EyeRegion returns the pixel rectangle of a w×h frame that an eye samples.
// Texture v runs bottom to top, image rows top to bottom.
func EyeRegion(f config.EyeUV, w, h int) image.Rectangle {
	u0, v0 := panorama.MapUV(f, 0, 0)
	u1, v1 := panorama.MapUV(f, 1, 1)
	x0 := int(u0*float32(w) + 0.5)
	x1 := int(u1*float32(w) + 0.5)
	y0 := int((1-v1)*float32(h) + 0.5)
	y1 := int((1-v0)*float32(h) + 0.5)
	return image.Rect(x0, y0, x1, y1)
}
