package crosshairs

import (
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/assets"
	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/engine/geometry"
	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/pkg/math"
)

// Sprite is a sprite sheet whose frames show dwell progress. The image is
// requested on the first update and the plane is created once it is ready.
type Sprite struct {
	name      string
	cfg       config.SpriteConfig
	direction *math.Vec3 // fixed direction for button sprites

	handle       *assets.Handle[image.Image]
	failLogged   bool
	node         *scene.Node
	repeat       [2]float32
	offset       [2]float32
	offsetLogged bool
}

func newSprite(name string, cfg *config.SpriteConfig) *Sprite {
	s := &Sprite{name: name, cfg: *cfg}
	if cfg.Direction != nil {
		d := cfg.Direction.Normalize()
		s.direction = &d
	}
	return s
}

// Node returns the sprite plane, or nil while the image is loading.
func (s *Sprite) Node() *scene.Node { return s.node }

// Offset returns the texture offset of the frame last shown.
func (s *Sprite) Offset() [2]float32 { return s.offset }

// Repeat returns the size of one frame in texture space.
func (s *Sprite) Repeat() [2]float32 { return s.repeat }

// update shows the frame for percent. A nil direction keeps the current
// placement.
func (s *Sprite) update(c *Crosshairs, percent float64, direction *math.Vec3) {
	if s.node == nil && !s.load(c, direction) {
		return
	}

	s.node.Visible = !s.cfg.Hide

	if direction != nil {
		s.place(*direction)
	}

	idx := FrameIndex(s.cfg.Count, percent)
	offset := FrameOffset(idx, s.cfg.Columns, s.repeat)
	s.node.Material.UVOffset = offset
	if offset != s.offset || !s.offsetLogged {
		s.offset = offset
		s.offsetLogged = true
		if c.debug {
			c.log.Debug("sprite frame",
				zap.String("sprite", s.name),
				zap.Float64("percent", percent),
				zap.Int("frame", idx),
				zap.Float32("offset_x", offset[0]),
				zap.Float32("offset_y", offset[1]))
		}
	}

	if c.debug && c.counter%debugEvery == 0 {
		p := s.node.Position
		c.log.Debug("sprite placement",
			zap.String("sprite", s.name),
			zap.Float32s("position", []float32{p.X, p.Y, p.Z}))
	}
}

// load starts or polls the image load and builds the plane when ready. It
// reports whether the node exists afterwards.
func (s *Sprite) load(c *Crosshairs, direction *math.Vec3) bool {
	if s.handle == nil {
		if c.images == nil {
			return false
		}
		s.handle = c.images(s.cfg.Src)
	}

	switch s.handle.State() {
	case assets.Pending:
		return false
	case assets.Failed:
		if !s.failLogged {
			s.failLogged = true
			c.log.Warn("sprite image unavailable",
				zap.String("sprite", s.name),
				zap.String("src", s.cfg.Src),
				zap.Error(s.handle.Err()))
		}
		return false
	}

	img, _ := s.handle.Value()
	s.repeat = FrameRepeat(s.cfg, img.Bounds().Dx(), img.Bounds().Dy())

	tex := scene.NewTexture(img)
	tex.Repeat = true
	tex.Mipmaps = true

	mat := scene.BasicMaterial([3]float32{1, 1, 1}, tex)
	mat.Transparent = true
	mat.Side = scene.DoubleSide
	mat.UVRepeat = s.repeat

	s.node = scene.NewNode("sprite:"+s.name, geometry.Plane(s.cfg.ObjWidth, s.cfg.ObjHeight, 1, 1), mat)
	if direction != nil {
		s.place(*direction)
	}
	if c.scene != nil {
		c.scene.Add(s.node)
	}
	c.log.Debug("sprite finished loading", zap.String("sprite", s.name), zap.String("src", s.cfg.Src))
	return true
}

// place puts the plane along direction at the configured distance, facing
// the viewer at the origin.
func (s *Sprite) place(direction math.Vec3) {
	s.node.Position = direction.Normalize().Scale(s.cfg.Distance)
	s.node.LookAt(math.Vec3{})
}

// FrameRepeat returns the texture-space size of one frame. Explicit frame
// pixel sizes take precedence over the rows/columns split.
func FrameRepeat(cfg config.SpriteConfig, imgWidth, imgHeight int) [2]float32 {
	if cfg.Width > 0 && cfg.Height > 0 && imgWidth > 0 && imgHeight > 0 {
		return [2]float32{
			float32(cfg.Width) / float32(imgWidth),
			float32(cfg.Height) / float32(imgHeight),
		}
	}
	return [2]float32{1 / float32(cfg.Columns), 1 / float32(cfg.Rows)}
}

// FrameIndex maps dwell progress to a frame: floor(count*percent) clamped
// to [0, count-1], so a full dwell shows the last frame.
func FrameIndex(count int, percent float64) int {
	if count <= 0 {
		return 0
	}
	idx := int(float64(count) * percent)
	if percent < 0 || idx < 0 {
		return 0
	}
	if idx > count-1 {
		return count - 1
	}
	return idx
}

// FrameOffset returns the texture offset of frame idx. Frames run left to
// right, top row first; texture v grows upwards.
func FrameOffset(idx, columns int, repeat [2]float32) [2]float32 {
	if columns <= 0 {
		columns = 1
	}
	col := idx % columns
	row := idx/columns + 1
	return [2]float32{
		float32(col) * repeat[0],
		1 - float32(row)*repeat[1],
	}
}
