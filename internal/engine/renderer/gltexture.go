package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/internal/engine/texture"
)

// GLTexture mirrors a scene texture on the GPU and re-uploads it when the
// texture version changes.
type GLTexture struct {
	ID      uint32
	version uint64
	width   int32
	height  int32
}

// NewGLTexture allocates a texture object.
func NewGLTexture() *GLTexture {
	t := &GLTexture{}
	gl.GenTextures(1, &t.ID)
	return t
}

// Sync uploads src if it changed since the last call. It reports whether
// an upload happened.
func (t *GLTexture) Sync(src *scene.Texture) bool {
	if src == nil || src.Image == nil || src.Version == t.version {
		return false
	}
	t.version = src.Version

	rgba := texture.PrepareUpload(src.Image)
	w := int32(rgba.Bounds().Dx())
	h := int32(rgba.Bounds().Dy())
	if w == 0 || h == 0 {
		return false
	}

	gl.BindTexture(gl.TEXTURE_2D, t.ID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	if w == t.width && h == t.height {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, w, h, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
		t.width, t.height = w, h
	}

	wrap := int32(gl.CLAMP_TO_EDGE)
	if src.Repeat {
		wrap = gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if src.Mipmaps {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.GenerateMipmap(gl.TEXTURE_2D)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	return true
}

// Delete releases the texture object.
func (t *GLTexture) Delete() {
	if t.ID != 0 {
		gl.DeleteTextures(1, &t.ID)
		t.ID = 0
	}
}

// NewSolid creates a 1x1 texture of one color, bound when a material has
// no image.
func NewSolid(r, g, b, a uint8) *GLTexture {
	t := NewGLTexture()
	px := []uint8{r, g, b, a}
	gl.BindTexture(gl.TEXTURE_2D, t.ID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(px))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	t.width, t.height = 1, 1
	return t
}
