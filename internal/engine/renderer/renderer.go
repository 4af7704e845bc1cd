// Package renderer draws a scene graph with OpenGL: one pass for mono
// viewing or two offscreen eye passes composited side by side for stereo.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/engine/framebuffer"
	"github.com/Faultbox/veri/internal/engine/geometry"
	"github.com/Faultbox/veri/internal/engine/lighting"
	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/internal/engine/shader"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor [3]float32
	// Ambient light applied to lit materials.
	Ambient [3]float32
}

type meshBuffers struct {
	vao, vbo, ebo uint32
	count         int32
	version       uint64
	used          uint64
}

// staleFrames is how long unused mesh buffers survive. Replaced meshes,
// such as the dwell ring, are released after this many frames.
const staleFrames = 120

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config
	log    *zap.Logger

	program *shader.Program
	blit    *shader.Program
	// emptyVAO feeds the full screen triangle, which has no attributes.
	emptyVAO uint32

	meshes   map[*geometry.Mesh]*meshBuffers
	textures map[*scene.Texture]*GLTexture
	white    *GLTexture
	lights   *lighting.PointLightBuffer

	eyes  [2]*framebuffer.Framebuffer
	frame uint64
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{
		config:   cfg,
		log:      log.Named("renderer"),
		meshes:   make(map[*geometry.Mesh]*meshBuffers),
		textures: make(map[*scene.Texture]*GLTexture),
		lights:   lighting.NewPointLightBuffer(),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	var err error
	r.program, err = shader.NewProgram(shader.SceneVertex, shader.SceneFragment)
	if err != nil {
		return nil, fmt.Errorf("scene program: %w", err)
	}
	r.blit, err = shader.NewProgram(shader.BlitVertex, shader.BlitFragment)
	if err != nil {
		r.program.Delete()
		return nil, fmt.Errorf("blit program: %w", err)
	}
	gl.GenVertexArrays(1, &r.emptyVAO)
	r.white = NewSolid(255, 255, 255, 255)

	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for _, mb := range r.meshes {
		deleteMesh(mb)
	}
	r.meshes = nil
	for _, t := range r.textures {
		t.Delete()
	}
	r.textures = nil
	for i, fb := range r.eyes {
		if fb != nil {
			fb.Destroy()
			r.eyes[i] = nil
		}
	}
	r.white.Delete()
	if r.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &r.emptyVAO)
	}
	r.blit.Delete()
	r.program.Delete()
}

// Resize handles window resize. Sizes are drawable pixels.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the drawable size the renderer targets.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// Render draws the scene from one camera into the whole window.
func (r *Renderer) Render(s *scene.Scene, v scene.View) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
	r.clear()
	r.frame++
	r.draw(s, v)
	r.prune()
}

// RenderStereo draws each eye into its own target and places them side by
// side in the window, left eye first.
func (r *Renderer) RenderStereo(s *scene.Scene, left, right scene.View) error {
	w, h := int32(r.config.Width), int32(r.config.Height)
	lv, rv := framebuffer.EyeViewports(w, h)
	rects := [2][4]int32{lv, rv}
	views := [2]scene.View{left, right}
	r.frame++
	defer r.prune()

	for i := range r.eyes {
		if r.eyes[i] == nil {
			fb, err := framebuffer.New(rects[i][2], rects[i][3])
			if err != nil {
				return fmt.Errorf("eye %d target: %w", i, err)
			}
			r.eyes[i] = fb
		}
		r.eyes[i].Resize(rects[i][2], rects[i][3])
		r.eyes[i].Bind()
		r.clear()
		r.draw(s, views[i])
	}
	r.eyes[1].Unbind()

	gl.Viewport(0, 0, w, h)
	r.clear()
	gl.Disable(gl.DEPTH_TEST)
	r.blit.Use()
	gl.BindVertexArray(r.emptyVAO)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.Uniform1i(r.blit.Uniform("uTexture"), 0)
	for i, fb := range r.eyes {
		gl.Viewport(rects[i][0], rects[i][1], rects[i][2], rects[i][3])
		gl.BindTexture(gl.TEXTURE_2D, fb.ColorTexture())
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
	}
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
	gl.Viewport(0, 0, w, h)
	return nil
}

// ReadPixels returns the RGBA contents of the window, bottom row first.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

func (r *Renderer) clear() {
	c := r.config.ClearColor
	gl.ClearColor(c[0], c[1], c[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (r *Renderer) draw(s *scene.Scene, v scene.View) {
	opaque, transparent := collect(s, v.Layers, v.CameraPos)

	r.program.Use()
	gl.UniformMatrix4fv(r.program.Uniform("uView"), 1, false, v.View.Ptr())
	gl.UniformMatrix4fv(r.program.Uniform("uProjection"), 1, false, v.Projection.Ptr())
	gl.Uniform3f(r.program.Uniform("uCameraPos"), v.CameraPos.X, v.CameraPos.Y, v.CameraPos.Z)
	a := r.config.Ambient
	gl.Uniform3f(r.program.Uniform("uAmbient"), a[0], a[1], a[2])
	gl.Uniform1i(r.program.Uniform("uTexture"), 0)

	r.lights.SetLights(s.Lights)
	gl.Uniform1i(r.program.Uniform("uPointLightCount"), int32(r.lights.Count()))
	gl.Uniform3fv(r.program.Uniform("uPointLightPositions"), lighting.MaxPointLights, &r.lights.Positions()[0])
	gl.Uniform3fv(r.program.Uniform("uPointLightColors"), lighting.MaxPointLights, &r.lights.Colors()[0])
	gl.Uniform1fv(r.program.Uniform("uPointLightRanges"), lighting.MaxPointLights, &r.lights.Ranges()[0])

	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	for _, it := range opaque {
		r.drawItem(it)
	}

	gl.Enable(gl.BLEND)
	gl.DepthMask(false)
	for _, it := range transparent {
		r.drawItem(it)
	}
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.CULL_FACE)
	gl.BindVertexArray(0)
}

func (r *Renderer) drawItem(it drawItem) {
	mat := it.node.Material
	mb := r.meshFor(it.node.Mesh)

	switch mat.Side {
	case scene.FrontSide:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case scene.BackSide:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Disable(gl.CULL_FACE)
	}

	gl.UniformMatrix4fv(r.program.Uniform("uModel"), 1, false, it.world.Ptr())
	gl.Uniform2f(r.program.Uniform("uUVRepeat"), mat.UVRepeat[0], mat.UVRepeat[1])
	gl.Uniform2f(r.program.Uniform("uUVOffset"), mat.UVOffset[0], mat.UVOffset[1])
	gl.Uniform3f(r.program.Uniform("uColor"), mat.Color[0], mat.Color[1], mat.Color[2])
	gl.Uniform1f(r.program.Uniform("uOpacity"), mat.Opacity)
	gl.Uniform1i(r.program.Uniform("uLit"), boolInt(mat.Lit))
	gl.Uniform3f(r.program.Uniform("uSpecular"), mat.Specular[0], mat.Specular[1], mat.Specular[2])
	gl.Uniform1f(r.program.Uniform("uShininess"), max(mat.Shininess, 1))

	gl.ActiveTexture(gl.TEXTURE0)
	if tex := r.textureFor(mat.Texture); tex != nil {
		gl.Uniform1i(r.program.Uniform("uUseTexture"), 1)
		gl.BindTexture(gl.TEXTURE_2D, tex.ID)
	} else {
		gl.Uniform1i(r.program.Uniform("uUseTexture"), 0)
		gl.BindTexture(gl.TEXTURE_2D, r.white.ID)
	}

	gl.BindVertexArray(mb.vao)
	gl.DrawElements(gl.TRIANGLES, mb.count, gl.UNSIGNED_INT, nil)
}

// meshFor returns the GPU buffers of m, uploading it on first use and
// whenever its version changes.
func (r *Renderer) meshFor(m *geometry.Mesh) *meshBuffers {
	mb, ok := r.meshes[m]
	if ok {
		mb.used = r.frame
		if mb.version == m.Version {
			return mb
		}
	}
	if !ok {
		mb = &meshBuffers{used: r.frame}
		gl.GenVertexArrays(1, &mb.vao)
		gl.GenBuffers(1, &mb.vbo)
		gl.GenBuffers(1, &mb.ebo)
		r.meshes[m] = mb
	}

	vertices := interleave(m)
	gl.BindVertexArray(mb.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, mb.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mb.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.DYNAMIC_DRAW)

	stride := int32(vertexStride * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(6*4))
	gl.EnableVertexAttribArray(2)
	gl.BindVertexArray(0)

	mb.count = int32(len(m.Indices))
	mb.version = m.Version
	return mb
}

// prune releases buffers of meshes that have not been drawn recently.
func (r *Renderer) prune() {
	for m, mb := range r.meshes {
		if stale(mb.used, r.frame) {
			deleteMesh(mb)
			delete(r.meshes, m)
		}
	}
}

func stale(used, frame uint64) bool {
	return frame > used && frame-used > staleFrames
}

func (r *Renderer) textureFor(t *scene.Texture) *GLTexture {
	if t == nil || t.Image == nil {
		return nil
	}
	gt, ok := r.textures[t]
	if !ok {
		gt = NewGLTexture()
		r.textures[t] = gt
	}
	gt.Sync(t)
	return gt
}

func deleteMesh(mb *meshBuffers) {
	gl.DeleteVertexArrays(1, &mb.vao)
	gl.DeleteBuffers(1, &mb.vbo)
	gl.DeleteBuffers(1, &mb.ebo)
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
