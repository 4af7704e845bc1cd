// Package ui provides the ImGui window used by the calibration tool.
package ui

import (
	"fmt"
	"image"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/Faultbox/veri/internal/engine/texture"
)

// Backend wraps the ImGui SDL backend.
type Backend struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	width   int32
	height  int32
}

// NewBackend creates the backend and its window.
func NewBackend(title string, width, height int32) (*Backend, error) {
	b := &Backend{
		width:  width,
		height: height,
	}

	var err error
	b.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	b.backend.SetBgColor(imgui.NewVec4(0.1, 0.1, 0.12, 1.0))
	b.backend.CreateWindow(title, int(width), int(height))
	return b, nil
}

// Run starts the main render loop.
func (b *Backend) Run(renderFunc func()) {
	b.backend.Run(renderFunc)
}

// SetWindowTitle updates the window title.
func (b *Backend) SetWindowTitle(title string) {
	b.backend.SetWindowTitle(title)
}

// GetViewport returns the main viewport work area.
func (b *Backend) GetViewport() (posX, posY, width, height float32) {
	viewport := imgui.MainViewport()
	workPos := viewport.WorkPos()
	workSize := viewport.WorkSize()
	return workPos.X, workPos.Y, workSize.X, workSize.Y
}

// Texture is an image uploaded for display in ImGui.
type Texture struct {
	tex    *backend.Texture
	Width  int
	Height int
}

// Upload turns an image into a texture. A nil image gives a nil texture.
func Upload(img image.Image) *Texture {
	if img == nil {
		return nil
	}
	rgba := texture.ImageToRGBA(img)
	b := rgba.Bounds()
	return &Texture{
		tex:    backend.NewTextureFromRgba(rgba),
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}

// Release frees the GPU copy. Safe on nil.
func (t *Texture) Release() {
	if t == nil || t.tex == nil {
		return
	}
	t.tex.Release()
	t.tex = nil
}

// Draw shows the texture scaled to fit within maxW×maxH, keeping its
// aspect ratio.
func (t *Texture) Draw(maxW, maxH float32) {
	if t == nil || t.tex == nil || t.Width == 0 || t.Height == 0 {
		imgui.TextDisabled("no image")
		return
	}
	w, h := Fit(t.Width, t.Height, maxW, maxH)
	imgui.ImageWithBgV(
		t.tex.ID,
		imgui.NewVec2(w, h),
		imgui.NewVec2(0, 0),
		imgui.NewVec2(1, 1),
		imgui.NewVec4(0.2, 0.2, 0.2, 1.0),
		imgui.NewVec4(1, 1, 1, 1),
	)
}

// Fit scales w×h down to fit inside maxW×maxH. Images that already fit
// keep their size.
func Fit(w, h int, maxW, maxH float32) (float32, float32) {
	fw, fh := float32(w), float32(h)
	if fw <= 0 || fh <= 0 {
		return 0, 0
	}
	scale := float32(1)
	if maxW > 0 && fw*scale > maxW {
		scale = maxW / fw
	}
	if maxH > 0 && fh*scale > maxH {
		scale = maxH / fh
	}
	return fw * scale, fh * scale
}

// IsKeyPressed checks if a key was pressed this frame.
func IsKeyPressed(key imgui.Key) bool {
	return imgui.IsKeyChordPressed(imgui.KeyChord(key))
}

// IsKeyDown checks if a key is currently held down.
func IsKeyDown(key imgui.Key) bool {
	return imgui.IsKeyDown(key)
}
