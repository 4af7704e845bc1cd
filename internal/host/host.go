// Package host connects a viewer to the SDL window: it turns input events
// into camera turns, clicks and key actions, and presents frames.
package host

import (
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/engine/debug"
	"github.com/Faultbox/veri/internal/engine/input"
	"github.com/Faultbox/veri/internal/viewer"
)

// clickSlop is how far, in pixels, the pointer may travel between press and
// release for the gesture to count as a click rather than a drag.
const clickSlop = 4

// Window is the part of the SDL window the host uses.
type Window interface {
	SwapBuffers()
	GetSize() (int, int)
	DrawableSize() (int, int)
	ToggleFullscreen()
}

// PixelReader reads back the last rendered frame as bottom-up RGBA rows.
type PixelReader interface {
	ReadPixels() ([]byte, int, int)
}

// Host implements viewer.Host for an SDL window.
type Host struct {
	win      Window
	in       *input.Input
	bindings input.Bindings
	pixels   PixelReader
	shots    *debug.ScreenshotCapture
	log      *zap.Logger

	// OnClick receives the name of the object under a click.
	OnClick func(id string)

	pressed      bool
	pressX       int
	pressY       int
	travel       int
	pollOverride func() bool
}

// New creates a host. pixels and shots may be nil, which disables
// screenshots.
func New(win Window, pixels PixelReader, shots *debug.ScreenshotCapture, log *zap.Logger) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	return &Host{
		win:      win,
		in:       input.New(),
		bindings: input.DefaultBindings(),
		pixels:   pixels,
		shots:    shots,
		log:      log.Named("host"),
	}
}

// Input returns the input state.
func (h *Host) Input() *input.Input { return h.in }

// Poll implements viewer.Host.
func (h *Host) Poll(v *viewer.Viewer) bool {
	var quit bool
	if h.pollOverride != nil {
		quit = h.pollOverride()
	} else {
		quit = h.in.Update()
	}
	if quit {
		return false
	}

	for _, ev := range h.in.Events() {
		switch ev.Type {
		case input.EventWindowResize:
			v.Resize(h.win.DrawableSize())
		case input.EventMouseDown:
			if ev.Button == sdl.BUTTON_LEFT {
				h.pressed = true
				h.pressX, h.pressY = ev.MouseX, ev.MouseY
				h.travel = 0
			}
		case input.EventMouseMove:
			if !h.pressed {
				continue
			}
			h.travel += abs(ev.RelX) + abs(ev.RelY)
			if d := v.Drag(); d != nil {
				d.HandleDrag(float32(ev.RelX), float32(ev.RelY))
			}
		case input.EventMouseUp:
			if ev.Button != sdl.BUTTON_LEFT || !h.pressed {
				continue
			}
			h.pressed = false
			if h.travel <= clickSlop {
				x, y := h.toDrawable(ev.MouseX, ev.MouseY)
				v.HandleClick(x, y, h.click)
			}
		}
	}

	if d := v.Drag(); d != nil {
		d.SetTurn(
			h.in.Axis(sdl.SCANCODE_LEFT, sdl.SCANCODE_RIGHT),
			h.in.Axis(sdl.SCANCODE_DOWN, sdl.SCANCODE_UP),
		)
	}

	for _, b := range h.bindings.Pressed(h.in) {
		switch b.Action {
		case input.ActionQuit:
			h.log.Info("quit requested")
			return false
		case input.ActionFullscreen:
			h.win.ToggleFullscreen()
		case input.ActionScreenshot:
			h.screenshot()
		case input.ActionRecalibrate:
			if err := v.UpdateGeometry(b.Param, b.Delta); err != nil {
				h.log.Warn("calibration rejected", zap.String("param", b.Param), zap.Error(err))
			}
		}
	}
	return true
}

// Present implements viewer.Host.
func (h *Host) Present() {
	h.win.SwapBuffers()
}

func (h *Host) click(id string) {
	h.log.Info("object clicked", zap.String("object", id))
	if h.OnClick != nil {
		h.OnClick(id)
	}
}

// toDrawable scales window coordinates to framebuffer pixels.
func (h *Host) toDrawable(x, y int) (int, int) {
	ww, wh := h.win.GetSize()
	dw, dh := h.win.DrawableSize()
	if ww <= 0 || wh <= 0 {
		return x, y
	}
	return x * dw / ww, y * dh / wh
}

func (h *Host) screenshot() {
	if h.pixels == nil || h.shots == nil {
		return
	}
	pixels, w, hgt := h.pixels.ReadPixels()
	path, err := h.shots.CaptureFromPixels(pixels, w, hgt)
	if err != nil {
		h.log.Error("screenshot failed", zap.Error(err))
		return
	}
	h.log.Info("screenshot saved", zap.String("path", path))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
