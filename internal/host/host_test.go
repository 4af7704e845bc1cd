package host

import (
	"image"
	"os"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/veri/internal/clock"
	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/engine/debug"
	"github.com/Faultbox/veri/internal/viewer"
)

type fakeWindow struct {
	w, h       int
	dw, dh     int
	swaps      int
	fullscreen int
}

func (f *fakeWindow) SwapBuffers()             { f.swaps++ }
func (f *fakeWindow) GetSize() (int, int)      { return f.w, f.h }
func (f *fakeWindow) DrawableSize() (int, int) { return f.dw, f.dh }
func (f *fakeWindow) ToggleFullscreen()        { f.fullscreen++ }

type fakePixels struct{}

func (fakePixels) ReadPixels() ([]byte, int, int) {
	return make([]byte, 2*2*4), 2, 2
}

type stillFrames struct{}

func (stillFrames) Start(time.Time)                     {}
func (stillFrames) Frame(time.Time) (image.Image, bool) { return nil, false }

func newViewer(t *testing.T, mutate func(*config.Config)) (*viewer.Viewer, *clock.Mock) {
	t.Helper()
	cfg := config.Default()
	cfg.Video.Src = "frames"
	if mutate != nil {
		mutate(cfg)
	}
	clk := clock.NewMock(time.Unix(100, 0))
	v, err := viewer.New(cfg, viewer.Deps{Frames: stillFrames{}, Clock: clk})
	if err != nil {
		t.Fatalf("viewer.New() error = %v", err)
	}
	t.Cleanup(v.Close)
	v.Start()
	return v, clk
}

func newHost(win *fakeWindow, shots *debug.ScreenshotCapture, events ...sdl.Event) *Host {
	h := New(win, fakePixels{}, shots, nil)
	h.pollOverride = func() bool { return false }
	for _, ev := range events {
		h.in.Push(ev)
	}
	return h
}

func key(code sdl.Scancode) *sdl.KeyboardEvent {
	return &sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: code}}
}

func button(t uint32, x, y int32) *sdl.MouseButtonEvent {
	return &sdl.MouseButtonEvent{Type: t, Button: sdl.BUTTON_LEFT, X: x, Y: y}
}

func TestPollQuit(t *testing.T) {
	v, _ := newViewer(t, nil)
	win := &fakeWindow{w: 10, h: 10, dw: 10, dh: 10}

	h := newHost(win, nil)
	h.pollOverride = func() bool { return true }
	if h.Poll(v) {
		t.Error("Poll() = true after a window close")
	}

	h = newHost(win, nil, key(sdl.SCANCODE_ESCAPE))
	if h.Poll(v) {
		t.Error("Poll() = true after escape")
	}

	h = newHost(win, nil)
	if !h.Poll(v) {
		t.Error("Poll() = false without events")
	}
	h.Present()
	if win.swaps != 1 {
		t.Errorf("swaps = %d, want 1", win.swaps)
	}
}

func TestPollResize(t *testing.T) {
	v, clk := newViewer(t, nil)
	win := &fakeWindow{w: 400, h: 300, dw: 800, dh: 600}
	h := newHost(win, nil, &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_RESIZED, Data1: 400, Data2: 300})

	h.Poll(v)
	clk.Advance(10 * time.Millisecond)
	v.Frame(clk.Now())

	if w, hgt := v.Size(); w != 800 || hgt != 600 {
		t.Errorf("Size() = %dx%d, want drawable 800x600", w, hgt)
	}
}

func TestPollDrag(t *testing.T) {
	v, _ := newViewer(t, nil)
	win := &fakeWindow{w: 100, h: 100, dw: 100, dh: 100}
	yaw := v.Drag().Yaw

	h := newHost(win, nil,
		button(sdl.MOUSEBUTTONDOWN, 10, 10),
		&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, X: 110, Y: 10, XRel: 100},
		button(sdl.MOUSEBUTTONUP, 110, 10),
	)
	h.Poll(v)

	want := yaw + 100*v.Drag().DragSensitivity
	if got := v.Drag().Yaw; math32.Abs(got-want) > 1e-5 {
		t.Errorf("Yaw = %v, want %v", got, want)
	}
	if h.pressed {
		t.Error("button still pressed after release")
	}
}

func TestPollMotionWithoutPress(t *testing.T) {
	v, _ := newViewer(t, nil)
	win := &fakeWindow{w: 100, h: 100, dw: 100, dh: 100}
	yaw := v.Drag().Yaw

	h := newHost(win, nil, &sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, XRel: 50})
	h.Poll(v)
	if v.Drag().Yaw != yaw {
		t.Error("hover motion turned the view")
	}
}

func TestPollArrowKeys(t *testing.T) {
	v, clk := newViewer(t, nil)
	win := &fakeWindow{w: 100, h: 100, dw: 100, dh: 100}
	yaw := v.Drag().Yaw

	h := newHost(win, nil, key(sdl.SCANCODE_RIGHT))
	h.Poll(v)
	clk.Advance(time.Second)
	v.Frame(clk.Now())

	if got := v.Drag().Yaw; got >= yaw {
		t.Errorf("Yaw = %v, want less than %v after turning right", got, yaw)
	}
}

func TestPollRecalibrate(t *testing.T) {
	v, _ := newViewer(t, func(c *config.Config) { c.Stereoscopic = config.StereoTopToBottom })
	win := &fakeWindow{w: 100, h: 100, dw: 100, dh: 100}

	h := newHost(win, nil, key(sdl.SCANCODE_R))
	h.Poll(v)

	f := v.Sphere().Factors()[config.StereoTopToBottom]
	if math32.Abs(f.Left.YPhase-0.51) > 1e-5 {
		t.Errorf("left yPhase = %v, want 0.51", f.Left.YPhase)
	}
}

func TestPollFullscreenAndScreenshot(t *testing.T) {
	v, _ := newViewer(t, nil)
	win := &fakeWindow{w: 100, h: 100, dw: 100, dh: 100}
	dir := t.TempDir()
	shots := debug.NewScreenshotCapture(dir, "veri", clock.NewMock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	h := newHost(win, shots, key(sdl.SCANCODE_F11), key(sdl.SCANCODE_F12))
	if !h.Poll(v) {
		t.Fatal("Poll() = false")
	}
	if win.fullscreen != 1 {
		t.Errorf("fullscreen toggles = %d, want 1", win.fullscreen)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("screenshots = %d, want 1", len(entries))
	}
}

func TestToDrawable(t *testing.T) {
	h := New(&fakeWindow{w: 640, h: 360, dw: 1280, dh: 720}, nil, nil, nil)
	if x, y := h.toDrawable(20, 10); x != 40 || y != 20 {
		t.Errorf("toDrawable() = (%d, %d), want (40, 20)", x, y)
	}

	h = New(&fakeWindow{}, nil, nil, nil)
	if x, y := h.toDrawable(20, 10); x != 20 || y != 10 {
		t.Errorf("toDrawable() zero window = (%d, %d)", x, y)
	}
}
