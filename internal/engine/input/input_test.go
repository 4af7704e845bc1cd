package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func key(t uint32, code sdl.Scancode, repeat bool) *sdl.KeyboardEvent {
	e := &sdl.KeyboardEvent{Type: t, Keysym: sdl.Keysym{Scancode: code}}
	if repeat {
		e.Repeat = 1
	}
	return e
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		event sdl.Event
		want  EventType
		ok    bool
	}{
		{"quit", &sdl.QuitEvent{Type: sdl.QUIT}, EventQuit, true},
		{"resize", &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600}, EventWindowResize, true},
		{"focus", &sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_FOCUS_GAINED}, EventNone, false},
		{"key down", key(sdl.KEYDOWN, sdl.SCANCODE_Q, false), EventKeyDown, true},
		{"key up", key(sdl.KEYUP, sdl.SCANCODE_Q, false), EventKeyUp, true},
		{"motion", &sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, X: 5, Y: 6, XRel: 1, YRel: -2}, EventMouseMove, true},
		{"click", &sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_LEFT, X: 10, Y: 20}, EventMouseDown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Translate(tt.event)
			if ok != tt.ok || ev.Type != tt.want {
				t.Errorf("Translate() = (%v, %v), want (%v, %v)", ev.Type, ok, tt.want, tt.ok)
			}
		})
	}

	ev, _ := Translate(&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600})
	if ev.Width != 800 || ev.Height != 600 {
		t.Errorf("resize = %dx%d, want 800x600", ev.Width, ev.Height)
	}
	ev, _ = Translate(&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, X: 5, Y: 6, XRel: 1, YRel: -2})
	if ev.RelX != 1 || ev.RelY != -2 {
		t.Errorf("motion rel = (%d, %d), want (1, -2)", ev.RelX, ev.RelY)
	}
}

func TestHeldKeys(t *testing.T) {
	in := New()
	in.Push(key(sdl.KEYDOWN, sdl.SCANCODE_LEFT, false))

	if !in.IsKeyHeld(sdl.SCANCODE_LEFT) {
		t.Fatal("left not held after key down")
	}
	if got := in.Axis(sdl.SCANCODE_LEFT, sdl.SCANCODE_RIGHT); got != -1 {
		t.Errorf("Axis() = %v, want -1", got)
	}

	in.Push(key(sdl.KEYDOWN, sdl.SCANCODE_RIGHT, false))
	if got := in.Axis(sdl.SCANCODE_LEFT, sdl.SCANCODE_RIGHT); got != 0 {
		t.Errorf("Axis() with both = %v, want 0", got)
	}

	in.Push(key(sdl.KEYUP, sdl.SCANCODE_LEFT, false))
	if in.IsKeyHeld(sdl.SCANCODE_LEFT) {
		t.Error("left still held after key up")
	}

	in.Push(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_LEFT})
	if !in.IsButtonHeld(sdl.BUTTON_LEFT) {
		t.Error("button not held")
	}
	in.Push(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONUP, Button: sdl.BUTTON_LEFT})
	if in.IsButtonHeld(sdl.BUTTON_LEFT) {
		t.Error("button still held")
	}
}

func TestKeyPressedIgnoresRepeat(t *testing.T) {
	in := New()
	in.Push(key(sdl.KEYDOWN, sdl.SCANCODE_F12, true))
	if in.IsKeyPressed(sdl.SCANCODE_F12) {
		t.Error("auto-repeat counted as a press")
	}
	in.Push(key(sdl.KEYDOWN, sdl.SCANCODE_F12, false))
	if !in.IsKeyPressed(sdl.SCANCODE_F12) {
		t.Error("press not reported")
	}
}

func TestDefaultBindings(t *testing.T) {
	b := DefaultBindings()

	tests := []struct {
		code  sdl.Scancode
		param string
		delta float32
	}{
		{sdl.SCANCODE_Q, "xMult", CalibrationStep},
		{sdl.SCANCODE_A, "xMult", -CalibrationStep},
		{sdl.SCANCODE_W, "xPhase", CalibrationStep},
		{sdl.SCANCODE_S, "xPhase", -CalibrationStep},
		{sdl.SCANCODE_E, "yMult", CalibrationStep},
		{sdl.SCANCODE_D, "yMult", -CalibrationStep},
		{sdl.SCANCODE_R, "yPhase", CalibrationStep},
		{sdl.SCANCODE_F, "yPhase", -CalibrationStep},
	}
	for _, tt := range tests {
		got := b[tt.code]
		if got.Action != ActionRecalibrate || got.Param != tt.param || got.Delta != tt.delta {
			t.Errorf("binding %v = %+v, want %s %v", tt.code, got, tt.param, tt.delta)
		}
	}
	if b[sdl.SCANCODE_F12].Action != ActionScreenshot {
		t.Error("F12 is not bound to screenshots")
	}

	in := New()
	in.Push(key(sdl.KEYDOWN, sdl.SCANCODE_Q, false))
	in.Push(key(sdl.KEYDOWN, sdl.SCANCODE_Z, false))
	in.Push(key(sdl.KEYUP, sdl.SCANCODE_Q, false))
	pressed := b.Pressed(in)
	if len(pressed) != 1 || pressed[0].Param != "xMult" {
		t.Errorf("Pressed() = %+v, want the xMult binding", pressed)
	}
}
