package input

import "github.com/veandco/go-sdl2/sdl"

// Action is what a bound key does in the viewer.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionScreenshot
	ActionFullscreen
	// ActionRecalibrate nudges one stereo UV factor.
	ActionRecalibrate
)

// CalibrationStep is the amount one key press changes a UV factor by.
const CalibrationStep = 0.01

// Binding is the effect of a key. Param and Delta are set for
// ActionRecalibrate.
type Binding struct {
	Action Action
	Param  string
	Delta  float32
}

// Bindings maps keys to viewer actions.
type Bindings map[sdl.Scancode]Binding

// DefaultBindings returns the viewer key map. Each pair of keys raises and
// lowers one stereo factor: Q/A xMult, W/S xPhase, E/D yMult, R/F yPhase.
func DefaultBindings() Bindings {
	b := Bindings{
		sdl.SCANCODE_ESCAPE: {Action: ActionQuit},
		sdl.SCANCODE_F12:    {Action: ActionScreenshot},
		sdl.SCANCODE_F11:    {Action: ActionFullscreen},
	}
	pairs := []struct {
		up, down sdl.Scancode
		param    string
	}{
		{sdl.SCANCODE_Q, sdl.SCANCODE_A, "xMult"},
		{sdl.SCANCODE_W, sdl.SCANCODE_S, "xPhase"},
		{sdl.SCANCODE_E, sdl.SCANCODE_D, "yMult"},
		{sdl.SCANCODE_R, sdl.SCANCODE_F, "yPhase"},
	}
	for _, p := range pairs {
		b[p.up] = Binding{Action: ActionRecalibrate, Param: p.param, Delta: CalibrationStep}
		b[p.down] = Binding{Action: ActionRecalibrate, Param: p.param, Delta: -CalibrationStep}
	}
	return b
}

// Pressed returns the bindings triggered by key presses this frame.
func (b Bindings) Pressed(in *Input) []Binding {
	var out []Binding
	for _, e := range in.Events() {
		if e.Type != EventKeyDown {
			continue
		}
		if binding, ok := b[e.Key]; ok && binding.Action != ActionNone {
			out = append(out, binding)
		}
	}
	return out
}
