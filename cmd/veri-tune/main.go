// veri-tune is an interactive editor for the stereo UV factors of a Veri
// config. It shows what each eye samples from the first video frame while
// the factors are adjusted, then writes them back to the config file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/engine/panorama"
	"github.com/Faultbox/veri/internal/engine/ui"
	"github.com/Faultbox/veri/internal/logger"
	"github.com/Faultbox/veri/internal/tune"
)

// previewWidth caps the width of the per-eye crops uploaded to the GPU.
const previewWidth = 640

func main() {
	runtime.LockOSThread()

	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.NewDefault(*level, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	app, err := NewApp(log)
	if err != nil {
		log.Error("failed to start", zap.Error(err))
		logger.Sync(log)
		os.Exit(1)
	}
	defer app.Close()

	if path := flag.Arg(0); path != "" {
		if err := app.Open(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error opening config: %v\n", err)
		}
	}

	app.Run()
}

// App is the calibration window.
type App struct {
	backend *ui.Backend
	log     *zap.Logger

	session  *tune.Session
	previews [2]*ui.Texture
	stale    bool
	status   string

	// dialogs run on their own goroutine and hand results to render
	pendingOpen chan string
	pendingSave chan string
}

// NewApp creates the window.
func NewApp(log *zap.Logger) (*App, error) {
	b, err := ui.NewBackend("Veri Tune", 1280, 800)
	if err != nil {
		return nil, err
	}
	return &App{
		backend:     b,
		log:         log.Named("veri-tune"),
		pendingOpen: make(chan string, 1),
		pendingSave: make(chan string, 1),
	}, nil
}

// Open loads a config file and its first video frame.
func (app *App) Open(path string) error {
	cfg, err := config.ReadFile(path)
	if err != nil {
		return err
	}
	// factors of a broken config are still editable, so only report
	if err := cfg.Resolve(); err != nil {
		app.log.Warn("config has problems", zap.Error(err))
	}
	s, err := tune.NewSession(cfg, path, app.log)
	if err != nil {
		return err
	}
	if err := s.LoadFrame(); err != nil {
		app.log.Warn("no preview frame", zap.Error(err))
		app.status = "No preview: " + err.Error()
	} else {
		app.status = "Opened " + filepath.Base(path)
	}

	app.session = s
	app.stale = true
	app.updateTitle()
	return nil
}

// Close releases preview textures.
func (app *App) Close() {
	for i := range app.previews {
		app.previews[i].Release()
		app.previews[i] = nil
	}
}

// Run starts the main loop.
func (app *App) Run() {
	app.backend.Run(app.render)
}

func (app *App) updateTitle() {
	title := "Veri Tune"
	if app.session != nil {
		title += " - " + filepath.Base(app.session.Path())
		if app.session.Dirty() {
			title += " *"
		}
	}
	app.backend.SetWindowTitle(title)
}

func (app *App) openDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("Veri config", "yaml", "yml").
			Filter("All Files", "*").
			Title("Open Config").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				app.log.Error("file dialog failed", zap.Error(err))
			}
			return
		}
		app.pendingOpen <- filename
	}()
}

func (app *App) saveDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("Veri config", "yaml", "yml").
			Title("Save Config As").
			Save()
		if err != nil {
			if err != dialog.ErrCancelled {
				app.log.Error("file dialog failed", zap.Error(err))
			}
			return
		}
		app.pendingSave <- filename
	}()
}

func (app *App) showError(err error) {
	app.log.Error("operation failed", zap.Error(err))
	app.status = "Error: " + err.Error()
	dialog.Message("%v", err).Title("Veri Tune").Error()
}

func (app *App) save(path string) {
	if app.session == nil {
		return
	}
	if err := app.session.SaveAs(path); err != nil {
		app.showError(err)
		return
	}
	app.status = "Saved " + filepath.Base(path)
	app.updateTitle()
}

func (app *App) edited() {
	app.stale = true
	app.updateTitle()
}

// render is called each frame to draw the UI.
func (app *App) render() {
	select {
	case path := <-app.pendingOpen:
		if err := app.Open(path); err != nil {
			app.showError(err)
		}
	case path := <-app.pendingSave:
		app.save(path)
	default:
	}

	app.handleKeys()

	if app.stale && app.session != nil {
		app.stale = false
		for i, eye := range []tune.Eye{tune.Left, tune.Right} {
			app.previews[i].Release()
			app.previews[i] = ui.Upload(app.session.Preview(eye, previewWidth))
		}
	}

	app.renderMenu()

	posX, posY, width, height := app.backend.GetViewport()
	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse
	controlsWidth := float32(340)

	imgui.SetNextWindowPos(imgui.NewVec2(posX, posY))
	imgui.SetNextWindowSize(imgui.NewVec2(controlsWidth, height))
	if imgui.BeginV("Factors", nil, flags) {
		app.renderControls()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(posX+controlsWidth, posY))
	imgui.SetNextWindowSize(imgui.NewVec2(width-controlsWidth, height))
	if imgui.BeginV("Eyes", nil, flags) {
		app.renderPreviews(width-controlsWidth-20, height)
	}
	imgui.End()
}

func (app *App) handleKeys() {
	if app.session == nil {
		return
	}
	ctrlS := imgui.KeyChord(imgui.ModCtrl) | imgui.KeyChord(imgui.KeyS)
	if imgui.IsKeyChordPressed(ctrlS) {
		app.save(app.session.Path())
		return
	}

	// same keys as the viewer: Q/A xMult, W/S xPhase, E/D yMult, R/F yPhase
	keys := []struct {
		up, down imgui.Key
		param    string
	}{
		{imgui.KeyQ, imgui.KeyA, panorama.ParamXMult},
		{imgui.KeyW, imgui.KeyS, panorama.ParamXPhase},
		{imgui.KeyE, imgui.KeyD, panorama.ParamYMult},
		{imgui.KeyR, imgui.KeyF, panorama.ParamYPhase},
	}
	for _, k := range keys {
		var delta float32
		switch {
		case ui.IsKeyPressed(k.up):
			delta = 0.01
		case ui.IsKeyPressed(k.down):
			delta = -0.01
		default:
			continue
		}
		if err := app.session.Nudge(k.param, delta); err != nil {
			app.status = err.Error()
			continue
		}
		app.edited()
	}
}

func (app *App) renderMenu() {
	if imgui.BeginMainMenuBar() {
		if imgui.BeginMenu("File") {
			if imgui.MenuItemBool("Open...") {
				app.openDialog()
			}
			if app.session != nil {
				if imgui.MenuItemBool("Save") {
					app.save(app.session.Path())
				}
				if imgui.MenuItemBool("Save As...") {
					app.saveDialog()
				}
				if imgui.MenuItemBool("Revert") {
					if err := app.session.Revert(); err != nil {
						app.showError(err)
					}
					app.edited()
				}
			}
			imgui.Separator()
			if imgui.MenuItemBool("Exit") {
				os.Exit(0)
			}
			imgui.EndMenu()
		}
		imgui.EndMainMenuBar()
	}
}

func (app *App) renderControls() {
	if app.session == nil {
		imgui.TextDisabled("Open a config with File > Open")
		return
	}
	s := app.session

	imgui.Text("Layout:")
	for _, mode := range tune.Modes() {
		if imgui.RadioButtonBool(mode, s.Mode() == mode) {
			if err := s.SetMode(mode); err != nil {
				app.showError(err)
			}
			app.stale = true
		}
	}
	imgui.Separator()

	for _, eye := range []tune.Eye{tune.Left, tune.Right} {
		uv := s.Eye(eye)
		imgui.Text(fmt.Sprintf("%s eye", eye))
		changed := false
		changed = imgui.SliderFloatV("xMult##"+eye.String(), &uv.XMult, 0.05, 1.5, "%.3f", imgui.SliderFlagsNone) || changed
		changed = imgui.SliderFloatV("xPhase##"+eye.String(), &uv.XPhase, -0.5, 1, "%.3f", imgui.SliderFlagsNone) || changed
		changed = imgui.SliderFloatV("yMult##"+eye.String(), &uv.YMult, 0.05, 1.5, "%.3f", imgui.SliderFlagsNone) || changed
		changed = imgui.SliderFloatV("yPhase##"+eye.String(), &uv.YPhase, -0.5, 1, "%.3f", imgui.SliderFlagsNone) || changed
		if changed {
			if err := s.SetEye(eye, uv); err != nil {
				app.status = err.Error()
			} else {
				app.edited()
			}
		}
		imgui.Separator()
	}

	imgui.TextDisabled("Q/A W/S E/D R/F nudge both eyes")
	imgui.TextDisabled("Ctrl+S saves")
	if s.Dirty() {
		imgui.Text("Unsaved changes")
	}
	if app.status != "" {
		imgui.Separator()
		imgui.TextWrapped(app.status)
	}
}

func (app *App) renderPreviews(width, height float32) {
	if app.session == nil {
		return
	}
	if app.session.Frame() == nil {
		imgui.TextDisabled("No video frame to preview")
		return
	}
	half := height/2 - 30
	for i, eye := range []tune.Eye{tune.Left, tune.Right} {
		imgui.Text(fmt.Sprintf("%s eye", eye))
		app.previews[i].Draw(width, half)
	}
}
