// Package viewer wires the panoramic viewer together: the sphere and its
// video texture, the head camera and its controls, interactive objects, the
// soundtrack and the gaze crosshairs. It drives them once per frame in a
// fixed order and resolves pointer clicks against the loaded objects.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/assets"
	"github.com/Faultbox/veri/internal/audio"
	"github.com/Faultbox/veri/internal/clock"
	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/crosshairs"
	"github.com/Faultbox/veri/internal/engine/camera"
	"github.com/Faultbox/veri/internal/engine/lighting"
	"github.com/Faultbox/veri/internal/engine/panorama"
	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/internal/engine/texture"
	"github.com/Faultbox/veri/internal/engine/video"
	"github.com/Faultbox/veri/internal/events"
)

// debugEvery is the frame interval of periodic debug logging.
const debugEvery = 90

// ErrNoSphere is returned by UpdateGeometry when the sphere is hidden.
var ErrNoSphere = errors.New("panoramic sphere is hidden")

// Renderer draws the scene. The GL renderer implements it; tests use a
// recording fake.
type Renderer interface {
	Render(s *scene.Scene, v scene.View)
	RenderStereo(s *scene.Scene, left, right scene.View) error
	Resize(width, height int)
}

// FrameSource supplies video frames for the sphere texture.
type FrameSource interface {
	Start(now time.Time)
	// Frame returns a new frame when one is due.
	Frame(now time.Time) (image.Image, bool)
}

// Host is the window side of the frame loop.
type Host interface {
	// Poll handles pending window and input events. Returning false ends
	// the loop.
	Poll(v *Viewer) bool
	// Present shows the frame that was just rendered.
	Present()
}

// Deps are the collaborators of a viewer. Everything is optional: nil
// Assets, Events and Clock get defaults; nil Frames opens the configured
// video source; nil Renderer skips drawing.
type Deps struct {
	Renderer  Renderer
	Frames    FrameSource
	Assets    *assets.Manager
	AudioSink audio.Sink
	Events    events.Publisher
	Clock     clock.Clock
	// Pose is the headset tracker used when VR is enabled.
	Pose camera.PoseSource
	// OnDraw runs at the end of every frame.
	OnDraw func()
	Log    *zap.Logger
}

// Viewer is the orchestrator.
type Viewer struct {
	cfg *config.Config
	log *zap.Logger

	scene    *scene.Scene
	camera   *camera.HeadCamera
	controls camera.Controls
	drag     *camera.DragControls

	sphere   *panorama.Sphere
	videoTex *scene.Texture
	frames   FrameSource

	objects []*object

	audio      audio.Adapter
	crosshairs *crosshairs.Crosshairs

	renderer Renderer
	assets   *assets.Manager
	events   events.Publisher
	clock    clock.Clock
	onDraw   func()
	owned    []func()

	width, height int
	pendingW      int
	pendingH      int

	playing     bool
	startTime   time.Time
	lastFrame   time.Time
	counter     int
	stereoError bool
}

// New builds the viewer from a resolved configuration.
func New(cfg *config.Config, deps Deps) (*Viewer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", config.ErrConfiguration)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}

	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Events == nil {
		deps.Events = events.NewBus()
	}

	v := &Viewer{
		cfg:      cfg,
		log:      deps.Log.Named("viewer"),
		scene:    scene.New(),
		renderer: deps.Renderer,
		assets:   deps.Assets,
		events:   deps.Events,
		clock:    deps.Clock,
		onDraw:   deps.OnDraw,
		width:    cfg.Renderer.Width,
		height:   cfg.Renderer.Height,
	}
	if v.assets == nil {
		v.assets = assets.NewManager(nil, deps.Log.Named("assets"))
		v.owned = append(v.owned, v.assets.Close)
	}

	if cfg.PolyfillWebVR {
		v.log.Debug("polyfill_webvr has no effect on desktop")
	}

	v.setupCamera(deps.Pose)

	if err := v.setupSphere(); err != nil {
		v.Close()
		return nil, err
	}

	v.frames = deps.Frames
	if v.frames == nil {
		seq, err := video.Open(cfg.ResolvePath(cfg.Video.Src), cfg.Video.FPS, cfg.Video.Loop, v.assets, deps.Log)
		if err != nil {
			v.Close()
			return nil, fmt.Errorf("%w: video: %w", config.ErrConfiguration, err)
		}
		v.frames = seq
	}

	v.loadObjects()

	v.scene.AddLight(lighting.NewPointLight(
		cfg.Light.Position,
		cfg.Light.Color.RGB(),
		cfg.Light.Intensity,
		cfg.Light.Range,
	))

	if cfg.Crosshairs != nil {
		ch, err := crosshairs.New(cfg.Crosshairs, crosshairs.Deps{
			Scene:  v.scene,
			Events: v.events,
			Clock:  v.clock,
			Images: v.loadImage,
			Log:    deps.Log.Named("crosshairs"),
		})
		if err != nil {
			v.Close()
			return nil, err
		}
		v.crosshairs = ch
	}

	if cfg.Audio != nil {
		ac := *cfg.Audio
		ac.Src = cfg.ResolvePath(ac.Src)
		a, err := audio.Setup(&ac, audio.Deps{
			Assets: v.assets,
			Sink:   deps.AudioSink,
			Log:    deps.Log,
		})
		if err != nil {
			v.Close()
			return nil, fmt.Errorf("viewer: %w", err)
		}
		v.audio = a
	} else {
		v.audio = audio.Nop{}
	}

	v.log.Info("viewer ready",
		zap.Bool("vr", cfg.VREnabled),
		zap.String("stereoscopic", cfg.Stereoscopic),
		zap.Int("objects", len(v.objects)),
		zap.Bool("crosshairs", v.crosshairs != nil),
		zap.Bool("audio", cfg.Audio != nil))
	return v, nil
}

func (v *Viewer) setupCamera(pose camera.PoseSource) {
	cc := v.cfg.Camera
	v.camera = camera.NewHeadCamera(cc.FOV, cc.Aspect, cc.Near, cc.Far)
	v.camera.LookAlong(*cc.Direction)
	// the mono pass shows the left eye of stereo sources
	v.camera.Layers.Enable(scene.LayerLeftEye)

	if v.cfg.VREnabled && pose != nil {
		v.controls = camera.NewPoseControls(pose, *cc.Direction)
		v.log.Info("head tracking from headset pose")
		return
	}
	if v.cfg.VREnabled {
		v.log.Warn("vr enabled without a headset pose source, using drag controls")
	}
	v.drag = camera.NewDragControls(*cc.Direction, v.cfg.Controls.DragSensitivity, v.cfg.Controls.KeyTurnRate)
	v.drag.InvertY = v.cfg.Controls.InvertY
	v.controls = v.drag
}

func (v *Viewer) setupSphere() error {
	v.videoTex = scene.NewTexture(nil)
	if v.cfg.Sphere.Hide {
		v.log.Debug("sphere hidden")
		return nil
	}
	sp, err := panorama.Build(v.scene, v.cfg.Stereoscopic, v.cfg.Sphere.Radius, v.cfg.StereoFactors, v.videoTex, v.log)
	if err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	v.sphere = sp
	return nil
}

func (v *Viewer) loadImage(src string) *assets.Handle[image.Image] {
	return assets.Load(v.assets, v.cfg.ResolvePath(src), texture.Decode)
}

// Start begins playback. Frames before Start do nothing.
func (v *Viewer) Start() {
	if v.playing {
		return
	}
	now := v.clock.Now()
	v.playing = true
	v.startTime = now
	v.lastFrame = now
	v.frames.Start(now)
	d := v.camera.Direction()
	v.log.Info("playback started", zap.Float32s("direction", []float32{d.X, d.Y, d.Z}))
}

// Playing reports whether Start was called.
func (v *Viewer) Playing() bool { return v.playing }

// Frame runs one tick at now.
func (v *Viewer) Frame(now time.Time) {
	if !v.playing {
		return
	}
	dt := float32(now.Sub(v.lastFrame).Seconds())
	if dt < 0 {
		dt = 0
	}
	v.lastFrame = now
	v.counter++

	v.controls.Update(v.camera, dt)
	gaze := v.camera.Direction()
	if v.cfg.Debug && v.counter%debugEvery == 0 {
		v.log.Debug("gaze", zap.Float32s("direction", []float32{gaze.X, gaze.Y, gaze.Z}))
	}

	v.pollObjects()
	v.updateFollowers(gaze, now)

	if img, ok := v.frames.Frame(now); ok {
		v.videoTex.SetImage(img)
	}

	v.applyResize()
	v.render()

	v.audio.ChangeOrientation(gaze)
	if v.crosshairs != nil {
		v.crosshairs.Update(gaze)
	}

	if v.onDraw != nil {
		v.onDraw()
	}
}

func (v *Viewer) render() {
	if v.renderer == nil {
		return
	}
	proj := v.camera.ProjectionMatrix()
	pos := v.camera.Position

	if v.cfg.VREnabled && !v.stereoError {
		half := v.cfg.Camera.IPD / 2
		def := scene.LayerMask(scene.LayerDefault)
		left := scene.View{
			View:       v.camera.EyeViewMatrix(-half),
			Projection: proj,
			CameraPos:  pos,
			Layers:     def | scene.LayerMask(scene.LayerLeftEye),
		}
		right := scene.View{
			View:       v.camera.EyeViewMatrix(half),
			Projection: proj,
			CameraPos:  pos,
			Layers:     def | scene.LayerMask(scene.LayerRightEye),
		}
		err := v.renderer.RenderStereo(v.scene, left, right)
		if err == nil {
			return
		}
		v.stereoError = true
		v.log.Error("stereo rendering failed, falling back to mono", zap.Error(err))
	}

	v.renderer.Render(v.scene, scene.View{
		View:       v.camera.ViewMatrix(),
		Projection: proj,
		CameraPos:  pos,
		Layers:     v.camera.Layers,
	})
}

// Run starts playback and ticks until ctx ends or the host stops.
func (v *Viewer) Run(ctx context.Context, host Host) error {
	v.Start()

	frameCount := 0
	fpsTimer := v.clock.Now()
	var minFrame time.Duration
	if v.cfg.Renderer.FPSLimit > 0 {
		minFrame = time.Second / time.Duration(v.cfg.Renderer.FPSLimit)
	}

	v.log.Info("starting frame loop")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frameStart := v.clock.Now()
		if !host.Poll(v) {
			return nil
		}

		v.Frame(frameStart)
		host.Present()

		frameCount++
		now := v.clock.Now()
		if now.Sub(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = now
		}

		if minFrame > 0 {
			if spent := now.Sub(frameStart); spent < minFrame {
				time.Sleep(minFrame - spent)
			}
		}
	}
}

// Resize records a new drawable size. The camera and renderer pick it up
// on the next frame.
func (v *Viewer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.pendingW, v.pendingH = width, height
}

func (v *Viewer) applyResize() {
	if v.pendingW == 0 || (v.pendingW == v.width && v.pendingH == v.height) {
		return
	}
	v.width, v.height = v.pendingW, v.pendingH
	v.cfg.Renderer.Width, v.cfg.Renderer.Height = v.width, v.height
	v.camera.SetAspect(v.width, v.height)
	if v.renderer != nil {
		v.renderer.Resize(v.width, v.height)
	}
	v.log.Info("viewport resized", zap.Int("width", v.width), zap.Int("height", v.height))
}

// UpdateGeometry shifts a stereo calibration parameter. See
// panorama.Sphere.UpdateGeometry.
func (v *Viewer) UpdateGeometry(param string, delta float32) error {
	if v.sphere == nil {
		return ErrNoSphere
	}
	return v.sphere.UpdateGeometry(param, delta)
}

// Close releases the soundtrack, the crosshair nodes and owned loaders.
func (v *Viewer) Close() {
	if v.crosshairs != nil {
		v.crosshairs.Close()
		v.crosshairs = nil
	}
	if v.audio != nil {
		v.audio.Close()
		v.audio = nil
	}
	for i := len(v.owned) - 1; i >= 0; i-- {
		v.owned[i]()
	}
	v.owned = nil
	v.playing = false
}

// Scene returns the scene graph.
func (v *Viewer) Scene() *scene.Scene { return v.scene }

// Camera returns the head camera.
func (v *Viewer) Camera() *camera.HeadCamera { return v.camera }

// Drag returns the drag controls, or nil when a headset drives the camera.
func (v *Viewer) Drag() *camera.DragControls { return v.drag }

// Sphere returns the panoramic sphere, or nil when hidden.
func (v *Viewer) Sphere() *panorama.Sphere { return v.sphere }

// Crosshairs returns the gaze selector, or nil when not configured.
func (v *Viewer) Crosshairs() *crosshairs.Crosshairs { return v.crosshairs }

// Audio returns the soundtrack adapter.
func (v *Viewer) Audio() audio.Adapter { return v.audio }

// VideoTexture returns the sphere texture.
func (v *Viewer) VideoTexture() *scene.Texture { return v.videoTex }

// Size returns the current drawable size.
func (v *Viewer) Size() (int, int) { return v.width, v.height }
