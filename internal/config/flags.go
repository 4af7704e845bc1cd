package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and crosshair diagnostics")
	flagVR         = flag.Bool("vr", false, "Enable stereo VR rendering (no headset tracking on desktop; drag and arrow keys steer)")
	flagVideo      = flag.String("video", "", "Panoramic frame source (image, directory or glob)")
	flagStereo     = flag.String("stereo", "", "Stereoscopic layout: top-to-bottom or left-to-right")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag
// or as the first positional argument.
func ConfigPath() string {
	if *flagConfig != "" {
		return *flagConfig
	}
	return flag.Arg(0)
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Debug = true
		if cfg.Crosshairs != nil {
			cfg.Crosshairs.Debug = true
		}
	}
	if *flagVR {
		cfg.VREnabled = true
	}
	if *flagVideo != "" {
		cfg.Video.Src = *flagVideo
	}
	if *flagStereo != "" {
		cfg.Stereoscopic = *flagStereo
	}
	if *flagWindowed {
		cfg.Renderer.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Renderer.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Renderer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Renderer.Height = *flagHeight
	}
}
