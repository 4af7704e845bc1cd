// veri-tool checks and inspects viewer configurations without opening a
// window.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/crosshairs"
	"github.com/Faultbox/veri/internal/engine/camera"
	"github.com/Faultbox/veri/internal/engine/panorama"
	"github.com/Faultbox/veri/internal/engine/video"
	"github.com/Faultbox/veri/pkg/formats"
	"github.com/Faultbox/veri/pkg/math"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "veri-tool",
		Short: "Veri configuration utility",
		Long: `veri-tool - offline checks for Veri viewer configurations

Examples:
  veri-tool validate scene.yaml
  veri-tool targets scene.yaml
  veri-tool uvmap scene.yaml --mode left-to-right`,
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Resolve a config and check that its resources exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0])
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "targets <config.yaml>",
		Short: "List the resolved crosshair targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(cmd.OutOrStdout(), args[0])
		},
	})

	var mode string
	uvmap := &cobra.Command{
		Use:   "uvmap <config.yaml>",
		Short: "Show how each eye maps the corners of the video frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUVMap(cmd.OutOrStdout(), args[0], mode)
		},
	}
	uvmap.Flags().StringVar(&mode, "mode", "", "Stereo layout to show (default: the configured one)")
	root.AddCommand(uvmap)

	return root
}

func runValidate(w io.Writer, path string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	var problems []string
	frames, err := video.ResolveFrames(cfg.ResolvePath(cfg.Video.Src))
	if err != nil {
		problems = append(problems, fmt.Sprintf("video: %v", err))
	}

	names := sortedObjects(cfg)
	for _, name := range names {
		res := cfg.ResolvePath(cfg.Objects[name].Resource)
		if isURL(res) {
			continue
		}
		obj, err := formats.ParseOBJFile(res)
		if err != nil {
			problems = append(problems, fmt.Sprintf("objects.%s: %v", name, err))
			continue
		}
		fmt.Fprintf(w, "object %-16s %d parts, %d faces\n", name, len(obj.Objects), obj.GetTotalFaceCount())
	}

	if cfg.Audio != nil {
		if err := checkFile(cfg.ResolvePath(cfg.Audio.Src)); err != nil {
			problems = append(problems, fmt.Sprintf("audio: %v", err))
		}
	}
	if cfg.Crosshairs != nil {
		for _, src := range spriteSources(cfg.Crosshairs) {
			if err := checkFile(cfg.ResolvePath(src)); err != nil {
				problems = append(problems, fmt.Sprintf("crosshairs sprite: %v", err))
			}
		}
	}

	stereo := cfg.Stereoscopic
	if stereo == "" {
		stereo = "mono"
	}
	fmt.Fprintf(w, "video      %d frames at %g fps (%s)\n", len(frames), cfg.Video.FPS, stereo)
	fmt.Fprintf(w, "objects    %d\n", len(names))
	if cfg.Crosshairs != nil {
		fmt.Fprintf(w, "crosshairs %s, %d targets\n", cfg.Crosshairs.Type, len(cfg.Crosshairs.Targets))
	}
	if cfg.Audio != nil {
		fmt.Fprintf(w, "audio      %s\n", cfg.Audio.Type)
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(w, "problem: %s\n", p)
		}
		return fmt.Errorf("%d problem(s) found", len(problems))
	}
	fmt.Fprintln(w, "ok")
	return nil
}

func runTargets(w io.Writer, path string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if cfg.Crosshairs == nil || len(cfg.Crosshairs.Targets) == 0 {
		fmt.Fprintln(w, "no targets")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDIRECTION\tYAW\tPITCH\tRADIUS\tHIT TIME\tDISABLED")
	targets := cfg.Crosshairs.Targets
	for _, t := range targets {
		d := *t.Direction
		a := camera.YawPitch(d)
		fmt.Fprintf(tw, "%s\t(%.3f, %.3f, %.3f)\t%.1f\t%.1f\t%g°\t%s\t%v\n",
			t.ID, d.X, d.Y, d.Z,
			math.RadToDeg(a.Yaw), math.RadToDeg(a.Pitch),
			t.HitRadius, t.HitTime, t.Disabled)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, pair := range overlaps(targets) {
		fmt.Fprintf(w, "warning: %s and %s overlap\n", pair[0], pair[1])
	}
	return nil
}

// overlaps returns the pairs of enabled targets whose hit cones intersect.
func overlaps(targets []config.TargetConfig) [][2]string {
	var out [][2]string
	for i := range targets {
		for j := i + 1; j < len(targets); j++ {
			a, b := targets[i], targets[j]
			if a.Disabled || b.Disabled {
				continue
			}
			if crosshairs.AngleDegrees(*a.Direction, *b.Direction) < a.HitRadius+b.HitRadius {
				out = append(out, [2]string{a.ID, b.ID})
			}
		}
	}
	return out
}

func runUVMap(w io.Writer, path, mode string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if mode == "" {
		mode = cfg.Stereoscopic
	}
	if mode == config.StereoNone {
		fmt.Fprintln(w, "mono source, no eye mapping")
		return nil
	}
	factors, ok := cfg.StereoFactors[mode]
	if !ok {
		factors, ok = config.DefaultStereoFactors()[mode]
	}
	if !ok {
		return fmt.Errorf("%w: unknown stereoscopic mode %q", config.ErrConfiguration, mode)
	}

	corners := [][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for _, eye := range []struct {
		name string
		f    config.EyeUV
	}{{"left", factors.Left}, {"right", factors.Right}} {
		fmt.Fprintf(w, "%s eye: u*%g%+g  v*%g%+g\n", eye.name, eye.f.XMult, eye.f.XPhase, eye.f.YMult, eye.f.YPhase)
		for _, c := range corners {
			u, v := panorama.MapUV(eye.f, c[0], c[1])
			fmt.Fprintf(w, "  (%g, %g) -> (%.3f, %.3f)\n", c[0], c[1], u, v)
		}
	}
	return nil
}

func sortedObjects(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Objects))
	for name := range cfg.Objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func spriteSources(ch *config.CrosshairsConfig) []string {
	var out []string
	if ch.Sprite != nil {
		out = append(out, ch.Sprite.Src)
	}
	for _, t := range ch.Targets {
		if t.Sprite != nil {
			out = append(out, t.Sprite.Src)
		}
	}
	return out
}

func checkFile(path string) error {
	if isURL(path) {
		return nil
	}
	_, err := os.Stat(path)
	return err
}

func isURL(p string) bool {
	return strings.Contains(p, "://")
}
