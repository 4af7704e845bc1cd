// Package main is the entry point for the Veri panoramic video viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/engine/debug"
	"github.com/Faultbox/veri/internal/engine/renderer"
	"github.com/Faultbox/veri/internal/engine/window"
	"github.com/Faultbox/veri/internal/events"
	"github.com/Faultbox/veri/internal/host"
	"github.com/Faultbox/veri/internal/logger"
	"github.com/Faultbox/veri/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewDefault(cfg.Logging.Level, cfg.Logging.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	log.Info("=== Veri ===")
	log.Sugar().Debugf("Config: %+v", cfg)

	if err := run(cfg, log); err != nil {
		log.Error("viewer error", zap.Error(err))
		logger.Sync(log)
		os.Exit(1)
	}
	log.Info("viewer closed normally")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	win, err := window.New(window.Config{
		Title:      "Veri",
		Width:      cfg.Renderer.Width,
		Height:     cfg.Renderer.Height,
		Fullscreen: cfg.Renderer.Fullscreen,
		VSync:      cfg.Renderer.VSync,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Close()

	// high-DPI displays draw more pixels than the window reports
	width, height := win.DrawableSize()
	cfg.Renderer.Width, cfg.Renderer.Height = width, height

	// Renderer must come after the window, it needs the GL context
	r, err := renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: cfg.Renderer.ClearColor.RGB(),
		Ambient:    [3]float32{0.25, 0.25, 0.25},
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer r.Close()

	bus := events.NewBus()
	bus.SubscribeAll(func(ev events.Event) {
		log.Info("crosshairs event",
			zap.Stringer("kind", ev.Kind),
			zap.String("target", ev.TargetID))
	})

	// no headset pose source on desktop: vr_enabled renders stereo and
	// the viewer falls back to drag controls
	v, err := viewer.New(cfg, viewer.Deps{
		Renderer: r,
		Events:   bus,
		Log:      log,
	})
	if err != nil {
		return err
	}
	defer v.Close()

	shots := debug.NewScreenshotCapture(cfg.ResolvePath(cfg.ScreenshotDir), "veri", nil)
	h := host.New(win, r, shots, log)

	if err := v.Run(ctx, h); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
