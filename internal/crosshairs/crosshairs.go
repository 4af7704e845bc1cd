// Package crosshairs implements gaze selection: it tracks which target the
// viewer is looking at, measures how long the gaze dwells on it and emits
// enter, stay, exit and selected events. Dwell progress is drawn either as
// an animated sprite sheet or as a growing ring.
package crosshairs

import (
	"fmt"
	"image"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/assets"
	"github.com/Faultbox/veri/internal/clock"
	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/internal/engine/scene"
	"github.com/Faultbox/veri/internal/events"
	"github.com/Faultbox/veri/pkg/math"
)

// debugEvery is the number of updates between periodic diagnostics.
const debugEvery = 90

// Phase is the coarse state of the selection machine after an update.
type Phase int

const (
	Idle Phase = iota
	Entering
	Dwelling
	Selected
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Entering:
		return "entering"
	case Dwelling:
		return "dwelling"
	case Selected:
		return "selected"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Target is a resolved gaze destination.
type Target struct {
	ID        string
	Disabled  bool
	Direction math.Vec3
	HitRadius float32 // degrees
	HitTime   time.Duration

	sprite *Sprite
}

// HitState is the dwell bookkeeping. LastTarget is empty and HitStart is
// zero when no target is being dwelt on.
type HitState struct {
	LastTarget string
	HitStart   time.Time
	HitPercent float64
}

// SceneGraph is the part of the scene the crosshairs draw into.
type SceneGraph interface {
	Add(*scene.Node)
	Remove(*scene.Node) bool
}

// ImageLoader starts loading an image and returns its handle.
type ImageLoader func(src string) *assets.Handle[image.Image]

// Deps are the collaborators injected by the viewer.
type Deps struct {
	Scene  SceneGraph
	Events events.Publisher
	Clock  clock.Clock
	Images ImageLoader
	Log    *zap.Logger
}

// Crosshairs is the gaze selection state machine.
type Crosshairs struct {
	mode    string
	debug   bool
	targets []Target
	sprite  *Sprite // crosshair sprite, optional in animated-crosshairs mode
	ring    *ring

	scene  SceneGraph
	events events.Publisher
	clock  clock.Clock
	images ImageLoader
	log    *zap.Logger

	state   HitState
	active  int // index of the target evaluated active this update, -1 if none
	phase   Phase
	counter int
}

// New builds the crosshairs from a configuration block. An unknown mode or
// an unresolvable target fails with config.ErrConfiguration.
func New(cfg *config.CrosshairsConfig, deps Deps) (*Crosshairs, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: crosshairs config is nil", config.ErrConfiguration)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, fmt.Errorf("crosshairs: %w", err)
	}

	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	c := &Crosshairs{
		mode:   cfg.Type,
		debug:  cfg.Debug,
		scene:  deps.Scene,
		events: deps.Events,
		clock:  deps.Clock,
		images: deps.Images,
		log:    deps.Log,
		active: -1,
	}

	for _, tc := range cfg.Targets {
		t := Target{
			ID:        tc.ID,
			Disabled:  tc.Disabled,
			Direction: *tc.Direction,
			HitRadius: tc.HitRadius,
			HitTime:   tc.HitTime.Std(),
		}
		if tc.Sprite != nil && cfg.Type == config.CrosshairsButtons {
			t.sprite = newSprite(tc.ID, tc.Sprite)
		}
		c.targets = append(c.targets, t)
	}

	if cfg.Sprite != nil {
		c.sprite = newSprite("crosshairs", cfg.Sprite)
	} else {
		c.ring = &ring{}
	}

	c.log.Info("crosshairs ready",
		zap.String("mode", c.mode),
		zap.Int("targets", len(c.targets)),
		zap.Bool("sprite", c.sprite != nil))
	return c, nil
}

// State returns the current hit state.
func (c *Crosshairs) State() HitState { return c.state }

// Phase returns the machine phase reached by the last update.
func (c *Crosshairs) Phase() Phase { return c.phase }

// Targets returns a copy of the resolved targets.
func (c *Crosshairs) Targets() []Target {
	out := make([]Target, len(c.targets))
	copy(out, c.targets)
	return out
}

// SetDisabled enables or disables a target at run time. It reports whether
// the target exists.
func (c *Crosshairs) SetDisabled(id string, disabled bool) bool {
	for i := range c.targets {
		if c.targets[i].ID == id {
			c.targets[i].Disabled = disabled
			return true
		}
	}
	return false
}

// Update runs one step of the state machine for the current gaze direction
// and refreshes the dwell visuals.
func (c *Crosshairs) Update(gaze math.Vec3) {
	c.counter++
	now := c.clock.Now()
	gaze = gaze.Normalize()

	next := c.evaluate(gaze)
	c.active = next
	c.transition(next, now)

	switch c.mode {
	case config.CrosshairsButtons:
		for i := range c.targets {
			t := &c.targets[i]
			percent := 0.0
			if i == c.active {
				percent = c.state.HitPercent
			}
			if t.sprite != nil {
				t.sprite.update(c, percent, t.sprite.direction)
			}
		}
		if c.sprite != nil {
			c.sprite.update(c, 0, &gaze)
		}
	case config.CrosshairsAnimated:
		if c.sprite != nil {
			c.sprite.update(c, c.state.HitPercent, &gaze)
		} else {
			c.ring.update(c, c.state.HitPercent, gaze)
		}
	}
}

// evaluate returns the index of the active target or -1. Several targets
// inside their radius is reported as a warning and resolved to the closest.
func (c *Crosshairs) evaluate(gaze math.Vec3) int {
	best := -1
	var bestAngle float32
	var hits []string

	for i := range c.targets {
		t := &c.targets[i]
		if t.Disabled {
			continue
		}
		angle := AngleDegrees(gaze, t.Direction)

		if c.counter%debugEvery == 0 {
			c.log.Debug("angle to target",
				zap.String("target", t.ID),
				zap.Float32("degrees", angle))
		}

		if angle > t.HitRadius {
			continue
		}
		hits = append(hits, t.ID)
		if best < 0 || angle < bestAngle {
			best, bestAngle = i, angle
		}
	}

	if len(hits) > 1 {
		c.log.Warn("overlapping targets",
			zap.Strings("targets", hits),
			zap.String("chosen", c.targets[best].ID))
	}
	return best
}

func (c *Crosshairs) transition(next int, now time.Time) {
	c.state.HitPercent = 0
	nextID := ""
	if next >= 0 {
		nextID = c.targets[next].ID
	}
	last := c.state.LastTarget

	switch {
	case nextID == "" && last == "":
		c.phase = Idle

	case nextID != "" && last == "":
		c.publish(events.TargetEnter, nextID, now)
		c.state.HitStart = now
		c.phase = Entering

	case nextID == "" && last != "":
		c.publish(events.TargetExit, last, now)
		c.state.HitStart = time.Time{}
		c.phase = Idle

	case nextID != last:
		// gaze jumped straight from one target to another
		c.publish(events.TargetExit, last, now)
		c.publish(events.TargetEnter, nextID, now)
		c.state.HitStart = now
		c.phase = Entering

	default:
		c.publish(events.TargetStay, nextID, now)
		hitTime := c.targets[next].HitTime
		elapsed := now.Sub(c.state.HitStart)
		if elapsed < hitTime {
			c.state.HitPercent = float64(elapsed) / float64(hitTime)
			c.phase = Dwelling
		} else {
			c.publish(events.TargetSelected, nextID, now)
			c.log.Info("target selected", zap.String("target", nextID))
			c.state.HitStart = time.Time{}
			c.state.HitPercent = 1
			c.phase = Selected
			nextID = ""
		}
	}

	c.state.LastTarget = nextID
}

func (c *Crosshairs) publish(kind events.Kind, id string, now time.Time) {
	if c.events == nil {
		return
	}
	c.events.Publish(events.Event{Kind: kind, TargetID: id, Time: now})
}

// Close removes the crosshair nodes from the scene.
func (c *Crosshairs) Close() {
	if c.scene == nil {
		return
	}
	for i := range c.targets {
		if s := c.targets[i].sprite; s != nil && s.node != nil {
			c.scene.Remove(s.node)
		}
	}
	if c.sprite != nil && c.sprite.node != nil {
		c.scene.Remove(c.sprite.node)
	}
	if c.ring != nil && c.ring.node != nil {
		c.scene.Remove(c.ring.node)
	}
}

// AngleDegrees returns the angle between two directions in degrees,
// truncated to a tenth of a degree.
func AngleDegrees(a, b math.Vec3) float32 {
	return math32.Floor(math.RadToDeg(a.AngleTo(b))*10) / 10
}
