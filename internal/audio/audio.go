// Package audio plays the soundtrack of a scene and keeps it aligned with
// the viewing direction. A positional source is panned against the gaze;
// an ambisonic B-format recording is rotated and decoded to binaural
// stereo.
package audio

import (
	"fmt"
	"sync"

	"github.com/gopxl/beep/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/assets"
	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/pkg/math"
)

// DefaultSampleRate is the output rate used when the adapter opens the
// speaker itself.
const DefaultSampleRate = beep.SampleRate(44100)

// Status reports where an adapter is in its lifecycle.
type Status int

const (
	Loading Status = iota
	Playing
	Silent
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Silent:
		return "silent"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Adapter is the per-frame interface the viewer drives.
type Adapter interface {
	// ChangeOrientation updates the listener for the current gaze. It also
	// starts playback on the first call that sees the audio loaded.
	ChangeOrientation(gaze math.Vec3)
	Status() Status
	Close()
}

// Deps are the collaborators of an adapter. Nil Assets and Sink are
// created by Setup and released by Close.
type Deps struct {
	Assets *assets.Manager
	Sink   Sink
	Log    *zap.Logger
}

// Setup builds the adapter for cfg. A nil cfg yields a silent adapter.
func Setup(cfg *config.AudioConfig, deps Deps) (Adapter, error) {
	if cfg == nil {
		return Nop{}, nil
	}
	switch cfg.Type {
	case config.AudioPositional, config.AudioAmbisonic:
	default:
		return nil, fmt.Errorf("%w: unknown audio type %q", config.ErrConfiguration, cfg.Type)
	}
	if cfg.Src == "" {
		return nil, fmt.Errorf("%w: audio.src is required", config.ErrConfiguration)
	}

	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	log := deps.Log.Named("audio")

	var owned []func()
	if deps.Sink == nil {
		sink, err := NewSpeakerSink(DefaultSampleRate)
		if err != nil {
			return nil, err
		}
		deps.Sink = sink
		owned = append(owned, sink.Close)
	}
	if deps.Assets == nil {
		m := assets.NewManager(nil, log)
		deps.Assets = m
		owned = append(owned, m.Close)
	}

	b := base{
		cfg:   *cfg,
		sink:  deps.Sink,
		log:   log,
		owned: owned,
	}
	if b.cfg.Gain == 0 {
		b.cfg.Gain = 1
	}

	log.Info("audio setup", zap.String("type", cfg.Type), zap.String("src", cfg.Src))

	if cfg.Type == config.AudioPositional {
		p := &Positional{base: b}
		p.handle = assets.Load(deps.Assets, cfg.Src, decodeClip)
		return p, nil
	}
	a := &Ambisonic{base: b, rotator: NewRotator()}
	a.handle = assets.Load(deps.Assets, cfg.Src, DecodeBFormat)
	return a, nil
}

// base holds what both modes share: the sink, the playback control and the
// load bookkeeping.
type base struct {
	cfg  config.AudioConfig
	sink Sink
	log  *zap.Logger

	mu     sync.Mutex
	status Status
	ctrl   *beep.Ctrl
	owned  []func()
}

func (b *base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// poll moves the adapter out of Loading once the handle settles. start is
// called with the decoded value and returns the stream to play.
func poll[T any](b *base, h *assets.Handle[T], start func(T) (beep.Streamer, error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != Loading {
		return
	}

	switch h.State() {
	case assets.Pending:
		return
	case assets.Failed:
		b.status = Silent
		b.log.Warn("audio unavailable", zap.String("src", b.cfg.Src), zap.Error(h.Err()))
		return
	}

	v, _ := h.Value()
	s, err := start(v)
	if err != nil {
		b.status = Silent
		b.log.Warn("audio unavailable", zap.String("src", b.cfg.Src), zap.Error(err))
		return
	}

	b.ctrl = &beep.Ctrl{Streamer: s}
	b.sink.Play(b.ctrl)
	b.status = Playing
	b.log.Info("audio playing", zap.String("src", b.cfg.Src))
}

// resample converts s to the sink rate when needed.
func (b *base) resample(rate beep.SampleRate, s beep.Streamer) beep.Streamer {
	if rate == b.sink.SampleRate() {
		return s
	}
	return beep.Resample(4, rate, b.sink.SampleRate(), s)
}

// Close stops playback and releases what Setup created.
func (b *base) Close() {
	b.mu.Lock()
	if b.ctrl != nil {
		b.sink.Lock()
		b.ctrl.Streamer = nil
		b.sink.Unlock()
		b.ctrl = nil
	}
	b.status = Silent
	owned := b.owned
	b.owned = nil
	b.mu.Unlock()

	for i := len(owned) - 1; i >= 0; i-- {
		owned[i]()
	}
}

// Nop is the adapter used when a scene has no soundtrack.
type Nop struct{}

func (Nop) ChangeOrientation(math.Vec3) {}
func (Nop) Status() Status               { return Silent }
func (Nop) Close()                       {}
