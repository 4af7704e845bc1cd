// Package video supplies panoramic frames from still images: a single file,
// a directory of numbered frames or a glob pattern. Frames are decoded in
// the background through the asset loader and shown at a fixed rate.
package video

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/veri/internal/assets"
	"github.com/Faultbox/veri/internal/engine/texture"
)

// ErrNoFrames is returned when a source matches no image files.
var ErrNoFrames = errors.New("no video frames")

var frameExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tga":  true,
}

// ResolveFrames expands a video source into an ordered list of frame paths.
// URLs are returned as a single frame.
func ResolveFrames(src string) ([]string, error) {
	if strings.Contains(src, "://") {
		return []string{src}, nil
	}

	if strings.ContainsAny(src, "*?[") {
		matches, err := filepath.Glob(src)
		if err != nil {
			return nil, fmt.Errorf("video pattern %q: %w", src, err)
		}
		frames := filterFrames(matches)
		if len(frames) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoFrames, src)
		}
		return frames, nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("video source: %w", err)
	}
	if !info.IsDir() {
		return []string{src}, nil
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("video directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() {
			paths = append(paths, filepath.Join(src, e.Name()))
		}
	}
	frames := filterFrames(paths)
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, src)
	}
	return frames, nil
}

func filterFrames(paths []string) []string {
	var out []string
	for _, p := range paths {
		if frameExts[strings.ToLower(filepath.Ext(p))] {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Sequence plays a list of frames.
type Sequence struct {
	paths  []string
	fps    float64
	loop   bool
	assets *assets.Manager
	log    *zap.Logger

	start   time.Time
	started bool
	shown   int

	handles map[int]*assets.Handle[image.Image]
	failed  map[int]bool
}

// NewSequence creates a sequence over paths. fps <= 0 means 30.
func NewSequence(paths []string, fps float64, loop bool, m *assets.Manager, log *zap.Logger) *Sequence {
	if fps <= 0 {
		fps = 30
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sequence{
		paths:   paths,
		fps:     fps,
		loop:    loop,
		assets:  m,
		log:     log.Named("video"),
		shown:   -1,
		handles: make(map[int]*assets.Handle[image.Image]),
		failed:  make(map[int]bool),
	}
}

// Open resolves src and creates a sequence over its frames.
func Open(src string, fps float64, loop bool, m *assets.Manager, log *zap.Logger) (*Sequence, error) {
	paths, err := ResolveFrames(src)
	if err != nil {
		return nil, err
	}
	s := NewSequence(paths, fps, loop, m, log)
	s.log.Info("video source opened",
		zap.String("src", src),
		zap.Int("frames", len(paths)),
		zap.Float64("fps", s.fps))
	return s, nil
}

// Len returns the number of frames.
func (s *Sequence) Len() int { return len(s.paths) }

// Start begins playback at now and requests the first frames.
func (s *Sequence) Start(now time.Time) {
	s.start = now
	s.started = true
	s.request(0)
	s.request(s.next(0))
}

// Index returns the frame due at now. Without looping the last frame
// stays up.
func (s *Sequence) Index(now time.Time) int {
	if !s.started || len(s.paths) == 0 {
		return 0
	}
	elapsed := now.Sub(s.start).Seconds()
	if elapsed < 0 {
		return 0
	}
	idx := int(elapsed * s.fps)
	if s.loop {
		return idx % len(s.paths)
	}
	return min(idx, len(s.paths)-1)
}

// Frame returns the frame due at now when it differs from the one last
// returned. While the due frame is still decoding the previous one stays up
// and ok is false.
func (s *Sequence) Frame(now time.Time) (image.Image, bool) {
	if len(s.paths) == 0 {
		return nil, false
	}
	idx := s.Index(now)
	if idx == s.shown {
		return nil, false
	}

	h := s.request(idx)
	s.request(s.next(idx))

	switch h.State() {
	case assets.Ready:
		img, _ := h.Value()
		s.shown = idx
		s.release(idx)
		return img, true
	case assets.Failed:
		if !s.failed[idx] {
			s.failed[idx] = true
			s.log.Warn("video frame unavailable",
				zap.String("path", h.Path()),
				zap.Error(h.Err()))
		}
	}
	return nil, false
}

func (s *Sequence) next(idx int) int {
	if idx+1 < len(s.paths) {
		return idx + 1
	}
	if s.loop {
		return 0
	}
	return idx
}

func (s *Sequence) request(idx int) *assets.Handle[image.Image] {
	if h, ok := s.handles[idx]; ok {
		return h
	}
	h := assets.LoadUncached(s.assets, s.paths[idx], texture.Decode)
	s.handles[idx] = h
	return h
}

// release drops handles other than the shown frame and the one after it.
func (s *Sequence) release(idx int) {
	keep := s.next(idx)
	for i := range s.handles {
		if i != idx && i != keep {
			delete(s.handles, i)
		}
	}
}
