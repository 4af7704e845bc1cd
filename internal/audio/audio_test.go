package audio

import (
	"context"
	"errors"
	stdmath "math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2"

	"github.com/Faultbox/veri/internal/assets"
	"github.com/Faultbox/veri/internal/config"
	"github.com/Faultbox/veri/pkg/math"
)

const testRate = 8000

type recordingSink struct {
	mu      sync.Mutex
	streams []beep.Streamer
}

func (s *recordingSink) SampleRate() beep.SampleRate { return testRate }
func (s *recordingSink) Lock()                       { s.mu.Lock() }
func (s *recordingSink) Unlock()                     { s.mu.Unlock() }

func (s *recordingSink) Play(st beep.Streamer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams = append(s.streams, st)
}

func (s *recordingSink) pull(t *testing.T, n int) ([][2]float64, bool) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.streams) != 1 {
		t.Fatalf("sink has %d streams, want 1", len(s.streams))
	}
	buf := make([][2]float64, n)
	got, ok := s.streams[0].Stream(buf)
	return buf[:got], ok
}

func encodeWAV(t *testing.T, channels int, data []int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, testRate, 16, channels, 1)
	err = enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: testRate},
		Data:           data,
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func serve(files map[string][]byte) *assets.Manager {
	return assets.NewManager(assets.FetcherFunc(func(_ context.Context, path string) ([]byte, error) {
		data, ok := files[path]
		if !ok {
			return nil, errors.New("not found")
		}
		return data, nil
	}), nil)
}

func wait[T any](t *testing.T, h *assets.Handle[T]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = h.Wait(ctx)
}

func near(a, b, eps float64) bool { return stdmath.Abs(a-b) <= eps }

// bformatFrames returns n frames of a source straight ahead: W and X at
// half scale.
func bformatFrames(n int) []int {
	data := make([]int, 0, n*4)
	for i := 0; i < n; i++ {
		data = append(data, 16384, 16384, 0, 0)
	}
	return data
}

func TestYawFromGaze(t *testing.T) {
	tests := []struct {
		gaze math.Vec3
		want float64
	}{
		{math.Vec3{X: 1}, 0},
		{math.Vec3{Z: -1}, 90},
		{math.Vec3{Z: 1}, -90},
		{math.Vec3{X: -1}, 180},
		{math.Vec3{Y: -0.5, Z: -1}, 90},
		{math.Vec3{X: 1, Z: -1}, 45},
	}
	for _, tt := range tests {
		if got := YawFromGaze(tt.gaze); !near(got, tt.want, 1e-3) {
			t.Errorf("YawFromGaze(%v) = %v, want %v", tt.gaze, got, tt.want)
		}
	}
}

func TestFuMaToACN(t *testing.T) {
	got := FuMaToACN([4]float64{1, 2, 3, 4})
	want := [4]float64{stdmath.Sqrt2, 3, 4, 2}
	for i := range want {
		if !near(got[i], want[i], 1e-12) {
			t.Fatalf("FuMaToACN = %v, want %v", got, want)
		}
	}
}

func TestRotatorKeepsSourcesInWorld(t *testing.T) {
	r := NewRotator()
	front := [4]float64{1, 0, 0, 1} // ACN: W, Y, Z, X

	got := Rotate(r.Matrix(), front)
	if got != front {
		t.Fatalf("identity rotation changed frame: %v", got)
	}

	// turning the head left puts a front source on the right
	r.Yaw = 90
	r.UpdateRotMtx()
	got = Rotate(r.Matrix(), front)
	if !near(got[1], -1, 1e-9) || !near(got[3], 0, 1e-9) {
		t.Errorf("after yaw 90: Y=%v X=%v, want Y=-1 X=0", got[1], got[3])
	}
	if got[0] != 1 {
		t.Errorf("W changed to %v", got[0])
	}

	// matrix is only recomputed on UpdateRotMtx
	r.Yaw = 0
	if m := r.Matrix(); !near(m[0][0], 0, 1e-9) {
		t.Errorf("matrix changed before UpdateRotMtx")
	}
}

func TestDecodeBinaural(t *testing.T) {
	l, r := DecodeBinaural([4]float64{1, 1, 0, 0})
	if l != 1 || r != 0 {
		t.Errorf("left source decoded to (%v, %v), want (1, 0)", l, r)
	}
	l, r = DecodeBinaural([4]float64{1, 0, 0, 1})
	if l != r {
		t.Errorf("front source decoded to (%v, %v), want balanced", l, r)
	}
}

func TestDecodeBFormat(t *testing.T) {
	b, err := DecodeBFormat(encodeWAV(t, 4, bformatFrames(10)))
	if err != nil {
		t.Fatalf("DecodeBFormat() error = %v", err)
	}
	if len(b.Frames) != 10 {
		t.Fatalf("frames = %d, want 10", len(b.Frames))
	}
	if b.Rate != testRate {
		t.Errorf("rate = %v, want %v", b.Rate, testRate)
	}
	if f := b.Frames[3]; !near(f[0], 0.5, 1e-9) || !near(f[1], 0.5, 1e-9) || f[2] != 0 {
		t.Errorf("frame = %v, want W=X=0.5", f)
	}

	_, err = DecodeBFormat(encodeWAV(t, 2, []int{1, 2, 3, 4}))
	if !errors.Is(err, ErrChannels) {
		t.Errorf("stereo file error = %v, want ErrChannels", err)
	}

	if _, err := DecodeBFormat([]byte("nope")); err == nil {
		t.Error("garbage decoded without error")
	}
}

func TestSpatialize(t *testing.T) {
	ahead := math.Vec3{Z: -1}
	full := 1 - 9.0/99.0 // 10 units away with max distance 100

	tests := []struct {
		name    string
		pos     math.Vec3
		forward math.Vec3
		gain    float64
		pan     float64
		maxDist float32
	}{
		{"ahead", math.Vec3{Z: -10}, ahead, full, 0, 100},
		{"right", math.Vec3{X: 10}, ahead, full, 1, 100},
		{"left", math.Vec3{X: -10}, ahead, full, -1, 100},
		{"behind", math.Vec3{Z: 10}, ahead, full * rearGain, 0, 100},
		{"out of range", math.Vec3{Z: -200}, ahead, 0, 0, 100},
		{"close", math.Vec3{Z: -0.5}, ahead, 1, 0, 100},
		{"turned right", math.Vec3{Z: -10}, math.Vec3{X: 1}, full, -1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gain, pan := Spatialize(tt.pos, tt.forward, tt.maxDist)
			if !near(gain, tt.gain, 1e-5) {
				t.Errorf("gain = %v, want %v", gain, tt.gain)
			}
			if !near(pan, tt.pan, 1e-5) {
				t.Errorf("pan = %v, want %v", pan, tt.pan)
			}
		})
	}
}

func TestSetupErrors(t *testing.T) {
	a, err := Setup(nil, Deps{})
	if err != nil || a.Status() != Silent {
		t.Fatalf("Setup(nil) = %v, %v; want silent adapter", a, err)
	}

	_, err = Setup(&config.AudioConfig{Type: "surround", Src: "a.wav"}, Deps{Sink: &recordingSink{}})
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("unknown type error = %v, want ErrConfiguration", err)
	}
	_, err = Setup(&config.AudioConfig{Type: config.AudioPositional}, Deps{Sink: &recordingSink{}})
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("missing src error = %v, want ErrConfiguration", err)
	}
}

func TestPositionalPlayback(t *testing.T) {
	mono := make([]int, 400)
	for i := range mono {
		mono[i] = 8000
	}
	m := serve(map[string][]byte{"rain.wav": encodeWAV(t, 1, mono)})
	defer m.Close()
	sink := &recordingSink{}

	a, err := Setup(&config.AudioConfig{
		Type:        config.AudioPositional,
		Src:         "rain.wav",
		Position:    math.Vec3{X: 10},
		Gain:        0.5,
		MaxDistance: 100,
	}, Deps{Assets: m, Sink: sink})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	p := a.(*Positional)
	if p.Status() != Loading {
		t.Fatalf("status before load = %v, want loading", p.Status())
	}
	wait(t, p.handle)

	p.ChangeOrientation(math.Vec3{Z: -1})
	if p.Status() != Playing {
		t.Fatalf("status = %v, want playing", p.Status())
	}

	gain, pan := p.Levels()
	if !near(gain, 0.5*(1-9.0/99.0), 1e-6) || !near(pan, 1, 1e-6) {
		t.Errorf("levels = (%v, %v), want source on the right", gain, pan)
	}

	// loops past the end of the 400 sample clip
	samples, ok := sink.pull(t, 1000)
	if !ok || len(samples) != 1000 {
		t.Fatalf("pulled %d samples ok=%v, want 1000", len(samples), ok)
	}
	last := samples[999]
	if last[0] != 0 || last[1] <= 0 {
		t.Errorf("sample = %v, want right channel only", last)
	}

	p.ChangeOrientation(math.Vec3{X: 1})
	if _, pan := p.Levels(); !near(pan, 0, 1e-6) {
		t.Errorf("pan facing the source = %v, want 0", pan)
	}

	a.Close()
	if _, ok := sink.pull(t, 10); ok {
		t.Error("stream still playing after Close")
	}
	if a.Status() != Silent {
		t.Errorf("status after Close = %v, want silent", a.Status())
	}
}

func TestAmbisonicPlayback(t *testing.T) {
	m := serve(map[string][]byte{"scene.wav": encodeWAV(t, 4, bformatFrames(100))})
	defer m.Close()
	sink := &recordingSink{}

	a, err := Setup(&config.AudioConfig{Type: config.AudioAmbisonic, Src: "scene.wav"}, Deps{Assets: m, Sink: sink})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	amb := a.(*Ambisonic)
	wait(t, amb.handle)

	// facing the recording's front
	amb.ChangeOrientation(math.Vec3{X: 1})
	if amb.Status() != Playing {
		t.Fatalf("status = %v, want playing", amb.Status())
	}
	samples, _ := sink.pull(t, 10)
	if s := samples[0]; !near(s[0], s[1], 1e-9) || s[0] <= 0 {
		t.Errorf("front source = %v, want balanced", s)
	}

	// a quarter turn left moves the source to the right ear
	amb.ChangeOrientation(math.Vec3{Z: -1})
	if y := amb.Rotator().Yaw; !near(y, 90, 1e-3) {
		t.Errorf("yaw = %v, want 90", y)
	}
	samples, _ = sink.pull(t, 200)
	s := samples[len(samples)-1]
	if s[1] <= s[0] {
		t.Errorf("after turning left = %v, want right louder", s)
	}
	wantR := 0.5 * (0.5*stdmath.Sqrt2 + 0.5)
	if !near(s[1], wantR, 1e-3) {
		t.Errorf("right = %v, want %v", s[1], wantR)
	}
	a.Close()
}

func TestLoadFailureIsSilent(t *testing.T) {
	m := serve(nil)
	defer m.Close()
	sink := &recordingSink{}

	a, err := Setup(&config.AudioConfig{Type: config.AudioAmbisonic, Src: "missing.wav"}, Deps{Assets: m, Sink: sink})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	wait(t, a.(*Ambisonic).handle)

	a.ChangeOrientation(math.Vec3{Z: -1})
	if a.Status() != Silent {
		t.Errorf("status = %v, want silent", a.Status())
	}
	if len(sink.streams) != 0 {
		t.Error("failed load still played")
	}
}
