package audio

import (
	"bytes"
	"errors"
	"fmt"
	stdmath "math"
	"sync"

	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2"

	"github.com/Faultbox/veri/internal/assets"
	"github.com/Faultbox/veri/pkg/math"
)

// ErrChannels is returned for an ambisonic file that is not first-order
// B-format.
var ErrChannels = errors.New("ambisonic source must have 4 channels")

// BFormat is a decoded first-order recording in FuMa channel order
// (W, X, Y, Z).
type BFormat struct {
	Frames [][4]float64
	Rate   beep.SampleRate
}

// DecodeBFormat reads a 4-channel PCM WAV file.
func DecodeBFormat(data []byte) (*BFormat, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels != 4 {
		n := 0
		if buf.Format != nil {
			n = buf.Format.NumChannels
		}
		return nil, fmt.Errorf("%w: got %d", ErrChannels, n)
	}

	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = int(d.BitDepth)
	}
	if depth <= 0 {
		depth = 16
	}
	scale := 1 / float64(int64(1)<<(depth-1))

	frames := make([][4]float64, len(buf.Data)/4)
	for i := range frames {
		for ch := 0; ch < 4; ch++ {
			frames[i][ch] = float64(buf.Data[i*4+ch]) * scale
		}
	}
	return &BFormat{Frames: frames, Rate: beep.SampleRate(buf.Format.SampleRate)}, nil
}

// FuMaToACN converts a FuMa frame (W, X, Y, Z) to ACN order with SN3D
// weighting (W, Y, Z, X).
func FuMaToACN(f [4]float64) [4]float64 {
	return [4]float64{f[0] * stdmath.Sqrt2, f[2], f[3], f[1]}
}

// Rotator turns a first-order sound field against the listener's head.
// Yaw, Pitch and Roll are head angles in degrees (positive yaw turns left);
// the field is turned the opposite way so sources stay put in the world.
// The matrix only changes on UpdateRotMtx.
type Rotator struct {
	mu               sync.RWMutex
	Yaw, Pitch, Roll float64
	mtx              [3][3]float64
}

// NewRotator returns a rotator with the identity rotation.
func NewRotator() *Rotator {
	r := &Rotator{}
	r.UpdateRotMtx()
	return r
}

// UpdateRotMtx recomputes the rotation from Yaw, Pitch and Roll.
func (r *Rotator) UpdateRotMtx() {
	r.mu.Lock()
	defer r.mu.Unlock()

	y := r.Yaw * stdmath.Pi / 180
	p := r.Pitch * stdmath.Pi / 180
	o := r.Roll * stdmath.Pi / 180

	cy, sy := stdmath.Cos(y), stdmath.Sin(y)
	cp, sp := stdmath.Cos(p), stdmath.Sin(p)
	co, so := stdmath.Cos(o), stdmath.Sin(o)

	// transpose of Rz(yaw) * Ry(pitch) * Rx(roll), axes x front, y left, z up
	r.mtx = [3][3]float64{
		{cy * cp, sy * cp, -sp},
		{cy*sp*so - sy*co, sy*sp*so + cy*co, cp * so},
		{cy*sp*co + sy*so, sy*sp*co - cy*so, cp * co},
	}
}

// Matrix returns the current rotation matrix.
func (r *Rotator) Matrix() [3][3]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mtx
}

// Rotate applies m to an ACN frame. W is unchanged.
func Rotate(m [3][3]float64, f [4]float64) [4]float64 {
	x, y, z := f[3], f[1], f[2]
	rx := m[0][0]*x + m[0][1]*y + m[0][2]*z
	ry := m[1][0]*x + m[1][1]*y + m[1][2]*z
	rz := m[2][0]*x + m[2][1]*y + m[2][2]*z
	return [4]float64{f[0], ry, rz, rx}
}

// DecodeBinaural renders an ACN frame with two virtual cardioid
// microphones pointing left and right.
func DecodeBinaural(f [4]float64) (left, right float64) {
	return 0.5 * (f[0] + f[1]), 0.5 * (f[0] - f[1])
}

// bformatStreamer runs the fixed graph: convert, rotate, decode, gain. It
// loops the recording.
type bformatStreamer struct {
	src     *BFormat
	rotator *Rotator
	gain    float64
	pos     int
}

func (s *bformatStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if len(s.src.Frames) == 0 {
		return 0, false
	}
	m := s.rotator.Matrix()
	for i := range samples {
		f := Rotate(m, FuMaToACN(s.src.Frames[s.pos]))
		l, r := DecodeBinaural(f)
		samples[i][0] = l * s.gain
		samples[i][1] = r * s.gain
		s.pos++
		if s.pos == len(s.src.Frames) {
			s.pos = 0
		}
	}
	return len(samples), true
}

func (s *bformatStreamer) Err() error { return nil }

// Ambisonic plays a B-format recording that stays fixed in the world while
// the viewer turns.
type Ambisonic struct {
	base
	handle  *assets.Handle[*BFormat]
	rotator *Rotator
}

// ChangeOrientation counter-rotates the field for the new gaze. Only yaw
// follows the head; pitch stays level.
func (a *Ambisonic) ChangeOrientation(gaze math.Vec3) {
	poll(&a.base, a.handle, a.start)

	a.rotator.mu.Lock()
	a.rotator.Yaw = YawFromGaze(gaze)
	a.rotator.Pitch = 0
	a.rotator.mu.Unlock()
	a.rotator.UpdateRotMtx()
}

// Rotator exposes the scene rotator.
func (a *Ambisonic) Rotator() *Rotator { return a.rotator }

func (a *Ambisonic) start(b *BFormat) (beep.Streamer, error) {
	if len(b.Frames) == 0 {
		return nil, fmt.Errorf("ambisonic source is empty")
	}
	s := &bformatStreamer{src: b, rotator: a.rotator, gain: float64(a.cfg.Gain)}
	return a.resample(b.Rate, s), nil
}

// YawFromGaze returns the rotator yaw, in degrees, for a gaze direction:
// the signed angle between +X and the gaze projected on the horizontal
// plane, negated.
func YawFromGaze(gaze math.Vec3) float64 {
	proj := gaze.ProjectOnPlane(math.Up)
	angle := proj.AngleTo(math.UnitX)
	cross := proj.Cross(math.UnitX)
	signed := angle
	if cross.Y <= 0 {
		signed = -angle
	}
	return -float64(math.RadToDeg(signed))
}
