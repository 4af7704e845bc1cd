package audio

import (
	"bytes"
	"io"
	stdmath "math"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/wav"

	"github.com/Faultbox/veri/internal/assets"
	"github.com/Faultbox/veri/pkg/math"
)

// refDistance is the distance at which a positional source plays at full
// gain.
const refDistance = 1

// rearGain is the gain of a source directly behind the listener.
const rearGain = 0.6

// clip is a fully decoded mono or stereo recording.
type clip struct {
	buf *beep.Buffer
}

func decodeClip(data []byte) (*clip, error) {
	s, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, err
	}
	defer s.Close()

	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, err
	}
	return &clip{buf: buf}, nil
}

// Positional is a looping source at a fixed point, heard by a listener at
// the origin that faces along the gaze.
type Positional struct {
	base
	handle *assets.Handle[*clip]
	volume *effects.Volume
	pan    *effects.Pan
}

// ChangeOrientation re-pans the source for the new listener direction.
func (p *Positional) ChangeOrientation(gaze math.Vec3) {
	poll(&p.base, p.handle, p.start)

	if p.Status() != Playing {
		return
	}
	gain, pan := Spatialize(p.cfg.Position, gaze, p.cfg.MaxDistance)
	gain *= float64(p.cfg.Gain)

	p.sink.Lock()
	setGain(p.volume, gain)
	p.pan.Pan = pan
	p.sink.Unlock()
}

// Levels returns the gain and pan currently applied.
func (p *Positional) Levels() (gain, pan float64) {
	p.sink.Lock()
	defer p.sink.Unlock()
	if p.volume == nil {
		return 0, 0
	}
	if p.volume.Silent {
		return 0, p.pan.Pan
	}
	return stdmath.Pow(p.volume.Base, p.volume.Volume), p.pan.Pan
}

func (p *Positional) start(c *clip) (beep.Streamer, error) {
	src := &loopStreamer{src: c.buf.Streamer(0, c.buf.Len())}
	p.volume = &effects.Volume{
		Streamer: p.resample(c.buf.Format().SampleRate, src),
		Base:     2,
	}
	setGain(p.volume, float64(p.cfg.Gain))
	p.pan = &effects.Pan{Streamer: p.volume}
	return p.pan, nil
}

// Spatialize returns the gain and stereo pan of a source at position for a
// listener at the origin looking along forward. Gain falls off linearly
// between refDistance and maxDistance and is reduced behind the listener;
// pan is -1 for hard left and 1 for hard right.
func Spatialize(position, forward math.Vec3, maxDistance float32) (gain, pan float64) {
	dist := position.Length()
	if dist < 1e-6 {
		return 1, 0
	}

	gain = 1
	if maxDistance > refDistance {
		d := math.Clamp(dist, refDistance, maxDistance)
		gain = float64(1 - (d-refDistance)/(maxDistance-refDistance))
	}

	forward = forward.Normalize()
	right := forward.Cross(math.Up)
	if right.IsZero() {
		// looking straight up or down
		right = math.UnitX
	}
	right = right.Normalize()

	dir := position.Scale(1 / dist)
	pan = float64(math.Clamp(dir.Dot(right), -1, 1))

	if front := dir.Dot(forward); front < 0 {
		gain *= 1 + (rearGain-1)*float64(-front)
	}
	return gain, pan
}

// setGain maps a linear gain onto a base-2 volume effect.
func setGain(v *effects.Volume, gain float64) {
	if gain <= 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = stdmath.Log2(gain)
}
