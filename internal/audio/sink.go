package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Sink is where decoded audio ends up. Lock and Unlock guard changes to
// streamers that are already playing.
type Sink interface {
	SampleRate() beep.SampleRate
	Play(s beep.Streamer)
	Lock()
	Unlock()
}

// SpeakerSink plays through the system audio device.
type SpeakerSink struct {
	rate beep.SampleRate
}

// NewSpeakerSink opens the speaker with a 1/30s buffer.
func NewSpeakerSink(rate beep.SampleRate) (*SpeakerSink, error) {
	if err := speaker.Init(rate, rate.N(time.Second/30)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &SpeakerSink{rate: rate}, nil
}

func (s *SpeakerSink) SampleRate() beep.SampleRate { return s.rate }
func (s *SpeakerSink) Play(st beep.Streamer)      { speaker.Play(st) }
func (s *SpeakerSink) Lock()                      { speaker.Lock() }
func (s *SpeakerSink) Unlock()                    { speaker.Unlock() }

// Close stops everything and releases the device.
func (s *SpeakerSink) Close() {
	speaker.Clear()
	speaker.Close()
}
