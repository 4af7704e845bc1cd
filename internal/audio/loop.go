package audio

import "github.com/gopxl/beep/v2"

// loopStreamer replays a seekable stream forever.
type loopStreamer struct {
	src beep.StreamSeeker
}

func (l *loopStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if l.src.Len() == 0 {
		return 0, false
	}
	for n < len(samples) {
		m, ok := l.src.Stream(samples[n:])
		n += m
		if !ok || m == 0 {
			if err := l.src.Seek(0); err != nil {
				return n, n > 0
			}
		}
	}
	return n, true
}

func (l *loopStreamer) Err() error {
	return l.src.Err()
}
