package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// SampleRate is the rate the speaker runs at. Files at other rates are
// resampled.
const SampleRate = beep.SampleRate(44100)

// Output is where decoded audio is played.
type Output interface {
	Play(s beep.Streamer) error
	Clear()
	Lock()
	Unlock()
}

// Speaker plays through the default sound device. The device is opened on
// the first Play.
type Speaker struct {
	mu     sync.Mutex
	inited bool
}

// Play implements Output.
func (s *Speaker) Play(st beep.Streamer) error {
	s.mu.Lock()
	if !s.inited {
		if err := speaker.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("init speaker: %w", err)
		}
		s.inited = true
	}
	s.mu.Unlock()
	speaker.Play(st)
	return nil
}

// Clear implements Output.
func (s *Speaker) Clear() {
	if s.ready() {
		speaker.Clear()
	}
}

// Lock implements Output.
func (s *Speaker) Lock() {
	if s.ready() {
		speaker.Lock()
	}
}

// Unlock implements Output.
func (s *Speaker) Unlock() {
	if s.ready() {
		speaker.Unlock()
	}
}

func (s *Speaker) ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inited
}

// tap copies everything a streamer produces into an analyser.
type tap struct {
	s beep.Streamer
	a *Analyser
}

func (t *tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.a.WriteStereo(samples[:n])
	return n, ok
}

func (t *tap) Err() error { return t.s.Err() }

// track is one file being played.
type track struct {
	src  beep.StreamSeekCloser
	ctrl *beep.Ctrl
}

func newTrack(src beep.StreamSeekCloser, format beep.Format, a *Analyser, onEnd func()) *track {
	var s beep.Streamer = src
	if format.SampleRate != SampleRate {
		s = beep.Resample(4, format.SampleRate, SampleRate, s)
	}
	s = beep.Seq(&tap{s: s, a: a}, beep.Callback(onEnd))
	return &track{src: src, ctrl: &beep.Ctrl{Streamer: s}}
}
