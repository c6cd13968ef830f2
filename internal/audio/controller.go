package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ayusman/nebula/internal/log"
)

// Source is what currently feeds the visualizer.
type Source int

const (
	SourceNone Source = iota
	SourceMic
	SourceFile
)

func (s Source) String() string {
	switch s {
	case SourceMic:
		return "mic"
	case SourceFile:
		return "file"
	}
	return "none"
}

// Controller switches between microphone and file input and exposes the
// spectrum of whichever is active.
type Controller struct {
	mu       sync.Mutex
	out      Output
	mic      *Analyser
	file     *Analyser
	source   Source
	track    *track
	gen      uint64
	micConns int
	onEnd    func()
}

// NewController creates a Controller playing files through out.
func NewController(out Output, smoothing float64) *Controller {
	return &Controller{
		out:  out,
		mic:  NewMicAnalyser(smoothing),
		file: NewFileAnalyser(smoothing),
	}
}

// OnEnd registers fn to run on its own goroutine when a file finishes.
func (c *Controller) OnEnd(fn func()) {
	c.mu.Lock()
	c.onEnd = fn
	c.mu.Unlock()
}

// Source returns the active input.
func (c *Controller) Source() Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// SetSmoothing updates the time constant of both analysers.
func (c *Controller) SetSmoothing(v float64) {
	c.mic.SetSmoothing(v)
	c.file.SetSmoothing(v)
}

// PlayFile decodes data and starts playing it, replacing any current input.
func (c *Controller) PlayFile(name string, data []byte) error {
	src, format, err := Decode(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.file.Reset()
	gen := c.gen
	t := newTrack(src, format, c.file, func() { go c.ended(gen) })
	if err := c.out.Play(t.ctrl); err != nil {
		src.Close()
		return fmt.Errorf("play %s: %w", name, err)
	}
	c.track = t
	c.source = SourceFile
	log.Info("audio file playing", "file", name, "rate", int(format.SampleRate), "channels", format.NumChannels)
	return nil
}

func (c *Controller) ended(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.source != SourceFile {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	fn := c.onEnd
	c.mu.Unlock()

	log.Info("audio file ended")
	if fn != nil {
		fn()
	}
}

// StartMic switches to microphone input. It fails when no microphone
// stream is attached.
func (c *Controller) StartMic() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.micConns == 0 {
		return ErrNoMicrophone
	}
	c.stopLocked()
	c.mic.Reset()
	c.source = SourceMic
	return nil
}

// StopAudio stops playback and microphone analysis.
func (c *Controller) StopAudio() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	c.gen++
	if c.track != nil {
		c.out.Lock()
		c.track.ctrl.Streamer = nil
		c.out.Unlock()
		if err := c.track.src.Close(); err != nil {
			log.Warn("close audio stream", "err", err)
		}
		c.track = nil
	}
	c.source = SourceNone
}

// SetPaused pauses or resumes file playback.
func (c *Controller) SetPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == nil {
		return
	}
	c.out.Lock()
	c.track.ctrl.Paused = paused
	c.out.Unlock()
}

// Spectrum fills dst with byte frequency data from the active input and
// returns it, or returns nil when nothing is active.
func (c *Controller) Spectrum(dst []uint8) []uint8 {
	switch c.Source() {
	case SourceMic:
		return c.mic.ByteFrequencyData(dst)
	case SourceFile:
		return c.file.ByteFrequencyData(dst)
	}
	return nil
}

// AttachMic registers a connected microphone stream. The returned func
// detaches it.
func (c *Controller) AttachMic() (release func()) {
	c.mu.Lock()
	c.micConns++
	c.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.micConns--
			c.mu.Unlock()
		})
	}
}

// WriteMic feeds little-endian float32 mono PCM. Samples are dropped unless
// the microphone is the active input.
func (c *Controller) WriteMic(pcm []byte) error {
	if len(pcm)%4 != 0 {
		return fmt.Errorf("mic frame of %d bytes is not float32 PCM", len(pcm))
	}
	if c.Source() != SourceMic {
		return nil
	}
	samples := make([]float64, len(pcm)/4)
	for i := range samples {
		v := math.Float32frombits(binary.LittleEndian.Uint32(pcm[i*4:]))
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			v = 0
		}
		samples[i] = float64(v)
	}
	c.mic.Write(samples)
	return nil
}

// Close stops all audio.
func (c *Controller) Close() error {
	c.StopAudio()
	return nil
}
