// Package audio feeds the visualizer: it decodes and plays dropped audio
// files, ingests microphone PCM, and turns either into byte frequency data
// for the audio ring.
package audio

import (
	"errors"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Analyser presets.
const (
	MicFFTSize  = 256
	MicMinDB    = -100.0
	MicMaxDB    = -30.0
	FileFFTSize = 512
	FileMinDB   = -100.0
	FileMaxDB   = -15.0
)

var (
	// ErrUnsupportedFormat is returned for uploads that are not decodable
	// audio.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrNoMicrophone is returned when no microphone stream is connected.
	ErrNoMicrophone = errors.New("no microphone connected")
)

// Analyser computes smoothed byte frequency data over the most recent
// window of mono samples: Blackman window, FFT, magnitude scaled by the
// window size, exponential smoothing over time, then the decibel range
// mapped onto 0..255. Write and ByteFrequencyData may be called from
// different goroutines.
type Analyser struct {
	mu        sync.Mutex
	size      int
	minDB     float64
	maxDB     float64
	smoothing float64

	ring []float64
	pos  int

	fft      *fourier.FFT
	window   []float64
	buf      []float64
	coeff    []complex128
	smoothed []float64
}

// NewAnalyser creates an analyser over size samples. size must be a power
// of two.
func NewAnalyser(size int, minDB, maxDB, smoothing float64) *Analyser {
	if size < 2 || size&(size-1) != 0 {
		panic("audio: analyser size must be a power of two")
	}
	a := &Analyser{
		size:      size,
		minDB:     minDB,
		maxDB:     maxDB,
		smoothing: clampUnit(smoothing),
		ring:      make([]float64, size),
		fft:       fourier.NewFFT(size),
		window:    make([]float64, size),
		buf:       make([]float64, size),
		coeff:     make([]complex128, size/2+1),
		smoothed:  make([]float64, size/2),
	}
	for n := range a.window {
		x := 2 * math.Pi * float64(n) / float64(size)
		a.window[n] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return a
}

// NewMicAnalyser returns the analyser used for microphone input.
func NewMicAnalyser(smoothing float64) *Analyser {
	return NewAnalyser(MicFFTSize, MicMinDB, MicMaxDB, smoothing)
}

// NewFileAnalyser returns the analyser used for file playback.
func NewFileAnalyser(smoothing float64) *Analyser {
	return NewAnalyser(FileFFTSize, FileMinDB, FileMaxDB, smoothing)
}

// Bins returns the number of frequency bins, half the window size.
func (a *Analyser) Bins() int { return a.size / 2 }

// SetSmoothing changes the time constant. Values are clamped to [0,1].
func (a *Analyser) SetSmoothing(v float64) {
	a.mu.Lock()
	a.smoothing = clampUnit(v)
	a.mu.Unlock()
}

// Write appends mono samples in [-1,1].
func (a *Analyser) Write(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos = (a.pos + 1) % a.size
	}
}

// WriteStereo appends stereo frames mixed down to mono.
func (a *Analyser) WriteStereo(frames [][2]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, f := range frames {
		a.ring[a.pos] = (f[0] + f[1]) / 2
		a.pos = (a.pos + 1) % a.size
	}
}

// Reset clears the sample window and the smoothing history.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.ring)
	clear(a.smoothed)
	a.pos = 0
}

// ByteFrequencyData writes one byte per bin into dst, growing it if
// needed, and returns it.
func (a *Analyser) ByteFrequencyData(dst []uint8) []uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()

	bins := a.size / 2
	if cap(dst) < bins {
		dst = make([]uint8, bins)
	}
	dst = dst[:bins]

	for n := 0; n < a.size; n++ {
		s := a.ring[(a.pos+n)%a.size]
		a.buf[n] = s * a.window[n]
	}
	a.coeff = a.fft.Coefficients(a.coeff, a.buf)

	scale := 255 / (a.maxDB - a.minDB)
	for k := 0; k < bins; k++ {
		mag := cmplx.Abs(a.coeff[k]) / float64(a.size)
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if math.IsNaN(a.smoothed[k]) || math.IsInf(a.smoothed[k], 0) {
			a.smoothed[k] = 0
		}
		db := 20 * math.Log10(a.smoothed[k])
		v := math.Floor((db - a.minDB) * scale)
		switch {
		case math.IsNaN(v) || v < 0:
			dst[k] = 0
		case v > 255:
			dst[k] = 255
		default:
			dst[k] = uint8(v)
		}
	}
	return dst
}

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
