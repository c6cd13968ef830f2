package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/nebula/internal/capture"
	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/detector"
	"github.com/ayusman/nebula/internal/log"
)

// Tracker timing constants.
const (
	// IdleFPS is the frame rate while the motion gate holds detection off.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// DefaultMotionThreshold is the percentage of changed pixels counted as
	// motion.
	DefaultMotionThreshold = 1.0
)

// complexitySetter is implemented by detectors whose hand model can be
// switched at runtime.
type complexitySetter interface {
	SetModelComplexity(complexity int) error
}

type jpegFrame struct {
	data []byte
	seq  uint64
}

// Tracker reads the camera and runs the detector on its own goroutine,
// publishing the latest result for the engine. Readers never block.
type Tracker struct {
	camera   capture.Camera
	detector detector.Detector
	gate     *capture.MotionGate
	live     *config.Live

	latest atomic.Pointer[detector.Result]
	jpeg   atomic.Pointer[jpegFrame]
	seq    uint64

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

// NewTracker creates a Tracker. live may be nil; when set, the detector's
// model complexity follows it.
func NewTracker(cam capture.Camera, det detector.Detector, live *config.Live) *Tracker {
	return &Tracker{
		camera:   cam,
		detector: det,
		gate:     capture.NewMotionGate(DefaultMotionThreshold),
		live:     live,
	}
}

// Start opens the camera and begins tracking. A camera that cannot be
// opened returns an error wrapping ErrDeviceUnavailable.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Don't start if already running
	if t.stopCh != nil {
		return nil
	}

	if err := t.camera.Open(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	t.camera.SetFPS(ActiveFPS)

	t.stopCh = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(ctx, t.stopCh, t.done)

	log.Info("tracking started")
	return nil
}

// Stop halts tracking and releases the camera, gate and detector.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopCh != nil {
		close(t.stopCh)
		<-t.done
		t.stopCh = nil
	}

	if err := t.camera.Close(); err != nil {
		log.Warn("close camera", "err", err)
	}
	t.gate.Close()
	if t.detector != nil {
		if err := t.detector.Close(); err != nil {
			log.Warn("close detector", "err", err)
		}
	}
	log.Info("tracking stopped")
}

// LatestResult returns the most recent detector result, or nil.
func (t *Tracker) LatestResult() *detector.Result {
	return t.latest.Load()
}

// LatestJPEG returns the most recent camera frame as JPEG.
func (t *Tracker) LatestJPEG() ([]byte, uint64) {
	f := t.jpeg.Load()
	if f == nil {
		return nil, 0
	}
	return f.data, f.seq
}

// run is the capture loop. It detects every frame while the motion gate
// allows and drops to IdleFPS once the scene has been still with no hands.
func (t *Tracker) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	active := true
	handsSeen := false
	complexity := -1
	var frames uint64

	ticker := time.NewTicker(time.Second / ActiveFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
		}

		if t.live != nil {
			complexity = t.syncComplexity(complexity)
		}

		frame, err := t.camera.ReadFrame()
		if err != nil {
			log.Debug("read frame", "err", err)
			continue
		}
		frames++
		t.publishJPEG(frame, frames)

		allowed := t.gate.Allow(frame, handsSeen)
		if allowed != active {
			active = allowed
			fps := IdleFPS
			if active {
				fps = ActiveFPS
			}
			t.camera.SetFPS(fps)
			ticker.Reset(time.Second / time.Duration(fps))
			log.Debug("tracking rate changed", "fps", fps)
		}
		if !active {
			frame.Close()
			continue
		}

		res, err := t.detect(frame)
		frame.Close()
		if err != nil {
			log.Debug("detect", "err", err)
			continue
		}
		handsSeen = len(res.Hands) > 0
		t.publish(res)
	}
}

func (t *Tracker) detect(frame *gocv.Mat) (*detector.Result, error) {
	res, err := t.detector.Detect(frame)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &detector.Result{}
	}
	if luma, err := capture.LumaMap(frame); err == nil {
		res.Luma = luma
	}
	return res, nil
}

// publish stamps res with the next sequence number and makes it the latest.
func (t *Tracker) publish(res *detector.Result) {
	t.seq++
	res.Seq = t.seq
	t.latest.Store(res)
}

func (t *Tracker) publishJPEG(frame *gocv.Mat, seq uint64) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()
	t.jpeg.Store(&jpegFrame{data: data, seq: seq})
}

func (t *Tracker) syncComplexity(current int) int {
	want := t.live.Get().ModelComplexity
	if want == current {
		return current
	}
	cs, ok := t.detector.(complexitySetter)
	if !ok {
		return want
	}
	if err := cs.SetModelComplexity(want); err != nil {
		log.Warn("set model complexity", "complexity", want, "err", err)
		return current
	}
	return want
}
