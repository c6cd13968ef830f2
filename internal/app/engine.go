// Package app runs the Nebula frame loop: it owns the session, steps every
// component once per tick and hands the result to the renderers.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/nebula/internal/audio"
	"github.com/ayusman/nebula/internal/capture"
	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/detector"
	"github.com/ayusman/nebula/internal/log"
	"github.com/ayusman/nebula/internal/orbit"
	"github.com/ayusman/nebula/internal/particles"
	"github.com/ayusman/nebula/internal/render"
	"github.com/ayusman/nebula/internal/session"
	"github.com/ayusman/nebula/internal/shapes"
)

// Frame loop timing.
const (
	// TickRate is the number of ticks per second Run aims for.
	TickRate = 60
	// MaxStep caps dt so a stalled tick does not teleport the simulation.
	MaxStep = 0.1
	// CommandQueue is how many commands may wait for the next tick.
	CommandQueue = 32
)

var (
	// ErrDeviceUnavailable is returned by Start when the camera cannot be
	// opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrNoAudio is returned for audio commands when no audio output is
	// configured.
	ErrNoAudio = errors.New("audio output not configured")
	// ErrStopped is returned for commands sent after Close.
	ErrStopped = errors.New("engine stopped")
)

// ResultSource exposes the most recent detector result, or nil.
type ResultSource interface {
	LatestResult() *detector.Result
}

// Config holds the engine's collaborators. Only Live is required.
type Config struct {
	Live *config.Live
	// Tracker is started by Start and used as Results when Results is nil.
	Tracker *Tracker
	// Results overrides the landmark source.
	Results ResultSource
	// Sampler loads model shapes. Nil leaves models on their placeholders.
	Sampler shapes.Sampler
	Audio   *audio.Controller
	// Renderer receives every frame. Nil discards them.
	Renderer render.Renderer
	// Seed makes particle scatter reproducible.
	Seed uint64
}

type command struct {
	run   func() error
	reply chan error
}

// Engine is the single writer of session state. Everything it owns is
// touched only on the goroutine calling Tick; other goroutines reach it
// through commands.
type Engine struct {
	live     *config.Live
	tracker  *Tracker
	results  ResultSource
	audio    *audio.Controller
	renderer render.Renderer

	st      *session.State
	machine *session.Machine
	updater *particles.Updater
	library *shapes.Library
	meter   *capture.LightMeter

	cmds    chan command
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	lastRes uint64
	luma    *detector.Luma
	smooth  float64
	spec    []uint8
	seq     uint64
	frame   render.Frame
}

// New creates an Engine at rest on the first catalog shape.
func New(cfg Config) *Engine {
	live := cfg.Live
	if live == nil {
		live = config.NewLive(config.Default())
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.Discard
	}
	results := cfg.Results
	if results == nil && cfg.Tracker != nil {
		results = cfg.Tracker
	}

	ctx, cancel := context.WithCancel(context.Background())
	tun := live.Get()
	names := shapes.Names()

	e := &Engine{
		live:     live,
		tracker:  cfg.Tracker,
		results:  results,
		audio:    cfg.Audio,
		renderer: renderer,
		st:       session.NewState(names[0]),
		updater:  particles.NewUpdater(tun.ParticleCount, cfg.Seed),
		library:  shapes.NewLibrary(cfg.Sampler),
		meter:    capture.NewLightMeter(),
		cmds:     make(chan command, CommandQueue),
		ctx:      ctx,
		cancel:   cancel,
		smooth:   tun.AudioSmoothing,
	}
	e.machine = session.NewMachine(names, effects{e})
	e.loadShape(e.st.ShapeName)

	if e.audio != nil {
		e.audio.SetSmoothing(tun.AudioSmoothing)
		e.audio.OnEnd(e.fileEnded)
	}
	return e
}

// Start opens the camera and starts tracking. Without a tracker it does
// nothing.
func (e *Engine) Start() error {
	if e.tracker == nil {
		return nil
	}
	return e.tracker.Start(e.ctx)
}

// Run ticks at TickRate until ctx is done or Close is called.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()

	log.Info("frame loop started", "shape", e.st.ShapeName, "particles", e.updater.Field().N)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			e.Tick(min(max(dt, 0), MaxStep))
		}
	}
}

// Close stops tracking, audio and pending shape loads.
func (e *Engine) Close() {
	e.once.Do(func() {
		e.cancel()
		if e.tracker != nil {
			e.tracker.Stop()
		}
		if e.audio != nil {
			e.audio.Close()
		}
	})
}

// Tick advances the session by dt seconds and renders one frame.
func (e *Engine) Tick(dt float64) {
	e.drain()

	cfg := e.live.Get()
	e.applyConfig(cfg)

	if e.results != nil {
		if res := e.results.LatestResult(); res != nil && res.Seq != e.lastRes {
			e.lastRes = res.Seq
			e.machine.Observe(e.st, res)
			e.updater.ObserveFace(res.Face, res.Luma, cfg)
			if res.Luma != nil {
				e.luma = res.Luma
			}
		}
	}
	lowLight := e.meter.Observe(e.luma)

	e.machine.Step(e.st, dt, cfg)
	orbit.Step(e.st, dt, cfg)

	var spectrum []uint8
	if e.audio != nil {
		spectrum = e.audio.Spectrum(e.spec)
		if spectrum != nil {
			e.spec = spectrum
		}
	}
	field := e.updater.Field()
	e.updater.Step(e.st, cfg, spectrum)
	e.library.Poll(e.st.ShapeName, field.Target)

	e.seq++
	render.Build(&e.frame, e.seq, e.st, field, cfg, lowLight)
	if err := e.renderer.Render(&e.frame); err != nil {
		log.Warn("render", "seq", e.seq, "err", err)
	}
}

// State returns the session. Only safe on the ticking goroutine.
func (e *Engine) State() *session.State { return e.st }

// Field returns the particle buffers. Only safe on the ticking goroutine.
func (e *Engine) Field() *particles.Field { return e.updater.Field() }

// applyConfig reacts to tunables that need more than a re-read.
func (e *Engine) applyConfig(cfg config.Config) {
	if e.updater.Resize(cfg.ParticleCount) {
		log.Info("particle count changed", "particles", cfg.ParticleCount, "tier", config.PerformanceTier(cfg.ParticleCount).Name)
		e.loadShape(e.st.ShapeName)
	}
	if cfg.AudioSmoothing != e.smooth {
		e.smooth = cfg.AudioSmoothing
		if e.audio != nil {
			e.audio.SetSmoothing(cfg.AudioSmoothing)
		}
	}
}

func (e *Engine) loadShape(name string) {
	if _, err := e.library.Load(e.ctx, name, e.updater.Field().Target); err != nil {
		log.Warn("load shape", "shape", name, "err", err)
	}
}

// fileEnded runs on the audio goroutine when a track finishes.
func (e *Engine) fileEnded() {
	e.post(func() error {
		// A newer track may already be playing.
		if e.st.AudioFile && e.audio.Source() == audio.SourceNone {
			e.machine.StopAudio(e.st)
		}
		return nil
	})
}

// drain runs every queued command.
func (e *Engine) drain() {
	for {
		select {
		case c := <-e.cmds:
			err := c.run()
			if c.reply != nil {
				c.reply <- err
			}
		default:
			return
		}
	}
}

// post queues fn without waiting. It drops fn when the queue is full.
func (e *Engine) post(fn func() error) {
	select {
	case e.cmds <- command{run: fn}:
	default:
		log.Warn("command queue full, dropping command")
	}
}

// do queues fn and waits for the engine to run it.
func (e *Engine) do(ctx context.Context, fn func() error) error {
	c := command{run: fn, reply: make(chan error, 1)}
	select {
	case e.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return ErrStopped
	}
	select {
	case err := <-c.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return ErrStopped
	}
}

// SelectShape makes name the target shape.
func (e *Engine) SelectShape(ctx context.Context, name string) error {
	i := shapes.Index(name)
	if i < 0 {
		return fmt.Errorf("select %q: %w", name, shapes.ErrUnknownShape)
	}
	return e.do(ctx, func() error {
		e.machine.SelectShape(e.st, i)
		return nil
	})
}

// NextShape advances to the next catalog shape.
func (e *Engine) NextShape(ctx context.Context) error {
	return e.do(ctx, func() error {
		e.machine.SelectShape(e.st, e.st.ShapeIndex+1)
		return nil
	})
}

// PlayFile starts playing an uploaded track and switches to the file
// visualizer. Undecodable data returns an error wrapping
// audio.ErrUnsupportedFormat and leaves the session unchanged.
func (e *Engine) PlayFile(ctx context.Context, name string, data []byte) error {
	if e.audio == nil {
		return ErrNoAudio
	}
	return e.do(ctx, func() error {
		if err := e.audio.PlayFile(name, data); err != nil {
			return err
		}
		e.machine.EnterAudioFile(e.st, name)
		return nil
	})
}

// StopAudio leaves audio mode.
func (e *Engine) StopAudio(ctx context.Context) error {
	return e.do(ctx, func() error {
		e.machine.StopAudio(e.st)
		return nil
	})
}

// TogglePause flips play/pause of the current track.
func (e *Engine) TogglePause(ctx context.Context) error {
	return e.do(ctx, func() error {
		e.machine.TogglePause(e.st)
		return nil
	})
}

// effects carries out the machine's side effects on the engine goroutine.
type effects struct{ e *Engine }

func (fx effects) StartMic() error {
	if fx.e.audio == nil {
		return audio.ErrNoMicrophone
	}
	return fx.e.audio.StartMic()
}

func (fx effects) StopAudio() {
	if fx.e.audio != nil {
		fx.e.audio.StopAudio()
	}
}

func (fx effects) SetPaused(paused bool) {
	if fx.e.audio != nil {
		fx.e.audio.SetPaused(paused)
	}
}

func (fx effects) SelectShape(name string) {
	fx.e.loadShape(name)
}
