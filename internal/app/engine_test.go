package app

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/nebula/internal/audio"
	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/detector"
	"github.com/ayusman/nebula/internal/render"
	"github.com/ayusman/nebula/internal/session"
	"github.com/ayusman/nebula/internal/shapes"
)

const frame = 1.0 / 60

// feed publishes detector results the way the tracker does.
type feed struct {
	latest atomic.Pointer[detector.Result]
	seq    uint64
}

func (f *feed) LatestResult() *detector.Result { return f.latest.Load() }

func (f *feed) hands(h ...detector.HandLandmarks) {
	f.seq++
	f.latest.Store(&detector.Result{Seq: f.seq, Hands: h})
}

type frames struct {
	mu   sync.Mutex
	last render.Frame
	n    int
}

func (r *frames) Render(f *render.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = *f
	r.n++
	return nil
}

func testLive(count int) *config.Live {
	c := config.Default()
	c.ParticleCount = count
	return config.NewLive(c)
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Live == nil {
		cfg.Live = testLive(6000)
	}
	e := New(cfg)
	t.Cleanup(e.Close)
	return e
}

// call runs a command while ticking the engine on the test goroutine.
func call(t *testing.T, e *Engine, fn func(context.Context) error) error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- fn(context.Background()) }()
	for i := 0; i < 500; i++ {
		e.Tick(frame)
		select {
		case err := <-errc:
			return err
		default:
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatal("command was never applied")
	return nil
}

func TestEngine_TickRendersFrames(t *testing.T) {
	out := &frames{}
	e := newTestEngine(t, Config{Renderer: out, Seed: 1})

	for i := 0; i < 3; i++ {
		e.Tick(frame)
	}

	assert.Equal(t, 3, out.n)
	assert.Equal(t, uint64(3), out.last.Seq)
	assert.Equal(t, 6000, out.last.Count)
	assert.Equal(t, "LOW", out.last.Tier)
	assert.Equal(t, shapes.Names()[0], out.last.Shape)
	assert.Equal(t, session.ModeIdle, out.last.Mode)
	assert.Nil(t, out.last.Hand)
	assert.InDelta(t, 3*frame, out.last.Time, 1e-9)
}

func TestEngine_PositionsStayFinite(t *testing.T) {
	src := &feed{}
	e := newTestEngine(t, Config{Results: src, Seed: 7})

	poses := []detector.HandLandmarks{
		detector.PinchLandmarks(), detector.FistLandmarks(), detector.PeaceLandmarks(),
		detector.RockLandmarks(), detector.ThumbsUpLandmarks(), detector.OpenPalmLandmarks(),
	}
	for i := 0; i < 600; i++ {
		if i%7 == 0 {
			src.hands(poses[(i/7)%len(poses)])
		}
		e.Tick(frame)
	}
	for i, v := range e.Field().Positions {
		require.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0), "position %d is %v", i, v)
	}
}

func TestEngine_PinchChargesSupernova(t *testing.T) {
	src := &feed{}
	out := &frames{}
	e := newTestEngine(t, Config{Results: src, Renderer: out})

	src.hands(detector.PinchLandmarks())
	for i := 0; i < 300; i++ {
		e.Tick(frame)
	}

	assert.True(t, e.State().Supernova)
	assert.Equal(t, session.ModeSupernova, out.last.Mode)
	require.NotNil(t, out.last.Hand)
}

func TestEngine_ResultObservedOnce(t *testing.T) {
	src := &feed{}
	e := newTestEngine(t, Config{Results: src})

	src.hands(detector.OpenPalmLandmarks())
	e.Tick(frame)
	require.True(t, e.State().Hand.Present)

	// An unchanged result is not folded in again.
	e.State().Hand.Present = false
	e.Tick(frame)
	assert.False(t, e.State().Hand.Present)

	src.hands()
	e.Tick(frame)
	assert.False(t, e.State().Hand.Present)
}

func TestEngine_SelectShape(t *testing.T) {
	out := &frames{}
	e := newTestEngine(t, Config{Renderer: out})
	names := shapes.Names()

	require.NoError(t, call(t, e, func(ctx context.Context) error { return e.SelectShape(ctx, names[3]) }))
	assert.Equal(t, names[3], e.State().ShapeName)
	assert.Equal(t, 3, e.State().ShapeIndex)

	want, err := shapes.Generate(names[3], 6000)
	require.NoError(t, err)
	assert.Equal(t, want, e.Field().Target)

	require.NoError(t, call(t, e, e.NextShape))
	assert.Equal(t, names[4], e.State().ShapeName)

	err = e.SelectShape(context.Background(), "Nope")
	assert.ErrorIs(t, err, shapes.ErrUnknownShape)
}

func TestEngine_NextShapeWraps(t *testing.T) {
	e := newTestEngine(t, Config{})
	names := shapes.Names()

	last := names[len(names)-1]
	require.NoError(t, call(t, e, func(ctx context.Context) error { return e.SelectShape(ctx, last) }))
	require.NoError(t, call(t, e, e.NextShape))
	assert.Equal(t, names[0], e.State().ShapeName)
}

func TestEngine_SampledShapeLoadsAsync(t *testing.T) {
	var model string
	for _, entry := range shapes.Catalog() {
		if entry.Kind == shapes.Sampled {
			model = entry.Name
			break
		}
	}
	require.NotEmpty(t, model)

	release := make(chan struct{})
	sampler := shapes.SamplerFunc(func(ctx context.Context, name string, count int) ([]float32, error) {
		<-release
		pts := make([]float32, count*3)
		for i := range pts {
			pts[i] = float32(i%5) - 2
		}
		return pts, nil
	})
	e := newTestEngine(t, Config{Sampler: sampler})

	require.NoError(t, call(t, e, func(ctx context.Context) error { return e.SelectShape(ctx, model) }))
	placeholder := append([]float32(nil), e.Field().Target...)

	close(release)
	require.Eventually(t, func() bool {
		e.Tick(frame)
		return !floatsEqual(placeholder, e.Field().Target)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEngine_ParticleCountChange(t *testing.T) {
	live := testLive(6000)
	out := &frames{}
	e := newTestEngine(t, Config{Live: live, Renderer: out})
	e.Tick(frame)

	live.Update(func(c *config.Config) { c.ParticleCount = 12000 })
	e.Tick(frame)

	assert.Equal(t, 12000, e.Field().N)
	assert.Equal(t, 12000, out.last.Count)
	assert.Equal(t, "MEDIUM", out.last.Tier)
	want, err := shapes.Generate(e.State().ShapeName, 12000)
	require.NoError(t, err)
	assert.Equal(t, want, e.Field().Target)
}

func TestEngine_CommandsAfterClose(t *testing.T) {
	e := New(Config{Live: testLive(6000)})
	e.Close()
	assert.ErrorIs(t, e.NextShape(context.Background()), ErrStopped)
}

func TestEngine_CommandContextCancelled(t *testing.T) {
	e := newTestEngine(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.StopAudio(ctx), context.Canceled)
}

func TestEngine_StartWithoutTracker(t *testing.T) {
	e := newTestEngine(t, Config{})
	assert.NoError(t, e.Start())
}

func TestEngine_Run(t *testing.T) {
	out := &frames{}
	e := newTestEngine(t, Config{Renderer: out})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.NoError(t, e.NextShape(ctx))
	require.Eventually(t, func() bool {
		out.mu.Lock()
		defer out.mu.Unlock()
		return out.n > 3 && out.last.Shape == shapes.Names()[1]
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func wavBytes(n int) []byte {
	var b bytes.Buffer
	data := n * 2
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+data))
	b.WriteString("WAVEfmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint32(audio.SampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(int(audio.SampleRate)*2))
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(data))
	for i := 0; i < n; i++ {
		v := math.Sin(2 * math.Pi * float64(i) * 32 / 512)
		binary.Write(&b, binary.LittleEndian, int16(v*0.9*math.MaxInt16))
	}
	return b.Bytes()
}

type fakeOutput struct {
	mu      sync.Mutex
	streams []beep.Streamer
}

func (o *fakeOutput) Play(s beep.Streamer) error {
	o.mu.Lock()
	o.streams = append(o.streams, s)
	o.mu.Unlock()
	return nil
}

func (o *fakeOutput) Clear()  {}
func (o *fakeOutput) Lock()   { o.mu.Lock() }
func (o *fakeOutput) Unlock() { o.mu.Unlock() }

// drain plays every stream to its end.
func (o *fakeOutput) drain() {
	o.mu.Lock()
	defer o.mu.Unlock()
	buf := make([][2]float64, 512)
	for _, s := range o.streams {
		for {
			if _, ok := s.Stream(buf); !ok {
				break
			}
		}
	}
}

func TestEngine_PlayFile(t *testing.T) {
	out := &fakeOutput{}
	rec := &frames{}
	ctl := audio.NewController(out, 0)
	e := newTestEngine(t, Config{Audio: ctl, Renderer: rec})

	require.NoError(t, call(t, e, func(ctx context.Context) error {
		return e.PlayFile(ctx, "song.wav", wavBytes(4096))
	}))
	st := e.State()
	assert.True(t, st.Audio)
	assert.True(t, st.AudioFile)
	assert.Equal(t, "SONG.WAV", st.FileName)
	assert.Equal(t, audio.SourceFile, ctl.Source())

	require.NoError(t, call(t, e, e.TogglePause))
	assert.True(t, st.Paused)
	require.NoError(t, call(t, e, e.TogglePause))

	// The end of the track leaves audio mode on a later tick.
	out.drain()
	require.Eventually(t, func() bool {
		e.Tick(frame)
		return !e.State().AudioFile
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, e.State().Audio)
	assert.Equal(t, session.ModeIdle, rec.last.Mode)
}

func TestEngine_PlayFileRejected(t *testing.T) {
	ctl := audio.NewController(&fakeOutput{}, 0)
	e := newTestEngine(t, Config{Audio: ctl})

	err := call(t, e, func(ctx context.Context) error {
		return e.PlayFile(ctx, "notes.txt", []byte("definitely not audio"))
	})
	assert.ErrorIs(t, err, audio.ErrUnsupportedFormat)
	assert.False(t, e.State().Audio)
	assert.Equal(t, audio.SourceNone, ctl.Source())
}

func TestEngine_PlayFileWithoutAudio(t *testing.T) {
	e := newTestEngine(t, Config{})
	err := e.PlayFile(context.Background(), "song.wav", wavBytes(16))
	assert.True(t, errors.Is(err, ErrNoAudio))
}

func TestEngine_StopAudio(t *testing.T) {
	ctl := audio.NewController(&fakeOutput{}, 0)
	e := newTestEngine(t, Config{Audio: ctl})

	require.NoError(t, call(t, e, func(ctx context.Context) error {
		return e.PlayFile(ctx, "song.wav", wavBytes(4096))
	}))
	require.NoError(t, call(t, e, e.StopAudio))
	assert.False(t, e.State().Audio)
	assert.Equal(t, audio.SourceNone, ctl.Source())
}

func floatsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
