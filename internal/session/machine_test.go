package session

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/detector"
	"github.com/ayusman/nebula/internal/gesture"
)

const frame = 1.0 / 60

type fakeEffects struct {
	micErr   error
	mics     int
	stops    int
	paused   []bool
	selected []string
}

func (f *fakeEffects) StartMic() error {
	f.mics++
	return f.micErr
}
func (f *fakeEffects) StopAudio()              { f.stops++ }
func (f *fakeEffects) SetPaused(p bool)        { f.paused = append(f.paused, p) }
func (f *fakeEffects) SelectShape(name string) { f.selected = append(f.selected, name) }

var testCatalog = []string{"Sphere", "Cube", "Pyramid"}

func newTestMachine() (*Machine, *State, *fakeEffects) {
	fx := &fakeEffects{}
	return NewMachine(testCatalog, fx), NewState(testCatalog[0]), fx
}

// hold sets the hand gesture and runs n frames.
func hold(m *Machine, st *State, g gesture.Symbol, n int, cfg config.Config) {
	st.Hand.Present = g != gesture.None
	st.Hand.Gesture = g
	for i := 0; i < n; i++ {
		m.Step(st, frame, cfg)
	}
}

func TestSupernovaTiming(t *testing.T) {
	m, st, _ := newTestMachine()
	cfg := config.Default()

	hold(m, st, gesture.Pinch, 30, cfg)
	assert.False(t, st.Debounced.Pinch)
	assert.Zero(t, st.PinchTimer)

	hold(m, st, gesture.Pinch, 1, cfg)
	require.True(t, st.Debounced.Pinch, "pinch confirms on frame 31")

	// 4.0 s of confirmed pinch is 240 charging frames; the 241st fires.
	hold(m, st, gesture.Pinch, 239, cfg)
	assert.False(t, st.Supernova)
	assert.True(t, st.Charging())

	hold(m, st, gesture.Pinch, 1, cfg)
	assert.True(t, st.Supernova)
	assert.Equal(t, ModeSupernova, st.Mode())
}

func TestSupernovaChargeResetsAfterGrace(t *testing.T) {
	m, st, _ := newTestMachine()
	cfg := config.Default()

	hold(m, st, gesture.Pinch, 120, cfg)
	require.Greater(t, st.PinchTimer, 0.0)

	// Inside the grace window the charge keeps building.
	hold(m, st, gesture.Open, 10, cfg)
	assert.Greater(t, st.PinchTimer, 0.0)

	hold(m, st, gesture.Open, 30, cfg)
	assert.Zero(t, st.PinchTimer)
	assert.False(t, st.Supernova)
}

func TestSupernovaVibration(t *testing.T) {
	m, st, _ := newTestMachine()
	cfg := config.Default()
	st.Supernova = true

	pulses := 0
	st.Hand.Gesture = gesture.SupernovaLocked
	for i := 0; i < 60; i++ {
		m.Step(st, frame, cfg)
		if st.Vibrate {
			pulses++
		}
	}
	assert.InDelta(t, 10, pulses, 1)

	cfg.SupernovaVibration = false
	m.Step(st, frame, cfg)
	assert.False(t, st.Vibrate)
}

func TestFistExitsLockedModes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*State)
	}{
		{"face locked", func(s *State) { s.FaceLocked, s.FaceMode = true, true }},
		{"scanning", func(s *State) { s.Scanning = true }},
		{"stealth", func(s *State) { s.Stealth = true }},
		{"supernova", func(s *State) { s.Supernova, s.PinchTimer = true, 5 }},
		{"audio", func(s *State) { s.Audio = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, st, fx := newTestMachine()
			tt.setup(st)
			wasAudio := st.Audio

			hold(m, st, gesture.Fist, 1, config.Default())

			assert.Zero(t, st.LockedCount())
			assert.False(t, st.FaceMode)
			assert.Zero(t, st.PinchTimer)
			if wasAudio {
				assert.Equal(t, 1, fx.stops)
			}
		})
	}
}

func TestStealthRamp(t *testing.T) {
	m, st, _ := newTestMachine()
	cfg := config.Default()

	hold(m, st, gesture.Shhh, 1, cfg)
	require.True(t, st.Stealth)

	hold(m, st, gesture.StealthLocked, 90, cfg)
	assert.InDelta(t, 1.0, st.StealthFactor, 1e-9)
	assert.Equal(t, "SILENT", StatusLabel(st, cfg.SupernovaCharge))

	hold(m, st, gesture.Fist, 1, cfg)
	assert.False(t, st.Stealth)
	hold(m, st, gesture.None, 30, cfg)
	assert.Zero(t, st.StealthFactor)
	assert.Equal(t, "SPHERE", StatusLabel(st, cfg.SupernovaCharge))
}

func TestSecretTimer(t *testing.T) {
	m, st, _ := newTestMachine()
	cfg := config.Default()

	hold(m, st, gesture.Secret, 60, cfg)
	assert.False(t, st.Secret, "secret needs more than its 1 s buffer")
	hold(m, st, gesture.Secret, 1, cfg)
	require.True(t, st.Secret)

	// Holding keeps it up.
	hold(m, st, gesture.Secret, 300, cfg)
	assert.True(t, st.Secret)
	assert.InDelta(t, SecretDuration, st.SecretTimer, 1e-9)

	hold(m, st, gesture.Open, 80, cfg)
	assert.True(t, st.Secret)
	hold(m, st, gesture.Open, 2, cfg)
	assert.False(t, st.Secret)
}

func TestFaceScan(t *testing.T) {
	m, st, _ := newTestMachine()
	cfg := config.Default()

	hold(m, st, gesture.Thumb, 1, cfg)
	require.True(t, st.Scanning)
	assert.Equal(t, "INITIALIZING...", GestureLabel(st))

	hold(m, st, gesture.None, 90, cfg)
	assert.False(t, st.Scanning)
	assert.True(t, st.FaceLocked)
	assert.True(t, st.FaceMode)
	assert.Equal(t, "IDENTITY CONFIRMED", StatusLabel(st, cfg.SupernovaCharge))
	assert.Equal(t, "FACE LOCKED", GestureLabel(st))
}

func TestAudioToggle(t *testing.T) {
	m, st, fx := newTestMachine()
	cfg := config.Default()

	hold(m, st, gesture.AudioTrig, 1, cfg)
	assert.True(t, st.Audio)
	assert.False(t, st.AudioFile)
	assert.Equal(t, 1, fx.mics)

	// The cooldown blocks an immediate retrigger.
	st.Audio = false
	hold(m, st, gesture.AudioTrig, 60, cfg)
	assert.Equal(t, 1, fx.mics)

	hold(m, st, gesture.AudioTrig, 61, cfg)
	assert.Equal(t, 2, fx.mics)
}

func TestAudioToggle_MicFailure(t *testing.T) {
	m, st, fx := newTestMachine()
	fx.micErr = errors.New("no microphone")

	hold(m, st, gesture.AudioTrig, 1, config.Default())
	assert.False(t, st.Audio)
	assert.Equal(t, ModeIdle, st.Mode())
}

func TestPlayPause(t *testing.T) {
	m, st, fx := newTestMachine()
	cfg := config.Default()

	m.EnterAudioFile(st, "song.mp3")
	hold(m, st, gesture.Three, 1, cfg)
	assert.True(t, st.Paused)
	assert.Equal(t, "PAUSED", GestureLabel(st))

	hold(m, st, gesture.Three, 29, cfg)
	assert.True(t, st.Paused, "cooldown holds for 0.5 s")
	hold(m, st, gesture.Three, 2, cfg)
	assert.False(t, st.Paused)
	assert.Equal(t, []bool{true, false}, fx.paused)
}

func TestShapeAdvance(t *testing.T) {
	m, st, fx := newTestMachine()
	cfg := config.Default()
	st.FaceLocked, st.FaceMode = true, true

	hold(m, st, gesture.Peace, 31, cfg)
	assert.Equal(t, 1, st.ShapeIndex)
	assert.Equal(t, "Cube", st.ShapeName)
	assert.False(t, st.FaceLocked)
	assert.Equal(t, []string{"Cube"}, fx.selected)

	// Cooldown of 2 s, and the buffer refills before the next advance.
	hold(m, st, gesture.Peace, 100, cfg)
	assert.Equal(t, 1, st.ShapeIndex)
	hold(m, st, gesture.Peace, 21, cfg)
	assert.Equal(t, 2, st.ShapeIndex)

	hold(m, st, gesture.Open, 1, cfg)
	hold(m, st, gesture.Peace, 200, cfg)
	assert.Equal(t, 0, st.ShapeIndex, "the catalog wraps")
}

func TestShapeAdvance_StopsAudioAndSupernova(t *testing.T) {
	m, st, fx := newTestMachine()
	st.Audio = true
	st.Supernova, st.PinchTimer = true, 5

	hold(m, st, gesture.Peace, 31, config.Default())
	assert.False(t, st.Audio)
	assert.False(t, st.Supernova)
	assert.Zero(t, st.PinchTimer)
	assert.Equal(t, 1, fx.stops)
}

func TestEnterAudioFile_ClearsModes(t *testing.T) {
	m, st, _ := newTestMachine()
	st.Stealth, st.StealthFactor = true, 0.8
	st.Resetting = true
	st.PinchTimer = 2

	m.EnterAudioFile(st, "Track.wav")

	assert.Equal(t, 1, st.LockedCount())
	assert.True(t, st.Audio)
	assert.True(t, st.AudioFile)
	assert.Zero(t, st.StealthFactor)
	assert.False(t, st.Resetting)
	assert.Equal(t, "TRACK.WAV", st.FileName)
	assert.Equal(t, "VISUALIZER (FILE)", StatusLabel(st, 4))
}

func TestAudioTransition(t *testing.T) {
	m, st, _ := newTestMachine()
	cfg := config.Default()
	m.EnterAudioFile(st, "a.ogg")

	hold(m, st, gesture.None, 45, cfg)
	assert.InDelta(t, 0.6, st.AudioTransition, 1e-9)
	hold(m, st, gesture.None, 60, cfg)
	assert.Equal(t, 1.0, st.AudioTransition)

	m.StopAudio(st)
	hold(m, st, gesture.None, 90, cfg)
	assert.Zero(t, st.AudioTransition)
}

func TestModeExclusivity_RandomGestures(t *testing.T) {
	m, st, _ := newTestMachine()
	cfg := config.Default()
	cfg.PinchBuffer = 0.05
	cfg.PeaceBuffer = 0.05
	cfg.SecretBuffer = 0.05
	cfg.SupernovaCharge = 0.2

	rng := rand.New(rand.NewSource(7))
	raw := []gesture.Symbol{
		gesture.None, gesture.Open, gesture.Fist, gesture.Pinch, gesture.Rock, gesture.Peace,
		gesture.Three, gesture.Thumb, gesture.Shhh, gesture.Secret, gesture.AudioTrig, gesture.Zoom,
	}

	for i := 0; i < 20000; i++ {
		// Gestures arrive in short runs, like a real hand.
		if i%5 == 0 {
			st.Hand.Gesture = gesture.Overlay(raw[rng.Intn(len(raw))], st.Locks())
			st.Hand.Present = st.Hand.Gesture != gesture.None
		}
		if rng.Intn(500) == 0 {
			m.EnterAudioFile(st, "drop.mp3")
		}
		m.Step(st, frame, cfg)
		require.LessOrEqual(t, st.LockedCount(), 1, "frame %d: %+v", i, st.Flags)
	}
}

func TestObserve(t *testing.T) {
	m, st, _ := newTestMachine()

	m.Observe(st, &detector.Result{Hands: []detector.HandLandmarks{detector.PinchLandmarks()}})
	assert.Equal(t, gesture.Pinch, st.Hand.Gesture)
	assert.True(t, st.Hand.Present)
	assert.False(t, st.FaceTracked)

	st.Stealth = true
	m.Observe(st, &detector.Result{
		Hands: []detector.HandLandmarks{detector.PinchLandmarks()},
		Face:  detector.FaceWithMouthAt(0.1, 0.1),
	})
	assert.Equal(t, gesture.StealthLocked, st.Hand.Gesture)
	assert.True(t, st.FaceTracked)

	m.Observe(st, nil)
	assert.False(t, st.Hand.Present)
	assert.Equal(t, gesture.StealthLocked, st.Hand.Gesture, "no hands is NONE, which stealth locks")
	assert.False(t, st.Zooming)
}

func TestObserve_Zoom(t *testing.T) {
	m, st, _ := newTestMachine()
	left := detector.Translate(detector.OpenPalmLandmarks(), -0.25, 0)
	right := detector.Translate(detector.OpenPalmLandmarks(), 0.25, 0)
	res := &detector.Result{Hands: []detector.HandLandmarks{left, right}}

	m.Observe(st, res)
	assert.True(t, st.Zooming)
	assert.InDelta(t, 0.5, st.ZoomDistance, 1e-9)

	st.Supernova = true
	m.Observe(st, res)
	assert.False(t, st.Zooming)
	assert.Equal(t, gesture.Open, st.Hand.Gesture)
}
