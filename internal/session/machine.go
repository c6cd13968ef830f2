package session

import (
	"strings"

	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/detector"
	"github.com/ayusman/nebula/internal/gesture"
	"github.com/ayusman/nebula/internal/log"
)

// Mode timings and rates.
const (
	ScanDuration    = 1.5
	SecretDuration  = 1.35
	StealthRampUp   = 0.8
	StealthRampDown = 2.0
	AudioRamp       = 0.8
	VibrationPeriod = 0.1
	timerEpsilon    = 1e-9
)

// Effects are the side effects the machine triggers outside the session.
type Effects interface {
	// StartMic switches the analyser to the microphone. An error leaves
	// audio mode off.
	StartMic() error
	// StopAudio stops any microphone or file playback.
	StopAudio()
	// SetPaused pauses or resumes file playback.
	SetPaused(paused bool)
	// SelectShape makes name the target shape.
	SelectShape(name string)
}

// Machine advances the mode flags of a State.
type Machine struct {
	deb     *gesture.Debouncer
	catalog []string
	fx      Effects
}

// NewMachine creates a Machine cycling through catalog. catalog must not be
// empty.
func NewMachine(catalog []string, fx Effects) *Machine {
	return &Machine{
		deb:     gesture.NewDebouncer(),
		catalog: catalog,
		fx:      fx,
	}
}

// Debouncer exposes the gesture buffers and cooldowns.
func (m *Machine) Debouncer() *gesture.Debouncer { return m.deb }

// Catalog returns the shape order.
func (m *Machine) Catalog() []string { return m.catalog }

// Observe folds a new detector result into the hand state. It is the only
// writer of Hand, Zooming, FaceTracked and ZoomDistance, and runs at most
// once per detector result.
func (m *Machine) Observe(st *State, res *detector.Result) {
	obs := gesture.Classify(res, st.ZoomBlocked())
	obs.Symbol = gesture.Overlay(obs.Symbol, st.Locks())
	st.Hand.Apply(obs)

	st.Zooming = obs.Symbol == gesture.Zoom
	st.ZoomDistance = obs.ZoomDistance
	st.FaceTracked = res != nil && res.Face != nil
}

// Step runs the mode machine for one frame of dt seconds.
func (m *Machine) Step(st *State, dt float64, cfg config.Config) {
	st.Time += dt
	g := st.Hand.Gesture

	d := m.deb.Step(g, dt, st.Time, gesture.Thresholds{
		Pinch:  cfg.PinchBuffer,
		Peace:  cfg.PeaceBuffer,
		Secret: cfg.SecretBuffer,
	})
	st.Debounced = d

	m.chargeSupernova(st, dt, cfg)
	m.vibrate(st, dt, cfg)

	if g == gesture.AudioTrig && m.deb.Audio.Ready() &&
		!st.FaceLocked && !st.Scanning && !st.Supernova && !st.Stealth && !st.Secret {
		if st.Audio {
			m.StopAudio(st)
		} else {
			m.startMic(st)
		}
		m.deb.Audio.Arm(gesture.AudioCooldown)
	}

	if st.AudioFile && g == gesture.Three && m.deb.Audio.Ready() && !st.Supernova {
		m.TogglePause(st)
		m.deb.Audio.Arm(gesture.PlayPauseCooldown)
	}

	if d.Peace && m.deb.Shape.Ready() {
		m.clearForShape(st)
		m.SelectShape(st, (st.ShapeIndex+1)%len(m.catalog))
		m.deb.Shape.Arm(gesture.ShapeCooldown)
		m.deb.Peace.Reset()
	}

	// Global exit. The camera reset armed by the same fist belongs to the
	// orbit controller.
	if g == gesture.Fist && (st.FaceLocked || st.Scanning || st.Audio || st.Supernova || st.Stealth) {
		wasAudio := st.Audio
		st.FaceLocked, st.Scanning, st.FaceMode = false, false, false
		st.Supernova, st.Stealth = false, false
		st.PinchTimer = 0
		if wasAudio {
			m.StopAudio(st)
		}
	}

	if st.Audio {
		st.AudioTransition += dt * AudioRamp
	} else {
		st.AudioTransition -= dt * AudioRamp
	}
	st.AudioTransition = clamp01(st.AudioTransition)

	if g == gesture.Shhh && !st.FaceLocked && !st.Scanning && !st.Audio && !st.Supernova && !st.Secret {
		st.Stealth = true
	}
	if st.Stealth {
		st.StealthFactor += dt * StealthRampUp
	} else {
		st.StealthFactor -= dt * StealthRampDown
	}
	st.StealthFactor = clamp01(st.StealthFactor)

	if d.Secret && !st.FaceLocked && !st.Scanning && !st.Audio && !st.Supernova && !st.Stealth {
		st.Secret = true
		st.SecretTimer = SecretDuration
	}
	if st.Secret {
		// Holding the gesture keeps the egg up.
		if g != gesture.Secret {
			st.SecretTimer -= dt
		}
		if st.SecretTimer <= 0 {
			st.Secret = false
		}
	}

	if g == gesture.Thumb && !st.FaceLocked && !st.Scanning && !st.Audio && !st.Supernova && !st.Stealth && !st.Secret {
		st.Scanning = true
		st.ScanTimer = 0
	}
	if st.Scanning {
		st.ScanTimer += dt
		if st.ScanTimer > ScanDuration {
			st.Scanning = false
			st.FaceLocked = true
			st.FaceMode = true
		}
	}
}

func (m *Machine) chargeSupernova(st *State, dt float64, cfg config.Config) {
	if st.Debounced.PinchHeld() && !st.Supernova &&
		!st.Stealth && !st.FaceLocked && !st.Scanning && !st.Audio && !st.Secret {
		st.PinchTimer += dt
		if st.PinchTimer > cfg.SupernovaCharge+timerEpsilon {
			st.Supernova = true
			log.Debug("supernova", "charge", st.PinchTimer)
		}
		return
	}
	if !st.Supernova {
		st.PinchTimer = 0
	}
}

func (m *Machine) vibrate(st *State, dt float64, cfg config.Config) {
	st.Vibrate = false
	if !st.Supernova || !cfg.SupernovaVibration {
		st.VibeTimer = 0
		return
	}
	st.VibeTimer -= dt
	if st.VibeTimer <= 0 {
		st.Vibrate = true
		st.VibeTimer = VibrationPeriod
	}
}

func (m *Machine) clearForShape(st *State) {
	if st.FaceLocked || st.Scanning {
		st.FaceLocked, st.Scanning, st.FaceMode = false, false, false
	}
	if st.Audio {
		m.StopAudio(st)
	}
	if st.Supernova {
		st.Supernova = false
		st.PinchTimer = 0
	}
}

func (m *Machine) startMic(st *State) {
	if err := m.fx.StartMic(); err != nil {
		log.Warn("microphone unavailable", "err", err)
		st.Audio, st.AudioFile = false, false
		return
	}
	st.Audio = true
	st.AudioFile = false
	st.Paused = false
	st.FileName = ""
}

// EnterAudioFile switches to file visualisation for a track that is already
// playing. Every other mode is cleared first.
func (m *Machine) EnterAudioFile(st *State, name string) {
	st.FaceLocked, st.Scanning, st.FaceMode = false, false, false
	st.Supernova, st.Stealth, st.Secret = false, false, false
	st.StealthFactor = 0
	st.PinchTimer = 0
	st.Resetting = false

	st.Audio = true
	st.AudioFile = true
	st.Paused = false
	st.FileName = strings.ToUpper(name)
	st.MarqueeStart = st.Time
}

// StopAudio leaves audio mode and stops playback.
func (m *Machine) StopAudio(st *State) {
	st.Audio, st.AudioFile, st.Paused = false, false, false
	st.FileName = ""
	m.fx.StopAudio()
}

// TogglePause flips play/pause in file mode. It does nothing otherwise.
func (m *Machine) TogglePause(st *State) {
	if !st.AudioFile {
		return
	}
	st.Paused = !st.Paused
	m.fx.SetPaused(st.Paused)
}

// SelectShape makes catalog entry i the current shape. Out-of-range indexes
// wrap.
func (m *Machine) SelectShape(st *State, i int) {
	n := len(m.catalog)
	i = ((i % n) + n) % n
	st.ShapeIndex = i
	st.ShapeName = m.catalog[i]
	m.fx.SelectShape(st.ShapeName)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
