package particles

import (
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/detector"
	"github.com/ayusman/nebula/internal/gesture"
	"github.com/ayusman/nebula/internal/session"
)

// Lerp rates.
const (
	SpeedIdle          = 0.05
	SpeedLocked        = 0.1
	SpeedScanFace      = 0.05
	SpeedPinch         = 0.08
	SpeedAudio         = 0.25
	ColorRate          = 0.05
	FaceColorRate      = 0.1
	YawDamping         = 0.1
	TargetSpin         = 0.1
	FaceJitter         = 1.5
	RockScatter        = 1.35
	RockJitter         = 5
	ImplodeJitter      = 10
	ScanJitter         = 50
	SupernovaJitter    = 50
	BarRadius          = 45
	BarHeight          = 90
	BarFloor           = -15
	BarSunk            = -30
	FreqLimitFile      = 0.65
	FreqLimitMic       = 0.85
	FaceLumaGain       = 3.5
	FaceLumaFloor      = 0.3
	stealthVisible     = 0.01
	scanOrbitBase      = 20
	scanOrbitBands     = 30
	scanOrbitSpeed     = 2
	scanOrbitPhaseStep = 0.1
)

type rgb struct{ r, g, b float32 }

// Updater advances a Field one frame at a time. It reads the session and
// never writes it.
type Updater struct {
	field *Field
	rng   *rand.Rand
}

// NewUpdater creates an Updater for a field of n particles.
func NewUpdater(n int, seed uint64) *Updater {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &Updater{field: NewField(n, rng), rng: rng}
}

// Field returns the buffers being updated.
func (u *Updater) Field() *Field { return u.field }

// Resize changes the particle count. See Field.Resize.
func (u *Updater) Resize(n int) bool { return u.field.Resize(n, u.rng) }

func (u *Updater) jitter(w float32) float32 { return (u.rng.Float32() - 0.5) * w }

// ObserveFace rebuilds the face targets and colors from a face mesh and the
// luma map of the frame it was found in. A nil face leaves them untouched.
func (u *Updater) ObserveFace(face *detector.FaceLandmarks, luma *detector.Luma, cfg config.Config) {
	if face == nil {
		return
	}
	f := u.field
	scale := float32(cfg.FaceScale)
	offX, offY := float32(cfg.FaceOffsetX), float32(cfg.FaceOffsetY)
	sin, cos := math32.Sincos(float32(cfg.FaceRotation))

	for i := 0; i < f.N; i++ {
		lm := face.Points[i%detector.NumFaceLandmarks]
		j := u.jitter(FaceJitter)
		bx := (0.5 - float32(lm.X)) * scale
		bz := -float32(lm.Z) * scale
		i3 := i * 3
		f.Face[i3] = bx*cos - bz*sin + j + offX
		f.Face[i3+1] = (0.5-float32(lm.Y))*scale + j + offY
		f.Face[i3+2] = bx*sin + bz*cos

		l := math32.Min(1, float32(luma.At(lm.X, lm.Y))*FaceLumaGain)
		f.FaceColor[i3] = l * 0.9
		f.FaceColor[i3+1] = l * 0.95
		f.FaceColor[i3+2] = l + 0.15
	}
}

// frame is everything Step derives once before the per-particle loop.
type frame struct {
	speed   float32
	base    rgb
	active  []float32
	spin    bool
	spinCos float32
	spinSin float32

	stealth      bool
	dim          float32
	pulse        rgb
	pinchHeld    bool
	charging     bool
	rock, three  bool
	physics      bool
	audio        bool
	perBar       int
	bars         int
	freqLimit    float32
	barHeight    float32
	ringRotation float32
	scanOrbit    bool
	scanJitter   bool
	faceColor    bool
	force        float32
	time         float32
}

// Step advances every particle one frame. spectrum holds byte frequency
// data for the audio ring and may be nil outside audio mode.
func (u *Updater) Step(st *session.State, cfg config.Config, spectrum []uint8) {
	f := u.field
	fr := u.prepare(st, cfg, spectrum)

	u.stepYaw(st, cfg)

	for i := 0; i < f.N; i++ {
		i3 := i * 3
		px, py, pz := f.Positions[i3], f.Positions[i3+1], f.Positions[i3+2]
		col := fr.base
		var tx, ty, tz float32

		switch {
		case fr.audio:
			tx, ty, tz, col = u.bar(i, fr, spectrum)
		case fr.scanOrbit:
			a := fr.time*scanOrbitSpeed + float32(i)*scanOrbitPhaseStep
			rad := float32(scanOrbitBase + i%scanOrbitBands)
			tx, ty, tz = math32.Cos(a)*rad, math32.Sin(a)*rad, 0
		default:
			tx, ty, tz = fr.active[i3], fr.active[i3+1], fr.active[i3+2]
		}

		if fr.spin {
			tx, tz = tx*fr.spinCos-tz*fr.spinSin, tx*fr.spinSin+tz*fr.spinCos
		}

		if fr.physics {
			switch {
			case fr.pinchHeld && !st.Supernova:
				tx, ty, tz = 0, 0, 0
			case fr.rock:
				tx = px*RockScatter + u.jitter(RockJitter)
				ty = py*RockScatter + u.jitter(RockJitter)
				tz = pz*RockScatter + u.jitter(RockJitter)
			case fr.three:
				tx, ty, tz = px, py, pz
			}
		}

		if fr.scanJitter {
			tx += u.jitter(ScanJitter)
			ty += u.jitter(ScanJitter)
			tz += u.jitter(ScanJitter)
		}

		if st.Supernova {
			tx = fr.active[i3]*fr.force + u.jitter(SupernovaJitter)
			ty = fr.active[i3+1]*fr.force + u.jitter(SupernovaJitter)
			tz = fr.active[i3+2]*fr.force + u.jitter(SupernovaJitter)
		} else if fr.charging {
			tx, ty, tz = u.jitter(ImplodeJitter), u.jitter(ImplodeJitter), u.jitter(ImplodeJitter)
		}

		nx := px + (tx-px)*fr.speed
		ny := py + (ty-py)*fr.speed
		nz := pz + (tz-pz)*fr.speed
		if finite(nx) && finite(ny) && finite(nz) {
			f.Positions[i3], f.Positions[i3+1], f.Positions[i3+2] = nx, ny, nz
		}

		if fr.stealth {
			col.r = col.r*fr.dim + fr.pulse.r
			col.g = col.g*fr.dim + fr.pulse.g
			col.b = col.b*fr.dim + fr.pulse.b
		}

		if fr.faceColor && finite(f.FaceColor[i3]) {
			vr, vg, vb := f.FaceColor[i3], f.FaceColor[i3+1], f.FaceColor[i3+2]
			l := math32.Max(FaceLumaFloor, 0.299*vr+0.587*vg+0.114*vb)
			lerpColor(f.Colors[i3:i3+3], rgb{l * 0.9, l * 0.95, 1}, FaceColorRate)
			continue
		}
		lerpColor(f.Colors[i3:i3+3], col, ColorRate)
	}
}

func (u *Updater) prepare(st *session.State, cfg config.Config, spectrum []uint8) frame {
	f := u.field
	g := st.Hand.Gesture
	idleR, idleG, idleB := cfg.IdleRGB()
	fr := frame{
		base:      rgb{idleR, idleG, idleB},
		active:    f.Target,
		speed:     SpeedIdle,
		pinchHeld: st.Debounced.PinchHeld(),
		charging:  st.Charging(),
		rock:      g == gesture.Rock,
		three:     g == gesture.Three,
		force:     float32(cfg.SupernovaForce),
		time:      float32(st.Time),
	}

	switch {
	case g == gesture.Fist:
		fr.base = rgb{0.8, 0.8, 0.8}
	case st.Debounced.Pinch:
		fr.base = rgb{1, 0, 0.3}
	case fr.rock:
		fr.base = rgb{1, 0.6, 0}
	case st.Secret:
		fr.base = rgb{1, 0, 0}
	case st.Zooming:
		fr.base = rgb{1, 1, 0}
	case st.Scanning:
		fr.base = rgb{0, 1, 0}
	}
	if st.Supernova {
		fr.base = rgb{1, 1, 0.2}
	} else if fr.charging {
		fr.base = rgb{1, 0, 0}
	}

	if sf := float32(st.StealthFactor); sf > stealthVisible {
		sine := (math32.Sin(fr.time*float32(cfg.StealthSpeed)) + 1) / 2
		pulse := float32(cfg.StealthMin) + sine*float32(cfg.StealthMax-cfg.StealthMin)
		fr.stealth = true
		fr.dim = 1 - sf
		fr.pulse = rgb{idleR * pulse * sf, idleG * pulse * sf, idleB * pulse * sf}
	}

	faceReady := st.FaceTracked
	switch {
	case st.Secret:
		fr.active = f.Secret
		fr.speed = SpeedLocked
	case st.FaceMode && faceReady:
		fr.active = f.Face
		fr.speed = SpeedLocked
	case st.Scanning:
		if faceReady {
			fr.speed = SpeedScanFace
		} else {
			fr.speed = SpeedLocked
		}
	case st.Hand.Present && !st.FaceLocked && !st.Audio:
		if fr.pinchHeld {
			fr.speed = SpeedPinch
		} else if fr.rock {
			fr.speed = float32(cfg.RockSpeed)
		}
	}
	if st.Audio {
		fr.speed = SpeedAudio
	}
	if st.Supernova || fr.charging {
		fr.speed = SpeedLocked
	}

	if g != gesture.Three && g != gesture.Shhh && !st.Stealth && !st.Secret &&
		!st.Zooming && !st.FaceMode && !st.Scanning && !st.Audio {
		fr.spin = true
		fr.spinSin, fr.spinCos = math32.Sincos(fr.time * TargetSpin)
	}

	fr.physics = !st.FaceMode && !st.Scanning && !st.Audio && st.Hand.Present
	fr.scanJitter = st.Scanning && faceReady
	fr.scanOrbit = st.Scanning && !faceReady
	fr.faceColor = (st.FaceMode || st.Scanning) && faceReady

	if st.Audio && len(spectrum) > 0 && cfg.AudioBarCount > 0 {
		fr.bars = cfg.AudioBarCount
		fr.perBar = f.N / fr.bars
		// Too few particles for one per bar: keep the shape.
		fr.audio = fr.perBar > 0
		fr.freqLimit = FreqLimitMic
		if st.AudioFile {
			fr.freqLimit = FreqLimitFile
		}
		fr.barHeight = float32(cfg.AudioSensitivity)
		if st.Paused {
			fr.barHeight = 0
		}
		fr.ringRotation = float32(st.Camera.VisRotation)
	}
	return fr
}

// bar places particle i in its audio bar and returns the bar color.
func (u *Updater) bar(i int, fr frame, spectrum []uint8) (x, y, z float32, c rgb) {
	idx := i / fr.perBar
	if idx >= fr.bars {
		idx = fr.bars - 1
	}
	stack := i % fr.perBar
	ratio := float32(idx) / float32(fr.bars)

	bin := int(ratio * float32(len(spectrum)) * fr.freqLimit)
	if bin >= len(spectrum) {
		bin = len(spectrum) - 1
	}
	h := float32(spectrum[bin]) / 255 * fr.barHeight
	mine := float32(stack) / float32(fr.perBar) * BarHeight

	a := ratio*2*math32.Pi + fr.ringRotation
	x, z = math32.Cos(a)*BarRadius, math32.Sin(a)*BarRadius
	y = BarSunk
	if mine < h {
		y = mine + BarFloor
	}

	if ratio < 0.4 {
		c = rgb{1 - ratio, 0, ratio * 2.5}
	} else {
		sub := (ratio - 0.4) / 0.6
		c = rgb{0, 1 - sub, sub}
	}
	return x, y, z, c
}

// stepYaw spins the whole cloud while idle and straightens it in the locked
// face, scan and secret modes.
func (u *Updater) stepYaw(st *session.State, cfg config.Config) {
	f := u.field
	g := st.Hand.Gesture
	if g != gesture.Three && !st.Secret && !st.Zooming && !st.FaceMode && !st.Scanning && !st.Audio {
		f.Yaw -= float32(cfg.RotSpeed)
		if f.Yaw < -2*math32.Pi {
			f.Yaw += 2 * math32.Pi
		}
	}
	if st.FaceMode || st.Scanning || st.Secret {
		f.Yaw -= f.Yaw * YawDamping
	}
}

// lerpColor moves dst toward c. A non-finite result leaves dst as it was.
func lerpColor(dst []float32, c rgb, rate float32) {
	r := dst[0] + (c.r-dst[0])*rate
	g := dst[1] + (c.g-dst[1])*rate
	b := dst[2] + (c.b-dst[2])*rate
	if finite(r) && finite(g) && finite(b) {
		dst[0], dst[1], dst[2] = r, g, b
	}
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
