// Package config holds the runtime-tunable parameters of the particle engine
// and the service settings around it.
package config

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Config is the flat set of tunables read by every stage of the frame loop.
// A fresh copy is taken at the start of each tick, so edits apply on the
// next frame.
type Config struct {
	RotSpeed         float64 `toml:"rot_speed" json:"rotSpeed"`
	OpenSens         float64 `toml:"open_sens" json:"openSens"`
	RockSpeed        float64 `toml:"rock_speed" json:"rockSpeed"`
	AudioSensitivity float64 `toml:"audio_sensitivity" json:"audioSensitivity"`
	AudioRotSpeed    float64 `toml:"audio_rot_speed" json:"audioRotSpeed"`
	AudioBarCount    int     `toml:"audio_bar_count" json:"audioBarCount"`
	AudioSmoothing   float64 `toml:"audio_smoothing" json:"audioSmoothing"`

	FaceOffsetX  float64 `toml:"face_offset_x" json:"faceOffsetX"`
	FaceOffsetY  float64 `toml:"face_offset_y" json:"faceOffsetY"`
	FaceScale    float64 `toml:"face_scale" json:"faceScale"`
	FaceRotation float64 `toml:"face_rotation" json:"faceRotation"`

	StealthMin   float64 `toml:"stealth_min" json:"stealthMin"`
	StealthMax   float64 `toml:"stealth_max" json:"stealthMax"`
	StealthSpeed float64 `toml:"stealth_speed" json:"stealthSpeed"`

	SupernovaCharge    float64 `toml:"supernova_charge" json:"supernovaCharge"`
	SupernovaForce     float64 `toml:"supernova_force" json:"supernovaForce"`
	SupernovaVibration bool    `toml:"supernova_vibration" json:"supernovaVibration"`

	ParticleCount   int     `toml:"particle_count" json:"particleCount"`
	ModelComplexity int     `toml:"model_complexity" json:"modelComplexity"`
	MotionBlur      bool    `toml:"motion_blur" json:"motionBlur"`
	BlurStrength    float64 `toml:"blur_strength" json:"blurStrength"`
	IdleColor       string  `toml:"idle_color" json:"idleColor"`

	// Gesture buffers, in seconds.
	PinchBuffer  float64 `toml:"pinch_buffer" json:"pinchBuffer"`
	PeaceBuffer  float64 `toml:"peace_buffer" json:"peaceBuffer"`
	SecretBuffer float64 `toml:"secret_buffer" json:"secretBuffer"`
}

// Default returns the tunables the application starts with.
func Default() Config {
	return Config{
		RotSpeed:           0.005,
		OpenSens:           2.5,
		RockSpeed:          0.1,
		AudioSensitivity:   30,
		AudioRotSpeed:      0.2,
		AudioBarCount:      128,
		AudioSmoothing:     0.85,
		FaceOffsetX:        10,
		FaceOffsetY:        35,
		FaceScale:          200,
		FaceRotation:       -0.1,
		StealthMin:         0.05,
		StealthMax:         0.5,
		StealthSpeed:       2,
		SupernovaCharge:    4.0,
		SupernovaForce:     4.0,
		SupernovaVibration: true,
		ParticleCount:      20000,
		ModelComplexity:    1,
		MotionBlur:         true,
		BlurStrength:       0.75,
		IdleColor:          "#0099ff",
		PinchBuffer:        0.5,
		PeaceBuffer:        0.5,
		SecretBuffer:       1,
	}
}

// ParticleCounts lists the selectable particle counts, lowest tier first.
var ParticleCounts = []int{6000, 12000, 20000, 32000}

// Tier describes the settings derived from a particle count.
type Tier struct {
	Name            string
	ModelComplexity int
	BlurStrength    float64
}

// PerformanceTier maps a particle count to its tier. Counts up to 12000 use
// the lite hand model; lower counts get stronger trails to fill the gaps.
func PerformanceTier(count int) Tier {
	t := Tier{Name: "ULTRA", ModelComplexity: 1, BlurStrength: 0.2}
	switch {
	case count <= 6000:
		t = Tier{Name: "LOW", BlurStrength: 0.75}
	case count <= 12000:
		t = Tier{Name: "MEDIUM", BlurStrength: 0.65}
	case count <= 20000:
		t = Tier{Name: "HIGH", ModelComplexity: 1, BlurStrength: 0.45}
	}
	return t
}

// ApplyTier sets ModelComplexity and BlurStrength from ParticleCount.
func (c *Config) ApplyTier() {
	t := PerformanceTier(c.ParticleCount)
	c.ModelComplexity = t.ModelComplexity
	c.BlurStrength = t.BlurStrength
}

// Bounds of the tunables that scale positions, angles or timers.
const (
	MaxRotSpeed         = 1
	MaxOpenSens         = 20
	MaxAudioSensitivity = 500
	MaxAudioRotSpeed    = 10
	MaxFaceOffset       = 500
	MaxFaceScale        = 2000
	MaxStealthSpeed     = 50
	MaxSupernovaForce   = 50
	MaxBuffer           = 60
)

// Normalize replaces values that would stall or break the frame loop with
// their defaults. Non-finite numbers fall back to the default; finite ones
// outside their range are clamped. RockSpeed is a per-frame lerp rate and
// stays in [0, 1].
func (c *Config) Normalize() {
	d := Default()
	for _, f := range []struct {
		v   *float64
		def float64
	}{
		{&c.RotSpeed, d.RotSpeed},
		{&c.OpenSens, d.OpenSens},
		{&c.RockSpeed, d.RockSpeed},
		{&c.AudioSensitivity, d.AudioSensitivity},
		{&c.AudioRotSpeed, d.AudioRotSpeed},
		{&c.AudioSmoothing, d.AudioSmoothing},
		{&c.FaceOffsetX, d.FaceOffsetX},
		{&c.FaceOffsetY, d.FaceOffsetY},
		{&c.FaceScale, d.FaceScale},
		{&c.FaceRotation, d.FaceRotation},
		{&c.StealthMin, d.StealthMin},
		{&c.StealthMax, d.StealthMax},
		{&c.StealthSpeed, d.StealthSpeed},
		{&c.SupernovaCharge, d.SupernovaCharge},
		{&c.SupernovaForce, d.SupernovaForce},
		{&c.BlurStrength, d.BlurStrength},
		{&c.PinchBuffer, d.PinchBuffer},
		{&c.PeaceBuffer, d.PeaceBuffer},
		{&c.SecretBuffer, d.SecretBuffer},
	} {
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
			*f.v = f.def
		}
	}

	c.RotSpeed = clamp(c.RotSpeed, -MaxRotSpeed, MaxRotSpeed)
	c.OpenSens = clamp(c.OpenSens, -MaxOpenSens, MaxOpenSens)
	c.RockSpeed = clamp(c.RockSpeed, 0, 1)
	c.AudioSensitivity = clamp(c.AudioSensitivity, 0, MaxAudioSensitivity)
	c.AudioRotSpeed = clamp(c.AudioRotSpeed, -MaxAudioRotSpeed, MaxAudioRotSpeed)
	c.FaceOffsetX = clamp(c.FaceOffsetX, -MaxFaceOffset, MaxFaceOffset)
	c.FaceOffsetY = clamp(c.FaceOffsetY, -MaxFaceOffset, MaxFaceOffset)
	c.FaceScale = clamp(c.FaceScale, 0, MaxFaceScale)
	c.FaceRotation = math.Remainder(c.FaceRotation, 2*math.Pi)
	c.StealthMin = clamp(c.StealthMin, 0, 1)
	c.StealthMax = clamp(c.StealthMax, 0, 1)
	c.StealthSpeed = clamp(c.StealthSpeed, 0, MaxStealthSpeed)
	c.SupernovaForce = clamp(c.SupernovaForce, 0, MaxSupernovaForce)
	c.SupernovaCharge = math.Min(c.SupernovaCharge, MaxBuffer)
	c.PinchBuffer = math.Min(c.PinchBuffer, MaxBuffer)
	c.PeaceBuffer = math.Min(c.PeaceBuffer, MaxBuffer)
	c.SecretBuffer = math.Min(c.SecretBuffer, MaxBuffer)

	if c.ParticleCount <= 0 {
		c.ParticleCount = d.ParticleCount
	}
	if c.AudioBarCount <= 0 {
		c.AudioBarCount = d.AudioBarCount
	}
	if c.AudioSmoothing < 0 || c.AudioSmoothing >= 1 {
		c.AudioSmoothing = d.AudioSmoothing
	}
	if c.SupernovaCharge < 0 {
		c.SupernovaCharge = d.SupernovaCharge
	}
	if c.PinchBuffer < 0 {
		c.PinchBuffer = d.PinchBuffer
	}
	if c.PeaceBuffer < 0 {
		c.PeaceBuffer = d.PeaceBuffer
	}
	if c.SecretBuffer < 0 {
		c.SecretBuffer = d.SecretBuffer
	}
	if c.StealthMax < c.StealthMin {
		c.StealthMin, c.StealthMax = c.StealthMax, c.StealthMin
	}
	c.BlurStrength = clamp(c.BlurStrength, 0, 1)
	if _, _, _, ok := parseHex(c.IdleColor); !ok {
		c.IdleColor = d.IdleColor
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// IdleRGB returns the idle color as normalized channels.
func (c Config) IdleRGB() (r, g, b float32) {
	if r, g, b, ok := parseHex(c.IdleColor); ok {
		return r, g, b
	}
	return 0, 0.6, 1.0
}

func parseHex(s string) (r, g, b float32, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, 0, 0, false
	}
	return float32(c.R), float32(c.G), float32(c.B), true
}
