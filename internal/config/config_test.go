package config

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformanceTier(t *testing.T) {
	tests := []struct {
		count      int
		complexity int
		blur       float64
		name       string
	}{
		{6000, 0, 0.75, "LOW"},
		{12000, 0, 0.65, "MEDIUM"},
		{20000, 1, 0.45, "HIGH"},
		{32000, 1, 0.2, "ULTRA"},
		{1000, 0, 0.75, "LOW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier := PerformanceTier(tt.count)
			assert.Equal(t, tt.complexity, tier.ModelComplexity)
			assert.InDelta(t, tt.blur, tier.BlurStrength, 1e-9)
			assert.Equal(t, tt.name, tier.Name)
		})
	}
}

func TestApplyTier_20000(t *testing.T) {
	c := Default()
	c.ModelComplexity = 0
	c.BlurStrength = 0.9
	c.ParticleCount = 20000
	c.ApplyTier()

	assert.Equal(t, 1, c.ModelComplexity)
	assert.InDelta(t, 0.45, c.BlurStrength, 1e-9)
}

func TestNormalize(t *testing.T) {
	c := Config{
		ParticleCount:  -1,
		AudioBarCount:  0,
		AudioSmoothing: 1.5,
		StealthMin:     0.6,
		StealthMax:     0.1,
		BlurStrength:   3,
		IdleColor:      "not a color",
	}
	c.Normalize()

	d := Default()
	assert.Equal(t, d.ParticleCount, c.ParticleCount)
	assert.Equal(t, d.AudioBarCount, c.AudioBarCount)
	assert.Equal(t, d.AudioSmoothing, c.AudioSmoothing)
	assert.Equal(t, 0.1, c.StealthMin)
	assert.Equal(t, 0.6, c.StealthMax)
	assert.Equal(t, 1.0, c.BlurStrength)
	assert.Equal(t, d.IdleColor, c.IdleColor)
}

func TestNormalize_NonFiniteAndOutOfRange(t *testing.T) {
	d := Default()
	tests := []struct {
		name string
		toml string
		got  func(Config) float64
		want float64
	}{
		{"nan rock speed", "rock_speed = nan", func(c Config) float64 { return c.RockSpeed }, d.RockSpeed},
		{"fast rock speed", "rock_speed = 3.0", func(c Config) float64 { return c.RockSpeed }, 1},
		{"negative rock speed", "rock_speed = -0.5", func(c Config) float64 { return c.RockSpeed }, 0},
		{"inf stealth speed", "stealth_speed = inf", func(c Config) float64 { return c.StealthSpeed }, d.StealthSpeed},
		{"huge stealth speed", "stealth_speed = 1e300", func(c Config) float64 { return c.StealthSpeed }, MaxStealthSpeed},
		{"-inf open sens", "open_sens = -inf", func(c Config) float64 { return c.OpenSens }, d.OpenSens},
		{"huge open sens", "open_sens = 1e9", func(c Config) float64 { return c.OpenSens }, MaxOpenSens},
		{"nan face scale", "face_scale = nan", func(c Config) float64 { return c.FaceScale }, d.FaceScale},
		{"huge face scale", "face_scale = 1e12", func(c Config) float64 { return c.FaceScale }, MaxFaceScale},
		{"inf supernova force", "supernova_force = inf", func(c Config) float64 { return c.SupernovaForce }, d.SupernovaForce},
		{"huge supernova force", "supernova_force = 1e6", func(c Config) float64 { return c.SupernovaForce }, MaxSupernovaForce},
		{"nan stealth min", "stealth_min = nan", func(c Config) float64 { return c.StealthMin }, d.StealthMin},
		{"long pinch buffer", "pinch_buffer = 1e9", func(c Config) float64 { return c.PinchBuffer }, MaxBuffer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := DecodeTuning([]byte(tt.toml))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.got(c))
		})
	}

	t.Run("live set", func(t *testing.T) {
		live := NewLive(d)
		c := d
		c.RockSpeed = math.NaN()
		c.StealthSpeed = math.Inf(1)
		live.Set(c)
		got := live.Get()
		assert.Equal(t, d.RockSpeed, got.RockSpeed)
		assert.Equal(t, d.StealthSpeed, got.StealthSpeed)
	})
}

func TestIdleRGB(t *testing.T) {
	c := Default()
	r, g, b := c.IdleRGB()
	assert.InDelta(t, 0.0, r, 1e-6)
	assert.InDelta(t, 0.6, g, 1e-6)
	assert.InDelta(t, 1.0, b, 1e-6)

	c.IdleColor = "#ff0000"
	r, g, b = c.IdleRGB()
	assert.Equal(t, float32(1), r)
	assert.Equal(t, float32(0), g)
	assert.Equal(t, float32(0), b)
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		f, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultFile(), f)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nebula.toml")
		data := "[server]\naddr = \":9090\"\n\n[tuning]\nrot_speed = 0.01\nidle_color = \"#ffffff\"\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		f, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", f.Server.Addr)
		assert.Equal(t, "info", f.Server.LogLevel)
		assert.Equal(t, 0.01, f.Tuning.RotSpeed)
		assert.Equal(t, "#ffffff", f.Tuning.IdleColor)
		assert.Equal(t, 2.5, f.Tuning.OpenSens)
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[tuning\n"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestTuningRoundTrip(t *testing.T) {
	c := Default()
	c.FaceScale = 150
	c.SupernovaVibration = false

	data, err := EncodeTuning(c)
	require.NoError(t, err)

	got, err := DecodeTuning(data)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLive(t *testing.T) {
	live := NewLive(Default())

	var calls int
	live.OnChange(func(old, new Config) {
		calls++
		assert.Equal(t, 20000, old.ParticleCount)
		assert.Equal(t, 6000, new.ParticleCount)
	})

	got := live.Update(func(c *Config) { c.ParticleCount = 6000 })
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, got.ModelComplexity)
	assert.InDelta(t, 0.75, got.BlurStrength, 1e-9)
	assert.Equal(t, got, live.Get())
}

func TestLive_KeepsBlurWhenCountUnchanged(t *testing.T) {
	live := NewLive(Default())
	got := live.Update(func(c *Config) { c.BlurStrength = 0.3 })
	assert.InDelta(t, 0.3, got.BlurStrength, 1e-9)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nebula.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tuning]\nrot_speed = 0.005\n"), 0o644))

	live := NewLive(Default())
	changed := make(chan Config, 16)
	live.OnChange(func(_, new Config) { changed <- new })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, live) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[tuning]\nrot_speed = 0.02\n"), 0o644))

	// A truncating write can surface as more than one event.
	deadline := time.After(3 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case c := <-changed:
			reloaded = c.RotSpeed == 0.02
		case <-deadline:
			t.Fatal("config was not reloaded")
		}
	}

	cancel()
	assert.NoError(t, <-done)
}
