package config

import "sync"

// Live is the shared, runtime-editable configuration. Readers take a copy
// with Get once per frame; writers replace it atomically.
type Live struct {
	mu    sync.RWMutex
	cfg   Config
	hooks []func(old, new Config)
}

// NewLive creates a Live holding c.
func NewLive(c Config) *Live {
	c.Normalize()
	return &Live{cfg: c}
}

// Get returns a snapshot of the current configuration.
func (l *Live) Get() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Set replaces the configuration. A change of particle count re-derives the
// performance tier, matching what selecting a tier does.
func (l *Live) Set(c Config) Config {
	c.Normalize()

	l.mu.Lock()
	old := l.cfg
	if c.ParticleCount != old.ParticleCount {
		c.ApplyTier()
	}
	l.cfg = c
	hooks := append([]func(old, new Config){}, l.hooks...)
	l.mu.Unlock()

	// Hooks run outside the lock so they may call Get.
	for _, h := range hooks {
		h(old, c)
	}
	return c
}

// Update applies fn to a copy of the configuration and stores the result.
func (l *Live) Update(fn func(*Config)) Config {
	c := l.Get()
	fn(&c)
	return l.Set(c)
}

// OnChange registers fn to run after every Set.
func (l *Live) OnChange(fn func(old, new Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, fn)
}
