package gesture

// confirmEpsilon absorbs float drift in summed frame times, so that 30
// frames of 1/60 s do not read as more than half a second.
const confirmEpsilon = 1e-9

// Fixed timings, in seconds.
const (
	PinchGrace        = 0.5
	ShapeCooldown     = 2.0
	AudioCooldown     = 2.0
	PlayPauseCooldown = 0.5
)

// Buffer accumulates time while a symbol holds and drops to zero otherwise.
type Buffer struct {
	elapsed float64
}

// Hold advances the buffer by dt when active and resets it when not.
func (b *Buffer) Hold(active bool, dt float64) {
	if active {
		b.elapsed += dt
		return
	}
	b.elapsed = 0
}

// Exceeds reports whether the held time is past threshold.
func (b *Buffer) Exceeds(threshold float64) bool {
	return b.elapsed > threshold+confirmEpsilon
}

// Elapsed returns the held time.
func (b *Buffer) Elapsed() float64 { return b.elapsed }

// Reset clears the held time.
func (b *Buffer) Reset() { b.elapsed = 0 }

// Cooldown counts down after an action fires.
type Cooldown struct {
	remaining float64
}

// Tick counts the cooldown down by dt.
func (c *Cooldown) Tick(dt float64) {
	if c.remaining > 0 {
		c.remaining -= dt
	}
}

// Ready reports whether the action may fire.
func (c *Cooldown) Ready() bool { return c.remaining <= 0 }

// Arm blocks the action for d seconds.
func (c *Cooldown) Arm(d float64) { c.remaining = d }

// Remaining returns the time left.
func (c *Cooldown) Remaining() float64 { return c.remaining }

// Grace keeps an effect alive for a short window after the last time it was
// confirmed.
type Grace struct {
	window float64
	last   float64
	seen   bool
}

// NewGrace creates a Grace with the given window in seconds.
func NewGrace(window float64) Grace {
	return Grace{window: window}
}

// Mark records a confirmation at time now.
func (g *Grace) Mark(now float64) {
	g.last = now
	g.seen = true
}

// Active reports whether now is within the window of the last confirmation.
// Nothing is active before the first confirmation.
func (g *Grace) Active(now float64) bool {
	return g.seen && now-g.last < g.window
}

// Debounced is the per-frame output of the Debouncer.
type Debounced struct {
	// Pinch is a confirmed pinch this frame; PinchGrace is true while a
	// recent confirmation still counts.
	Pinch      bool
	PinchGrace bool
	Peace      bool
	Secret     bool
}

// PinchHeld reports whether pinch-dependent effects should run.
func (d Debounced) PinchHeld() bool { return d.Pinch || d.PinchGrace }

// Thresholds are the buffer durations, read from configuration each frame.
type Thresholds struct {
	Pinch  float64
	Peace  float64
	Secret float64
}

// Debouncer holds the gesture buffers and action cooldowns.
type Debouncer struct {
	Pinch  Buffer
	Peace  Buffer
	Secret Buffer
	Grace  Grace

	// Shape gates shape advance. Audio gates the microphone toggle and
	// play/pause, which share one timer.
	Shape Cooldown
	Audio Cooldown
}

// NewDebouncer creates a Debouncer with the standard grace window.
func NewDebouncer() *Debouncer {
	return &Debouncer{Grace: NewGrace(PinchGrace)}
}

// Step ticks the cooldowns, advances the buffers with the current symbol
// and returns what is confirmed at time now.
func (d *Debouncer) Step(s Symbol, dt, now float64, th Thresholds) Debounced {
	d.Shape.Tick(dt)
	d.Audio.Tick(dt)

	d.Pinch.Hold(s == Pinch, dt)
	d.Peace.Hold(s == Peace, dt)
	d.Secret.Hold(s == Secret, dt)

	out := Debounced{
		Pinch:  s == Pinch && d.Pinch.Exceeds(th.Pinch),
		Peace:  s == Peace && d.Peace.Exceeds(th.Peace),
		Secret: s == Secret && d.Secret.Exceeds(th.Secret),
	}
	if out.Pinch {
		d.Grace.Mark(now)
	}
	out.PinchGrace = d.Grace.Active(now)
	return out
}
