package render

import "sync/atomic"

// Latest is a Renderer that keeps the header of the most recent frame for
// readers on other goroutines. Particle buffers are not retained.
type Latest struct {
	v atomic.Pointer[Frame]
}

// Render implements Renderer.
func (l *Latest) Render(f *Frame) error {
	h := *f
	h.Positions, h.Colors, h.Sizes = nil, nil, nil
	l.v.Store(&h)
	return nil
}

// Frame returns the last header, or nil before the first tick.
func (l *Latest) Frame() *Frame {
	return l.v.Load()
}
