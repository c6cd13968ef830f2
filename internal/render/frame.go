// Package render defines what the engine hands to a renderer each tick and
// provides the renderers the service ships with: a websocket broadcaster for
// browser clients and a desktop window.
package render

import (
	"errors"

	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/orbit"
	"github.com/ayusman/nebula/internal/particles"
	"github.com/ayusman/nebula/internal/session"
)

// Cursor is the smoothed fingertip in [-1, 1] screen space, X to the right.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is one tick of output. The particle slices alias the engine's
// buffers and are only valid during Render; renderers that keep them must
// copy.
type Frame struct {
	Seq           uint64        `json:"seq"`
	Time          float64       `json:"time"`
	Count         int           `json:"count"`
	Yaw           float32       `json:"yaw"`
	Camera        orbit.Pose    `json:"camera"`
	VisRotation   float64       `json:"visRotation"`
	Blur          float64       `json:"blur"`
	Mode          session.Mode  `json:"mode"`
	Flags         session.Flags `json:"flags"`
	StealthFactor float64       `json:"stealthFactor"`
	Status        string        `json:"status"`
	Gesture       string        `json:"gesture"`
	Shape         string        `json:"shape"`
	Tier          string        `json:"tier"`
	Hand          *Cursor       `json:"hand,omitempty"`
	LowLight      bool          `json:"lowLight"`
	Vibrate       bool          `json:"vibrate"`

	Positions []float32 `json:"-"`
	Colors    []float32 `json:"-"`
	Sizes     []float32 `json:"-"`
}

// Build fills f from the session and particle field after a tick.
func Build(f *Frame, seq uint64, st *session.State, field *particles.Field, cfg config.Config, lowLight bool) {
	*f = Frame{
		Seq:           seq,
		Time:          st.Time,
		Count:         field.N,
		Yaw:           field.Yaw,
		Camera:        orbit.PoseOf(st),
		VisRotation:   st.Camera.VisRotation,
		Blur:          orbit.Blur(st, cfg),
		Mode:          st.Flags.Mode(),
		Flags:         st.Flags,
		StealthFactor: st.StealthFactor,
		Status:        session.StatusLabel(st, cfg.SupernovaCharge),
		Gesture:       session.GestureLabel(st),
		Shape:         st.ShapeName,
		Tier:          config.PerformanceTier(field.N).Name,
		LowLight:      lowLight,
		Vibrate:       st.Vibrate,
		Positions:     field.Positions,
		Colors:        field.Colors,
		Sizes:         field.Sizes,
	}
	if st.Hand.Present {
		f.Hand = &Cursor{X: st.Hand.X, Y: st.Hand.Y}
	}
}

// Renderer draws frames. Render is called on the engine goroutine once per
// tick and must not block on slow consumers.
type Renderer interface {
	Render(f *Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f *Frame) error

// Render implements Renderer.
func (fn RendererFunc) Render(f *Frame) error { return fn(f) }

// Multi fans a frame out to several renderers.
type Multi []Renderer

// Render implements Renderer. Every renderer sees the frame even when an
// earlier one fails.
func (m Multi) Render(f *Frame) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every frame.
var Discard Renderer = RendererFunc(func(*Frame) error { return nil })
