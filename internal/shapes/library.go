package shapes

import (
	"context"
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ayusman/nebula/internal/log"
)

// FitRadius is the bounding radius sampled models are scaled to before
// their catalog scale is applied.
const FitRadius = 40

// ErrEmptyCloud is returned when a sampler produces no usable points.
var ErrEmptyCloud = errors.New("empty point cloud")

// Sampler produces count points (3 floats each) for a named model.
type Sampler interface {
	Sample(ctx context.Context, name string, count int) ([]float32, error)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ctx context.Context, name string, count int) ([]float32, error)

// Sample calls f.
func (f SamplerFunc) Sample(ctx context.Context, name string, count int) ([]float32, error) {
	return f(ctx, name, count)
}

type key struct {
	name  string
	count int
}

type result struct {
	key
	points []float32
	err    error
}

// Library resolves shape names to target fields. Procedural shapes are
// produced synchronously; sampled shapes load on their own goroutine and
// are handed back through Poll. Load and Poll must be called from the same
// goroutine.
type Library struct {
	sampler Sampler
	cache   map[key][]float32
	pending map[key]bool
	results chan result
}

// NewLibrary creates a Library. A nil sampler leaves every model on its
// placeholder.
func NewLibrary(s Sampler) *Library {
	return &Library{
		sampler: s,
		cache:   make(map[key][]float32),
		pending: make(map[key]bool),
		results: make(chan result, 16),
	}
}

// Load writes the target field for name into dst, which holds 3 floats per
// particle. It reports whether the real shape was written; false means a
// placeholder is showing while the model loads.
func (l *Library) Load(ctx context.Context, name string, dst []float32) (bool, error) {
	entry, ok := Lookup(name)
	if !ok {
		return false, fmt.Errorf("load %q: %w", name, ErrUnknownShape)
	}
	k := key{name, len(dst) / 3}

	if pts, ok := l.cache[k]; ok {
		copy(dst, pts)
		return true, nil
	}

	if entry.Kind == Procedural {
		pts, err := Generate(name, k.count)
		if err != nil {
			return false, err
		}
		l.cache[k] = pts
		copy(dst, pts)
		return true, nil
	}

	copy(dst, Placeholder(name, k.count))
	if l.sampler == nil {
		log.Warn("no sampler for model shape", "shape", name)
		return false, nil
	}
	if !l.pending[k] {
		l.pending[k] = true
		go l.sample(ctx, entry, k)
	}
	return false, nil
}

func (l *Library) sample(ctx context.Context, entry Entry, k key) {
	pts, err := l.sampler.Sample(ctx, k.name, k.count)
	if err == nil {
		pts, err = Fit(pts, k.count, entry.Rotation, entry.Scale)
	}
	select {
	case l.results <- result{key: k, points: pts, err: err}:
	case <-ctx.Done():
	}
}

// Poll collects finished loads without blocking. When one matches the
// current shape and particle count it is copied into dst in place and Poll
// returns true. Failed loads are logged and the placeholder stays.
func (l *Library) Poll(current string, dst []float32) bool {
	applied := false
	for {
		select {
		case res := <-l.results:
			delete(l.pending, res.key)
			if res.err != nil {
				log.Warn("shape load failed", "shape", res.name, "count", res.count, "err", res.err)
				continue
			}
			l.cache[res.key] = res.points
			log.Debug("shape loaded", "shape", res.name, "count", res.count)
			if res.name == current && res.count == len(dst)/3 {
				copy(dst, res.points)
				applied = true
			}
		default:
			return applied
		}
	}
}

// Pending reports whether name is still loading for count particles.
func (l *Library) Pending(name string, count int) bool {
	return l.pending[key{name, count}]
}

// Fit turns raw model points into a target field of exactly count points:
// centred on the bounding box, scaled to FitRadius, rotated, then scaled by
// scale. Non-finite points are dropped; the rest are repeated when there
// are fewer than count.
func Fit(raw []float32, count int, rot Rotation, scale float32) ([]float32, error) {
	pts := make([]float32, 0, len(raw)-len(raw)%3)
	for i := 0; i+2 < len(raw); i += 3 {
		x, y, z := raw[i], raw[i+1], raw[i+2]
		if !finite(x) || !finite(y) || !finite(z) {
			continue
		}
		pts = append(pts, x, y, z)
	}
	m := len(pts) / 3
	if m == 0 {
		return nil, ErrEmptyCloud
	}

	var lo, hi [3]float32
	for c := 0; c < 3; c++ {
		lo[c], hi[c] = pts[c], pts[c]
	}
	for i := 0; i < m; i++ {
		for c := 0; c < 3; c++ {
			v := pts[i*3+c]
			lo[c] = math32.Min(lo[c], v)
			hi[c] = math32.Max(hi[c], v)
		}
	}
	var centre [3]float32
	for c := 0; c < 3; c++ {
		centre[c] = (lo[c] + hi[c]) / 2
	}
	var radius float32
	for i := 0; i < m; i++ {
		dx, dy, dz := pts[i*3]-centre[0], pts[i*3+1]-centre[1], pts[i*3+2]-centre[2]
		radius = math32.Max(radius, math32.Sqrt(dx*dx+dy*dy+dz*dz))
	}
	k := scale
	if radius > 0 {
		k = FitRadius / radius * scale
	}

	sx, cx := math32.Sincos(rot.X)
	sy, cy := math32.Sincos(rot.Y)
	sz, cz := math32.Sincos(rot.Z)
	out := make([]float32, count*3)
	for i := 0; i < count; i++ {
		j := i % m
		x := (pts[j*3] - centre[0]) * k
		y := (pts[j*3+1] - centre[1]) * k
		z := (pts[j*3+2] - centre[2]) * k
		y, z = y*cx-z*sx, y*sx+z*cx
		x, z = x*cy+z*sy, -x*sy+z*cy
		x, y = x*cz-y*sz, x*sz+y*cz
		set(out, i, x, y, z)
	}
	return out, nil
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
