// Package particles owns the particle buffers and advances them toward
// their mode-dependent targets every frame.
package particles

import (
	"math/rand/v2"

	"github.com/ayusman/nebula/internal/shapes"
)

// Field defaults.
const (
	InitialSpread = 200
	DefaultSize   = 1.5
)

// Field holds the particle buffers. Positions, Colors and the target arrays
// hold 3 floats per particle; Sizes holds one. Buffers are mutated in place
// and only reallocated when the particle count changes.
type Field struct {
	N         int
	Positions []float32
	Colors    []float32
	Sizes     []float32

	// Target is the current shape. The shape library writes into it.
	Target []float32
	// Secret is the easter-egg cloud.
	Secret []float32
	// Face and FaceColor follow the latest face mesh.
	Face      []float32
	FaceColor []float32

	// Yaw is the rotation of the whole cloud about the vertical axis.
	Yaw float32
}

// NewField allocates a field of n particles scattered in a cube.
func NewField(n int, r *rand.Rand) *Field {
	f := &Field{}
	f.alloc(n, r)
	return f
}

func (f *Field) alloc(n int, r *rand.Rand) {
	f.N = n
	f.Positions = make([]float32, n*3)
	f.Colors = make([]float32, n*3)
	f.Sizes = make([]float32, n)
	f.Target = make([]float32, n*3)
	f.Face = make([]float32, n*3)
	f.FaceColor = make([]float32, n*3)
	for i := range f.Positions {
		f.Positions[i] = (r.Float32() - 0.5) * InitialSpread
		f.Colors[i] = 1
	}
	copy(f.Target, f.Positions)
	for i := range f.Sizes {
		f.Sizes[i] = DefaultSize
	}
	f.Secret = shapes.Secret(n)
}

// Resize reallocates the buffers when n differs from the current count and
// reports whether it did. The caller reloads the target shape afterwards.
func (f *Field) Resize(n int, r *rand.Rand) bool {
	if n == f.N {
		return false
	}
	f.alloc(n, r)
	return true
}
