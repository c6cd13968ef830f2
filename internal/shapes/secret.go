package shapes

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
)

// Secret returns the easter-egg cloud for count particles: a fist with a
// raised middle finger, three curled knuckles and a thumb, with the
// remainder in a small cube at the origin.
func Secret(count int) []float32 {
	out := make([]float32, count*3)
	r := seeded("secret", count)
	idx := 0
	add := func(share float64, gen func() (float32, float32, float32)) {
		n := int(float64(count) * share)
		for i := 0; i < n && idx < count; i++ {
			x, y, z := gen()
			set(out, idx, x, y, z)
			idx++
		}
	}

	// Palm.
	add(0.30, func() (float32, float32, float32) {
		return centred(r, 43), centred(r, 40) - 20, centred(r, 15)
	})
	// Raised finger.
	add(0.25, func() (float32, float32, float32) {
		const h, rad = 55, 7.5
		a := angle(r)
		d := math32.Sqrt(r.Float32()) * rad
		return math32.Cos(a)*d - 5.5, r.Float32() * h, math32.Sin(a) * d
	})
	// Curled fingers.
	for _, k := range [][2]float32{{-17, 6}, {6.5, 6}, {16, 3}} {
		add(0.10, knuckle(r, k[0], k[1]))
	}
	// Thumb.
	add(0.15, func() (float32, float32, float32) {
		return -27 + centred(r, 10), -30 + centred(r, 15), 5 + centred(r, 8)
	})
	for ; idx < count; idx++ {
		set(out, idx, centred(r, 20), centred(r, 20), centred(r, 20))
	}
	return out
}

func knuckle(r *rand.Rand, kx, ky float32) func() (float32, float32, float32) {
	return func() (float32, float32, float32) {
		c := r.Float32() * math32.Pi
		x := kx + centred(r, 8)
		y := ky - math32.Sin(c/2)*35
		z := -(1 - math32.Cos(c)) * 10
		return x, y + centred(r, 5), z + centred(r, 5) + 5
	}
}
