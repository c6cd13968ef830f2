package shapes

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/chewxy/math32"
)

// generator fills out (3 floats per point) with n points.
type generator func(r *rand.Rand, out []float32, n int)

var generators = map[string]generator{
	"Sphere":          sphereShell(35),
	"Cube":            cube,
	"Pyramid":         pyramid,
	"Heart":           heart,
	"Plane":           plane,
	"Tetrahedron":     wireframe(tetrahedron),
	"Octahedron":      wireframe(octahedron),
	"Dodecahedron":    wireframe(dodecahedron),
	"Icosahedron":     wireframe(icosahedron),
	"Ellipsoid":       ellipsoid,
	"Cone":            cone,
	"Cylinder":        cylinder,
	"Frustum":         frustum,
	"Torus":           torus,
	"Wave":            wave,
	"Spiral":          spiral,
	"Helix":           helix,
	"Arrow":           arrow,
	"Spring":          spring,
	"Lissajous Curve": lissajous,
	"Infinity Symbol": infinity,
	"Hyperboloid":     hyperboloid,
	"Saddle Surface":  saddle,
	"Saturn":          saturn,
	"Galaxy":          galaxy,
}

// fallbacks stand in for sampled models while they load or when loading
// fails.
var fallbacks = map[string]generator{
	"Human": human,
}

// HasGenerator reports whether name can be generated without a sampler.
func HasGenerator(name string) bool {
	_, ok := generators[name]
	return ok
}

// Generate returns count points of a procedural shape. The same name and
// count always produce the same points.
func Generate(name string, count int) ([]float32, error) {
	gen, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("generate %q: %w", name, ErrUnknownShape)
	}
	out := make([]float32, count*3)
	gen(seeded(name, count), out, count)
	return out, nil
}

// Placeholder returns the cloud shown for name until its real points arrive.
func Placeholder(name string, count int) []float32 {
	out := make([]float32, count*3)
	r := seeded("placeholder:"+name, count)
	if gen, ok := fallbacks[name]; ok {
		gen(r, out, count)
		return out
	}
	ball(40)(r, out, count)
	return out
}

func seeded(name string, count int) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewPCG(h.Sum64(), uint64(count)))
}

func set(out []float32, i int, x, y, z float32) {
	out[i*3], out[i*3+1], out[i*3+2] = x, y, z
}

// centred returns a uniform value in [-w/2, w/2).
func centred(r *rand.Rand, w float32) float32 {
	return (r.Float32() - 0.5) * w
}

func angle(r *rand.Rand) float32 {
	return r.Float32() * 2 * math32.Pi
}

// unitSphere returns a uniformly distributed direction.
func unitSphere(r *rand.Rand) (x, y, z float32) {
	t := angle(r)
	p := math32.Acos(2*r.Float32() - 1)
	return math32.Sin(p) * math32.Cos(t), math32.Sin(p) * math32.Sin(t), math32.Cos(p)
}

func sphereShell(radius float32) generator {
	return func(r *rand.Rand, out []float32, n int) {
		for i := 0; i < n; i++ {
			x, y, z := unitSphere(r)
			set(out, i, x*radius, y*radius, z*radius)
		}
	}
}

func ball(radius float32) generator {
	return func(r *rand.Rand, out []float32, n int) {
		for i := 0; i < n; i++ {
			x, y, z := unitSphere(r)
			d := radius * math32.Pow(r.Float32(), 1.0/3)
			set(out, i, x*d, y*d, z*d)
		}
	}
}

func cube(r *rand.Rand, out []float32, n int) {
	const s = 50
	for i := 0; i < n; i++ {
		set(out, i, centred(r, s), centred(r, s), centred(r, s))
	}
}

func pyramid(r *rand.Rand, out []float32, n int) {
	const h, b = 50, 45
	for i := 0; i < n; i++ {
		yn := r.Float32()
		w := (1 - yn) * b
		set(out, i, centred(r, w), (yn-0.5)*h, centred(r, w))
	}
}

func heart(r *rand.Rand, out []float32, n int) {
	for i := 0; i < n; i++ {
		t := angle(r)
		x := 16 * math32.Pow(math32.Sin(t), 3)
		y := 13*math32.Cos(t) - 5*math32.Cos(2*t) - 2*math32.Cos(3*t) - math32.Cos(4*t)
		z := centred(r, 15)
		set(out, i, x*1.5, y*1.5, z*1.5)
	}
}

func plane(r *rand.Rand, out []float32, n int) {
	for i := 0; i < n; i++ {
		set(out, i, centred(r, 150), centred(r, 100), 0)
	}
}

type vec3 struct{ x, y, z float32 }

func (a vec3) sub(b vec3) vec3 { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }

func (a vec3) len() float32 { return math32.Sqrt(a.x*a.x + a.y*a.y + a.z*a.z) }

const phi = 1.618034

var (
	tetrahedron = []vec3{{1, 1, 1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}}
	octahedron  = []vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	icosahedron = func() []vec3 {
		var v []vec3
		for _, a := range []float32{-1, 1} {
			for _, b := range []float32{-phi, phi} {
				v = append(v, vec3{0, a, b}, vec3{a, b, 0}, vec3{b, 0, a})
			}
		}
		return v
	}()
	dodecahedron = func() []vec3 {
		var v []vec3
		for _, a := range []float32{-1, 1} {
			for _, b := range []float32{-1, 1} {
				for _, c := range []float32{-1, 1} {
					v = append(v, vec3{a, b, c})
				}
				v = append(v,
					vec3{0, a / phi, b * phi},
					vec3{a / phi, b * phi, 0},
					vec3{a * phi, 0, b / phi})
			}
		}
		return v
	}()
)

// edges returns the vertex pairs at the shortest distance, which for a
// regular polyhedron are exactly its edges.
func edges(v []vec3) [][2]vec3 {
	var shortest float32 = math.MaxFloat32
	for i := range v {
		for j := i + 1; j < len(v); j++ {
			if d := v[i].sub(v[j]).len(); d < shortest {
				shortest = d
			}
		}
	}
	var out [][2]vec3
	for i := range v {
		for j := i + 1; j < len(v); j++ {
			if v[i].sub(v[j]).len() < shortest*1.01 {
				out = append(out, [2]vec3{v[i], v[j]})
			}
		}
	}
	return out
}

// wireframe spreads points along the edges of a polyhedron scaled to a
// circumradius of 40.
func wireframe(verts []vec3) generator {
	const radius = 40
	es := edges(verts)
	scale := radius / verts[0].len()
	return func(r *rand.Rand, out []float32, n int) {
		for i := 0; i < n; i++ {
			e := es[i%len(es)]
			t := r.Float32()
			x := e[0].x + (e[1].x-e[0].x)*t
			y := e[0].y + (e[1].y-e[0].y)*t
			z := e[0].z + (e[1].z-e[0].z)*t
			set(out, i, x*scale+centred(r, 1.5), y*scale+centred(r, 1.5), z*scale+centred(r, 1.5))
		}
	}
}

func ellipsoid(r *rand.Rand, out []float32, n int) {
	for i := 0; i < n; i++ {
		x, y, z := unitSphere(r)
		set(out, i, x*45, y*30, z*25)
	}
}

// lateral places a point on the side of a frustum with bottom radius r0 and
// top radius r1, height h centred on the origin.
func lateral(r *rand.Rand, r0, r1, h float32) (x, y, z float32) {
	t := r.Float32()
	rad := r0 + (r1-r0)*t
	a := angle(r)
	return math32.Cos(a) * rad, (t - 0.5) * h, math32.Sin(a) * rad
}

// disc places a point on a horizontal disc of radius rad at height y.
func disc(r *rand.Rand, rad, y float32) (float32, float32, float32) {
	a := angle(r)
	d := math32.Sqrt(r.Float32()) * rad
	return math32.Cos(a) * d, y, math32.Sin(a) * d
}

func cone(r *rand.Rand, out []float32, n int) {
	const rad, h = 25.0, 50.0
	for i := 0; i < n; i++ {
		if i%5 == 0 {
			x, y, z := disc(r, rad, -h/2)
			set(out, i, x, y, z)
			continue
		}
		// Denser toward the base so the surface density stays even.
		u := math32.Sqrt(r.Float32())
		a := angle(r)
		set(out, i, math32.Cos(a)*rad*u, h/2-h*u, math32.Sin(a)*rad*u)
	}
}

func cylinder(r *rand.Rand, out []float32, n int) {
	const rad, h = 20.0, 55.0
	for i := 0; i < n; i++ {
		switch i % 10 {
		case 0:
			x, y, z := disc(r, rad, -h/2)
			set(out, i, x, y, z)
		case 1:
			x, y, z := disc(r, rad, h/2)
			set(out, i, x, y, z)
		default:
			x, y, z := lateral(r, rad, rad, h)
			set(out, i, x, y, z)
		}
	}
}

func frustum(r *rand.Rand, out []float32, n int) {
	const r0, r1, h = 30.0, 15.0, 50.0
	for i := 0; i < n; i++ {
		switch i % 10 {
		case 0:
			x, y, z := disc(r, r0, -h/2)
			set(out, i, x, y, z)
		case 1:
			x, y, z := disc(r, r1, h/2)
			set(out, i, x, y, z)
		default:
			x, y, z := lateral(r, r0, r1, h)
			set(out, i, x, y, z)
		}
	}
}

func torus(r *rand.Rand, out []float32, n int) {
	const big, small = 30, 10
	for i := 0; i < n; i++ {
		u, v := angle(r), angle(r)
		d := big + small*math32.Cos(v)
		set(out, i, d*math32.Cos(u), small*math32.Sin(v), d*math32.Sin(u))
	}
}

func wave(r *rand.Rand, out []float32, n int) {
	for i := 0; i < n; i++ {
		x, z := centred(r, 120), centred(r, 120)
		set(out, i, x, 8*math32.Sin(x*0.1)*math32.Cos(z*0.1), z)
	}
}

func spiral(r *rand.Rand, out []float32, n int) {
	const turns = 6 * math32.Pi
	for i := 0; i < n; i++ {
		t := r.Float32() * turns
		rad := 3 * t
		set(out, i, math32.Cos(t)*rad+centred(r, 2), math32.Sin(t)*rad+centred(r, 2), centred(r, 4))
	}
}

func helix(r *rand.Rand, out []float32, n int) {
	const turns, rad, h = 8 * math32.Pi, 20, 70
	for i := 0; i < n; i++ {
		t := r.Float32() * turns
		set(out, i, math32.Cos(t)*rad+centred(r, 2), (t/turns-0.5)*h, math32.Sin(t)*rad+centred(r, 2))
	}
}

func arrow(r *rand.Rand, out []float32, n int) {
	const shaft, tip, head = -40, 15, 40
	for i := 0; i < n; i++ {
		a := angle(r)
		if i%5 < 3 {
			d := 4 * math32.Sqrt(r.Float32())
			set(out, i, shaft+r.Float32()*(tip-shaft), math32.Cos(a)*d, math32.Sin(a)*d)
			continue
		}
		t := r.Float32()
		rad := 14 * (1 - t) * math32.Sqrt(r.Float32())
		set(out, i, tip+t*(head-tip), math32.Cos(a)*rad, math32.Sin(a)*rad)
	}
}

func spring(r *rand.Rand, out []float32, n int) {
	const turns, coil, tube, h = 10 * math32.Pi, 18, 3, 70
	for i := 0; i < n; i++ {
		t := r.Float32() * turns
		v := angle(r)
		d := coil + tube*math32.Cos(v)
		set(out, i, math32.Cos(t)*d, (t/turns-0.5)*h+tube*math32.Sin(v), math32.Sin(t)*d)
	}
}

func lissajous(r *rand.Rand, out []float32, n int) {
	for i := 0; i < n; i++ {
		t := angle(r)
		set(out, i,
			40*math32.Sin(3*t+math32.Pi/2)+centred(r, 2),
			40*math32.Sin(2*t)+centred(r, 2),
			20*math32.Sin(5*t)+centred(r, 2))
	}
}

func infinity(r *rand.Rand, out []float32, n int) {
	const a = 45
	for i := 0; i < n; i++ {
		t := angle(r)
		s := math32.Sin(t)
		den := 1 + s*s
		set(out, i, a*math32.Cos(t)/den+centred(r, 2), a*s*math32.Cos(t)/den+centred(r, 2), centred(r, 6))
	}
}

func hyperboloid(r *rand.Rand, out []float32, n int) {
	for i := 0; i < n; i++ {
		u := centred(r, 2.4)
		v := angle(r)
		eu, en := math32.Exp(u), math32.Exp(-u)
		cosh, sinh := (eu+en)/2, (eu-en)/2
		set(out, i, 15*cosh*math32.Cos(v), 20*sinh, 15*cosh*math32.Sin(v))
	}
}

func saddle(r *rand.Rand, out []float32, n int) {
	for i := 0; i < n; i++ {
		x, z := centred(r, 80), centred(r, 80)
		set(out, i, x, (x*x-z*z)/60, z)
	}
}

func saturn(r *rand.Rand, out []float32, n int) {
	const tilt = 0.5
	for i := 0; i < n; i++ {
		var x, y, z float32
		if r.Float32() < 0.3 {
			x, y, z = unitSphere(r)
			x, y, z = x*20, y*20, z*20
		} else {
			a := angle(r)
			d := 30 + r.Float32()*20
			x, z = math32.Cos(a)*d, math32.Sin(a)*d
			y = r.Float32() - 0.5
		}
		tx := x
		x = tx*math32.Cos(tilt) - y*math32.Sin(tilt)
		y = tx*math32.Sin(tilt) + y*math32.Cos(tilt)
		set(out, i, x, y, z)
	}
}

func galaxy(r *rand.Rand, out []float32, n int) {
	const arms = 4
	for i := 0; i < n; i++ {
		arm := float32(i % arms)
		rad := r.Float32() * 50
		a := arm/arms*2*math32.Pi + rad*0.1
		set(out, i,
			math32.Cos(a)*rad+centred(r, 5),
			centred(r, 10-rad*0.15),
			math32.Sin(a)*rad+centred(r, 5))
	}
}

func human(r *rand.Rand, out []float32, n int) {
	for i := 0; i < n; i++ {
		p := r.Float32()
		switch {
		case p < 0.1:
			x, y, z := unitSphere(r)
			set(out, i, x*6, y*6+25, z*6)
		case p < 0.45:
			set(out, i, centred(r, 14), centred(r, 28), centred(r, 8))
		case p < 0.6:
			set(out, i, -12+centred(r, 4), 5+centred(r, 22), centred(r, 4))
		case p < 0.75:
			set(out, i, 12+centred(r, 4), 5+centred(r, 22), centred(r, 4))
		case p < 0.875:
			set(out, i, -5+centred(r, 5), -24+centred(r, 24), centred(r, 5))
		default:
			set(out, i, 5+centred(r, 5), -24+centred(r, 24), centred(r, 5))
		}
	}
}
