// Package shapes provides the target point clouds the particle field morphs
// into: the shape catalog, procedural generators, and an asynchronous
// library for sampled models.
package shapes

import "errors"

// ErrUnknownShape is returned for names outside the catalog.
var ErrUnknownShape = errors.New("unknown shape")

// Kind tells how an entry's points are produced.
type Kind int

const (
	// Procedural shapes are generated synchronously from a formula.
	Procedural Kind = iota
	// Sampled shapes come from a Sampler, usually a mesh plugin.
	Sampled
)

func (k Kind) String() string {
	if k == Sampled {
		return "model"
	}
	return "maths"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Rotation is an Euler rotation in radians, applied X then Y then Z.
type Rotation struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Entry describes one catalog shape.
type Entry struct {
	Name     string   `json:"name"`
	Group    string   `json:"group"`
	Kind     Kind     `json:"kind"`
	Rotation Rotation `json:"rotation"`
	Scale    float32  `json:"scale"`
}

// Catalog groups.
const (
	GroupBasic    = "Basic Geometry"
	GroupPlatonic = "Platonic Solids"
	GroupQuadric  = "Quadric & Solid Forms"
	GroupCurves   = "Curves & Motion Forms"
	GroupSurfaces = "Advanced Surfaces"
	GroupTopology = "Abstract / Topology"
	GroupScience  = "Scientific / Micro Structures"
	GroupAnatomy  = "Human Anatomy"
	GroupNature   = "Nature"
	GroupObjects  = "Objects / Symbolic Items"
	GroupCosmic   = "Cosmic Scale"
)

const (
	halfPi       = 1.5707964
	mobiusTilt   = 135 * 3.1415927 / 180
	defaultScale = 1.5
	unitScale    = 1.0
	skullScale   = 1.15
)

func maths(name, group string) Entry {
	return Entry{Name: name, Group: group, Kind: Procedural, Scale: unitScale}
}

func model(name, group string, rot Rotation, scale float32) Entry {
	return Entry{Name: name, Group: group, Kind: Sampled, Rotation: rot, Scale: scale}
}

var (
	flat   = Rotation{}
	tiltUp = Rotation{X: -halfPi}
	tiltDn = Rotation{X: halfPi}
)

var catalog = []Entry{
	maths("Sphere", GroupBasic),
	maths("Cube", GroupBasic),
	maths("Pyramid", GroupBasic),
	maths("Heart", GroupBasic),
	maths("Plane", GroupBasic),

	maths("Tetrahedron", GroupPlatonic),
	maths("Octahedron", GroupPlatonic),
	maths("Dodecahedron", GroupPlatonic),
	maths("Icosahedron", GroupPlatonic),

	maths("Ellipsoid", GroupQuadric),
	maths("Cone", GroupQuadric),
	maths("Cylinder", GroupQuadric),
	maths("Frustum", GroupQuadric),
	maths("Torus", GroupQuadric),

	maths("Wave", GroupCurves),
	maths("Spiral", GroupCurves),
	maths("Helix", GroupCurves),
	maths("Arrow", GroupCurves),
	maths("Spring", GroupCurves),
	maths("Lissajous Curve", GroupCurves),
	maths("Infinity Symbol", GroupCurves),

	maths("Hyperboloid", GroupSurfaces),
	maths("Saddle Surface", GroupSurfaces),

	model("Tesseract", GroupTopology, flat, unitScale),
	model("Abstract Tesseract", GroupTopology, flat, unitScale),
	model("Metatron Cube", GroupTopology, tiltUp, unitScale),
	model("Fractal", GroupTopology, flat, defaultScale),
	model("Julia Set", GroupTopology, flat, defaultScale),
	model("Fractal Dragon", GroupTopology, tiltDn, defaultScale),
	model("Thomas Attractor", GroupTopology, flat, defaultScale),
	model("Butterfly Curve", GroupTopology, tiltUp, defaultScale),
	model("Torus Arch", GroupTopology, tiltUp, defaultScale),
	model("Torus Knot", GroupTopology, flat, defaultScale),
	model("Triquetra", GroupTopology, flat, defaultScale),
	model("Mobius Strip", GroupTopology, Rotation{X: mobiusTilt}, defaultScale),
	model("Klein Bottle", GroupTopology, tiltUp, defaultScale),

	model("Atom", GroupScience, flat, defaultScale),
	model("Cell", GroupScience, flat, defaultScale),
	model("Neuron", GroupScience, flat, defaultScale),
	model("DNA", GroupScience, tiltDn, defaultScale),

	model("Brain", GroupAnatomy, flat, defaultScale),
	model("Human Heart", GroupAnatomy, flat, defaultScale),
	model("Hand", GroupAnatomy, tiltUp, defaultScale),
	model("Foot", GroupAnatomy, tiltUp, defaultScale),
	model("Skull", GroupAnatomy, tiltUp, skullScale),
	model("Human", GroupAnatomy, tiltDn, defaultScale),

	model("Leaf", GroupNature, flat, defaultScale),
	model("Tree", GroupNature, tiltUp, defaultScale),

	model("Zangetsu", GroupObjects, Rotation{Z: -halfPi}, defaultScale),
	model("Hylian Shield", GroupObjects, flat, defaultScale),
	model("Arc Reactor", GroupObjects, flat, unitScale),
	model("Mjolnir", GroupObjects, tiltUp, defaultScale),
	model("Gear", GroupObjects, flat, defaultScale),
	model("Shoe", GroupObjects, flat, defaultScale),
	model("Airplane", GroupObjects, tiltUp, defaultScale),

	maths("Saturn", GroupCosmic),
	maths("Galaxy", GroupCosmic),
}

var byName = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, e := range catalog {
		m[e.Name] = i
	}
	return m
}()

// Catalog returns a copy of every shape in display order.
func Catalog() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	return out
}

// Names returns the shape names in display order.
func Names() []string {
	out := make([]string, len(catalog))
	for i, e := range catalog {
		out[i] = e.Name
	}
	return out
}

// Lookup finds a catalog entry by name.
func Lookup(name string) (Entry, bool) {
	i, ok := byName[name]
	if !ok {
		return Entry{}, false
	}
	return catalog[i], true
}

// Index returns the catalog position of name, or -1.
func Index(name string) int {
	if i, ok := byName[name]; ok {
		return i
	}
	return -1
}
