package render

import (
	"github.com/chewxy/math32"

	"github.com/ayusman/nebula/internal/orbit"
)

// Perspective defaults, matching a 75 degree vertical field of view.
const (
	FieldOfView = 75.0
	NearPlane   = 0.1
)

type vec3 [3]float32

func (a vec3) sub(b vec3) vec3 { return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a vec3) dot(b vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
func (a vec3) cross(b vec3) vec3 {
	return vec3{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}
func (a vec3) norm() vec3 {
	l := math32.Sqrt(a.dot(a))
	if l == 0 {
		return a
	}
	return vec3{a[0] / l, a[1] / l, a[2] / l}
}

// Projector maps world points of the particle cloud to screen pixels.
type Projector struct {
	eye            vec3
	right, up, fwd vec3
	focal, cx, cy  float32
	cosYaw, sinYaw float32
}

// NewProjector builds a perspective projection for a width x height target
// viewed from pose, with the cloud turned by yaw about the vertical axis.
func NewProjector(pose orbit.Pose, yaw float32, width, height int) Projector {
	eye := vec3{float32(pose.Position.X), float32(pose.Position.Y), float32(pose.Position.Z)}
	target := vec3{float32(pose.Target.X), float32(pose.Target.Y), float32(pose.Target.Z)}

	fwd := target.sub(eye).norm()
	right := fwd.cross(vec3{0, 1, 0}).norm()
	if right.dot(right) == 0 {
		right = vec3{1, 0, 0}
	}
	up := right.cross(fwd)

	half := math32.Tan(FieldOfView * math32.Pi / 360)
	sin, cos := math32.Sincos(yaw)
	return Projector{
		eye:    eye,
		right:  right,
		up:     up,
		fwd:    fwd,
		focal:  float32(height) / 2 / half,
		cx:     float32(width) / 2,
		cy:     float32(height) / 2,
		cosYaw: cos,
		sinYaw: sin,
	}
}

// Project returns the pixel position and view depth of a point. ok is false
// for points behind the near plane.
func (p Projector) Project(x, y, z float32) (sx, sy, depth float32, ok bool) {
	w := vec3{x*p.cosYaw + z*p.sinYaw, y, -x*p.sinYaw + z*p.cosYaw}
	d := w.sub(p.eye)
	depth = d.dot(p.fwd)
	if depth <= NearPlane {
		return 0, 0, depth, false
	}
	s := p.focal / depth
	return p.cx + d.dot(p.right)*s, p.cy - d.dot(p.up)*s, depth, true
}

// Scale is the on-screen size of one world unit at depth.
func (p Projector) Scale(depth float32) float32 {
	if depth <= NearPlane {
		return 0
	}
	return p.focal / depth
}
