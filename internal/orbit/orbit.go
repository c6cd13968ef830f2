// Package orbit drives the camera around the particle field from hand
// gestures and the session modes.
package orbit

import (
	"math"

	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/gesture"
	"github.com/ayusman/nebula/internal/session"
)

// Orbit constants.
const (
	MinRadius   = 10.0
	MaxRadius   = 250.0
	ZoomGain    = 300.0
	ZoomRate    = 0.1
	ResetRate   = 0.05
	LockedRate  = 0.1
	MinPhi      = 0.1
	MaxPhi      = math.Pi - 0.1
	RadiusEps   = 0.5
	AngleEps    = 0.005
	AudioFloorY = -15.0
	AudioLookAt = 100.0
)

// Vec3 is a point in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Lerp returns a + (b-a)*t.
func (a Vec3) Lerp(b Vec3, t float64) Vec3 {
	return Vec3{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t, a.Z + (b.Z-a.Z)*t}
}

// Pose is where the camera sits and what it looks at.
type Pose struct {
	Position Vec3 `json:"position"`
	Target   Vec3 `json:"target"`
}

// Step advances the camera by one frame. It is the only writer of
// st.Camera and st.Resetting.
func Step(st *session.State, dt float64, cfg config.Config) {
	cam := &st.Camera
	g := st.Hand.Gesture

	zoom(st)

	// A scan pulls the camera to the front quickly.
	if st.Scanning {
		converge(cam, LockedRate)
	}

	if g == gesture.Fist {
		st.Resetting = true
	}
	if st.Zooming || (st.Hand.Present && g == gesture.Open) ||
		st.FaceMode || st.Scanning || st.Audio || st.Secret || st.Supernova {
		st.Resetting = false
	}

	if !st.Zooming && !st.FaceLocked && !st.Scanning && !st.Resetting {
		drag(st, cfg)
	}

	if st.Resetting {
		cam.Dragging = false
		converge(cam, ResetRate)
		if AtRest(*cam) {
			st.Resetting = false
		}
	}

	if st.Audio && !cam.Dragging && g != gesture.Open && !st.Paused {
		cam.VisRotation += dt * cfg.AudioRotSpeed
	}

	if st.Secret || st.FaceLocked {
		converge(cam, LockedRate)
	}
}

func zoom(st *session.State) {
	cam := &st.Camera
	if !st.Zooming {
		cam.ZoomBaseDist = 0
		return
	}
	if cam.ZoomBaseDist == 0 {
		cam.ZoomBaseDist = st.ZoomDistance
		cam.ZoomBaseRadius = cam.Radius
		return
	}
	target := cam.ZoomBaseRadius - (st.ZoomDistance-cam.ZoomBaseDist)*ZoomGain
	target = math.Max(MinRadius, math.Min(MaxRadius, target))
	cam.Radius += (target - cam.Radius) * ZoomRate
}

func drag(st *session.State, cfg config.Config) {
	cam := &st.Camera
	if !st.Hand.Present || st.Hand.Gesture != gesture.Open {
		cam.Dragging = false
		return
	}
	if !cam.Dragging {
		cam.LastX, cam.LastY = st.Hand.X, st.Hand.Y
		cam.Dragging = true
		return
	}
	dx := st.Hand.X - cam.LastX
	dy := st.Hand.Y - cam.LastY
	cam.Theta -= dx * cfg.OpenSens
	// The audio ring is viewed from inside; only yaw is free there.
	if !st.Audio {
		cam.Phi += dy * cfg.OpenSens
		cam.Phi = math.Max(MinPhi, math.Min(MaxPhi, cam.Phi))
	}
	cam.LastX, cam.LastY = st.Hand.X, st.Hand.Y
}

func converge(cam *session.Camera, rate float64) {
	cam.Theta += (session.DefaultTheta - cam.Theta) * rate
	cam.Phi += (session.DefaultPhi - cam.Phi) * rate
	cam.Radius += (session.DefaultRadius - cam.Radius) * rate
}

// AtRest reports whether cam is within tolerance of the default pose.
func AtRest(cam session.Camera) bool {
	return math.Abs(cam.Theta-session.DefaultTheta) < AngleEps &&
		math.Abs(cam.Phi-session.DefaultPhi) < AngleEps &&
		math.Abs(cam.Radius-session.DefaultRadius) < RadiusEps
}

// PoseOf computes the camera pose, blending from the orbit to the inside
// of the audio ring by st.AudioTransition.
func PoseOf(st *session.State) Pose {
	cam := st.Camera
	orbit := Vec3{
		X: cam.Radius * math.Sin(cam.Phi) * math.Sin(cam.Theta),
		Y: cam.Radius * math.Cos(cam.Phi),
		Z: cam.Radius * math.Sin(cam.Phi) * math.Cos(cam.Theta),
	}
	centre := Vec3{Y: AudioFloorY}
	audioLook := Vec3{
		X: centre.X + math.Sin(cam.Theta)*AudioLookAt,
		Y: centre.Y,
		Z: centre.Z + math.Cos(cam.Theta)*AudioLookAt,
	}

	t := st.AudioTransition
	return Pose{
		Position: orbit.Lerp(centre, t),
		Target:   Vec3{}.Lerp(audioLook, t),
	}
}

// Blur returns the motion trail strength for the frame: none while the face
// or audio views are up, otherwise the configured strength when enabled.
func Blur(st *session.State, cfg config.Config) float64 {
	if st.FaceMode || st.Scanning || st.Audio || !cfg.MotionBlur {
		return 0
	}
	return cfg.BlurStrength
}
