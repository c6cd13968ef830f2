// Package session holds the state of one running visualizer and the mode
// machine that advances it every frame.
package session

import (
	"math"

	"github.com/ayusman/nebula/internal/gesture"
)

// Default camera pose.
const (
	DefaultRadius = 90.0
	DefaultTheta  = 0.0
	DefaultPhi    = math.Pi / 2
)

// Flags are the mode booleans. Scanning, FaceLocked, Stealth, Supernova,
// Audio and Secret are the locked modes: at most one of them holds at a
// frame boundary.
type Flags struct {
	FaceMode   bool `json:"faceMode"`
	Scanning   bool `json:"scanning"`
	FaceLocked bool `json:"faceLocked"`
	Stealth    bool `json:"stealth"`
	Supernova  bool `json:"supernova"`
	Audio      bool `json:"audio"`
	AudioFile  bool `json:"audioFile"`
	Secret     bool `json:"secret"`
	Zooming    bool `json:"zooming"`
	Resetting  bool `json:"resetting"`
	Paused     bool `json:"paused"`
}

// LockedCount returns how many locked modes are set.
func (f Flags) LockedCount() int {
	n := 0
	for _, b := range []bool{f.Scanning, f.FaceLocked, f.Stealth, f.Supernova, f.Audio, f.Secret} {
		if b {
			n++
		}
	}
	return n
}

// Camera is the orbit camera in spherical coordinates around the origin,
// plus the drag and zoom anchors the orbit controller keeps between frames.
type Camera struct {
	Radius float64 `json:"radius"`
	Theta  float64 `json:"theta"`
	Phi    float64 `json:"phi"`

	// VisRotation turns the audio ring.
	VisRotation float64 `json:"visRotation"`

	Dragging       bool    `json:"-"`
	LastX, LastY   float64 `json:"-"`
	ZoomBaseDist   float64 `json:"-"`
	ZoomBaseRadius float64 `json:"-"`
}

// DefaultCamera returns the resting pose.
func DefaultCamera() Camera {
	return Camera{Radius: DefaultRadius, Theta: DefaultTheta, Phi: DefaultPhi}
}

// State is the whole session. Each field has one writer:
//   - Hand, Zooming, FaceTracked, ZoomDistance: the classifier stage (Observe)
//   - the remaining Flags, timers and labels: the mode machine (Step)
//   - Camera and Resetting: the orbit controller
//
// The particle updater only reads it.
type State struct {
	Flags

	Hand         gesture.HandState
	FaceTracked  bool
	ZoomDistance float64

	// Debounced is what the debouncer confirmed this frame.
	Debounced gesture.Debounced

	Time            float64
	PinchTimer      float64
	ScanTimer       float64
	StealthFactor   float64
	SecretTimer     float64
	AudioTransition float64
	VibeTimer       float64
	// Vibrate is set on frames that should emit a haptic pulse.
	Vibrate bool

	Camera Camera

	ShapeIndex   int
	ShapeName    string
	FileName     string
	MarqueeStart float64
}

// NewState returns a session at rest on the first shape.
func NewState(firstShape string) *State {
	return &State{
		Hand:      gesture.HandState{Gesture: gesture.None},
		Camera:    DefaultCamera(),
		ShapeName: firstShape,
	}
}

// Charging reports whether a supernova is building up.
func (s *State) Charging() bool {
	return !s.Supernova && s.PinchTimer > 0 && s.Debounced.PinchHeld()
}

// ZoomBlocked reports whether two hands may not start a zoom.
func (s *State) ZoomBlocked() bool {
	return s.FaceLocked || s.Scanning || s.Audio || s.Supernova
}

// Locks returns the overlay locks for the classifier.
func (s *State) Locks() gesture.Locks {
	return gesture.Locks{
		Stealth:   s.Stealth,
		Supernova: s.Supernova,
		Audio:     s.Audio,
		AudioFile: s.AudioFile,
	}
}
