package gesture

import "github.com/ayusman/nebula/internal/detector"

// Classification thresholds, in normalized image units.
const (
	ExtendMargin      = 0.05
	PinchDistance     = 0.05
	ThumbExtension    = 0.08
	NearMouthDistance = 0.25
	ShhhDistance      = 0.1
	AudioTrigDistance = 0.15
	ZoomWristSpread   = 0.2
)

// Features are the geometric facts the rules are written against.
type Features struct {
	Index, Middle, Ring, Pinky bool
	Pinch                      bool
	ThumbExtended              bool

	// Mouth distances are only meaningful when Face is set.
	Face         bool
	MouthIndex   float64
	MouthKnuckle float64
	NearMouth    bool
}

// NoFingers reports whether all four fingers are curled.
func (f Features) NoFingers() bool {
	return !f.Index && !f.Middle && !f.Ring && !f.Pinky
}

// IndexOnly reports whether the index is the only extended finger.
func (f Features) IndexOnly() bool {
	return f.Index && !f.Middle && !f.Ring && !f.Pinky
}

func (f Features) audioTrig() bool {
	return f.Face && f.MouthKnuckle < AudioTrigDistance && f.NoFingers()
}

// Measure computes the features of one hand, with an optional face.
func Measure(h *detector.HandLandmarks, face *detector.FaceLandmarks) Features {
	p := &h.Points
	wrist := p[detector.Wrist]
	extended := func(tip, knuckle int) bool {
		return detector.Dist2D(p[tip], wrist) > detector.Dist2D(p[knuckle], wrist)+ExtendMargin
	}

	f := Features{
		Index:         extended(detector.IndexTip, detector.IndexMCP),
		Middle:        extended(detector.MiddleTip, detector.MiddleMCP),
		Ring:          extended(detector.RingTip, detector.RingMCP),
		Pinky:         extended(detector.PinkyTip, detector.PinkyMCP),
		Pinch:         detector.Dist2D(p[detector.ThumbTip], p[detector.IndexTip]) < PinchDistance,
		ThumbExtended: detector.Dist2D(p[detector.ThumbTip], p[detector.IndexMCP]) > ThumbExtension,
	}

	if face != nil {
		mouth := face.Mouth()
		f.Face = true
		f.MouthIndex = detector.Dist2D(p[detector.IndexTip], mouth)
		f.MouthKnuckle = detector.Dist2D(p[detector.IndexMCP], mouth)
		f.NearMouth = f.MouthIndex < NearMouthDistance || f.MouthKnuckle < NearMouthDistance
	}

	return f
}

// Rule maps a predicate over Features to a symbol.
type Rule struct {
	Symbol Symbol
	Match  func(Features) bool
}

// Rules is the single-hand priority order: the first match wins.
var Rules = []Rule{
	{Shhh, func(f Features) bool { return f.Face && f.IndexOnly() && f.MouthIndex < ShhhDistance }},
	{AudioTrig, Features.audioTrig},
	{Rock, func(f Features) bool { return f.Index && !f.Middle && !f.Ring && f.Pinky }},
	{Secret, Features.IndexOnly},
	{Thumb, func(f Features) bool { return f.NoFingers() && f.ThumbExtended && !f.audioTrig() && !f.NearMouth }},
	{Pinch, func(f Features) bool { return f.Pinch }},
	{Fist, func(f Features) bool { return f.NoFingers() && !f.ThumbExtended && !f.audioTrig() }},
	{Peace, func(f Features) bool { return f.Index && f.Middle && !f.Ring && !f.Pinky }},
	{Three, func(f Features) bool { return f.Index && f.Middle && f.Ring && !f.Pinky }},
	{Open, func(f Features) bool { return f.Index && f.Middle && f.Ring && f.Pinky }},
}

// Match returns the first rule in rules that matches f, or Fist.
func Match(rules []Rule, f Features) Symbol {
	for _, r := range rules {
		if r.Match(f) {
			return r.Symbol
		}
	}
	return Fist
}

// ClassifyHand classifies a single hand.
func ClassifyHand(h *detector.HandLandmarks, face *detector.FaceLandmarks) Symbol {
	return Match(Rules, Measure(h, face))
}

// Observation is what the classifier saw in one detector result.
type Observation struct {
	Present bool
	Symbol  Symbol

	// Pointer is the raw index fingertip of the classified hand. It is not
	// set for zoom frames.
	Pointer    detector.Point3D
	HasPointer bool

	// ZoomDistance is the distance between the middle knuckles of both
	// hands when Symbol is Zoom.
	ZoomDistance float64
}

// Classify interprets a detector result. Two hands far enough apart become
// Zoom unless zoomBlocked; otherwise the first hand is classified alone.
func Classify(res *detector.Result, zoomBlocked bool) Observation {
	if res == nil || len(res.Hands) == 0 {
		return Observation{Symbol: None}
	}

	if len(res.Hands) >= 2 && !zoomBlocked {
		a, b := &res.Hands[0], &res.Hands[1]
		if detector.Dist2D(a.Points[detector.Wrist], b.Points[detector.Wrist]) > ZoomWristSpread {
			return Observation{
				Present:      true,
				Symbol:       Zoom,
				ZoomDistance: detector.Dist2D(a.Points[detector.MiddleMCP], b.Points[detector.MiddleMCP]),
			}
		}
	}

	h := &res.Hands[0]
	return Observation{
		Present:    true,
		Symbol:     ClassifyHand(h, res.Face),
		Pointer:    h.Points[detector.IndexTip],
		HasPointer: true,
	}
}

// Locks are the modes that overlay the raw symbol.
type Locks struct {
	Stealth   bool
	Supernova bool
	Audio     bool
	AudioFile bool
}

var (
	stealthPass   = []Symbol{Fist, Peace, Open, Three, Zoom}
	supernovaPass = []Symbol{Fist, Peace, Open}
	audioPass     = []Symbol{Fist, Peace, Open}
	audioFilePass = []Symbol{Fist, Peace, Open, Three}
)

// Overlay replaces s with the lock symbol of each active mode unless that
// mode lets s through. Stealth is applied first, then supernova, then audio.
func Overlay(s Symbol, l Locks) Symbol {
	if l.Stealth && !contains(stealthPass, s) {
		s = StealthLocked
	}
	if l.Supernova && !contains(supernovaPass, s) {
		s = SupernovaLocked
	}
	if l.Audio {
		pass := audioPass
		if l.AudioFile {
			pass = audioFilePass
		}
		if !contains(pass, s) {
			s = AudioLocked
		}
	}
	return s
}

func contains(list []Symbol, s Symbol) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
