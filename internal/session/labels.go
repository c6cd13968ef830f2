package session

import (
	"fmt"
	"math"
	"strings"

	"github.com/ayusman/nebula/internal/gesture"
)

// Marquee settings for long file names.
const (
	MarqueeWidth  = 20
	MarqueeSpeed  = 4 // characters per second
	marqueeSpacer = "   "
)

const secretLabel = "HAH, LOSER"

var gestureLabels = map[gesture.Symbol]string{
	gesture.Secret:          secretLabel,
	gesture.Zoom:            "ZOOMING",
	gesture.Thumb:           "SCAN DETECTED",
	gesture.Shhh:            "STEALTH MODE",
	gesture.AudioTrig:       "MIC TOGGLE",
	gesture.SupernovaLocked: "SUPERNOVA",
	gesture.StealthLocked:   "SILENCED",
}

// GestureLabel is the HUD text for the current gesture.
func GestureLabel(st *State) string {
	g := st.Hand.Gesture
	label := string(g)
	if l, ok := gestureLabels[g]; ok {
		label = l
	}

	if g == gesture.AudioLocked || (st.AudioFile && g == gesture.Three) {
		switch {
		case !st.AudioFile || st.FileName == "":
			label = "AUDIO ACTIVE"
		case st.Paused:
			label = "PAUSED"
		default:
			label = Marquee(st.FileName, st.Time-st.MarqueeStart)
		}
	}

	if st.Scanning {
		label = "INITIALIZING..."
	}
	if st.FaceLocked {
		label = "FACE LOCKED"
	}
	return label
}

// Marquee returns the MarqueeWidth-character window of name scrolled for
// elapsed seconds. Short names are returned as is.
func Marquee(name string, elapsed float64) string {
	r := []rune(name)
	if len(r) <= MarqueeWidth {
		return name
	}
	full := append(r, []rune(marqueeSpacer)...)
	if elapsed < 0 {
		elapsed = 0
	}
	idx := int(math.Floor(elapsed*MarqueeSpeed)) % len(full)
	doubled := append(append([]rune{}, full...), full...)
	return string(doubled[idx : idx+MarqueeWidth])
}

// StatusLabel is the HUD headline: the shape name or the active mode.
func StatusLabel(st *State, supernovaCharge float64) string {
	switch {
	case st.Audio && st.AudioFile:
		return "VISUALIZER (FILE)"
	case st.Audio:
		return "VISUALIZER (MIC)"
	case st.Supernova:
		return "SUPERNOVA"
	case st.Scanning:
		return "SCANNING..."
	case st.FaceLocked:
		return "IDENTITY CONFIRMED"
	case st.Secret:
		return secretLabel
	case st.Stealth && st.StealthFactor > 0.5, !st.Stealth && st.StealthFactor >= 0.1:
		return "SILENT"
	case st.Charging():
		return fmt.Sprintf("CHARGING... %d", int(math.Floor(supernovaCharge-st.PinchTimer)))
	}
	return strings.ToUpper(st.ShapeName)
}
