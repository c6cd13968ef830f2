// Package gesture turns hand landmarks into gesture symbols and debounces
// them over time.
package gesture

// Symbol is the single gesture recognised in a frame.
type Symbol string

const (
	None      Symbol = "NONE"
	Open      Symbol = "OPEN"
	Fist      Symbol = "FIST"
	Pinch     Symbol = "PINCH"
	Rock      Symbol = "ROCK"
	Peace     Symbol = "PEACE"
	Three     Symbol = "THREE"
	Thumb     Symbol = "THUMB"
	Shhh      Symbol = "SHHH"
	Secret    Symbol = "SECRET"
	AudioTrig Symbol = "AUDIO_TRIG"
	Zoom      Symbol = "ZOOM"

	// Overlays that replace the raw symbol while a mode holds the hand.
	StealthLocked   Symbol = "STEALTH_LOCKED"
	SupernovaLocked Symbol = "SUPERNOVA_LOCKED"
	AudioLocked     Symbol = "AUDIO_LOCKED"
)

// Symbols lists every symbol in declaration order.
var Symbols = []Symbol{
	None, Open, Fist, Pinch, Rock, Peace, Three, Thumb, Shhh, Secret, AudioTrig, Zoom,
	StealthLocked, SupernovaLocked, AudioLocked,
}

// Locked reports whether s is a mode overlay.
func (s Symbol) Locked() bool {
	return s == StealthLocked || s == SupernovaLocked || s == AudioLocked
}

func (s Symbol) String() string { return string(s) }
