package session

import "fmt"

// Mode is a single-symbol summary of the flags for consumers that do not
// need the overlap.
type Mode int

const (
	ModeIdle Mode = iota
	ModeZoom
	ModeSecret
	ModeScanning
	ModeFaceLocked
	ModeStealth
	ModeSupernova
	ModeAudio
)

var modeNames = [...]string{
	ModeIdle:       "idle",
	ModeZoom:       "zoom",
	ModeSecret:     "secret",
	ModeScanning:   "scanning",
	ModeFaceLocked: "face-locked",
	ModeStealth:    "stealth",
	ModeSupernova:  "supernova",
	ModeAudio:      "audio",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	for i, name := range modeNames {
		if name == string(b) {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", b)
}

// Mode resolves the flags by priority: audio, supernova, stealth, face
// locked, scanning, secret, zoom.
func (f Flags) Mode() Mode {
	switch {
	case f.Audio:
		return ModeAudio
	case f.Supernova:
		return ModeSupernova
	case f.Stealth:
		return ModeStealth
	case f.FaceLocked:
		return ModeFaceLocked
	case f.Scanning:
		return ModeScanning
	case f.Secret:
		return ModeSecret
	case f.Zooming:
		return ModeZoom
	}
	return ModeIdle
}
