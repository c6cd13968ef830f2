package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
	"github.com/h2non/filetype"
)

// IsAudio reports whether data looks like an audio file.
func IsAudio(data []byte) bool {
	return filetype.IsAudio(data)
}

// Decode sniffs the container from data and returns a stream over it.
// Formats beep cannot decode return ErrUnsupportedFormat.
func Decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("sniff audio: %v: %w", err, ErrUnsupportedFormat)
	}
	rc := io.NopCloser(bytes.NewReader(data))

	var (
		s beep.StreamSeekCloser
		f beep.Format
	)
	switch kind.Extension {
	case "wav":
		s, f, err = wav.Decode(rc)
	case "mp3":
		s, f, err = mp3.Decode(rc)
	case "ogg":
		s, f, err = vorbis.Decode(rc)
	case "flac":
		s, f, err = flac.Decode(rc)
	default:
		return nil, beep.Format{}, fmt.Errorf("decode %q: %w", kind.MIME.Value, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", kind.Extension, err)
	}
	return s, f, nil
}
