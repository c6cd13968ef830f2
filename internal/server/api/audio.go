package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ayusman/nebula/internal/audio"
	"github.com/ayusman/nebula/internal/log"
)

// MaxUploadBytes bounds an uploaded audio file.
const MaxUploadBytes = 64 << 20

// Microphone receives PCM streamed from a browser.
type Microphone interface {
	AttachMic() (release func())
	WriteMic(pcm []byte) error
}

// AudioHandler accepts audio uploads and microphone streams.
type AudioHandler struct {
	engine Engine
	mic    Microphone
}

// NewAudioHandler creates an AudioHandler. mic may be nil to disable
// microphone streaming.
func NewAudioHandler(e Engine, mic Microphone) *AudioHandler {
	return &AudioHandler{engine: e, mic: mic}
}

var micUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Register adds the audio routes to mux.
func (h *AudioHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/audio", h.upload)
	mux.HandleFunc("DELETE /api/audio", h.stop)
	mux.HandleFunc("POST /api/audio/pause", h.pause)
	mux.HandleFunc("GET /api/mic", h.micStream)
}

// upload handles POST /api/audio. The file is the raw body, or the "file"
// field of a multipart form.
func (h *AudioHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	name, data, err := readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	if !audio.IsAudio(data) {
		writeError(w, http.StatusUnsupportedMediaType, "file not supported")
		return
	}

	if err := h.engine.PlayFile(r.Context(), name, data); err != nil {
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			writeError(w, http.StatusUnsupportedMediaType, "file not supported")
			return
		}
		log.Error("play audio file", "name", name, "err", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"playing": name})
}

func readUpload(r *http.Request) (string, []byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", nil, err
		}
		return r.URL.Query().Get("name"), data, nil
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return hdr.Filename, data, nil
}

// stop handles DELETE /api/audio.
func (h *AudioHandler) stop(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.StopAudio(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pause handles POST /api/audio/pause.
func (h *AudioHandler) pause(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.TogglePause(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// micStream handles GET /api/mic. Each binary message is a block of
// little-endian float32 mono samples.
func (h *AudioHandler) micStream(w http.ResponseWriter, r *http.Request) {
	if h.mic == nil {
		writeError(w, http.StatusNotFound, audio.ErrNoMicrophone.Error())
		return
	}
	conn, err := micUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("mic upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	release := h.mic.AttachMic()
	defer release()
	log.Info("microphone connected", "remote", r.RemoteAddr)

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			log.Info("microphone disconnected", "remote", r.RemoteAddr)
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		if err := h.mic.WriteMic(msg); err != nil {
			log.Warn("bad mic frame", "err", err)
		}
	}
}
