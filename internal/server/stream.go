package server

import (
	"fmt"
	"net/http"
	"time"
)

// StreamInterval paces the MJPEG preview at about 15 FPS.
const StreamInterval = 66 * time.Millisecond

// JPEGSource exposes the most recent encoded camera frame. seq changes
// whenever a new frame is available; data is nil before the first one.
type JPEGSource interface {
	LatestJPEG() (data []byte, seq uint64)
}

// StreamHandler serves MJPEG frames from the camera preview.
type StreamHandler struct {
	source JPEGSource
}

// NewStreamHandler creates a new StreamHandler reading from source.
func NewStreamHandler(source JPEGSource) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(StreamInterval)
	defer ticker.Stop()

	var last uint64
	for {
		if data, seq := h.source.LatestJPEG(); data != nil && seq != last {
			last = seq
			if err := writePart(w, data); err != nil {
				return
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
