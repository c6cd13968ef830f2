// Package api provides the HTTP handlers of the visualizer service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Engine accepts commands for the running visualizer. Calls block until the
// engine has applied the command or ctx is done.
type Engine interface {
	SelectShape(ctx context.Context, name string) error
	NextShape(ctx context.Context) error
	PlayFile(ctx context.Context, name string, data []byte) error
	StopAudio(ctx context.Context) error
	TogglePause(ctx context.Context) error
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
