// Package plugin runs external shape samplers: executables that turn a
// model shape name into a point cloud.
package plugin

import "encoding/json"

// ActionSample asks a plugin for a point cloud.
const ActionSample = "sample"

// Manifest describes a plugin's metadata and the shapes it can sample.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Shapes      []string        `json:"shapes"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is written as JSON to the plugin's stdin.
type Request struct {
	Action string          `json:"action"`
	Shape  string          `json:"shape"`
	Count  int             `json:"count"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Response is read as JSON from the plugin's stdout. Points holds x, y, z
// triples.
type Response struct {
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	Points  []float32 `json:"points,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Serves reports whether the plugin declares shape.
func (p *Plugin) Serves(shape string) bool {
	for _, s := range p.Manifest.Shapes {
		if s == shape {
			return true
		}
	}
	return false
}
