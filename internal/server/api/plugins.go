package api

import (
	"net/http"

	"github.com/ayusman/nebula/internal/plugin"
)

// PluginsHandler lists the discovered shape samplers.
type PluginsHandler struct {
	manager *plugin.Manager
}

// NewPluginsHandler creates a PluginsHandler.
func NewPluginsHandler(m *plugin.Manager) *PluginsHandler {
	return &PluginsHandler{manager: m}
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Shapes      []string `json:"shapes"`
}

// ServeHTTP implements the http.Handler interface.
func (h *PluginsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	plugins := h.manager.List()
	resp := make([]pluginResponse, 0, len(plugins))
	for _, p := range plugins {
		resp = append(resp, pluginResponse{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Shapes:      p.Manifest.Shapes,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plugins": resp})
}
