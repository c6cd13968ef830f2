package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/nebula/internal/config"
	"github.com/ayusman/nebula/internal/log"
	"github.com/ayusman/nebula/internal/store"
)

// ConfigHandler serves and edits the live tunables.
type ConfigHandler struct {
	live  *config.Live
	store *store.Store
}

// NewConfigHandler creates a ConfigHandler. store may be nil, in which case
// edits are not persisted.
func NewConfigHandler(live *config.Live, s *store.Store) *ConfigHandler {
	return &ConfigHandler{live: live, store: s}
}

// ServeHTTP implements the http.Handler interface.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.live.Get())
	case http.MethodPut, http.MethodPatch:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update applies a partial JSON object on top of the current tunables.
func (h *ConfigHandler) update(w http.ResponseWriter, r *http.Request) {
	c := h.live.Get()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c = h.live.Set(c)
	if h.store != nil {
		if err := h.store.Settings().SaveTuning(c); err != nil {
			log.Error("persist tuning", "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}
	writeJSON(w, http.StatusOK, c)
}
