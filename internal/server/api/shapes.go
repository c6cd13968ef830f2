package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/nebula/internal/log"
	"github.com/ayusman/nebula/internal/shapes"
	"github.com/ayusman/nebula/internal/store"
)

// ShapesHandler lists the catalog and switches the target shape.
type ShapesHandler struct {
	engine Engine
	store  *store.Store
}

// NewShapesHandler creates a ShapesHandler. store may be nil.
func NewShapesHandler(e Engine, s *store.Store) *ShapesHandler {
	return &ShapesHandler{engine: e, store: s}
}

type shapeResponse struct {
	Name  string      `json:"name"`
	Group string      `json:"group"`
	Kind  shapes.Kind `json:"kind"`
}

type listShapesResponse struct {
	Shapes []shapeResponse `json:"shapes"`
}

type selectShapeRequest struct {
	Name string `json:"name"`
}

// Register adds the shape routes to mux.
func (h *ShapesHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/shapes", h.list)
	mux.HandleFunc("POST /api/shapes/select", h.selectShape)
	mux.HandleFunc("POST /api/shapes/next", h.next)
	mux.HandleFunc("DELETE /api/shapes/{name}/cache", h.dropCache)
}

// list handles GET /api/shapes.
func (h *ShapesHandler) list(w http.ResponseWriter, r *http.Request) {
	catalog := shapes.Catalog()
	resp := listShapesResponse{Shapes: make([]shapeResponse, 0, len(catalog))}
	for _, e := range catalog {
		resp.Shapes = append(resp.Shapes, shapeResponse{Name: e.Name, Group: e.Group, Kind: e.Kind})
	}
	writeJSON(w, http.StatusOK, resp)
}

// selectShape handles POST /api/shapes/select.
func (h *ShapesHandler) selectShape(w http.ResponseWriter, r *http.Request) {
	var req selectShapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	if err := h.engine.SelectShape(r.Context(), req.Name); err != nil {
		if errors.Is(err, shapes.ErrUnknownShape) {
			writeError(w, http.StatusNotFound, "Shape not found")
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, selectShapeRequest{Name: req.Name})
}

// next handles POST /api/shapes/next.
func (h *ShapesHandler) next(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.NextShape(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dropCache handles DELETE /api/shapes/{name}/cache.
func (h *ShapesHandler) dropCache(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := shapes.Lookup(name); !ok {
		writeError(w, http.StatusNotFound, "Shape not found")
		return
	}
	if h.store == nil {
		writeJSON(w, http.StatusOK, map[string]int{"deleted": 0})
		return
	}

	n, err := h.store.Clouds().DeleteShape(r.Context(), name)
	if err != nil {
		log.Error("drop cloud cache", "shape", name, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to drop cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}
