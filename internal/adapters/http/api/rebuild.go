// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// RebuildDependencies defines the interface for the batch counter rebuild.
type RebuildDependencies interface {
	RebuildCounters(ctx context.Context) (int, error)
}

// RebuildHandler handles batch rebuild requests.
type RebuildHandler struct {
	deps RebuildDependencies
}

// NewRebuildHandler creates a new rebuild handler.
func NewRebuildHandler(deps RebuildDependencies) *RebuildHandler {
	return &RebuildHandler{deps: deps}
}

type rebuildResponse struct {
	Rows int `json:"rows"`
}

// HandleRebuild handles POST /rebuild requests.
func (h *RebuildHandler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_rebuild"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	rows, err := h.deps.RebuildCounters(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rebuildResponse{Rows: rows})
}
