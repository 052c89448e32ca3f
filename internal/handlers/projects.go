package handlers

import (
	"net/http"

	"photo-stream/internal/database"
	"photo-stream/internal/logging"
)

// GetProjects lists all projects for scope pickers, archived ones
// included so the UI can offer a restore.
func (h *Handlers) GetProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.db.ListProjects(r.Context())
	if err != nil {
		logging.Error("GetProjects: %v", err)
		writeJSONError(w, "failed to list projects", http.StatusInternalServerError)
		return
	}

	if projects == nil {
		projects = []database.Project{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{"projects": projects})
}

// GetStats returns collection statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.CalculateStats(r.Context())
	if err != nil {
		logging.Error("GetStats: %v", err)
		writeJSONError(w, "failed to calculate stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}
