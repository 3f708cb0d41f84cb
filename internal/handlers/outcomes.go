package handlers

import (
	"net/http"
	"strconv"
)

// ListOutcomes: GET /api/v1/outcomes?limit=50
// Review feed of archived verification outcomes for the approval
// workflow. 404s when no archive database is configured.
func (h *Handlers) ListOutcomes(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		writeJSONResp(w, http.StatusNotFound, map[string]any{"status": "Not_Found", "message": "outcome archive is not configured"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	outs, err := h.Archive.Recent(r.Context(), limit)
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "database error"})
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"status": "OK", "outcomes": outs})
}
