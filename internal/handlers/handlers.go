package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"campusid/internal/config"
	"campusid/internal/db"
	"campusid/internal/ocr"
	"campusid/internal/session"
)

// Handlers carries the wired pipeline behind the HTTP surface.
type Handlers struct {
	Manager *session.Manager
	Cfg     config.Config
	Archive *db.Store // nil when no DATABASE_URL is configured
}

func New(manager *session.Manager, cfg config.Config, archive *db.Store) *Handlers {
	return &Handlers{Manager: manager, Cfg: cfg, Archive: archive}
}

func writeJSONResp(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSessionErr maps the session and extraction error taxonomy onto
// HTTP statuses the registration flow can branch on.
func writeSessionErr(w http.ResponseWriter, err error) {
	if ee, ok := ocr.AsExtractionError(err); ok {
		writeJSONResp(w, http.StatusBadGateway, map[string]any{
			"status":    "Extraction_Failed",
			"reason":    string(ee.Reason),
			"retryable": true,
			"message":   "document extraction failed, please try again",
		})
		return
	}
	switch {
	case errors.Is(err, session.ErrConflict):
		writeJSONResp(w, http.StatusConflict, map[string]any{
			"status": "Conflict", "message": err.Error(),
		})
	case errors.Is(err, session.ErrExpired):
		writeJSONResp(w, http.StatusGone, map[string]any{
			"status": "Session_Expired", "message": err.Error(),
		})
	case errors.Is(err, session.ErrNotFound):
		writeJSONResp(w, http.StatusNotFound, map[string]any{
			"status": "Not_Found", "message": err.Error(),
		})
	case errors.Is(err, session.ErrInvalidState):
		writeJSONResp(w, http.StatusConflict, map[string]any{
			"status": "Invalid_State", "message": err.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSONResp(w, http.StatusGatewayTimeout, map[string]any{
			"status": "Timeout", "retryable": true, "message": "request timed out",
		})
	default:
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{
			"status": "Server_Error", "message": err.Error(),
		})
	}
}
