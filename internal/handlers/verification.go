package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"campusid/internal/models"
)

type extractReq struct {
	SessionID     string `json:"session_id"`
	FrontImageRef string `json:"front_image_ref"`
	BackImageRef  string `json:"back_image_ref"`
}

type confirmReq struct {
	SessionID string                 `json:"session_id"`
	Claimed   models.ClaimedIdentity `json:"claimed"`
	Edits     map[string]string      `json:"edits"`
}

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// checkImageRef defensively re-validates what the upload collaborator
// already enforced. Opaque handles without an extension pass; a ref
// with a clearly non-image extension does not.
func checkImageRef(ref string) bool {
	if strings.TrimSpace(ref) == "" {
		return false
	}
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return true
	}
	return allowedImageExts[ext]
}

// Extract: POST /api/v1/verification/extract
// Creates the session on first submission, runs the OCR gateway and
// returns the normalized identity for the user to confirm.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req extractReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "invalid json body"})
		return
	}
	if !checkImageRef(req.FrontImageRef) {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "front_image_ref is required and must reference a JPEG/PNG/WebP/GIF image"})
		return
	}
	if req.BackImageRef != "" && !checkImageRef(req.BackImageRef) {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "back_image_ref must reference a JPEG/PNG/WebP/GIF image"})
		return
	}

	rec, err := h.Manager.StartExtraction(r.Context(), req.SessionID, req.FrontImageRef, req.BackImageRef)
	if err != nil {
		// extraction failures still carry the session id for the retry
		if rec.SessionID != "" {
			w.Header().Set("X-Session-Id", rec.SessionID)
		}
		writeSessionErr(w, err)
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{
		"status":  "Awaiting_Confirmation",
		"session": rec,
	})
}

// Confirm: POST /api/v1/verification/confirm
// Applies user edits, reconciles against the claimed identity and
// returns the verdict the approval workflow consumes.
func (h *Handlers) Confirm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req confirmReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "invalid json body"})
		return
	}
	if req.SessionID == "" {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "session_id is required"})
		return
	}
	if strings.TrimSpace(req.Claimed.UniversityID) == "" || strings.TrimSpace(req.Claimed.Name) == "" {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "claimed name and university_id are required"})
		return
	}

	rec, err := h.Manager.Confirm(r.Context(), req.SessionID, req.Claimed, req.Edits)
	if err != nil {
		writeSessionErr(w, err)
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{
		"status":     "Submitted",
		"verdict":    rec.Verdict,
		"match":      rec.Match,
		"confidence": rec.Confidence,
		"session":    rec,
	})
}

// GetSession: GET /api/v1/verification/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "missing session id"})
		return
	}
	rec, err := h.Manager.Get(r.Context(), id)
	if err != nil {
		writeSessionErr(w, err)
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{"status": "OK", "session": rec})
}
