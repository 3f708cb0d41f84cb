package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

// SessionQRCode: GET /api/v1/verification/{id}/qrcode
// Encodes the session's mobile handoff URL so the wizard can show a
// "continue on your phone" code for taking the card photos.
func (h *Handlers) SessionQRCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	// 404 for sessions that were never started
	if _, err := h.Manager.Get(r.Context(), id); err != nil {
		writeSessionErr(w, err)
		return
	}

	data := fmt.Sprintf("%s/verify/%s", trimRightSlash(h.Cfg.FrontendBaseURL), id)
	png, err := qrcode.Encode(data, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func trimRightSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
