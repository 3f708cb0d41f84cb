package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campusid/internal/handlers"
	"campusid/internal/middleware"
)

func RegisterRouter(h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.LoggingMiddleware)

	// ID verification pipeline
	r.Post("/api/v1/verification/extract", h.Extract)
	r.Post("/api/v1/verification/confirm", h.Confirm)
	r.Get("/api/v1/verification/{id}", h.GetSession)
	r.Get("/api/v1/verification/{id}/qrcode", h.SessionQRCode)
	r.Post("/api/v1/verification/{id}/share", h.ShareVerdict)

	// Verdict read for the approval workflow (token required via query param)
	r.Get("/api/v1/verdict-info/{id}", h.VerdictInfo)

	// Archived outcomes review feed
	r.Get("/api/v1/outcomes", h.ListOutcomes)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	return r
}
