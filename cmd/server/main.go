package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"campusid/internal/config"
	"campusid/internal/db"
	"campusid/internal/handlers"
	"campusid/internal/match"
	"campusid/internal/normalize"
	"campusid/internal/ocr"
	"campusid/internal/router"
	"campusid/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()
	normalize.DefaultCountryCode = cfg.DefaultCountryCode

	var provider ocr.Provider
	if cfg.UseMockOCR() {
		log.Println("OCR: no live credential configured, using deterministic fallback provider")
		provider = ocr.NewMockProvider()
	} else {
		log.Println("OCR: using Google Vision + Gemini provider")
		provider = ocr.NewGoogleProvider(cfg.GoogleCredentialsFile, cfg.GeminiAPIKey, cfg.OCRTimeout)
	}

	opts := []session.Option{session.WithTTL(cfg.SessionTTL)}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		opts = append(opts, session.WithSnapshotStore(session.NewRedisStore(client, cfg.SessionTTL)))
		log.Println("sessions: snapshots mirrored to redis at", cfg.RedisAddr)
	}

	var archive *db.Store
	if cfg.DatabaseURL != "" {
		var err error
		archive, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to open outcome archive: ", err)
		}
		opts = append(opts, session.WithArchiver(archive))
		log.Println("outcomes: archiving submitted verifications to postgres")
	}

	manager, err := session.NewManager(
		provider,
		match.NewMatcher(cfg.SimilarityThreshold),
		match.NewGate(cfg.ConfidenceFloor, cfg.ConfidenceCeiling),
		opts...,
	)
	if err != nil {
		log.Fatal("failed to build session manager: ", err)
	}

	h := handlers.New(manager, cfg, archive)
	addr := ":" + cfg.Port
	log.Println("listening on", addr)
	if err := http.ListenAndServe(addr, router.RegisterRouter(h)); err != nil {
		log.Fatal(err)
	}
}
