package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"campusid/internal/models"
	"campusid/internal/session"
)

// VerificationOutcome is the archived record of a submitted
// verification, read by the approval workflow's review feed.
type VerificationOutcome struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SessionID      string         `gorm:"uniqueIndex;size:64" json:"session_id"`
	RegisterNumber string         `gorm:"index;size:64" json:"register_number"`
	StudentName    string         `json:"student_name"`
	Verdict        models.Verdict `gorm:"size:32" json:"verdict"`
	IsValid        bool           `json:"is_valid"`
	Mismatches     string         `json:"mismatches"`
	Warnings       string         `json:"warnings"`
	Confidence     float64        `json:"confidence"`
	SubmittedAt    time.Time      `json:"submitted_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Store wraps the archive database.
type Store struct {
	db *gorm.DB
}

// Open connects with the given DSN and migrates the outcome table.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connection to db failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get db from GORM: %w", err)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&VerificationOutcome{}); err != nil {
		return nil, fmt.Errorf("AutoMigration failed for VerificationOutcome: %w", err)
	}
	return &Store{db: db}, nil
}

// Archive writes the final record of a submitted session. Replaying the
// same session id updates the existing row instead of erroring.
func (s *Store) Archive(ctx context.Context, rec session.Record) error {
	out := VerificationOutcome{
		SessionID:   rec.SessionID,
		Verdict:     rec.Verdict,
		Confidence:  rec.Confidence,
		SubmittedAt: time.Now(),
	}
	if rec.Identity != nil {
		out.RegisterNumber = rec.Identity.RegisterNumber
		out.StudentName = rec.Identity.Name
	}
	if rec.Match != nil {
		out.IsValid = rec.Match.IsValid
		out.Mismatches = strings.Join(rec.Match.Mismatches, "; ")
		out.Warnings = strings.Join(rec.Match.Warnings, "; ")
	}

	var existing VerificationOutcome
	err := s.db.WithContext(ctx).Where("session_id = ?", rec.SessionID).First(&existing).Error
	if err == nil {
		out.ID = existing.ID
		out.CreatedAt = existing.CreatedAt
		return s.db.WithContext(ctx).Save(&out).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return s.db.WithContext(ctx).Create(&out).Error
}

// Recent lists the newest archived outcomes, capped at limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]VerificationOutcome, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var outs []VerificationOutcome
	err := s.db.WithContext(ctx).Order("submitted_at desc").Limit(limit).Find(&outs).Error
	return outs, err
}
