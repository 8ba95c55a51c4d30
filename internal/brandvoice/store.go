// Package brandvoice stores each user's raw brand-voice material together
// with its generated summary.
package brandvoice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Summarizer produces the stored summary from raw text.
type Summarizer interface {
	SummarizeVoice(ctx context.Context, raw string) (string, error)
}

// Profile is the saved voice of one user.
type Profile struct {
	UserID    uint
	Content   string
	Summary   string
	UpdatedAt time.Time
}

// Store persists brand voices.
type Store struct {
	db         *gorm.DB
	summarizer Summarizer
	logger     *slog.Logger
}

// NewStore creates a brand voice store.
func NewStore(db *gorm.DB, summarizer Summarizer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, summarizer: summarizer, logger: logger}
}

// Save summarizes raw and writes raw and summary in a single upsert. When the
// summary cannot be produced the existing profile is left untouched.
func (s *Store) Save(ctx context.Context, userID uint, raw string) (*Profile, error) {
	const op = "brandvoice.Save"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.Validation(op, "brand voice text is required")
	}

	summary, err := s.summarizer.SummarizeVoice(ctx, raw)
	if err != nil {
		s.logger.Warn("Brand voice summary failed", "user_id", userID, "error", err.Error())
		return nil, err
	}
	if summary == "" {
		return nil, apperr.EmptyResponse(op)
	}

	row := models.BrandVoice{UserID: userID, Content: raw, Summary: summary}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "summary", "updated_at", "deleted_at"}),
		}).Create(&row).Error
	})
	if err != nil {
		return nil, apperr.DataAccess(op, err)
	}

	s.logger.Info("Brand voice saved", "user_id", userID, "summary_chars", len(summary))
	return &Profile{UserID: userID, Content: raw, Summary: summary, UpdatedAt: row.UpdatedAt}, nil
}

// Get returns the user's profile or an apperr NotFound error.
func (s *Store) Get(ctx context.Context, userID uint) (*Profile, error) {
	const op = "brandvoice.Get"

	var row models.BrandVoice
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(op, "no brand voice saved")
	}
	if err != nil {
		return nil, apperr.DataAccess(op, err)
	}
	return &Profile{UserID: row.UserID, Content: row.Content, Summary: row.Summary, UpdatedAt: row.UpdatedAt}, nil
}

// SummaryFor returns the saved summary, or "" so generation falls back to
// the default voice.
func (s *Store) SummaryFor(ctx context.Context, userID uint) (string, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p.Summary, nil
}
