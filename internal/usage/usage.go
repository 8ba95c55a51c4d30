// Package usage counts generation batches per user and content source.
package usage

import (
	"context"
	"time"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/models"
	"gorm.io/gorm"
)

// DedupeWindow suppresses repeat records for the same user and source type.
const DedupeWindow = 60 * time.Second

// Recorder writes and reads usage records.
type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRecorder creates a usage recorder.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// Record adds a usage row unless one for the same user and type exists within
// DedupeWindow. It reports whether a row was written.
func (r *Recorder) Record(ctx context.Context, userID uint, contentType string) (bool, error) {
	const op = "usage.Record"
	now := r.now().UTC()

	var recent int64
	err := r.db.WithContext(ctx).Model(&models.UsageRecord{}).
		Where("user_id = ? AND content_type = ? AND generated_at > ?", userID, contentType, now.Add(-DedupeWindow)).
		Count(&recent).Error
	if err != nil {
		return false, apperr.DataAccess(op, err)
	}
	if recent > 0 {
		return false, nil
	}

	rec := models.UsageRecord{UserID: userID, ContentType: contentType, GeneratedAt: now}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return false, apperr.DataAccess(op, err)
	}
	return true, nil
}

// Counts returns the number of records per content type for a user.
func (r *Recorder) Counts(ctx context.Context, userID uint) (map[string]int64, error) {
	var rows []struct {
		ContentType string
		Total       int64
	}
	err := r.db.WithContext(ctx).Model(&models.UsageRecord{}).
		Select("content_type, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("content_type").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.DataAccess("usage.Counts", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ContentType] = row.Total
	}
	return counts, nil
}
