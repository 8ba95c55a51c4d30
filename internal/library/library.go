// Package library stores the variants a user chose to keep.
package library

import (
	"context"
	"strings"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/models"
	"gorm.io/gorm"
)

// Item is one variant to save.
type Item struct {
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

// Library reads and writes saved content.
type Library struct {
	db *gorm.DB
}

// New creates a library.
func New(db *gorm.DB) *Library {
	return &Library{db: db}
}

// Save stores the non-empty items of a batch in one transaction.
func (l *Library) Save(ctx context.Context, userID uint, batchID, sourceTitle string, items []Item) (int, error) {
	const op = "library.Save"

	rows := make([]models.SavedContent, 0, len(items))
	for _, it := range items {
		content := strings.TrimSpace(it.Content)
		if content == "" || it.ContentType == "" {
			continue
		}
		rows = append(rows, models.SavedContent{
			UserID:      userID,
			BatchID:     batchID,
			SourceTitle: sourceTitle,
			ContentType: it.ContentType,
			Content:     content,
		})
	}
	if len(rows) == 0 {
		return 0, apperr.Validation(op, "nothing to save")
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return 0, apperr.DataAccess(op, err)
	}
	return len(rows), nil
}

// List returns a user's saved content, newest first.
func (l *Library) List(ctx context.Context, userID uint) ([]models.SavedContent, error) {
	var rows []models.SavedContent
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.DataAccess("library.List", err)
	}
	return rows, nil
}

// Delete removes one saved item owned by the user.
func (l *Library) Delete(ctx context.Context, userID, id uint) error {
	const op = "library.Delete"
	res := l.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.SavedContent{}, id)
	if res.Error != nil {
		return apperr.DataAccess(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(op, "saved content not found")
	}
	return nil
}
