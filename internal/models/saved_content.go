package models

import "gorm.io/gorm"

// SavedContent is a variant the user kept, after any edits.
type SavedContent struct {
	gorm.Model
	UserID      uint   `gorm:"not null;index"`
	BatchID     string `gorm:"not null;index"`
	SourceTitle string `gorm:"not null;default:''"`
	ContentType string `gorm:"not null"`
	Content     string `gorm:"type:text;not null"`
}
