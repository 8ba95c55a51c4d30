package models

import (
	"gorm.io/gorm"
)

// BrandVoice is the per-user voice profile. Summary is always derived from
// Content and both are written together.
type BrandVoice struct {
	gorm.Model
	UserID  uint   `gorm:"not null;uniqueIndex"`
	Content string `gorm:"type:text;not null"`
	Summary string `gorm:"type:text;not null"`
}
