package models

import (
	"time"

	"gorm.io/gorm"
)

// Source kinds
const (
	SourceKindCommentary = "commentary"
	SourceKindTrending   = "trending"
	SourceKindGlossary   = "glossary"
)

// Source publication status
const (
	SourceStatusDraft     = "draft"
	SourceStatusPublished = "published"
)

// SourceItem is a piece of source material a user can generate content from.
// Glossary rows keep the definition in Body and relevance text in Excerpt.
type SourceItem struct {
	gorm.Model
	Kind        string    `gorm:"not null;index:idx_source_items_kind_status"`
	Status      string    `gorm:"not null;default:'published';index:idx_source_items_kind_status"`
	Title       string    `gorm:"not null"`
	Body        string    `gorm:"type:text;not null;default:''"`
	Excerpt     string    `gorm:"type:text;not null;default:''"`
	Category    string    `gorm:"not null;default:'';index"`
	SourceURL   *string   `gorm:"column:source_url;uniqueIndex"`
	Feed        string    `gorm:"not null;default:''"`
	PublishedAt time.Time `gorm:"not null;index"`
}
