package models

import (
	"time"

	"gorm.io/datatypes"
)

// Chat roles
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is an append-only custom-mode log entry. Assistant messages keep
// the per-type variants alongside the joined text.
type ChatMessage struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    uint           `gorm:"not null;index"`
	BatchID   string         `gorm:"not null;default:'';index"`
	Role      string         `gorm:"not null"`
	Content   string         `gorm:"type:text;not null"`
	Variants  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null;index"`
}
