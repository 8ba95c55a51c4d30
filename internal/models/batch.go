package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Batch status constants
const (
	BatchStatusPending    = "pending"
	BatchStatusProcessing = "processing"
	BatchStatusCompleted  = "completed"
	BatchStatusFailed     = "failed"
)

// Batch modes
const (
	BatchModeSource = "source"
	BatchModeCustom = "custom"
)

// Batch tracks one generation run. Slot content is streamed, not stored here.
type Batch struct {
	gorm.Model
	BatchID        string         `gorm:"uniqueIndex;not null"`
	UserID         uint           `gorm:"not null;index"`
	User           User           `gorm:"constraint:OnDelete:CASCADE;"`
	Mode           string         `gorm:"not null;default:'source'"`
	SourceItemID   *uint          `gorm:"index"`
	CustomText     string         `gorm:"type:text;not null;default:''"`
	ContentTypes   datatypes.JSON `gorm:"type:jsonb"`
	Status         string         `gorm:"not null;default:'pending';index"`
	ErrorMessage   string         `gorm:"column:error_message;type:text"`
	CompletedSlots int            `gorm:"not null;default:0"`
	TotalSlots     int            `gorm:"not null;default:0"`
	StartedAt      *time.Time
	FinishedAt     *time.Time
}

// InFlight reports whether the batch has not reached a terminal status.
func (b *Batch) InFlight() bool {
	return b.Status == BatchStatusPending || b.Status == BatchStatusProcessing
}
