package models

import "time"

// UsageRecord counts one generation batch per user and content source type.
type UsageRecord struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"not null;index:idx_usage_user_type_time"`
	ContentType string    `gorm:"not null;index:idx_usage_user_type_time"`
	GeneratedAt time.Time `gorm:"not null;index:idx_usage_user_type_time"`
}
