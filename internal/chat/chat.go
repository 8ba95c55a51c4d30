// Package chat keeps the custom-mode conversation log.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HistoryLimit caps how many messages History returns.
const HistoryLimit = 50

// Variant is one generated piece in an assistant message.
type Variant struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Message is a chat entry as shown to the user.
type Message struct {
	ID        uint      `json:"id"`
	BatchID   string    `json:"batch_id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Variants  []Variant `json:"variants,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Log appends to and reads the chat log. Messages are never updated.
type Log struct {
	db *gorm.DB
}

// NewLog creates a chat log.
func NewLog(db *gorm.DB) *Log {
	return &Log{db: db}
}

// AppendUser records the text a user submitted.
func (l *Log) AppendUser(ctx context.Context, userID uint, batchID, text string) error {
	msg := models.ChatMessage{
		UserID:  userID,
		BatchID: batchID,
		Role:    models.ChatRoleUser,
		Content: strings.TrimSpace(text),
	}
	if err := l.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return apperr.DataAccess("chat.AppendUser", err)
	}
	return nil
}

// AppendAssistant records the variants generated for a batch.
func (l *Log) AppendAssistant(ctx context.Context, userID uint, batchID string, variants []Variant) error {
	const op = "chat.AppendAssistant"

	raw, err := json.Marshal(variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}
	msg := models.ChatMessage{
		UserID:   userID,
		BatchID:  batchID,
		Role:     models.ChatRoleAssistant,
		Content:  JoinVariants(variants),
		Variants: datatypes.JSON(raw),
	}
	if err := l.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return apperr.DataAccess(op, err)
	}
	return nil
}

// History returns a user's most recent messages, oldest first.
func (l *Log) History(ctx context.Context, userID uint) ([]Message, error) {
	var rows []models.ChatMessage
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(HistoryLimit).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.DataAccess("chat.History", err)
	}

	out := make([]Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		m := Message{ID: r.ID, BatchID: r.BatchID, Role: r.Role, Content: r.Content, Timestamp: r.CreatedAt}
		if len(r.Variants) > 0 {
			if err := json.Unmarshal(r.Variants, &m.Variants); err != nil {
				return nil, fmt.Errorf("decode variants for message %d: %w", r.ID, err)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// JoinVariants renders variants as one markdown document.
func JoinVariants(variants []Variant) string {
	parts := make([]string, 0, len(variants))
	for _, v := range variants {
		parts = append(parts, "## "+v.Type+"\n\n"+v.Content)
	}
	return strings.Join(parts, "\n\n")
}
