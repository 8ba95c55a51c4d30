package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NewBatch describes a batch a user asked for. Exactly one of SourceID and
// Text is set.
type NewBatch struct {
	UserID   uint
	SourceID *uint
	Text     string
	Types    []string

	// LLMTimeout bounds each slot; it decides when an unfinished batch is
	// abandoned. Zero means DefaultLLMTimeout.
	LLMTimeout time.Duration
}

// DefaultLLMTimeout applies when no per-call timeout is configured.
const DefaultLLMTimeout = 60 * time.Second

// staleMessage is stored on batches abandoned by a process that died.
const staleMessage = "Generation was interrupted. Please try again."

// CreateBatch inserts a pending batch. A user may have one batch in flight at
// a time; a second request is a Conflict.
func CreateBatch(ctx context.Context, db *gorm.DB, req NewBatch, totalSlots int) (*models.Batch, error) {
	const op = "worker.CreateBatch"

	text := strings.TrimSpace(req.Text)
	switch {
	case req.SourceID == nil && text == "":
		return nil, apperr.Validation(op, "choose a source or enter some text")
	case req.SourceID != nil && text != "":
		return nil, apperr.Validation(op, "choose either a source or custom text, not both")
	}

	types, err := json.Marshal(req.Types)
	if err != nil {
		return nil, fmt.Errorf("marshal content types: %w", err)
	}

	batch := &models.Batch{
		BatchID:      uuid.New().String(),
		UserID:       req.UserID,
		Mode:         models.BatchModeSource,
		SourceItemID: req.SourceID,
		CustomText:   text,
		ContentTypes: datatypes.JSON(types),
		Status:       models.BatchStatusPending,
		TotalSlots:   totalSlots,
	}
	if text != "" {
		batch.Mode = models.BatchModeCustom
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := failStale(tx, &req.UserID, req.LLMTimeout, time.Now()); err != nil {
			return err
		}
		var inFlight int64
		err := tx.Model(&models.Batch{}).
			Where("user_id = ? AND status IN ?", req.UserID, []string{models.BatchStatusPending, models.BatchStatusProcessing}).
			Count(&inFlight).Error
		if err != nil {
			return err
		}
		if inFlight > 0 {
			return errBatchInFlight
		}
		return tx.Create(batch).Error
	})
	if errors.Is(err, errBatchInFlight) {
		return nil, apperr.Conflict(op, "a batch is already generating; wait for it to finish")
	}
	if err != nil {
		return nil, apperr.DataAccess(op, err)
	}
	return batch, nil
}

var errBatchInFlight = errors.New("batch in flight")

// FailStaleBatches marks batches failed that are still pending or processing
// long after their run would have timed out. It returns how many it closed.
func FailStaleBatches(ctx context.Context, db *gorm.DB, llmTimeout time.Duration) (int, error) {
	n, err := failStale(db.WithContext(ctx), nil, llmTimeout, time.Now())
	if err != nil {
		return 0, apperr.DataAccess("worker.FailStaleBatches", err)
	}
	return n, nil
}

// staleAfter is the age past which an unfinished batch cannot still be running.
func staleAfter(totalSlots int, llmTimeout time.Duration) time.Duration {
	if llmTimeout <= 0 {
		llmTimeout = DefaultLLMTimeout
	}
	return BatchTimeout(totalSlots, llmTimeout)
}

// failStale closes stale batches, for one user when userID is set.
func failStale(db *gorm.DB, userID *uint, llmTimeout time.Duration, now time.Time) (int, error) {
	inFlight := []string{models.BatchStatusPending, models.BatchStatusProcessing}
	q := db.Where("status IN ?", inFlight)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var rows []models.Batch
	err := q.Find(&rows).Error
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, b := range rows {
		since := b.CreatedAt
		if b.StartedAt != nil {
			since = *b.StartedAt
		}
		if now.Sub(since) <= staleAfter(b.TotalSlots, llmTimeout) {
			continue
		}
		res := db.Model(&models.Batch{}).
			Where("id = ? AND status IN ?", b.ID, inFlight).
			Updates(map[string]interface{}{
				"status":        models.BatchStatusFailed,
				"error_message": staleMessage,
				"finished_at":   now,
			})
		if res.Error != nil {
			return closed, res.Error
		}
		closed += int(res.RowsAffected)
	}
	return closed, nil
}

// GetBatch loads a batch owned by userID.
func GetBatch(ctx context.Context, db *gorm.DB, userID uint, batchID string) (*models.Batch, error) {
	const op = "worker.GetBatch"

	var batch models.Batch
	err := db.WithContext(ctx).Where("batch_id = ? AND user_id = ?", batchID, userID).First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(op, "batch not found")
	}
	if err != nil {
		return nil, apperr.DataAccess(op, err)
	}
	return &batch, nil
}
