package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/brandvoice"
	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/chat"
	"github.com/jimdaga/nextrend/internal/generation"
	"github.com/jimdaga/nextrend/internal/models"
	"github.com/jimdaga/nextrend/internal/sources"
	"github.com/jimdaga/nextrend/internal/streams"
	"github.com/jimdaga/nextrend/internal/usage"
	"gorm.io/gorm"
)

// UsageTypeCustom is the usage content type recorded for custom batches.
const UsageTypeCustom = "custom"

// Generator runs stored batches through the pipeline and publishes their
// progress.
type Generator struct {
	db       *gorm.DB
	pipeline *generation.Pipeline
	sources  *sources.Store
	voices   *brandvoice.Store
	usage    *usage.Recorder
	chat     *chat.Log
	broker   streams.Broker
	logger   *slog.Logger
}

// GeneratorDeps are the collaborators a Generator needs.
type GeneratorDeps struct {
	DB       *gorm.DB
	Pipeline *generation.Pipeline
	Sources  *sources.Store
	Voices   *brandvoice.Store
	Usage    *usage.Recorder
	Chat     *chat.Log
	Broker   streams.Broker
	Logger   *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(d GeneratorDeps) *Generator {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		db:       d.DB,
		pipeline: d.Pipeline,
		sources:  d.Sources,
		voices:   d.Voices,
		usage:    d.Usage,
		chat:     d.Chat,
		broker:   d.Broker,
		logger:   logger,
	}
}

// Run generates one batch. The batch row ends completed or failed and the
// stream ends with a done or error event, also when ctx is cancelled.
func (g *Generator) Run(ctx context.Context, batchID string) error {
	var batch models.Batch
	if err := g.db.WithContext(ctx).Where("batch_id = ?", batchID).First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("worker.Run", "batch %s not found", batchID)
		}
		return apperr.DataAccess("worker.Run", err)
	}
	if !batch.InFlight() {
		g.logger.Info("Batch already finished", "batch_id", batchID, "status", batch.Status)
		return nil
	}

	logger := g.logger.With("batch_id", batchID, "user_id", batch.UserID, "mode", batch.Mode)
	logger.Info("Processing content:generate task")

	now := time.Now()
	err := g.db.WithContext(ctx).Model(&batch).Updates(map[string]interface{}{
		"status":     models.BatchStatusProcessing,
		"started_at": now,
	}).Error
	if err != nil {
		logger.Error("Failed to mark batch processing", "error", err.Error())
	}

	req, usageType, err := g.prepare(ctx, &batch)
	if err != nil {
		g.finish(ctx, &batch, 0, err)
		return err
	}

	run := g.pipeline.GenerateAll(ctx, req)
	completed := 0
	for u := range run.Updates() {
		if u.Status == generation.StatusDone {
			completed++
		}
		g.publish(ctx, batchID, streams.SlotEvent(u))
	}
	genErr := run.Wait()

	if genErr == nil {
		g.recordSuccess(ctx, &batch, usageType, run.Slots())
	}
	g.finish(ctx, &batch, completed, genErr)

	if genErr != nil {
		logger.Error("Batch generation failed", "completed_slots", completed, "error", genErr.Error())
		return genErr
	}
	logger.Info("Batch generation completed", "slots", completed)
	return nil
}

// prepare resolves the batch's source, voice and content types.
func (g *Generator) prepare(ctx context.Context, batch *models.Batch) (generation.Request, string, error) {
	var req generation.Request
	usageType := UsageTypeCustom

	switch batch.Mode {
	case models.BatchModeCustom:
		req.Source = sources.CustomInput(batch.CustomText)
	default:
		if batch.SourceItemID == nil {
			return req, "", apperr.Validation("worker.prepare", "batch has no source")
		}
		src, err := g.sources.Get(ctx, *batch.SourceItemID)
		if err != nil {
			return req, "", err
		}
		req.Source = sources.Input(src)
		usageType = src.Meta().Kind
	}

	summary, err := g.voices.SummaryFor(ctx, batch.UserID)
	if err != nil {
		return req, "", err
	}
	req.VoiceSummary = summary

	types, err := resolveTypes(g.pipeline.Catalog(), batch.ContentTypes)
	if err != nil {
		return req, "", err
	}
	req.Types = types
	return req, usageType, nil
}

func resolveTypes(cat *catalog.Catalog, raw []byte) ([]catalog.ContentType, error) {
	var keys []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &keys); err != nil {
			return nil, fmt.Errorf("decode content types: %w", err)
		}
	}
	if len(keys) == 0 {
		return cat.Types(), nil
	}

	types := make([]catalog.ContentType, 0, len(keys))
	for _, k := range keys {
		ct, ok := cat.Get(k)
		if !ok {
			return nil, apperr.Validation("worker.resolveTypes", "unknown content type %q", k)
		}
		types = append(types, ct)
	}
	return types, nil
}

func (g *Generator) recordSuccess(ctx context.Context, batch *models.Batch, usageType string, slots []generation.Update) {
	ctx = context.WithoutCancel(ctx)

	if _, err := g.usage.Record(ctx, batch.UserID, usageType); err != nil {
		g.logger.Warn("Failed to record usage", "batch_id", batch.BatchID, "error", err)
	}

	if batch.Mode != models.BatchModeCustom || g.chat == nil {
		return
	}
	variants := make([]chat.Variant, 0, len(slots))
	for _, s := range slots {
		variants = append(variants, chat.Variant{Type: s.Type, Content: s.Content})
	}
	if err := g.chat.AppendUser(ctx, batch.UserID, batch.BatchID, batch.CustomText); err != nil {
		g.logger.Warn("Failed to append chat message", "batch_id", batch.BatchID, "error", err)
		return
	}
	if err := g.chat.AppendAssistant(ctx, batch.UserID, batch.BatchID, variants); err != nil {
		g.logger.Warn("Failed to append chat message", "batch_id", batch.BatchID, "error", err)
	}
}

// finish writes the terminal status and event, even after cancellation.
func (g *Generator) finish(ctx context.Context, batch *models.Batch, completed int, runErr error) {
	ctx = context.WithoutCancel(ctx)

	updates := map[string]interface{}{
		"status":          models.BatchStatusCompleted,
		"completed_slots": completed,
		"finished_at":     time.Now(),
		"error_message":   "",
	}
	ev := streams.DoneEvent()
	if runErr != nil {
		updates["status"] = models.BatchStatusFailed
		updates["error_message"] = runErr.Error()
		ev = streams.ErrorEvent(apperr.UserMessage(runErr))
	}

	if err := g.db.WithContext(ctx).Model(batch).Updates(updates).Error; err != nil {
		g.logger.Error("Failed to update batch", "batch_id", batch.BatchID, "error", err)
	}
	g.publish(ctx, batch.BatchID, ev)
}

func (g *Generator) publish(ctx context.Context, batchID string, ev streams.Event) {
	if err := g.broker.Publish(context.WithoutCancel(ctx), batchID, ev); err != nil {
		g.logger.Error("Failed to publish batch event", "batch_id", batchID, "kind", ev.Kind, "error", err)
	}
}
