package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/library"
	"github.com/jimdaga/nextrend/internal/models"
	"github.com/jimdaga/nextrend/internal/sources"
	"github.com/jimdaga/nextrend/internal/streams"
	"github.com/jimdaga/nextrend/internal/studio"
	"github.com/jimdaga/nextrend/internal/worker"
)

type createBatchRequest struct {
	SourceID *uint    `json:"source_id"`
	Text     string   `json:"text"`
	Types    []string `json:"types"`
}

type slotInfo struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	Label string `json:"label"`
	Share string `json:"share,omitempty"`
}

func (s *Server) createBatch(c *gin.Context) {
	const op = "web.createBatch"
	user := currentUser(c)
	ctx := c.Request.Context()

	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Validation(op, "invalid request body"))
		return
	}

	types := s.Catalog.Types()
	if len(req.Types) > 0 {
		types = types[:0:0]
		for _, k := range req.Types {
			ct, ok := s.Catalog.Get(k)
			if !ok {
				s.respondError(c, apperr.Validation(op, "unknown content type %q", k))
				return
			}
			types = append(types, ct)
		}
	}

	if req.SourceID != nil {
		if _, err := s.Sources.Get(ctx, *req.SourceID); err != nil {
			s.respondError(c, err)
			return
		}
	}

	batch, err := worker.CreateBatch(ctx, s.DB, worker.NewBatch{
		UserID:     user.ID,
		SourceID:   req.SourceID,
		Text:       req.Text,
		Types:      req.Types,
		LLMTimeout: s.Config.LLMTimeout,
	}, len(types))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.Dispatcher.Dispatch(ctx, batch.BatchID, len(types)); err != nil {
		s.Logger.Error("Failed to dispatch batch", "batch_id", batch.BatchID, "error", err.Error())
		err = s.DB.WithContext(ctx).Model(batch).Updates(map[string]interface{}{
			"status":        models.BatchStatusFailed,
			"error_message": "Failed to enqueue generation task",
		}).Error
		if err != nil {
			s.Logger.Error("Failed to mark batch failed", "batch_id", batch.BatchID, "error", err.Error())
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "We couldn't start generation. Please try again.", "retryable": true})
		return
	}

	slots := make([]slotInfo, len(types))
	for i, ct := range types {
		slots[i] = slotInfo{Index: i, Key: ct.Key, Label: ct.Label, Share: ct.Share}
	}
	c.JSON(http.StatusAccepted, gin.H{"batch_id": batch.BatchID, "slots": slots})
}

func (s *Server) batchStatus(c *gin.Context) {
	batch, err := worker.GetBatch(c.Request.Context(), s.DB, currentUser(c).ID, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"batch_id":        batch.BatchID,
		"status":          batch.Status,
		"completed_slots": batch.CompletedSlots,
		"total_slots":     batch.TotalSlots,
		"error":           batch.ErrorMessage,
	})
}

// batchEvents streams slot updates as server-sent events. The stream ends
// with a done or error event.
func (s *Server) batchEvents(c *gin.Context) {
	ctx := c.Request.Context()
	batch, err := worker.GetBatch(ctx, s.DB, currentUser(c).ID, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	if expired(batch) {
		ev := streams.DoneEvent()
		if batch.Status == models.BatchStatusFailed {
			ev = streams.ErrorEvent(apperr.UserMessage(apperr.Generation("web.batchEvents", 0, nil)))
		}
		c.SSEvent(ev.Kind, gin.H{"message": ev.Message})
		return
	}

	events, err := s.Broker.Subscribe(ctx, batch.BatchID)
	if err != nil {
		s.respondError(c, apperr.DataAccess("web.batchEvents", err))
		return
	}

	finished := false
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if ev.Kind == streams.EventSlot && ev.Update != nil {
				c.SSEvent(ev.Kind, ev.Update)
			} else {
				c.SSEvent(ev.Kind, gin.H{"message": ev.Message})
			}
			finished = ev.Terminal()
			return !finished
		case <-ctx.Done():
			return false
		}
	})

	if !finished && ctx.Err() != nil {
		s.cancelAbandoned(batch.BatchID)
	}
}

// cancelAbandoned stops an in-process batch whose viewer went away.
func (s *Server) cancelAbandoned(batchID string) {
	canceler, ok := s.Dispatcher.(worker.Canceler)
	if !ok {
		return
	}
	var batch models.Batch
	if err := s.DB.WithContext(context.Background()).Where("batch_id = ?", batchID).First(&batch).Error; err != nil {
		return
	}
	if batch.InFlight() {
		s.Logger.Info("Client disconnected, cancelling batch", "batch_id", batchID)
		canceler.Cancel(batchID)
	}
}

// expired reports whether a finished batch's events are no longer retained.
func expired(b *models.Batch) bool {
	return !b.InFlight() && b.FinishedAt != nil && time.Since(*b.FinishedAt) > streams.StreamTTL
}

type saveRequest struct {
	Items []library.Item `json:"items"`
}

func (s *Server) saveBatch(c *gin.Context) {
	const op = "web.saveBatch"
	user := currentUser(c)
	ctx := c.Request.Context()

	batch, err := worker.GetBatch(ctx, s.DB, user.ID, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Validation(op, "invalid request body"))
		return
	}

	title := sources.CustomInput(batch.CustomText).Title
	if batch.SourceItemID != nil {
		src, err := s.Sources.Get(ctx, *batch.SourceItemID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			s.respondError(c, err)
			return
		}
		if src != nil {
			title = src.Meta().Title
		}
	}

	n, err := s.Library.Save(ctx, user.ID, batch.BatchID, title, req.Items)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": n})
}

// share redirects to the compose page of the content type's network.
func (s *Server) share(c *gin.Context) {
	const op = "web.share"

	ct, ok := s.Catalog.Get(c.Query("type"))
	if !ok {
		s.respondError(c, apperr.Validation(op, "unknown content type"))
		return
	}
	content := c.Query("content")
	if content == "" {
		s.respondError(c, apperr.Validation(op, "nothing to share yet"))
		return
	}
	target, ok := studio.ShareURL(ct.Share, content)
	if !ok {
		s.respondError(c, apperr.Validation(op, "%s cannot be shared directly", ct.Label))
		return
	}
	c.Redirect(http.StatusFound, target)
}

func (s *Server) chatHistory(c *gin.Context) {
	history, err := s.Chat.History(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": history})
}

func (s *Server) deleteSaved(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		s.respondError(c, apperr.NotFound("web.deleteSaved", "saved content not found"))
		return
	}
	if err := s.Library.Delete(c.Request.Context(), currentUser(c).ID, uint(id)); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
