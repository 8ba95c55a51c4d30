package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
)

// Dispatcher starts a stored batch.
type Dispatcher interface {
	Dispatch(ctx context.Context, batchID string, slots int) error
}

// Canceler is implemented by dispatchers that can stop a batch they started.
type Canceler interface {
	Cancel(batchID string)
}

// AsynqDispatcher enqueues batches for a worker process.
type AsynqDispatcher struct {
	client     *asynq.Client
	llmTimeout time.Duration
}

// NewAsynqDispatcher connects to the Redis instance at redisURL.
func NewAsynqDispatcher(redisURL string, llmTimeout time.Duration) (*AsynqDispatcher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &AsynqDispatcher{client: asynq.NewClient(opt), llmTimeout: llmTimeout}, nil
}

// Dispatch enqueues a content:generate task.
func (d *AsynqDispatcher) Dispatch(ctx context.Context, batchID string, slots int) error {
	task, err := NewGenerateTask(batchID, slots, d.llmTimeout)
	if err != nil {
		return err
	}
	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskGenerateContent, err)
	}
	slog.Info("Batch enqueued", "batch_id", batchID, "task_id", info.ID, "queue", info.Queue)
	return nil
}

// EnqueueRefresh enqueues an immediate sources:refresh task.
func (d *AsynqDispatcher) EnqueueRefresh(ctx context.Context) error {
	_, err := d.client.EnqueueContext(ctx, NewRefreshTask())
	return err
}

// Close closes the Asynq client connection gracefully.
func (d *AsynqDispatcher) Close() error {
	return d.client.Close()
}

// InlineDispatcher runs batches in goroutines of the current process. It is
// used when no Redis is configured.
type InlineDispatcher struct {
	gen        *Generator
	llmTimeout time.Duration

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewInlineDispatcher creates an in-process dispatcher.
func NewInlineDispatcher(gen *Generator, llmTimeout time.Duration) *InlineDispatcher {
	return &InlineDispatcher{gen: gen, llmTimeout: llmTimeout, cancels: make(map[string]context.CancelFunc)}
}

// Dispatch starts the batch and returns immediately. The run outlives ctx.
func (d *InlineDispatcher) Dispatch(ctx context.Context, batchID string, slots int) error {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), BatchTimeout(slots, d.llmTimeout))

	d.mu.Lock()
	d.cancels[batchID] = cancel
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			delete(d.cancels, batchID)
			d.mu.Unlock()
			cancel()
		}()
		if err := d.gen.Run(runCtx, batchID); err != nil {
			d.gen.logger.Warn("Inline batch ended with error", "batch_id", batchID, "error", err.Error())
		}
	}()
	return nil
}

// Cancel stops a running batch. Unknown ids are ignored.
func (d *InlineDispatcher) Cancel(batchID string) {
	d.mu.Lock()
	cancel, ok := d.cancels[batchID]
	d.mu.Unlock()
	if ok {
		cancel()
	}
}

// Wait blocks until every started batch has finished.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}
