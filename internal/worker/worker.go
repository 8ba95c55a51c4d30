// Package worker runs content batches and source refreshes, either under an
// Asynq server or in process.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/config"
	"github.com/jimdaga/nextrend/internal/ingest"
	"github.com/jimdaga/nextrend/internal/logging"
)

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// SourceRefresher refreshes stored source items.
type SourceRefresher interface {
	Refresh(ctx context.Context) (ingest.Result, error)
}

// Handlers are the task implementations the server dispatches to.
type Handlers struct {
	Generator *Generator
	Refresher SourceRefresher
}

// Run starts the Asynq worker server and blocks until shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, h Handlers) error {
	srv, mux, err := newServer(cfg, h)
	if err != nil {
		return err
	}
	return srv.Run(mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
// Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, h Handlers) (stop func(), err error) {
	srv, mux, err := newServer(cfg, h)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, h Handlers) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := NewServeMux(logger, h)

	logger.Info("Worker starting", "concurrency", 5, "redis", cfg.RedisURL)
	return srv, mux, nil
}

// NewServeMux routes task types to their handlers.
func NewServeMux(logger *slog.Logger, h Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskGenerateContent, handleGenerateContent(logger, h.Generator))
	if h.Refresher != nil {
		mux.HandleFunc(TaskRefreshSources, handleRefreshSources(logger, h.Refresher))
	}
	return mux
}

// handleGenerateContent runs one batch. Generation failures are final.
func handleGenerateContent(logger *slog.Logger, gen *Generator) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload GeneratePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.BatchID == "" {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		err := gen.Run(ctx, payload.BatchID)
		if err == nil {
			return nil
		}
		if errors.Is(err, apperr.ErrNotFound) {
			logger.Error("Batch not found", "batch_id", payload.BatchID)
		}
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
}

// handleRefreshSources pulls every configured feed.
func handleRefreshSources(logger *slog.Logger, r SourceRefresher) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		logger.Info("Processing sources:refresh task")
		res, err := r.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("refresh sources: %w", err)
		}
		if len(res.Errors) > 0 && len(res.Errors) == res.Feeds {
			return fmt.Errorf("all %d feeds failed: %w", res.Feeds, errors.Join(res.Errors...))
		}
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		// Check if this is the final failure (task will move to dead letter queue)
		if retried >= maxRetry {
			logger.Error(
				"Task archived (no retries left)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
