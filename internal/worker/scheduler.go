package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/nextrend/internal/config"
	"github.com/jimdaga/nextrend/internal/logging"
)

// periodic is one cron entry the scheduler owns.
type periodic struct {
	spec string
	task *asynq.Task
}

func periodicTasks(cfg *config.Config) []periodic {
	return []periodic{
		{spec: cfg.SourceRefreshCron, task: NewRefreshTask()},
	}
}

// schedulerLocation falls back to UTC for an unknown zone name.
func schedulerLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("Invalid scheduler timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// StartScheduler registers the periodic source refresh and starts the asynq
// scheduler in the background. The returned func shuts it down.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: schedulerLocation(cfg.SchedulerTimezone),
		LogLevel: asynq.InfoLevel,
		Logger:   &asynqLoggerAdapter{logger: logging.NewLogger(cfg.LogLevel, cfg.LogFormat)},
	})

	for _, p := range periodicTasks(cfg) {
		id, err := scheduler.Register(p.spec, p.task)
		if err != nil {
			return nil, fmt.Errorf("register %s on %q: %w", p.task.Type(), p.spec, err)
		}
		slog.Info("Scheduled periodic task", "task", p.task.Type(), "cron", p.spec, "entry_id", id)
	}

	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	return scheduler.Shutdown, nil
}
