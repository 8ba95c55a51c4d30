package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jimdaga/nextrend/internal/auth"
	"github.com/jimdaga/nextrend/internal/billing"
	"github.com/jimdaga/nextrend/internal/brandvoice"
	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/chat"
	"github.com/jimdaga/nextrend/internal/config"
	"github.com/jimdaga/nextrend/internal/database"
	"github.com/jimdaga/nextrend/internal/generation"
	"github.com/jimdaga/nextrend/internal/ingest"
	"github.com/jimdaga/nextrend/internal/library"
	"github.com/jimdaga/nextrend/internal/llm"
	"github.com/jimdaga/nextrend/internal/logging"
	"github.com/jimdaga/nextrend/internal/models"
	"github.com/jimdaga/nextrend/internal/sources"
	"github.com/jimdaga/nextrend/internal/streams"
	"github.com/jimdaga/nextrend/internal/usage"
	"github.com/jimdaga/nextrend/internal/web"
	"github.com/jimdaga/nextrend/internal/worker"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := models.InitEncryption(cfg.EncryptionKey); err != nil {
		log.Fatalf("Failed to initialize encryption: %v", err)
	}

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if n, err := worker.FailStaleBatches(context.Background(), db, cfg.LLMTimeout); err != nil {
		logger.Warn("Failed to close stale batches", "error", err.Error())
	} else if n > 0 {
		logger.Info("Closed stale batches", "count", n)
	}

	store := sources.NewStore(db)
	if cfg.SeedDevData {
		if err := database.SeedDevData(context.Background(), db, store); err != nil {
			logger.Warn("Dev seed failed", "error", err.Error())
		}
	}

	cat := catalog.Default()
	if cfg.ContentCatalogPath != "" {
		if cat, err = catalog.Load(cfg.ContentCatalogPath); err != nil {
			log.Fatalf("Failed to load content catalog: %v", err)
		}
	}

	var completer llm.Completer
	if cfg.LLMStubMode || cfg.OpenAIAPIKey == "" {
		logger.Warn("Using stub completions; set OPENAI_API_KEY for real content")
		completer = llm.NewStub()
	} else {
		opts := []llm.Option{llm.WithModel(cfg.LLMModel), llm.WithTimeout(cfg.LLMTimeout)}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, llm.WithBaseURL(cfg.OpenAIBaseURL))
		}
		completer = llm.NewClient(cfg.OpenAIAPIKey, opts...)
	}
	pipeline := generation.NewPipeline(completer, cat, logger)

	index, err := sources.NewIndex()
	if err != nil {
		log.Fatalf("Failed to create search index: %v", err)
	}
	defer index.Close()
	if rows, err := store.AllPublished(context.Background()); err != nil {
		logger.Warn("Failed to load sources for indexing", "error", err.Error())
	} else if err := index.Rebuild(rows); err != nil {
		logger.Warn("Failed to build search index", "error", err.Error())
	}

	feeds := ingest.DefaultFeeds()
	if cfg.SourceFeedsPath != "" {
		if feeds, err = ingest.LoadFeeds(cfg.SourceFeedsPath); err != nil {
			log.Fatalf("Failed to load source feeds: %v", err)
		}
	}
	refresher := ingest.NewRefresher(store, index, feeds, ingest.NewScraper(), logger)

	var broker streams.Broker
	if cfg.RedisURL != "" {
		rb, err := streams.NewRedisBroker(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		broker = rb
	} else {
		logger.Info("REDIS_URL not set, streaming batch progress in memory")
		broker = streams.NewMemoryBroker()
	}
	defer broker.Close()

	voices := brandvoice.NewStore(db, pipeline, logger)
	usageRecorder := usage.NewRecorder(db)
	chatLog := chat.NewLog(db)

	gen := worker.NewGenerator(worker.GeneratorDeps{
		DB:       db,
		Pipeline: pipeline,
		Sources:  store,
		Voices:   voices,
		Usage:    usageRecorder,
		Chat:     chatLog,
		Broker:   broker,
		Logger:   logger,
	})
	handlers := worker.Handlers{Generator: gen, Refresher: refresher}

	if cfg.AppMode == "worker" {
		if cfg.RedisURL == "" {
			log.Fatal("APP_MODE=worker requires REDIS_URL")
		}
		stopScheduler, err := worker.StartScheduler(cfg)
		if err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer stopScheduler()

		logger.Info("Starting worker")
		if err := worker.Run(cfg, handlers); err != nil {
			log.Fatalf("Worker failed: %v", err)
		}
		return
	}

	var dispatcher worker.Dispatcher
	if cfg.RedisURL != "" {
		d, err := worker.NewAsynqDispatcher(cfg.RedisURL, cfg.LLMTimeout)
		if err != nil {
			log.Fatalf("Failed to create task client: %v", err)
		}
		defer d.Close()
		dispatcher = d

		if cfg.AppMode == "embedded" {
			stopWorker, err := worker.Start(cfg, handlers)
			if err != nil {
				log.Fatalf("Failed to start embedded worker: %v", err)
			}
			defer stopWorker()

			stopScheduler, err := worker.StartScheduler(cfg)
			if err != nil {
				log.Fatalf("Failed to start scheduler: %v", err)
			}
			defer stopScheduler()
		}
	} else {
		inline := worker.NewInlineDispatcher(gen, cfg.LLMTimeout)
		defer inline.Wait()
		dispatcher = inline
		go refreshOnce(refresher, logger)
	}

	provider := auth.NewProvider(cfg, db)
	defer provider.Close()

	router, err := web.NewRouter(web.Deps{
		Config:        cfg,
		DB:            db,
		Auth:          provider,
		Catalog:       cat,
		Sources:       store,
		Index:         index,
		Voices:        voices,
		Usage:         usageRecorder,
		Chat:          chatLog,
		Library:       library.New(db),
		Billing:       billing.NewService(db, cfg.StripeWebhookSecret, logger),
		Broker:        broker,
		Dispatcher:    dispatcher,
		Logger:        logger,
		DevLoginEmail: devLoginEmail(cfg, db),
	})
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "mode", cfg.AppMode, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err.Error())
	}
}

// refreshOnce primes the source cache when no scheduler is running.
func refreshOnce(r *ingest.Refresher, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	res, err := r.Refresh(ctx)
	if err != nil {
		logger.Warn("Initial source refresh failed", "error", err.Error())
		return
	}
	logger.Info("Initial source refresh finished", "created", res.Created, "updated", res.Updated, "errors", len(res.Errors))
}

// devLoginEmail is the seeded dev account, when dev data is loaded.
func devLoginEmail(cfg *config.Config, db *gorm.DB) string {
	if cfg.IsProduction() || !cfg.SeedDevData {
		return ""
	}
	var user models.User
	if err := db.Where("email = ?", database.DevUserEmail).First(&user).Error; err != nil {
		return ""
	}
	return user.Email
}
