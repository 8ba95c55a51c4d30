package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jimdaga/nextrend/internal/brandvoice"
	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/database"
	"github.com/jimdaga/nextrend/internal/generation"
	"github.com/jimdaga/nextrend/internal/llm"
	"github.com/jimdaga/nextrend/internal/models"
	"github.com/jimdaga/nextrend/internal/sources"
	"gorm.io/gorm"
)

const localUserEmail = "local@nextrend.invalid"

// workspace is the local cache and pipeline one command runs against.
type workspace struct {
	cfg      *Config
	db       *gorm.DB
	userID   uint
	catalog  *catalog.Catalog
	pipeline *generation.Pipeline
	sources  *sources.Store
	voices   *brandvoice.Store
	logger   *slog.Logger
}

func openWorkspace(ctx context.Context, needLLM bool) (*workspace, error) {
	cfg, err := LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}

	completer, err := newCompleter(cfg, needLLM)
	if err != nil {
		return nil, err
	}

	cat := catalog.Default()
	if cfg.Catalog != "" {
		if cat, err = catalog.Load(cfg.Catalog); err != nil {
			return nil, err
		}
	}

	path := flagCache
	if path == "" {
		path = CachePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	user := models.User{Email: localUserEmail, Name: "Local", SubscriptionStatus: models.SubscriptionActive}
	if err := db.WithContext(ctx).Where(models.User{Email: localUserEmail}).FirstOrCreate(&user).Error; err != nil {
		return nil, fmt.Errorf("preparing local user: %w", err)
	}

	logger := slog.Default()
	pipeline := generation.NewPipeline(completer, cat, logger)
	store := sources.NewStore(db)
	if _, err := store.SeedGlossary(ctx); err != nil {
		return nil, err
	}

	return &workspace{
		cfg:      cfg,
		db:       db,
		userID:   user.ID,
		catalog:  cat,
		pipeline: pipeline,
		sources:  store,
		voices:   brandvoice.NewStore(db, pipeline, logger),
		logger:   logger,
	}, nil
}

func newCompleter(cfg *Config, needLLM bool) (llm.Completer, error) {
	if flagStub {
		return &llm.Stub{}, nil
	}
	if cfg.APIKey == "" {
		if needLLM {
			return nil, fmt.Errorf("no API key: set OPENAI_API_KEY or api_key in %s (or pass --stub)", DefaultConfigPath())
		}
		return &llm.Stub{}, nil
	}
	var opts []llm.Option
	if cfg.Model != "" {
		opts = append(opts, llm.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.BaseURL))
	}
	return llm.NewClient(cfg.APIKey, opts...), nil
}

// voiceSummary returns the stored summary, seeding it from the configured
// voice file the first time.
func (w *workspace) voiceSummary(ctx context.Context) (string, error) {
	summary, err := w.voices.SummaryFor(ctx, w.userID)
	if err != nil || summary != "" || w.cfg.VoiceFile == "" {
		return summary, err
	}
	text, err := readDocument(w.cfg.VoiceFile)
	if err != nil {
		return "", err
	}
	p, err := w.voices.Save(ctx, w.userID, text)
	if err != nil {
		return "", err
	}
	return p.Summary, nil
}

func (w *workspace) resolveTypes(keys []string) ([]catalog.ContentType, error) {
	if len(keys) == 0 {
		return w.catalog.Types(), nil
	}
	var out []catalog.ContentType
	for _, k := range keys {
		ct, ok := w.catalog.Get(strings.TrimSpace(k))
		if !ok {
			return nil, fmt.Errorf("unknown content type %q", k)
		}
		out = append(out, ct)
	}
	return out, nil
}

func (w *workspace) Close() error {
	return database.Close(w.db)
}

func readDocument(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return brandvoice.ExtractText(filepath.Base(path), f)
}
