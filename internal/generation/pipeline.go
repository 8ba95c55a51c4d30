// Package generation turns one source text and one brand voice into an
// ordered set of marketing-content variants.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/llm"
)

// Status is the lifecycle of one slot.
type Status string

const (
	StatusGenerating Status = "generating"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Terminal reports whether a slot will not change again within the batch.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusSkipped
}

// Source is the article a batch is generated from.
type Source struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

// Request describes one batch. Types defaults to the pipeline's catalogue.
type Request struct {
	Source       Source
	VoiceSummary string
	Types        []catalog.ContentType
}

// Update is one slot transition.
type Update struct {
	Index   int    `json:"index"`
	Key     string `json:"key"`
	Type    string `json:"type"`
	Status  Status `json:"status"`
	Content string `json:"content,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Pipeline issues completion calls for each content type in order.
type Pipeline struct {
	completer llm.Completer
	catalog   *catalog.Catalog
	logger    *slog.Logger
}

// NewPipeline creates a pipeline. A nil catalogue means the embedded default.
func NewPipeline(completer llm.Completer, cat *catalog.Catalog, logger *slog.Logger) *Pipeline {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{completer: completer, catalog: cat, logger: logger}
}

// Catalog returns the content types this pipeline generates by default.
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

// SummarizeVoice condenses raw brand-voice material into a short stylistic
// description. Blank input fails without calling the backend.
func (p *Pipeline) SummarizeVoice(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.Validation("generation.SummarizeVoice", "brand voice text is required")
	}

	summary, err := p.completer.Complete(ctx, llm.Prompt{
		System:      analyzerInstruction,
		User:        buildVoicePrompt(raw),
		Temperature: voiceTemperature,
		MaxTokens:   voiceMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summarize brand voice: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

// GenerateVariant produces one piece of content for promptBody in the given voice.
func (p *Pipeline) GenerateVariant(ctx context.Context, promptBody, voiceSummary string) (string, error) {
	return p.completer.Complete(ctx, llm.Prompt{
		System:      BuildSystemPrompt(voiceSummary),
		User:        promptBody,
		Temperature: variantTemperature,
		MaxTokens:   variantMaxTokens,
	})
}

// Batch is a running generation. Updates arrive in slot order and the channel
// is closed after the last one.
type Batch struct {
	updates chan Update
	done    chan struct{}

	mu    sync.Mutex
	slots []Update
	err   error
}

// Updates returns the ordered stream of slot transitions.
func (b *Batch) Updates() <-chan Update {
	return b.updates
}

// Wait blocks until the batch finishes and returns the error that aborted it.
func (b *Batch) Wait() error {
	<-b.done
	return b.err
}

// Slots returns the latest state of every slot.
func (b *Batch) Slots() []Update {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Update, len(b.slots))
	copy(out, b.slots)
	return out
}

func (b *Batch) emit(u Update) {
	b.mu.Lock()
	b.slots[u.Index] = u
	b.mu.Unlock()
	b.updates <- u
}

// GenerateAll starts a batch. Every slot is reported as generating before the
// first call is made. Calls run strictly one after another; the first failure
// marks its slot failed, marks every later slot skipped without calling the
// backend, and becomes the batch error.
func (p *Pipeline) GenerateAll(ctx context.Context, req Request) *Batch {
	types := req.Types
	if types == nil {
		types = p.catalog.Types()
	}

	// Two updates per slot at most, so emit never blocks.
	b := &Batch{
		updates: make(chan Update, 2*len(types)),
		done:    make(chan struct{}),
		slots:   make([]Update, len(types)),
	}

	for i, ct := range types {
		b.emit(Update{Index: i, Key: ct.Key, Type: ct.Label, Status: StatusGenerating})
	}

	go func() {
		defer close(b.done)
		defer close(b.updates)
		b.err = p.run(ctx, req, types, b)
	}()

	return b
}

func (p *Pipeline) run(ctx context.Context, req Request, types []catalog.ContentType, b *Batch) error {
	for i, ct := range types {
		content, err := p.GenerateVariant(ctx, BuildVariantPrompt(ct, req.Source), req.VoiceSummary)
		if err == nil && ctx.Err() != nil {
			err = apperr.Generation("generation.GenerateAll", 0, ctx.Err())
		}
		if err != nil {
			p.logger.Warn("Variant generation failed",
				"index", i,
				"type", ct.Label,
				"error", err.Error(),
			)
			b.emit(Update{Index: i, Key: ct.Key, Type: ct.Label, Status: StatusFailed, Error: apperr.UserMessage(err)})
			for j := i + 1; j < len(types); j++ {
				b.emit(Update{Index: j, Key: types[j].Key, Type: types[j].Label, Status: StatusSkipped})
			}
			return fmt.Errorf("generate %s: %w", ct.Label, err)
		}

		warning := ct.Check(content)
		if warning != "" {
			p.logger.Info("Variant exceeds length guidance", "type", ct.Label, "warning", warning)
		}
		b.emit(Update{Index: i, Key: ct.Key, Type: ct.Label, Status: StatusDone, Content: content, Warning: warning})
	}
	return nil
}
