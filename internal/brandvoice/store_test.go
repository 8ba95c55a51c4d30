package brandvoice

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/database"
	"github.com/jimdaga/nextrend/internal/models"
	"gorm.io/gorm"
)

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) SummarizeVoice(ctx context.Context, raw string) (string, error) {
	f.calls++
	return f.summary, f.err
}

func newTestStore(t *testing.T, s Summarizer) (*Store, *gorm.DB) {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	user := models.User{Email: "lo@example.com", Name: "Loan Officer"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	return NewStore(db, s, slog.New(slog.NewTextHandler(io.Discard, nil))), db
}

func TestSaveStoresContentAndSummary(t *testing.T) {
	sum := &fakeSummarizer{summary: "Warm, practical, story-driven."}
	store, _ := newTestStore(t, sum)

	p, err := store.Save(context.Background(), 1, "  I help families buy homes.  ")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p.Content != "I help families buy homes." || p.Summary != "Warm, practical, story-driven." {
		t.Errorf("unexpected profile %+v", p)
	}

	got, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary != p.Summary || got.Content != p.Content {
		t.Errorf("expected stored profile to match, got %+v", got)
	}
}

func TestSaveUpsertsSingleRow(t *testing.T) {
	sum := &fakeSummarizer{summary: "first"}
	store, db := newTestStore(t, sum)
	ctx := context.Background()

	if _, err := store.Save(ctx, 1, "first text"); err != nil {
		t.Fatal(err)
	}
	sum.summary = "second"
	if _, err := store.Save(ctx, 1, "second text"); err != nil {
		t.Fatal(err)
	}

	var count int64
	db.Model(&models.BrandVoice{}).Where("user_id = ?", 1).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
	got, _ := store.Get(ctx, 1)
	if got.Content != "second text" || got.Summary != "second" {
		t.Errorf("expected last write to win, got %+v", got)
	}
}

func TestSaveFailureKeepsPreviousProfile(t *testing.T) {
	sum := &fakeSummarizer{summary: "S1"}
	store, _ := newTestStore(t, sum)
	ctx := context.Background()

	if _, err := store.Save(ctx, 1, "R1"); err != nil {
		t.Fatal(err)
	}

	sum.summary = ""
	sum.err = apperr.Generation("llm.Complete", 500, nil)
	_, err := store.Save(ctx, 1, "R2")
	if !errors.Is(err, apperr.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}

	got, _ := store.Get(ctx, 1)
	if got.Content != "R1" || got.Summary != "S1" {
		t.Errorf("expected R1/S1 to survive, got %s/%s", got.Content, got.Summary)
	}
}

func TestSaveRejectsBlank(t *testing.T) {
	sum := &fakeSummarizer{summary: "x"}
	store, _ := newTestStore(t, sum)

	_, err := store.Save(context.Background(), 1, " \t ")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if sum.calls != 0 {
		t.Errorf("expected no summarizer calls, got %d", sum.calls)
	}
}

func TestSummaryForMissingProfile(t *testing.T) {
	store, _ := newTestStore(t, &fakeSummarizer{})

	summary, err := store.SummaryFor(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if summary != "" {
		t.Errorf("expected empty summary, got %q", summary)
	}
	if _, err := store.Get(context.Background(), 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestExtractTextPlain(t *testing.T) {
	got, err := ExtractText("voice.TXT", strings.NewReader("  Friendly and direct.\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Friendly and direct." {
		t.Errorf("unexpected text %q", got)
	}
}

func TestExtractTextDocx(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>I keep it simple.</w:t></w:r></w:p>
<w:p><w:r><w:t>Clients</w:t></w:r><w:r><w:t xml:space="preserve"> come first.</w:t></w:r></w:p>
</w:body></w:document>`))
	zw.Close()

	got, err := ExtractText("voice.docx", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != "I keep it simple.\nClients come first." {
		t.Errorf("unexpected docx text %q", got)
	}
}

func TestExtractTextRejects(t *testing.T) {
	if _, err := ExtractText("voice.png", strings.NewReader("x")); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for unsupported type, got %v", err)
	}

	big := bytes.Repeat([]byte("a"), MaxUploadSize+1)
	if _, err := ExtractText("voice.txt", bytes.NewReader(big)); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for oversize file, got %v", err)
	}

	if _, err := ExtractText("broken.pdf", strings.NewReader("not a pdf")); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for unreadable pdf, got %v", err)
	}
}
