package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/generation"
	"github.com/jimdaga/nextrend/internal/llm"
)

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIKey != "" || cfg.Model != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "api_key: from-file\nmodel: gpt-4o-mini\nbase_url: http://localhost:1234/v1\nvoice_file: voice.txt\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "from-file" || cfg.Model != "gpt-4o-mini" || cfg.BaseURL != "http://localhost:1234/v1" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.VoiceFile != filepath.Join(dir, "voice.txt") {
		t.Errorf("expected voice file relative to config dir, got %s", cfg.VoiceFile)
	}

	t.Setenv("OPENAI_API_KEY", "from-env")
	cfg, _ = LoadConfig(path)
	if cfg.APIKey != "from-env" {
		t.Errorf("expected env key to win, got %s", cfg.APIKey)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("api_key: [unterminated"), 0o644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  string
		err   bool
	}{
		{"commentary", "commentary", false},
		{"trending", "trending", false},
		{"glossary", "glossary", false},
		{"general", "glossary", false},
		{"podcast", "", true},
	}
	for _, tt := range tests {
		got, err := parseKind(tt.input)
		if tt.err != (err != nil) || got != tt.want {
			t.Errorf("parseKind(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func testPipeline(t *testing.T, fn llm.CompleterFunc) (*generation.Pipeline, []catalog.ContentType) {
	t.Helper()
	cat := catalog.Default()
	ct1, _ := cat.Get("linkedin")
	ct2, _ := cat.Get("client_sms")
	return generation.NewPipeline(fn, cat, slog.New(slog.NewTextHandler(io.Discard, nil))), []catalog.ContentType{ct1, ct2}
}

func TestPrintBatch(t *testing.T) {
	pipeline, types := testPipeline(t, func(ctx context.Context, p llm.Prompt) (string, error) {
		return "Rates moved.", nil
	})

	var out, errOut bytes.Buffer
	req := generation.Request{Source: generation.Source{Title: "Rates", Body: "Rates fell."}, Types: types}
	if err := printBatch(context.Background(), &out, &errOut, pipeline, req); err != nil {
		t.Fatalf("printBatch: %v", err)
	}

	want := "## LinkedIn Post\n\nRates moved.\n\n## Client SMS\n\nRates moved.\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("expected no diagnostics, got %q", errOut.String())
	}
}

func TestPrintBatchFailure(t *testing.T) {
	pipeline, types := testPipeline(t, func(ctx context.Context, p llm.Prompt) (string, error) {
		return "", apperr.Generation("llm.Complete", 500, nil)
	})

	var out, errOut bytes.Buffer
	req := generation.Request{Source: generation.Source{Title: "Rates", Body: "Rates fell."}, Types: types}
	if err := printBatch(context.Background(), &out, &errOut, pipeline, req); err == nil {
		t.Fatal("expected batch error")
	}
	if out.Len() != 0 {
		t.Errorf("expected no content, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[fail] LinkedIn Post") || !strings.Contains(errOut.String(), "[skip] Client SMS") {
		t.Errorf("unexpected diagnostics %q", errOut.String())
	}
}

func TestGeneratePlainWithStub(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{
		"--stub",
		"--config", filepath.Join(dir, "config.yaml"),
		"--cache", filepath.Join(dir, "cache.db"),
		"generate", "--plain", "--text", "First-time buyer tips", "--types", "client_sms,quote",
	})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		flagText, flagTypes, flagPlain, flagStub, flagCache, flagConfig = "", nil, false, false, "", ""
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("generate: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "## Client SMS") || !strings.Contains(got, "## Motivational Quote") {
		t.Errorf("expected both sections, got %q", got)
	}
	if strings.Contains(got, "## LinkedIn Post") {
		t.Errorf("expected only requested types, got %q", got)
	}
}

func TestGenerateRequiresOneInput(t *testing.T) {
	flagText, flagFile, flagSource = "a", "b.txt", 0
	t.Cleanup(func() { flagText, flagFile = "", "" })

	if err := runGenerate(generateCmd, nil); err == nil || !strings.Contains(err.Error(), "exactly one") {
		t.Errorf("expected input error, got %v", err)
	}
}
