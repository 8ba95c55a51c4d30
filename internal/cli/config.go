package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config is the terminal studio's settings file.
type Config struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	VoiceFile string `yaml:"voice_file"`
	Catalog   string `yaml:"catalog,omitempty"`
	FeedsFile string `yaml:"feeds_file,omitempty"`
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "nextrend", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "nextrend", "nextrend.db")
}

// LoadConfig reads path, or the default path when empty. A missing file
// yields an empty config. OPENAI_API_KEY overrides the file's key.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if cfg.VoiceFile != "" && !filepath.IsAbs(cfg.VoiceFile) {
		cfg.VoiceFile = filepath.Join(filepath.Dir(path), cfg.VoiceFile)
	}
	return &cfg, nil
}
