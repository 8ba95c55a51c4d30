// Package ingest pulls commentary and trending articles from RSS feeds into
// the source store.
package ingest

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/jimdaga/nextrend/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed feeds.yaml
var defaultFeeds []byte

// Feed is one configured RSS or Atom source.
type Feed struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

type feedsFile struct {
	Feeds []Feed `yaml:"feeds"`
}

// DefaultFeeds returns the embedded feed list.
func DefaultFeeds() []Feed {
	feeds, err := ParseFeeds(defaultFeeds)
	if err != nil {
		panic(fmt.Sprintf("ingest: embedded feeds: %v", err))
	}
	return feeds
}

// LoadFeeds reads a feed list from path, or the embedded list when path is
// empty.
func LoadFeeds(path string) ([]Feed, error) {
	if path == "" {
		return DefaultFeeds(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feeds file: %w", err)
	}
	return ParseFeeds(data)
}

// ParseFeeds decodes and validates a feed list.
func ParseFeeds(data []byte) ([]Feed, error) {
	var f feedsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing feeds: %w", err)
	}
	for i, feed := range f.Feeds {
		if feed.Name == "" || feed.URL == "" {
			return nil, fmt.Errorf("feed %d: name and url are required", i)
		}
		switch feed.Kind {
		case models.SourceKindCommentary, models.SourceKindTrending:
		default:
			return nil, fmt.Errorf("feed %q: kind must be commentary or trending, got %q", feed.Name, feed.Kind)
		}
	}
	return f.Feeds, nil
}
