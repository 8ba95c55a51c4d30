// Package sources exposes the source material a batch is generated from.
package sources

import (
	"fmt"
	"strings"
	"time"

	"github.com/jimdaga/nextrend/internal/generation"
	"github.com/jimdaga/nextrend/internal/models"
)

// Source is one of Commentary, Trending or GlossaryTerm.
type Source interface {
	Meta() Meta
	isSource()
}

// Meta is what list views need from any source.
type Meta struct {
	ID       uint      `json:"id"`
	Kind     string    `json:"kind"`
	Title    string    `json:"title"`
	Excerpt  string    `json:"excerpt"`
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
	URL      string    `json:"url,omitempty"`
}

// Commentary is daily market commentary.
type Commentary struct {
	ID       uint
	Title    string
	Body     string
	Excerpt  string
	Category string
	URL      string
	Date     time.Time
}

// Trending is an article picked up from around the web.
type Trending struct {
	ID       uint
	Title    string
	Body     string
	Category string
	Feed     string
	URL      string
	Date     time.Time
}

// GlossaryTerm is a mortgage term to explain.
type GlossaryTerm struct {
	ID         uint
	Term       string
	Definition string
	Relevance  string
	Date       time.Time
}

func (Commentary) isSource()   {}
func (Trending) isSource()     {}
func (GlossaryTerm) isSource() {}

func (c Commentary) Meta() Meta {
	excerpt := c.Excerpt
	if excerpt == "" {
		excerpt = snippet(c.Body, 200)
	}
	return Meta{ID: c.ID, Kind: models.SourceKindCommentary, Title: c.Title, Excerpt: excerpt, Category: c.Category, Date: c.Date, URL: c.URL}
}

func (t Trending) Meta() Meta {
	return Meta{ID: t.ID, Kind: models.SourceKindTrending, Title: t.Title, Excerpt: snippet(t.Body, 200), Category: t.Category, Date: t.Date, URL: t.URL}
}

func (g GlossaryTerm) Meta() Meta {
	return Meta{ID: g.ID, Kind: models.SourceKindGlossary, Title: g.Term, Excerpt: snippet(g.Definition, 200), Category: GlossaryCategory, Date: g.Date}
}

// GlossaryCategory is the category glossary terms are generated under.
const GlossaryCategory = "Term"

// FromRow converts a stored row into its typed source.
func FromRow(row models.SourceItem) (Source, error) {
	url := ""
	if row.SourceURL != nil {
		url = *row.SourceURL
	}
	switch row.Kind {
	case models.SourceKindCommentary:
		return Commentary{ID: row.ID, Title: row.Title, Body: row.Body, Excerpt: row.Excerpt, Category: row.Category, URL: url, Date: row.PublishedAt}, nil
	case models.SourceKindTrending:
		return Trending{ID: row.ID, Title: row.Title, Body: row.Body, Category: row.Category, Feed: row.Feed, URL: url, Date: row.PublishedAt}, nil
	case models.SourceKindGlossary:
		return GlossaryTerm{ID: row.ID, Term: row.Title, Definition: row.Body, Relevance: row.Excerpt, Date: row.PublishedAt}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", row.Kind)
	}
}

// Input maps a source to the pipeline's title/body/category triple.
func Input(s Source) generation.Source {
	switch v := s.(type) {
	case Commentary:
		body := v.Body
		if strings.TrimSpace(body) == "" {
			body = v.Excerpt
		}
		return generation.Source{Title: v.Title, Body: body, Category: v.Category}
	case Trending:
		return generation.Source{Title: v.Title, Body: v.Body, Category: v.Category}
	case GlossaryTerm:
		body := v.Definition
		if v.Relevance != "" {
			body += "\n\nWhy it matters for borrowers: " + v.Relevance
		}
		return generation.Source{Title: v.Term, Body: body, Category: GlossaryCategory}
	default:
		panic(fmt.Sprintf("sources: unhandled source type %T", s))
	}
}

// CustomInput wraps free-form text for custom mode.
func CustomInput(text string) generation.Source {
	text = strings.TrimSpace(text)
	title, _, _ := strings.Cut(text, "\n")
	return generation.Source{Title: snippet(title, 80), Body: text, Category: "Custom"}
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}
