package sources

import "github.com/jimdaga/nextrend/internal/models"

// Option is one entry of the dashboard's source picker.
type Option struct {
	Slug  string
	Title string
	// Kind is empty for custom mode.
	Kind string
	Tabs []string
}

// Category tabs for article sources.
var ArticleTabs = []string{"all", "mortgage", "housing", "economy"}

var options = []Option{
	{Slug: "this-week", Title: "MBS Commentary Today", Kind: models.SourceKindCommentary, Tabs: ArticleTabs},
	{Slug: "trending", Title: "Trending Topics", Kind: models.SourceKindTrending, Tabs: ArticleTabs},
	{Slug: "general", Title: "General Mortgage", Kind: models.SourceKindGlossary, Tabs: []string{"all"}},
	{Slug: "custom", Title: "Custom Content"},
}

// Options lists the picker entries in display order.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// OptionBySlug finds a picker entry.
func OptionBySlug(slug string) (Option, bool) {
	for _, o := range options {
		if o.Slug == slug {
			return o, true
		}
	}
	return Option{}, false
}

// IsCustom reports whether the option takes free-form input.
func (o Option) IsCustom() bool {
	return o.Kind == ""
}

// HasTab reports whether tab is valid for the option.
func (o Option) HasTab(tab string) bool {
	for _, t := range o.Tabs {
		if t == tab {
			return true
		}
	}
	return false
}
