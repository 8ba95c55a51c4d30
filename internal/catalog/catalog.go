// Package catalog loads the ordered list of content types a batch produces.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

//go:embed schema.json
var catalogSchema []byte

// Share targets understood by the studio
const (
	ShareLinkedIn = "linkedin"
	ShareFacebook = "facebook"
	ShareX        = "x"
	ShareEmail    = "email"
)

// ContentType is one entry of the catalogue. Zero limits mean unbounded.
type ContentType struct {
	Key         string `yaml:"key" json:"key"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
	MaxChars    int    `yaml:"max_chars" json:"max_chars,omitempty"`
	MinWords    int    `yaml:"min_words" json:"min_words,omitempty"`
	MaxWords    int    `yaml:"max_words" json:"max_words,omitempty"`
	Share       string `yaml:"share" json:"share,omitempty"`
}

type manifest struct {
	Version      string        `yaml:"version"`
	ContentTypes []ContentType `yaml:"content_types"`
}

// Catalog holds content types in declaration order.
type Catalog struct {
	types []ContentType
	byKey map[string]int
}

// Default returns the embedded catalogue.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalogue file, or returns the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content catalog: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the catalogue schema, then decodes it strictly.
func Parse(data []byte) (*Catalog, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var m manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse content catalog: %w", err)
	}

	c := &Catalog{byKey: make(map[string]int, len(m.ContentTypes))}
	for _, ct := range m.ContentTypes {
		if err := c.register(ct); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func validate(data []byte) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse content catalog: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(catalogSchema)
	if err != nil {
		return fmt.Errorf("failed to compile catalog schema: %w", err)
	}

	result := schema.Validate(doc)
	if !result.IsValid() {
		var msgs []string
		for field, evalErr := range result.Errors {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		sort.Strings(msgs)
		return fmt.Errorf("content catalog validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func (c *Catalog) register(ct ContentType) error {
	if _, exists := c.byKey[ct.Key]; exists {
		return fmt.Errorf("content type already registered: %s", ct.Key)
	}
	if ct.MinWords > 0 && ct.MaxWords > 0 && ct.MinWords > ct.MaxWords {
		return fmt.Errorf("content type %s: min_words exceeds max_words", ct.Key)
	}
	c.byKey[ct.Key] = len(c.types)
	c.types = append(c.types, ct)
	return nil
}

// Types returns a copy of the content types in declaration order.
func (c *Catalog) Types() []ContentType {
	out := make([]ContentType, len(c.types))
	copy(out, c.types)
	return out
}

// Get looks a content type up by key.
func (c *Catalog) Get(key string) (ContentType, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return ContentType{}, false
	}
	return c.types[i], true
}

// ByLabel looks a content type up by its display label.
func (c *Catalog) ByLabel(label string) (ContentType, bool) {
	for _, ct := range c.types {
		if ct.Label == label {
			return ct, true
		}
	}
	return ContentType{}, false
}

// Len returns the number of content types.
func (c *Catalog) Len() int {
	return len(c.types)
}
