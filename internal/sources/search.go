package sources

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/jimdaga/nextrend/internal/models"
)

// Index is an in-memory full-text index over published source items.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

type indexedItem struct {
	Kind     string
	Title    string
	Body     string
	Category string
}

// NewIndex creates an empty in-memory index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = "en"

	kindFieldMapping := bleve.NewTextFieldMapping()
	kindFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Kind", kindFieldMapping)
	docMapping.AddFieldMappingsAt("Title", titleFieldMapping)
	docMapping.AddFieldMappingsAt("Body", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Category", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Rebuild indexes every row in one batch. Existing documents with the same id
// are replaced.
func (i *Index) Rebuild(rows []models.SourceItem) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.index.NewBatch()
	for _, r := range rows {
		doc := indexedItem{Kind: r.Kind, Title: r.Title, Body: r.Body + " " + r.Excerpt, Category: r.Category}
		if err := batch.Index(strconv.FormatUint(uint64(r.ID), 10), doc); err != nil {
			return fmt.Errorf("batch index %d: %w", r.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Search returns ids of matching items of kind, best match first.
func (i *Index) Search(q, kind string, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = PerPage
	}

	var qry query.Query = bleve.NewQueryStringQuery(q)
	if kind != "" {
		kindQuery := bleve.NewTermQuery(kind)
		kindQuery.SetField("Kind")
		qry = bleve.NewConjunctionQuery(qry, kindQuery)
	}

	i.mu.RLock()
	res, err := i.index.Search(bleve.NewSearchRequestOptions(qry, limit, 0, false))
	i.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make([]uint, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}
