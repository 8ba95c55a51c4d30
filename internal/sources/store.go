package sources

import (
	"context"
	"errors"
	"strings"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PerPage is the list page size.
const PerPage = 12

// Query selects one page of a source list.
type Query struct {
	Tab     string
	Page    int
	PerPage int
}

// Page is one page of sources, newest first.
type Page struct {
	Items      []Source
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// Store reads and writes source items.
type Store struct {
	db *gorm.DB
}

// NewStore creates a source store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) published(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.SourceItem{}).Where("status = ?", models.SourceStatusPublished)
}

// List returns a page of published items of kind. Tab "all" or "" disables
// the category filter; pages are clamped to the valid range.
func (s *Store) List(ctx context.Context, kind string, q Query) (Page, error) {
	const op = "sources.List"

	if q.PerPage <= 0 {
		q.PerPage = PerPage
	}
	if q.Page < 1 {
		q.Page = 1
	}

	base := s.published(ctx).Where("kind = ?", kind)
	if tab := strings.ToLower(q.Tab); tab != "" && tab != "all" {
		base = base.Where("LOWER(category) = ?", tab)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page{}, apperr.DataAccess(op, err)
	}

	totalPages := int((total + int64(q.PerPage) - 1) / int64(q.PerPage))
	if totalPages == 0 {
		totalPages = 1
	}
	if q.Page > totalPages {
		q.Page = totalPages
	}

	order := "published_at DESC, id DESC"
	if kind == models.SourceKindGlossary {
		order = "title ASC"
	}

	var rows []models.SourceItem
	err := base.Session(&gorm.Session{}).
		Order(order).
		Limit(q.PerPage).
		Offset((q.Page - 1) * q.PerPage).
		Find(&rows).Error
	if err != nil {
		return Page{}, apperr.DataAccess(op, err)
	}

	items, err := convert(rows)
	if err != nil {
		return Page{}, apperr.DataAccess(op, err)
	}
	return Page{Items: items, Page: q.Page, PerPage: q.PerPage, Total: total, TotalPages: totalPages}, nil
}

// Get returns one published item.
func (s *Store) Get(ctx context.Context, id uint) (Source, error) {
	const op = "sources.Get"

	var row models.SourceItem
	err := s.published(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(op, "source not found")
	}
	if err != nil {
		return nil, apperr.DataAccess(op, err)
	}
	src, err := FromRow(row)
	if err != nil {
		return nil, apperr.DataAccess(op, err)
	}
	return src, nil
}

// GetMany returns published items in the order of ids, skipping missing ones.
func (s *Store) GetMany(ctx context.Context, ids []uint) ([]Source, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.SourceItem
	if err := s.published(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, apperr.DataAccess("sources.GetMany", err)
	}
	byID := make(map[uint]models.SourceItem, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	var ordered []models.SourceItem
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return convert(ordered)
}

// AllPublished returns every published row, for indexing.
func (s *Store) AllPublished(ctx context.Context) ([]models.SourceItem, error) {
	var rows []models.SourceItem
	if err := s.published(ctx).Find(&rows).Error; err != nil {
		return nil, apperr.DataAccess("sources.AllPublished", err)
	}
	return rows, nil
}

// Upsert inserts an item or refreshes it when its source URL is already
// known. Items without a URL are matched by kind and title.
func (s *Store) Upsert(ctx context.Context, item *models.SourceItem) (created bool, err error) {
	const op = "sources.Upsert"
	db := s.db.WithContext(ctx)

	if item.SourceURL != nil {
		var before int64
		db.Model(&models.SourceItem{}).Where("source_url = ?", *item.SourceURL).Count(&before)
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_url"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "body", "excerpt", "category", "feed", "updated_at"}),
		}).Create(item).Error
		if err != nil {
			return false, apperr.DataAccess(op, err)
		}
		return before == 0, nil
	}

	var existing models.SourceItem
	err = db.Where("kind = ? AND title = ?", item.Kind, item.Title).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(item).Error; err != nil {
			return false, apperr.DataAccess(op, err)
		}
		return true, nil
	}
	if err != nil {
		return false, apperr.DataAccess(op, err)
	}
	item.ID = existing.ID
	return false, nil
}

func convert(rows []models.SourceItem) ([]Source, error) {
	items := make([]Source, 0, len(rows))
	for _, r := range rows {
		src, err := FromRow(r)
		if err != nil {
			return nil, err
		}
		items = append(items, src)
	}
	return items, nil
}
