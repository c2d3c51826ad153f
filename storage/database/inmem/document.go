package inmemdb

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/document"
)

type documentTable struct {
	mutex sync.RWMutex
	table map[string]*document.Document
}

func newDocumentTable() *documentTable {
	return &documentTable{table: make(map[string]*document.Document)}
}

type documentRepository struct {
	db *documentTable
}

var _ document.Repository = (*documentRepository)(nil)

func NewDocumentRepository(db *DB) *documentRepository {
	return &documentRepository{db: db.document}
}

func (repo *documentRepository) query() []document.Document {
	items := make([]document.Document, 0, len(repo.db.table))
	for _, d := range repo.db.table {
		items = append(items, *d)
	}
	return items
}

func (repo *documentRepository) CreateDocument(ctx context.Context, d document.Document) (document.Document, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	d.ID = uuid.New().String()
	repo.db.table[d.ID] = &d
	return d, nil
}

func (repo *documentRepository) GetDocument(ctx context.Context, id string) (document.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if d, ok := repo.db.table[id]; ok {
		return *d, nil
	}
	return document.Document{}, document.ErrNotFound
}

func (repo *documentRepository) QueryDocuments(ctx context.Context, filter *document.QueryFilter, ordering []core.DBOrdering) ([]document.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := repo.query()
	if filter == nil {
		return items, nil
	}
	matched := make([]document.Document, 0, len(items))
	for _, d := range items {
		if filter.Search != "" && !containsFold(d.Title, filter.Search) {
			continue
		}
		if filter.Category != "" && d.Category != filter.Category {
			continue
		}
		if filter.Published != nil && d.Published != *filter.Published {
			continue
		}
		matched = append(matched, d)
	}
	return matched, nil
}

func (repo *documentRepository) UpdateDocument(ctx context.Context, d document.Document, published *bool) (document.Document, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[d.ID]
	if !ok {
		return document.Document{}, document.ErrNotFound
	}
	if d.Title != "" {
		orig.Title = d.Title
	}
	if d.Category != "" {
		orig.Category = d.Category
	}
	if d.FilePath != "" {
		orig.FilePath = d.FilePath
	}
	if d.FileSize != 0 {
		orig.FileSize = d.FileSize
	}
	if published != nil {
		orig.Published = *published
	}
	orig.UpdatedAt = d.UpdatedAt
	return *orig, nil
}

func (repo *documentRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	d, ok := repo.db.table[id]
	if !ok {
		return document.ErrNotFound
	}
	d.DownloadCount++
	return nil
}

func (repo *documentRepository) DeleteDocumentsByID(ctx context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
