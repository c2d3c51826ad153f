package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/album"
)

type albumTable struct {
	mutex  sync.RWMutex
	table  map[string]*album.Album
	photos map[string][]*album.Photo // keyed by album ID
}

func newAlbumTable() *albumTable {
	return &albumTable{
		table:  make(map[string]*album.Album),
		photos: make(map[string][]*album.Photo),
	}
}

type albumRepository struct {
	db *albumTable
}

var _ album.Repository = (*albumRepository)(nil)

func NewAlbumRepository(db *DB) *albumRepository {
	return &albumRepository{db: db.album}
}

func (repo *albumRepository) query() []album.Album {
	items := make([]album.Album, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		item := *a
		item.Photos = nil
		items = append(items, item)
	}
	return items
}

func (repo *albumRepository) CreateAlbum(ctx context.Context, a album.Album) (album.Album, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	a.Photos = nil
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *albumRepository) GetAlbum(ctx context.Context, id string) (album.Album, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	a, ok := repo.db.table[id]
	if !ok {
		return album.Album{}, album.ErrNotFound
	}
	item := *a
	photos := repo.db.photos[id]
	item.Photos = make([]album.Photo, 0, len(photos))
	for _, p := range photos {
		item.Photos = append(item.Photos, *p)
	}
	sort.Slice(item.Photos, func(i, j int) bool { return item.Photos[i].Position < item.Photos[j].Position })
	return item, nil
}

func (repo *albumRepository) QueryAlbums(ctx context.Context, filter *album.QueryFilter, ordering []core.DBOrdering) ([]album.Album, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := repo.query()
	if filter == nil {
		return items, nil
	}
	matched := make([]album.Album, 0, len(items))
	for _, a := range items {
		if filter.Search != "" && !containsFold(a.Title, filter.Search) && !containsFold(a.Description, filter.Search) {
			continue
		}
		if !filter.From.IsZero() && a.EventDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && a.EventDate.After(filter.To) {
			continue
		}
		matched = append(matched, a)
	}
	return matched, nil
}

func (repo *albumRepository) UpdateAlbum(ctx context.Context, a album.Album) (album.Album, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[a.ID]
	if !ok {
		return album.Album{}, album.ErrNotFound
	}
	if a.Title != "" {
		orig.Title = a.Title
	}
	if a.Description != "" {
		orig.Description = a.Description
	}
	if !a.EventDate.IsZero() {
		orig.EventDate = a.EventDate
	}
	if a.CoverPath != "" {
		orig.CoverPath = a.CoverPath
	}
	orig.UpdatedAt = a.UpdatedAt
	return *orig, nil
}

func (repo *albumRepository) DeleteAlbumsByID(ctx context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			delete(repo.db.photos, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *albumRepository) AddPhoto(ctx context.Context, p album.Photo) (album.Photo, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[p.AlbumID]; !ok {
		return album.Photo{}, album.ErrNotFound
	}
	p.ID = uuid.New().String()
	repo.db.photos[p.AlbumID] = append(repo.db.photos[p.AlbumID], &p)
	return p, nil
}

func (repo *albumRepository) DeletePhoto(ctx context.Context, albumID, photoID string) (album.Photo, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	photos := repo.db.photos[albumID]
	for i, p := range photos {
		if p.ID == photoID {
			repo.db.photos[albumID] = append(photos[:i], photos[i+1:]...)
			return *p, nil
		}
	}
	return album.Photo{}, album.ErrNotFound
}
