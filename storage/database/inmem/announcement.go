package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/announcement"
)

type announcementTable struct {
	mutex sync.RWMutex
	table map[string]*announcement.Announcement
}

func newAnnouncementTable() *announcementTable {
	return &announcementTable{table: make(map[string]*announcement.Announcement)}
}

type announcementRepository struct {
	db *announcementTable
}

var _ announcement.Repository = (*announcementRepository)(nil)

func NewAnnouncementRepository(db *DB) *announcementRepository {
	return &announcementRepository{db: db.announcement}
}

func (repo *announcementRepository) query() []announcement.Announcement {
	items := make([]announcement.Announcement, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		items = append(items, *a)
	}
	return items
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *announcementRepository) GetAnnouncement(ctx context.Context, id string) (announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return announcement.Announcement{}, announcement.ErrNotFound
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, filter *announcement.QueryFilter, ordering []core.DBOrdering) ([]announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := repo.query()
	if filter == nil {
		return items, nil
	}
	matched := make([]announcement.Announcement, 0, len(items))
	for _, a := range items {
		if filter.Search != "" && !containsFold(a.Title, filter.Search) && !containsFold(a.Body, filter.Search) {
			continue
		}
		if filter.Priority != "" && a.Priority != filter.Priority {
			continue
		}
		if !filter.LiveAt.IsZero() && !a.IsLive(filter.LiveAt) {
			continue
		}
		matched = append(matched, a)
	}
	return matched, nil
}

func (repo *announcementRepository) UpdateAnnouncement(ctx context.Context, a announcement.Announcement, publishAt, expiresAt *time.Time) (announcement.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[a.ID]
	if !ok {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	if a.Title != "" {
		orig.Title = a.Title
	}
	if a.Body != "" {
		orig.Body = a.Body
	}
	if a.Priority != "" {
		orig.Priority = a.Priority
	}
	if publishAt != nil {
		orig.PublishAt = publishAt.UTC()
	}
	if expiresAt != nil {
		orig.ExpiresAt = expiresAt.UTC()
	}
	orig.UpdatedAt = a.UpdatedAt
	return *orig, nil
}

func (repo *announcementRepository) DeleteAnnouncementsByID(ctx context.Context, ids ...string) (int, error) {
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
