package inmemdb

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/club"
)

type clubTable struct {
	mutex sync.RWMutex
	table map[string]*club.Club
}

func newClubTable() *clubTable {
	return &clubTable{table: make(map[string]*club.Club)}
}

type clubRepository struct {
	db *clubTable
}

var _ club.Repository = (*clubRepository)(nil)

func NewClubRepository(db *DB) *clubRepository {
	return &clubRepository{db: db.club}
}

func (repo *clubRepository) query() []club.Club {
	items := make([]club.Club, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		items = append(items, *c)
	}
	return items
}

func (repo *clubRepository) CreateClub(ctx context.Context, c club.Club) (club.Club, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = uuid.New().String()
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *clubRepository) GetClub(ctx context.Context, id string) (club.Club, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return club.Club{}, club.ErrNotFound
}

func (repo *clubRepository) QueryClubs(ctx context.Context, filter *club.QueryFilter, ordering []core.DBOrdering) ([]club.Club, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := repo.query()
	if filter == nil {
		return items, nil
	}
	matched := make([]club.Club, 0, len(items))
	for _, c := range items {
		if filter.Search != "" && !containsFold(c.Name, filter.Search) && !containsFold(c.Description, filter.Search) {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.Active != nil && c.Active != *filter.Active {
			continue
		}
		matched = append(matched, c)
	}
	return matched, nil
}

func (repo *clubRepository) UpdateClub(ctx context.Context, c club.Club, memberCount *int, active *bool) (club.Club, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[c.ID]
	if !ok {
		return club.Club{}, club.ErrNotFound
	}
	if c.Name != "" {
		orig.Name = c.Name
	}
	if c.Description != "" {
		orig.Description = c.Description
	}
	if c.Category != "" {
		orig.Category = c.Category
	}
	if c.TeacherInCharge != "" {
		orig.TeacherInCharge = c.TeacherInCharge
	}
	if memberCount != nil {
		orig.MemberCount = *memberCount
	}
	if active != nil {
		orig.Active = *active
	}
	orig.UpdatedAt = c.UpdatedAt
	return *orig, nil
}

func (repo *clubRepository) DeleteClubsByID(ctx context.Context, ids ...string) (int, error) {
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
