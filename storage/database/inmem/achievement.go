package inmemdb

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/achievement"
)

type achievementTable struct {
	mutex sync.RWMutex
	table map[string]*achievement.Achievement
}

func newAchievementTable() *achievementTable {
	return &achievementTable{table: make(map[string]*achievement.Achievement)}
}

type achievementRepository struct {
	db *achievementTable
}

var _ achievement.Repository = (*achievementRepository)(nil)

func NewAchievementRepository(db *DB) *achievementRepository {
	return &achievementRepository{db: db.achievement}
}

func (repo *achievementRepository) query() []achievement.Achievement {
	items := make([]achievement.Achievement, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		items = append(items, *a)
	}
	return items
}

func (repo *achievementRepository) CreateAchievement(ctx context.Context, a achievement.Achievement) (achievement.Achievement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *achievementRepository) GetAchievement(ctx context.Context, id string) (achievement.Achievement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return achievement.Achievement{}, achievement.ErrNotFound
}

func (repo *achievementRepository) QueryAchievements(ctx context.Context, filter *achievement.QueryFilter, ordering []core.DBOrdering) ([]achievement.Achievement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := repo.query()
	if filter == nil {
		return items, nil
	}
	matched := make([]achievement.Achievement, 0, len(items))
	for _, a := range items {
		if filter.Search != "" &&
			!containsFold(a.Title, filter.Search) &&
			!containsFold(a.Description, filter.Search) &&
			!containsFold(a.StudentName, filter.Search) {
			continue
		}
		if filter.Class != "" && a.Class != filter.Class {
			continue
		}
		if filter.Year != 0 && a.Year != filter.Year {
			continue
		}
		if filter.Published != nil && a.Published != *filter.Published {
			continue
		}
		matched = append(matched, a)
	}
	return matched, nil
}

func (repo *achievementRepository) UpdateAchievement(ctx context.Context, a achievement.Achievement, published *bool) (achievement.Achievement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[a.ID]
	if !ok {
		return achievement.Achievement{}, achievement.ErrNotFound
	}
	if a.Title != "" {
		orig.Title = a.Title
	}
	if a.Description != "" {
		orig.Description = a.Description
	}
	if a.StudentName != "" {
		orig.StudentName = a.StudentName
	}
	if a.Class != "" {
		orig.Class = a.Class
	}
	if a.Year != 0 {
		orig.Year = a.Year
	}
	if a.ImagePath != "" {
		orig.ImagePath = a.ImagePath
	}
	if published != nil {
		orig.Published = *published
	}
	orig.UpdatedAt = a.UpdatedAt
	return *orig, nil
}

func (repo *achievementRepository) DeleteAchievementsByID(ctx context.Context, ids ...string) (int, error) {
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
