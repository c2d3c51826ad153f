package inmemdb

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/staff"
)

type staffTable struct {
	mutex sync.RWMutex
	table map[string]*staff.Member
}

func newStaffTable() *staffTable {
	return &staffTable{table: make(map[string]*staff.Member)}
}

type staffRepository struct {
	db *staffTable
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(db *DB) *staffRepository {
	return &staffRepository{db: db.staff}
}

func (repo *staffRepository) query() []staff.Member {
	items := make([]staff.Member, 0, len(repo.db.table))
	for _, m := range repo.db.table {
		items = append(items, *m)
	}
	return items
}

func (repo *staffRepository) CreateMember(ctx context.Context, m staff.Member) (staff.Member, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m.ID = uuid.New().String()
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *staffRepository) GetMember(ctx context.Context, id string) (staff.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.table[id]; ok {
		return *m, nil
	}
	return staff.Member{}, staff.ErrNotFound
}

func (repo *staffRepository) QueryMembers(ctx context.Context, filter *staff.QueryFilter, ordering []core.DBOrdering) ([]staff.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := repo.query()
	if filter == nil {
		return items, nil
	}
	matched := make([]staff.Member, 0, len(items))
	for _, m := range items {
		if filter.Search != "" &&
			!containsFold(m.Name, filter.Search) &&
			!containsFold(m.Designation, filter.Search) &&
			!containsFold(m.Subject, filter.Search) {
			continue
		}
		if filter.Designation != "" && m.Designation != filter.Designation {
			continue
		}
		if filter.Subject != "" && m.Subject != filter.Subject {
			continue
		}
		if filter.Active != nil && m.Active != *filter.Active {
			continue
		}
		matched = append(matched, m)
	}
	return matched, nil
}

func (repo *staffRepository) UpdateMember(ctx context.Context, m staff.Member, displayOrder *int, active *bool) (staff.Member, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[m.ID]
	if !ok {
		return staff.Member{}, staff.ErrNotFound
	}
	if m.Name != "" {
		orig.Name = m.Name
	}
	if m.Designation != "" {
		orig.Designation = m.Designation
	}
	if m.Qualification != "" {
		orig.Qualification = m.Qualification
	}
	if m.Subject != "" {
		orig.Subject = m.Subject
	}
	if m.PhotoPath != "" {
		orig.PhotoPath = m.PhotoPath
	}
	if displayOrder != nil {
		orig.DisplayOrder = *displayOrder
	}
	if active != nil {
		orig.Active = *active
	}
	orig.UpdatedAt = m.UpdatedAt
	return *orig, nil
}

func (repo *staffRepository) DeleteMembersByID(ctx context.Context, ids ...string) (int, error) {
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
