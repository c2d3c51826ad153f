package inmemdb

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/tc"
)

type tcTable struct {
	mutex sync.RWMutex
	table map[string]*tc.Record
}

func newTcTable() *tcTable {
	return &tcTable{table: make(map[string]*tc.Record)}
}

type tcRepository struct {
	db *tcTable
}

var _ tc.Repository = (*tcRepository)(nil)

func NewTcRepository(db *DB) *tcRepository {
	return &tcRepository{db: db.tc}
}

func (repo *tcRepository) query() []tc.Record {
	recs := make([]tc.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		recs = append(recs, *rec)
	}
	return recs
}

func (repo *tcRepository) CheckTcNumberUniqueness(ctx context.Context, tcNumber string, excluded ...tc.Record) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rec := range repo.query() {
		if rec.TcNumber != tcNumber {
			continue
		}
		skip := false
		for _, excl := range excluded {
			if excl.ID == rec.ID {
				skip = true
				break
			}
		}
		if !skip {
			return tc.ErrTcNumberExists
		}
	}
	return nil
}

func (repo *tcRepository) CreateRecord(ctx context.Context, rec tc.Record) (tc.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.TcNumber == rec.TcNumber {
			return tc.Record{}, tc.ErrTcNumberExists
		}
	}
	rec.ID = uuid.New().String()
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *tcRepository) GetRecord(ctx context.Context, id string) (tc.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return tc.Record{}, tc.ErrNotFound
}

func (repo *tcRepository) GetRecordByNumber(ctx context.Context, tcNumber string) (tc.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rec := range repo.query() {
		if rec.TcNumber == tcNumber {
			return rec, nil
		}
	}
	return tc.Record{}, tc.ErrNotFound
}

func (repo *tcRepository) QueryRecords(ctx context.Context, filter *tc.QueryFilter, ordering []core.DBOrdering) ([]tc.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := repo.query()
	if filter == nil {
		return recs, nil
	}
	matched := make([]tc.Record, 0, len(recs))
	for _, rec := range recs {
		if filter.Search != "" &&
			!containsFold(rec.TcNumber, filter.Search) &&
			!containsFold(rec.StudentName, filter.Search) &&
			!containsFold(rec.AdmissionNo, filter.Search) {
			continue
		}
		if filter.Class != "" && rec.Class != filter.Class {
			continue
		}
		if filter.Verified != nil && rec.Verified != *filter.Verified {
			continue
		}
		if !filter.IssuedFrom.IsZero() && rec.DateOfIssue.Before(filter.IssuedFrom) {
			continue
		}
		if !filter.IssuedTo.IsZero() && rec.DateOfIssue.After(filter.IssuedTo) {
			continue
		}
		matched = append(matched, rec)
	}
	return matched, nil
}

func (repo *tcRepository) UpdateRecord(ctx context.Context, rec tc.Record, verified *bool) (tc.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[rec.ID]
	if !ok {
		return tc.Record{}, tc.ErrNotFound
	}
	if rec.TcNumber != "" {
		orig.TcNumber = rec.TcNumber
	}
	if rec.StudentName != "" {
		orig.StudentName = rec.StudentName
	}
	if rec.FatherName != "" {
		orig.FatherName = rec.FatherName
	}
	if rec.AdmissionNo != "" {
		orig.AdmissionNo = rec.AdmissionNo
	}
	if rec.Class != "" {
		orig.Class = rec.Class
	}
	if !rec.DateOfIssue.IsZero() {
		orig.DateOfIssue = rec.DateOfIssue
	}
	if rec.DocumentPath != "" {
		orig.DocumentPath = rec.DocumentPath
	}
	if verified != nil {
		orig.Verified = *verified
	}
	orig.UpdatedAt = rec.UpdatedAt
	return *orig, nil
}

func (repo *tcRepository) DeleteRecordsByID(ctx context.Context, ids ...string) (int, error) {
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

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
