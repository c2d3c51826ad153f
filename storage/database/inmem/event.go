package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/event"
)

type eventTable struct {
	mutex sync.RWMutex
	table map[string]*event.Event
}

func newEventTable() *eventTable {
	return &eventTable{table: make(map[string]*event.Event)}
}

type eventRepository struct {
	db *eventTable
}

var _ event.Repository = (*eventRepository)(nil)

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) query() []event.Event {
	items := make([]event.Event, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		items = append(items, *e)
	}
	return items
}

func (repo *eventRepository) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e.ID = uuid.New().String()
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, id string) (event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.table[id]; ok {
		return *e, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) QueryEvents(ctx context.Context, filter *event.QueryFilter, ordering []core.DBOrdering) ([]event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := repo.query()
	if filter == nil {
		return items, nil
	}
	now := time.Now().UTC()
	matched := make([]event.Event, 0, len(items))
	for _, e := range items {
		if filter.Search != "" &&
			!containsFold(e.Title, filter.Search) &&
			!containsFold(e.Description, filter.Search) &&
			!containsFold(e.Venue, filter.Search) {
			continue
		}
		if !filter.From.IsZero() && e.StartsAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && e.StartsAt.After(filter.To) {
			continue
		}
		if filter.Upcoming != nil && e.IsUpcoming(now) != *filter.Upcoming {
			continue
		}
		if filter.Published != nil && e.Published != *filter.Published {
			continue
		}
		matched = append(matched, e)
	}
	return matched, nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, e event.Event, published *bool) (event.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[e.ID]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	if e.Title != "" {
		orig.Title = e.Title
	}
	if e.Description != "" {
		orig.Description = e.Description
	}
	if e.Venue != "" {
		orig.Venue = e.Venue
	}
	if !e.StartsAt.IsZero() {
		orig.StartsAt = e.StartsAt
	}
	if !e.EndsAt.IsZero() {
		orig.EndsAt = e.EndsAt
	}
	if e.ImagePath != "" {
		orig.ImagePath = e.ImagePath
	}
	if published != nil {
		orig.Published = *published
	}
	orig.UpdatedAt = e.UpdatedAt
	return *orig, nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids ...string) (int, error) {
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
