package event

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, e Event) (Event, error)
		GetEvent(ctx context.Context, id string) (Event, error)
		// QueryEvents applies AND operation on available QueryFilter fields.
		QueryEvents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Event, error)
		UpdateEvent(ctx context.Context, e Event, published *bool) (Event, error)
		DeleteEventsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo  Repository
		files core.FileStore
	}
)

func NewService(repo Repository, files core.FileStore) *Service {
	return &Service{repo: repo, files: files}
}

func (svc *Service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	now := time.Now().UTC()
	e := Event{
		Title:       ne.Title,
		Description: ne.Description,
		Venue:       ne.Venue,
		StartsAt:    ne.StartsAt.UTC(),
		EndsAt:      ne.EndsAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ne.EndsAt.IsZero() {
		e.EndsAt = time.Time{}
	}
	return svc.repo.CreateEvent(ctx, e)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Event, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "starts_at", Ascending: true}}
	}
	return svc.repo.QueryEvents(ctx, filter, ordering)
}

// QueryUpcoming returns the published events that have not started yet.
func (svc *Service) QueryUpcoming(ctx context.Context, filter *QueryFilter) ([]Event, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	upcoming, published := true, true
	filter.Upcoming = &upcoming
	filter.Published = &published
	return svc.Query(ctx, filter, nil)
}

func (svc *Service) Update(ctx context.Context, orig Event, ue UpdateEvent) (Event, error) {
	e := Event{
		ID:          orig.ID,
		Title:       ue.Title,
		Description: ue.Description,
		Venue:       ue.Venue,
		StartsAt:    orig.StartsAt,
		EndsAt:      orig.EndsAt,
		UpdatedAt:   time.Now().UTC(),
	}
	if ue.StartsAt != nil {
		e.StartsAt = ue.StartsAt.UTC()
	}
	if ue.EndsAt != nil {
		e.EndsAt = ue.EndsAt.UTC()
	}
	return svc.repo.UpdateEvent(ctx, e, nil)
}

func (svc *Service) SetPublished(ctx context.Context, id string, published bool) (Event, error) {
	e := Event{ID: id, UpdatedAt: time.Now().UTC()}
	return svc.repo.UpdateEvent(ctx, e, &published)
}

// AttachImage stores the banner image and points the event at it.
func (svc *Service) AttachImage(ctx context.Context, e Event, filename string, data []byte) (Event, error) {
	stored, err := svc.files.Save(path.Join("events", e.ID, path.Base(filename)), bytes.NewReader(data))
	if err != nil {
		return Event{}, errors.Wrap(err, "storing event image")
	}
	e.ImagePath = stored
	e.UpdatedAt = time.Now().UTC()
	updated, err := svc.repo.UpdateEvent(ctx, e, nil)
	if err != nil {
		_ = svc.files.Remove(stored)
		return Event{}, err
	}
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteEventsByID(ctx, ids...)
	return err
}
