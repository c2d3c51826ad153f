package announcement

import (
	"context"
	"time"

	"github.com/mwalimu/shule/core"
)

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		GetAnnouncement(ctx context.Context, id string) (Announcement, error)
		// QueryAnnouncements applies AND operation on available QueryFilter fields.
		QueryAnnouncements(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Announcement, error)
		UpdateAnnouncement(ctx context.Context, a Announcement, publishAt, expiresAt *time.Time) (Announcement, error)
		DeleteAnnouncementsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, na NewAnnouncement) (Announcement, error) {
	now := time.Now().UTC()
	publishAt := na.PublishAt
	if publishAt.IsZero() {
		publishAt = now
	}
	a := Announcement{
		Title:     na.Title,
		Body:      na.Body,
		Priority:  na.Priority,
		PublishAt: publishAt.UTC(),
		ExpiresAt: na.ExpiresAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if na.ExpiresAt.IsZero() {
		a.ExpiresAt = time.Time{}
	}
	return svc.repo.CreateAnnouncement(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncement(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx, filter, ordering)
}

// QueryLive returns the announcements currently visible on the public site.
func (svc *Service) QueryLive(ctx context.Context, filter *QueryFilter) ([]Announcement, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.LiveAt = time.Now().UTC()
	ordering := []core.DBOrdering{{Field: "publish_at", Ascending: false}}
	return svc.repo.QueryAnnouncements(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, orig Announcement, ua UpdateAnnouncement) (Announcement, error) {
	a := Announcement{
		ID:        orig.ID,
		Title:     ua.Title,
		Body:      ua.Body,
		Priority:  ua.Priority,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateAnnouncement(ctx, a, ua.PublishAt, ua.ExpiresAt)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteAnnouncementsByID(ctx, ids...)
	return err
}
