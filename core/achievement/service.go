package achievement

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
		CreateAchievement(ctx context.Context, a Achievement) (Achievement, error)
		GetAchievement(ctx context.Context, id string) (Achievement, error)
		// QueryAchievements applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Title, Description or StudentName.
		QueryAchievements(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Achievement, error)
		UpdateAchievement(ctx context.Context, a Achievement, published *bool) (Achievement, error)
		DeleteAchievementsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo  Repository
		files core.FileStore
	}
)

func NewService(repo Repository, files core.FileStore) *Service {
	return &Service{repo: repo, files: files}
}

func (svc *Service) Create(ctx context.Context, na NewAchievement) (Achievement, error) {
	now := time.Now().UTC()
	a := Achievement{
		Title:       na.Title,
		Description: na.Description,
		StudentName: na.StudentName,
		Class:       na.Class,
		Year:        na.Year,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAchievement(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Achievement, error) {
	return svc.repo.GetAchievement(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Achievement, error) {
	return svc.repo.QueryAchievements(ctx, filter, ordering)
}

// QueryPublished returns the achievements visible on the public site.
func (svc *Service) QueryPublished(ctx context.Context, filter *QueryFilter) ([]Achievement, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	published := true
	filter.Published = &published
	ordering := []core.DBOrdering{{Field: "year", Ascending: false}, {Field: "created_at", Ascending: false}}
	return svc.repo.QueryAchievements(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, orig Achievement, ua UpdateAchievement) (Achievement, error) {
	a := Achievement{
		ID:          orig.ID,
		Title:       ua.Title,
		Description: ua.Description,
		StudentName: ua.StudentName,
		Class:       ua.Class,
		Year:        ua.Year,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateAchievement(ctx, a, nil)
}

func (svc *Service) SetPublished(ctx context.Context, id string, published bool) (Achievement, error) {
	a := Achievement{ID: id, UpdatedAt: time.Now().UTC()}
	return svc.repo.UpdateAchievement(ctx, a, &published)
}

// AttachImage stores the illustration image and points the achievement at it.
func (svc *Service) AttachImage(ctx context.Context, a Achievement, filename string, data []byte) (Achievement, error) {
	stored, err := svc.files.Save(path.Join("achievements", a.ID, path.Base(filename)), bytes.NewReader(data))
	if err != nil {
		return Achievement{}, errors.Wrap(err, "storing achievement image")
	}
	a.ImagePath = stored
	a.UpdatedAt = time.Now().UTC()
	updated, err := svc.repo.UpdateAchievement(ctx, a, nil)
	if err != nil {
		_ = svc.files.Remove(stored)
		return Achievement{}, err
	}
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteAchievementsByID(ctx, ids...)
	return err
}
