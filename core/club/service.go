package club

import (
	"context"
	"time"

	"github.com/mwalimu/shule/core"
)

type (
	Repository interface {
		CreateClub(ctx context.Context, c Club) (Club, error)
		GetClub(ctx context.Context, id string) (Club, error)
		// QueryClubs applies AND operation on available QueryFilter fields.
		QueryClubs(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Club, error)
		UpdateClub(ctx context.Context, c Club, memberCount *int, active *bool) (Club, error)
		DeleteClubsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewClub) (Club, error) {
	now := time.Now().UTC()
	c := Club{
		Name:            nc.Name,
		Description:     nc.Description,
		Category:        nc.Category,
		TeacherInCharge: nc.TeacherInCharge,
		MemberCount:     nc.MemberCount,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateClub(ctx, c)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Club, error) {
	return svc.repo.GetClub(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Club, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	return svc.repo.QueryClubs(ctx, filter, ordering)
}

// QueryActive returns the clubs visible on the public site.
func (svc *Service) QueryActive(ctx context.Context, filter *QueryFilter) ([]Club, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	active := true
	filter.Active = &active
	return svc.Query(ctx, filter, nil)
}

func (svc *Service) Update(ctx context.Context, orig Club, uc UpdateClub) (Club, error) {
	c := Club{
		ID:              orig.ID,
		Name:            uc.Name,
		Description:     uc.Description,
		Category:        uc.Category,
		TeacherInCharge: uc.TeacherInCharge,
		UpdatedAt:       time.Now().UTC(),
	}
	return svc.repo.UpdateClub(ctx, c, uc.MemberCount, uc.Active)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteClubsByID(ctx, ids...)
	return err
}
