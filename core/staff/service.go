package staff

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
		CreateMember(ctx context.Context, m Member) (Member, error)
		GetMember(ctx context.Context, id string) (Member, error)
		// QueryMembers applies AND operation on available QueryFilter fields.
		QueryMembers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Member, error)
		UpdateMember(ctx context.Context, m Member, displayOrder *int, active *bool) (Member, error)
		DeleteMembersByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo  Repository
		files core.FileStore
	}
)

func NewService(repo Repository, files core.FileStore) *Service {
	return &Service{repo: repo, files: files}
}

func (svc *Service) Create(ctx context.Context, nm NewMember) (Member, error) {
	now := time.Now().UTC()
	m := Member{
		Name:          nm.Name,
		Designation:   nm.Designation,
		Qualification: nm.Qualification,
		Subject:       nm.Subject,
		DisplayOrder:  nm.DisplayOrder,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateMember(ctx, m)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Member, error) {
	return svc.repo.GetMember(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Member, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "display_order", Ascending: true}, {Field: "name", Ascending: true}}
	}
	return svc.repo.QueryMembers(ctx, filter, ordering)
}

// QueryActive returns the staff profiles visible on the public site.
func (svc *Service) QueryActive(ctx context.Context, filter *QueryFilter) ([]Member, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	active := true
	filter.Active = &active
	return svc.Query(ctx, filter, nil)
}

func (svc *Service) Update(ctx context.Context, orig Member, um UpdateMember) (Member, error) {
	m := Member{
		ID:            orig.ID,
		Name:          um.Name,
		Designation:   um.Designation,
		Qualification: um.Qualification,
		Subject:       um.Subject,
		UpdatedAt:     time.Now().UTC(),
	}
	return svc.repo.UpdateMember(ctx, m, um.DisplayOrder, um.Active)
}

// AttachPhoto stores the profile photo and points the member at it.
func (svc *Service) AttachPhoto(ctx context.Context, m Member, filename string, data []byte) (Member, error) {
	stored, err := svc.files.Save(path.Join("staff", m.ID, path.Base(filename)), bytes.NewReader(data))
	if err != nil {
		return Member{}, errors.Wrap(err, "storing staff photo")
	}
	m.PhotoPath = stored
	m.UpdatedAt = time.Now().UTC()
	updated, err := svc.repo.UpdateMember(ctx, m, nil, nil)
	if err != nil {
		_ = svc.files.Remove(stored)
		return Member{}, err
	}
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteMembersByID(ctx, ids...)
	return err
}
