package album

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
		CreateAlbum(ctx context.Context, a Album) (Album, error)
		GetAlbum(ctx context.Context, id string) (Album, error) // photos included
		// QueryAlbums applies AND operation on available QueryFilter fields; photos are not loaded.
		QueryAlbums(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Album, error)
		UpdateAlbum(ctx context.Context, a Album) (Album, error)
		DeleteAlbumsByID(ctx context.Context, ids ...string) (int, error)

		AddPhoto(ctx context.Context, p Photo) (Photo, error)
		DeletePhoto(ctx context.Context, albumID, photoID string) (Photo, error)
	}

	Service struct {
		repo  Repository
		files core.FileStore
	}
)

func NewService(repo Repository, files core.FileStore) *Service {
	return &Service{repo: repo, files: files}
}

func (svc *Service) Create(ctx context.Context, na NewAlbum) (Album, error) {
	now := time.Now().UTC()
	a := Album{
		Title:       na.Title,
		Description: na.Description,
		EventDate:   na.EventDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAlbum(ctx, a)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Album, error) {
	return svc.repo.GetAlbum(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Album, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "event_date", Ascending: false}}
	}
	return svc.repo.QueryAlbums(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, orig Album, ua UpdateAlbum) (Album, error) {
	a := Album{
		ID:          orig.ID,
		Title:       ua.Title,
		Description: ua.Description,
		EventDate:   orig.EventDate,
		UpdatedAt:   time.Now().UTC(),
	}
	if ua.EventDate != nil {
		a.EventDate = ua.EventDate.UTC()
	}
	return svc.repo.UpdateAlbum(ctx, a)
}

// AddPhoto stores the image and appends it to the album. The first photo
// added becomes the album cover unless one was set already.
func (svc *Service) AddPhoto(ctx context.Context, a Album, filename, caption string, position int, data []byte) (Photo, error) {
	stored, err := svc.files.Save(path.Join("albums", a.ID, path.Base(filename)), bytes.NewReader(data))
	if err != nil {
		return Photo{}, errors.Wrap(err, "storing album photo")
	}
	photo, err := svc.repo.AddPhoto(ctx, Photo{
		AlbumID:  a.ID,
		Path:     stored,
		Caption:  core.CleanString(caption),
		Position: position,
	})
	if err != nil {
		_ = svc.files.Remove(stored)
		return Photo{}, err
	}

	if a.CoverPath == "" {
		a.CoverPath = stored
		a.UpdatedAt = time.Now().UTC()
		if _, err := svc.repo.UpdateAlbum(ctx, a); err != nil {
			return photo, errors.Wrap(err, "setting album cover")
		}
	}
	return photo, nil
}

func (svc *Service) RemovePhoto(ctx context.Context, albumID, photoID string) error {
	photo, err := svc.repo.DeletePhoto(ctx, albumID, photoID)
	if err != nil {
		return err
	}
	_ = svc.files.Remove(photo.Path)
	return nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteAlbumsByID(ctx, ids...)
	return err
}
