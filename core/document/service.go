package document

import (
	"bytes"
	"context"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
)

type (
	Repository interface {
		CreateDocument(ctx context.Context, d Document) (Document, error)
		GetDocument(ctx context.Context, id string) (Document, error)
		// QueryDocuments applies AND operation on available QueryFilter fields.
		QueryDocuments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Document, error)
		UpdateDocument(ctx context.Context, d Document, published *bool) (Document, error)
		IncrementDownloadCount(ctx context.Context, id string) error
		DeleteDocumentsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo  Repository
		files core.FileStore
	}
)

func NewService(repo Repository, files core.FileStore) *Service {
	return &Service{repo: repo, files: files}
}

// Create stores the uploaded file and the document row as a pair: if the
// insert fails the stored file is removed again.
func (svc *Service) Create(ctx context.Context, nd NewDocument, filename string, data []byte) (Document, error) {
	stored, err := svc.files.Save(path.Join("documents", uuid.New().String(), path.Base(filename)), bytes.NewReader(data))
	if err != nil {
		return Document{}, errors.Wrap(err, "storing document file")
	}

	now := time.Now().UTC()
	d := Document{
		Title:     nd.Title,
		Category:  nd.Category,
		FilePath:  stored,
		FileSize:  int64(len(data)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := svc.repo.CreateDocument(ctx, d)
	if err != nil {
		_ = svc.files.Remove(stored)
		return Document{}, err
	}
	return created, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Document, error) {
	return svc.repo.GetDocument(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Document, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	return svc.repo.QueryDocuments(ctx, filter, ordering)
}

// QueryPublished returns the documents downloadable from the public site.
func (svc *Service) QueryPublished(ctx context.Context, filter *QueryFilter) ([]Document, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	published := true
	filter.Published = &published
	return svc.Query(ctx, filter, nil)
}

// OpenForDownload opens the stored file and counts the download.
func (svc *Service) OpenForDownload(ctx context.Context, id string) (Document, io.ReadCloser, error) {
	d, err := svc.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := svc.files.Open(d.FilePath)
	if err != nil {
		return Document{}, nil, errors.Wrap(err, "opening document file")
	}
	if err := svc.repo.IncrementDownloadCount(ctx, d.ID); err != nil {
		_ = rc.Close()
		return Document{}, nil, errors.Wrap(err, "counting download")
	}
	d.DownloadCount++
	return d, rc, nil
}

func (svc *Service) Update(ctx context.Context, orig Document, ud UpdateDocument) (Document, error) {
	d := Document{
		ID:        orig.ID,
		Title:     ud.Title,
		Category:  ud.Category,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateDocument(ctx, d, nil)
}

func (svc *Service) SetPublished(ctx context.Context, id string, published bool) (Document, error) {
	d := Document{ID: id, UpdatedAt: time.Now().UTC()}
	return svc.repo.UpdateDocument(ctx, d, &published)
}

// Delete removes the rows and their stored files.
func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if d, err := svc.repo.GetDocument(ctx, id); err == nil {
			_ = svc.files.Remove(d.FilePath)
		}
	}
	_, err := svc.repo.DeleteDocumentsByID(ctx, ids...)
	return err
}
