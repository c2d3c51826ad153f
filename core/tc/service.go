package tc

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
)

type (
	Repository interface {
		CheckTcNumberUniqueness(ctx context.Context, tcNumber string, excluded ...Record) error
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		GetRecord(ctx context.Context, id string) (Record, error)
		GetRecordByNumber(ctx context.Context, tcNumber string) (Record, error)
		// QueryRecords applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// Record.TcNumber, Record.StudentName or Record.AdmissionNo.
		QueryRecords(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error)
		UpdateRecord(ctx context.Context, rec Record, verified *bool) (Record, error)
		DeleteRecordsByID(ctx context.Context, ids ...string) (int, error)
	}

	ServiceInterface interface {
		CheckUniqueness(tcNumber string, excluded ...Record) error
		Create(ctx context.Context, nr NewRecord) (Record, error)
		GetByID(ctx context.Context, id string) (Record, error)
		GetByNumber(ctx context.Context, tcNumber string) (Record, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error)
		Update(ctx context.Context, orig Record, ur UpdateRecord) (Record, error)
		SetVerified(ctx context.Context, id string, verified bool) (Record, error)
		AttachDocument(ctx context.Context, rec Record, filename string, data []byte) (Record, error)
		Delete(ctx context.Context, ids ...string) error
		Import(ctx context.Context, opts ImportOptions) (ImportOutcome, error)
	}

	Service struct {
		conf    *core.Config
		repo    Repository
		files   core.FileStore
		mailSvc core.EmailService
		logger  core.Logger

		importMu sync.Mutex // one import at a time
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(conf *core.Config, repo Repository, files core.FileStore, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		conf:    conf,
		repo:    repo,
		files:   files,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *Service) CheckUniqueness(tcNumber string, excluded ...Record) error {
	if err := svc.repo.CheckTcNumberUniqueness(context.Background(), tcNumber, excluded...); err != nil {
		if errors.Cause(err) == ErrTcNumberExists {
			return core.NewValidationError(err, core.FieldError{Field: "tc_number", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nr NewRecord) (Record, error) {
	now := time.Now().UTC()
	rec := Record{
		TcNumber:     nr.TcNumber,
		StudentName:  nr.StudentName,
		FatherName:   nr.FatherName,
		AdmissionNo:  nr.AdmissionNo,
		Class:        nr.Class,
		DateOfIssue:  nr.DateOfIssue,
		DocumentPath: nr.DocumentPath,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateRecord(ctx, rec)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecord(ctx, id)
}

func (svc *Service) GetByNumber(ctx context.Context, tcNumber string) (Record, error) {
	return svc.repo.GetRecordByNumber(ctx, core.CleanString(tcNumber))
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, orig Record, ur UpdateRecord) (Record, error) {
	rec := Record{
		ID:          orig.ID,
		TcNumber:    ur.TcNumber,
		StudentName: ur.StudentName,
		FatherName:  ur.FatherName,
		AdmissionNo: ur.AdmissionNo,
		Class:       ur.Class,
		UpdatedAt:   time.Now().UTC(),
	}
	if ur.DateOfIssue != nil {
		rec.DateOfIssue = *ur.DateOfIssue
	}
	return svc.repo.UpdateRecord(ctx, rec, nil)
}

func (svc *Service) SetVerified(ctx context.Context, id string, verified bool) (Record, error) {
	rec := Record{ID: id, UpdatedAt: time.Now().UTC()}
	return svc.repo.UpdateRecord(ctx, rec, &verified)
}

// AttachDocument stores the certificate document and points the record at it.
func (svc *Service) AttachDocument(ctx context.Context, rec Record, filename string, data []byte) (Record, error) {
	stored, err := svc.files.Save(documentPath(rec.TcNumber, filename), bytesReader(data))
	if err != nil {
		return Record{}, errors.Wrap(err, "storing certificate document")
	}
	rec.DocumentPath = stored
	rec.UpdatedAt = time.Now().UTC()
	updated, err := svc.repo.UpdateRecord(ctx, rec, nil)
	if err != nil {
		_ = svc.files.Remove(stored)
		return Record{}, err
	}
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteRecordsByID(ctx, ids...)
	return err
}
