package tc

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/storage/files"
)

const csvHeader = "tc_number,student_name,father_name,admission_number,class,date_of_issue,pdf_filename\n"

// fakeRepo is a minimal in-file Repository keyed by TC number.
type fakeRepo struct {
	records  map[string]Record
	failFor  map[string]bool // CreateRecord fails for these TC numbers
	onCreate func()          // called after every successful create
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]Record), failFor: make(map[string]bool)}
}

func (r *fakeRepo) CheckTcNumberUniqueness(ctx context.Context, tcNumber string, excluded ...Record) error {
	rec, ok := r.records[tcNumber]
	if !ok {
		return nil
	}
	for _, x := range excluded {
		if x.ID == rec.ID {
			return nil
		}
	}
	return ErrTcNumberExists
}

func (r *fakeRepo) CreateRecord(ctx context.Context, rec Record) (Record, error) {
	if r.failFor[rec.TcNumber] {
		return Record{}, fmt.Errorf("insert failed for %s", rec.TcNumber)
	}
	if _, ok := r.records[rec.TcNumber]; ok {
		return Record{}, ErrTcNumberExists
	}
	rec.ID = uuid.New().String()
	r.records[rec.TcNumber] = rec
	if r.onCreate != nil {
		r.onCreate()
	}
	return rec, nil
}

func (r *fakeRepo) GetRecord(ctx context.Context, id string) (Record, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (r *fakeRepo) GetRecordByNumber(ctx context.Context, tcNumber string) (Record, error) {
	rec, ok := r.records[tcNumber]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *fakeRepo) QueryRecords(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error) {
	recs := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (r *fakeRepo) UpdateRecord(ctx context.Context, rec Record, verified *bool) (Record, error) {
	for num, existing := range r.records {
		if existing.ID == rec.ID {
			if verified != nil {
				existing.Verified = *verified
			}
			r.records[num] = existing
			return existing, nil
		}
	}
	return Record{}, ErrNotFound
}

func (r *fakeRepo) DeleteRecordsByID(ctx context.Context, ids ...string) (int, error) {
	var n int
	for num, rec := range r.records {
		for _, id := range ids {
			if rec.ID == id {
				delete(r.records, num)
				n++
			}
		}
	}
	return n, nil
}

type captureMailService struct {
	messages []*core.EmailMessage
}

func (m *captureMailService) SendMessages(messages ...*core.EmailMessage) {
	m.messages = append(m.messages, messages...)
}

func testImportConfig() *core.Config {
	return &core.Config{
		AdminEmail: mail.Address{Address: "admin@school.test"},
		Import: core.ImportConfig{
			MaxCSVSize:       2 << 20,
			MaxArchiveSize:   100 << 20,
			MaxReportedSkips: 10,
		},
	}
}

func newImportService(repo *fakeRepo) (*Service, *files.Store, *captureMailService) {
	store := files.NewMemStore()
	mailSvc := new(captureMailService)
	return NewService(testImportConfig(), repo, store, mailSvc, nil), store, mailSvc
}

func importOpts(t *testing.T, csv string, entries map[string][]byte) ImportOptions {
	t.Helper()
	archive := buildZip(t, entries)
	return ImportOptions{
		CSV:         strings.NewReader(csv),
		CSVSize:     int64(len(csv)),
		Archive:     bytes.NewReader(archive),
		ArchiveSize: int64(len(archive)),
	}
}

func TestService_Import_commitsValidRows(t *testing.T) {
	repo := newFakeRepo()
	svc, store, _ := newImportService(repo)

	csv := csvHeader +
		"TC-001,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,tc001.pdf\n" +
		"TC-002,Neema Paul,Paul John,ADM-11,Form 2,2024-11-01,certs/tc002.pdf\n"
	opts := importOpts(t, csv, map[string][]byte{
		"tc001.pdf":       []byte("doc one"),
		"certs/tc002.pdf": []byte("doc two"),
	})

	outcome, err := svc.Import(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Processed)
	assert.Equal(t, 2, outcome.Committed)
	assert.Equal(t, 0, outcome.Skipped)
	assert.Empty(t, outcome.SkipReasons)

	rec, err := repo.GetRecordByNumber(context.Background(), "TC-001")
	require.NoError(t, err)
	assert.Equal(t, "Asha Juma", rec.StudentName)
	assert.Equal(t, "2025-03-15", rec.DateOfIssue.Format(DateFormat))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Verified)

	ok, err := store.Exists(rec.DocumentPath)
	require.NoError(t, err)
	assert.True(t, ok)

	rec2, err := repo.GetRecordByNumber(context.Background(), "TC-002")
	require.NoError(t, err)
	rc, err := store.Open(rec2.DocumentPath)
	require.NoError(t, err)
	defer rc.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, "doc two", buf.String())
}

func TestService_Import_skipsBadRowsAndKeepsGoing(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newImportService(repo)

	// seed an existing record so row 2 is a duplicate
	_, err := repo.CreateRecord(context.Background(), Record{TcNumber: "TC-OLD", StudentName: "First Import"})
	require.NoError(t, err)

	csv := csvHeader +
		"TC-100,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,tc100.pdf\n" +
		"TC-OLD,Other Name,Other Father,ADM-11,Form 2,2024-11-01,tcold.pdf\n" +
		"TC-101,Neema Paul,Paul John,ADM-12,Form 1,2025-01-20,absent.pdf\n"
	opts := importOpts(t, csv, map[string][]byte{
		"tc100.pdf": []byte("one"),
		"tcold.pdf": []byte("dup"),
	})

	outcome, err := svc.Import(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Processed)
	assert.Equal(t, 1, outcome.Committed)
	assert.Equal(t, 2, outcome.Skipped)
	require.Len(t, outcome.SkipReasons, 2)
	assert.Equal(t, SkipReason{Row: 2, TcNumber: "TC-OLD", Reason: "duplicate tc number"}, outcome.SkipReasons[0])
	assert.Equal(t, SkipReason{Row: 3, TcNumber: "TC-101", Reason: "document not found in archive"}, outcome.SkipReasons[1])

	// the duplicate never overwrites the earlier record
	rec, err := repo.GetRecordByNumber(context.Background(), "TC-OLD")
	require.NoError(t, err)
	assert.Equal(t, "First Import", rec.StudentName)

	// no record without its document
	_, err = repo.GetRecordByNumber(context.Background(), "TC-101")
	assert.Equal(t, ErrNotFound, err)
}

func TestService_Import_duplicateWithinBatch(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newImportService(repo)

	csv := csvHeader +
		"TC-200,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,a.pdf\n" +
		"TC-200,Neema Paul,Paul John,ADM-11,Form 2,2024-11-01,b.pdf\n"
	opts := importOpts(t, csv, map[string][]byte{
		"a.pdf": []byte("first"),
		"b.pdf": []byte("second"),
	})

	outcome, err := svc.Import(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Committed)
	require.Len(t, outcome.SkipReasons, 1)
	assert.Equal(t, SkipReason{Row: 2, TcNumber: "TC-200", Reason: "duplicate tc number"}, outcome.SkipReasons[0])

	rec, err := repo.GetRecordByNumber(context.Background(), "TC-200")
	require.NoError(t, err)
	assert.Equal(t, "Asha Juma", rec.StudentName)
}

func TestService_Import_rerunIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newImportService(repo)

	csv := csvHeader +
		"TC-300,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,a.pdf\n" +
		"TC-301,Neema Paul,Paul John,ADM-11,Form 2,2024-11-01,b.pdf\n"
	entries := map[string][]byte{"a.pdf": []byte("one"), "b.pdf": []byte("two")}

	outcome, err := svc.Import(context.Background(), importOpts(t, csv, entries))
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Committed)

	outcome, err = svc.Import(context.Background(), importOpts(t, csv, entries))
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Processed)
	assert.Equal(t, 0, outcome.Committed)
	assert.Equal(t, 2, outcome.Skipped)
	for _, r := range outcome.SkipReasons {
		assert.Equal(t, "duplicate tc number", r.Reason)
	}
	assert.Len(t, repo.records, 2)
}

func TestService_Import_ambiguousDocumentName(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newImportService(repo)

	csv := csvHeader + "TC-400,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,cert.pdf\n"
	opts := importOpts(t, csv, map[string][]byte{
		"2024/cert.pdf": []byte("old"),
		"2025/cert.pdf": []byte("new"),
	})

	outcome, err := svc.Import(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Committed)
	require.Len(t, outcome.SkipReasons, 1)
	assert.Equal(t, "ambiguous document name in archive", outcome.SkipReasons[0].Reason)
	assert.Empty(t, repo.records)
}

func TestService_Import_missingHeaderColumnIsFatal(t *testing.T) {
	repo := newFakeRepo()
	svc, _, mailSvc := newImportService(repo)

	csv := "tc_number,student_name\nTC-1,Asha\n"
	opts := importOpts(t, csv, map[string][]byte{"a.pdf": []byte("x")})

	outcome, err := svc.Import(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
	assert.Equal(t, 0, outcome.Processed)
	assert.Empty(t, repo.records)
	assert.Empty(t, mailSvc.messages)
}

func TestService_Import_corruptArchiveIsFatal(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newImportService(repo)

	csv := csvHeader + "TC-1,Asha Juma,Juma Bakari,ADM-1,Form 1,2025-01-01,a.pdf\n"
	junk := []byte("not a zip")
	opts := ImportOptions{
		CSV:         strings.NewReader(csv),
		CSVSize:     int64(len(csv)),
		Archive:     bytes.NewReader(junk),
		ArchiveSize: int64(len(junk)),
	}

	outcome, err := svc.Import(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, 0, outcome.Processed)
	assert.Empty(t, repo.records)
}

func TestService_Import_oversizedInputsAreFatal(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newImportService(repo)

	csv := csvHeader + "TC-1,Asha Juma,Juma Bakari,ADM-1,Form 1,2025-01-01,a.pdf\n"
	archive := buildZip(t, map[string][]byte{"a.pdf": []byte("x")})

	opts := ImportOptions{
		CSV:         strings.NewReader(csv),
		CSVSize:     (2 << 20) + 1,
		Archive:     bytes.NewReader(archive),
		ArchiveSize: int64(len(archive)),
	}
	_, err := svc.Import(context.Background(), opts)
	assert.Equal(t, ErrCSVTooLarge, err)

	opts = ImportOptions{
		CSV:         strings.NewReader(csv),
		CSVSize:     int64(len(csv)),
		Archive:     bytes.NewReader(archive),
		ArchiveSize: (100 << 20) + 1,
	}
	_, err = svc.Import(context.Background(), opts)
	assert.Equal(t, ErrArchiveTooLarge, err)
	assert.Empty(t, repo.records)
}

func TestService_Import_cancellationKeepsCommittedRows(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newImportService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	repo.onCreate = cancel // cancel once the first row has landed

	csv := csvHeader +
		"TC-500,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,a.pdf\n" +
		"TC-501,Neema Paul,Paul John,ADM-11,Form 2,2024-11-01,b.pdf\n"
	opts := importOpts(t, csv, map[string][]byte{
		"a.pdf": []byte("one"),
		"b.pdf": []byte("two"),
	})

	outcome, err := svc.Import(ctx, opts)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, outcome.Committed)

	_, err = repo.GetRecordByNumber(context.Background(), "TC-500")
	assert.NoError(t, err)
	_, err = repo.GetRecordByNumber(context.Background(), "TC-501")
	assert.Equal(t, ErrNotFound, err)
}

func TestService_Import_abortsWhenStreamFails(t *testing.T) {
	repo := newFakeRepo()
	svc, _, mailSvc := newImportService(repo)

	csv := csvHeader + "TC-450,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,a.pdf\n"
	archive := buildZip(t, map[string][]byte{"a.pdf": []byte("doc")})
	opts := ImportOptions{
		CSV:         &brokenReader{data: []byte(csv), err: fmt.Errorf("read: temp file gone")},
		CSVSize:     int64(len(csv)),
		Archive:     bytes.NewReader(archive),
		ArchiveSize: int64(len(archive)),
	}

	outcome, err := svc.Import(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading CSV row")

	// the failure is fatal, not an ever-growing skip list
	assert.Equal(t, 1, outcome.Processed)
	assert.Equal(t, 1, outcome.Committed)
	assert.Empty(t, outcome.SkipReasons)

	// rows committed before the failure stay committed
	_, err = repo.GetRecordByNumber(context.Background(), "TC-450")
	assert.NoError(t, err)

	// no completion report goes out for an aborted call
	assert.Empty(t, mailSvc.messages)
}

func TestService_Import_removesDocumentWhenInsertFails(t *testing.T) {
	repo := newFakeRepo()
	repo.failFor["TC-600"] = true
	svc, store, _ := newImportService(repo)

	csv := csvHeader + "TC-600,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,a.pdf\n"
	opts := importOpts(t, csv, map[string][]byte{"a.pdf": []byte("doc")})

	outcome, err := svc.Import(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Committed)
	require.Len(t, outcome.SkipReasons, 1)
	assert.Equal(t, "could not save record", outcome.SkipReasons[0].Reason)

	ok, err := store.Exists(documentPath("TC-600", "a.pdf"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_Import_emailsAdminReport(t *testing.T) {
	repo := newFakeRepo()
	svc, _, mailSvc := newImportService(repo)

	var sb strings.Builder
	sb.WriteString(csvHeader)
	sb.WriteString("TC-700,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,a.pdf\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "TC-MISSING-%02d,Neema Paul,Paul John,ADM-11,Form 2,2024-11-01,absent-%02d.pdf\n", i, i)
	}
	opts := importOpts(t, sb.String(), map[string][]byte{"a.pdf": []byte("doc")})

	outcome, err := svc.Import(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 12, outcome.Skipped)

	require.Len(t, mailSvc.messages, 1)
	msg := mailSvc.messages[0]
	assert.Equal(t, []mail.Address{{Address: "admin@school.test"}}, msg.To)
	assert.Equal(t, "TC bulk import report", msg.Subject)
	assert.Contains(t, msg.BodyStr, "13 rows processed: 1 committed, 12 skipped")
	assert.Contains(t, msg.BodyStr, "row 2 (TC-MISSING-00): document not found in archive")
	assert.Contains(t, msg.BodyStr, "+2 more")
	assert.NotContains(t, msg.BodyStr, "TC-MISSING-11")
}

func TestImportOutcome_CappedReasons(t *testing.T) {
	var o ImportOutcome
	for i := 1; i <= 12; i++ {
		o.skip(i, fmt.Sprintf("TC-%d", i), "duplicate tc number")
	}

	reasons, more := o.CappedReasons(10)
	assert.Len(t, reasons, 10)
	assert.Equal(t, 2, more)
	assert.Equal(t, 1, reasons[0].Row)

	reasons, more = o.CappedReasons(0)
	assert.Len(t, reasons, 12)
	assert.Equal(t, 0, more)

	reasons, more = o.CappedReasons(20)
	assert.Len(t, reasons, 12)
	assert.Equal(t, 0, more)
}

func TestImportOutcome_Summary(t *testing.T) {
	o := ImportOutcome{Processed: 3, Committed: 1, Skipped: 2}
	assert.Equal(t, "3 rows processed: 1 committed, 2 skipped", o.Summary())
}
