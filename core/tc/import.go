package tc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
)

// import skip reasons
const (
	reasonDuplicate = "duplicate tc number"
	reasonNoDoc     = "document not found in archive"
	reasonAmbiguous = "ambiguous document name in archive"
)

var (
	ErrCSVTooLarge     = errors.New("CSV file exceeds the configured size limit")
	ErrArchiveTooLarge = errors.New("archive file exceeds the configured size limit")
)

type (
	// ImportOptions carries the two input streams of one bulk import call.
	// CSVSize and ArchiveSize are the byte sizes as received by the caller.
	ImportOptions struct {
		CSV         io.Reader
		CSVSize     int64
		Archive     io.ReaderAt
		ArchiveSize int64
	}

	// SkipReason names the row that was not committed and why.
	SkipReason struct {
		Row      int    `json:"row"`
		TcNumber string `json:"tc_number,omitempty"`
		Reason   string `json:"reason"`
	}

	// ImportOutcome summarizes one completed bulk import call.
	ImportOutcome struct {
		Processed   int          `json:"processed"`
		Committed   int          `json:"committed"`
		Skipped     int          `json:"skipped"`
		SkipReasons []SkipReason `json:"skip_reasons"`
	}
)

func (o *ImportOutcome) skip(row int, tcNumber, reason string) {
	o.Skipped++
	o.SkipReasons = append(o.SkipReasons, SkipReason{Row: row, TcNumber: tcNumber, Reason: reason})
}

// CappedReasons returns at most max skip reasons plus the count left out,
// so large failed batches stay readable.
func (o ImportOutcome) CappedReasons(max int) ([]SkipReason, int) {
	if max <= 0 || len(o.SkipReasons) <= max {
		return o.SkipReasons, 0
	}
	return o.SkipReasons[:max], len(o.SkipReasons) - max
}

func (o ImportOutcome) Summary() string {
	return fmt.Sprintf("%d rows processed: %d committed, %d skipped", o.Processed, o.Committed, o.Skipped)
}

// Import runs the bulk CSV+ZIP import: each CSV row is validated, checked
// against existing records, joined to its certificate document in the archive
// and committed, or else skipped with a recorded reason. Rows are processed
// strictly in file order and each commit lands before the next row's
// duplicate check runs, so a file repeating a TC number commits it once.
//
// Fatal conditions (unreadable CSV/header, corrupt archive, oversized input)
// abort before any row is processed and are returned as a plain error; a
// stream that fails mid-file aborts the same way when the failure is hit.
// Cancellation is honored between rows; rows already committed stay committed.
func (svc *Service) Import(ctx context.Context, opts ImportOptions) (ImportOutcome, error) {
	svc.importMu.Lock()
	defer svc.importMu.Unlock()

	var outcome ImportOutcome

	if opts.CSVSize > svc.conf.Import.MaxCSVSize {
		return outcome, ErrCSVTooLarge
	}
	if opts.ArchiveSize > svc.conf.Import.MaxArchiveSize {
		return outcome, ErrArchiveTooLarge
	}

	rows, err := newRowReader(opts.CSV)
	if err != nil {
		return outcome, err
	}
	docs, err := newArchiveResolver(opts.Archive, opts.ArchiveSize)
	if err != nil {
		return outcome, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErr, ok := err.(*RowError)
			if !ok {
				// the stream itself failed mid-file; fatal, like an
				// unreadable header. Committed rows stay committed.
				return outcome, errors.Wrap(err, "reading CSV row")
			}
			outcome.Processed++
			outcome.skip(rowErr.Line, rowErr.TcNumber, rowErr.Reason)
			continue
		}
		outcome.Processed++

		if reason := validateRow(row); reason != "" {
			outcome.skip(row.Line, row.TcNumber, reason)
			continue
		}

		// earliest record wins; later imports of the same number are
		// rejected, never merged or overwritten
		if _, err := svc.repo.GetRecordByNumber(ctx, row.TcNumber); err == nil {
			outcome.skip(row.Line, row.TcNumber, reasonDuplicate)
			continue
		} else if errors.Cause(err) != ErrNotFound {
			return outcome, errors.Wrap(err, "checking for duplicate record")
		}

		data, err := docs.lookup(row.PDFName)
		if err != nil {
			switch errors.Cause(err) {
			case errDocumentNotFound:
				outcome.skip(row.Line, row.TcNumber, reasonNoDoc)
			case errAmbiguousDocument:
				outcome.skip(row.Line, row.TcNumber, reasonAmbiguous)
			default:
				outcome.skip(row.Line, row.TcNumber, "unreadable archive entry")
			}
			continue
		}

		if err := svc.commitRow(ctx, row, data); err != nil {
			svc.logError(fmt.Sprintf("import: committing row %d", row.Line), err)
			outcome.skip(row.Line, row.TcNumber, "could not save record")
			continue
		}
		outcome.Committed++
	}

	svc.notifyImportDone(outcome)
	return outcome, nil
}

// commitRow persists the document and the record as a pair: if the record
// insert fails the stored document is removed again.
func (svc *Service) commitRow(ctx context.Context, row ImportRow, doc []byte) error {
	stored, err := svc.files.Save(documentPath(row.TcNumber, row.PDFName), bytesReader(doc))
	if err != nil {
		return errors.Wrap(err, "storing certificate document")
	}

	nr := NewRecord{
		TcNumber:     row.TcNumber,
		StudentName:  row.StudentName,
		FatherName:   row.FatherName,
		AdmissionNo:  row.AdmissionNo,
		Class:        row.Class,
		DateOfIssue:  row.DateOfIssue,
		DocumentPath: stored,
	}
	if _, err := svc.Create(ctx, nr); err != nil {
		_ = svc.files.Remove(stored)
		return errors.Wrap(err, "inserting record")
	}
	return nil
}

func validateRow(row ImportRow) string {
	for _, col := range []struct{ name, val string }{
		{"tc_number", row.TcNumber},
		{"student_name", row.StudentName},
		{"father_name", row.FatherName},
		{"admission_number", row.AdmissionNo},
		{"class", row.Class},
		{"pdf_filename", row.PDFName},
	} {
		if core.CleanString(col.val) == "" {
			return "missing " + col.name
		}
	}
	if row.DateOfIssue.IsZero() {
		return "missing date_of_issue"
	}
	return ""
}

func (svc *Service) notifyImportDone(outcome ImportOutcome) {
	if svc.mailSvc == nil {
		return
	}
	body := new(strings.Builder)
	fmt.Fprintf(body, "TC bulk import finished.\n\n%s\n", outcome.Summary())
	if reasons, more := outcome.CappedReasons(svc.conf.Import.MaxReportedSkips); len(reasons) > 0 {
		fmt.Fprint(body, "\nSkipped rows:\n")
		for _, r := range reasons {
			if r.TcNumber != "" {
				fmt.Fprintf(body, "  row %d (%s): %s\n", r.Row, r.TcNumber, r.Reason)
			} else {
				fmt.Fprintf(body, "  row %d: %s\n", r.Row, r.Reason)
			}
		}
		if more > 0 {
			fmt.Fprintf(body, "  +%d more\n", more)
		}
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{svc.conf.AdminEmail},
		Subject: "TC bulk import report",
		BodyStr: body.String(),
	})
}

func (svc *Service) logError(msg string, err error) {
	if svc.logger != nil {
		svc.logger.Error(msg, err)
	}
}

// documentPath namespaces a stored certificate by its TC number so imports
// cannot collide: tc/TC-123/cert.pdf. Slashes in the number are flattened.
func documentPath(tcNumber, filename string) string {
	safe := strings.ReplaceAll(tcNumber, "/", "-")
	return path.Join("tc", safe, path.Base(strings.ReplaceAll(filename, "\\", "/")))
}

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
