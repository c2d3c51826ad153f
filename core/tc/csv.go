package tc

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
)

// CSVColumns is the header contract for bulk imports; matching is
// case-insensitive and order-independent. The downloadable template
// served by the API must carry exactly these names.
var CSVColumns = []string{
	"tc_number",
	"student_name",
	"father_name",
	"admission_number",
	"class",
	"date_of_issue",
	"pdf_filename",
}

// ImportRow is one parsed CSV data row.
// Line is 1-based and excludes the header; blank lines are not counted.
type ImportRow struct {
	Line        int
	TcNumber    string
	StudentName string
	FatherName  string
	AdmissionNo string
	Class       string
	DateOfIssue time.Time
	PDFName     string
}

// RowError is a per-row parse failure. It never aborts the import;
// the reconciler records it as a skip reason and moves on.
type RowError struct {
	Line     int
	TcNumber string // set when the row's TC number was at least readable
	Reason   string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}

// rowReader lazily yields ImportRows from a CSV stream, in file order.
// A missing header column is fatal at construction; everything after
// that is reported per row.
type rowReader struct {
	r    *csv.Reader
	cols map[string]int
	line int
}

func newRowReader(r io.Reader) (*rowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV header")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[core.CleanString(strings.TrimPrefix(name, "\ufeff"), true /* lower */)] = i
	}
	for _, name := range CSVColumns {
		if _, ok := cols[name]; !ok {
			return nil, errors.Errorf("CSV header is missing column %q", name)
		}
	}
	return &rowReader{r: cr, cols: cols}, nil
}

func (rr *rowReader) field(record []string, col string) string {
	idx := rr.cols[col]
	if idx >= len(record) {
		return ""
	}
	return core.CleanString(record[idx])
}

// Next returns the next data row, io.EOF at the end of the stream,
// or a *RowError for a malformed row. Any other error means the stream
// itself failed and further calls will not recover.
func (rr *rowReader) Next() (ImportRow, error) {
	record, err := rr.r.Read()
	if err == io.EOF {
		return ImportRow{}, io.EOF
	}
	rr.line++
	if err != nil {
		// only parse errors are row-scoped; an I/O error from the
		// underlying stream repeats forever and must abort the call
		if _, ok := err.(*csv.ParseError); ok {
			return ImportRow{}, &RowError{Line: rr.line, Reason: "malformed CSV line"}
		}
		return ImportRow{}, errors.Wrap(err, "reading CSV")
	}

	row := ImportRow{
		Line:        rr.line,
		TcNumber:    rr.field(record, "tc_number"),
		StudentName: rr.field(record, "student_name"),
		FatherName:  rr.field(record, "father_name"),
		AdmissionNo: rr.field(record, "admission_number"),
		Class:       rr.field(record, "class"),
		PDFName:     rr.field(record, "pdf_filename"),
	}

	for _, col := range []struct{ name, val string }{
		{"tc_number", row.TcNumber},
		{"student_name", row.StudentName},
		{"father_name", row.FatherName},
		{"admission_number", row.AdmissionNo},
		{"class", row.Class},
		{"pdf_filename", row.PDFName},
	} {
		if col.val == "" {
			return ImportRow{}, &RowError{Line: rr.line, TcNumber: row.TcNumber, Reason: "missing " + col.name}
		}
	}

	rawDate := rr.field(record, "date_of_issue")
	if rawDate == "" {
		return ImportRow{}, &RowError{Line: rr.line, TcNumber: row.TcNumber, Reason: "missing date_of_issue"}
	}
	// time.Parse tolerates unpadded day/month; the contract is strict
	date, err := time.Parse(DateFormat, rawDate)
	if err != nil || date.Format(DateFormat) != rawDate {
		return ImportRow{}, &RowError{
			Line:     rr.line,
			TcNumber: row.TcNumber,
			Reason:   fmt.Sprintf("invalid date_of_issue %q, want YYYY-MM-DD", rawDate),
		}
	}
	row.DateOfIssue = date

	return row, nil
}
