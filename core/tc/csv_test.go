package tc

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenReader serves its data then fails every read with err.
type brokenReader struct {
	data []byte
	err  error
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func readAllRows(t *testing.T, csv string) ([]ImportRow, []*RowError) {
	t.Helper()
	rr, err := newRowReader(strings.NewReader(csv))
	require.NoError(t, err)

	var rows []ImportRow
	var rowErrs []*RowError
	for {
		row, err := rr.Next()
		if err == io.EOF {
			return rows, rowErrs
		}
		if err != nil {
			rowErr, ok := err.(*RowError)
			require.True(t, ok, "Next() returned a non-RowError: %v", err)
			rowErrs = append(rowErrs, rowErr)
			continue
		}
		rows = append(rows, row)
	}
}

func Test_rowReader_parsesValidRows(t *testing.T) {
	csv := "tc_number,student_name,father_name,admission_number,class,date_of_issue,pdf_filename\n" +
		"TC-001,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,tc001.pdf\n" +
		"TC-002,Neema Paul,Paul John,ADM-11,Form 2,2024-11-01,certs/tc002.pdf\n"

	rows, rowErrs := readAllRows(t, csv)
	require.Empty(t, rowErrs)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, "TC-001", rows[0].TcNumber)
	assert.Equal(t, "Asha Juma", rows[0].StudentName)
	assert.Equal(t, "Juma Bakari", rows[0].FatherName)
	assert.Equal(t, "ADM-10", rows[0].AdmissionNo)
	assert.Equal(t, "Form 4", rows[0].Class)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), rows[0].DateOfIssue)
	assert.Equal(t, "tc001.pdf", rows[0].PDFName)

	assert.Equal(t, 2, rows[1].Line)
	assert.Equal(t, "certs/tc002.pdf", rows[1].PDFName)
}

func Test_rowReader_headerMatching(t *testing.T) {
	// case-insensitive, order-independent, BOM tolerated
	csv := "\ufeffClass,PDF_Filename,TC_NUMBER,Student_Name,father_name,Admission_Number,Date_Of_Issue\n" +
		"Form 1,a.pdf,TC-9,Sara Ali,Ali Omari,ADM-9,2023-01-31\n"

	rows, rowErrs := readAllRows(t, csv)
	require.Empty(t, rowErrs)
	require.Len(t, rows, 1)
	assert.Equal(t, "TC-9", rows[0].TcNumber)
	assert.Equal(t, "a.pdf", rows[0].PDFName)
	assert.Equal(t, "Form 1", rows[0].Class)
}

func Test_rowReader_missingHeaderColumnIsFatal(t *testing.T) {
	csv := "tc_number,student_name,father_name,admission_number,class,date_of_issue\n" +
		"TC-001,A,B,ADM-1,Form 1,2025-01-01\n"

	_, err := newRowReader(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf_filename")
}

func Test_rowReader_emptyInputIsFatal(t *testing.T) {
	_, err := newRowReader(strings.NewReader(""))
	require.Error(t, err)
}

func Test_rowReader_blankLinesNotCounted(t *testing.T) {
	csv := "tc_number,student_name,father_name,admission_number,class,date_of_issue,pdf_filename\n" +
		"\n" +
		"TC-001,A,B,ADM-1,Form 1,2025-01-01,a.pdf\n" +
		"\n" +
		"TC-002,C,D,ADM-2,Form 2,2025-01-02,b.pdf\n"

	rows, rowErrs := readAllRows(t, csv)
	require.Empty(t, rowErrs)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, 2, rows[1].Line)
}

func Test_rowReader_rowErrors(t *testing.T) {
	header := "tc_number,student_name,father_name,admission_number,class,date_of_issue,pdf_filename\n"

	tests := []struct {
		name       string
		row        string
		wantReason string
		wantNumber string
	}{
		{"missing tc_number", ",A,B,ADM-1,Form 1,2025-01-01,a.pdf", "missing tc_number", ""},
		{"missing student_name", "TC-01,,B,ADM-1,Form 1,2025-01-01,a.pdf", "missing student_name", "TC-01"},
		{"missing pdf_filename", "TC-01,A,B,ADM-1,Form 1,2025-01-01,", "missing pdf_filename", "TC-01"},
		{"missing date", "TC-01,A,B,ADM-1,Form 1,,a.pdf", "missing date_of_issue", "TC-01"},
		{"wrong date order", "TC-01,A,B,ADM-1,Form 1,15-03-2025,a.pdf", `invalid date_of_issue "15-03-2025", want YYYY-MM-DD`, "TC-01"},
		{"unpadded date", "TC-01,A,B,ADM-1,Form 1,2025-3-5,a.pdf", `invalid date_of_issue "2025-3-5", want YYYY-MM-DD`, "TC-01"},
		{"short row", "TC-01,A", "missing father_name", "TC-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, rowErrs := readAllRows(t, header+tt.row+"\n")
			assert.Empty(t, rows)
			require.Len(t, rowErrs, 1)
			assert.Equal(t, 1, rowErrs[0].Line)
			assert.Equal(t, tt.wantReason, rowErrs[0].Reason)
			assert.Equal(t, tt.wantNumber, rowErrs[0].TcNumber)
		})
	}
}

func Test_rowReader_streamFailureIsNotARowError(t *testing.T) {
	csv := "tc_number,student_name,father_name,admission_number,class,date_of_issue,pdf_filename\n" +
		"TC-001,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,a.pdf\n"
	streamErr := errors.New("read: connection reset")
	rr, err := newRowReader(&brokenReader{data: []byte(csv), err: streamErr})
	require.NoError(t, err)

	row, err := rr.Next()
	require.NoError(t, err)
	assert.Equal(t, "TC-001", row.TcNumber)

	// the stream error must surface as-is, never as a skippable RowError
	for i := 0; i < 3; i++ {
		_, err = rr.Next()
		require.Error(t, err)
		assert.NotEqual(t, io.EOF, err)
		var rowErr *RowError
		assert.False(t, errors.As(err, &rowErr), "Next() returned a RowError for a stream failure")
		assert.Contains(t, err.Error(), "connection reset")
	}
}

func Test_rowReader_errorRowDoesNotStopIteration(t *testing.T) {
	csv := "tc_number,student_name,father_name,admission_number,class,date_of_issue,pdf_filename\n" +
		"TC-001,A,B,ADM-1,Form 1,bad-date,a.pdf\n" +
		"TC-002,C,D,ADM-2,Form 2,2025-01-02,b.pdf\n"

	rows, rowErrs := readAllRows(t, csv)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 1, rowErrs[0].Line)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "TC-002", rows[0].TcNumber)
}
