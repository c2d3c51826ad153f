package tests

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mwalimu/shule/core/tc"
	"github.com/mwalimu/shule/tests"
)

const importCSVHeader = "tc_number,student_name,father_name,admission_number,class,date_of_issue,pdf_filename"

func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildZip(): %v", err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("buildZip(): %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildZip(): %v", err)
	}
	return buf.Bytes()
}

func Test_tcApi_verify(t *testing.T) {
	setup(t)

	issued := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	rec := testutil.CreateTcRecord(t, tcRepo, "TC-2025-001", "Asha Juma", "Juma Bakari", "ADM-10", "Form 4", issued, true)

	tests := []httpTest{
		{
			name: "tc_number is required", path: "/v1/tc/verify", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"tc_number": "this field is required"}),
		},
		{
			name: "unknown number", path: "/v1/tc/verify?tc_number=TC-404", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
		{
			name: "found", path: "/v1/tc/verify?tc_number=TC-2025-001",
			wantData: marchallObj(t, rec),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_tcApi_create(t *testing.T) {
	setup(t)

	issued := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	testutil.CreateTcRecord(t, tcRepo, "TC-2025-001", "Asha Juma", "Juma Bakari", "ADM-10", "Form 4", issued, false)

	t.Run("valid record", func(t *testing.T) {
		body := marchallObj(t, tc.NewRecord{
			TcNumber:    "TC-2025-002",
			StudentName: "Neema Paul",
			FatherName:  "Paul John",
			AdmissionNo: "ADM-11",
			Class:       "Form 2",
			DateOfIssue: issued,
		})
		req, rec := newRequest(http.MethodPost, "/v1/admin/tc", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var created tc.Record
		decodeObj(t, rec.Body.Bytes(), &created)
		if created.ID == "" {
			t.Error("created record has no ID")
		}
		if created.TcNumber != "TC-2025-002" || created.StudentName != "Neema Paul" {
			t.Errorf("unexpected record: %+v", created)
		}
		if created.Verified {
			t.Error("new records must not be verified")
		}
	})

	tests := []httpTest{
		{
			name: "duplicate number is rejected", wantCode: http.StatusBadRequest,
			body: marchallObj(t, tc.NewRecord{
				TcNumber: "TC-2025-001", StudentName: "X", FatherName: "Y",
				AdmissionNo: "ADM-99", Class: "Form 1", DateOfIssue: issued,
			}),
			wantData: marchallObj(t, map[string]string{"tc_number": "a record with this TC number already exists"}),
		},
		{
			name: "bad number format", wantCode: http.StatusBadRequest,
			body: marchallObj(t, tc.NewRecord{
				TcNumber: "tc_bad!", StudentName: "X", FatherName: "Y",
				AdmissionNo: "ADM-99", Class: "Form 1", DateOfIssue: issued,
			}),
			wantData: marchallObj(t, map[string]string{"tc_number": "only uppercase letters, digits, dashes and slashes are allowed"}),
		},
		{
			name: "all fields required", body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"tc_number":        "this field is required",
				"student_name":     "this field is required",
				"father_name":      "this field is required",
				"admission_number": "this field is required",
				"class":            "this field is required",
				"date_of_issue":    "this field is required",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/admin/tc", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_tcApi_query(t *testing.T) {
	setup(t)

	issued := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	r1 := testutil.CreateTcRecord(t, tcRepo, "TC-2025-001", "Asha Juma", "Juma Bakari", "ADM-10", "Form 4", issued, true)
	r2 := testutil.CreateTcRecord(t, tcRepo, "TC-2025-002", "Neema Paul", "Paul John", "ADM-11", "Form 2", issued.AddDate(0, -6, 0), false)
	r3 := testutil.CreateTcRecord(t, tcRepo, "TC-2024-001", "Baraka Omari", "Omari Saidi", "ADM-12", "Form 4", issued.AddDate(-1, 0, 0), true)

	path := func(params url.Values) string { return "/v1/admin/tc?" + params.Encode() }
	empty := marchallList(t)

	tests := []httpTest{
		{name: "all records", path: "/v1/admin/tc", wantData: marchallList(t, r1, r2, r3)},
		{name: "search by student name", path: path(url.Values{"search": {"asha"}}), wantData: marchallList(t, r1)},
		{name: "search by number", path: path(url.Values{"search": {"TC-2025"}}), wantData: marchallList(t, r1, r2)},
		{name: "search (unknown)", path: path(url.Values{"search": {"nope"}}), wantData: empty},
		{name: "class filter", path: path(url.Values{"class": {"Form 4"}}), wantData: marchallList(t, r1, r3)},
		{name: "verified=true", path: path(url.Values{"verified": {"true"}}), wantData: marchallList(t, r1, r3)},
		{name: "verified=false", path: path(url.Values{"verified": {"false"}}), wantData: marchallList(t, r2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_tcApi_crud(t *testing.T) {
	setup(t)

	issued := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	rec1 := testutil.CreateTcRecord(t, tcRepo, "TC-2025-001", "Asha Juma", "Juma Bakari", "ADM-10", "Form 4", issued, false)
	rec2 := testutil.CreateTcRecord(t, tcRepo, "TC-2025-002", "Neema Paul", "Paul John", "ADM-11", "Form 2", issued, false)
	rec3 := testutil.CreateTcRecord(t, tcRepo, "TC-2025-003", "Baraka Omari", "Omari Saidi", "ADM-12", "Form 1", issued, false)

	t.Run("retrieve", func(t *testing.T) {
		tt := httpTest{path: "/v1/admin/tc/" + rec1.ID, wantData: marchallObj(t, rec1)}
		req, rec := newRequest(http.MethodGet, tt.path)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("retrieve unknown ID", func(t *testing.T) {
		tt := httpTest{path: "/v1/admin/tc/nope", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}
		req, rec := newRequest(http.MethodGet, tt.path)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update", func(t *testing.T) {
		body := marchallObj(t, tc.UpdateRecord{StudentName: "Asha J. Mwinyi"})
		req, rec := newRequest(http.MethodPut, "/v1/admin/tc/"+rec1.ID, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var updated tc.Record
		decodeObj(t, rec.Body.Bytes(), &updated)
		if updated.StudentName != "Asha J. Mwinyi" {
			t.Errorf("StudentName = %q; want %q", updated.StudentName, "Asha J. Mwinyi")
		}
		if updated.TcNumber != rec1.TcNumber {
			t.Errorf("TcNumber changed to %q", updated.TcNumber)
		}
	})

	t.Run("set verified", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/admin/tc/"+rec1.ID+"/verify", []byte(`{"verified": true}`))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var updated tc.Record
		decodeObj(t, rec.Body.Bytes(), &updated)
		if !updated.Verified {
			t.Error("record not verified")
		}
	})

	t.Run("attach document", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, "/v1/admin/tc/"+rec1.ID+"/document",
			formFile{field: "document", name: "cert.pdf", data: []byte("pdf bytes")})
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var updated tc.Record
		decodeObj(t, rec.Body.Bytes(), &updated)
		if updated.DocumentPath == "" {
			t.Error("DocumentPath not set")
		}
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, "/v1/admin/tc/"+rec1.ID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v", rec.Code)
		}

		if _, err := tcRepo.GetRecord(context.Background(), rec1.ID); err != tc.ErrNotFound {
			t.Errorf("GetRecord() after destroy: %v; want ErrNotFound", err)
		}
	})

	t.Run("destroy multiple", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, "/v1/admin/tc?id="+rec2.ID+"&id="+rec3.ID)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v", rec.Code)
		}

		recs, err := tcRepo.QueryRecords(context.Background(), nil, nil)
		if err != nil {
			t.Fatalf("QueryRecords(): %v", err)
		}
		if len(recs) != 0 {
			t.Errorf("%d records left; want 0", len(recs))
		}
	})
}

func Test_tcApi_bulkImport(t *testing.T) {
	setup(t)

	issued := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	testutil.CreateTcRecord(t, tcRepo, "TC-OLD", "First Import", "Father", "ADM-1", "Form 1", issued, false)

	csv := importCSVHeader + "\n" +
		"TC-100,Asha Juma,Juma Bakari,ADM-10,Form 4,2025-03-15,tc100.pdf\n" +
		"TC-OLD,Other Name,Other Father,ADM-11,Form 2,2024-11-01,tcold.pdf\n" +
		"TC-101,Neema Paul,Paul John,ADM-12,Form 1,2025-01-20,absent.pdf\n"
	archive := buildZip(t, map[string][]byte{
		"tc100.pdf": []byte("one"),
		"tcold.pdf": []byte("dup"),
	})

	req, rec := newMultipartRequest(t, http.MethodPost, "/v1/admin/tc/import",
		formFile{field: "csv", name: "records.csv", data: []byte(csv)},
		formFile{field: "archive", name: "certs.zip", data: archive})
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var outcome tc.ImportOutcome
	decodeObj(t, rec.Body.Bytes(), &outcome)
	if outcome.Processed != 3 || outcome.Committed != 1 || outcome.Skipped != 2 {
		t.Errorf("outcome = %+v; want 3 processed, 1 committed, 2 skipped", outcome)
	}

	imported, err := tcRepo.GetRecordByNumber(context.Background(), "TC-100")
	if err != nil {
		t.Fatalf("GetRecordByNumber(): %v", err)
	}
	if imported.DocumentPath == "" {
		t.Error("imported record has no document")
	}
	if _, err := tcRepo.GetRecordByNumber(context.Background(), "TC-101"); err != tc.ErrNotFound {
		t.Errorf("skipped row was committed: %v", err)
	}
}

func Test_tcApi_bulkImport_badInputs(t *testing.T) {
	setup(t)

	validCSV := []byte(importCSVHeader + "\nTC-1,A,B,ADM-1,Form 1,2025-01-01,a.pdf\n")
	validZip := buildZip(t, map[string][]byte{"a.pdf": []byte("x")})

	t.Run("csv file is required", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"csv": "this file is required"}),
		}
		req, rec := newMultipartRequest(t, http.MethodPost, "/v1/admin/tc/import",
			formFile{field: "archive", name: "certs.zip", data: validZip})
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("archive file is required", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"archive": "this file is required"}),
		}
		req, rec := newMultipartRequest(t, http.MethodPost, "/v1/admin/tc/import",
			formFile{field: "csv", name: "records.csv", data: validCSV})
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("oversized csv", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"csv": "CSV file exceeds the configured size limit"}),
		}
		big := append(validCSV, bytes.Repeat([]byte("x"), 2<<20)...)
		req, rec := newMultipartRequest(t, http.MethodPost, "/v1/admin/tc/import",
			formFile{field: "csv", name: "records.csv", data: big},
			formFile{field: "archive", name: "certs.zip", data: validZip})
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("missing header column", func(t *testing.T) {
		csv := []byte("tc_number,student_name\nTC-1,A\n")
		req, rec := newMultipartRequest(t, http.MethodPost, "/v1/admin/tc/import",
			formFile{field: "csv", name: "records.csv", data: csv},
			formFile{field: "archive", name: "certs.zip", data: validZip})
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "missing column") {
			t.Errorf("body = %s; want a missing-column error", rec.Body.String())
		}
	})

	t.Run("corrupt archive", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, "/v1/admin/tc/import",
			formFile{field: "csv", name: "records.csv", data: validCSV},
			formFile{field: "archive", name: "certs.zip", data: []byte("not a zip")})
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_tcApi_importTemplate(t *testing.T) {
	setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/admin/tc/import/template")
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q; want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "tc_import_template.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	firstLine := strings.SplitN(rec.Body.String(), "\n", 2)[0]
	if strings.TrimSpace(firstLine) != strings.Join(tc.CSVColumns, ",") {
		t.Errorf("template header = %q; want %q", firstLine, strings.Join(tc.CSVColumns, ","))
	}
}
