package tc

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/shule/core"
)

// DateFormat is the only accepted form for a certificate's date of issue.
const DateFormat = "2006-01-02"

var (
	// errors
	ErrNotFound       = errors.New("transfer certificate record not found")
	ErrTcNumberExists = errors.New("a record with this TC number already exists")
)

// Record is a transfer certificate issued to a student leaving the school.
// TcNumber is unique across all records.
type Record struct {
	ID           string    `json:"id"`
	TcNumber     string    `json:"tc_number"`
	StudentName  string    `json:"student_name"`
	FatherName   string    `json:"father_name"`
	AdmissionNo  string    `json:"admission_number"`
	Class        string    `json:"class"`
	DateOfIssue  time.Time `json:"date_of_issue"`
	DocumentPath string    `json:"document_path,omitempty"` // empty when no certificate document is on file
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewRecord contains information needed to create a new Record.
type NewRecord struct {
	TcNumber     string    `json:"tc_number" validate:"required,tcnumber"`
	StudentName  string    `json:"student_name" validate:"required"`
	FatherName   string    `json:"father_name" validate:"required"`
	AdmissionNo  string    `json:"admission_number" validate:"required"`
	Class        string    `json:"class" validate:"required"`
	DateOfIssue  time.Time `json:"date_of_issue" validate:"required"`
	DocumentPath string    `json:"document_path"`
}

func (nr *NewRecord) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nr.TcNumber = core.CleanString(nr.TcNumber)
	nr.StudentName = core.CleanString(nr.StudentName)
	nr.FatherName = core.CleanString(nr.FatherName)
	nr.AdmissionNo = core.CleanString(nr.AdmissionNo)
	nr.Class = core.CleanString(nr.Class)

	if err := validate.Struct(nr); err != nil {
		return err
	}
	return svc.CheckUniqueness(nr.TcNumber)
}

// UpdateRecord defines what information may be provided to modify an existing Record.
type UpdateRecord struct {
	TcNumber    string     `json:"tc_number" validate:"omitempty,tcnumber"`
	StudentName string     `json:"student_name"`
	FatherName  string     `json:"father_name"`
	AdmissionNo string     `json:"admission_number"`
	Class       string     `json:"class"`
	DateOfIssue *time.Time `json:"date_of_issue"`
}

func (ur *UpdateRecord) Validate(orig Record, validate *validator.Validate, svc ServiceInterface) error {
	tcNum := core.CleanString(ur.TcNumber)
	if tcNum != "" {
		ur.TcNumber = tcNum
	} else {
		ur.TcNumber = orig.TcNumber
	}
	ur.StudentName = core.CleanString(ur.StudentName)
	ur.FatherName = core.CleanString(ur.FatherName)
	ur.AdmissionNo = core.CleanString(ur.AdmissionNo)
	ur.Class = core.CleanString(ur.Class)

	if err := validate.Struct(ur); err != nil {
		return err
	}
	return svc.CheckUniqueness(ur.TcNumber, orig)
}

type QueryFilter struct {
	Search     string    `query:"search"`
	Class      string    `query:"class"`
	Verified   *bool     `query:"verified"`
	IssuedFrom time.Time `query:"issued_from"`
	IssuedTo   time.Time `query:"issued_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Class == "" && qf.Verified == nil && qf.IssuedFrom.IsZero() && qf.IssuedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Class = core.CleanString(qf.Class)
}
