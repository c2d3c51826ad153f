package staff

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/shule/core"
)

var ErrNotFound = errors.New("staff member not found")

// Member is a staff profile shown on the public site while active,
// ordered by DisplayOrder.
type Member struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Designation   string    `json:"designation"`
	Qualification string    `json:"qualification,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	PhotoPath     string    `json:"photo_path,omitempty"`
	DisplayOrder  int       `json:"display_order"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

type NewMember struct {
	Name          string `json:"name" validate:"required"`
	Designation   string `json:"designation" validate:"required"`
	Qualification string `json:"qualification"`
	Subject       string `json:"subject"`
	DisplayOrder  int    `json:"display_order" validate:"omitempty,min=0"`
}

func (nm *NewMember) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Designation = core.CleanString(nm.Designation)
	nm.Qualification = core.CleanString(nm.Qualification)
	nm.Subject = core.CleanString(nm.Subject)
	return validate.Struct(nm)
}

type UpdateMember struct {
	Name          string `json:"name"`
	Designation   string `json:"designation"`
	Qualification string `json:"qualification"`
	Subject       string `json:"subject"`
	DisplayOrder  *int   `json:"display_order"`
	Active        *bool  `json:"active"`
}

func (um *UpdateMember) Validate(orig Member, validate *validator.Validate) error {
	if name := core.CleanString(um.Name); name != "" {
		um.Name = name
	} else {
		um.Name = orig.Name
	}
	if dsg := core.CleanString(um.Designation); dsg != "" {
		um.Designation = dsg
	} else {
		um.Designation = orig.Designation
	}
	um.Qualification = core.CleanString(um.Qualification)
	um.Subject = core.CleanString(um.Subject)
	return validate.Struct(um)
}

type QueryFilter struct {
	Search      string `query:"search"`
	Designation string `query:"designation"`
	Subject     string `query:"subject"`
	Active      *bool  `query:"active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Designation = core.CleanString(qf.Designation)
	qf.Subject = core.CleanString(qf.Subject)
}
