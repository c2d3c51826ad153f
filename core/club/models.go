package club

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/shule/core"
)

var ErrNotFound = errors.New("club not found")

// Club is a student club or society listed on the public site while active.
type Club struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Category        string    `json:"category,omitempty"`
	TeacherInCharge string    `json:"teacher_in_charge,omitempty"`
	MemberCount     int       `json:"member_count"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

type NewClub struct {
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description" validate:"required"`
	Category        string `json:"category" validate:"omitempty,alphanum_"`
	TeacherInCharge string `json:"teacher_in_charge"`
	MemberCount     int    `json:"member_count" validate:"omitempty,min=0"`
}

func (nc *NewClub) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category)
	nc.TeacherInCharge = core.CleanString(nc.TeacherInCharge)
	return validate.Struct(nc)
}

type UpdateClub struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category" validate:"omitempty,alphanum_"`
	TeacherInCharge string `json:"teacher_in_charge"`
	MemberCount     *int   `json:"member_count"`
	Active          *bool  `json:"active"`
}

func (uc *UpdateClub) Validate(orig Club, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = orig.Description
	}
	uc.Category = core.CleanString(uc.Category)
	uc.TeacherInCharge = core.CleanString(uc.TeacherInCharge)
	return validate.Struct(uc)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Active   *bool  `query:"active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
}
