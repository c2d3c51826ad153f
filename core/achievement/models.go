package achievement

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/shule/core"
)

var ErrNotFound = errors.New("achievement not found")

// Achievement is a student or school accomplishment highlighted on the
// public site once published.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StudentName string    `json:"student_name,omitempty"`
	Class       string    `json:"class,omitempty"`
	Year        int       `json:"year"`
	ImagePath   string    `json:"image_path,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type NewAchievement struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	StudentName string `json:"student_name"`
	Class       string `json:"class"`
	Year        int    `json:"year" validate:"required,min=1900"`
}

func (na *NewAchievement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.StudentName = core.CleanString(na.StudentName)
	na.Class = core.CleanString(na.Class)
	return validate.Struct(na)
}

type UpdateAchievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StudentName string `json:"student_name"`
	Class       string `json:"class"`
	Year        int    `json:"year" validate:"omitempty,min=1900"`
}

func (ua *UpdateAchievement) Validate(orig Achievement, validate *validator.Validate) error {
	if title := core.CleanString(ua.Title); title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}
	if desc := core.CleanString(ua.Description); desc != "" {
		ua.Description = desc
	} else {
		ua.Description = orig.Description
	}
	ua.StudentName = core.CleanString(ua.StudentName)
	ua.Class = core.CleanString(ua.Class)
	if ua.Year == 0 {
		ua.Year = orig.Year
	}
	return validate.Struct(ua)
}

type QueryFilter struct {
	Search    string `query:"search"`
	Class     string `query:"class"`
	Year      int    `query:"year"`
	Published *bool  `query:"published"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Class = core.CleanString(qf.Class)
}
