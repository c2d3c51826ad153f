package document

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/shule/core"
)

var ErrNotFound = errors.New("document not found")

// Document is a downloadable file (circular, form, syllabus, ...) offered
// on the public site once published.
type Document struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category,omitempty"`
	FilePath      string    `json:"file_path"`
	FileSize      int64     `json:"file_size"`
	DownloadCount int       `json:"download_count"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

type NewDocument struct {
	Title    string `json:"title" validate:"required"`
	Category string `json:"category" validate:"omitempty,alphanum_"`
}

func (nd *NewDocument) Validate(validate *validator.Validate) error {
	nd.Title = core.CleanString(nd.Title)
	nd.Category = core.CleanString(nd.Category)
	return validate.Struct(nd)
}

type UpdateDocument struct {
	Title    string `json:"title"`
	Category string `json:"category" validate:"omitempty,alphanum_"`
}

func (ud *UpdateDocument) Validate(orig Document, validate *validator.Validate) error {
	if title := core.CleanString(ud.Title); title != "" {
		ud.Title = title
	} else {
		ud.Title = orig.Title
	}
	ud.Category = core.CleanString(ud.Category)
	return validate.Struct(ud)
}

type QueryFilter struct {
	Search    string `query:"search"`
	Category  string `query:"category"`
	Published *bool  `query:"published"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
}
