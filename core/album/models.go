package album

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/shule/core"
)

var (
	ErrNotFound      = errors.New("album not found")
	ErrPhotoNotFound = errors.New("photo not found")
)

// Album is a public photo gallery, usually tied to a school event.
type Album struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	EventDate   time.Time `json:"event_date"`
	CoverPath   string    `json:"cover_path,omitempty"`
	Photos      []Photo   `json:"photos,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Photo is one image inside an Album, ordered by Position.
type Photo struct {
	ID       string `json:"id"`
	AlbumID  string `json:"album_id"`
	Path     string `json:"path"`
	Caption  string `json:"caption,omitempty"`
	Position int    `json:"position"`
}

type NewAlbum struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date" validate:"required"`
}

func (na *NewAlbum) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

type UpdateAlbum struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	EventDate   *time.Time `json:"event_date"`
}

func (ua *UpdateAlbum) Validate(orig Album, validate *validator.Validate) error {
	if title := core.CleanString(ua.Title); title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}
	ua.Description = core.CleanString(ua.Description)
	return validate.Struct(ua)
}

type QueryFilter struct {
	Search string    `query:"search"`
	From   time.Time `query:"from"`
	To     time.Time `query:"to"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
