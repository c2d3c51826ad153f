package announcement

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/shule/core"
)

var ErrNotFound = errors.New("announcement not found")

// Priorities
const (
	PriorityNormal    = "normal"
	PriorityImportant = "important"
	PriorityUrgent    = "urgent"
)

var Priorities = []string{PriorityNormal, PriorityImportant, PriorityUrgent}

// Announcement is a dated notice shown on the public site between
// PublishAt and ExpiresAt (a zero ExpiresAt never expires).
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Priority  string    `json:"priority"`
	PublishAt time.Time `json:"publish_at"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (a Announcement) IsLive(at time.Time) bool {
	if a.PublishAt.After(at) {
		return false
	}
	return a.ExpiresAt.IsZero() || a.ExpiresAt.After(at)
}

type NewAnnouncement struct {
	Title     string    `json:"title" validate:"required"`
	Body      string    `json:"body" validate:"required"`
	Priority  string    `json:"priority" validate:"omitempty,oneof=normal important urgent"`
	PublishAt time.Time `json:"publish_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Body = core.CleanString(na.Body)
	if na.Priority == "" {
		na.Priority = PriorityNormal
	}
	return validate.Struct(na)
}

type UpdateAnnouncement struct {
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Priority  string     `json:"priority" validate:"omitempty,oneof=normal important urgent"`
	PublishAt *time.Time `json:"publish_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (ua *UpdateAnnouncement) Validate(orig Announcement, validate *validator.Validate) error {
	if title := core.CleanString(ua.Title); title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}
	if body := core.CleanString(ua.Body); body != "" {
		ua.Body = body
	} else {
		ua.Body = orig.Body
	}
	if ua.Priority == "" {
		ua.Priority = orig.Priority
	}
	return validate.Struct(ua)
}

type QueryFilter struct {
	Search   string    `query:"search"`
	Priority string    `query:"priority"`
	LiveAt   time.Time `query:"-"` // only announcements live at this instant
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Priority = core.CleanString(qf.Priority, true /* lower */)
}
