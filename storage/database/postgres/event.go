package pgrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/event"
)

type eventRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	Venue       null.String `db:"venue"`
	StartsAt    null.Time   `db:"starts_at"`
	EndsAt      null.Time   `db:"ends_at"`
	ImagePath   null.String `db:"image_path"`
	Published   bool        `db:"published"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil)

func NewEventRepository(db *sqlx.DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo eventRepository) toRow(e event.Event) eventRow {
	return eventRow{
		ID:          e.ID,
		Title:       e.Title,
		Description: null.NewString(e.Description, e.Description != ""),
		Venue:       null.NewString(e.Venue, e.Venue != ""),
		StartsAt:    null.NewTime(e.StartsAt.UTC(), !e.StartsAt.IsZero()),
		EndsAt:      null.NewTime(e.EndsAt.UTC(), !e.EndsAt.IsZero()),
		ImagePath:   null.NewString(e.ImagePath, e.ImagePath != ""),
		Published:   e.Published,
		CreatedAt:   null.NewTime(e.CreatedAt.UTC(), !e.CreatedAt.IsZero()),
		UpdatedAt:   null.NewTime(e.UpdatedAt.UTC(), !e.UpdatedAt.IsZero()),
	}
}

func (repo eventRepository) fromRow(row eventRow) event.Event {
	return event.Event{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description.String,
		Venue:       row.Venue.String,
		StartsAt:    row.StartsAt.Time,
		EndsAt:      row.EndsAt.Time,
		ImagePath:   row.ImagePath.String,
		Published:   row.Published,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

func (repo eventRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return event.ErrNotFound
	}
	return wrapDBErr(err, msg)
}

func (repo eventRepository) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	e.ID = uuid.New().String()
	row := repo.toRow(e)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO event (id, title, description, venue, starts_at, ends_at, image_path, published, created_at, updated_at)
		VALUES (:id, :title, :description, :venue, :starts_at, :ends_at, :image_path, :published, :created_at, :updated_at)`,
		row)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return repo.fromRow(row), nil
}

func (repo eventRepository) GetEvent(ctx context.Context, id string) (event.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return event.Event{}, event.ErrNotFound
	}
	var row eventRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM event WHERE id = $1`, id); err != nil {
		return event.Event{}, repo.trapNoRowsErr(err, "finding event by ID")
	}
	return repo.fromRow(row), nil
}

func (repo eventRepository) QueryEvents(ctx context.Context, filter *event.QueryFilter, ordering []core.DBOrdering) ([]event.Event, error) {
	query := `SELECT * FROM event`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, `(title ILIKE ? OR description ILIKE ? OR venue ILIKE ?)`)
			val := "%" + filter.Search + "%"
			args = append(args, val, val, val)
		}
		if !filter.From.IsZero() {
			conds = append(conds, `starts_at >= ?`)
			args = append(args, filter.From.UTC())
		}
		if !filter.To.IsZero() {
			conds = append(conds, `starts_at <= ?`)
			args = append(args, filter.To.UTC())
		}
		if filter.Upcoming != nil {
			if *filter.Upcoming {
				conds = append(conds, `starts_at > now()`)
			} else {
				conds = append(conds, `starts_at <= now()`)
			}
		}
		if filter.Published != nil {
			conds = append(conds, `published = ?`)
			args = append(args, *filter.Published)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderingClause(ordering, "starts_at ASC")

	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	items := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		items = append(items, repo.fromRow(row))
	}
	return items, nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, e event.Event, published *bool) (event.Event, error) {
	row := repo.toRow(e)
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE event SET
			title = COALESCE(NULLIF(?, ''), title),
			description = COALESCE(?, description),
			venue = COALESCE(?, venue),
			starts_at = COALESCE(?, starts_at),
			ends_at = COALESCE(?, ends_at),
			image_path = COALESCE(?, image_path),
			published = COALESCE(?, published),
			updated_at = ?
		WHERE id = ?`),
		row.Title, row.Description, row.Venue, row.StartsAt, row.EndsAt,
		row.ImagePath, boolPtrToNull(published), row.UpdatedAt, row.ID)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	return repo.GetEvent(ctx, e.ID)
}

func (repo eventRepository) DeleteEventsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM event WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting events")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting events")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
