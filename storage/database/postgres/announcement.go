package pgrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/announcement"
)

type announcementRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Priority  string    `db:"priority"`
	PublishAt null.Time `db:"publish_at"`
	ExpiresAt null.Time `db:"expires_at"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

type announcementRepository struct {
	db *sqlx.DB
}

var _ announcement.Repository = (*announcementRepository)(nil)

func NewAnnouncementRepository(db *sqlx.DB) *announcementRepository {
	return &announcementRepository{db: db}
}

func (repo announcementRepository) toRow(a announcement.Announcement) announcementRow {
	return announcementRow{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Priority:  a.Priority,
		PublishAt: null.NewTime(a.PublishAt.UTC(), !a.PublishAt.IsZero()),
		ExpiresAt: null.NewTime(a.ExpiresAt.UTC(), !a.ExpiresAt.IsZero()),
		CreatedAt: null.NewTime(a.CreatedAt.UTC(), !a.CreatedAt.IsZero()),
		UpdatedAt: null.NewTime(a.UpdatedAt.UTC(), !a.UpdatedAt.IsZero()),
	}
}

func (repo announcementRepository) fromRow(row announcementRow) announcement.Announcement {
	return announcement.Announcement{
		ID:        row.ID,
		Title:     row.Title,
		Body:      row.Body,
		Priority:  row.Priority,
		PublishAt: row.PublishAt.Time,
		ExpiresAt: row.ExpiresAt.Time,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (repo announcementRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return announcement.ErrNotFound
	}
	return wrapDBErr(err, msg)
}

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	a.ID = uuid.New().String()
	row := repo.toRow(a)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO announcement (id, title, body, priority, publish_at, expires_at, created_at, updated_at)
		VALUES (:id, :title, :body, :priority, :publish_at, :expires_at, :created_at, :updated_at)`,
		row)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return repo.fromRow(row), nil
}

func (repo announcementRepository) GetAnnouncement(ctx context.Context, id string) (announcement.Announcement, error) {
	if _, err := uuid.Parse(id); err != nil {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	var row announcementRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM announcement WHERE id = $1`, id); err != nil {
		return announcement.Announcement{}, repo.trapNoRowsErr(err, "finding announcement by ID")
	}
	return repo.fromRow(row), nil
}

func (repo announcementRepository) QueryAnnouncements(ctx context.Context, filter *announcement.QueryFilter, ordering []core.DBOrdering) ([]announcement.Announcement, error) {
	query := `SELECT * FROM announcement`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, `(title ILIKE ? OR body ILIKE ?)`)
			val := "%" + filter.Search + "%"
			args = append(args, val, val)
		}
		if filter.Priority != "" {
			conds = append(conds, `priority = ?`)
			args = append(args, filter.Priority)
		}
		if !filter.LiveAt.IsZero() {
			conds = append(conds, `publish_at <= ? AND (expires_at IS NULL OR expires_at > ?)`)
			args = append(args, filter.LiveAt.UTC(), filter.LiveAt.UTC())
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderingClause(ordering, "publish_at DESC")

	var rows []announcementRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	items := make([]announcement.Announcement, 0, len(rows))
	for _, row := range rows {
		items = append(items, repo.fromRow(row))
	}
	return items, nil
}

func (repo announcementRepository) UpdateAnnouncement(ctx context.Context, a announcement.Announcement, publishAt, expiresAt *time.Time) (announcement.Announcement, error) {
	row := repo.toRow(a)
	var pubAt, expAt null.Time
	if publishAt != nil {
		pubAt = null.TimeFrom(publishAt.UTC())
	}
	if expiresAt != nil {
		expAt = null.TimeFrom(expiresAt.UTC())
	}
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE announcement SET
			title = COALESCE(NULLIF(?, ''), title),
			body = COALESCE(NULLIF(?, ''), body),
			priority = COALESCE(NULLIF(?, ''), priority),
			publish_at = COALESCE(?, publish_at),
			expires_at = COALESCE(?, expires_at),
			updated_at = ?
		WHERE id = ?`),
		row.Title, row.Body, row.Priority, pubAt, expAt, row.UpdatedAt, row.ID)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "updating announcement")
	}
	return repo.GetAnnouncement(ctx, a.ID)
}

func (repo announcementRepository) DeleteAnnouncementsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM announcement WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting announcements")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting announcements")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
