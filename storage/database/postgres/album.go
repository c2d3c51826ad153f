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
	"github.com/mwalimu/shule/core/album"
)

type albumRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	EventDate   null.Time   `db:"event_date"`
	CoverPath   null.String `db:"cover_path"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

type photoRow struct {
	ID       string      `db:"id"`
	AlbumID  string      `db:"album_id"`
	Path     string      `db:"path"`
	Caption  null.String `db:"caption"`
	Position int         `db:"position"`
}

type albumRepository struct {
	db *sqlx.DB
}

var _ album.Repository = (*albumRepository)(nil)

func NewAlbumRepository(db *sqlx.DB) *albumRepository {
	return &albumRepository{db: db}
}

func (repo albumRepository) toRow(a album.Album) albumRow {
	return albumRow{
		ID:          a.ID,
		Title:       a.Title,
		Description: null.NewString(a.Description, a.Description != ""),
		EventDate:   null.NewTime(a.EventDate, !a.EventDate.IsZero()),
		CoverPath:   null.NewString(a.CoverPath, a.CoverPath != ""),
		CreatedAt:   null.NewTime(a.CreatedAt.UTC(), !a.CreatedAt.IsZero()),
		UpdatedAt:   null.NewTime(a.UpdatedAt.UTC(), !a.UpdatedAt.IsZero()),
	}
}

func (repo albumRepository) fromRow(row albumRow) album.Album {
	return album.Album{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description.String,
		EventDate:   row.EventDate.Time,
		CoverPath:   row.CoverPath.String,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

func (repo albumRepository) fromPhotoRow(row photoRow) album.Photo {
	return album.Photo{
		ID:       row.ID,
		AlbumID:  row.AlbumID,
		Path:     row.Path,
		Caption:  row.Caption.String,
		Position: row.Position,
	}
}

func (repo albumRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return album.ErrNotFound
	}
	return wrapDBErr(err, msg)
}

func (repo albumRepository) CreateAlbum(ctx context.Context, a album.Album) (album.Album, error) {
	a.ID = uuid.New().String()
	row := repo.toRow(a)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO album (id, title, description, event_date, cover_path, created_at, updated_at)
		VALUES (:id, :title, :description, :event_date, :cover_path, :created_at, :updated_at)`,
		row)
	if err != nil {
		return album.Album{}, errors.Wrap(err, "inserting album")
	}
	return repo.fromRow(row), nil
}

func (repo albumRepository) GetAlbum(ctx context.Context, id string) (album.Album, error) {
	if _, err := uuid.Parse(id); err != nil {
		return album.Album{}, album.ErrNotFound
	}
	var row albumRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM album WHERE id = $1`, id); err != nil {
		return album.Album{}, repo.trapNoRowsErr(err, "finding album by ID")
	}
	a := repo.fromRow(row)

	var photoRows []photoRow
	err := repo.db.SelectContext(ctx, &photoRows,
		`SELECT * FROM album_photo WHERE album_id = $1 ORDER BY position, id`, id)
	if err != nil {
		return album.Album{}, errors.Wrap(err, "loading album photos")
	}
	a.Photos = make([]album.Photo, 0, len(photoRows))
	for _, pr := range photoRows {
		a.Photos = append(a.Photos, repo.fromPhotoRow(pr))
	}
	return a, nil
}

func (repo albumRepository) QueryAlbums(ctx context.Context, filter *album.QueryFilter, ordering []core.DBOrdering) ([]album.Album, error) {
	query := `SELECT * FROM album`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, `(title ILIKE ? OR description ILIKE ?)`)
			val := "%" + filter.Search + "%"
			args = append(args, val, val)
		}
		if !filter.From.IsZero() {
			conds = append(conds, `event_date >= ?`)
			args = append(args, filter.From.UTC())
		}
		if !filter.To.IsZero() {
			conds = append(conds, `event_date <= ?`)
			args = append(args, filter.To.UTC())
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderingClause(ordering, "event_date DESC")

	var rows []albumRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying albums")
	}
	items := make([]album.Album, 0, len(rows))
	for _, row := range rows {
		items = append(items, repo.fromRow(row))
	}
	return items, nil
}

func (repo albumRepository) UpdateAlbum(ctx context.Context, a album.Album) (album.Album, error) {
	row := repo.toRow(a)
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE album SET
			title = COALESCE(NULLIF(?, ''), title),
			description = COALESCE(?, description),
			event_date = COALESCE(?, event_date),
			cover_path = COALESCE(?, cover_path),
			updated_at = ?
		WHERE id = ?`),
		row.Title, row.Description, row.EventDate, row.CoverPath, row.UpdatedAt, row.ID)
	if err != nil {
		return album.Album{}, errors.Wrap(err, "updating album")
	}
	return repo.GetAlbum(ctx, a.ID)
}

func (repo albumRepository) DeleteAlbumsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM album WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting albums")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting albums")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo albumRepository) AddPhoto(ctx context.Context, p album.Photo) (album.Photo, error) {
	p.ID = uuid.New().String()
	row := photoRow{
		ID:       p.ID,
		AlbumID:  p.AlbumID,
		Path:     p.Path,
		Caption:  null.NewString(p.Caption, p.Caption != ""),
		Position: p.Position,
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO album_photo (id, album_id, path, caption, position)
		VALUES (:id, :album_id, :path, :caption, :position)`,
		row)
	if err != nil {
		return album.Photo{}, errors.Wrap(err, "inserting photo")
	}
	return repo.fromPhotoRow(row), nil
}

// DeletePhoto removes the photo and returns it so the caller can clean up
// the stored file. Lookup and delete run in one transaction so a racing
// delete cannot return a photo that was not actually removed.
func (repo albumRepository) DeletePhoto(ctx context.Context, albumID, photoID string) (album.Photo, error) {
	var row photoRow
	err := withTx(ctx, repo.db, func(tx core.DBTransactor) error {
		r := tx.QueryRowContext(ctx,
			`SELECT id, album_id, path, caption, position FROM album_photo WHERE id = $1 AND album_id = $2`,
			photoID, albumID)
		if err := r.Scan(&row.ID, &row.AlbumID, &row.Path, &row.Caption, &row.Position); err != nil {
			if err == sql.ErrNoRows {
				return album.ErrPhotoNotFound
			}
			return wrapDBErr(err, "finding photo")
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM album_photo WHERE id = $1`, photoID)
		return wrapDBErr(err, "deleting photo")
	})
	if err != nil {
		return album.Photo{}, err
	}
	return repo.fromPhotoRow(row), nil
}
