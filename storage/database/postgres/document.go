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
	"github.com/mwalimu/shule/core/document"
)

type documentRow struct {
	ID            string      `db:"id"`
	Title         string      `db:"title"`
	Category      null.String `db:"category"`
	FilePath      string      `db:"file_path"`
	FileSize      int64       `db:"file_size"`
	DownloadCount int         `db:"download_count"`
	Published     bool        `db:"published"`
	CreatedAt     null.Time   `db:"created_at"`
	UpdatedAt     null.Time   `db:"updated_at"`
}

type documentRepository struct {
	db *sqlx.DB
}

var _ document.Repository = (*documentRepository)(nil)

func NewDocumentRepository(db *sqlx.DB) *documentRepository {
	return &documentRepository{db: db}
}

func (repo documentRepository) toRow(d document.Document) documentRow {
	return documentRow{
		ID:            d.ID,
		Title:         d.Title,
		Category:      null.NewString(d.Category, d.Category != ""),
		FilePath:      d.FilePath,
		FileSize:      d.FileSize,
		DownloadCount: d.DownloadCount,
		Published:     d.Published,
		CreatedAt:     null.NewTime(d.CreatedAt.UTC(), !d.CreatedAt.IsZero()),
		UpdatedAt:     null.NewTime(d.UpdatedAt.UTC(), !d.UpdatedAt.IsZero()),
	}
}

func (repo documentRepository) fromRow(row documentRow) document.Document {
	return document.Document{
		ID:            row.ID,
		Title:         row.Title,
		Category:      row.Category.String,
		FilePath:      row.FilePath,
		FileSize:      row.FileSize,
		DownloadCount: row.DownloadCount,
		Published:     row.Published,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}

func (repo documentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return document.ErrNotFound
	}
	return wrapDBErr(err, msg)
}

func (repo documentRepository) CreateDocument(ctx context.Context, d document.Document) (document.Document, error) {
	d.ID = uuid.New().String()
	row := repo.toRow(d)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO document (id, title, category, file_path, file_size, download_count, published, created_at, updated_at)
		VALUES (:id, :title, :category, :file_path, :file_size, :download_count, :published, :created_at, :updated_at)`,
		row)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "inserting document")
	}
	return repo.fromRow(row), nil
}

func (repo documentRepository) GetDocument(ctx context.Context, id string) (document.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return document.Document{}, document.ErrNotFound
	}
	var row documentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM document WHERE id = $1`, id); err != nil {
		return document.Document{}, repo.trapNoRowsErr(err, "finding document by ID")
	}
	return repo.fromRow(row), nil
}

func (repo documentRepository) QueryDocuments(ctx context.Context, filter *document.QueryFilter, ordering []core.DBOrdering) ([]document.Document, error) {
	query := `SELECT * FROM document`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, `title ILIKE ?`)
			args = append(args, "%"+filter.Search+"%")
		}
		if filter.Category != "" {
			conds = append(conds, `category = ?`)
			args = append(args, filter.Category)
		}
		if filter.Published != nil {
			conds = append(conds, `published = ?`)
			args = append(args, *filter.Published)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderingClause(ordering, "created_at DESC")

	var rows []documentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}
	items := make([]document.Document, 0, len(rows))
	for _, row := range rows {
		items = append(items, repo.fromRow(row))
	}
	return items, nil
}

func (repo documentRepository) UpdateDocument(ctx context.Context, d document.Document, published *bool) (document.Document, error) {
	row := repo.toRow(d)
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE document SET
			title = COALESCE(NULLIF(?, ''), title),
			category = COALESCE(?, category),
			published = COALESCE(?, published),
			updated_at = ?
		WHERE id = ?`),
		row.Title, row.Category, boolPtrToNull(published), row.UpdatedAt, row.ID)
	if err != nil {
		return document.Document{}, errors.Wrap(err, "updating document")
	}
	return repo.GetDocument(ctx, d.ID)
}

func (repo documentRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE document SET download_count = download_count + 1 WHERE id = $1`, id)
	return errors.Wrap(err, "incrementing download count")
}

func (repo documentRepository) DeleteDocumentsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM document WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting documents")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting documents")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
