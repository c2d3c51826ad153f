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
	"github.com/mwalimu/shule/core/club"
)

type clubRow struct {
	ID              string      `db:"id"`
	Name            string      `db:"name"`
	Description     string      `db:"description"`
	Category        null.String `db:"category"`
	TeacherInCharge null.String `db:"teacher_in_charge"`
	MemberCount     int         `db:"member_count"`
	Active          bool        `db:"active"`
	CreatedAt       null.Time   `db:"created_at"`
	UpdatedAt       null.Time   `db:"updated_at"`
}

type clubRepository struct {
	db *sqlx.DB
}

var _ club.Repository = (*clubRepository)(nil)

func NewClubRepository(db *sqlx.DB) *clubRepository {
	return &clubRepository{db: db}
}

func (repo clubRepository) toRow(c club.Club) clubRow {
	return clubRow{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Category:        null.NewString(c.Category, c.Category != ""),
		TeacherInCharge: null.NewString(c.TeacherInCharge, c.TeacherInCharge != ""),
		MemberCount:     c.MemberCount,
		Active:          c.Active,
		CreatedAt:       null.NewTime(c.CreatedAt.UTC(), !c.CreatedAt.IsZero()),
		UpdatedAt:       null.NewTime(c.UpdatedAt.UTC(), !c.UpdatedAt.IsZero()),
	}
}

func (repo clubRepository) fromRow(row clubRow) club.Club {
	return club.Club{
		ID:              row.ID,
		Name:            row.Name,
		Description:     row.Description,
		Category:        row.Category.String,
		TeacherInCharge: row.TeacherInCharge.String,
		MemberCount:     row.MemberCount,
		Active:          row.Active,
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}

func (repo clubRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return club.ErrNotFound
	}
	return wrapDBErr(err, msg)
}

func (repo clubRepository) CreateClub(ctx context.Context, c club.Club) (club.Club, error) {
	c.ID = uuid.New().String()
	row := repo.toRow(c)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO club (id, name, description, category, teacher_in_charge, member_count, active, created_at, updated_at)
		VALUES (:id, :name, :description, :category, :teacher_in_charge, :member_count, :active, :created_at, :updated_at)`,
		row)
	if err != nil {
		return club.Club{}, errors.Wrap(err, "inserting club")
	}
	return repo.fromRow(row), nil
}

func (repo clubRepository) GetClub(ctx context.Context, id string) (club.Club, error) {
	if _, err := uuid.Parse(id); err != nil {
		return club.Club{}, club.ErrNotFound
	}
	var row clubRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM club WHERE id = $1`, id); err != nil {
		return club.Club{}, repo.trapNoRowsErr(err, "finding club by ID")
	}
	return repo.fromRow(row), nil
}

func (repo clubRepository) QueryClubs(ctx context.Context, filter *club.QueryFilter, ordering []core.DBOrdering) ([]club.Club, error) {
	query := `SELECT * FROM club`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, `(name ILIKE ? OR description ILIKE ?)`)
			val := "%" + filter.Search + "%"
			args = append(args, val, val)
		}
		if filter.Category != "" {
			conds = append(conds, `category = ?`)
			args = append(args, filter.Category)
		}
		if filter.Active != nil {
			conds = append(conds, `active = ?`)
			args = append(args, *filter.Active)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderingClause(ordering, "name ASC")

	var rows []clubRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying clubs")
	}
	items := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		items = append(items, repo.fromRow(row))
	}
	return items, nil
}

func (repo clubRepository) UpdateClub(ctx context.Context, c club.Club, memberCount *int, active *bool) (club.Club, error) {
	row := repo.toRow(c)
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE club SET
			name = COALESCE(NULLIF(?, ''), name),
			description = COALESCE(NULLIF(?, ''), description),
			category = COALESCE(?, category),
			teacher_in_charge = COALESCE(?, teacher_in_charge),
			member_count = COALESCE(?, member_count),
			active = COALESCE(?, active),
			updated_at = ?
		WHERE id = ?`),
		row.Name, row.Description, row.Category, row.TeacherInCharge,
		intPtrToNull(memberCount), boolPtrToNull(active), row.UpdatedAt, row.ID)
	if err != nil {
		return club.Club{}, errors.Wrap(err, "updating club")
	}
	return repo.GetClub(ctx, c.ID)
}

func (repo clubRepository) DeleteClubsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM club WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting clubs")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting clubs")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
