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
	"github.com/mwalimu/shule/core/staff"
)

type staffRow struct {
	ID            string      `db:"id"`
	Name          string      `db:"name"`
	Designation   string      `db:"designation"`
	Qualification null.String `db:"qualification"`
	Subject       null.String `db:"subject"`
	PhotoPath     null.String `db:"photo_path"`
	DisplayOrder  int         `db:"display_order"`
	Active        bool        `db:"active"`
	CreatedAt     null.Time   `db:"created_at"`
	UpdatedAt     null.Time   `db:"updated_at"`
}

type staffRepository struct {
	db *sqlx.DB
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(db *sqlx.DB) *staffRepository {
	return &staffRepository{db: db}
}

func (repo staffRepository) toRow(m staff.Member) staffRow {
	return staffRow{
		ID:            m.ID,
		Name:          m.Name,
		Designation:   m.Designation,
		Qualification: null.NewString(m.Qualification, m.Qualification != ""),
		Subject:       null.NewString(m.Subject, m.Subject != ""),
		PhotoPath:     null.NewString(m.PhotoPath, m.PhotoPath != ""),
		DisplayOrder:  m.DisplayOrder,
		Active:        m.Active,
		CreatedAt:     null.NewTime(m.CreatedAt.UTC(), !m.CreatedAt.IsZero()),
		UpdatedAt:     null.NewTime(m.UpdatedAt.UTC(), !m.UpdatedAt.IsZero()),
	}
}

func (repo staffRepository) fromRow(row staffRow) staff.Member {
	return staff.Member{
		ID:            row.ID,
		Name:          row.Name,
		Designation:   row.Designation,
		Qualification: row.Qualification.String,
		Subject:       row.Subject.String,
		PhotoPath:     row.PhotoPath.String,
		DisplayOrder:  row.DisplayOrder,
		Active:        row.Active,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}

func (repo staffRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return staff.ErrNotFound
	}
	return wrapDBErr(err, msg)
}

func (repo staffRepository) CreateMember(ctx context.Context, m staff.Member) (staff.Member, error) {
	m.ID = uuid.New().String()
	row := repo.toRow(m)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO staff_member (id, name, designation, qualification, subject, photo_path, display_order, active, created_at, updated_at)
		VALUES (:id, :name, :designation, :qualification, :subject, :photo_path, :display_order, :active, :created_at, :updated_at)`,
		row)
	if err != nil {
		return staff.Member{}, errors.Wrap(err, "inserting staff member")
	}
	return repo.fromRow(row), nil
}

func (repo staffRepository) GetMember(ctx context.Context, id string) (staff.Member, error) {
	if _, err := uuid.Parse(id); err != nil {
		return staff.Member{}, staff.ErrNotFound
	}
	var row staffRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM staff_member WHERE id = $1`, id); err != nil {
		return staff.Member{}, repo.trapNoRowsErr(err, "finding staff member by ID")
	}
	return repo.fromRow(row), nil
}

func (repo staffRepository) QueryMembers(ctx context.Context, filter *staff.QueryFilter, ordering []core.DBOrdering) ([]staff.Member, error) {
	query := `SELECT * FROM staff_member`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, `(name ILIKE ? OR designation ILIKE ? OR subject ILIKE ?)`)
			val := "%" + filter.Search + "%"
			args = append(args, val, val, val)
		}
		if filter.Designation != "" {
			conds = append(conds, `designation = ?`)
			args = append(args, filter.Designation)
		}
		if filter.Subject != "" {
			conds = append(conds, `subject = ?`)
			args = append(args, filter.Subject)
		}
		if filter.Active != nil {
			conds = append(conds, `active = ?`)
			args = append(args, *filter.Active)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderingClause(ordering, "display_order ASC, name ASC")

	var rows []staffRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying staff members")
	}
	items := make([]staff.Member, 0, len(rows))
	for _, row := range rows {
		items = append(items, repo.fromRow(row))
	}
	return items, nil
}

func (repo staffRepository) UpdateMember(ctx context.Context, m staff.Member, displayOrder *int, active *bool) (staff.Member, error) {
	row := repo.toRow(m)
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE staff_member SET
			name = COALESCE(NULLIF(?, ''), name),
			designation = COALESCE(NULLIF(?, ''), designation),
			qualification = COALESCE(?, qualification),
			subject = COALESCE(?, subject),
			photo_path = COALESCE(?, photo_path),
			display_order = COALESCE(?, display_order),
			active = COALESCE(?, active),
			updated_at = ?
		WHERE id = ?`),
		row.Name, row.Designation, row.Qualification, row.Subject, row.PhotoPath,
		intPtrToNull(displayOrder), boolPtrToNull(active), row.UpdatedAt, row.ID)
	if err != nil {
		return staff.Member{}, errors.Wrap(err, "updating staff member")
	}
	return repo.GetMember(ctx, m.ID)
}

func (repo staffRepository) DeleteMembersByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM staff_member WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting staff members")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting staff members")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
