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
	"github.com/mwalimu/shule/core/tc"
)

type tcRow struct {
	ID           string      `db:"id"`
	TcNumber     string      `db:"tc_number"`
	StudentName  string      `db:"student_name"`
	FatherName   string      `db:"father_name"`
	AdmissionNo  string      `db:"admission_number"`
	Class        string      `db:"class"`
	DateOfIssue  null.Time   `db:"date_of_issue"`
	DocumentPath null.String `db:"document_path"`
	Verified     bool        `db:"verified"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
}

type tcRepository struct {
	db *sqlx.DB
}

var _ tc.Repository = (*tcRepository)(nil) // interface compliance check

func NewTcRepository(db *sqlx.DB) *tcRepository {
	return &tcRepository{db: db}
}

func (repo tcRepository) toRow(rec tc.Record) tcRow {
	return tcRow{
		ID:           rec.ID,
		TcNumber:     rec.TcNumber,
		StudentName:  rec.StudentName,
		FatherName:   rec.FatherName,
		AdmissionNo:  rec.AdmissionNo,
		Class:        rec.Class,
		DateOfIssue:  null.NewTime(rec.DateOfIssue, !rec.DateOfIssue.IsZero()),
		DocumentPath: null.NewString(rec.DocumentPath, rec.DocumentPath != ""),
		Verified:     rec.Verified,
		CreatedAt:    null.NewTime(rec.CreatedAt.UTC(), !rec.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(rec.UpdatedAt.UTC(), !rec.UpdatedAt.IsZero()),
	}
}

func (repo tcRepository) fromRow(row tcRow) tc.Record {
	return tc.Record{
		ID:           row.ID,
		TcNumber:     row.TcNumber,
		StudentName:  row.StudentName,
		FatherName:   row.FatherName,
		AdmissionNo:  row.AdmissionNo,
		Class:        row.Class,
		DateOfIssue:  row.DateOfIssue.Time,
		DocumentPath: row.DocumentPath.String,
		Verified:     row.Verified,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to tc.ErrNotFound
func (repo tcRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return tc.ErrNotFound
	}
	return wrapDBErr(err, msg)
}

func (repo tcRepository) CheckTcNumberUniqueness(ctx context.Context, tcNumber string, excluded ...tc.Record) error {
	query := `SELECT EXISTS (SELECT 1 FROM tc_record WHERE tc_number = ?`
	args := []interface{}{tcNumber}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, rec := range excluded {
			ids = append(ids, rec.ID)
		}
		in, inArgs, err := sqlx.In(" AND id NOT IN (?)", ids)
		if err != nil {
			return errors.Wrap(err, "checking record uniqueness")
		}
		query += in
		args = append(args, inArgs...)
	}
	query += ")"

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking record uniqueness")
	}
	if exists {
		return tc.ErrTcNumberExists
	}
	return nil
}

func (repo tcRepository) CreateRecord(ctx context.Context, rec tc.Record) (tc.Record, error) {
	rec.ID = uuid.New().String()
	row := repo.toRow(rec)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO tc_record (id, tc_number, student_name, father_name, admission_number, class, date_of_issue, document_path, verified, created_at, updated_at)
		VALUES (:id, :tc_number, :student_name, :father_name, :admission_number, :class, :date_of_issue, :document_path, :verified, :created_at, :updated_at)`,
		row)
	if err != nil {
		return tc.Record{}, errors.Wrap(err, "inserting record")
	}
	return repo.fromRow(row), nil
}

func (repo tcRepository) GetRecord(ctx context.Context, id string) (tc.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return tc.Record{}, tc.ErrNotFound
	}
	var row tcRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM tc_record WHERE id = $1`, id); err != nil {
		return tc.Record{}, repo.trapNoRowsErr(err, "finding record by ID")
	}
	return repo.fromRow(row), nil
}

func (repo tcRepository) GetRecordByNumber(ctx context.Context, tcNumber string) (tc.Record, error) {
	var row tcRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM tc_record WHERE tc_number = $1`, tcNumber); err != nil {
		return tc.Record{}, repo.trapNoRowsErr(err, "finding record by TC number")
	}
	return repo.fromRow(row), nil
}

func (repo tcRepository) QueryRecords(ctx context.Context, filter *tc.QueryFilter, ordering []core.DBOrdering) ([]tc.Record, error) {
	query := `SELECT * FROM tc_record`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, `(tc_number ILIKE ? OR student_name ILIKE ? OR admission_number ILIKE ?)`)
			val := "%" + filter.Search + "%"
			args = append(args, val, val, val)
		}
		if filter.Class != "" {
			conds = append(conds, `class = ?`)
			args = append(args, filter.Class)
		}
		if filter.Verified != nil {
			conds = append(conds, `verified = ?`)
			args = append(args, *filter.Verified)
		}
		if !filter.IssuedFrom.IsZero() {
			conds = append(conds, `date_of_issue >= ?`)
			args = append(args, filter.IssuedFrom.UTC())
		}
		if !filter.IssuedTo.IsZero() {
			conds = append(conds, `date_of_issue <= ?`)
			args = append(args, filter.IssuedTo.UTC())
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderingClause(ordering, "created_at DESC")

	var rows []tcRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	recs := make([]tc.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, repo.fromRow(row))
	}
	return recs, nil
}

func (repo tcRepository) UpdateRecord(ctx context.Context, rec tc.Record, verified *bool) (tc.Record, error) {
	row := repo.toRow(rec)
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE tc_record SET
			tc_number = COALESCE(NULLIF(?, ''), tc_number),
			student_name = COALESCE(NULLIF(?, ''), student_name),
			father_name = COALESCE(NULLIF(?, ''), father_name),
			admission_number = COALESCE(NULLIF(?, ''), admission_number),
			class = COALESCE(NULLIF(?, ''), class),
			date_of_issue = COALESCE(?, date_of_issue),
			document_path = COALESCE(?, document_path),
			verified = COALESCE(?, verified),
			updated_at = ?
		WHERE id = ?`),
		row.TcNumber, row.StudentName, row.FatherName, row.AdmissionNo, row.Class,
		row.DateOfIssue, row.DocumentPath, boolPtrToNull(verified), row.UpdatedAt, row.ID)
	if err != nil {
		return tc.Record{}, errors.Wrap(err, "updating record")
	}
	return repo.GetRecord(ctx, rec.ID)
}

func (repo tcRepository) DeleteRecordsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM tc_record WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting records")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting records")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
