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
	"github.com/mwalimu/shule/core/achievement"
)

type achievementRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	StudentName null.String `db:"student_name"`
	Class       null.String `db:"class"`
	Year        int         `db:"year"`
	ImagePath   null.String `db:"image_path"`
	Published   bool        `db:"published"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

type achievementRepository struct {
	db *sqlx.DB
}

var _ achievement.Repository = (*achievementRepository)(nil)

func NewAchievementRepository(db *sqlx.DB) *achievementRepository {
	return &achievementRepository{db: db}
}

func (repo achievementRepository) toRow(a achievement.Achievement) achievementRow {
	return achievementRow{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		StudentName: null.NewString(a.StudentName, a.StudentName != ""),
		Class:       null.NewString(a.Class, a.Class != ""),
		Year:        a.Year,
		ImagePath:   null.NewString(a.ImagePath, a.ImagePath != ""),
		Published:   a.Published,
		CreatedAt:   null.NewTime(a.CreatedAt.UTC(), !a.CreatedAt.IsZero()),
		UpdatedAt:   null.NewTime(a.UpdatedAt.UTC(), !a.UpdatedAt.IsZero()),
	}
}

func (repo achievementRepository) fromRow(row achievementRow) achievement.Achievement {
	return achievement.Achievement{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		StudentName: row.StudentName.String,
		Class:       row.Class.String,
		Year:        row.Year,
		ImagePath:   row.ImagePath.String,
		Published:   row.Published,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

func (repo achievementRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return achievement.ErrNotFound
	}
	return wrapDBErr(err, msg)
}

func (repo achievementRepository) CreateAchievement(ctx context.Context, a achievement.Achievement) (achievement.Achievement, error) {
	a.ID = uuid.New().String()
	row := repo.toRow(a)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO achievement (id, title, description, student_name, class, year, image_path, published, created_at, updated_at)
		VALUES (:id, :title, :description, :student_name, :class, :year, :image_path, :published, :created_at, :updated_at)`,
		row)
	if err != nil {
		return achievement.Achievement{}, errors.Wrap(err, "inserting achievement")
	}
	return repo.fromRow(row), nil
}

func (repo achievementRepository) GetAchievement(ctx context.Context, id string) (achievement.Achievement, error) {
	if _, err := uuid.Parse(id); err != nil {
		return achievement.Achievement{}, achievement.ErrNotFound
	}
	var row achievementRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM achievement WHERE id = $1`, id); err != nil {
		return achievement.Achievement{}, repo.trapNoRowsErr(err, "finding achievement by ID")
	}
	return repo.fromRow(row), nil
}

func (repo achievementRepository) QueryAchievements(ctx context.Context, filter *achievement.QueryFilter, ordering []core.DBOrdering) ([]achievement.Achievement, error) {
	query := `SELECT * FROM achievement`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			conds = append(conds, `(title ILIKE ? OR description ILIKE ? OR student_name ILIKE ?)`)
			val := "%" + filter.Search + "%"
			args = append(args, val, val, val)
		}
		if filter.Class != "" {
			conds = append(conds, `class = ?`)
			args = append(args, filter.Class)
		}
		if filter.Year != 0 {
			conds = append(conds, `year = ?`)
			args = append(args, filter.Year)
		}
		if filter.Published != nil {
			conds = append(conds, `published = ?`)
			args = append(args, *filter.Published)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderingClause(ordering, "year DESC, created_at DESC")

	var rows []achievementRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying achievements")
	}
	items := make([]achievement.Achievement, 0, len(rows))
	for _, row := range rows {
		items = append(items, repo.fromRow(row))
	}
	return items, nil
}

func (repo achievementRepository) UpdateAchievement(ctx context.Context, a achievement.Achievement, published *bool) (achievement.Achievement, error) {
	row := repo.toRow(a)
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE achievement SET
			title = COALESCE(NULLIF(?, ''), title),
			description = COALESCE(NULLIF(?, ''), description),
			student_name = COALESCE(?, student_name),
			class = COALESCE(?, class),
			year = COALESCE(NULLIF(?, 0), year),
			image_path = COALESCE(?, image_path),
			published = COALESCE(?, published),
			updated_at = ?
		WHERE id = ?`),
		row.Title, row.Description, row.StudentName, row.Class, row.Year,
		row.ImagePath, boolPtrToNull(published), row.UpdatedAt, row.ID)
	if err != nil {
		return achievement.Achievement{}, errors.Wrap(err, "updating achievement")
	}
	return repo.GetAchievement(ctx, a.ID)
}

func (repo achievementRepository) DeleteAchievementsByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM achievement WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting achievements")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting achievements")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
