package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

const courseColumns = `id, slug, title, summary, description, category, level, duration_hours,
start_date, image_url, course_limit, department_limit, is_active, created_at, updated_at`

func (repo *courseRepository) CheckSlugUniqueness(ctx context.Context, slug string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM courses WHERE slug = $1)`
	if err := repo.db.GetContext(ctx, &exists, query, slug); err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if exists {
		return course.ErrSlugExists
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	query := `
INSERT INTO courses (` + courseColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := repo.db.ExecContext(ctx, query,
		crs.ID, crs.Slug, crs.Title, crs.Summary, crs.Description, crs.Category, crs.Level,
		crs.DurationHours, crs.StartDate, crs.ImageURL, crs.CourseLimit, crs.DepartmentLimit,
		crs.IsActive, crs.CreatedAt, crs.UpdatedAt,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, `(title ILIKE `+p+` OR summary ILIKE `+p+` OR category ILIKE `+p+`)`)
	}
	if filter.Category != "" {
		conds = append(conds, `category = `+arg(filter.Category))
	}
	if filter.Level != "" {
		conds = append(conds, `level = `+arg(filter.Level))
	}
	if filter.IsActive != nil {
		conds = append(conds, `is_active = `+arg(*filter.IsActive))
	}

	query := `SELECT ` + courseColumns + ` FROM courses`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	courses := make([]course.Course, 0)
	if err := repo.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering courses")
	}
	return courses, nil
}

func (repo *courseRepository) getCourse(ctx context.Context, where string, args ...interface{}) (course.Course, error) {
	var crs course.Course
	query := `SELECT ` + courseColumns + ` FROM courses WHERE ` + where
	if err := repo.db.GetContext(ctx, &crs, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	return repo.getCourse(ctx, `id = $1`, id)
}

func (repo *courseRepository) GetCourseBySlug(ctx context.Context, slug string) (course.Course, error) {
	return repo.getCourse(ctx, `slug = $1`, slug)
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, isActive *bool) (course.Course, error) {
	sets := []string{`updated_at = $2`}
	args := []interface{}{crs.ID, crs.UpdatedAt}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if crs.Title != "" {
		sets = append(sets, `title = `+arg(crs.Title))
	}
	sets = append(sets,
		`summary = `+arg(crs.Summary),
		`description = `+arg(crs.Description),
		`category = `+arg(crs.Category),
		`duration_hours = `+arg(crs.DurationHours),
		`start_date = `+arg(crs.StartDate),
		`image_url = `+arg(crs.ImageURL),
		`course_limit = `+arg(crs.CourseLimit),
		`department_limit = `+arg(crs.DepartmentLimit),
	)
	if crs.Level != "" {
		sets = append(sets, `level = `+arg(crs.Level))
	}
	if isActive != nil {
		sets = append(sets, `is_active = `+arg(*isActive))
	}

	query := `UPDATE courses SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ANY($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting courses")
}

func (repo *courseRepository) QueryActiveBanners(ctx context.Context) ([]course.Banner, error) {
	banners := make([]course.Banner, 0)
	query := `
SELECT id, title, subtitle, image_url, link_url, position, is_active, created_at
FROM banners WHERE is_active ORDER BY position`
	if err := repo.db.SelectContext(ctx, &banners, query); err != nil {
		return nil, errors.Wrap(err, "querying banners")
	}
	return banners, nil
}

func (repo *courseRepository) QueryActiveFAQs(ctx context.Context) ([]course.FAQ, error) {
	faqs := make([]course.FAQ, 0)
	query := `
SELECT id, question, answer, position, is_active, created_at
FROM faqs WHERE is_active ORDER BY position`
	if err := repo.db.SelectContext(ctx, &faqs, query); err != nil {
		return nil, errors.Wrap(err, "querying faqs")
	}
	return faqs, nil
}
