package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/enrollment"
)

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

const enrollmentColumns = `e.id, e.course_id, e.user_id, e.department, e.status, e.created_at, e.updated_at,
u.name AS user_name, u.email AS user_email`

const enrollmentFrom = ` FROM enrollments e JOIN users u ON u.id = e.user_id`

// GetEnrollmentStats is the aggregation query: total count, per-department
// counts and the configured limits for one course, read atomically inside a
// single transaction.
func (repo *enrollmentRepository) GetEnrollmentStats(ctx context.Context, courseID string) (enrollment.Snapshot, error) {
	snap := enrollment.DefaultSnapshot(courseID)

	tx, err := repo.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return snap, errors.Wrap(err, "beginning stats tx")
	}
	defer func() { _ = tx.Rollback() }()

	if err := readStats(ctx, tx, courseID, &snap); err != nil {
		return enrollment.DefaultSnapshot(courseID), err
	}
	return snap, errors.Wrap(tx.Commit(), "committing stats tx")
}

func readStats(ctx context.Context, tx *sqlx.Tx, courseID string, snap *enrollment.Snapshot) error {
	var limits struct {
		CourseLimit     null.Int `db:"course_limit"`
		DepartmentLimit null.Int `db:"department_limit"`
	}
	query := `SELECT course_limit, department_limit FROM courses WHERE id = $1`
	if err := tx.GetContext(ctx, &limits, query, courseID); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.ErrNotFound
		}
		return errors.Wrap(err, "reading course limits")
	}
	snap.CourseLimit = limits.CourseLimit
	snap.DepartmentLimit = limits.DepartmentLimit

	query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status IN ('pending', 'approved')`
	if err := tx.GetContext(ctx, &snap.TotalEnrolled, query, courseID); err != nil {
		return errors.Wrap(err, "counting enrollments")
	}

	var counts []struct {
		Department string `db:"department"`
		Count      int    `db:"count"`
	}
	query = `
SELECT department, COUNT(*) AS count FROM enrollments
WHERE course_id = $1 AND status IN ('pending', 'approved') AND department <> ''
GROUP BY department`
	if err := tx.SelectContext(ctx, &counts, query, courseID); err != nil {
		return errors.Wrap(err, "counting department enrollments")
	}
	for _, c := range counts {
		snap.DepartmentCounts[c.Department] = c.Count
	}
	return nil
}

// CreateEnrollment is the authoritative write: the duplicate check and the
// limit re-check run inside the same transaction as the insert, so the caps
// hold even when the client-side gate raced a stale snapshot.
func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "beginning enroll tx")
	}
	defer func() { _ = tx.Rollback() }()

	// serialize writers per course
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, enr.CourseID); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "locking course")
	}

	var dup bool
	query := `
SELECT EXISTS (
	SELECT 1 FROM enrollments
	WHERE course_id = $1 AND user_id = $2 AND status IN ('pending', 'approved')
)`
	if err := tx.GetContext(ctx, &dup, query, enr.CourseID, enr.UserID); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "checking duplicate enrollment")
	}
	if dup {
		return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
	}

	snap := enrollment.DefaultSnapshot(enr.CourseID)
	if err := readStats(ctx, tx, enr.CourseID, &snap); err != nil {
		return enrollment.Enrollment{}, err
	}
	d := enrollment.Evaluate(snap)
	if d.LimitReached {
		return enrollment.Enrollment{}, enrollment.ErrCourseFull
	}
	if enr.Department != "" && snap.DepartmentLimit.Valid &&
		snap.DepartmentCounts[enr.Department] >= snap.DepartmentLimit.Int {
		return enrollment.Enrollment{}, enrollment.ErrDepartmentFull
	}

	query = `
INSERT INTO enrollments (id, course_id, user_id, department, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.ExecContext(ctx, query,
		enr.ID, enr.CourseID, enr.UserID, enr.Department, enr.Status, enr.CreatedAt, enr.UpdatedAt)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}

	if err := tx.Commit(); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "committing enroll tx")
	}
	return repo.GetEnrollmentByID(ctx, enr.ID)
}

func (repo *enrollmentRepository) GetEnrollmentByID(ctx context.Context, id string) (enrollment.Enrollment, error) {
	var enr enrollment.Enrollment
	query := `SELECT ` + enrollmentColumns + enrollmentFrom + ` WHERE e.id = $1`
	if err := repo.db.GetContext(ctx, &enr, query, id); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return enr, nil
}

func (repo *enrollmentRepository) FilterEnrollments(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.CourseID != "" {
		conds = append(conds, `e.course_id = `+arg(filter.CourseID))
	}
	if filter.UserID != "" {
		conds = append(conds, `e.user_id = `+arg(filter.UserID))
	}
	if filter.Status != "" {
		conds = append(conds, `e.status = `+arg(filter.Status))
	}

	query := `SELECT ` + enrollmentColumns + enrollmentFrom
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY e.created_at`

	enrs := make([]enrollment.Enrollment, 0)
	if err := repo.db.SelectContext(ctx, &enrs, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering enrollments")
	}
	return enrs, nil
}

func (repo *enrollmentRepository) UpdateEnrollmentStatus(ctx context.Context, id, status string) (enrollment.Enrollment, error) {
	valid := false
	for _, s := range enrollment.AllStatuses {
		if s == status {
			valid = true
			break
		}
	}
	if !valid {
		return enrollment.Enrollment{}, enrollment.ErrInvalidStatus
	}

	query := `UPDATE enrollments SET status = $2, updated_at = now() AT TIME ZONE 'utc' WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return repo.GetEnrollmentByID(ctx, id)
}
