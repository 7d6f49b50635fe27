package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) GetEnrollmentStats(_ context.Context, courseID string) (enrollment.Snapshot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.readStats(courseID)
}

// readStats expects the caller to hold the db mutex.
func (repo *enrollmentRepository) readStats(courseID string) (enrollment.Snapshot, error) {
	snap := enrollment.DefaultSnapshot(courseID)

	crs, ok := repo.db.courses[courseID]
	if !ok {
		return snap, enrollment.ErrNotFound
	}
	snap.CourseLimit = crs.CourseLimit
	snap.DepartmentLimit = crs.DepartmentLimit

	for _, enr := range repo.db.enrollments {
		if enr.CourseID != courseID || !enr.IsActive() {
			continue
		}
		snap.TotalEnrolled++
		if enr.Department != "" {
			snap.DepartmentCounts[enr.Department]++
		}
	}
	return snap, nil
}

// CreateEnrollment mirrors the SQL repository: the duplicate check and the
// limit re-check run under the same lock as the insert.
func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mutex.Lock()

	for _, e := range repo.db.enrollments {
		if e.CourseID == enr.CourseID && e.UserID == enr.UserID && e.IsActive() {
			repo.db.mutex.Unlock()
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
	}

	snap, err := repo.readStats(enr.CourseID)
	if err != nil {
		repo.db.mutex.Unlock()
		return enrollment.Enrollment{}, err
	}
	d := enrollment.Evaluate(snap)
	if d.LimitReached {
		repo.db.mutex.Unlock()
		return enrollment.Enrollment{}, enrollment.ErrCourseFull
	}
	if enr.Department != "" && snap.DepartmentLimit.Valid &&
		snap.DepartmentCounts[enr.Department] >= snap.DepartmentLimit.Int {
		repo.db.mutex.Unlock()
		return enrollment.Enrollment{}, enrollment.ErrDepartmentFull
	}

	if usr, ok := repo.db.users[enr.UserID]; ok {
		enr.UserName = usr.Name
		enr.UserEmail = usr.Email
	}
	stored := enr
	repo.db.enrollments[enr.ID] = &stored
	repo.db.mutex.Unlock()

	repo.db.broker.Publish(core.ChangeEvent{
		Table:    enrollment.EnrollmentsTable,
		Op:       core.ChangeOpInsert,
		CourseID: enr.CourseID,
	})
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(_ context.Context, id string) (enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return *enr, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) FilterEnrollments(_ context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enrs := make([]enrollment.Enrollment, 0)
	for _, enr := range repo.db.enrollments {
		if filter.CourseID != "" && enr.CourseID != filter.CourseID {
			continue
		}
		if filter.UserID != "" && enr.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && enr.Status != filter.Status {
			continue
		}
		enrs = append(enrs, *enr)
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].CreatedAt.Before(enrs[j].CreatedAt) })
	return enrs, nil
}

func (repo *enrollmentRepository) UpdateEnrollmentStatus(_ context.Context, id, status string) (enrollment.Enrollment, error) {
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

	repo.db.mutex.Lock()
	enr, ok := repo.db.enrollments[id]
	if !ok {
		repo.db.mutex.Unlock()
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	enr.Status = status
	enr.UpdatedAt = time.Now().UTC()
	updated := *enr
	repo.db.mutex.Unlock()

	repo.db.broker.Publish(core.ChangeEvent{
		Table:    enrollment.EnrollmentsTable,
		Op:       core.ChangeOpUpdate,
		CourseID: updated.CourseID,
	})
	return updated, nil
}
