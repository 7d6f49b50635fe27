package enrollment

import (
	"time"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

var (
	AllStatuses = []string{StatusPending, StatusApproved, StatusRejected, StatusCancelled}

	// ActiveStatuses are the statuses counted against enrollment limits.
	ActiveStatuses = []string{StatusPending, StatusApproved}
)

type Enrollment struct {
	ID         string    `json:"id" db:"id"`
	CourseID   string    `json:"course_id" db:"course_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Department string    `json:"department" db:"department"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC

	// denormalized user info for listings and notification emails
	UserName  string `json:"user_name" db:"user_name"`
	UserEmail string `json:"user_email" db:"user_email"`
}

func (e Enrollment) IsActive() bool {
	return e.Status == StatusPending || e.Status == StatusApproved
}

// NewEnrollment contains information needed to enroll a user in a course.
type NewEnrollment struct {
	CourseID   string `json:"course_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required"`
	Department string `json:"department"` // may be empty; not all users belong to a department
}

func (ne *NewEnrollment) Validate() error {
	ne.CourseID = core.CleanString(ne.CourseID)
	ne.UserID = core.CleanString(ne.UserID)
	ne.Department = core.CleanString(ne.Department)
	return core.Validate.Struct(ne)
}

type QueryFilter struct {
	CourseID string `query:"course_id"`
	UserID   string `query:"user_id"`
	Status   string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.CourseID == "" && qf.UserID == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.CourseID = core.CleanString(qf.CourseID)
	qf.UserID = core.CleanString(qf.UserID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
