package enrollment

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

var (
	// errors
	ErrNotFound        = errors.New("enrollment not found")
	ErrAlreadyEnrolled = errors.New("user already has an active enrollment in this course")
	ErrCourseFull      = errors.New("course enrollment limit reached")
	ErrDepartmentFull  = errors.New("department enrollment limit reached for this course")
	ErrInvalidStatus   = errors.New("invalid enrollment status")
)

type (
	Repository interface {
		StatsFetcher

		// CreateEnrollment performs the authoritative write: the duplicate
		// check and the limit re-check run inside the same transaction.
		// Returns ErrAlreadyEnrolled, ErrCourseFull or ErrDepartmentFull.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id string) (Enrollment, error)
		// FilterEnrollments applies AND operation on available QueryFilter fields.
		FilterEnrollments(ctx context.Context, filter QueryFilter) ([]Enrollment, error)
		UpdateEnrollmentStatus(ctx context.Context, id, status string) (Enrollment, error)
	}

	Service interface {
		Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error)
		GetByID(ctx context.Context, id string) (Enrollment, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Enrollment, error)
		Approve(ctx context.Context, id string) (Enrollment, error)
		Reject(ctx context.Context, id string) (Enrollment, error)
		Cancel(ctx context.Context, id string) (Enrollment, error)
		Stats(ctx context.Context, courseID string) (Snapshot, error)
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
	}
}

func (svc *service) Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	now := time.Now().UTC()
	enr := Enrollment{
		ID:         uuid.New().String(),
		CourseID:   ne.CourseID,
		UserID:     ne.UserID,
		Department: ne.Department,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	enr, err := svc.repo.CreateEnrollment(ctx, enr)
	if err != nil {
		return Enrollment{}, err
	}
	svc.sendStatusMail(enr, "enrollment-received", "Enrollment received")
	return enr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollmentByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Enrollment, error) {
	return svc.repo.FilterEnrollments(ctx, filter)
}

func (svc *service) Approve(ctx context.Context, id string) (Enrollment, error) {
	enr, err := svc.repo.UpdateEnrollmentStatus(ctx, id, StatusApproved)
	if err != nil {
		return Enrollment{}, err
	}
	svc.sendStatusMail(enr, "enrollment-approved", "Enrollment approved")
	return enr, nil
}

func (svc *service) Reject(ctx context.Context, id string) (Enrollment, error) {
	enr, err := svc.repo.UpdateEnrollmentStatus(ctx, id, StatusRejected)
	if err != nil {
		return Enrollment{}, err
	}
	svc.sendStatusMail(enr, "enrollment-rejected", "Enrollment update")
	return enr, nil
}

func (svc *service) Cancel(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.UpdateEnrollmentStatus(ctx, id, StatusCancelled)
}

func (svc *service) Stats(ctx context.Context, courseID string) (Snapshot, error) {
	return svc.repo.GetEnrollmentStats(ctx, courseID)
}

func (svc *service) sendStatusMail(enr Enrollment, template, subject string) {
	if enr.UserEmail == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: enr.UserName, Address: enr.UserEmail}},
		Subject:      subject,
		TemplateName: template,
		TemplateData: enr,
	})
}
