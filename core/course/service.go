package course

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

var (
	// errors
	ErrNotFound   = errors.New("course not found")
	ErrSlugExists = errors.New("a course with this slug already exists")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		// FilterCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Course.Title,
		// Course.Summary or Course.Category.
		FilterCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		GetCourseBySlug(ctx context.Context, slug string) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, isActive *bool) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error

		QueryActiveBanners(ctx context.Context) ([]Banner, error)
		QueryActiveFAQs(ctx context.Context) ([]FAQ, error)
	}

	Service interface {
		CheckSlugUniqueness(slug string) error
		Create(ctx context.Context, nc NewCourse) (Course, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		GetBySlug(ctx context.Context, slug string) (Course, error)
		Update(ctx context.Context, orig Course, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, ids ...string) error
		Banners(ctx context.Context) ([]Banner, error)
		FAQs(ctx context.Context) ([]FAQ, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckSlugUniqueness(slug string) error {
	if err := svc.repo.CheckSlugUniqueness(context.Background(), slug); err != nil {
		if err == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		ID:              uuid.New().String(),
		Slug:            nc.Slug,
		Title:           nc.Title,
		Summary:         nc.Summary,
		Description:     nc.Description,
		Category:        nc.Category,
		Level:           nc.Level,
		DurationHours:   nc.DurationHours,
		StartDate:       nc.StartDate,
		ImageURL:        nc.ImageURL,
		CourseLimit:     nc.CourseLimit,
		DepartmentLimit: nc.DepartmentLimit,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Course, error) {
	return svc.repo.FilterCourses(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) GetBySlug(ctx context.Context, slug string) (Course, error) {
	return svc.repo.GetCourseBySlug(ctx, core.CleanString(slug, true /* lower */))
}

func (svc *service) Update(ctx context.Context, orig Course, uc UpdateCourse) (Course, error) {
	crs := Course{
		ID:              orig.ID,
		Slug:            orig.Slug,
		Title:           uc.Title,
		Summary:         uc.Summary,
		Description:     uc.Description,
		Category:        uc.Category,
		Level:           uc.Level,
		StartDate:       uc.StartDate,
		ImageURL:        uc.ImageURL,
		CourseLimit:     uc.CourseLimit,
		DepartmentLimit: uc.DepartmentLimit,
		UpdatedAt:       time.Now().UTC(),
	}
	if uc.DurationHours != nil {
		crs.DurationHours = *uc.DurationHours
	} else {
		crs.DurationHours = orig.DurationHours
	}
	return svc.repo.UpdateCourse(ctx, crs, uc.IsActive)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

func (svc *service) Banners(ctx context.Context) ([]Banner, error) {
	return svc.repo.QueryActiveBanners(ctx)
}

func (svc *service) FAQs(ctx context.Context) ([]FAQ, error) {
	return svc.repo.QueryActiveFAQs(ctx)
}
