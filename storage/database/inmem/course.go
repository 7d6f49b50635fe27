package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses
}

func (repo *courseRepository) CheckSlugUniqueness(_ context.Context, slug string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, crs := range repo.db.courses {
		if crs.Slug == slug {
			return course.ErrSlugExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) FilterCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.query() {
		if matchesCourseFilter(crs, filter) {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func matchesCourseFilter(crs course.Course, filter course.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(crs.Title), search) &&
			!strings.Contains(strings.ToLower(crs.Summary), search) &&
			!strings.Contains(strings.ToLower(crs.Category), search) {
			return false
		}
	}
	if filter.Category != "" && !strings.EqualFold(crs.Category, filter.Category) {
		return false
	}
	if filter.Level != "" && crs.Level != filter.Level {
		return false
	}
	if filter.IsActive != nil && crs.IsActive != *filter.IsActive {
		return false
	}
	return true
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetCourseBySlug(_ context.Context, slug string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, crs := range repo.db.courses {
		if crs.Slug == slug {
			return *crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course, isActive *bool) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}

	if crs.Title != "" {
		orig.Title = crs.Title
	}
	orig.Summary = crs.Summary
	orig.Description = crs.Description
	orig.Category = crs.Category
	orig.Level = crs.Level
	orig.DurationHours = crs.DurationHours
	orig.StartDate = crs.StartDate
	orig.ImageURL = crs.ImageURL
	orig.CourseLimit = crs.CourseLimit
	orig.DepartmentLimit = crs.DepartmentLimit
	if !crs.UpdatedAt.IsZero() {
		orig.UpdatedAt = crs.UpdatedAt
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	return *orig, nil
}

func (repo *courseRepository) DeleteCoursesByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.courses, id)
	}
	return nil
}

func (repo *courseRepository) QueryActiveBanners(_ context.Context) ([]course.Banner, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	banners := make([]course.Banner, 0)
	for _, bnr := range repo.db.banners {
		if bnr.IsActive {
			banners = append(banners, bnr)
		}
	}
	sort.Slice(banners, func(i, j int) bool { return banners[i].Position < banners[j].Position })
	return banners, nil
}

func (repo *courseRepository) QueryActiveFAQs(_ context.Context) ([]course.FAQ, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	faqs := make([]course.FAQ, 0)
	for _, faq := range repo.db.faqs {
		if faq.IsActive {
			faqs = append(faqs, faq)
		}
	}
	sort.Slice(faqs, func(i, j int) bool { return faqs[i].Position < faqs[j].Position })
	return faqs, nil
}
