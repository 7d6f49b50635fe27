package course

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

// Levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

var AllLevels = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}

type Course struct {
	ID            string    `json:"id" db:"id"`
	Slug          string    `json:"slug" db:"slug"`
	Title         string    `json:"title" db:"title"`
	Summary       string    `json:"summary" db:"summary"`
	Description   string    `json:"description" db:"description"`
	Category      string    `json:"category" db:"category"`
	Level         string    `json:"level" db:"level"`
	DurationHours int       `json:"duration_hours" db:"duration_hours"`
	StartDate     null.Time `json:"start_date" db:"start_date"`
	ImageURL      string    `json:"image_url" db:"image_url"`

	// enrollment caps; absent means uncapped
	CourseLimit     null.Int `json:"course_limit" db:"course_limit"`
	DepartmentLimit null.Int `json:"department_limit" db:"department_limit"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Slug            string   `json:"slug" validate:"required,max=100"`
	Title           string   `json:"title" validate:"required,max=200"`
	Summary         string   `json:"summary" validate:"max=500"`
	Description     string   `json:"description"`
	Category        string   `json:"category" validate:"max=100"`
	Level           string   `json:"level" validate:"omitempty,courselevel"`
	DurationHours   int      `json:"duration_hours" validate:"min=0"`
	StartDate       null.Time `json:"start_date"`
	ImageURL        string   `json:"image_url" validate:"omitempty,url"`
	CourseLimit     null.Int `json:"course_limit"`
	DepartmentLimit null.Int `json:"department_limit"`
}

func (nc *NewCourse) Validate(svc Service) error {
	nc.Slug = core.CleanString(nc.Slug, true /* lower */)
	nc.Title = core.CleanString(nc.Title)
	nc.Category = core.CleanString(nc.Category)
	nc.Level = core.CleanString(nc.Level, true /* lower */)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	if err := validateLimits(nc.CourseLimit, nc.DepartmentLimit); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(nc.Slug)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title           string    `json:"title" validate:"omitempty,max=200"`
	Summary         string    `json:"summary" validate:"max=500"`
	Description     string    `json:"description"`
	Category        string    `json:"category" validate:"max=100"`
	Level           string    `json:"level" validate:"omitempty,courselevel"`
	DurationHours   *int      `json:"duration_hours" validate:"omitempty,min=0"`
	StartDate       null.Time `json:"start_date"`
	ImageURL        string    `json:"image_url" validate:"omitempty,url"`
	CourseLimit     null.Int  `json:"course_limit"`
	DepartmentLimit null.Int  `json:"department_limit"`
	IsActive        *bool     `json:"is_active"`
}

func (uc *UpdateCourse) Validate(orig Course) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}
	uc.Category = core.CleanString(uc.Category)
	uc.Level = core.CleanString(uc.Level, true /* lower */)

	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	return validateLimits(uc.CourseLimit, uc.DepartmentLimit)
}

func validateLimits(courseLimit, deptLimit null.Int) error {
	var flds []core.FieldError
	if courseLimit.Valid && courseLimit.Int < 0 {
		flds = append(flds, core.FieldError{Field: "course_limit", Error: "limit cannot be negative"})
	}
	if deptLimit.Valid && deptLimit.Int < 0 {
		flds = append(flds, core.FieldError{Field: "department_limit", Error: "limit cannot be negative"})
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// Banner is a marketing banner displayed on the catalog landing page.
type Banner struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Subtitle  string    `json:"subtitle" db:"subtitle"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	LinkURL   string    `json:"link_url" db:"link_url"`
	Position  int       `json:"position" db:"position"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// FAQ is a frequently-asked-question entry displayed on the catalog landing page.
type FAQ struct {
	ID        string    `json:"id" db:"id"`
	Question  string    `json:"question" db:"question"`
	Answer    string    `json:"answer" db:"answer"`
	Position  int       `json:"position" db:"position"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type QueryFilter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Level    string `query:"level"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Category == "" && qf.Level == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
	qf.Level = core.CleanString(qf.Level, true /* lower */)
}
