package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/course"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/user"
)

func createTestCourse(t *testing.T, slug, title string, courseLimit, deptLimit null.Int, isActive bool) course.Course {
	t.Helper()

	now := time.Now().UTC()
	crs, err := crsRepo.CreateCourse(context.Background(), course.Course{
		ID:              uuid.New().String(),
		Slug:            slug,
		Title:           title,
		Level:           course.LevelBeginner,
		CourseLimit:     courseLimit,
		DepartmentLimit: deptLimit,
		IsActive:        isActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func Test_courseApi_query(t *testing.T) {
	app := setup(t)

	golang := createTestCourse(t, "go-basics", "Go Basics", null.IntFrom(30), null.Int{}, true)
	sql := createTestCourse(t, "sql-advanced", "Advanced SQL", null.Int{}, null.Int{}, true)
	createTestCourse(t, "old-cobol", "COBOL Legacy", null.Int{}, null.Int{}, false)

	tests := []httpTest{
		{name: "active courses only", path: "/v1/courses", wantData: marchallList(t, golang, sql)},
		{name: "search", path: "/v1/courses?search=sql", wantData: marchallList(t, sql)},
		{name: "level", path: "/v1/courses?level=advanced", wantData: marchallObj(t, []course.Course{})},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_retrieve(t *testing.T) {
	app := setup(t)

	golang := createTestCourse(t, "go-basics", "Go Basics", null.IntFrom(30), null.Int{}, true)

	tests := []httpTest{
		{name: "by slug", path: "/v1/courses/go-basics", wantData: marchallObj(t, golang)},
		{name: "by id", path: "/v1/courses/" + golang.ID, wantData: marchallObj(t, golang)},
		{
			name: "unknown", path: "/v1/courses/lol", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_create(t *testing.T) {
	app := setup(t)

	student := createTestUser(t, "Student", "student", "student@test.cd", "", "TI", []string{user.RoleStudent}, true)
	admin := createTestUser(t, "Admin", "admin1", "admin@test.cd", "", "", []string{user.RoleAdmin}, true)

	body := marchallObj(t, course.NewCourse{
		Slug:        "go-basics",
		Title:       "Go Basics",
		Level:       course.LevelBeginner,
		CourseLimit: null.IntFrom(30),
	})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, body: body, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, student), body: body, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "created", token: getToken(t, admin), body: body, wantCode: http.StatusCreated},
		{
			name: "duplicate slug", token: getToken(t, admin), body: body, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"slug": "a course with this slug already exists"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/courses"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_banersAndFAQs(t *testing.T) {
	app := setup(t)

	testDB.AddBanner(course.Banner{ID: uuid.New().String(), Title: "Learn Go", Position: 1, IsActive: true})
	testDB.AddBanner(course.Banner{ID: uuid.New().String(), Title: "Old promo", Position: 2, IsActive: false})
	testDB.AddFAQ(course.FAQ{ID: uuid.New().String(), Question: "How do I enroll?", Answer: "Click enroll.", Position: 1, IsActive: true})

	req, rec := newRequest(http.MethodGet, "/v1/banners")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("banners: code = %v; want %v", rec.Code, http.StatusOK)
	}
	banners, err := crsRepo.QueryActiveBanners(context.Background())
	if err != nil {
		t.Fatalf("QueryActiveBanners() failed: %v", err)
	}
	if len(banners) != 1 {
		t.Errorf("expected 1 active banner, got %d", len(banners))
	}

	req, rec = newRequest(http.MethodGet, "/v1/faqs")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("faqs: code = %v; want %v", rec.Code, http.StatusOK)
	}
}
