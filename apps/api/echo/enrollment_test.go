package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/course"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/enrollment"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/user"
)

func createTestEnrollment(t *testing.T, crs course.Course, usr user.User) enrollment.Enrollment {
	t.Helper()

	now := time.Now().UTC()
	enr, err := enrRepo.CreateEnrollment(context.Background(), enrollment.Enrollment{
		ID:         uuid.New().String(),
		CourseID:   crs.ID,
		UserID:     usr.ID,
		Department: usr.Department,
		Status:     enrollment.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}

func Test_enrollmentApi_admission(t *testing.T) {
	app := setup(t)

	tiStudent := createTestUser(t, "TI Student", "ti1", "ti1@test.cd", "", "TI", []string{user.RoleStudent}, true)
	hrStudent := createTestUser(t, "HR Student", "hr1", "hr1@test.cd", "", "HR", []string{user.RoleStudent}, true)

	openCrs := createTestCourse(t, "go-basics", "Go Basics", null.IntFrom(30), null.IntFrom(15), true)
	deptCrs := createTestCourse(t, "sql-advanced", "Advanced SQL", null.IntFrom(30), null.IntFrom(2), true)
	fullCrs := createTestCourse(t, "docker-intro", "Docker Intro", null.IntFrom(2), null.IntFrom(2), true)

	// advanced SQL: TI at its department cap, course-wide capacity left
	createTestEnrollment(t, deptCrs, tiStudent)
	createTestEnrollment(t, deptCrs, createTestUser(t, "TI 2", "ti2", "ti2@test.cd", "", "TI", []string{user.RoleStudent}, true))

	// docker intro: both the course limit and TI's department limit reached
	createTestEnrollment(t, fullCrs, createTestUser(t, "TI 3", "ti3", "ti3@test.cd", "", "TI", []string{user.RoleStudent}, true))
	createTestEnrollment(t, fullCrs, createTestUser(t, "TI 4", "ti4", "ti4@test.cd", "", "TI", []string{user.RoleStudent}, true))

	tests := []httpTest{
		{name: "Auth required", path: "/v1/courses/go-basics/admission", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "unknown course", path: "/v1/courses/lol/admission", token: getToken(t, tiStudent),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "open", path: "/v1/courses/go-basics/admission", token: getToken(t, tiStudent),
			wantData: marchallObj(t, AdmissionResponse{
				GateStatus: enrollment.GateStatus{
					State:                   enrollment.GateOpen,
					CanEnroll:               true,
					DepartmentLimitsReached: []string{},
					Occupied:                0,
					Max:                     openCrs.CourseLimit,
				},
				DepartmentAllowed: true,
			}),
		},
		{
			name: "department warning for capped department", path: "/v1/courses/sql-advanced/admission", token: getToken(t, tiStudent),
			wantData: marchallObj(t, AdmissionResponse{
				GateStatus: enrollment.GateStatus{
					State:                   enrollment.GateDepartmentWarning,
					CanEnroll:               true,
					DepartmentLimitsReached: []string{"TI"},
					Occupied:                2,
					Max:                     deptCrs.CourseLimit,
				},
				DepartmentAllowed: false,
			}),
		},
		{
			name: "department warning does not block other departments", path: "/v1/courses/sql-advanced/admission", token: getToken(t, hrStudent),
			wantData: marchallObj(t, AdmissionResponse{
				GateStatus: enrollment.GateStatus{
					State:                   enrollment.GateDepartmentWarning,
					CanEnroll:               true,
					DepartmentLimitsReached: []string{"TI"},
					Occupied:                2,
					Max:                     deptCrs.CourseLimit,
				},
				DepartmentAllowed: true,
			}),
		},
		{
			name: "course blocked wins over department warning", path: "/v1/courses/docker-intro/admission", token: getToken(t, hrStudent),
			wantData: marchallObj(t, AdmissionResponse{
				GateStatus: enrollment.GateStatus{
					State:                   enrollment.GateCourseBlocked,
					CanEnroll:               false,
					LimitReached:            true,
					DepartmentLimitsReached: []string{"TI"},
					Occupied:                2,
					Max:                     fullCrs.CourseLimit,
				},
				DepartmentAllowed: true,
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_enrollmentApi_enroll(t *testing.T) {
	app := setup(t)

	ti1 := createTestUser(t, "TI 1", "ti1", "ti1@test.cd", "", "TI", []string{user.RoleStudent}, true)
	ti2 := createTestUser(t, "TI 2", "ti2", "ti2@test.cd", "", "TI", []string{user.RoleStudent}, true)
	hr1 := createTestUser(t, "HR 1", "hr1", "hr1@test.cd", "", "HR", []string{user.RoleStudent}, true)
	ops1 := createTestUser(t, "Ops 1", "ops1", "ops1@test.cd", "", "OPS", []string{user.RoleStudent}, true)

	createTestCourse(t, "go-basics", "Go Basics", null.IntFrom(2), null.IntFrom(1), true)
	createTestCourse(t, "old-cobol", "COBOL Legacy", null.Int{}, null.Int{}, false)

	t.Run("Auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodPost, "/v1/courses/go-basics/enroll")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("inactive course", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/old-cobol/enroll", getToken(t, ti1))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("enrolled", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/go-basics/enroll", getToken(t, ti1))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		var enr enrollment.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
			t.Fatalf("could not unmarshal response; err %v", err)
		}
		if enr.UserID != ti1.ID {
			t.Errorf("UserID = %v; want %v", enr.UserID, ti1.ID)
		}
		if enr.Department != "TI" {
			t.Errorf("Department = %v; want TI", enr.Department)
		}
		if enr.Status != enrollment.StatusPending {
			t.Errorf("Status = %v; want %v", enr.Status, enrollment.StatusPending)
		}
	})

	t.Run("duplicate enrollment", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: enrollment.ErrAlreadyEnrolled.Error()}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/go-basics/enroll", getToken(t, ti1))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("department full", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: enrollment.ErrDepartmentFull.Error()}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/go-basics/enroll", getToken(t, ti2))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("course full", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/go-basics/enroll", getToken(t, hr1))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		tt := httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: enrollment.ErrCourseFull.Error()}),
		}
		req, rec = newAuthRequest(http.MethodPost, "/v1/courses/go-basics/enroll", getToken(t, ops1))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

// Test_enrollmentApi_liveInvalidation checks that enrollment writes made
// outside a gate still show up in subsequent admission responses through the
// change feed.
func Test_enrollmentApi_liveInvalidation(t *testing.T) {
	app := setup(t)

	student := createTestUser(t, "Student", "student", "student@test.cd", "", "TI", []string{user.RoleStudent}, true)
	crs := createTestCourse(t, "go-basics", "Go Basics", null.IntFrom(2), null.Int{}, true)

	admission := func(t *testing.T) AdmissionResponse {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/go-basics/admission", getToken(t, student))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("admission failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resp AdmissionResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("could not unmarshal response; err %v", err)
		}
		return resp
	}

	if resp := admission(t); resp.Occupied != 0 || resp.State != enrollment.GateOpen {
		t.Fatalf("initial admission = %+v; want open with 0 occupied", resp)
	}

	createTestEnrollment(t, crs, createTestUser(t, "Other 1", "other1", "other1@test.cd", "", "HR", []string{user.RoleStudent}, true))
	if resp := admission(t); resp.Occupied != 1 || resp.State != enrollment.GateOpen {
		t.Fatalf("admission after first write = %+v; want open with 1 occupied", resp)
	}

	createTestEnrollment(t, crs, createTestUser(t, "Other 2", "other2", "other2@test.cd", "", "HR", []string{user.RoleStudent}, true))
	resp := admission(t)
	if resp.Occupied != 2 {
		t.Errorf("Occupied = %v; want 2", resp.Occupied)
	}
	if resp.State != enrollment.GateCourseBlocked {
		t.Errorf("State = %v; want %v", resp.State, enrollment.GateCourseBlocked)
	}
	if resp.CanEnroll {
		t.Error("CanEnroll = true; want false")
	}

	// cancelling frees a seat and the gate reopens
	enrs, err := enrRepo.FilterEnrollments(context.Background(), enrollment.QueryFilter{CourseID: crs.ID})
	if err != nil {
		t.Fatalf("FilterEnrollments() failed: %v", err)
	}
	if _, err := enrRepo.UpdateEnrollmentStatus(context.Background(), enrs[0].ID, enrollment.StatusCancelled); err != nil {
		t.Fatalf("UpdateEnrollmentStatus() failed: %v", err)
	}
	if resp := admission(t); resp.Occupied != 1 || resp.State != enrollment.GateOpen {
		t.Fatalf("admission after cancel = %+v; want open with 1 occupied", resp)
	}
}

func Test_enrollmentApi_query(t *testing.T) {
	app := setup(t)

	student := createTestUser(t, "Student", "student", "student@test.cd", "", "TI", []string{user.RoleStudent}, true)
	other := createTestUser(t, "Other", "other", "other@test.cd", "", "HR", []string{user.RoleStudent}, true)
	admin := createTestUser(t, "Admin", "admin1", "admin@test.cd", "", "", []string{user.RoleAdmin}, true)

	crs := createTestCourse(t, "go-basics", "Go Basics", null.Int{}, null.Int{}, true)
	mine := createTestEnrollment(t, crs, student)
	theirs := createTestEnrollment(t, crs, other)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student sees own only", token: getToken(t, student), wantData: marchallList(t, mine)},
		{name: "admin sees all", token: getToken(t, admin), wantData: marchallList(t, mine, theirs)},
		{name: "admin filters by user", token: getToken(t, admin), path: "/v1/enrollments?user_id=" + other.ID, wantData: marchallList(t, theirs)},
		{name: "student cannot read others", token: getToken(t, student), path: "/v1/enrollments?user_id=" + other.ID, wantData: marchallList(t, mine)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.path == "" {
			tt.path = "/v1/enrollments"
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_enrollmentApi_statusChanges(t *testing.T) {
	app := setup(t)

	student := createTestUser(t, "Student", "student", "student@test.cd", "", "TI", []string{user.RoleStudent}, true)
	other := createTestUser(t, "Other", "other", "other@test.cd", "", "HR", []string{user.RoleStudent}, true)
	admin := createTestUser(t, "Admin", "admin1", "admin@test.cd", "", "", []string{user.RoleAdmin}, true)

	crs := createTestCourse(t, "go-basics", "Go Basics", null.Int{}, null.Int{}, true)

	status := func(t *testing.T, id string) string {
		t.Helper()
		enr, err := enrRepo.GetEnrollmentByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetEnrollmentByID() failed: %v", err)
		}
		return enr.Status
	}

	t.Run("approve requires admin", func(t *testing.T) {
		enr := createTestEnrollment(t, crs, student)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/"+enr.ID+"/approve", getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("approve", func(t *testing.T) {
		enrs, _ := enrRepo.FilterEnrollments(context.Background(), enrollment.QueryFilter{UserID: student.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/"+enrs[0].ID+"/approve", getToken(t, admin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if got := status(t, enrs[0].ID); got != enrollment.StatusApproved {
			t.Errorf("status = %v; want %v", got, enrollment.StatusApproved)
		}
	})

	t.Run("reject", func(t *testing.T) {
		enr := createTestEnrollment(t, crs, other)
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/"+enr.ID+"/reject", getToken(t, admin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if got := status(t, enr.ID); got != enrollment.StatusRejected {
			t.Errorf("status = %v; want %v", got, enrollment.StatusRejected)
		}
	})

	t.Run("approve unknown enrollment", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: enrollment.ErrNotFound.Error()})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/lol/approve", getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("cancel by non-owner", func(t *testing.T) {
		enr := createTestEnrollment(t, crs, other)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/"+enr.ID+"/cancel", getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		if got := status(t, enr.ID); got != enrollment.StatusPending {
			t.Errorf("status = %v; want %v", got, enrollment.StatusPending)
		}
	})

	t.Run("cancel by owner", func(t *testing.T) {
		enrs, _ := enrRepo.FilterEnrollments(context.Background(), enrollment.QueryFilter{UserID: other.ID, Status: enrollment.StatusPending})
		if len(enrs) == 0 {
			t.Fatal("expected a pending enrollment")
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/"+enrs[0].ID+"/cancel", getToken(t, other))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if got := status(t, enrs[0].ID); got != enrollment.StatusCancelled {
			t.Errorf("status = %v; want %v", got, enrollment.StatusCancelled)
		}
	})
}
