package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/user"
	emailsvc "github.com/inaciofernandocosta/ignite-corp-catalog-sub001/services/email"
)

func createTestUser(t *testing.T, name, uname, email, pwd, dept string, roles []string, isActive bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		ID:         uuid.New().String(),
		Name:       name,
		Username:   uname,
		Email:      email,
		Department: dept,
		IsActive:   isActive,
		Roles:      roles,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword() failed: %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	createTestUser(t, "Student", "student", "student@test.cd", "s3cret", "TI", []string{user.RoleStudent}, true)
	createTestUser(t, "Lazy", "lazybones", "lazy@test.cd", "s3cret", "", []string{user.RoleStudent}, false)

	tests := []httpTest{
		{
			name: "empty body", body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "username is a required field", "password": "password is a required field"}),
		},
		{
			name: "unknown user", body: marchallObj(t, LoginRequest{Username: "lol", Password: "s3cret"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marchallObj(t, LoginRequest{Username: "student", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: marchallObj(t, LoginRequest{Username: "lazybones", Password: "s3cret"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "login with username", body: marchallObj(t, LoginRequest{Username: "student", Password: "s3cret"}), wantCode: http.StatusOK},
		{name: "login with email", body: marchallObj(t, LoginRequest{Username: "student@test.cd", Password: "s3cret"}), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}
				if resp.Token == "" {
					t.Error("expected a token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	student := createTestUser(t, "Student", "student", "student@test.cd", "", "TI", []string{user.RoleStudent}, true)
	admin := createTestUser(t, "Admin", "admin1", "admin@test.cd", "", "", []string{user.RoleAdmin}, true)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all", path: "/v1/users", token: getToken(t, admin), wantData: marchallList(t, student, admin)},
		{name: "search", path: "/v1/users?search=stud", token: getToken(t, admin), wantData: marchallList(t, student)},
		{name: "department", path: "/v1/users?department=TI", token: getToken(t, admin), wantData: marchallList(t, student)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)

	usr := createTestUser(t, "Student", "student", "student@test.cd", "0ldpwd", "", []string{user.RoleStudent}, true)

	emailsvc.SentMessages = nil // reset
	body := marchallObj(t, PasswordResetRequest{Email: usr.Email})
	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(emailsvc.SentMessages))
	}

	// unknown emails get the same response and no mail
	emailsvc.SentMessages = nil
	body = marchallObj(t, PasswordResetRequest{Email: "who@test.cd"})
	req, rec = newRequest(http.MethodPost, "/v1/users/password-reset", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	if len(emailsvc.SentMessages) != 0 {
		t.Fatalf("expected no sent message, got %d", len(emailsvc.SentMessages))
	}

	// full reset flow with a generated token
	token, err := user.MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	body = marchallObj(t, user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           token,
		Password:        "n3wStr0ngPwd!",
		PasswordConfirm: "n3wStr0ngPwd!",
	})
	req, rec = newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	refreshed, err := usrRepo.GetUserByID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if err := refreshed.CheckPassword("n3wStr0ngPwd!"); err != nil {
		t.Error("expected new password to be set")
	}
}

func Test_userApi_impersonate(t *testing.T) {
	app := setup(t)

	student := createTestUser(t, "Student", "student", "student@test.cd", "", "TI", []string{user.RoleStudent}, true)
	admin := createTestUser(t, "Admin", "admin1", "admin@test.cd", "", "", []string{user.RoleAdmin}, true)
	sleeper := createTestUser(t, "Sleeper", "sleeper", "sleeper@test.cd", "", "", []string{user.RoleStudent}, false)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + student.ID + "/impersonate", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users/" + admin.ID + "/impersonate", token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "cannot impersonate self", path: "/v1/users/" + admin.ID + "/impersonate", token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "cannot impersonate deactivated", path: "/v1/users/" + sleeper.ID + "/impersonate", token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "impersonate", path: "/v1/users/" + student.ID + "/impersonate", token: adminToken, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}

				claims := new(Claims)
				if _, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
					return appJWTConfig.SigningKey, nil
				}); err != nil {
					t.Fatalf("parsing impersonation token failed: %v", err)
				}
				if claims.Subject != student.ID {
					t.Errorf("claims.Subject = %s; want %s", claims.Subject, student.ID)
				}
				if claims.ImpersonatedBy != admin.ID {
					t.Errorf("claims.ImpersonatedBy = %s; want %s", claims.ImpersonatedBy, admin.ID)
				}
				if claims.Department != student.Department {
					t.Errorf("claims.Department = %s; want %s", claims.Department, student.Department)
				}

				// impersonation tokens cannot be refreshed
				req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", resp.Token)
				app.ServeHTTP(rec, req)
				if rec.Code != http.StatusForbidden {
					t.Errorf("refresh with impersonation token: code = %v; want %v", rec.Code, http.StatusForbidden)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
