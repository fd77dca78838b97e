package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tutorlink/backend/core/user"
	testutil "github.com/tutorlink/backend/tests"
)

func Test_userApi_register(t *testing.T) {
	existing := testutil.CreateUser(t, usrRepo, "Taken", "taken@test.cd", "Str0ngPass!", user.RoleStudent, true)

	body := func(name, email, pwd, role string) []byte {
		return marchallObj(t, user.NewUser{
			Name: name, Email: email, Password: pwd, PasswordConfirm: pwd, Role: role,
		})
	}

	tests := []httpTest{
		{
			name: "email already taken", wantCode: http.StatusBadRequest,
			body:     body("Someone Else", existing.Email, "Str0ngPass!", user.RoleStudent),
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "weak password", wantCode: http.StatusBadRequest,
			body: body("Weak Pwd", "weak@test.cd", "abc", user.RoleStudent),
		},
		{
			name: "unknown role", wantCode: http.StatusBadRequest,
			body: body("No Role", "norole@test.cd", "Str0ngPass!", "admin"),
		},
		{name: "student", wantCode: http.StatusCreated, body: body("New Student", "stud@test.cd", "Str0ngPass!", user.RoleStudent)},
		{name: "tutor", wantCode: http.StatusCreated, body: body("New Tutor", "tut@test.cd", "Str0ngPass!", user.RoleTutor)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/register", tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
			if tt.wantCode == http.StatusCreated {
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if usr.ID == "" {
					t.Error("created user has no id")
				}
				if usr.EmailConfirmed {
					t.Error("new accounts must start unconfirmed")
				}
			}
		})
	}
}

func Test_userApi_login(t *testing.T) {
	pwd := "Str0ngPass!"
	confirmed := testutil.CreateUser(t, usrRepo, "Confirmed", "ok@test.cd", pwd, user.RoleStudent, true)

	unconfirmed := testutil.CreateUser(t, usrRepo, "Unconfirmed", "meh@test.cd", pwd, user.RoleStudent, true)
	unconfirmed.EmailConfirmed = false
	if _, err := usrRepo.UpdateUser(context.Background(), unconfirmed); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}

	inactive := testutil.CreateUser(t, usrRepo, "Inactive", "off@test.cd", pwd, user.RoleStudent, false)

	body := func(email, pwd string) []byte {
		return marchallObj(t, map[string]string{"email": email, "password": pwd})
	}

	tests := []httpTest{
		{
			name: "unknown email", body: body("ghost@test.cd", pwd), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: body(confirmed.Email, "nope"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unconfirmed email", body: body(unconfirmed.Email, pwd), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "email address not confirmed"}),
		},
		{
			name: "deactivated account", body: body(inactive.Email, pwd), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "success", body: body(confirmed.Email, pwd), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
			if tt.wantCode == http.StatusOK {
				var res struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if res.Token == "" {
					t.Error("login returned an empty token")
				}
			}
		})
	}
}

func Test_userApi_retrieveSelf(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Me Myself", "myself@test.cd", "Str0ngPass!", user.RoleTutor, true)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "me", token: getToken(t, usr), wantCode: http.StatusOK, wantData: marchallObj(t, usr)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
