package accesshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pquerna/otp/totp"

	"hraccess/internal/domain/access"
	"hraccess/internal/domain/auth"
	"hraccess/internal/transport/http/middleware"
)

const testSecret = "test-secret"

type fixture struct {
	router  http.Handler
	service *access.Service
	store   *access.MemoryStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := access.NewMemoryStore(
		access.Credentials{User: access.User{ID: "emp", Name: "Abebe Kebede", Email: "abebe@company.com", Role: auth.RoleEmployee, Level: access.Level1}},
		access.Credentials{User: access.User{ID: "hr", Name: "Mulatu Tesfaye", Email: "mulatu@company.com", Role: auth.RoleHR, Level: access.Level2, CustomOverrides: []access.Feature{access.FeatureAttendanceManagement}}},
		access.Credentials{User: access.User{ID: "admin", Name: "Hanna Alemayehu", Email: "hanna@company.com", Role: auth.RoleAdmin, Level: access.Level3}},
	)
	service := access.NewService(store, nil, nil)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(testSecret))
	router.Route("/api/v1", func(r chi.Router) {
		NewHandler(service, nil).RegisterRoutes(r)
	})
	return fixture{router: router, service: service, store: store}
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Claims{UserID: userID}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	return token
}

func (f fixture) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func navPaths(items []access.NavItem) map[string]bool {
	out := map[string]bool{}
	for _, item := range items {
		out[item.Path] = true
	}
	return out
}

func TestRouteAuthorization(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		method string
		path   string
		user   string
		want   int
	}{
		{name: "anonymous me", method: http.MethodGet, path: "/api/v1/me", want: http.StatusUnauthorized},
		{name: "anonymous catalog", method: http.MethodGet, path: "/api/v1/catalog", want: http.StatusUnauthorized},
		{name: "employee me", method: http.MethodGet, path: "/api/v1/me", user: "emp", want: http.StatusOK},
		{name: "employee users", method: http.MethodGet, path: "/api/v1/users", user: "emp", want: http.StatusForbidden},
		{name: "hr users", method: http.MethodGet, path: "/api/v1/users", user: "hr", want: http.StatusOK},
		{name: "admin editor", method: http.MethodGet, path: "/api/v1/users/emp/permissions", user: "admin", want: http.StatusOK},
		{name: "editor unknown user", method: http.MethodGet, path: "/api/v1/users/ghost/permissions", user: "admin", want: http.StatusNotFound},
		{name: "token for deleted user", method: http.MethodGet, path: "/api/v1/me/permissions", user: "ghost", want: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.path, tc.user, "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestNavigationPerLevel(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		user    string
		visible []string
		hidden  []string
	}{
		{user: "emp", visible: []string{"/dashboard", "/attendance", "/leaves", "/payroll"}, hidden: []string{"/employees", access.PermissionsPath, "/premium"}},
		{user: "hr", visible: []string{"/employees", "/leave-management", access.PermissionsPath, "/attendance-overview"}, hidden: []string{"/payroll-management", "/premium"}},
		{user: "admin", visible: []string{"/payroll-management", "/recruitment", "/premium", access.PermissionsPath}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.user, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/v1/me/navigation", tc.user, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var items []access.NavItem
			decodeData(t, rec, &items)
			paths := navPaths(items)
			for _, p := range tc.visible {
				if !paths[p] {
					t.Fatalf("expected %s visible, got %v", p, paths)
				}
			}
			for _, p := range tc.hidden {
				if paths[p] {
					t.Fatalf("expected %s hidden", p)
				}
			}
		})
	}
}

func TestDashboardForEmployee(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/me/dashboard", "emp", "")
	var sections []access.DashboardSection
	decodeData(t, rec, &sections)
	if len(sections) != 3 || sections[0].ID != "personal" || len(sections[0].Widgets) != 4 {
		t.Fatalf("unexpected dashboard %+v", sections)
	}
	for _, section := range sections {
		if section.ID == "hr" || section.ID == "organization" || section.ID == "departments" {
			t.Fatalf("employee should not see %s section", section.ID)
		}
		for _, w := range section.Widgets {
			if w.Feature == access.FeatureEmployeesList || w.Feature == access.FeatureJobPosts {
				t.Fatalf("employee should not see widget %s", w.ID)
			}
		}
	}
}

func TestFeatureCheck(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		user    string
		feature string
		known   bool
		allowed bool
	}{
		{user: "emp", feature: "payroll_page", known: true, allowed: true},
		{user: "emp", feature: "employees_list", known: true, allowed: false},
		{user: "hr", feature: "attendance_management", known: true, allowed: true},
		{user: "admin", feature: "teleport", known: false, allowed: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.user+"/"+tc.feature, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/v1/features/"+tc.feature+"/check", tc.user, "")
			var check featureCheck
			decodeData(t, rec, &check)
			if check.Known != tc.known || check.Allowed != tc.allowed {
				t.Fatalf("unexpected check %+v", check)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/catalog", "emp", "")
	var view catalogView
	decodeData(t, rec, &view)
	if len(view.Features) != len(access.Catalog()) || len(view.Levels) != 3 {
		t.Fatalf("unexpected catalog sizes %d/%d", len(view.Features), len(view.Levels))
	}
}

func TestProposeAndConfirmChange(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/users/emp/permissions/preview", "admin", `{"level":"LEVEL_1","overrides":["employees_list","payroll_page"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var change access.PendingChange
	decodeData(t, rec, &change)
	if len(change.Added) != 1 || change.Added[0] != access.FeatureEmployeesList {
		t.Fatalf("unexpected diff %+v", change.Added)
	}
	if len(change.Overrides) != 1 {
		t.Fatalf("tier-implied override should be dropped, got %v", change.Overrides)
	}

	before := f.do(t, http.MethodGet, "/api/v1/features/employees_list/check", "emp", "")
	var check featureCheck
	decodeData(t, before, &check)
	if check.Allowed {
		t.Fatal("proposal must not take effect before confirmation")
	}

	if rec := f.do(t, http.MethodGet, "/api/v1/permission-changes/"+change.ID, "admin", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected pending change to be readable, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/permission-changes/"+change.ID+"/confirm", "hr", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected another editor to be forbidden, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/v1/permission-changes/"+change.ID+"/confirm", "admin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	after := f.do(t, http.MethodGet, "/api/v1/features/employees_list/check", "emp", "")
	decodeData(t, after, &check)
	if !check.Allowed {
		t.Fatal("expected override to apply on the next request")
	}

	nav := f.do(t, http.MethodGet, "/api/v1/me/navigation", "emp", "")
	var items []access.NavItem
	decodeData(t, nav, &items)
	if !navPaths(items)["/employees"] {
		t.Fatal("expected employees entry after override")
	}

	if rec := f.do(t, http.MethodPost, "/api/v1/permission-changes/"+change.ID+"/confirm", "admin", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected confirmed change to be gone, got %d", rec.Code)
	}
}

func TestProposeValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "unknown level", path: "/api/v1/users/emp/permissions/preview", body: `{"level":"LEVEL_4"}`, want: http.StatusBadRequest},
		{name: "unknown feature", path: "/api/v1/users/emp/permissions/preview", body: `{"level":"LEVEL_1","overrides":["root_access"]}`, want: http.StatusBadRequest},
		{name: "missing level", path: "/api/v1/users/emp/permissions/preview", body: `{"overrides":[]}`, want: http.StatusBadRequest},
		{name: "unknown user", path: "/api/v1/users/ghost/permissions/preview", body: `{"level":"LEVEL_2"}`, want: http.StatusNotFound},
		{name: "employee cannot propose", path: "/api/v1/users/emp/permissions/preview", body: `{"level":"LEVEL_3"}`, want: http.StatusForbidden},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			actor := "admin"
			if tc.want == http.StatusForbidden {
				actor = "emp"
			}
			rec := f.do(t, http.MethodPost, tc.path, actor, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCancelChange(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/users/hr/permissions/preview", "admin", `{"level":"LEVEL_3"}`)
	var change access.PendingChange
	decodeData(t, rec, &change)

	if rec := f.do(t, http.MethodDelete, "/api/v1/permission-changes/"+change.ID, "admin", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected cancel to succeed, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/permission-changes/"+change.ID+"/confirm", "admin", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected cancelled change to be gone, got %d", rec.Code)
	}

	perms, err := f.service.Resolve(context.Background(), "hr")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if perms.Level != access.Level2 {
		t.Fatalf("cancelled change must not apply, got %s", perms.Level)
	}
}

func TestEditorOptionsLockTierFeatures(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/users/hr/permissions", "admin", "")
	var view editorView
	decodeData(t, rec, &view)

	for _, opt := range view.Options {
		switch opt.Feature {
		case access.FeatureEmployeesList:
			if !opt.Locked || !opt.Granted {
				t.Fatalf("tier feature should be locked and granted: %+v", opt)
			}
		case access.FeatureAttendanceManagement:
			if opt.Locked || !opt.Granted {
				t.Fatalf("override should be granted and unlocked: %+v", opt)
			}
		case access.FeatureCVSearch:
			if opt.Locked || opt.Granted {
				t.Fatalf("cv search should be available but off: %+v", opt)
			}
		}
	}
}

func TestSelfElevationForbidden(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/users/hr/permissions/preview", "hr", `{"level":"LEVEL_3"}`)
	if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "self_elevation") {
		t.Fatalf("expected self_elevation 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestConfirmStepUpWithMFA(t *testing.T) {
	f := newFixture(t)
	enrollment, err := auth.GenerateMFASecret("hanna@company.com")
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if err := f.store.SetMFASecret(context.Background(), "admin", enrollment.Secret); err != nil {
		t.Fatalf("set secret: %v", err)
	}
	if err := f.store.SetMFAEnabled(context.Background(), "admin", true); err != nil {
		t.Fatalf("enable: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/users/emp/permissions/preview", "admin", `{"level":"LEVEL_2"}`)
	var change access.PendingChange
	decodeData(t, rec, &change)
	confirmPath := "/api/v1/permission-changes/" + change.ID + "/confirm"

	rec = f.do(t, http.MethodPost, confirmPath, "admin", "")
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "mfa_required") {
		t.Fatalf("expected mfa_required, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodPost, confirmPath, "admin", `{"code":"abc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected malformed code to fail validation, got %d", rec.Code)
	}

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	if err != nil {
		t.Fatalf("code error: %v", err)
	}
	rec = f.do(t, http.MethodPost, confirmPath, "admin", `{"code":"`+code+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected confirm with code to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	perms, err := f.service.Resolve(context.Background(), "emp")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if perms.Level != access.Level2 {
		t.Fatalf("expected level 2, got %s", perms.Level)
	}
}

func TestListUsersPaging(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/users?limit=2", "admin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Total-Count") != "3" || rec.Header().Get("X-Has-More") != "true" {
		t.Fatalf("unexpected paging headers %v", rec.Header())
	}
	var users []userSummary
	decodeData(t, rec, &users)
	if len(users) != 2 || users[0].User.Name != "Abebe Kebede" {
		t.Fatalf("unexpected page %+v", users)
	}
}
